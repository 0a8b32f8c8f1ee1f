package fingerprint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadRecord reads the previously persisted fingerprint from path. A missing
// record returns ("", false, nil): the caller treats that as a first run.
// Any other read failure is returned so the caller can fail open.
func ReadRecord(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading fingerprint record: %w", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// WriteRecord persists the fingerprint as flat text at path, creating parent
// directories as needed.
func WriteRecord(path, fp string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating fingerprint record directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(fp), 0644); err != nil {
		return fmt.Errorf("writing fingerprint record: %w", err)
	}
	return nil
}
