package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadRecordMissing(t *testing.T) {
	_, found, err := ReadRecord(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("missing record must not be an error: %v", err)
	}
	if found {
		t.Error("expected found=false for missing record")
	}
}

func TestWriteThenReadRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "fingerprint.txt")

	if err := WriteRecord(path, "0123456789abcdef"); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	fp, found, err := ReadRecord(path)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if !found {
		t.Fatal("expected record to be found")
	}
	if fp != "0123456789abcdef" {
		t.Errorf("expected round-tripped fingerprint, got %q", fp)
	}
}

func TestReadRecordTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerprint.txt")
	if err := os.WriteFile(path, []byte("0123456789abcdef\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fp, _, err := ReadRecord(path)
	if err != nil {
		t.Fatal(err)
	}
	if fp != "0123456789abcdef" {
		t.Errorf("expected trimmed fingerprint, got %q", fp)
	}
}
