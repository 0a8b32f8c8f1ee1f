package dockerfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// ignoreFileContent is the static companion ignore-file artifact. It is not
// computed from the descriptor.
const ignoreFileContent = `# Build output
**/bin/
**/obj/
**/out/

# Version control
.git/
.gitignore

# IDE state
.vs/
.vscode/
.idea/
*.user
*.suo

# Tests
**/TestResults/

# Container artifacts
Dockerfile*
.dockerignore
`

// IgnoreFileContent returns the static ignore-file text.
func IgnoreFileContent() string {
	return ignoreFileContent
}

// IgnoreFilePath returns where the companion .dockerignore lives for a
// generated Dockerfile at dockerfilePath.
func IgnoreFilePath(dockerfilePath string) string {
	return filepath.Join(filepath.Dir(dockerfilePath), ".dockerignore")
}

// WriteIgnoreFile writes the companion .dockerignore next to the generated
// Dockerfile at dockerfilePath.
func WriteIgnoreFile(dockerfilePath string) error {
	path := IgnoreFilePath(dockerfilePath)
	if err := os.WriteFile(path, []byte(ignoreFileContent), 0644); err != nil {
		return fmt.Errorf("writing ignore file: %w", err)
	}
	return nil
}
