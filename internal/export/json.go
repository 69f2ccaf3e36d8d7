package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadopc/ctfpad/internal/project"
)

// WriteArtifact saves an exported project into dir, creating dir if needed,
// and returns the written path.
func WriteArtifact(dir string, a project.Artifact) (string, error) {
	if a.Filename == "" {
		return "", fmt.Errorf("write artifact: empty filename")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(a.Filename))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("write json file: %w", err)
	}
	return path, nil
}

// ReadFile reads a project file for import.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return data, nil
}
