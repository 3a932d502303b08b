package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"transformer/internal/mapping"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes all generated files to the output directory.
// It creates the directory if it doesn't exist. Files that failed to format
// are written next to their intended name as "<name>.unformatted.go".
func WriteFiles(files []GeneratedFile, outputDir string) error {
	err := os.MkdirAll(outputDir, dirPerm)
	if err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, file := range files {
		name := file.Filename
		if file.Unformatted {
			name = strings.TrimSuffix(name, ".go") + ".unformatted.go"
		}

		err := os.WriteFile(filepath.Join(outputDir, name), file.Content, filePerm)
		if err != nil {
			return fmt.Errorf("writing file %s: %w", name, err)
		}
	}

	return nil
}

// WriteResult writes the Go files and, when yamlName is set, the
// declaration document next to them.
func WriteResult(res *Result, outputDir, yamlName string) error {
	if err := WriteFiles(res.Files, outputDir); err != nil {
		return err
	}

	if yamlName == "" {
		return nil
	}

	if err := mapping.WriteFile(res.Document, filepath.Join(outputDir, yamlName)); err != nil {
		return fmt.Errorf("writing declarations: %w", err)
	}

	return nil
}
