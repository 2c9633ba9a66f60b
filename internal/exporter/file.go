package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileWriter saves exports and chart images under a base directory.
type FileWriter struct {
	dir    string
	logger *slog.Logger
}

// NewFileWriter creates a writer rooted at dir.
func NewFileWriter(dir string, logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWriter{dir: dir, logger: logger}
}

// resolvePath keeps absolute paths and roots relative ones at the base directory.
func (fw *FileWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(fw.dir, name)
}

// WriteTable saves t as name in format f and returns the full path.
func (fw *FileWriter) WriteTable(name string, f Format, t Table) (string, error) {
	path := fw.resolvePath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(file, f, t); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	fw.logger.Info("export written",
		slog.String("path", path),
		slog.String("format", string(f)),
		slog.Int("record_count", len(t.Records)))
	return path, nil
}

// WriteBytes saves raw content, such as a rendered chart, as name.
func (fw *FileWriter) WriteBytes(name string, data []byte) (string, error) {
	path := fw.resolvePath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
