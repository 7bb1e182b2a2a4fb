package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/sigsplit/internal/models"
)

// Format is a report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. An empty name selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", models.NewConfigError("format", "unknown report format %q", s)
	}
}

// Writer writes reports to one path.
type Writer struct {
	filePath        string
	format          Format
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// NewWriter creates a writer. If filePath is empty, the report goes to the
// OS tmp directory.
func NewWriter(filePath string, format Format, filePermissions, dirPermissions os.FileMode) *Writer {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "sigsplit", "report."+string(format))
	}
	return &Writer{
		filePath:        filePath,
		format:          format,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// Path returns the report path.
func (w *Writer) Path() string {
	return w.filePath
}

// Save writes the report atomically.
func (w *Writer) Save(r *Report) error {
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, w.dirPermissions); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := Marshal(r, w.format)
	if err != nil {
		return err
	}

	// Write to temporary file first (atomic write)
	tempPath := w.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, w.filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tempPath, w.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Load reads a report written by Save.
func (w *Writer) Load() (*Report, error) {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var r Report
	switch w.format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &r)
	default:
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}

// Marshal encodes a report.
func Marshal(r *Report, format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(r)
	case FormatJSON:
		data, err = json.MarshalIndent(r, "", "  ")
	default:
		return nil, models.NewConfigError("format", "unknown report format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}
