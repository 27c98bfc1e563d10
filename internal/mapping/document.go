package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxDocumentSize bounds the mapping file read at startup (4MB).
const maxDocumentSize = 4 << 20

// Document is the on-disk mapping configuration.
type Document struct {
	Description  string `json:"description" yaml:"description"`
	Translations []Rule `json:"translations" yaml:"translations"`
}

// Format identifies the encoding of a mapping document.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from the file extension.
// Anything other than .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads, decodes and builds the mapping document at path.
//
// Returns:
//   - *Table: Immutable mapping table
//   - error: ErrDocumentUnreadable, ErrDocumentMalformed, ErrNoTranslations
//     or a *ValidationError
func Load(path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDocumentUnreadable, path)
	}
	if info.Size() > maxDocumentSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrDocumentUnreadable, path, maxDocumentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
	}

	doc, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, err
	}

	return BuildDocument(doc)
}

// Parse decodes a mapping document without validating its rules.
func Parse(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrDocumentMalformed)
	}

	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDocumentMalformed, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDocumentMalformed, err)
		}
	}

	return &doc, nil
}
