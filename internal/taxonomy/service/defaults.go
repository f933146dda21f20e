package service

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCollectionType is used when no defaults file is configured.
const DefaultCollectionType = "Standard"

// Defaults are the configured taxonomy defaults. Each default is named
// explicitly so reordering a taxonomy table never changes behaviour.
type Defaults struct {
	CollectionType string `yaml:"collection_type"`
	DataStatus     string `yaml:"data_status"`
}

// LoadDefaults reads a YAML defaults file. An empty path yields the
// built-in defaults.
func LoadDefaults(path string) (Defaults, error) {
	d := Defaults{CollectionType: DefaultCollectionType}
	if path == "" {
		return d, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return d, fmt.Errorf("taxonomy defaults file %s not found", path)
		}
		return d, fmt.Errorf("failed to read taxonomy defaults: %w", err)
	}
	return ParseDefaults(raw)
}

// ParseDefaults decodes YAML defaults. Unknown keys are rejected.
func ParseDefaults(raw []byte) (Defaults, error) {
	var d Defaults
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Defaults{}, fmt.Errorf("invalid taxonomy defaults: %w", err)
	}

	d.CollectionType = strings.TrimSpace(d.CollectionType)
	d.DataStatus = strings.TrimSpace(d.DataStatus)
	if d.CollectionType == "" {
		return Defaults{}, fmt.Errorf("invalid taxonomy defaults: collection_type is required")
	}
	return d, nil
}
