package vocabulary

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"bulbank-notification-parser/internal/models"
)

// File is the on-disk YAML form of a vocabulary
//
//	version: bulbank-bg/2
//	labels:
//	  CARD_OPERATION:
//	    - Операция с карта
type File struct {
	Version string                              `yaml:"version"`
	Labels  map[models.TransactionType][]string `yaml:"labels"`
}

// Load decodes and validates a vocabulary from YAML
func Load(r io.Reader) (*Vocabulary, error) {
	var f File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary: %w", err)
	}
	return New(f.Version, f.Labels)
}

// LoadFile reads a vocabulary YAML file
func LoadFile(path string) (*Vocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer file.Close()

	v, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// File returns the vocabulary in its YAML form, labels grouped by type
func (v *Vocabulary) File() File {
	f := File{Version: v.version, Labels: make(map[models.TransactionType][]string)}
	for _, e := range v.entries {
		f.Labels[e.Type] = append(f.Labels[e.Type], e.Label)
	}
	return f
}

// Encode writes the vocabulary as YAML
func (v *Vocabulary) Encode(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v.File()); err != nil {
		return fmt.Errorf("failed to encode vocabulary: %w", err)
	}
	return encoder.Close()
}
