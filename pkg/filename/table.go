package filename

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type tableFile struct {
	Substitutions []Substitution `yaml:"substitutions"`
}

// LoadSubstitutions reads an extra substitution table from a YAML file.
func LoadSubstitutions(path string) ([]Substitution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadTable, err)
	}
	return ParseSubstitutions(data)
}

// ParseSubstitutions decodes a YAML substitution table.
func ParseSubstitutions(data []byte) ([]Substitution, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, errors.Join(ErrInvalidTable, err)
	}
	for i, sub := range tf.Substitutions {
		if sub.From == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty \"from\"", ErrInvalidTable, i)
		}
	}
	return tf.Substitutions, nil
}
