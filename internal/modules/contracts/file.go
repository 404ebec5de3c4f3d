package contracts

import (
	"fmt"
	"os"

	"github.com/aristath/tradejournal/internal/domain"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a contract table override
type File struct {
	Contracts []Spec `yaml:"contracts"`
	Unknown   *Spec  `yaml:"unknown,omitempty"`
}

// LoadFile reads a YAML override and merges it over the built-in table.
// Families in the file replace built-in families with the same name.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contracts file: %w", err)
	}
	return Parse(data)
}

// Parse merges a YAML document over the built-in table
func Parse(data []byte) (*Table, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse contracts file: %w", err)
	}

	merged := make([]Spec, 0, len(DefaultSpecs)+len(f.Contracts))
	index := make(map[string]int)
	for _, s := range append(append([]Spec{}, DefaultSpecs...), f.Contracts...) {
		s = withDefaultCommission(s)
		key := domain.NormalizeSymbol(s.Family)
		if i, ok := index[key]; ok {
			merged[i] = s
			continue
		}
		index[key] = len(merged)
		merged = append(merged, s)
	}

	unknown := UnknownSpec
	if f.Unknown != nil {
		unknown = withDefaultCommission(*f.Unknown)
	}

	return NewTable(merged, unknown)
}

// An omitted commission follows the micro flag
func withDefaultCommission(s Spec) Spec {
	if s.Commission == 0 {
		if s.Micro {
			s.Commission = MicroCommission
		} else {
			s.Commission = StandardCommission
		}
	}
	return s
}
