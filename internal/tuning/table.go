// Package tuning maps a frequency to a funding multiplier using a YAML table.
package tuning

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

// Table is the multiplier configuration.
type Table struct {
	BaseValue         decimal.Decimal         `yaml:"baseValue"`
	AmplitudeGain     decimal.Decimal         `yaml:"amplitudeGain"`
	DefaultMultiplier decimal.Decimal         `yaml:"defaultMultiplier"`
	Multipliers       map[int]decimal.Decimal `yaml:"multipliers"`
}

// DefaultTable returns the built-in table.
func DefaultTable() *Table {
	t, err := ParseTable(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("tuning: embedded table: %v", err))
	}
	return t
}

// LoadTable reads a table from path. An empty path returns DefaultTable.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tuning table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every value is usable.
func (t *Table) Validate() error {
	if !t.BaseValue.IsPositive() {
		return fmt.Errorf("tuning table: baseValue must be positive")
	}
	if t.AmplitudeGain.IsNegative() {
		return fmt.Errorf("tuning table: amplitudeGain must not be negative")
	}
	if !t.DefaultMultiplier.IsPositive() {
		return fmt.Errorf("tuning table: defaultMultiplier must be positive")
	}
	for freq, m := range t.Multipliers {
		if freq <= 0 {
			return fmt.Errorf("tuning table: frequency %d must be positive", freq)
		}
		if !m.IsPositive() {
			return fmt.Errorf("tuning table: multiplier for %d must be positive", freq)
		}
	}
	return nil
}

// Multiplier returns the multiplier for frequency and whether it matched a table entry.
// Only integral frequencies can match.
func (t *Table) Multiplier(frequency float64) (decimal.Decimal, bool) {
	if frequency == float64(int(frequency)) {
		if m, ok := t.Multipliers[int(frequency)]; ok {
			return m, true
		}
	}
	return t.DefaultMultiplier, false
}
