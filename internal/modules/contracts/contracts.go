// Package contracts provides futures contract metadata and commission calculation.
package contracts

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// StandardCommission is the per-contract, per-side fee for full-size contracts
	StandardCommission = 1.50
	// MicroCommission is the per-contract, per-side fee for micro contracts
	MicroCommission = 0.35
)

// Spec describes a contract family
type Spec struct {
	Family     string  `json:"family" yaml:"family"`
	TickSize   float64 `json:"tick_size" yaml:"tick_size"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	Commission float64 `json:"commission" yaml:"commission"` // Per contract, per side
	Micro      bool    `json:"micro" yaml:"micro"`
}

// DefaultSpecs is the built-in CME equity index table
var DefaultSpecs = []Spec{
	{Family: "NQ", TickSize: 0.25, Multiplier: 5.0, Commission: StandardCommission},
	{Family: "ES", TickSize: 0.25, Multiplier: 12.5, Commission: StandardCommission},
	{Family: "RTY", TickSize: 0.10, Multiplier: 12.5, Commission: StandardCommission},
	{Family: "YM", TickSize: 1.0, Multiplier: 5.0, Commission: StandardCommission},
	{Family: "MNQ", TickSize: 0.25, Multiplier: 0.5, Commission: MicroCommission, Micro: true},
	{Family: "MES", TickSize: 0.25, Multiplier: 1.25, Commission: MicroCommission, Micro: true},
	{Family: "M2K", TickSize: 0.10, Multiplier: 1.25, Commission: MicroCommission, Micro: true},
	{Family: "MYM", TickSize: 1.0, Multiplier: 0.5, Commission: MicroCommission, Micro: true},
}

// UnknownSpec applies to symbols that match no family
var UnknownSpec = Spec{TickSize: 0.25, Multiplier: 1.0, Commission: StandardCommission}

// Table resolves symbols to contract specs.
// A Table is immutable after construction and safe for concurrent use.
type Table struct {
	specs   []Spec // Longest family first
	unknown Spec
}

// NewTable builds a table from specs. Unknown symbols resolve to unknown.
func NewTable(specs []Spec, unknown Spec) (*Table, error) {
	seen := make(map[string]bool, len(specs))
	sorted := make([]Spec, 0, len(specs))

	for _, s := range specs {
		s.Family = domain.NormalizeSymbol(s.Family)
		if s.Family == "" {
			return nil, fmt.Errorf("contract family must not be empty")
		}
		if seen[s.Family] {
			return nil, fmt.Errorf("duplicate contract family %s", s.Family)
		}
		if err := validateSpec(s); err != nil {
			return nil, fmt.Errorf("contract %s: %w", s.Family, err)
		}
		seen[s.Family] = true
		sorted = append(sorted, s)
	}

	unknown.Family = ""
	if err := validateSpec(unknown); err != nil {
		return nil, fmt.Errorf("unknown contract defaults: %w", err)
	}

	// MES must be tried before ES
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Family) != len(sorted[j].Family) {
			return len(sorted[i].Family) > len(sorted[j].Family)
		}
		return sorted[i].Family < sorted[j].Family
	})

	return &Table{specs: sorted, unknown: unknown}, nil
}

// DefaultTable returns the built-in table
func DefaultTable() *Table {
	t, err := NewTable(DefaultSpecs, UnknownSpec)
	if err != nil {
		panic(fmt.Sprintf("built-in contract table is invalid: %v", err))
	}
	return t
}

func validateSpec(s Spec) error {
	if !(s.TickSize > 0) || math.IsInf(s.TickSize, 0) {
		return fmt.Errorf("tick_size must be positive, got %v", s.TickSize)
	}
	if !(s.Multiplier > 0) || math.IsInf(s.Multiplier, 0) {
		return fmt.Errorf("multiplier must be positive, got %v", s.Multiplier)
	}
	if !(s.Commission >= 0) || math.IsInf(s.Commission, 0) {
		return fmt.Errorf("commission must not be negative, got %v", s.Commission)
	}
	return nil
}

// Lookup returns the spec whose family equals or prefixes the normalized symbol.
// The second return value is false when the unknown defaults were used.
func (t *Table) Lookup(symbol string) (Spec, bool) {
	normalized := domain.NormalizeSymbol(symbol)
	if normalized != "" {
		for _, s := range t.specs {
			if strings.HasPrefix(normalized, s.Family) {
				return s, true
			}
		}
	}
	return t.unknown, false
}

// Resolve returns the spec for symbol, falling back to the unknown defaults
func (t *Table) Resolve(symbol string) Spec {
	s, _ := t.Lookup(symbol)
	return s
}

// Specs returns a copy of the known families, longest first
func (t *Table) Specs() []Spec {
	out := make([]Spec, len(t.specs))
	copy(out, t.specs)
	return out
}

// Unknown returns the defaults applied to unmatched symbols
func (t *Table) Unknown() Spec {
	return t.unknown
}

// RoundTripCommission returns fee × quantity × 2 rounded half-up to cents
func (t *Table) RoundTripCommission(symbol string, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, domain.NewError(domain.KindInvalidQuantity, "commission",
			fmt.Sprintf("quantity must be a positive integer, got %d", quantity))
	}

	fee := decimal.NewFromFloat(t.Resolve(symbol).Commission)
	return fee.Mul(decimal.NewFromInt(int64(quantity))).Mul(decimal.NewFromInt(2)).Round(2), nil
}

// Commission is RoundTripCommission as a float
func (t *Table) Commission(symbol string, quantity int) (float64, error) {
	c, err := t.RoundTripCommission(symbol, quantity)
	if err != nil {
		return 0, err
	}
	return c.InexactFloat64(), nil
}

// QuantityFromFloat converts a decoded numeric quantity into a contract count.
// Non-finite, fractional and non-positive values are InvalidQuantity.
func QuantityFromFloat(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v <= 0 || v > math.MaxInt32 {
		return 0, domain.NewError(domain.KindInvalidQuantity, "quantity",
			fmt.Sprintf("quantity must be a positive integer, got %v", v))
	}
	return int(v), nil
}
