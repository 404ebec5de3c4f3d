package contracts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_KnownFamilies(t *testing.T) {
	table := DefaultTable()

	testCases := []struct {
		symbol     string
		family     string
		tickSize   float64
		multiplier float64
	}{
		{"NQ", "NQ", 0.25, 5.0},
		{"nqz4", "NQ", 0.25, 5.0},
		{"  NQH25 ", "NQ", 0.25, 5.0},
		{"ES", "ES", 0.25, 12.5},
		{"ESM5", "ES", 0.25, 12.5},
		{"RTY", "RTY", 0.10, 12.5},
		{"YMZ4", "YM", 1.0, 5.0},
		{"MNQ", "MNQ", 0.25, 0.5},
		{"MESZ4", "MES", 0.25, 1.25},
		{"m2k", "M2K", 0.10, 1.25},
		{"MYMH5", "MYM", 1.0, 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.symbol, func(t *testing.T) {
			spec, known := table.Lookup(tc.symbol)
			assert.True(t, known)
			assert.Equal(t, tc.family, spec.Family)
			assert.Equal(t, tc.tickSize, spec.TickSize)
			assert.Equal(t, tc.multiplier, spec.Multiplier)
		})
	}
}

func TestLookup_UnknownSymbolDefaults(t *testing.T) {
	table := DefaultTable()

	for _, symbol := range []string{"CL", "GCZ4", "UNKNOWN", "", "AAPL", "6E"} {
		t.Run(symbol, func(t *testing.T) {
			spec, known := table.Lookup(symbol)
			assert.False(t, known)
			assert.Equal(t, 0.25, spec.TickSize)
			assert.Equal(t, 1.0, spec.Multiplier)
		})
	}
}

func TestCommission(t *testing.T) {
	table := DefaultTable()

	testCases := []struct {
		name     string
		symbol   string
		quantity int
		expected float64
	}{
		{"NQ ten contracts", "NQ", 10, 30.00},
		{"MES four contracts", "MES", 4, 2.80},
		{"ES single", "ESZ4", 1, 3.00},
		{"micro single", "MNQ", 1, 0.70},
		{"MYM three", "MYM", 3, 2.10},
		{"unknown falls back to standard rate", "CL", 2, 6.00},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := table.Commission(tc.symbol, tc.quantity)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCommission_InvalidQuantity(t *testing.T) {
	table := DefaultTable()

	for _, q := range []int{0, -1, -10} {
		_, err := table.Commission("NQ", q)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))
	}
}

func TestRoundTripCommission_RoundsHalfUp(t *testing.T) {
	table, err := NewTable([]Spec{{Family: "ZZ", TickSize: 1, Multiplier: 1, Commission: 0.0125}}, UnknownSpec)
	require.NoError(t, err)

	// 0.0125 * 1 * 2 = 0.025 -> 0.03
	c, err := table.RoundTripCommission("ZZ", 1)
	require.NoError(t, err)
	assert.Equal(t, "0.03", c.StringFixed(2))
}

func TestQuantityFromFloat(t *testing.T) {
	q, err := QuantityFromFloat(3)
	require.NoError(t, err)
	assert.Equal(t, 3, q)

	for _, bad := range []float64{0, -2, 1.5} {
		_, err := QuantityFromFloat(bad)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuantity), "value %v", bad)
	}
}

func TestNewTable_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		specs []Spec
	}{
		{"empty family", []Spec{{Family: " ", TickSize: 1, Multiplier: 1}}},
		{"duplicate family", []Spec{{Family: "NQ", TickSize: 1, Multiplier: 1}, {Family: "nq", TickSize: 1, Multiplier: 1}}},
		{"zero tick", []Spec{{Family: "NQ", TickSize: 0, Multiplier: 1}}},
		{"negative multiplier", []Spec{{Family: "NQ", TickSize: 1, Multiplier: -1}}},
		{"negative commission", []Spec{{Family: "NQ", TickSize: 1, Multiplier: 1, Commission: -1}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.specs, UnknownSpec)
			assert.Error(t, err)
		})
	}
}

func TestParse_MergesOverDefaults(t *testing.T) {
	doc := []byte(`
contracts:
  - family: CL
    tick_size: 0.01
    multiplier: 1000
    commission: 2.25
  - family: MCL
    tick_size: 0.01
    multiplier: 100
    micro: true
  - family: NQ
    tick_size: 0.25
    multiplier: 20
unknown:
  tick_size: 0.5
  multiplier: 2
`)

	table, err := Parse(doc)
	require.NoError(t, err)

	cl := table.Resolve("CLZ4")
	assert.Equal(t, "CL", cl.Family)
	assert.Equal(t, 1000.0, cl.Multiplier)

	mcl := table.Resolve("MCLZ4")
	assert.Equal(t, "MCL", mcl.Family, "longer family wins over CL prefix")
	assert.Equal(t, MicroCommission, mcl.Commission)

	assert.Equal(t, 20.0, table.Resolve("NQ").Multiplier, "file overrides built-in family")
	assert.Equal(t, 12.5, table.Resolve("ES").Multiplier, "other built-ins survive")

	unknown, known := table.Lookup("GC")
	assert.False(t, known)
	assert.Equal(t, 0.5, unknown.TickSize)
	assert.Equal(t, StandardCommission, unknown.Commission)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contracts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contracts:\n  - family: GC\n    tick_size: 0.1\n    multiplier: 100\n"), 0644))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, table.Resolve("GCZ4").Multiplier)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("contracts: [{family: GC, tick_size: 0}]"), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
