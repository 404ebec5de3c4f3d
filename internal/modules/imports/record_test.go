package imports

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newNormalizer(policy config.SidePolicy) *Normalizer {
	return NewNormalizer(policy, func() time.Time { return fixedNow })
}

func TestNormalize_FullRow(t *testing.T) {
	n := newNormalizer(config.SidePolicyPermissive)

	row, err := n.Normalize(0, Record{
		"Symbol":      " nqh4 ",
		"Side":        "Buy",
		"Quantity":    json.Number("2"),
		"entry_price": json.Number("17000.25"),
		"exit_price":  "17,001.50",
		"fees":        "$6.00",
		"pnl":         "(12.50)",
		"entered_at":  "2024-01-05T14:30:00Z",
		"exited_at":   "2024-01-05 15:00:00",
	})
	require.NoError(t, err)

	assert.Equal(t, "NQH4", row.Symbol)
	assert.Equal(t, domain.SideLong, row.Side)
	assert.False(t, row.SideDefaulted)
	assert.Equal(t, 2, row.Quantity)
	assert.True(t, row.HasEntryPrice)
	assert.True(t, row.HasExitPrice)
	assert.Equal(t, 17000.25, row.EntryPrice)
	assert.Equal(t, 17001.50, row.ExitPrice)
	assert.Equal(t, 6.0, row.Fees)
	require.NotNil(t, row.PnL)
	assert.Equal(t, -12.5, *row.PnL)
	assert.Equal(t, time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC), row.EnteredAt)
	assert.Equal(t, time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC), row.ExitedAt)
	assert.Equal(t, "entered_at", row.DateSource)
	assert.False(t, row.DateDefaulted)
}

func TestNormalize_Defaults(t *testing.T) {
	n := newNormalizer(config.SidePolicyPermissive)

	row, err := n.Normalize(3, Record{})
	require.NoError(t, err)

	assert.Equal(t, 3, row.Index)
	assert.Equal(t, UnknownSymbol, row.Symbol)
	assert.Equal(t, domain.SideLong, row.Side)
	assert.True(t, row.SideDefaulted)
	assert.Equal(t, 1, row.Quantity)
	assert.False(t, row.HasEntryPrice)
	assert.False(t, row.HasExitPrice)
	assert.Nil(t, row.PnL)
	assert.True(t, row.DateDefaulted)
	assert.Equal(t, fixedNow, row.EnteredAt)
	assert.Equal(t, row.EnteredAt, row.ExitedAt)
}

func TestNormalize_AlternateKeys(t *testing.T) {
	n := newNormalizer(config.SidePolicyStrict)

	row, err := n.Normalize(0, Record{
		"contract_name": "MESM4",
		"type":          "sell",
		"size":          "3",
		"trade_day":     "3/15/2024",
		"exit_time":     "3/15/2024 15:04",
	})
	require.NoError(t, err)

	assert.Equal(t, "MESM4", row.Symbol)
	assert.Equal(t, domain.SideShort, row.Side)
	assert.Equal(t, 3, row.Quantity)
	assert.Equal(t, "trade_day", row.DateSource)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), row.EnteredAt)
	assert.Equal(t, time.Date(2024, 3, 15, 15, 4, 0, 0, time.UTC), row.ExitedAt)
}

func TestNormalize_UnparseableDateFallsThroughToNextKey(t *testing.T) {
	n := newNormalizer(config.SidePolicyPermissive)

	row, err := n.Normalize(0, Record{
		"entered_at": "yesterday-ish",
		"date":       "2024-02-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "date", row.DateSource)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), row.EnteredAt)
}

func TestNormalize_SidePolicy(t *testing.T) {
	testCases := []struct {
		name      string
		policy    config.SidePolicy
		side      interface{}
		expected  domain.TradeSide
		defaulted bool
		errorKind domain.ErrorKind
	}{
		{name: "long", policy: config.SidePolicyStrict, side: "LONG", expected: domain.SideLong},
		{name: "short", policy: config.SidePolicyStrict, side: " short ", expected: domain.SideShort},
		{name: "sell", policy: config.SidePolicyStrict, side: "Sell", expected: domain.SideShort},
		{name: "permissive unknown", policy: config.SidePolicyPermissive, side: "flat", expected: domain.SideLong, defaulted: true},
		{name: "strict unknown", policy: config.SidePolicyStrict, side: "flat", errorKind: domain.KindInvalidSide},
		{name: "strict missing", policy: config.SidePolicyStrict, side: nil, errorKind: domain.KindInvalidSide},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Record{}
			if tc.side != nil {
				rec["side"] = tc.side
			}
			row, err := newNormalizer(tc.policy).Normalize(0, rec)
			if tc.errorKind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.errorKind, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, row.Side)
			assert.Equal(t, tc.defaulted, row.SideDefaulted)
		})
	}
}

func TestNormalize_InvalidValues(t *testing.T) {
	testCases := []struct {
		name      string
		rec       Record
		errorKind domain.ErrorKind
	}{
		{name: "zero quantity", rec: Record{"quantity": json.Number("0")}, errorKind: domain.KindInvalidQuantity},
		{name: "negative quantity", rec: Record{"quantity": "-2"}, errorKind: domain.KindInvalidQuantity},
		{name: "fractional quantity", rec: Record{"quantity": 1.5}, errorKind: domain.KindInvalidQuantity},
		{name: "text quantity", rec: Record{"quantity": "two"}, errorKind: domain.KindInvalidQuantity},
		{name: "text price", rec: Record{"entry_price": "n/a"}, errorKind: domain.KindInvalidPrice},
		{name: "text pnl", rec: Record{"pnl": "lots"}, errorKind: domain.KindInvalidPrice},
		{name: "text fees", rec: Record{"fees": true}, errorKind: domain.KindInvalidPrice},
	}

	n := newNormalizer(config.SidePolicyPermissive)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.Normalize(0, tc.rec)
			require.Error(t, err)
			assert.Equal(t, tc.errorKind, domain.KindOf(err))
		})
	}
}

func TestNormalize_BlankValuesAreAbsent(t *testing.T) {
	n := newNormalizer(config.SidePolicyPermissive)

	row, err := n.Normalize(0, Record{
		"symbol":      "  ",
		"quantity":    "",
		"entry_price": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, UnknownSymbol, row.Symbol)
	assert.Equal(t, 1, row.Quantity)
	assert.False(t, row.HasEntryPrice)
}

func TestToFloat(t *testing.T) {
	testCases := []struct {
		in       interface{}
		expected float64
		ok       bool
	}{
		{in: 1.25, expected: 1.25, ok: true},
		{in: 7, expected: 7, ok: true},
		{in: json.Number("-3.5"), expected: -3.5, ok: true},
		{in: "$1,234.50", expected: 1234.5, ok: true},
		{in: "(40)", expected: -40, ok: true},
		{in: "abc", ok: false},
		{in: []int{1}, ok: false},
	}

	for _, tc := range testCases {
		f, ok := toFloat(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.expected, f, "%v", tc.in)
		}
	}
}

func TestNormalize_CaseCollidingKeysResolveTheSameWay(t *testing.T) {
	n := newNormalizer(config.SidePolicyStrict)

	for i := 0; i < 50; i++ {
		row, err := n.Normalize(0, Record{
			"Symbol":      "ES",
			"symbol":      "NQ",
			" SIDE ":      "short",
			"Side":        "long",
			"ENTRY_PRICE": "4500",
			"entry_price": "",
		})
		require.NoError(t, err)
		assert.Equal(t, "NQ", row.Symbol)
		assert.Equal(t, domain.SideShort, row.Side)
		assert.True(t, row.HasEntryPrice)
		assert.Equal(t, 4500.0, row.EntryPrice)
	}
}
