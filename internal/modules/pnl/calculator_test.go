package pnl

import (
	"errors"
	"math"
	"testing"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalculator() *Calculator {
	return NewCalculator(contracts.DefaultTable())
}

func TestCalculate_ReferenceTrades(t *testing.T) {
	calc := newCalculator()

	testCases := []struct {
		name   string
		input  Input
		gross  float64
		fees   float64
		net    float64
		ticks  float64
		side   domain.TradeSide
		method Method
	}{
		{
			name:   "NQ long two ticks",
			input:  Input{Symbol: "NQ", Side: "long", EntryPrice: 24970.75, ExitPrice: 24971.25, Quantity: 10},
			gross:  100.00,
			fees:   30.00,
			net:    70.00,
			ticks:  2,
			side:   domain.SideLong,
			method: MethodCalculated,
		},
		{
			name:   "MES short six ticks",
			input:  Input{Symbol: "MES", Side: "short", EntryPrice: 4500.00, ExitPrice: 4498.50, Quantity: 4},
			gross:  30.00,
			fees:   2.80,
			net:    27.20,
			ticks:  6,
			side:   domain.SideShort,
			method: MethodCalculated,
		},
		{
			name:   "sell maps to short",
			input:  Input{Symbol: "ESZ4", Side: "SELL", EntryPrice: 5000, ExitPrice: 5001, Quantity: 1},
			gross:  -50.00,
			fees:   3.00,
			net:    -53.00,
			ticks:  -4,
			side:   domain.SideShort,
			method: MethodCalculated,
		},
		{
			name:   "explicit fees override commission",
			input:  Input{Symbol: "NQ", Side: "buy", EntryPrice: 100, ExitPrice: 101, Quantity: 1, Fees: 4.12},
			gross:  20.00,
			fees:   4.12,
			net:    15.88,
			ticks:  4,
			side:   domain.SideLong,
			method: MethodExplicitFees,
		},
		{
			name:   "unknown symbol uses defaults",
			input:  Input{Symbol: "CL", Side: "long", EntryPrice: 70.00, ExitPrice: 70.50, Quantity: 2},
			gross:  4.00,
			fees:   6.00,
			net:    -2.00,
			ticks:  2,
			side:   domain.SideLong,
			method: MethodCalculated,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := calc.Calculate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.gross, res.GrossPnL)
			assert.Equal(t, tc.fees, res.Fees)
			assert.Equal(t, tc.net, res.NetPnL)
			assert.Equal(t, tc.ticks, res.Ticks)
			assert.Equal(t, tc.side, res.Side)
			assert.Equal(t, tc.method, res.Method)
		})
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := newCalculator()
	in := Input{Symbol: "MNQ", Side: "long", EntryPrice: 18000.25, ExitPrice: 18012.75, Quantity: 3}

	first, err := calc.Calculate(in)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		again, err := calc.Calculate(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculate_Errors(t *testing.T) {
	calc := newCalculator()

	testCases := []struct {
		name  string
		input Input
		kind  *domain.Error
	}{
		{"unknown side", Input{Symbol: "NQ", Side: "flat", EntryPrice: 1, ExitPrice: 2, Quantity: 1}, domain.ErrInvalidSide},
		{"empty side", Input{Symbol: "NQ", EntryPrice: 1, ExitPrice: 2, Quantity: 1}, domain.ErrInvalidSide},
		{"negative entry", Input{Symbol: "NQ", Side: "long", EntryPrice: -1, ExitPrice: 2, Quantity: 1}, domain.ErrInvalidPrice},
		{"NaN exit", Input{Symbol: "NQ", Side: "long", EntryPrice: 1, ExitPrice: math.NaN(), Quantity: 1}, domain.ErrInvalidPrice},
		{"infinite entry", Input{Symbol: "NQ", Side: "long", EntryPrice: math.Inf(1), ExitPrice: 2, Quantity: 1}, domain.ErrInvalidPrice},
		{"negative fees", Input{Symbol: "NQ", Side: "long", EntryPrice: 1, ExitPrice: 2, Quantity: 1, Fees: -3}, domain.ErrInvalidPrice},
		{"zero quantity", Input{Symbol: "NQ", Side: "long", EntryPrice: 1, ExitPrice: 2}, domain.ErrInvalidQuantity},
		{"zero quantity with fees", Input{Symbol: "NQ", Side: "long", EntryPrice: 1, ExitPrice: 2, Fees: 1}, domain.ErrInvalidQuantity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.Calculate(tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestFromSourcePnL(t *testing.T) {
	calc := newCalculator()

	res, err := calc.FromSourcePnL("NQ", 10, 0, 125.5)
	require.NoError(t, err)
	assert.Equal(t, MethodSourcePnL, res.Method)
	assert.Equal(t, 125.5, res.NetPnL)
	assert.Equal(t, 30.0, res.Fees)
	assert.Equal(t, 155.5, res.GrossPnL)

	res, err = calc.FromSourcePnL("NQ", 1, 2.5, -10)
	require.NoError(t, err)
	assert.Equal(t, 2.5, res.Fees)
	assert.Equal(t, -7.5, res.GrossPnL)

	_, err = calc.FromSourcePnL("NQ", 1, 0, math.Inf(-1))
	assert.True(t, errors.Is(err, domain.ErrInvalidPrice))
}
