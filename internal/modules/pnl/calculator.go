// Package pnl provides deterministic profit and loss calculation for closed futures trades.
package pnl

import (
	"fmt"
	"math"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/contracts"
	"github.com/shopspring/decimal"
)

// Method tags how the fees and net figure of a Result were obtained
type Method string

const (
	// MethodCalculated means fees came from the commission schedule
	MethodCalculated Method = "calculated"
	// MethodExplicitFees means the caller supplied the fees
	MethodExplicitFees Method = "explicit_fees"
	// MethodSourcePnL means the net figure was taken from the source row
	MethodSourcePnL Method = "source_pnl"
)

// ContractTable resolves contract metadata and round-trip commission
type ContractTable interface {
	Resolve(symbol string) contracts.Spec
	RoundTripCommission(symbol string, quantity int) (decimal.Decimal, error)
}

// Input is a closed position
type Input struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Quantity   int     `json:"quantity"`
	Fees       float64 `json:"fees"` // 0 means compute commission
}

// Result holds the outcome of a calculation
type Result struct {
	Side       domain.TradeSide `json:"side"`
	GrossPnL   float64          `json:"gross_pnl"`
	Fees       float64          `json:"fees"`
	NetPnL     float64          `json:"net_pnl"`
	Ticks      float64          `json:"ticks"`
	TickSize   float64          `json:"tick_size"`
	Multiplier float64          `json:"multiplier"`
	Method     Method           `json:"method"`
}

// Calculator computes PnL from a contract table. It holds no mutable state.
type Calculator struct {
	table ContractTable
}

// NewCalculator creates a calculator over table
func NewCalculator(table ContractTable) *Calculator {
	return &Calculator{table: table}
}

// Calculate returns gross, fees and net PnL for in
func (c *Calculator) Calculate(in Input) (Result, error) {
	side, ok := domain.NormalizeSide(in.Side)
	if !ok {
		return Result{}, domain.NewError(domain.KindInvalidSide, "pnl",
			fmt.Sprintf("side must be long, short, buy or sell, got %q", in.Side))
	}
	if err := validatePrice("entry", in.EntryPrice); err != nil {
		return Result{}, err
	}
	if err := validatePrice("exit", in.ExitPrice); err != nil {
		return Result{}, err
	}

	fees, method, err := c.fees(in.Symbol, in.Quantity, in.Fees)
	if err != nil {
		return Result{}, err
	}

	spec := c.table.Resolve(in.Symbol)
	tickSize := decimal.NewFromFloat(spec.TickSize)
	multiplier := decimal.NewFromFloat(spec.Multiplier)

	diff := decimal.NewFromFloat(in.ExitPrice).Sub(decimal.NewFromFloat(in.EntryPrice))
	if side == domain.SideShort {
		diff = diff.Neg()
	}

	ticks := diff.Div(tickSize)
	gross := ticks.Mul(decimal.NewFromInt(int64(in.Quantity))).Mul(multiplier).Round(2)
	net := gross.Sub(fees).Round(2)

	return Result{
		Side:       side,
		GrossPnL:   gross.InexactFloat64(),
		Fees:       fees.InexactFloat64(),
		NetPnL:     net.InexactFloat64(),
		Ticks:      ticks.Round(4).InexactFloat64(),
		TickSize:   spec.TickSize,
		Multiplier: spec.Multiplier,
		Method:     method,
	}, nil
}

// FromSourcePnL builds a Result around a net figure reported by the source.
// Fees follow the same rule as Calculate and gross is net plus fees.
func (c *Calculator) FromSourcePnL(symbol string, quantity int, explicitFees, netPnL float64) (Result, error) {
	if math.IsNaN(netPnL) || math.IsInf(netPnL, 0) {
		return Result{}, domain.NewError(domain.KindInvalidPrice, "pnl",
			fmt.Sprintf("source pnl must be finite, got %v", netPnL))
	}

	fees, _, err := c.fees(symbol, quantity, explicitFees)
	if err != nil {
		return Result{}, err
	}

	spec := c.table.Resolve(symbol)
	net := decimal.NewFromFloat(netPnL).Round(2)

	return Result{
		GrossPnL:   net.Add(fees).Round(2).InexactFloat64(),
		Fees:       fees.InexactFloat64(),
		NetPnL:     net.InexactFloat64(),
		TickSize:   spec.TickSize,
		Multiplier: spec.Multiplier,
		Method:     MethodSourcePnL,
	}, nil
}

func (c *Calculator) fees(symbol string, quantity int, explicit float64) (decimal.Decimal, Method, error) {
	if quantity <= 0 {
		return decimal.Zero, "", domain.NewError(domain.KindInvalidQuantity, "pnl",
			fmt.Sprintf("quantity must be a positive integer, got %d", quantity))
	}
	if math.IsNaN(explicit) || math.IsInf(explicit, 0) || explicit < 0 {
		return decimal.Zero, "", domain.NewError(domain.KindInvalidPrice, "pnl",
			fmt.Sprintf("fees must be a finite non-negative amount, got %v", explicit))
	}
	if explicit > 0 {
		return decimal.NewFromFloat(explicit).Round(2), MethodExplicitFees, nil
	}

	commission, err := c.table.RoundTripCommission(symbol, quantity)
	if err != nil {
		return decimal.Zero, "", err
	}
	return commission, MethodCalculated, nil
}

func validatePrice(label string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return domain.NewError(domain.KindInvalidPrice, "pnl",
			fmt.Sprintf("%s price must be finite and non-negative, got %v", label, v))
	}
	return nil
}
