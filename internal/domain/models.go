// Package domain provides core domain models and types.
package domain

import "strings"

// TradeSide represents the direction of a closed futures position
type TradeSide string

const (
	// SideLong profits when the exit price is above the entry price
	SideLong TradeSide = "long"
	// SideShort profits when the exit price is below the entry price
	SideShort TradeSide = "short"
)

// sideAliases maps every accepted broker spelling onto a side
var sideAliases = map[string]TradeSide{
	"long":  SideLong,
	"buy":   SideLong,
	"short": SideShort,
	"sell":  SideShort,
}

// NormalizeSide maps long/short/buy/sell (any case, surrounding spaces ignored)
// onto a TradeSide. The second return value is false for anything else.
func NormalizeSide(raw string) (TradeSide, bool) {
	side, ok := sideAliases[strings.ToLower(strings.TrimSpace(raw))]
	return side, ok
}

// IsValid reports whether the side is one of the two known directions
func (s TradeSide) IsValid() bool {
	return s == SideLong || s == SideShort
}

// NormalizeSymbol trims and upper-cases a contract symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
