// Package imports provides batch import of broker trade exports.
package imports

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/contracts"
)

// Record is one decoded source row keyed by field or column name
type Record map[string]interface{}

// Accepted spellings for each field, first present wins
var (
	symbolKeys    = []string{"symbol", "contract_name"}
	sideKeys      = []string{"side", "type"}
	quantityKeys  = []string{"quantity", "size"}
	entryDateKeys = []string{"entered_at", "trade_day", "date"}
	exitDateKeys  = []string{"exited_at", "exit_time"}
)

// UnknownSymbol is booked when a row carries no symbol
const UnknownSymbol = "UNKNOWN"

// RawImportRow is a source row after normalization, before pricing
type RawImportRow struct {
	Index         int
	Symbol        string
	Side          domain.TradeSide
	RawSide       string
	SideDefaulted bool
	Quantity      int
	EntryPrice    float64
	ExitPrice     float64
	HasEntryPrice bool
	HasExitPrice  bool
	EnteredAt     time.Time
	ExitedAt      time.Time
	DateSource    string
	DateDefaulted bool
	PnL           *float64
	Fees          float64
	Raw           Record
}

// Normalizer maps loosely keyed records onto RawImportRow
type Normalizer struct {
	sidePolicy config.SidePolicy
	now        func() time.Time
}

// NewNormalizer creates a normalizer. now supplies the fallback entry time.
func NewNormalizer(sidePolicy config.SidePolicy, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{sidePolicy: sidePolicy, now: now}
}

// Normalize validates and types one record. Field names match case-insensitively.
func (n *Normalizer) Normalize(index int, rec Record) (RawImportRow, error) {
	fields := foldKeys(rec)

	row := RawImportRow{Index: index, Raw: rec, Symbol: UnknownSymbol}

	if _, v, ok := first(fields, symbolKeys); ok {
		if s := domain.NormalizeSymbol(fmt.Sprint(v)); s != "" {
			row.Symbol = s
		}
	}

	if err := n.normalizeSide(fields, &row); err != nil {
		return row, err
	}

	row.Quantity = 1
	if key, v, ok := first(fields, quantityKeys); ok {
		f, parsed := toFloat(v)
		if !parsed {
			return row, domain.NewError(domain.KindInvalidQuantity, "normalize",
				fmt.Sprintf("%s %q is not a number", key, fmt.Sprint(v)))
		}
		q, err := contracts.QuantityFromFloat(f)
		if err != nil {
			return row, err
		}
		row.Quantity = q
	}

	var err error
	if row.EntryPrice, row.HasEntryPrice, err = optionalAmount(fields, "entry_price"); err != nil {
		return row, err
	}
	if row.ExitPrice, row.HasExitPrice, err = optionalAmount(fields, "exit_price"); err != nil {
		return row, err
	}
	if pnl, has, err := optionalAmount(fields, "pnl"); err != nil {
		return row, err
	} else if has {
		row.PnL = &pnl
	}
	if row.Fees, _, err = optionalAmount(fields, "fees"); err != nil {
		return row, err
	}

	row.EnteredAt, row.DateSource = parseFirstDate(fields, entryDateKeys)
	if row.DateSource == "" {
		row.EnteredAt = n.now().UTC()
		row.DateDefaulted = true
	}
	row.ExitedAt, _ = parseFirstDate(fields, exitDateKeys)
	if row.ExitedAt.IsZero() {
		row.ExitedAt = row.EnteredAt
	}

	return row, nil
}

// foldKeys lowercases field names. When two names fold to the same key the
// exactly lowercase name wins, then the first non-blank in sorted order.
func foldKeys(rec Record) map[string]interface{} {
	names := make([]string, 0, len(rec))
	for k := range rec {
		names = append(names, k)
	}
	sort.Strings(names)

	fields := make(map[string]interface{}, len(rec))
	exact := make(map[string]bool, len(rec))
	for _, k := range names {
		key := strings.ToLower(strings.TrimSpace(k))
		v := rec[k]
		if existing, dup := fields[key]; dup && !isBlank(existing) {
			if exact[key] || k != key || isBlank(v) {
				continue
			}
		}
		fields[key] = v
		exact[key] = k == key
	}
	return fields
}

func (n *Normalizer) normalizeSide(fields map[string]interface{}, row *RawImportRow) error {
	_, v, ok := first(fields, sideKeys)
	if ok {
		row.RawSide = strings.TrimSpace(fmt.Sprint(v))
	}

	if side, known := domain.NormalizeSide(row.RawSide); known {
		row.Side = side
		return nil
	}

	if n.sidePolicy == config.SidePolicyStrict {
		return domain.NewError(domain.KindInvalidSide, "normalize",
			fmt.Sprintf("side must be long, short, buy or sell, got %q", row.RawSide))
	}
	row.Side = domain.SideLong
	row.SideDefaulted = true
	return nil
}

// first returns the first key present with a non-blank value
func first(fields map[string]interface{}, keys []string) (string, interface{}, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && !isBlank(v) {
			return k, v, true
		}
	}
	return "", nil, false
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// optionalAmount reads a money or price field; unparseable values are InvalidPrice
func optionalAmount(fields map[string]interface{}, key string) (float64, bool, error) {
	v, ok := fields[key]
	if !ok || isBlank(v) {
		return 0, false, nil
	}
	f, parsed := toFloat(v)
	if !parsed || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, domain.NewError(domain.KindInvalidPrice, "normalize",
			fmt.Sprintf("%s %q is not a finite number", key, fmt.Sprint(v)))
	}
	return f, true, nil
}

// toFloat accepts JSON numbers and numeric strings with an optional currency
// sign and thousands separators
func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		negative := false
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			negative = true
			s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		}
		s = strings.ReplaceAll(s, ",", "")
		s = strings.Replace(s, "$", "", 1)
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		if negative {
			f = -f
		}
		return f, true
	}
	return 0, false
}
