package imports

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order against every date field
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
	"1/2/2006",
	"20060102",
}

// parseFirstDate walks keys in order and returns the first value that parses,
// along with the key it came from. The key is empty when nothing parsed.
func parseFirstDate(fields map[string]interface{}, keys []string) (time.Time, string) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || isBlank(v) {
			continue
		}
		if t, ok := ParseDate(v); ok {
			return t, k
		}
	}
	return time.Time{}, ""
}

// ParseDate interprets a timestamp field. Strings are matched against the
// known layouts; numbers are unix seconds, or milliseconds when too large to
// be seconds. Zone-less values are UTC.
func ParseDate(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case float64:
		return fromUnix(t)
	case int:
		return fromUnix(float64(t))
	case int64:
		return fromUnix(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromUnix(f)
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		if isDigits(s) && len(s) >= 9 {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return fromUnix(f)
			}
		}
		return time.Time{}, false
	default:
		return ParseDate(fmt.Sprint(v))
	}
}

func fromUnix(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
