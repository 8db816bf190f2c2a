// Package parse extracts numbers and timestamps from loosely typed upstream
// values. Every function is best-effort: malformed input yields ok=false,
// never an error.
package parse

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var unitSuffixes = []struct {
	suffix string
	scale  float64
}{
	{"万", 1e4},
	{"亿", 1e8},
}

// Int parses counts such as "1234", "12.3万" or a JSON number into an int64,
// truncating any fraction.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case bool:
		return 0, false
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return truncate(float64(n))
	case float64:
		return truncate(n)
	case json.Number:
		return String(n.String())
	case string:
		return String(n)
	default:
		return 0, false
	}
}

// String is Int for text input.
func String(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return truncate(f)
	}
	for _, u := range unitSuffixes {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), 64)
		if err != nil {
			return 0, false
		}
		return truncate(f * u.scale)
	}
	return 0, false
}

func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// StrictInt reports v as an integer only when upstream already typed it as
// one. Quoted numbers and floats are rejected rather than coerced.
func StrictInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

const (
	minEpoch = -62135596800 // 0001-01-01T00:00:00Z
	maxEpoch = 253402300799 // 9999-12-31T23:59:59Z
)

// UnixUTC converts epoch seconds into a UTC time. Fractions are truncated;
// text that is not an integer and values outside years 1..9999 are rejected.
func UnixUTC(v any) (time.Time, bool) {
	var sec int64
	switch n := v.(type) {
	case nil, bool:
		return time.Time{}, false
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		sec = i
	case json.Number:
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			sec = i
		} else if f, err := n.Float64(); err == nil {
			i, ok := truncate(f)
			if !ok {
				return time.Time{}, false
			}
			sec = i
		} else {
			return time.Time{}, false
		}
	default:
		i, ok := Int(v)
		if !ok {
			return time.Time{}, false
		}
		sec = i
	}
	if sec < minEpoch || sec > maxEpoch {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

// layouts are tried in order; layouts without a zone parse as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
}

var looseDate = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})(?:[T\s]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?`)

// Date parses the date strings found in article metadata. When no known
// layout matches, a YYYY-MM-DD[ HH:MM[:SS]] fragment anywhere in the text is
// accepted.
func Date(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}
	m := looseDate.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
	hour, minute, second := atoi(m[4]), atoi(m[5]), atoi(m[6])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Day() != day {
		// time.Date normalised an impossible day such as Feb 30
		return time.Time{}, false
	}
	return t, true
}
