package cleaner

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError records a field-level parse failure. Parse failures never drop
// a record; they zero the field and surface here.
type ParseError struct {
	Row   int
	Field string
	Value string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s value %q", e.Row, e.Field, e.Value)
}

var currencyStripper = strings.NewReplacer(
	"₹", "", "$", "", "€", "", "£", "",
	",", "", " ", "", " ", "",
)

// ParseCurrency converts a raw currency string into a float. It strips
// currency symbols, thousands separators (Indian grouping included) and
// whitespace, so "₹1,23,456.78" parses to 123456.78. The function is
// idempotent on already-clean numeric strings.
func ParseCurrency(raw string) (float64, error) {
	s := strings.TrimSpace(currencyStripper.Replace(raw))
	if s == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return v, nil
}

// FormatINR renders a rupee amount with Cr/L shorthand for readability.
func FormatINR(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e7:
		return fmt.Sprintf("₹%.2f Cr", v/1e7)
	case abs >= 1e5:
		return fmt.Sprintf("₹%.2f L", v/1e5)
	default:
		return "₹" + groupThousands(v)
	}
}

func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
}
