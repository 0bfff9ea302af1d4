package reconcile

import (
	"strconv"
	"strings"
)

// ValuesEqual compares an imported cell with a stored value. Strings are
// compared trimmed. Numeric fields treat empty as zero; when neither side
// parses they count as equal, when only one does the trimmed text decides.
func ValuesEqual(candidate, stored string, numeric bool) bool {
	a, b := strings.TrimSpace(candidate), strings.TrimSpace(stored)
	if !numeric {
		return a == b
	}

	x, okA := numberOrZero(a)
	y, okB := numberOrZero(b)
	switch {
	case okA && okB:
		return x == y
	case !okA && !okB:
		return true
	default:
		return a == b
	}
}

func numberOrZero(v string) (float64, bool) {
	if v == "" {
		return 0, true
	}
	return parseNumber(v)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
