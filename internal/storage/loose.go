package storage

import (
	"encoding/json"
	"strconv"
	"strings"
)

// looseString accepts any JSON scalar. Older documents hold ids as
// fractional numbers or strings and phone numbers as numbers.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*s = ""
	case strings.HasPrefix(raw, `"`):
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	default:
		*s = looseString(raw)
	}
	return nil
}

func (s looseString) String() string {
	return strings.TrimSpace(string(s))
}

// looseNumber accepts numbers and numeric strings; anything else reads as 0.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(s.String(), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = looseNumber(f)
	return nil
}

// renumber maps raw id tokens to int64 ids. Unique positive integers keep
// their value; everything else gets max+1 onwards in input order. The
// returned map holds the first occurrence of each token.
func renumber(tokens []looseString) ([]int64, map[string]int64) {
	ids := make([]int64, len(tokens))
	byToken := make(map[string]int64, len(tokens))
	used := make(map[int64]bool, len(tokens))
	var top int64

	for i, tok := range tokens {
		v, err := strconv.ParseInt(tok.String(), 10, 64)
		if err != nil || v <= 0 || used[v] {
			continue
		}
		ids[i] = v
		used[v] = true
		if _, ok := byToken[tok.String()]; !ok {
			byToken[tok.String()] = v
		}
		if v > top {
			top = v
		}
	}
	for i, tok := range tokens {
		if ids[i] != 0 {
			continue
		}
		top++
		ids[i] = top
		if key := tok.String(); key != "" {
			if _, ok := byToken[key]; !ok {
				byToken[key] = top
			}
		}
	}
	return ids, byToken
}
