package query

import (
	"sort"

	"insight/internal/record"
)

// ApplyOrder sorts records by the ORDER keys. The sort is stable:
// records equal under every key keep their relative order. DOWN
// reverses the per-key comparison, not the final list, so multi-key
// descending sorts still break ties on later keys.
func ApplyOrder(order *Order, records []record.Record) {
	if order == nil {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, key := range order.Keys {
			c := compareValues(records[i][key], records[j][key])
			if order.Dir == DirDown {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// compareValues orders two scalars: numeric < for numbers,
// lexicographic for strings. A missing value sorts first, and numbers
// sort before strings, so mixed inputs still order deterministically.
func compareValues(a, b record.Value) int {
	if a == nil || b == nil {
		if a == b {
			return 0
		}
		if a == nil {
			return -1
		}
		return 1
	}

	switch av := a.(type) {
	case record.Number:
		bv, ok := b.(record.Number)
		if !ok {
			return -1
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case record.String:
		bv, ok := b.(record.String)
		if !ok {
			return 1
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}
