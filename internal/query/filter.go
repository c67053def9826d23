package query

import (
	"strings"

	"insight/internal/record"
)

// ApplyFilter evaluates the WHERE tree over the record set and returns
// the matching records in dataset order, always in a slice the caller
// may reorder freely.
func ApplyFilter(f Filter, records []record.Record) []record.Record {
	// The result is sorted in place downstream, so even the match-all
	// case must hand back a fresh slice or ordering would permute the
	// caller's dataset.
	if _, ok := f.(All); ok {
		out := make([]record.Record, len(records))
		copy(out, records)
		return out
	}
	idx := evalFilter(f, records)
	out := make([]record.Record, len(idx))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}

// evalFilter returns the ordered indices of matching records. Working
// on indices keeps the set operations (intersection, union, and the
// complement NOT needs) exact even when distinct records happen to
// hold equal field values.
func evalFilter(f Filter, records []record.Record) []int {
	switch node := f.(type) {
	case All:
		idx := make([]int, len(records))
		for i := range records {
			idx[i] = i
		}
		return idx

	case And:
		return evalAnd(node, records)

	case Or:
		return evalOr(node, records)

	case Not:
		return evalNot(node, records)

	case MComparison:
		return scanRecords(records, func(r record.Record) bool {
			return matchNumeric(node, r)
		})

	case SComparison:
		return scanRecords(records, func(r record.Record) bool {
			return matchString(node, r)
		})

	default:
		return nil
	}
}

// evalAnd intersects sub-filter results, keeping the first sub-filter's
// order. Every sub-filter sees the same invocation-level record set.
func evalAnd(node And, records []record.Record) []int {
	result := evalFilter(node.Filters[0], records)
	for _, sub := range node.Filters[1:] {
		member := toSet(evalFilter(sub, records))
		kept := result[:0]
		for _, i := range result {
			if member[i] {
				kept = append(kept, i)
			}
		}
		result = kept
	}
	return result
}

// evalOr unions sub-filter results in first-seen order with no
// duplicates. Plain concatenation of overlapping branches would repeat
// records, which is not relational union semantics.
func evalOr(node Or, records []record.Record) []int {
	var result []int
	seen := make(map[int]bool)
	for _, sub := range node.Filters {
		for _, i := range evalFilter(sub, records) {
			if !seen[i] {
				seen[i] = true
				result = append(result, i)
			}
		}
	}
	return result
}

// evalNot complements the inner result within the full record set of
// this invocation level.
func evalNot(node Not, records []record.Record) []int {
	matched := toSet(evalFilter(node.Inner, records))
	var result []int
	for i := range records {
		if !matched[i] {
			result = append(result, i)
		}
	}
	return result
}

func scanRecords(records []record.Record, match func(record.Record) bool) []int {
	var idx []int
	for i, r := range records {
		if match(r) {
			idx = append(idx, i)
		}
	}
	return idx
}

func toSet(idx []int) map[int]bool {
	set := make(map[int]bool, len(idx))
	for _, i := range idx {
		set[i] = true
	}
	return set
}

// matchNumeric applies LT/GT/EQ with exact numeric comparison. A
// record lacking the key, or holding a string there, never matches.
func matchNumeric(node MComparison, r record.Record) bool {
	v, ok := r[node.Key]
	if !ok {
		return false
	}
	num, ok := v.(record.Number)
	if !ok {
		return false
	}
	switch node.Op {
	case OpLT:
		return float64(num) < node.Value
	case OpGT:
		return float64(num) > node.Value
	case OpEQ:
		return float64(num) == node.Value
	default:
		return false
	}
}

func matchString(node SComparison, r record.Record) bool {
	v, ok := r[node.Key]
	if !ok {
		return false
	}
	s, ok := v.(record.String)
	if !ok {
		return false
	}
	return matchPattern(string(s), node.Value)
}

// matchPattern implements IS matching. Without a wildcard the match is
// exact; "*" and "**" match everything; "*x*" is containment, "*x" a
// suffix match, "x*" a prefix match.
func matchPattern(s, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return s == pattern
	}
	if pattern == "*" || pattern == "**" {
		return true
	}
	leading := strings.HasPrefix(pattern, "*")
	trailing := strings.HasSuffix(pattern, "*")
	switch {
	case leading && trailing:
		return strings.Contains(s, pattern[1:len(pattern)-1])
	case leading:
		return strings.HasSuffix(s, pattern[1:])
	case trailing:
		return strings.HasPrefix(s, pattern[:len(pattern)-1])
	default:
		return false
	}
}
