package query

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"insight/internal/record"
)

// ApplyTransformations partitions records into groups keyed by their
// GROUP-field values and emits one record per group: a copy of the
// group's first record augmented with one synthetic field per APPLY
// rule. Group order follows the first occurrence of each key tuple.
func ApplyTransformations(trans *Transformations, records []record.Record) []record.Record {
	groups := make(map[string][]record.Record)
	var order []string

	for _, r := range records {
		key := groupKey(r, trans.Group)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	out := make([]record.Record, 0, len(order))
	for _, key := range order {
		group := groups[key]
		rep := group[0].Clone()
		for _, rule := range trans.Apply {
			if _, exists := rep[rule.Name]; exists {
				continue
			}
			rep[rule.Name] = applyRule(rule, group)
		}
		out = append(out, rep)
	}
	return out
}

// groupKey concatenates the GROUP-field values with separators no
// scalar rendering can produce, so distinct tuples never collide.
func groupKey(r record.Record, group []string) string {
	var b strings.Builder
	for i, key := range group {
		if i > 0 {
			b.WriteString("\x00|\x00")
		}
		switch v := r[key].(type) {
		case record.String:
			b.WriteString("s:")
			b.WriteString(string(v))
		case record.Number:
			b.WriteString("n:")
			b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
		}
	}
	return b.String()
}

func applyRule(rule ApplyRule, group []record.Record) record.Value {
	switch rule.Token {
	case TokenMax:
		return record.Number(applyExtremum(rule.Key, group, false))
	case TokenMin:
		return record.Number(applyExtremum(rule.Key, group, true))
	case TokenAvg:
		return record.Number(applyAvg(rule.Key, group))
	case TokenSum:
		return record.Number(round2(applySum(rule.Key, group)))
	default:
		return record.Number(applyCount(rule.Key, group))
	}
}

func applyExtremum(key string, group []record.Record, min bool) float64 {
	best := numericValue(group[0], key)
	for _, r := range group[1:] {
		v := numericValue(r, key)
		if (min && v < best) || (!min && v > best) {
			best = v
		}
	}
	return best
}

// applySum accumulates with exact decimals. Float accumulation over
// thousands of grade averages drifts past the second decimal place, so
// the sum stays exact until rounding.
func applySum(key string, group []record.Record) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range group {
		sum = sum.Add(decimal.NewFromFloat(numericValue(r, key)))
	}
	return sum
}

func applyAvg(key string, group []record.Record) float64 {
	sum := applySum(key, group)
	avg := sum.InexactFloat64() / float64(len(group))
	return round2(decimal.NewFromFloat(avg))
}

// applyCount is the cardinality of the distinct value set; it accepts
// string and numeric fields alike.
func applyCount(key string, group []record.Record) float64 {
	unique := make(map[record.Value]bool, len(group))
	for _, r := range group {
		if v, ok := r[key]; ok {
			unique[v] = true
		}
	}
	return float64(len(unique))
}

func numericValue(r record.Record, key string) float64 {
	if n, ok := r[key].(record.Number); ok {
		return float64(n)
	}
	return 0
}

// round2 rounds half away from zero to two decimal places.
func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
