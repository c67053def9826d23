package query

import (
	"fmt"
	"strings"

	"insight/internal/record"
)

// Validate performs the semantic half of query validation against the
// fixed field schema. It is pure: no record access, no side effects.
// A nil return means the query is safe to execute.
//
// Checks, in order:
//  1. COLUMNS infer exactly one dataset id, and every "<id>_<field>"
//     key anywhere in the query carries that id.
//  2. Every referenced field belongs to the closed schema, and all
//     fields are drawn from a single dataset kind.
//  3. ORDER keys are members of COLUMNS.
//  4. TRANSFORMATIONS: distinct, separator-free APPLY rule names;
//     numeric fields under MAX/MIN/AVG/SUM; every COLUMNS entry in
//     GROUP or an APPLY rule name.
//  5. The WHERE tree is well-typed: numeric operators over numeric
//     fields, IS over string fields with legally placed wildcards.
func Validate(q *Query) error {
	v := &validator{}

	v.datasetID = q.DatasetID()
	if v.datasetID == "" {
		return fmt.Errorf("COLUMNS reference no dataset field")
	}
	if !record.ValidID(v.datasetID) {
		return fmt.Errorf("invalid dataset id %q", v.datasetID)
	}

	applyNames, err := v.checkTransformations(q.Transformations)
	if err != nil {
		return err
	}

	if err := v.checkColumns(q.Options.Columns, q.Transformations, applyNames); err != nil {
		return err
	}

	if err := v.checkOrder(q.Options.Order, q.Options.Columns); err != nil {
		return err
	}

	if err := v.checkFilter(q.Where); err != nil {
		return fmt.Errorf("WHERE: %w", err)
	}

	return nil
}

// validator tracks the dataset id and kind consistency across the
// whole query while the tree is walked.
type validator struct {
	datasetID string
	kind      record.Kind
	kindKey   string // the key that pinned the kind, for error messages
}

// checkKey verifies one "<id>_<field>" key: id match, schema
// membership, and kind consistency.
func (v *validator) checkKey(key string) (record.FieldType, error) {
	id, field, ok := record.SplitKey(key)
	if !ok {
		return 0, fmt.Errorf("key %q is not of the form <id>_<field>", key)
	}
	if id != v.datasetID {
		return 0, fmt.Errorf("key %q references dataset %q, query uses %q", key, id, v.datasetID)
	}

	typ, ok := record.LookupField(field)
	if !ok {
		return 0, fmt.Errorf("unknown field %q in key %q", field, key)
	}

	kind, _ := record.KindOfField(field)
	if v.kind == "" {
		v.kind = kind
		v.kindKey = key
	} else if v.kind != kind {
		return 0, fmt.Errorf("key %q mixes %s fields with %s field %q", key, kind, v.kind, v.kindKey)
	}

	return typ, nil
}

func (v *validator) checkColumns(columns []string, trans *Transformations, applyNames map[string]bool) error {
	groupSet := make(map[string]bool)
	if trans != nil {
		for _, g := range trans.Group {
			groupSet[g] = true
		}
	}

	for _, col := range columns {
		if trans == nil {
			if _, err := v.checkKey(col); err != nil {
				return fmt.Errorf("COLUMNS: %w", err)
			}
			continue
		}
		if !groupSet[col] && !applyNames[col] {
			return fmt.Errorf("COLUMNS entry %q is neither a GROUP key nor an APPLY rule name", col)
		}
	}
	return nil
}

func (v *validator) checkOrder(order *Order, columns []string) error {
	if order == nil {
		return nil
	}
	inColumns := make(map[string]bool, len(columns))
	for _, col := range columns {
		inColumns[col] = true
	}
	for _, key := range order.Keys {
		if !inColumns[key] {
			return fmt.Errorf("ORDER key %q is not in COLUMNS", key)
		}
	}
	return nil
}

func (v *validator) checkTransformations(trans *Transformations) (map[string]bool, error) {
	if trans == nil {
		return nil, nil
	}

	for _, g := range trans.Group {
		if _, err := v.checkKey(g); err != nil {
			return nil, fmt.Errorf("GROUP: %w", err)
		}
	}

	names := make(map[string]bool, len(trans.Apply))
	for _, rule := range trans.Apply {
		if rule.Name == "" {
			return nil, fmt.Errorf("APPLY rule name must not be empty")
		}
		// Rule names become record keys, so the reserved separator
		// would make them indistinguishable from dataset field keys.
		if strings.Contains(rule.Name, "_") {
			return nil, fmt.Errorf("APPLY rule name %q must not contain an underscore", rule.Name)
		}
		if names[rule.Name] {
			return nil, fmt.Errorf("duplicate APPLY rule name %q", rule.Name)
		}
		names[rule.Name] = true

		typ, err := v.checkKey(rule.Key)
		if err != nil {
			return nil, fmt.Errorf("APPLY rule %q: %w", rule.Name, err)
		}
		if rule.Token != TokenCount && typ != record.TypeNumber {
			return nil, fmt.Errorf("APPLY rule %q: %s requires a numeric field, %q is a string field", rule.Name, rule.Token, rule.Key)
		}
	}

	return names, nil
}

func (v *validator) checkFilter(f Filter) error {
	switch node := f.(type) {
	case All:
		return nil

	case And:
		for _, sub := range node.Filters {
			if err := v.checkFilter(sub); err != nil {
				return err
			}
		}
		return nil

	case Or:
		for _, sub := range node.Filters {
			if err := v.checkFilter(sub); err != nil {
				return err
			}
		}
		return nil

	case Not:
		return v.checkFilter(node.Inner)

	case MComparison:
		typ, err := v.checkKey(node.Key)
		if err != nil {
			return err
		}
		if typ != record.TypeNumber {
			return fmt.Errorf("%s requires a numeric field, %q is a string field", node.Op, node.Key)
		}
		return nil

	case SComparison:
		typ, err := v.checkKey(node.Key)
		if err != nil {
			return err
		}
		if typ != record.TypeString {
			return fmt.Errorf("IS requires a string field, %q is a numeric field", node.Key)
		}
		return checkWildcards(node.Value)

	default:
		return fmt.Errorf("unknown filter type %T", f)
	}
}

// checkWildcards rejects '*' anywhere other than the first or last
// character of the pattern.
func checkWildcards(pattern string) error {
	inner := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
	if strings.Contains(inner, "*") {
		return fmt.Errorf("wildcard '*' is only allowed at the start or end of %q", pattern)
	}
	return nil
}

func splitKey(key string) (string, string, bool) {
	return record.SplitKey(key)
}
