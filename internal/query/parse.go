package query

import (
	"encoding/json"
	"fmt"
)

// Parse decodes a raw query object into the typed AST, enforcing the
// structural half of the grammar: the closed top-level key set, filter
// node arity, and literal types. Semantic checks against the field
// schema happen in Validate.
func Parse(data []byte) (*Query, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("query is not a JSON object: %w", err)
	}

	for key := range top {
		switch key {
		case "WHERE", "OPTIONS", "TRANSFORMATIONS":
		default:
			return nil, fmt.Errorf("unexpected top-level key %q", key)
		}
	}

	rawWhere, ok := top["WHERE"]
	if !ok {
		return nil, fmt.Errorf("missing WHERE")
	}
	rawOptions, ok := top["OPTIONS"]
	if !ok {
		return nil, fmt.Errorf("missing OPTIONS")
	}

	where, err := parseFilter(rawWhere, true)
	if err != nil {
		return nil, fmt.Errorf("WHERE: %w", err)
	}

	options, err := parseOptions(rawOptions)
	if err != nil {
		return nil, fmt.Errorf("OPTIONS: %w", err)
	}

	q := &Query{Where: where, Options: *options}

	if rawTrans, ok := top["TRANSFORMATIONS"]; ok {
		trans, err := parseTransformations(rawTrans)
		if err != nil {
			return nil, fmt.Errorf("TRANSFORMATIONS: %w", err)
		}
		q.Transformations = trans
	}

	return q, nil
}

// parseFilter decodes one filter node. Only the root node may be the
// empty object.
func parseFilter(data json.RawMessage, root bool) (Filter, error) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("filter is not an object: %w", err)
	}

	if len(node) == 0 {
		if root {
			return All{}, nil
		}
		return nil, fmt.Errorf("empty filter object")
	}
	if len(node) != 1 {
		return nil, fmt.Errorf("filter must have exactly one key, got %d", len(node))
	}

	var op string
	var body json.RawMessage
	for k, v := range node {
		op, body = k, v
	}

	switch op {
	case "AND", "OR":
		subs, err := parseFilterList(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if op == "AND" {
			return And{Filters: subs}, nil
		}
		return Or{Filters: subs}, nil

	case "NOT":
		inner, err := parseFilter(body, false)
		if err != nil {
			return nil, fmt.Errorf("NOT: %w", err)
		}
		return Not{Inner: inner}, nil

	case "LT", "GT", "EQ":
		key, val, err := parseComparisonBody(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		num, ok := val.(float64)
		if !ok {
			return nil, fmt.Errorf("%s: value for %q must be a number", op, key)
		}
		return MComparison{Op: CompOp(op), Key: key, Value: num}, nil

	case "IS":
		key, val, err := parseComparisonBody(body)
		if err != nil {
			return nil, fmt.Errorf("IS: %w", err)
		}
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("IS: value for %q must be a string", key)
		}
		return SComparison{Key: key, Value: s}, nil

	default:
		return nil, fmt.Errorf("unknown filter operator %q", op)
	}
}

func parseFilterList(data json.RawMessage) ([]Filter, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("expected an array of filters: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("requires at least one filter")
	}
	filters := make([]Filter, 0, len(raw))
	for i, sub := range raw {
		f, err := parseFilter(sub, false)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// parseComparisonBody decodes the single key/scalar pair inside a
// comparison filter.
func parseComparisonBody(data json.RawMessage) (string, any, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return "", nil, fmt.Errorf("comparison body is not an object: %w", err)
	}
	if len(body) != 1 {
		return "", nil, fmt.Errorf("comparison must have exactly one key, got %d", len(body))
	}
	for key, rawVal := range body {
		if len(rawVal) == 0 {
			return "", nil, fmt.Errorf("empty value for %q", key)
		}
		switch rawVal[0] {
		case '"':
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				return "", nil, err
			}
			return key, s, nil
		case '{', '[', 't', 'f', 'n':
			return "", nil, fmt.Errorf("value for %q must be a scalar", key)
		default:
			var n float64
			if err := json.Unmarshal(rawVal, &n); err != nil {
				return "", nil, err
			}
			return key, n, nil
		}
	}
	panic("unreachable")
}

func parseOptions(data json.RawMessage) (*Options, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("not an object: %w", err)
	}

	for key := range raw {
		switch key {
		case "COLUMNS", "ORDER":
		default:
			return nil, fmt.Errorf("unexpected key %q", key)
		}
	}

	rawColumns, ok := raw["COLUMNS"]
	if !ok {
		return nil, fmt.Errorf("missing COLUMNS")
	}
	var columns []string
	if err := json.Unmarshal(rawColumns, &columns); err != nil {
		return nil, fmt.Errorf("COLUMNS must be an array of strings: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("COLUMNS must not be empty")
	}

	options := &Options{Columns: columns}

	if rawOrder, ok := raw["ORDER"]; ok {
		order, err := parseOrder(rawOrder)
		if err != nil {
			return nil, fmt.Errorf("ORDER: %w", err)
		}
		options.Order = order
	}

	return options, nil
}

// parseOrder accepts either a bare column string (single-key ascending
// sort) or a {dir, keys} object.
func parseOrder(data json.RawMessage) (*Order, error) {
	if len(data) > 0 && data[0] == '"' {
		var key string
		if err := json.Unmarshal(data, &key); err != nil {
			return nil, err
		}
		return &Order{Dir: DirUp, Keys: []string{key}}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("must be a column string or a dir/keys object: %w", err)
	}
	for key := range raw {
		switch key {
		case "dir", "keys":
		default:
			return nil, fmt.Errorf("unexpected key %q", key)
		}
	}

	rawDir, ok := raw["dir"]
	if !ok {
		return nil, fmt.Errorf("missing dir")
	}
	var dir string
	if err := json.Unmarshal(rawDir, &dir); err != nil {
		return nil, fmt.Errorf("dir must be a string: %w", err)
	}
	if dir != string(DirUp) && dir != string(DirDown) {
		return nil, fmt.Errorf("dir must be UP or DOWN, got %q", dir)
	}

	rawKeys, ok := raw["keys"]
	if !ok {
		return nil, fmt.Errorf("missing keys")
	}
	var keys []string
	if err := json.Unmarshal(rawKeys, &keys); err != nil {
		return nil, fmt.Errorf("keys must be an array of strings: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("keys must not be empty")
	}

	return &Order{Dir: Direction(dir), Keys: keys}, nil
}

func parseTransformations(data json.RawMessage) (*Transformations, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("not an object: %w", err)
	}

	for key := range raw {
		switch key {
		case "GROUP", "APPLY":
		default:
			return nil, fmt.Errorf("unexpected key %q", key)
		}
	}

	rawGroup, ok := raw["GROUP"]
	if !ok {
		return nil, fmt.Errorf("missing GROUP")
	}
	var group []string
	if err := json.Unmarshal(rawGroup, &group); err != nil {
		return nil, fmt.Errorf("GROUP must be an array of strings: %w", err)
	}
	if len(group) == 0 {
		return nil, fmt.Errorf("GROUP must not be empty")
	}

	rawApply, ok := raw["APPLY"]
	if !ok {
		return nil, fmt.Errorf("missing APPLY")
	}
	var rawRules []map[string]map[string]json.RawMessage
	if err := json.Unmarshal(rawApply, &rawRules); err != nil {
		return nil, fmt.Errorf("APPLY must be an array of rule objects: %w", err)
	}

	rules := make([]ApplyRule, 0, len(rawRules))
	for i, rawRule := range rawRules {
		rule, err := parseApplyRule(rawRule)
		if err != nil {
			return nil, fmt.Errorf("APPLY rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}

	return &Transformations{Group: group, Apply: rules}, nil
}

func parseApplyRule(raw map[string]map[string]json.RawMessage) (ApplyRule, error) {
	if len(raw) != 1 {
		return ApplyRule{}, fmt.Errorf("rule must have exactly one name, got %d", len(raw))
	}
	for name, body := range raw {
		if len(body) != 1 {
			return ApplyRule{}, fmt.Errorf("rule %q must have exactly one token, got %d", name, len(body))
		}
		for token, rawKey := range body {
			switch ApplyToken(token) {
			case TokenMax, TokenMin, TokenAvg, TokenSum, TokenCount:
			default:
				return ApplyRule{}, fmt.Errorf("rule %q: unknown token %q", name, token)
			}
			var key string
			if err := json.Unmarshal(rawKey, &key); err != nil {
				return ApplyRule{}, fmt.Errorf("rule %q: field must be a string: %w", name, err)
			}
			return ApplyRule{Name: name, Token: ApplyToken(token), Key: key}, nil
		}
	}
	panic("unreachable")
}
