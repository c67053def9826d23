package query

// Filter represents one node of the WHERE expression tree.
//
// This is a sealed interface - only types in this package implement
// it. The marker method prevents external implementations and enables
// exhaustive type switches in the validator and the evaluator.
//
// Filter types:
//   - All: the empty WHERE object, matches every record
//   - And, Or: logic connectives over one or more sub-filters
//   - Not: complement within the invocation-level record set
//   - MComparison: LT / GT / EQ over a numeric field
//   - SComparison: IS over a string field, with optional leading
//     and/or trailing wildcard
type Filter interface {
	filterNode() // sealed - only types in this package implement it
}

// All is the empty WHERE object ({}). It matches every record.
type All struct{}

func (All) filterNode() {}

// And matches records matched by every sub-filter. At least one
// sub-filter is required.
type And struct {
	Filters []Filter
}

func (And) filterNode() {}

// Or matches records matched by any sub-filter. The result is a true
// set union: first-seen order, no duplicate records. At least one
// sub-filter is required.
type Or struct {
	Filters []Filter
}

func (Or) filterNode() {}

// Not matches the complement of its inner filter within the full
// record set of the invocation level.
type Not struct {
	Inner Filter
}

func (Not) filterNode() {}

// CompOp is a numeric comparison operator.
type CompOp string

const (
	OpLT CompOp = "LT"
	OpGT CompOp = "GT"
	OpEQ CompOp = "EQ"
)

// MComparison compares a numeric field against a number literal.
type MComparison struct {
	Op    CompOp
	Key   string // "<id>_<field>"
	Value float64
}

func (MComparison) filterNode() {}

// SComparison matches a string field against a literal or wildcarded
// pattern. A '*' is permitted only as the first and/or last character.
type SComparison struct {
	Key   string // "<id>_<field>"
	Value string
}

func (SComparison) filterNode() {}

// Direction is the sort direction shared by all ORDER keys.
type Direction string

const (
	DirUp   Direction = "UP"
	DirDown Direction = "DOWN"
)

// Order is the OPTIONS.ORDER clause. A bare column string parses into
// a single-key ascending Order.
type Order struct {
	Dir  Direction
	Keys []string
}

// Options is the OPTIONS clause: the output column list and an
// optional ordering.
type Options struct {
	Columns []string
	Order   *Order
}

// ApplyToken is an aggregation operator in an APPLY rule.
type ApplyToken string

const (
	TokenMax   ApplyToken = "MAX"
	TokenMin   ApplyToken = "MIN"
	TokenAvg   ApplyToken = "AVG"
	TokenSum   ApplyToken = "SUM"
	TokenCount ApplyToken = "COUNT"
)

// ApplyRule is one named aggregate computation attached to each group.
type ApplyRule struct {
	Name  string
	Token ApplyToken
	Key   string // "<id>_<field>"
}

// Transformations is the GROUP/APPLY clause.
type Transformations struct {
	Group []string
	Apply []ApplyRule
}

// Query is the parsed form of one externally supplied query object.
// It is transient: queries are never persisted.
type Query struct {
	Where           Filter
	Options         Options
	Transformations *Transformations
}

// DatasetID returns the dataset id the query references, inferred from
// the first "<id>_<field>" key in COLUMNS, falling back to GROUP when
// every column is an APPLY rule name. Empty when no key carries an id
// prefix, which Validate rejects.
func (q *Query) DatasetID() string {
	for _, col := range q.Options.Columns {
		if id, _, ok := splitKey(col); ok {
			return id
		}
	}
	if q.Transformations != nil {
		for _, g := range q.Transformations.Group {
			if id, _, ok := splitKey(g); ok {
				return id
			}
		}
	}
	return ""
}
