// Package query implements the structured query language evaluated
// against one dataset at a time: a WHERE filter-expression tree,
// OPTIONS (projection plus ordering), and optional TRANSFORMATIONS
// (grouping plus aggregation).
//
// A query passes through three stages:
//
//   - Parse: decode the raw JSON object into a typed AST, rejecting
//     anything outside the closed grammar (unknown keys, wrong arity,
//     wrong literal types).
//   - Validate: semantic checks against the fixed field schema - one
//     dataset id across the whole query, numeric operators on numeric
//     fields, ORDER keys drawn from COLUMNS, distinct APPLY rule names.
//   - Evaluate: ApplyFilter, ApplyTransformations, ApplyOrder and
//     Project, in that sequence.
//
// Validator and evaluator are implemented against the single grammar
// defined by the AST in this package, so the two cannot drift.
package query
