// Package record defines the uniform record model shared by dataset
// ingestion and query execution.
//
// A Record is a flat map from "<datasetId>_<field>" keys to scalar
// values. Every record in a dataset carries the same key set, built
// once at ingestion and treated as immutable afterwards. The only
// fields ever added later are the synthetic aggregate fields produced
// by grouping, which use APPLY rule names and never overwrite an
// existing key.
//
// The package also owns the closed field schema for both dataset
// kinds. Field names and their scalar types are fixed tables, not
// ambient globals discovered at runtime: validators and evaluators
// consult them through Fields and FieldType.
package record
