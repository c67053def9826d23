package query

import "insight/internal/record"

// Project restricts each record to exactly the requested columns.
// After a transformation the columns may name either dataset fields or
// APPLY rules; both are plain record keys by then.
func Project(columns []string, records []record.Record) []record.Record {
	out := make([]record.Record, len(records))
	for i, r := range records {
		projected := make(record.Record, len(columns))
		for _, col := range columns {
			if v, ok := r[col]; ok {
				projected[col] = v
			}
		}
		out[i] = projected
	}
	return out
}
