package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/klauspost/compress/zip"

	"insight/internal/record"
)

// courseSource maps a dataset field to the raw key and shape it is
// read from in the source JSON.
type courseSource struct {
	raw  string
	kind record.FieldType
}

var courseSources = map[string]courseSource{
	"dept":       {raw: "Subject", kind: record.TypeString},
	"id":         {raw: "Course", kind: record.TypeString},
	"avg":        {raw: "Avg", kind: record.TypeNumber},
	"instructor": {raw: "Professor", kind: record.TypeString},
	"title":      {raw: "Title", kind: record.TypeString},
	"pass":       {raw: "Pass", kind: record.TypeNumber},
	"fail":       {raw: "Fail", kind: record.TypeNumber},
	"audit":      {raw: "Audit", kind: record.TypeNumber},
	"uuid":       {raw: "id", kind: record.TypeString},
	"year":       {raw: "Year", kind: record.TypeNumber},
}

// overallYear replaces the source year for section "overall" rows,
// which aggregate every offering of a course.
const overallYear = 1900

type courseFile struct {
	Result []map[string]any `json:"result"`
}

func (b *Builder) buildCourses(ctx context.Context, id string, zr *zip.Reader) ([]record.Record, error) {
	files := filesUnder(zr, "courses/")
	if len(files) == 0 {
		return nil, ErrMissingCourses
	}

	groups := make([][]record.Record, len(files))
	err := b.fanOut(ctx, len(files), func(ctx context.Context, i int) error {
		data, err := readAll(files[i])
		if err != nil {
			b.Log.Warn().Str("dataset", id).Str("file", files[i].Name).Err(err).Msg("skipping unreadable course file")
			return nil
		}
		recs, err := parseCourseFile(id, data)
		if err != nil {
			b.Log.Warn().Str("dataset", id).Str("file", files[i].Name).Err(err).Msg("skipping malformed course file")
			return nil
		}
		groups[i] = recs
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := joinGroups(groups)
	if len(records) == 0 {
		return nil, ErrMissingSections
	}
	return records, nil
}

// parseCourseFile decodes one source file and converts each section
// that carries every required field. Sections with missing or
// untypeable fields are dropped without failing the file.
func parseCourseFile(id string, data []byte) ([]record.Record, error) {
	var file courseFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode course file: %w", err)
	}

	var out []record.Record
	for _, raw := range file.Result {
		rec, ok := convertSection(id, raw)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// convertSection builds one record, keyed "<id>_<field>" as the query
// grammar requires.
func convertSection(id string, raw map[string]any) (record.Record, bool) {
	// Rows marked "overall" aggregate every offering, so their year is
	// the sentinel rather than a required source value.
	overall, _ := raw["Section"].(string)

	rec := make(record.Record, len(courseSources))
	for field, src := range courseSources {
		key := id + "_" + field
		if field == "year" && overall == "overall" {
			rec[key] = record.Number(overallYear)
			continue
		}
		v, present := raw[src.raw]
		if !present || v == nil {
			return nil, false
		}
		switch src.kind {
		case record.TypeString:
			s, ok := coerceString(v)
			if !ok {
				return nil, false
			}
			rec[key] = record.String(s)
		default:
			n, ok := coerceNumber(v)
			if !ok {
				return nil, false
			}
			rec[key] = record.Number(n)
		}
	}
	return rec, true
}

// coerceString accepts the string and numeric shapes the source data
// uses interchangeably. The section identifier in particular arrives
// as a JSON number but is exposed as a string field.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// coerceNumber accepts numbers and numeric strings. Year values are
// stored as strings in the source data.
func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		n, err := t.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(t, 64)
		return n, err == nil
	}
	return 0, false
}
