package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record maps "<datasetId>_<field>" keys to scalar values.
type Record map[string]Value

// Clone returns a shallow copy of the record. Grouping uses it so the
// synthetic aggregate fields never mutate the stored dataset.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the record with keys in sorted order so stored
// and golden representations are deterministic.
func (r Record) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := MarshalValue(r[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON decodes a flat JSON object of scalars into a Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = make(Record, len(raw))
	for k, rawVal := range raw {
		v, err := UnmarshalValue(rawVal)
		if err != nil {
			return fmt.Errorf("record key %q: %w", k, err)
		}
		(*r)[k] = v
	}
	return nil
}

// Kind discriminates the two dataset kinds. Everything downstream of
// ingestion treats both kinds uniformly; only field schemas differ.
type Kind string

const (
	// KindCourses identifies course-section datasets.
	KindCourses Kind = "courses"

	// KindRooms identifies room datasets.
	KindRooms Kind = "rooms"
)

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCourses:
		return KindCourses, nil
	case KindRooms:
		return KindRooms, nil
	default:
		return "", fmt.Errorf("unknown dataset kind %q", s)
	}
}

// Dataset is a named, kind-tagged, ordered collection of records.
// Built once by the dataset builder and immutable afterwards.
type Dataset struct {
	ID      string
	Kind    Kind
	NumRows int
	Records []Record
}

// Info describes a dataset without its records, as reported by the
// list operation.
type Info struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	NumRows int    `json:"numRows"`
}

// ValidID reports whether id is usable as a dataset id: non-empty,
// not all whitespace, and free of the reserved key separator.
func ValidID(id string) bool {
	return id != "" && strings.TrimSpace(id) != "" && !strings.Contains(id, "_")
}

// SplitKey splits a "<datasetId>_<field>" key at the first underscore.
// ok is false when the key has no separator.
func SplitKey(key string) (id, field string, ok bool) {
	i := strings.Index(key, "_")
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}
