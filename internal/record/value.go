package record

import (
	"encoding/json"
	"fmt"
)

// Value is a sealed interface over the two scalar types a record field
// may hold. Only String and Number implement it. The marker method
// keeps external packages from introducing new value kinds and lets
// evaluators type-switch exhaustively.
type Value interface {
	recordValue() // sealed - only String and Number implement it
}

// String is a string-typed field value.
type String string

func (String) recordValue() {}

// Number is a numeric field value. All numeric fields (averages,
// counts, coordinates, seats) share this representation.
type Number float64

func (Number) recordValue() {}

// MarshalValue encodes a Value as its JSON scalar.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case String:
		return json.Marshal(string(val))
	case Number:
		return json.Marshal(float64(val))
	default:
		return nil, fmt.Errorf("unknown record value type: %T", v)
	}
}

// UnmarshalValue decodes a JSON scalar into a Value. Objects, arrays,
// booleans and nulls are rejected: records hold scalars only.
func UnmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case '{', '[', 't', 'f', 'n':
		return nil, fmt.Errorf("record values must be scalars, got %s", string(data))
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return Number(n), nil
	}
}
