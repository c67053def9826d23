package record

// FieldType is the scalar type of a schema field.
type FieldType int

const (
	// TypeString marks fields holding String values.
	TypeString FieldType = iota

	// TypeNumber marks fields holding Number values.
	TypeNumber
)

// courseFields is the closed field set for course-section datasets.
var courseFields = map[string]FieldType{
	"dept":       TypeString,
	"id":         TypeString,
	"instructor": TypeString,
	"title":      TypeString,
	"uuid":       TypeString,
	"avg":        TypeNumber,
	"pass":       TypeNumber,
	"fail":       TypeNumber,
	"audit":      TypeNumber,
	"year":       TypeNumber,
}

// roomFields is the closed field set for room datasets.
var roomFields = map[string]FieldType{
	"fullname":  TypeString,
	"shortname": TypeString,
	"number":    TypeString,
	"name":      TypeString,
	"address":   TypeString,
	"type":      TypeString,
	"furniture": TypeString,
	"href":      TypeString,
	"lat":       TypeNumber,
	"lon":       TypeNumber,
	"seats":     TypeNumber,
}

// Fields returns the field table for a dataset kind. The returned map
// must not be mutated.
func Fields(kind Kind) map[string]FieldType {
	if kind == KindRooms {
		return roomFields
	}
	return courseFields
}

// LookupField resolves a bare field name against both kind schemas.
// Field names do not overlap between kinds, so a name identifies its
// type unambiguously.
func LookupField(field string) (FieldType, bool) {
	if t, ok := courseFields[field]; ok {
		return t, true
	}
	t, ok := roomFields[field]
	return t, ok
}

// KindOfField reports which dataset kinds define the given field name.
func KindOfField(field string) (Kind, bool) {
	if _, ok := courseFields[field]; ok {
		return KindCourses, true
	}
	if _, ok := roomFields[field]; ok {
		return KindRooms, true
	}
	return "", false
}
