package validation

import (
	"sort"
	"strings"

	"github.com/go-faster/jx"
)

// Errors maps a field name to its error messages.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether field has at least one message.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// First returns the first message recorded for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Encode writes the bag as a JSON object with sorted keys.
func (e Errors) Encode(enc *jx.Encoder) {
	if e == nil {
		enc.Null()
		return
	}
	enc.ObjStart()
	for _, field := range e.Fields() {
		enc.FieldStart(field)
		enc.ArrStart()
		for _, msg := range e[field] {
			enc.Str(msg)
		}
		enc.ArrEnd()
	}
	enc.ObjEnd()
}

// MarshalJSON implements json.Marshaler.
func (e Errors) MarshalJSON() ([]byte, error) {
	enc := &jx.Encoder{}
	e.Encode(enc)
	return enc.Bytes(), nil
}

// ValidationError is returned when one or more fields fail validation.
type ValidationError struct {
	Fields Errors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields.Fields() {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
