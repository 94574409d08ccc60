package events

import (
	"bytes"
	"encoding/json"
	"sort"
	"unicode/utf8"
)

const idField = "id"

// Event is a stored record: a store-assigned id plus application fields that
// are carried verbatim and never interpreted by this service.
//
// On the wire an event is one flat JSON object, {"id": 42, "name": "..."}.
type Event struct {
	ID     int64
	Fields map[string]json.RawMessage
}

// HasID reports whether the event already carries an identifier.
func (e Event) HasID() bool {
	return e.ID != 0
}

// FieldNames returns the application field names in sorted order.
func (e Event) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attributes encodes the application fields as a JSON object, never null.
func (e Event) Attributes() ([]byte, error) {
	if len(e.Fields) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Fields)
}

// SetAttributes replaces the application fields from a stored JSON object.
func (e *Event) SetAttributes(data []byte) error {
	fields := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
	}
	delete(fields, idField)
	e.Fields = fields
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.Fields)+1)
	for name, value := range e.Fields {
		if value == nil {
			value = json.RawMessage("null")
		}
		out[name] = value
	}
	id, err := json.Marshal(e.ID)
	if err != nil {
		return nil, err
	}
	out[idField] = id
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return InputError{Field: "body", Message: "must be a JSON object"}
	}
	if raw == nil {
		return InputError{Field: "body", Message: "must be a JSON object"}
	}
	if !utf8.Valid(data) {
		return InputError{Field: "body", Message: "must be valid UTF-8"}
	}
	if hasNULEscape(data) {
		return InputError{Field: "body", Message: "must not contain \\u0000"}
	}

	e.ID = 0
	if value, ok := raw[idField]; ok {
		delete(raw, idField)
		if !bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			var id int64
			if err := json.Unmarshal(value, &id); err != nil {
				return InputError{Field: "id", Message: "must be an integer"}
			}
			if id <= 0 {
				return InputError{Field: "id", Message: "must be positive"}
			}
			e.ID = id
		}
	}
	e.Fields = raw
	return nil
}

// hasNULEscape reports whether a well-formed JSON document spells U+0000
// anywhere. Backslashes only occur inside strings, so escapes can be walked
// without tracking string boundaries.
func hasNULEscape(data []byte) bool {
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			continue
		}
		if i+5 < len(data) && data[i+1] == 'u' && string(data[i+2:i+6]) == "0000" {
			return true
		}
		i++
	}
	return false
}
