package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// Reserved record keys. Every other key lands in Fields.
const (
	KeyID    = "id"
	KeyType  = "type"
	KeyFreed = "freed"
	KeyRoot  = "root"
)

// Record is one raw datum of a frame.
type Record struct {
	// ID identifies the record inside its group. Empty when the input
	// carried no usable id.
	ID string

	// Type selects the node option set. Empty means "default".
	Type string

	// Freed marks a record the program released explicitly.
	Freed bool

	// Root marks an entry point of the structure.
	Root bool

	// Fields holds every other key of the record. Values are whatever
	// encoding/json produced with UseNumber enabled.
	Fields map[string]any
}

// UnmarshalJSON decodes a record object, accepting string or numeric ids.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("record must be an object")
	}

	*r = Record{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case KeyID:
			if id, ok := IDOf(v); ok {
				r.ID = id
			}
		case KeyType:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("record %q: type must be a string", r.ID)
			}
			r.Type = s
		case KeyFreed:
			r.Freed = truthy(v)
		case KeyRoot:
			r.Root = truthy(v)
		default:
			r.Fields[k] = v
		}
	}
	return nil
}

// MarshalJSON encodes the record back into its flat object form.
// encoding/json sorts map keys, so the output is canonical.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	maps.Copy(out, r.Fields)
	if r.ID != "" {
		out[KeyID] = r.ID
	}
	if r.Type != "" {
		out[KeyType] = r.Type
	}
	if r.Freed {
		out[KeyFreed] = true
	}
	if r.Root {
		out[KeyRoot] = true
	}
	return json.Marshal(out)
}

// Clone returns a copy whose Fields map can be edited without touching r.
// List values are copied one level deep.
func (r Record) Clone() Record {
	c := r
	c.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		if list, ok := v.([]any); ok {
			v = append([]any(nil), list...)
		}
		c.Fields[k] = v
	}
	return c
}

// Field returns the named field and whether it is present and non-null.
func (r Record) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// IDOf converts an id-like JSON value to its string form. Strings are
// taken as-is, numbers are formatted without a trailing ".0".
func IDOf(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		return id.String(), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return "", false
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case json.Number:
		return b.String() != "0"
	case string:
		return b != "" && b != "false"
	default:
		return v != nil
	}
}
