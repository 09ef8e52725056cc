package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// LatestCompleteStepKey is the mandatory resume pointer field
	LatestCompleteStepKey = "latest_complete_step"
	// CommentsKey holds write-only documentation in checkpoint files
	CommentsKey = "comments"
)

// Schema is the registered field set of a workflow type.
// It always starts with latest_complete_step, followed by the declared fields.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema registers the progress fields of a workflow type
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: []Field{{Name: LatestCompleteStepKey, Kind: KindInt, Default: int64(-1)}},
		index:  map[string]int{LatestCompleteStepKey: 0},
	}

	for i, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, fmt.Errorf("schema: field %d: name is required", i)
		}
		if name != f.Name {
			return nil, fmt.Errorf("schema: field %q: name has surrounding whitespace", f.Name)
		}
		if name == LatestCompleteStepKey || name == CommentsKey {
			return nil, fmt.Errorf("schema: field %q: name is reserved", name)
		}
		if _, exists := s.index[name]; exists {
			return nil, fmt.Errorf("schema: duplicate field %q", name)
		}

		def, err := f.Coerce(f.Default)
		if err != nil {
			return nil, fmt.Errorf("schema: field %q: invalid default: %w", name, err)
		}
		f.Default = def

		s.index[name] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on an invalid declaration
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns all fields in declaration order
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup returns the field with the given name
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Defaults returns a fresh snapshot populated with declared defaults
func (s *Schema) Defaults() *Snapshot {
	snap := newSnapshot(s)
	for _, f := range s.fields {
		snap.values.Set(f.Name, deepCopy(f.Default))
	}
	return snap
}

// Decode builds a snapshot from raw checkpoint fields.
// The comments key is ignored; missing optional fields take their defaults.
func (s *Schema) Decode(raw map[string]json.RawMessage) (*Snapshot, error) {
	if _, ok := raw[LatestCompleteStepKey]; !ok {
		return nil, NewDeserializationError(LatestCompleteStepKey, "required field is missing", nil)
	}

	for key := range raw {
		if key == CommentsKey {
			continue
		}
		if _, ok := s.index[key]; !ok {
			return nil, NewDeserializationError(key, "unknown field", nil)
		}
	}

	snap := newSnapshot(s)
	for _, f := range s.fields {
		data, ok := raw[f.Name]
		if !ok {
			snap.values.Set(f.Name, deepCopy(f.Default))
			continue
		}
		v, err := decodeValue(f, data)
		if err != nil {
			return nil, NewDeserializationError(f.Name, "invalid value", err)
		}
		snap.values.Set(f.Name, v)
	}

	if step := snap.LatestCompleteStep(); step < -1 {
		return nil, NewDeserializationError(LatestCompleteStepKey, fmt.Sprintf("must be >= -1, got %d", step), nil)
	}

	return snap, nil
}

func decodeValue(f Field, data json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	switch f.Kind {
	case KindList:
		var list []any
		if err := dec.Decode(&list); err != nil {
			return nil, err
		}
		if list != nil {
			v = list
		}
	case KindObject:
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, err
		}
		if obj != nil {
			v = obj
		}
	default:
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
	}

	if v == nil && !(f.AllowNull || f.Kind == KindAny) {
		return nil, errors.New("null is not allowed")
	}
	return f.Coerce(v)
}
