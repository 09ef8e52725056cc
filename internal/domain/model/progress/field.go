package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// Kind is the JSON type a progress field holds
type Kind int

const (
	KindAny Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindList
	KindObject
)

// String returns the kind name used in error messages
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "any"
	}
}

// Field declares one progress variable of a workflow
type Field struct {
	Name      string
	Kind      Kind
	Default   any
	AllowNull bool
}

// Int declares an integer field
func Int(name string, def int64) Field {
	return Field{Name: name, Kind: KindInt, Default: def}
}

// Float declares a floating point field
func Float(name string, def float64) Field {
	return Field{Name: name, Kind: KindFloat, Default: def}
}

// String declares a string field
func String(name, def string) Field {
	return Field{Name: name, Kind: KindString, Default: def}
}

// Bool declares a boolean field
func Bool(name string, def bool) Field {
	return Field{Name: name, Kind: KindBool, Default: def}
}

// List declares a JSON array field
func List(name string, def []any) Field {
	return Field{Name: name, Kind: KindList, Default: def}
}

// Object declares a JSON object field
func Object(name string, def map[string]any) Field {
	return Field{Name: name, Kind: KindObject, Default: def}
}

// Any declares a field holding any JSON value, including null
func Any(name string, def any) Field {
	return Field{Name: name, Kind: KindAny, Default: def, AllowNull: true}
}

// OrNull makes the field nullable with a null default
func (f Field) OrNull() Field {
	f.AllowNull = true
	f.Default = nil
	return f
}

// Coerce converts v to the canonical Go representation of the field's kind.
// Integers become int64 and floats become float64. List, object and any
// values are rebuilt from their JSON encoding as []any, map[string]any and
// scalars, so a value set by step code holds exactly what a later load
// returns and shares no memory with the caller.
func (f Field) Coerce(v any) (any, error) {
	if v == nil {
		if f.AllowNull || f.Kind == KindAny {
			return nil, nil
		}
		return nil, fmt.Errorf("null is not allowed for %s field", f.Kind)
	}

	switch f.Kind {
	case KindInt:
		return coerceInt(v)
	case KindFloat:
		return coerceFloat(v)
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	default:
		return f.coerceComposite(v)
	}
	return nil, fmt.Errorf("expected %s, got %T", f.Kind, v)
}

// coerceComposite canonicalizes list, object and any values.
// A value with no JSON encoding is kept as given so the next save reports
// it against the field.
func (f Field) coerceComposite(v any) (any, error) {
	c, err := canonicalize(v)
	if err != nil {
		if f.Kind == KindAny || f.acceptsShape(v) {
			return v, nil
		}
		return nil, fmt.Errorf("expected %s, got %T", f.Kind, v)
	}

	switch f.Kind {
	case KindList:
		if c == nil && isNilContainer(v) {
			if f.AllowNull {
				return nil, nil
			}
			return []any{}, nil
		}
		if _, ok := c.([]any); !ok {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
	case KindObject:
		if c == nil && isNilContainer(v) {
			if f.AllowNull {
				return nil, nil
			}
			return map[string]any{}, nil
		}
		if _, ok := c.(map[string]any); !ok {
			return nil, fmt.Errorf("expected object, got %T", v)
		}
	}
	return c, nil
}

// acceptsShape reports whether v has the Go shape of the field's kind
func (f Field) acceptsShape(v any) bool {
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch f.Kind {
	case KindList:
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	case KindObject:
		return rv.Kind() == reflect.Struct ||
			(rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String)
	}
	return false
}

func isNilContainer(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

// canonicalize round-trips v through JSON. Numbers come back as int64 when
// they are integral and fit, float64 otherwise.
func canonicalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return normalizeNumbers(out), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	}
	return v
}

// deepCopy copies the containers of a canonical value.
// Values outside the canonical shapes are returned unchanged.
func deepCopy(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	}
	return v
}

func coerceInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int", n)
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int", n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected int, got %s", n.String())
		}
		return i, nil
	}
	return nil, fmt.Errorf("expected int, got %T", v)
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected float, got %s", n.String())
		}
		return f, nil
	}
	if i, err := coerceInt(v); err == nil {
		return float64(i.(int64)), nil
	}
	return nil, fmt.Errorf("expected float, got %T", v)
}
