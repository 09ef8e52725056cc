package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Snapshot is the serializable progress of a workflow run.
// Values are kept in declaration order so checkpoints are stable and readable.
type Snapshot struct {
	schema *Schema
	values *orderedmap.OrderedMap[string, any]
}

func newSnapshot(schema *Schema) *Snapshot {
	return &Snapshot{
		schema: schema,
		values: orderedmap.New[string, any](),
	}
}

// Schema returns the schema the snapshot was built from
func (s *Snapshot) Schema() *Schema {
	return s.schema
}

// Get returns a copy of the current value of a field. Lists and objects
// hold []any and map[string]any with int64, float64, string, bool or nil
// leaves, whether the value was set in this run or loaded from a file.
func (s *Snapshot) Get(name string) (any, bool) {
	v, ok := s.values.Get(name)
	return deepCopy(v), ok
}

// Set assigns a field after converting it to the field's kind.
// It returns the previous value.
func (s *Snapshot) Set(name string, value any) (any, error) {
	f, ok := s.schema.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown progress field %q", name)
	}
	v, err := f.Coerce(value)
	if err != nil {
		return nil, fmt.Errorf("progress field %q: %w", name, err)
	}
	if name == LatestCompleteStepKey && v.(int64) < -1 {
		return nil, fmt.Errorf("progress field %q: must be >= -1, got %d", name, v)
	}
	prev, _ := s.values.Set(name, v)
	return prev, nil
}

// LatestCompleteStep returns the resume pointer, capped at math.MaxInt
func (s *Snapshot) LatestCompleteStep() int {
	v, _ := s.values.Get(LatestCompleteStepKey)
	n, _ := v.(int64)
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// Names returns the field names in declaration order
func (s *Snapshot) Names() []string {
	names := make([]string, 0, s.values.Len())
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Map returns the field values as a plain map
func (s *Snapshot) Map() map[string]any {
	out := make(map[string]any, s.values.Len())
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = deepCopy(pair.Value)
	}
	return out
}

// Clone returns a deep copy
func (s *Snapshot) Clone() *Snapshot {
	c := newSnapshot(s.schema)
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		c.values.Set(pair.Key, deepCopy(pair.Value))
	}
	return c
}

// Each calls fn for every field in declaration order.
// fn must not modify the values it is given.
func (s *Snapshot) Each(fn func(name string, value any)) {
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// MarshalJSON encodes the snapshot as an object in declaration order.
// A value that cannot be represented in JSON fails naming its field.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s.values.MarshalJSON()
}

// Validate checks every field can be encoded as JSON
func (s *Snapshot) Validate() error {
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		if _, err := json.Marshal(pair.Value); err != nil {
			return NewSerializationError(pair.Key, "value is not JSON-serializable", err)
		}
	}
	return nil
}

// Diff compares the canonical JSON encoding of each field.
// It returns the first differing field name, or equal=true.
func (s *Snapshot) Diff(other *Snapshot) (key string, equal bool) {
	for pair := other.values.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := s.values.Get(pair.Key); !ok {
			return pair.Key, false
		}
	}

	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		ov, ok := other.values.Get(pair.Key)
		if !ok {
			return pair.Key, false
		}
		a, errA := json.Marshal(pair.Value)
		b, errB := json.Marshal(ov)
		if errA != nil || errB != nil || !bytes.Equal(a, b) {
			return pair.Key, false
		}
	}
	return "", true
}

// String renders the snapshot as compact JSON for diagnostics
func (s *Snapshot) String() string {
	data, err := s.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", s.Map())
	}
	return string(data)
}
