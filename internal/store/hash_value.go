package store

// HashValue is a field/value map of byte strings (§3, §4.2).
type HashValue struct {
	fields map[string][]byte
}

// NewHashValue returns an empty hash.
func NewHashValue() *HashValue {
	return &HashValue{fields: make(map[string][]byte)}
}

func (*HashValue) Kind() Kind { return KindHash }

// Set stores value under field, reporting whether the field is new.
func (h *HashValue) Set(field, value []byte) bool {
	k := string(field)
	_, existed := h.fields[k]
	h.fields[k] = append([]byte(nil), value...)
	return !existed
}

// Get returns the value stored under field.
func (h *HashValue) Get(field []byte) ([]byte, bool) {
	v, ok := h.fields[string(field)]
	return v, ok
}

// Delete removes field, reporting whether it was present.
func (h *HashValue) Delete(field []byte) bool {
	k := string(field)
	if _, ok := h.fields[k]; !ok {
		return false
	}
	delete(h.fields, k)
	return true
}

// Contains reports whether field exists.
func (h *HashValue) Contains(field []byte) bool {
	_, ok := h.fields[string(field)]
	return ok
}

// Len returns the number of fields.
func (h *HashValue) Len() int { return len(h.fields) }

// Field is a single field/value pair, used by All.
type Field struct {
	Name  []byte
	Value []byte
}

// All returns every field/value pair in unspecified order.
func (h *HashValue) All() []Field {
	out := make([]Field, 0, len(h.fields))
	for k, v := range h.fields {
		out = append(out, Field{Name: []byte(k), Value: v})
	}
	return out
}

// Keys returns every field name in unspecified order.
func (h *HashValue) Keys() [][]byte {
	out := make([][]byte, 0, len(h.fields))
	for k := range h.fields {
		out = append(out, []byte(k))
	}
	return out
}
