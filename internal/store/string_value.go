package store

// StringValue is a mutable byte buffer (§3, §4.2).
type StringValue struct {
	Data []byte
}

// NewStringValue copies b into a new StringValue.
func NewStringValue(b []byte) *StringValue {
	return &StringValue{Data: append([]byte(nil), b...)}
}

func (*StringValue) Kind() Kind { return KindString }

// Len returns the byte length of the string.
func (s *StringValue) Len() int { return len(s.Data) }

// Append appends b to the string and returns the new total length.
func (s *StringValue) Append(b []byte) int {
	s.Data = append(s.Data, b...)
	return len(s.Data)
}

// Set replaces the string's contents with b.
func (s *StringValue) Set(b []byte) {
	s.Data = append([]byte(nil), b...)
}
