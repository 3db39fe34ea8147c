package store

// SetValue is an unordered collection of unique byte strings (§3, §4.2).
type SetValue struct {
	members map[string]struct{}
}

// NewSetValue returns an empty set.
func NewSetValue() *SetValue {
	return &SetValue{members: make(map[string]struct{})}
}

func (*SetValue) Kind() Kind { return KindSet }

// Add inserts b, reporting whether it was newly added.
func (s *SetValue) Add(b []byte) bool {
	k := string(b)
	if _, ok := s.members[k]; ok {
		return false
	}
	s.members[k] = struct{}{}
	return true
}

// Remove deletes b, reporting whether it was present.
func (s *SetValue) Remove(b []byte) bool {
	k := string(b)
	if _, ok := s.members[k]; !ok {
		return false
	}
	delete(s.members, k)
	return true
}

// Contains reports whether b is a member.
func (s *SetValue) Contains(b []byte) bool {
	_, ok := s.members[string(b)]
	return ok
}

// Len returns the number of members.
func (s *SetValue) Len() int { return len(s.members) }

// Members returns all members in unspecified order.
func (s *SetValue) Members() [][]byte {
	out := make([][]byte, 0, len(s.members))
	for k := range s.members {
		out = append(out, []byte(k))
	}
	return out
}
