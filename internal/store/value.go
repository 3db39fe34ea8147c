// Package store implements the keyspace (C3) and the typed value model
// (C2): a concurrent, sharded mapping from binary keys to entries, each
// holding one of String/List/Set/Hash/SortedSet and an optional millisecond
// expiration.
package store

// Kind identifies which of the five value variants a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindSet
	KindHash
	KindSortedSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindSortedSet:
		return "zset"
	default:
		return "unknown"
	}
}

// Value is the tagged-variant interface every stored value implements.
// Dispatch on the concrete type is a type assertion/switch, not virtual
// calls.
type Value interface {
	Kind() Kind
}

// Entry is what the keyspace stores per key: a Value plus an optional
// expiration, expressed in unix milliseconds.
type Entry struct {
	Value     Value
	ExpireAt  int64 // meaningful only if HasExpire
	HasExpire bool
}

// Volatile reports whether the entry carries an expiration (§3).
func (e *Entry) Volatile() bool { return e.HasExpire }
