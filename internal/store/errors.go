package store

import "errors"

// ErrWrongType is returned when an operation targets a key holding a value
// of a different type. Per §4.2, a WrongType error must never mutate state.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// ErrNoSuchKey is returned by RENAME when the source key is absent or expired.
var ErrNoSuchKey = errors.New("ERR no such key")

// ErrNotANumber is returned by INCR/DECR family commands when the stored
// string is not parseable as an integer.
var ErrNotANumber = errors.New("ERR value is not an integer or out of range")

// ErrNaNScore is returned when a SortedSet insert is given a NaN score (§3:
// "scores are arbitrary finite doubles (NaN rejected)").
var ErrNaNScore = errors.New("ERR score is not a valid float")
