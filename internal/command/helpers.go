package command

import (
	"strconv"

	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

func parseInt(b []byte) (int64, error) {
	return strconv.ParseInt(string(b), 10, 64)
}

func parseFloat(b []byte) (float64, error) {
	return strconv.ParseFloat(string(b), 64)
}

// formatScore renders a sorted-set score the way redis clients expect:
// trailing zeroes trimmed, no exponent for ordinary magnitudes.
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// canonicalArray builds a log-canonical command array out of a command name
// and a set of already-resolved argument tokens.
func canonicalArray(name string, argTokens ...[]byte) resp.Frame {
	elems := make([]resp.Frame, 0, len(argTokens)+1)
	elems = append(elems, resp.BulkString(name))
	for _, a := range argTokens {
		elems = append(elems, resp.BulkFrame(a))
	}
	return resp.ArrayFrame(elems)
}

// errFrame maps a store error to its reply frame. ErrWrongType,
// ErrNoSuchKey, ErrNotANumber and ErrNaNScore surface verbatim (§7 semantic
// errors); any other error is an internal inconsistency and surfaces as a
// generic ERR.
func errFrame(err error) resp.Frame {
	switch err {
	case store.ErrWrongType, store.ErrNoSuchKey, store.ErrNotANumber, store.ErrNaNScore:
		return resp.ErrFrame(err.Error())
	default:
		return resp.ErrFramef("ERR %v", err)
	}
}
