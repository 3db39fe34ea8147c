package command

import (
	"strconv"

	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

// RewriteEmit reconstructs key's current value as the sequence of
// log-canonical RESP arrays background rewrite would have to replay to
// recreate it from empty, per §6's "rewrite-emitter forms": one command per
// String/SADD-per-member/HSET-per-field/ZADD-per-member/RPUSH-per-element,
// plus a trailing PEXPIREAT if the entry is volatile.
func RewriteEmit(key string, e *store.Entry) []resp.Frame {
	var out []resp.Frame
	kb := []byte(key)

	switch v := e.Value.(type) {
	case *store.StringValue:
		out = append(out, canonicalArray("SET", kb, v.Data))
	case *store.ListValue:
		for _, elem := range v.Iter() {
			out = append(out, canonicalArray("RPUSH", kb, elem))
		}
	case *store.SetValue:
		for _, m := range v.Members() {
			out = append(out, canonicalArray("SADD", kb, m))
		}
	case *store.HashValue:
		for _, f := range v.All() {
			out = append(out, canonicalArray("HSET", kb, f.Name, f.Value))
		}
	case *store.SortedSetValue:
		for _, m := range v.Iter() {
			out = append(out, canonicalArray("ZADD", kb, []byte(formatScore(m.Score)), []byte(m.Member)))
		}
	}

	if e.Volatile() {
		out = append(out, canonicalArray("PEXPIREAT", kb, []byte(strconv.FormatInt(e.ExpireAt, 10))))
	}
	return out
}
