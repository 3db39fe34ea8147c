package command

import (
	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

func setAt(ctx *ExecContext, key string) (*store.SetValue, error) {
	v, ok := ctx.Keyspace.Get(key)
	if !ok {
		return nil, nil
	}
	sv, ok := v.(*store.SetValue)
	if !ok {
		return nil, store.ErrWrongType
	}
	return sv, nil
}

// SAdd handles SADD key member [member ...].
func SAdd(ctx *ExecContext, args [][]byte) Result {
	if len(args) < 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	key := string(args[1])
	var added [][]byte
	var typeErr error
	ctx.Keyspace.Entry(key, func() store.Value {
		return store.NewSetValue()
	}, func(e *store.Entry) {
		sv, ok := e.Value.(*store.SetValue)
		if !ok {
			typeErr = store.ErrWrongType
			return
		}
		for _, m := range args[2:] {
			if sv.Add(m) {
				added = append(added, m)
			}
		}
	})
	if typeErr != nil {
		return reply(errFrame(typeErr))
	}
	if len(added) == 0 {
		return reply(resp.IntFrame(0))
	}
	return mutation(resp.IntFrame(int64(len(added))), canonicalArray("SADD", append([][]byte{args[1]}, added...)...))
}

// SRem handles SREM key member [member ...]. A missing key is a no-op: it
// must not create an empty set the way Entry's ifAbsent would.
func SRem(ctx *ExecContext, args [][]byte) Result {
	if len(args) < 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	sv, err := setAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if sv == nil {
		return reply(resp.IntFrame(0))
	}
	var removed [][]byte
	for _, m := range args[2:] {
		if sv.Remove(m) {
			removed = append(removed, m)
		}
	}
	if len(removed) == 0 {
		return reply(resp.IntFrame(0))
	}
	return mutation(resp.IntFrame(int64(len(removed))), canonicalArray("SREM", append([][]byte{args[1]}, removed...)...))
}

// SMembers handles SMEMBERS key.
func SMembers(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	sv, err := setAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if sv == nil {
		return reply(resp.ArrayFrame(nil))
	}
	elems := make([]resp.Frame, 0, sv.Len())
	for _, m := range sv.Members() {
		elems = append(elems, resp.BulkFrame(m))
	}
	return reply(resp.ArrayFrame(elems))
}

// SCard handles SCARD key.
func SCard(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	sv, err := setAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if sv == nil {
		return reply(resp.IntFrame(0))
	}
	return reply(resp.IntFrame(int64(sv.Len())))
}

// SIsMember handles SISMEMBER key member.
func SIsMember(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	sv, err := setAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if sv == nil || !sv.Contains(args[2]) {
		return reply(resp.IntFrame(0))
	}
	return reply(resp.IntFrame(1))
}
