package command

import (
	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

func hashAt(ctx *ExecContext, key string) (*store.HashValue, error) {
	v, ok := ctx.Keyspace.Get(key)
	if !ok {
		return nil, nil
	}
	hv, ok := v.(*store.HashValue)
	if !ok {
		return nil, store.ErrWrongType
	}
	return hv, nil
}

// HSet handles HSET key field value.
func HSet(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 4 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	key := string(args[1])
	var added bool
	var typeErr error
	ctx.Keyspace.Entry(key, func() store.Value {
		return store.NewHashValue()
	}, func(e *store.Entry) {
		hv, ok := e.Value.(*store.HashValue)
		if !ok {
			typeErr = store.ErrWrongType
			return
		}
		added = hv.Set(args[2], args[3])
	})
	if typeErr != nil {
		return reply(errFrame(typeErr))
	}
	n := int64(0)
	if added {
		n = 1
	}
	return mutation(resp.IntFrame(n), canonicalArray("HSET", args[1], args[2], args[3]))
}

// HGet handles HGET key field.
func HGet(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	hv, err := hashAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if hv == nil {
		return reply(resp.NullFrame())
	}
	v, ok := hv.Get(args[2])
	if !ok {
		return reply(resp.NullFrame())
	}
	return reply(resp.BulkFrame(v))
}

// HDel handles HDEL key field [field ...]. A missing key is a no-op: it
// must not create an empty hash the way Entry's ifAbsent would.
func HDel(ctx *ExecContext, args [][]byte) Result {
	if len(args) < 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	hv, err := hashAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if hv == nil {
		return reply(resp.IntFrame(0))
	}
	var n int
	for _, f := range args[2:] {
		if hv.Delete(f) {
			n++
		}
	}
	if n == 0 {
		return reply(resp.IntFrame(0))
	}
	return mutation(resp.IntFrame(int64(n)), canonicalArray("HDEL", args[1:]...))
}

// HExists handles HEXISTS key field.
func HExists(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	hv, err := hashAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if hv == nil || !hv.Contains(args[2]) {
		return reply(resp.IntFrame(0))
	}
	return reply(resp.IntFrame(1))
}

// HLen handles HLEN key.
func HLen(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	hv, err := hashAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if hv == nil {
		return reply(resp.IntFrame(0))
	}
	return reply(resp.IntFrame(int64(hv.Len())))
}

// HKeys handles HKEYS key.
func HKeys(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	hv, err := hashAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if hv == nil {
		return reply(resp.ArrayFrame(nil))
	}
	elems := make([]resp.Frame, 0, hv.Len())
	for _, k := range hv.Keys() {
		elems = append(elems, resp.BulkFrame(k))
	}
	return reply(resp.ArrayFrame(elems))
}

// HGetAll handles HGETALL key, interleaving field and value.
func HGetAll(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	hv, err := hashAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if hv == nil {
		return reply(resp.ArrayFrame(nil))
	}
	fields := hv.All()
	elems := make([]resp.Frame, 0, len(fields)*2)
	for _, f := range fields {
		elems = append(elems, resp.BulkFrame(f.Name), resp.BulkFrame(f.Value))
	}
	return reply(resp.ArrayFrame(elems))
}
