package command

import (
	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

func listAt(ctx *ExecContext, key string) (*store.ListValue, error) {
	v, ok := ctx.Keyspace.Get(key)
	if !ok {
		return nil, nil
	}
	lv, ok := v.(*store.ListValue)
	if !ok {
		return nil, store.ErrWrongType
	}
	return lv, nil
}

func pushCommand(ctx *ExecContext, args [][]byte, front bool, name string) Result {
	if len(args) < 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	key := string(args[1])
	var n int
	var typeErr error
	ctx.Keyspace.Entry(key, func() store.Value {
		return store.NewListValue()
	}, func(e *store.Entry) {
		lv, ok := e.Value.(*store.ListValue)
		if !ok {
			typeErr = store.ErrWrongType
			return
		}
		for _, v := range args[2:] {
			if front {
				lv.PushFront(v)
			} else {
				lv.PushBack(v)
			}
		}
		n = lv.Len()
	})
	if typeErr != nil {
		return reply(errFrame(typeErr))
	}
	return mutation(resp.IntFrame(int64(n)), canonicalArray(name, args[1:]...))
}

// LPush handles LPUSH key value [value ...].
func LPush(ctx *ExecContext, args [][]byte) Result { return pushCommand(ctx, args, true, "LPUSH") }

// RPush handles RPUSH key value [value ...].
func RPush(ctx *ExecContext, args [][]byte) Result { return pushCommand(ctx, args, false, "RPUSH") }

func popCommand(ctx *ExecContext, args [][]byte, front bool, name string) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	lv, err := listAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if lv == nil {
		return reply(resp.NullFrame())
	}
	var v []byte
	var ok bool
	if front {
		v, ok = lv.PopFront()
	} else {
		v, ok = lv.PopBack()
	}
	if !ok {
		return reply(resp.NullFrame())
	}
	// A list popped empty no longer exists as a key.
	if lv.Len() == 0 {
		ctx.Keyspace.Remove(string(args[1]))
	}
	return mutation(resp.BulkFrame(v), canonicalArray(name, args[1]))
}

// LPop handles LPOP key.
func LPop(ctx *ExecContext, args [][]byte) Result { return popCommand(ctx, args, true, "LPOP") }

// RPop handles RPOP key.
func RPop(ctx *ExecContext, args [][]byte) Result { return popCommand(ctx, args, false, "RPOP") }

// LLen handles LLEN key.
func LLen(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	lv, err := listAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if lv == nil {
		return reply(resp.IntFrame(0))
	}
	return reply(resp.IntFrame(int64(lv.Len())))
}

// LRange handles LRANGE key start stop (read-only, §2 supplemented commands).
func LRange(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 4 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	lv, err := listAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if lv == nil {
		return reply(resp.ArrayFrame(nil))
	}
	start, err := parseInt(args[2])
	if err != nil {
		return reply(resp.ErrFrame("ERR value is not an integer or out of range"))
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return reply(resp.ErrFrame("ERR value is not an integer or out of range"))
	}
	all := lv.Iter()
	n := int64(len(all))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	elems := make([]resp.Frame, 0)
	for i := start; i <= stop && i < n; i++ {
		elems = append(elems, resp.BulkFrame(all[i]))
	}
	return reply(resp.ArrayFrame(elems))
}
