package command

import (
	"strconv"
	"strings"

	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

func stringAt(ctx *ExecContext, key string) (*store.StringValue, bool, error) {
	v, ok := ctx.Keyspace.Get(key)
	if !ok {
		return nil, false, nil
	}
	sv, ok := v.(*store.StringValue)
	if !ok {
		return nil, true, store.ErrWrongType
	}
	return sv, true, nil
}

// Get handles GET key.
func Get(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	sv, _, err := stringAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if sv == nil {
		return reply(resp.NullFrame())
	}
	return reply(resp.BulkFrame(sv.Data))
}

// Set handles SET key value [NX|XX] [EX seconds|PX milliseconds].
func Set(ctx *ExecContext, args [][]byte) Result {
	if len(args) < 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	key, value := string(args[1]), args[2]

	var nx, xx bool
	var hasExpire bool
	var expireAt int64

	opts := args[3:]
	for i := 0; i < len(opts); i++ {
		switch strings.ToUpper(string(opts[i])) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "EX":
			if i+1 >= len(opts) {
				return reply(resp.ErrFrame("ERR syntax error"))
			}
			secs, err := parseInt(opts[i+1])
			if err != nil {
				return reply(resp.ErrFrame("ERR value is not an integer or out of range"))
			}
			hasExpire = true
			expireAt = ctx.Clock.NowMillis() + secs*1000
			i++
		case "PX":
			if i+1 >= len(opts) {
				return reply(resp.ErrFrame("ERR syntax error"))
			}
			ms, err := parseInt(opts[i+1])
			if err != nil {
				return reply(resp.ErrFrame("ERR value is not an integer or out of range"))
			}
			hasExpire = true
			expireAt = ctx.Clock.NowMillis() + ms
			i++
		default:
			return reply(resp.ErrFrame("ERR syntax error"))
		}
	}
	if nx && xx {
		return reply(resp.ErrFrame("ERR syntax error"))
	}

	if nx || xx {
		exists := ctx.Keyspace.ContainsKey(key)
		if nx && exists {
			return reply(resp.NullFrame())
		}
		if xx && !exists {
			return reply(resp.NullFrame())
		}
	}

	if hasExpire {
		ctx.Keyspace.InsertWithExpire(key, store.NewStringValue(value), expireAt)
	} else {
		ctx.Keyspace.Insert(key, store.NewStringValue(value))
	}

	// Log-canonical form per §6: "SET key value [PX ms]", EX normalized to
	// PX. The ms figure is the remaining relative offset computed at this
	// same instant rather than the absolute expire-at, since SET's own PX
	// option is relative by the wire grammar and reusing the keyword for an
	// absolute value would make replay parse it as "expire in <huge number>
	// ms" instead. The pending buffer is flushed on the very next scheduler
	// tick (≤100ms away, §4.8's pre-sleep hook), so the drift this leaves
	// between apply and replay is negligible in practice.
	var canonical resp.Frame
	if hasExpire {
		remaining := expireAt - ctx.Clock.NowMillis()
		canonical = resp.ArrayFrame([]resp.Frame{
			resp.BulkString("SET"), resp.BulkFrame(args[1]), resp.BulkFrame(value),
			resp.BulkString("PX"), resp.BulkString(strconv.FormatInt(remaining, 10)),
		})
	} else {
		canonical = canonicalArray("SET", args[1], value)
	}
	return mutation(resp.OK(), canonical)
}

// Setnx handles SETNX key value: set only if key does not already exist.
func Setnx(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	key := string(args[1])
	if ctx.Keyspace.ContainsKey(key) {
		return reply(resp.IntFrame(0))
	}
	ctx.Keyspace.Insert(key, store.NewStringValue(args[2]))
	return mutation(resp.IntFrame(1), canonicalArray("SET", args[1], args[2]))
}

// Append handles APPEND key value, returning the new length.
func Append(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	key := string(args[1])
	var n int
	var typeErr error
	ctx.Keyspace.Entry(key, func() store.Value {
		return store.NewStringValue(nil)
	}, func(e *store.Entry) {
		sv, ok := e.Value.(*store.StringValue)
		if !ok {
			typeErr = store.ErrWrongType
			return
		}
		n = sv.Append(args[2])
	})
	if typeErr != nil {
		return reply(errFrame(typeErr))
	}
	return mutation(resp.IntFrame(int64(n)), canonicalArray("APPEND", args[1], args[2]))
}

// Strlen handles STRLEN key.
func Strlen(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	sv, _, err := stringAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if sv == nil {
		return reply(resp.IntFrame(0))
	}
	return reply(resp.IntFrame(int64(sv.Len())))
}

func incrBy(ctx *ExecContext, key string, delta int64) Result {
	var result int64
	var typeErr error
	var parseErr bool
	ctx.Keyspace.Entry(key, func() store.Value {
		return store.NewStringValue([]byte("0"))
	}, func(e *store.Entry) {
		sv, ok := e.Value.(*store.StringValue)
		if !ok {
			typeErr = store.ErrWrongType
			return
		}
		n, err := strconv.ParseInt(string(sv.Data), 10, 64)
		if err != nil {
			parseErr = true
			return
		}
		n += delta
		result = n
		sv.Set([]byte(strconv.FormatInt(n, 10)))
	})
	if typeErr != nil {
		return reply(errFrame(typeErr))
	}
	if parseErr {
		return reply(errFrame(store.ErrNotANumber))
	}
	return mutation(resp.IntFrame(result), canonicalArray("SET", []byte(key), []byte(strconv.FormatInt(result, 10))))
}

// Incr handles INCR key.
func Incr(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	return incrBy(ctx, string(args[1]), 1)
}

// Decr handles DECR key.
func Decr(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	return incrBy(ctx, string(args[1]), -1)
}

// IncrBy handles INCRBY key delta.
func IncrBy(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	delta, err := parseInt(args[2])
	if err != nil {
		return reply(errFrame(store.ErrNotANumber))
	}
	return incrBy(ctx, string(args[1]), delta)
}

// DecrBy handles DECRBY key delta.
func DecrBy(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	delta, err := parseInt(args[2])
	if err != nil {
		return reply(errFrame(store.ErrNotANumber))
	}
	return incrBy(ctx, string(args[1]), -delta)
}
