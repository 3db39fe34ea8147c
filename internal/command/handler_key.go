package command

import (
	"strconv"

	"github.com/akashmaji946/rudis/internal/resp"
)

// Del handles DEL key [key ...], returning the number of keys removed.
func Del(ctx *ExecContext, args [][]byte) Result {
	if len(args) < 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	n := 0
	for _, k := range args[1:] {
		if ctx.Keyspace.Remove(string(k)) {
			n++
		}
	}
	if n == 0 {
		return reply(resp.IntFrame(0))
	}
	return mutation(resp.IntFrame(int64(n)), canonicalArray("DEL", args[1:]...))
}

// Exists handles EXISTS key [key ...], counting keys present (duplicates counted).
func Exists(ctx *ExecContext, args [][]byte) Result {
	if len(args) < 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	n := 0
	for _, k := range args[1:] {
		if ctx.Keyspace.ContainsKey(string(k)) {
			n++
		}
	}
	return reply(resp.IntFrame(int64(n)))
}

// Keys handles KEYS pattern. Only "*" (all keys) and an exact literal match
// are supported, matching the original implementation this was distilled
// from: it never performed glob matching despite the historical command
// name.
func Keys(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	pattern := string(args[1])
	all := pattern == "*"
	elems := make([]resp.Frame, 0)
	for _, ke := range ctx.Keyspace.Iter() {
		if all || ke.Key == pattern {
			elems = append(elems, resp.BulkString(ke.Key))
		}
	}
	return reply(resp.ArrayFrame(elems))
}

// DBSize handles DBSIZE.
func DBSize(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 1 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	return reply(resp.IntFrame(int64(ctx.Keyspace.Len())))
}

// Type handles TYPE key.
func Type(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	v, ok := ctx.Keyspace.Get(string(args[1]))
	if !ok {
		return reply(resp.SimpleFrame("none"))
	}
	return reply(resp.SimpleFrame(v.Kind().String()))
}

// Rename handles RENAME key newkey.
func Rename(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	if err := ctx.Keyspace.Rename(string(args[1]), string(args[2])); err != nil {
		return reply(errFrame(err))
	}
	return mutation(resp.OK(), canonicalArray("RENAME", args[1], args[2]))
}

func expireCommand(ctx *ExecContext, key string, deltaMillis int64) Result {
	ts := ctx.Clock.NowMillis() + deltaMillis
	if !ctx.Keyspace.ExpireAt(key, ts) {
		return reply(resp.IntFrame(0))
	}
	return mutation(resp.IntFrame(1), canonicalArray("PEXPIREAT", []byte(key), []byte(strconv.FormatInt(ts, 10))))
}

func expireAtCommand(ctx *ExecContext, key string, ts int64) Result {
	if !ctx.Keyspace.ExpireAt(key, ts) {
		return reply(resp.IntFrame(0))
	}
	return mutation(resp.IntFrame(1), canonicalArray("PEXPIREAT", []byte(key), []byte(strconv.FormatInt(ts, 10))))
}

// Expire handles EXPIRE key seconds.
func Expire(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	secs, err := parseInt(args[2])
	if err != nil {
		return reply(resp.ErrFrame("ERR value is not an integer or out of range"))
	}
	return expireCommand(ctx, string(args[1]), secs*1000)
}

// PExpire handles PEXPIRE key milliseconds.
func PExpire(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	ms, err := parseInt(args[2])
	if err != nil {
		return reply(resp.ErrFrame("ERR value is not an integer or out of range"))
	}
	return expireCommand(ctx, string(args[1]), ms)
}

// ExpireAt handles EXPIREAT key unix-seconds.
func ExpireAt(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	secs, err := parseInt(args[2])
	if err != nil {
		return reply(resp.ErrFrame("ERR value is not an integer or out of range"))
	}
	return expireAtCommand(ctx, string(args[1]), secs*1000)
}

// PExpireAt handles PEXPIREAT key unix-milliseconds.
func PExpireAt(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	ms, err := parseInt(args[2])
	if err != nil {
		return reply(resp.ErrFrame("ERR value is not an integer or out of range"))
	}
	return expireAtCommand(ctx, string(args[1]), ms)
}

// TTL handles TTL key, returning remaining seconds (-1 no expiry, -2 missing).
func TTL(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	e, ok := ctx.Keyspace.GetEntry(string(args[1]))
	if !ok {
		return reply(resp.IntFrame(-2))
	}
	if !e.Volatile() {
		return reply(resp.IntFrame(-1))
	}
	remaining := e.ExpireAt - ctx.Clock.NowMillis()
	if remaining < 0 {
		remaining = 0
	}
	return reply(resp.IntFrame(remaining / 1000))
}

// PTTL handles PTTL key, returning remaining milliseconds (-1 no expiry, -2 missing).
func PTTL(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	e, ok := ctx.Keyspace.GetEntry(string(args[1]))
	if !ok {
		return reply(resp.IntFrame(-2))
	}
	if !e.Volatile() {
		return reply(resp.IntFrame(-1))
	}
	remaining := e.ExpireAt - ctx.Clock.NowMillis()
	if remaining < 0 {
		remaining = 0
	}
	return reply(resp.IntFrame(remaining))
}

// Persist handles PERSIST key.
func Persist(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	key := string(args[1])
	if !ctx.Keyspace.Persist(key) {
		return reply(resp.IntFrame(0))
	}
	return mutation(resp.IntFrame(1), canonicalArray("PERSIST", args[1]))
}

// FlushDB handles FLUSHDB, clearing the whole keyspace.
func FlushDB(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 1 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	ctx.Keyspace.Flush()
	return mutation(resp.OK(), canonicalArray("FLUSHDB"))
}
