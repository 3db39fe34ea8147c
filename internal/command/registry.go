package command

import (
	"errors"
	"strings"

	"github.com/akashmaji946/rudis/internal/resp"
)

// ErrNotAnArray and ErrNotBulk are protocol errors surfaced when a parsed
// frame isn't the array-of-bulk-strings shape a command requires (§4.1's
// inline-or-array grammar guarantees this for well-formed input; malformed
// input from a misbehaving client is caught here instead).
var (
	ErrNotAnArray = errors.New("ERR Protocol error: expected array")
	ErrNotBulk    = errors.New("ERR Protocol error: expected bulk string")
)

// Handlers is the command dispatch table: a plain map lookup, not an
// interface method set, so adding a command never touches existing ones
// (§9's "dispatch is a match, not virtual calls", rendered in Go the way
// the teacher's own internal/handlers package does it).
var Handlers = map[string]HandlerFunc{
	"PING":   Ping,
	"ECHO":   Echo,
	"QUIT":   Quit,
	"SELECT": Select,

	"GET":    Get,
	"SET":    Set,
	"SETNX":  Setnx,
	"APPEND": Append,
	"STRLEN": Strlen,
	"INCR":   Incr,
	"INCRBY": IncrBy,
	"DECR":   Decr,
	"DECRBY": DecrBy,

	"DEL":       Del,
	"EXISTS":    Exists,
	"KEYS":      Keys,
	"DBSIZE":    DBSize,
	"TYPE":      Type,
	"RENAME":    Rename,
	"EXPIRE":    Expire,
	"EXPIREAT":  ExpireAt,
	"PEXPIRE":   PExpire,
	"PEXPIREAT": PExpireAt,
	"TTL":       TTL,
	"PTTL":      PTTL,
	"PERSIST":   Persist,
	"FLUSHDB":   FlushDB,

	"LPUSH":  LPush,
	"RPUSH":  RPush,
	"LPOP":   LPop,
	"RPOP":   RPop,
	"LLEN":   LLen,
	"LRANGE": LRange,

	"HSET":    HSet,
	"HGET":    HGet,
	"HDEL":    HDel,
	"HEXISTS": HExists,
	"HLEN":    HLen,
	"HKEYS":   HKeys,
	"HGETALL": HGetAll,

	"SADD":      SAdd,
	"SREM":      SRem,
	"SMEMBERS":  SMembers,
	"SCARD":     SCard,
	"SISMEMBER": SIsMember,

	"ZADD":   ZAdd,
	"ZSCORE": ZScore,
	"ZCARD":  ZCard,
	"ZRANGE": ZRange,

	"SAVE":         Save,
	"BGSAVE":       BGSave,
	"BGREWRITEAOF": BGRewriteAOF,
	"SHUTDOWN":     Shutdown,
	"CONFIG":       Config,
}

// Dispatch looks up and runs the handler for argv (argv[0] is the command
// name). A zero Result paired with ok=false means "unknown command";
// the caller (connection loop or AOF replay) formats the protocol error.
func Dispatch(ctx *ExecContext, argv [][]byte) (Result, bool) {
	if len(argv) == 0 {
		return Result{}, false
	}
	name := strings.ToUpper(string(argv[0]))
	h, ok := Handlers[name]
	if !ok {
		return Result{}, false
	}
	return h(ctx, argv), true
}

// FrameToArgv converts a parsed command Frame (always an Array of Bulk
// frames per §4.1's inline-or-array grammar) into the [][]byte argument
// vector handlers expect.
func FrameToArgv(f resp.Frame) ([][]byte, error) {
	if f.Kind != resp.Array {
		return nil, ErrNotAnArray
	}
	out := make([][]byte, len(f.Elems))
	for i, e := range f.Elems {
		if e.Kind != resp.Bulk {
			return nil, ErrNotBulk
		}
		out[i] = e.Bulk
	}
	return out, nil
}
