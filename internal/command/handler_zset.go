package command

import (
	"math"
	"strings"

	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

func zsetAt(ctx *ExecContext, key string) (*store.SortedSetValue, error) {
	v, ok := ctx.Keyspace.Get(key)
	if !ok {
		return nil, nil
	}
	zv, ok := v.(*store.SortedSetValue)
	if !ok {
		return nil, store.ErrWrongType
	}
	return zv, nil
}

// ZAdd handles ZADD key score member [score member ...].
func ZAdd(ctx *ExecContext, args [][]byte) Result {
	if len(args) < 4 || (len(args)-2)%2 != 0 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	key := string(args[1])
	pairs := args[2:]

	scores := make([]float64, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		f, err := parseFloat(pairs[i])
		if err != nil || math.IsNaN(f) {
			return reply(errFrame(store.ErrNaNScore))
		}
		scores[i/2] = f
	}

	var added int
	var typeErr error
	ctx.Keyspace.Entry(key, func() store.Value {
		return store.NewSortedSetValue()
	}, func(e *store.Entry) {
		zv, ok := e.Value.(*store.SortedSetValue)
		if !ok {
			typeErr = store.ErrWrongType
			return
		}
		for i := 0; i < len(pairs); i += 2 {
			if zv.Add(string(pairs[i+1]), scores[i/2]) {
				added++
			}
		}
	})
	if typeErr != nil {
		return reply(errFrame(typeErr))
	}
	return mutation(resp.IntFrame(int64(added)), canonicalArray("ZADD", args[1:]...))
}

// ZScore handles ZSCORE key member.
func ZScore(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 3 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	zv, err := zsetAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if zv == nil {
		return reply(resp.NullFrame())
	}
	score, ok := zv.Score(string(args[2]))
	if !ok {
		return reply(resp.NullFrame())
	}
	return reply(resp.BulkString(formatScore(score)))
}

// ZCard handles ZCARD key.
func ZCard(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	zv, err := zsetAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if zv == nil {
		return reply(resp.IntFrame(0))
	}
	return reply(resp.IntFrame(int64(zv.Len())))
}

// ZRange handles ZRANGE key start stop [WITHSCORES]. Ranges are taken over
// the member-ordered iteration (§3: SortedSet is "ordered by member"), not
// score order.
func ZRange(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 4 && len(args) != 5 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	withScores := false
	if len(args) == 5 {
		if !strings.EqualFold(string(args[4]), "WITHSCORES") {
			return reply(resp.ErrFrame("ERR syntax error"))
		}
		withScores = true
	}
	zv, err := zsetAt(ctx, string(args[1]))
	if err != nil {
		return reply(errFrame(err))
	}
	if zv == nil {
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

	all := zv.Iter()
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
		elems = append(elems, resp.BulkString(all[i].Member))
		if withScores {
			elems = append(elems, resp.BulkString(formatScore(all[i].Score)))
		}
	}
	return reply(resp.ArrayFrame(elems))
}
