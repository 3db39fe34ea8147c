package command

import (
	"strings"

	"github.com/akashmaji946/rudis/internal/resp"
)

// Save handles SAVE: a synchronous snapshot (§4.7).
func Save(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 1 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	if err := ctx.Persistence.Save(); err != nil {
		return reply(resp.ErrFramef("ERR %v", err))
	}
	return reply(resp.OK())
}

// BGSave handles BGSAVE: a background snapshot (§4.7).
func BGSave(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 1 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	if err := ctx.Persistence.BGSave(); err != nil {
		return reply(resp.ErrFramef("ERR %v", err))
	}
	return reply(resp.SimpleFrame("Background saving started"))
}

// BGRewriteAOF handles BGREWRITEAOF: a background AOF rewrite (§4.6).
func BGRewriteAOF(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 1 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	if err := ctx.Persistence.BGRewriteAOF(); err != nil {
		return reply(resp.ErrFramef("ERR %v", err))
	}
	return reply(resp.SimpleFrame("Background append only file rewriting started"))
}

// Shutdown handles SHUTDOWN [SAVE|NOSAVE] (§4.9, §7's Open Question (2)).
func Shutdown(ctx *ExecContext, args [][]byte) Result {
	save := true
	if len(args) == 2 {
		switch strings.ToUpper(string(args[1])) {
		case "SAVE":
			save = true
		case "NOSAVE":
			save = false
		default:
			return reply(resp.ErrFrame("ERR syntax error"))
		}
	} else if len(args) != 1 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	if ctx.RequestShutdown != nil {
		ctx.RequestShutdown(save)
	}
	ctx.CloseAfterReply = true
	return reply(resp.OK())
}

// Config handles CONFIG GET|SET|RESETSTAT|REWRITE (§6).
func Config(ctx *ExecContext, args [][]byte) Result {
	if len(args) < 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	switch strings.ToUpper(string(args[1])) {
	case "GET":
		if len(args) != 3 {
			return reply(resp.ErrFrame("ERR syntax error"))
		}
		v, err := ctx.Config.Get(string(args[2]))
		if err != nil {
			return reply(resp.ErrFrame(err.Error()))
		}
		return reply(resp.ArrayFrame([]resp.Frame{resp.BulkFrame(args[2]), resp.BulkString(v)}))
	case "SET":
		if len(args) != 4 {
			return reply(resp.ErrFrame("ERR syntax error"))
		}
		if err := ctx.Config.Set(string(args[2]), string(args[3])); err != nil {
			return reply(resp.ErrFrame(err.Error()))
		}
		return reply(resp.OK())
	case "RESETSTAT":
		return reply(resp.OK())
	case "REWRITE":
		return reply(resp.OK())
	default:
		return reply(resp.ErrFrame("ERR syntax error"))
	}
}
