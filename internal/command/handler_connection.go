package command

import "github.com/akashmaji946/rudis/internal/resp"

// Ping handles PING [message].
func Ping(ctx *ExecContext, args [][]byte) Result {
	switch len(args) {
	case 1:
		return reply(resp.SimpleFrame("PONG"))
	case 2:
		return reply(resp.BulkFrame(args[1]))
	default:
		return reply(resp.ErrFrame("ERR syntax error"))
	}
}

// Echo handles ECHO message.
func Echo(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	return reply(resp.BulkFrame(args[1]))
}

// Quit handles QUIT: replies OK and asks the connection loop to close (§4.5).
func Quit(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 1 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	ctx.CloseAfterReply = true
	return reply(resp.OK())
}

// Select handles SELECT index: validates index < db_num and switches the
// connection's active database for every command dispatched after this one
// (§4.3's Open Question (1) resolution, see SPEC_FULL.md — default db_num
// is 1, so index 0 is the only valid choice out of the box).
func Select(ctx *ExecContext, args [][]byte) Result {
	if len(args) != 2 {
		return reply(resp.ErrFrame("ERR syntax error"))
	}
	idx, err := parseInt(args[1])
	if err != nil || idx < 0 || uint(idx) >= ctx.Config.DBNum() {
		return reply(resp.ErrFrame("ERR invalid db index"))
	}
	ctx.DBIndex = int(idx)
	return reply(resp.OK())
}
