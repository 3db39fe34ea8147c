package server

import (
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/akashmaji946/rudis/internal/command"
	"github.com/akashmaji946/rudis/internal/resp"
)

// Compile-time check that *Server satisfies command.PersistenceHost, which
// serve passes as each connection's Persistence.
var _ command.PersistenceHost = (*Server)(nil)

// sink is the live-connection Sink (§9): logging stays on, so every
// mutating command this connection executes is appended to the AOF.
type sink struct{}

func (sink) IsLogging() bool { return true }

// serve is the per-connection read/decode/dispatch/write loop (C5): it
// owns one ExecContext for the connection's lifetime so SELECT can persist
// the active database across commands (§4.3/§9's db_num generalization).
// Grounded on the teacher's handleOneConnection (cmd/main.go), replacing
// its global *common.AppState swap-per-command with a per-connection
// ExecContext whose Keyspace field this loop re-points after every SELECT.
func (s *Server) serve(conn net.Conn) {
	connID := uuid.New()
	s.logger.Info("[conn=%s] accepted %s", connID, conn.RemoteAddr())
	defer func() {
		s.untrackConn(conn)
		conn.Close()
		s.logger.Info("[conn=%s] closed", connID)
	}()

	ctx := &command.ExecContext{
		Keyspace:    s.Keyspaces[0],
		Clock:       s.Clock,
		Config:      s.Config,
		Persistence: s,
		Sink:        sink{},
		RequestShutdown: func(save bool) {
			go s.Shutdown(save)
		},
	}

	w := resp.NewWriter(conn)
	parser := resp.NewParser()
	readBuf := make([]byte, 4096)

	for {
		frame, err := parser.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("[conn=%s] protocol error: %v", connID, err)
				w.Write(resp.ErrFrame("ERR Protocol error"))
				w.Flush()
			}
			return
		}
		if frame == nil {
			n, err := conn.Read(readBuf)
			if err != nil {
				if err != io.EOF {
					s.logger.Warn("[conn=%s] read error: %v", connID, err)
				}
				return
			}
			parser.Feed(readBuf[:n])
			continue
		}

		argv, err := command.FrameToArgv(*frame)
		if err != nil {
			w.Write(resp.ErrFramef("ERR %v", err))
			w.Flush()
			continue
		}

		// The connection's active database may have drifted via a prior
		// SELECT; re-point Keyspace before dispatch so this command and its
		// propagation target the right database.
		if ctx.DBIndex >= 0 && ctx.DBIndex < len(s.Keyspaces) {
			ctx.Keyspace = s.Keyspaces[ctx.DBIndex]
		}

		res, ok := command.Dispatch(ctx, argv)
		if !ok {
			name := "unknown"
			if len(argv) > 0 {
				name = string(argv[0])
			}
			w.Write(resp.ErrFramef("ERR unknown command %q", name))
			w.Flush()
			continue
		}

		if res.Mutated {
			s.RDB.MarkDirty(1)
			if s.Config.AppendOnly() {
				s.AOF.Append(ctx.DBIndex, res.Canonical)
			}
		}

		if err := w.Write(res.Reply); err != nil {
			s.logger.Warn("[conn=%s] write error: %v", connID, err)
			return
		}
		if err := w.Flush(); err != nil {
			s.logger.Warn("[conn=%s] flush error: %v", connID, err)
			return
		}

		if ctx.CloseAfterReply {
			return
		}
	}
}
