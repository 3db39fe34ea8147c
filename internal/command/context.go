// Package command implements the command layer (C4): parsing argument
// vectors into handlers, executing them against the keyspace, and producing
// both a response Frame and the command's log-canonical propagation form.
//
// Dispatch is a map lookup to a plain function, not a method on an
// interface-per-command — the same "match, not virtual calls" shape the
// teacher's own internal/handlers package uses (map[string]Handler of free
// functions), just generalized to also carry the propagation decision.
package command

import (
	"sync/atomic"

	"github.com/akashmaji946/rudis/internal/config"
	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

// PersistenceHost is the subset of the server's persistence machinery that
// commands need to reach: synchronous/background snapshotting and
// background AOF rewrite (§4.6, §4.7). It is implemented by the server
// package and injected here so this package never imports aof/rdb directly
// and stays free of the cycle that would create (aof, in turn, executes
// replayed commands through this package's handlers).
type PersistenceHost interface {
	Save() error
	BGSave() error
	BGRewriteAOF() error
}

// Sink is the "fake client" abstraction of §9: a live client sink writes
// frames to its socket and allows propagation; the AOF replay sink discards
// frames and forces propagation off so replayed commands don't re-append
// themselves to the log they were read from.
type Sink interface {
	IsLogging() bool
}

// ExecContext is everything a handler needs to apply a command. One
// ExecContext exists per connection (or per AOF-replay "fake client").
type ExecContext struct {
	Keyspace    *store.Keyspace
	Clock       *store.Clock
	Config      *config.Config
	Persistence PersistenceHost
	Sink        Sink

	// Dirty is not read or updated by any handler, and the server leaves it
	// nil. The auto-save trigger (§4.7) uses rdb.State's own dirty counter,
	// which the connection loop increments for every mutating command.
	Dirty *atomic.Int64

	// DBIndex is this connection's currently selected database. SELECT
	// validates the requested index against Config.DBNum() and writes it
	// here; the connection loop reads it back after each dispatch to pick
	// which element of its []*store.Keyspace becomes Keyspace on the next
	// call (§9's db_num generalization — default db_num is 1, so DBIndex
	// stays 0 unless the config raises it).
	DBIndex int

	// RequestShutdown, when set, tells the connection loop to close this
	// connection after the reply is written and to begin server shutdown.
	// The bool argument is true for SHUTDOWN SAVE, false for NOSAVE.
	RequestShutdown func(save bool)

	// CloseAfterReply is set by QUIT/SHUTDOWN handlers to tell the
	// connection loop to close the connection once the reply is flushed.
	CloseAfterReply bool
}

// Result is what a handler produces: the reply frame to send to the client,
// whether the command mutated the keyspace, and (if so) the log-canonical
// RESP array to append to the AOF per the propagation rule of §4.4.
type Result struct {
	Reply     resp.Frame
	Mutated   bool
	Canonical resp.Frame
}

// reply is a convenience constructor for a non-mutating Result.
func reply(f resp.Frame) Result { return Result{Reply: f} }

// mutation is a convenience constructor for a Result that both replies and
// propagates canonical as the log-canonical form.
func mutation(f resp.Frame, canonical resp.Frame) Result {
	return Result{Reply: f, Mutated: true, Canonical: canonical}
}

// HandlerFunc executes one command's argument vector (args[0] is the
// command name) against ctx.
type HandlerFunc func(ctx *ExecContext, args [][]byte) Result
