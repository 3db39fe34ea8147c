package command

import (
	"sync/atomic"
	"testing"

	"github.com/akashmaji946/rudis/internal/config"
	"github.com/akashmaji946/rudis/internal/resp"
	"github.com/akashmaji946/rudis/internal/store"
)

type fakePersistence struct {
	saveCalled, bgSaveCalled, bgRewriteCalled bool
	err                                       error
}

func (p *fakePersistence) Save() error         { p.saveCalled = true; return p.err }
func (p *fakePersistence) BGSave() error       { p.bgSaveCalled = true; return p.err }
func (p *fakePersistence) BGRewriteAOF() error { p.bgRewriteCalled = true; return p.err }

type fakeSink struct{ logging bool }

func (s *fakeSink) IsLogging() bool { return s.logging }

func newTestContext() *ExecContext {
	var dirty atomic.Int64
	clock := store.NewClock()
	return &ExecContext{
		Keyspace:    store.NewKeyspace(clock),
		Clock:       clock,
		Config:      config.Default(),
		Persistence: &fakePersistence{},
		Sink:        &fakeSink{logging: true},
		Dirty:       &dirty,
	}
}

func argv(parts ...string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		out[i] = []byte(p)
	}
	return out
}

func TestDispatchUnknownCommand(t *testing.T) {
	ctx := newTestContext()
	_, ok := Dispatch(ctx, argv("NOSUCHCOMMAND"))
	if ok {
		t.Fatal("Dispatch should report ok=false for an unknown command")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := newTestContext()
	res, ok := Dispatch(ctx, argv("SET", "foo", "bar"))
	if !ok || !res.Mutated {
		t.Fatalf("SET result = %+v, ok=%v", res, ok)
	}
	if res.Reply.Kind != resp.Simple || res.Reply.Str != "OK" {
		t.Fatalf("SET reply = %#v", res.Reply)
	}

	res, ok = Dispatch(ctx, argv("GET", "foo"))
	if !ok || string(res.Reply.Bulk) != "bar" {
		t.Fatalf("GET reply = %#v", res.Reply)
	}
}

func TestSetNXOption(t *testing.T) {
	ctx := newTestContext()
	Dispatch(ctx, argv("SET", "foo", "bar"))
	res, _ := Dispatch(ctx, argv("SET", "foo", "baz", "NX"))
	if !res.Reply.IsNull() {
		t.Fatalf("SET NX on existing key should return Null, got %#v", res.Reply)
	}
	if res.Mutated {
		t.Fatal("failed NX should not be a mutation")
	}
}

func TestSetExpireAndTTL(t *testing.T) {
	ctx := newTestContext()
	res, _ := Dispatch(ctx, argv("SET", "foo", "bar", "PX", "100000"))
	if res.Canonical.Kind != resp.Array {
		t.Fatalf("expected canonical array, got %#v", res.Canonical)
	}
	res, _ = Dispatch(ctx, argv("TTL", "foo"))
	if res.Reply.Int <= 0 {
		t.Fatalf("TTL should be positive after SET PX, got %d", res.Reply.Int)
	}
}

func TestWrongTypeError(t *testing.T) {
	ctx := newTestContext()
	Dispatch(ctx, argv("SET", "foo", "bar"))
	res, _ := Dispatch(ctx, argv("LPUSH", "foo", "x"))
	if res.Reply.Kind != resp.Error || res.Mutated {
		t.Fatalf("LPUSH on a string key should fail WRONGTYPE without mutating, got %#v", res)
	}
}

func TestListPushPop(t *testing.T) {
	ctx := newTestContext()
	Dispatch(ctx, argv("LPUSH", "L", "a", "b", "c"))
	res, _ := Dispatch(ctx, argv("RPOP", "L"))
	if string(res.Reply.Bulk) != "a" {
		t.Fatalf("RPOP = %q, want a", res.Reply.Bulk)
	}
	res, _ = Dispatch(ctx, argv("LPOP", "L"))
	if string(res.Reply.Bulk) != "c" {
		t.Fatalf("LPOP = %q, want c", res.Reply.Bulk)
	}
	res, _ = Dispatch(ctx, argv("LPOP", "L"))
	if string(res.Reply.Bulk) != "b" {
		t.Fatalf("LPOP = %q, want b", res.Reply.Bulk)
	}
	res, _ = Dispatch(ctx, argv("LPOP", "L"))
	if !res.Reply.IsNull() {
		t.Fatalf("LPOP on empty list should be Null, got %#v", res.Reply)
	}
	res, _ = Dispatch(ctx, argv("EXISTS", "L"))
	if res.Reply.Int != 0 {
		t.Fatalf("EXISTS on an emptied list key should be 0, got %d", res.Reply.Int)
	}
}

func TestHashOperationsAndWrongType(t *testing.T) {
	ctx := newTestContext()
	Dispatch(ctx, argv("HSET", "h", "f1", "v1"))
	Dispatch(ctx, argv("HSET", "h", "f2", "v2"))

	res, _ := Dispatch(ctx, argv("HGET", "h", "f1"))
	if string(res.Reply.Bulk) != "v1" {
		t.Fatalf("HGET f1 = %q, want v1", res.Reply.Bulk)
	}
	res, _ = Dispatch(ctx, argv("HGET", "h", "missing"))
	if !res.Reply.IsNull() {
		t.Fatalf("HGET missing should be Null, got %#v", res.Reply)
	}
	res, _ = Dispatch(ctx, argv("SADD", "h", "x"))
	if res.Reply.Kind != resp.Error {
		t.Fatalf("SADD on a hash key should be WRONGTYPE, got %#v", res.Reply)
	}
}

func TestSetAddRemove(t *testing.T) {
	ctx := newTestContext()
	res, _ := Dispatch(ctx, argv("SADD", "S", "a"))
	if res.Reply.Int != 1 {
		t.Fatalf("SADD S a = %d, want 1", res.Reply.Int)
	}
	res, _ = Dispatch(ctx, argv("SADD", "S", "a", "b"))
	if res.Reply.Int != 1 {
		t.Fatalf("SADD S a b = %d, want 1 (only b new)", res.Reply.Int)
	}
	res, _ = Dispatch(ctx, argv("SREM", "S", "a"))
	if res.Reply.Int != 1 {
		t.Fatalf("SREM S a = %d, want 1", res.Reply.Int)
	}
	res, _ = Dispatch(ctx, argv("SREM", "S", "a"))
	if res.Reply.Int != 0 {
		t.Fatalf("second SREM S a = %d, want 0", res.Reply.Int)
	}
}

func TestDelOnExpiredKeyReturnsZero(t *testing.T) {
	ctx := newTestContext()
	Dispatch(ctx, argv("SET", "k", "v", "PX", "-1"))
	res, _ := Dispatch(ctx, argv("DEL", "k"))
	if res.Reply.Int != 0 {
		t.Fatalf("DEL on expired key = %d, want 0", res.Reply.Int)
	}
}

func TestRenameMissingSourceLeavesStateUnchanged(t *testing.T) {
	ctx := newTestContext()
	Dispatch(ctx, argv("SET", "dst", "untouched"))
	res, _ := Dispatch(ctx, argv("RENAME", "nope", "dst"))
	if res.Reply.Kind != resp.Error {
		t.Fatalf("RENAME from missing key should error, got %#v", res.Reply)
	}
	get, _ := Dispatch(ctx, argv("GET", "dst"))
	if string(get.Reply.Bulk) != "untouched" {
		t.Fatalf("dst should be unchanged, got %q", get.Reply.Bulk)
	}
}

func TestZAddAndRangeOrderedByMember(t *testing.T) {
	ctx := newTestContext()
	Dispatch(ctx, argv("ZADD", "Z", "1", "zeta", "100", "alpha"))
	res, _ := Dispatch(ctx, argv("ZRANGE", "Z", "0", "-1"))
	if len(res.Reply.Elems) != 2 {
		t.Fatalf("ZRANGE returned %d elems, want 2", len(res.Reply.Elems))
	}
	if string(res.Reply.Elems[0].Bulk) != "alpha" {
		t.Fatalf("ZRANGE[0] = %q, want alpha (member order)", res.Reply.Elems[0].Bulk)
	}
}

func TestConfigGetSetUnknownKey(t *testing.T) {
	ctx := newTestContext()
	res, _ := Dispatch(ctx, argv("CONFIG", "SET", "appendonly", "yes"))
	if res.Reply.Kind != resp.Simple {
		t.Fatalf("CONFIG SET reply = %#v", res.Reply)
	}
	res, _ = Dispatch(ctx, argv("CONFIG", "GET", "bogus-key"))
	if res.Reply.Kind != resp.Error {
		t.Fatalf("CONFIG GET on unknown key should error, got %#v", res.Reply)
	}
}

func TestShutdownInvokesCallback(t *testing.T) {
	ctx := newTestContext()
	var gotSave bool
	var called bool
	ctx.RequestShutdown = func(save bool) { called = true; gotSave = save }
	res, _ := Dispatch(ctx, argv("SHUTDOWN", "NOSAVE"))
	if !called || gotSave {
		t.Fatalf("SHUTDOWN NOSAVE should call RequestShutdown(false); called=%v gotSave=%v", called, gotSave)
	}
	if !ctx.CloseAfterReply {
		t.Fatal("SHUTDOWN should set CloseAfterReply")
	}
	_ = res
}
