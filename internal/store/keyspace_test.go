package store

import "testing"

func TestKeyspaceInsertGet(t *testing.T) {
	ks := NewKeyspace(NewClock())
	ks.Insert("k", NewStringValue([]byte("v")))

	v, ok := ks.Get("k")
	if !ok {
		t.Fatal("Get(k) should find the inserted value")
	}
	sv, ok := v.(*StringValue)
	if !ok || string(sv.Data) != "v" {
		t.Fatalf("Get(k) = %#v", v)
	}

	if _, ok := ks.Get("missing"); ok {
		t.Fatal("Get(missing) should report false")
	}
}

func TestKeyspaceExpiry(t *testing.T) {
	clock := NewClock()
	ks := NewKeyspace(clock)
	ks.InsertWithExpire("k", NewStringValue([]byte("v")), clock.NowMillis()-1)

	if _, ok := ks.Get("k"); ok {
		t.Fatal("Get should not return an already-expired entry")
	}
	if ks.ContainsKey("k") {
		t.Fatal("ContainsKey should lazily evict the expired entry")
	}
	if ks.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after lazy eviction", ks.Len())
	}
}

func TestKeyspaceExpireAtAndPersist(t *testing.T) {
	clock := NewClock()
	ks := NewKeyspace(clock)
	ks.Insert("k", NewStringValue([]byte("v")))

	if !ks.ExpireAt("k", clock.NowMillis()+100000) {
		t.Fatal("ExpireAt on existing key should report true")
	}
	if ks.ExpireAt("missing", clock.NowMillis()+100000) {
		t.Fatal("ExpireAt on missing key should report false")
	}

	e, ok := ks.GetEntry("k")
	if !ok || !e.Volatile() {
		t.Fatal("k should carry an expiration after ExpireAt")
	}

	if !ks.Persist("k") {
		t.Fatal("Persist on a volatile key should report true")
	}
	if ks.Persist("k") {
		t.Fatal("second Persist should report false (no expiration left)")
	}
	e, _ = ks.GetEntry("k")
	if e.Volatile() {
		t.Fatal("k should not be volatile after Persist")
	}
}

func TestKeyspaceRemove(t *testing.T) {
	ks := NewKeyspace(NewClock())
	ks.Insert("k", NewStringValue([]byte("v")))

	if !ks.Remove("k") {
		t.Fatal("Remove(k) should report true")
	}
	if ks.Remove("k") {
		t.Fatal("second Remove(k) should report false")
	}
}

func TestKeyspaceRename(t *testing.T) {
	ks := NewKeyspace(NewClock())
	ks.Insert("src", NewStringValue([]byte("v")))

	if err := ks.Rename("src", "dst"); err != nil {
		t.Fatalf("Rename returned %v", err)
	}
	if ks.ContainsKey("src") {
		t.Fatal("src should no longer exist after Rename")
	}
	v, ok := ks.Get("dst")
	if !ok || string(v.(*StringValue).Data) != "v" {
		t.Fatalf("dst should hold the renamed value, got %#v, %v", v, ok)
	}
}

func TestKeyspaceRenameMissingSource(t *testing.T) {
	ks := NewKeyspace(NewClock())
	if err := ks.Rename("nope", "dst"); err != ErrNoSuchKey {
		t.Fatalf("Rename(missing) = %v, want ErrNoSuchKey", err)
	}
}

func TestKeyspaceRenameOverwritesDestination(t *testing.T) {
	ks := NewKeyspace(NewClock())
	ks.Insert("src", NewStringValue([]byte("new")))
	ks.Insert("dst", NewStringValue([]byte("old")))

	if err := ks.Rename("src", "dst"); err != nil {
		t.Fatalf("Rename returned %v", err)
	}
	v, _ := ks.Get("dst")
	if string(v.(*StringValue).Data) != "new" {
		t.Fatalf("dst = %q, want overwritten to \"new\"", v.(*StringValue).Data)
	}
}

func TestKeyspaceEntryCreatesIfAbsent(t *testing.T) {
	ks := NewKeyspace(NewClock())
	var sawNew bool
	ks.Entry("k", func() Value {
		sawNew = true
		return NewStringValue(nil)
	}, func(e *Entry) {
		e.Value.(*StringValue).Append([]byte("hi"))
	})
	if !sawNew {
		t.Fatal("Entry should call ifAbsent for a missing key")
	}
	v, ok := ks.Get("k")
	if !ok || string(v.(*StringValue).Data) != "hi" {
		t.Fatalf("Get(k) = %#v, %v", v, ok)
	}
}

func TestKeyspaceFlush(t *testing.T) {
	ks := NewKeyspace(NewClock())
	ks.Insert("a", NewStringValue(nil))
	ks.Insert("b", NewStringValue(nil))
	ks.Flush()
	if ks.Len() != 0 {
		t.Fatalf("Len() = %d after Flush, want 0", ks.Len())
	}
}

func TestKeyspaceIterSkipsExpired(t *testing.T) {
	clock := NewClock()
	ks := NewKeyspace(clock)
	ks.Insert("live", NewStringValue(nil))
	ks.InsertWithExpire("dead", NewStringValue(nil), clock.NowMillis()-1)

	entries := ks.Iter()
	if len(entries) != 1 || entries[0].Key != "live" {
		t.Fatalf("Iter() = %+v, want only \"live\"", entries)
	}
}
