package store

import (
	"hash/fnv"
	"sync"
)

// shardCount is the number of independent locks the keyspace is split
// across (§4.3: "sharded concurrent hash map"). A power of two keeps the
// shard-selection mask cheap.
const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Keyspace is the concurrent mapping from binary key to Entry described by
// §4.3 (the Dict). There is no global lock: every operation hashes its key
// to one of shardCount shards and takes only that shard's RWMutex, matching
// the teacher's per-database RWMutex idiom but split across shards instead
// of one lock per whole database. One Keyspace holds one logical database;
// the server keeps one per configured database.
type Keyspace struct {
	shards [shardCount]*shard
	clock  *Clock
}

// NewKeyspace returns an empty keyspace backed by clock for expiry checks.
func NewKeyspace(clock *Clock) *Keyspace {
	ks := &Keyspace{clock: clock}
	for i := range ks.shards {
		ks.shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return ks
}

func (ks *Keyspace) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return ks.shards[h.Sum32()%shardCount]
}

// expired reports whether e has a PEXPIREAT in the past relative to now.
func expired(e *Entry, now int64) bool {
	return e.HasExpire && e.ExpireAt <= now
}

// Get returns the live value stored at key, lazily evicting it first if its
// expiration has passed (§3: "lazy expiry... commands check expiration on
// access before reading/writing").
func (ks *Keyspace) Get(key string) (Value, bool) {
	s := ks.shardFor(key)
	now := ks.clock.NowMillis()

	s.mu.RLock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.RUnlock()
		return nil, false
	}
	isExpired := expired(e, now)
	s.mu.RUnlock()
	if !isExpired {
		return e.Value, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[key]; ok && expired(e, now) {
		delete(s.entries, key)
	}
	return nil, false
}

// GetEntry returns the full live Entry (value plus expiration metadata).
func (ks *Keyspace) GetEntry(key string) (*Entry, bool) {
	s := ks.shardFor(key)
	now := ks.clock.NowMillis()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if expired(e, now) {
		delete(s.entries, key)
		return nil, false
	}
	return e, true
}

// ContainsKey reports whether key holds a live (unexpired) entry.
func (ks *Keyspace) ContainsKey(key string) bool {
	_, ok := ks.GetEntry(key)
	return ok
}

// Insert stores value under key with no expiration, replacing any existing
// entry (and its expiration) outright.
func (ks *Keyspace) Insert(key string, value Value) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &Entry{Value: value}
}

// InsertWithExpire stores value under key with an absolute expiration.
func (ks *Keyspace) InsertWithExpire(key string, value Value, expireAt int64) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &Entry{Value: value, ExpireAt: expireAt, HasExpire: true}
}

// Entry runs fn against the live entry at key, creating it via ifAbsent if
// missing (or expired). fn may mutate the Value or
// Entry fields in place; the shard lock is held for the duration of fn.
func (ks *Keyspace) Entry(key string, ifAbsent func() Value, fn func(e *Entry)) {
	s := ks.shardFor(key)
	now := ks.clock.NowMillis()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || expired(e, now) {
		e = &Entry{Value: ifAbsent()}
		s.entries[key] = e
	}
	fn(e)
}

// Remove deletes key, reporting whether a live entry was present.
func (ks *Keyspace) Remove(key string) bool {
	s := ks.shardFor(key)
	now := ks.clock.NowMillis()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	return !expired(e, now)
}

// ExpireAt sets key's expiration to an absolute unix-millisecond timestamp,
// reporting whether key was present to receive it.
func (ks *Keyspace) ExpireAt(key string, ts int64) bool {
	s := ks.shardFor(key)
	now := ks.clock.NowMillis()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || expired(e, now) {
		if ok {
			delete(s.entries, key)
		}
		return false
	}
	e.ExpireAt = ts
	e.HasExpire = true
	return true
}

// Persist removes key's expiration, reporting whether it held one.
func (ks *Keyspace) Persist(key string) bool {
	s := ks.shardFor(key)
	now := ks.clock.NowMillis()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || expired(e, now) {
		return false
	}
	if !e.HasExpire {
		return false
	}
	e.HasExpire = false
	e.ExpireAt = 0
	return true
}

// Rename moves the entry at src to dst, overwriting dst, and reports
// ErrNoSuchKey if src is absent or expired (§4.3).
func (ks *Keyspace) Rename(src, dst string) error {
	now := ks.clock.NowMillis()

	if src == dst {
		ss := ks.shardFor(src)
		ss.mu.Lock()
		defer ss.mu.Unlock()
		e, ok := ss.entries[src]
		if !ok || expired(e, now) {
			return ErrNoSuchKey
		}
		return nil
	}

	ss, ds := ks.shardFor(src), ks.shardFor(dst)
	// Lock in a fixed global order (by shard pointer identity via address
	// comparison is not stable across runs, so order by the shard slice
	// index instead) to avoid lock-order deadlocks between concurrent
	// renames that cross shards in opposite directions.
	first, second := ss, ds
	if shardIndex(ks, ss) > shardIndex(ks, ds) {
		first, second = ds, ss
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	if second != first {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	e, ok := ss.entries[src]
	if !ok || expired(e, now) {
		return ErrNoSuchKey
	}
	delete(ss.entries, src)
	ds.entries[dst] = e
	return nil
}

func shardIndex(ks *Keyspace, s *shard) int {
	for i, sh := range ks.shards {
		if sh == s {
			return i
		}
	}
	return -1
}

// Len returns the number of entries across all shards, including any not
// yet lazily evicted (an upper bound on the live key count).
func (ks *Keyspace) Len() int {
	n := 0
	for _, s := range ks.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Flush clears every shard.
func (ks *Keyspace) Flush() {
	for _, s := range ks.shards {
		s.mu.Lock()
		s.entries = make(map[string]*Entry)
		s.mu.Unlock()
	}
}

// KeyEntry pairs a key with its entry, used by Iter.
type KeyEntry struct {
	Key   string
	Entry *Entry
}

// Iter returns a weakly consistent snapshot of all live entries, shard by
// shard (§4.3: "iteration may skip or double-visit entries mutated
// concurrently" — we avoid double-visits by copying each shard under its
// own lock, but an entry inserted after its shard's copy and removed before
// a later shard's copy is still possible across the whole scan).
func (ks *Keyspace) Iter() []KeyEntry {
	now := ks.clock.NowMillis()
	out := make([]KeyEntry, 0, 64)
	for _, s := range ks.shards {
		s.mu.RLock()
		for k, e := range s.entries {
			if expired(e, now) {
				continue
			}
			out = append(out, KeyEntry{Key: k, Entry: e})
		}
		s.mu.RUnlock()
	}
	return out
}
