// Package rdb implements the binary snapshot engine (C7): byte-exact
// encode/decode of the full keyspace per §4.7's wire format, synchronous
// and background save, and the auto-save trigger test.
package rdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/akashmaji946/rudis/internal/config"
	"github.com/akashmaji946/rudis/internal/store"
)

// Magic is the 9-byte file header (§4.7).
const Magic = "REDIS0006"

// Opcodes interleaved with entries in a database section.
const (
	opSelectDB  = 0xFE
	opExpireMS  = 0xFC
	opExpireSec = 0xFD
	opEOF       = 0xFF
)

// Type codes tagging each entry's value kind.
const (
	typeString    = 0
	typeList      = 1
	typeSet       = 2
	typeSortedSet = 3
	typeHash      = 4
)

// Encode serializes every live entry in ks under dbIndex into the §4.7
// binary format. Expired entries are skipped (the caller is expected to
// have a clock-aware Keyspace, so Iter already excludes them).
func Encode(ks *store.Keyspace, dbIndex int) []byte {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	writeSection(&buf, dbIndex, ks)
	buf.WriteByte(opEOF)
	return buf.Bytes()
}

// EncodeAll serializes every database in keyspaces (index i holds database
// i) as consecutive sections under one magic header and a single
// terminator, generalizing Encode to db_num databases (§9's Open Question
// (1): "snapshot/AOF loops iterate 0..db_num").
func EncodeAll(keyspaces []*store.Keyspace) []byte {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	for i, ks := range keyspaces {
		if ks == nil {
			continue
		}
		writeSection(&buf, i, ks)
	}
	buf.WriteByte(opEOF)
	return buf.Bytes()
}

func writeSection(buf *bytes.Buffer, dbIndex int, ks *store.Keyspace) {
	buf.WriteByte(opSelectDB)
	writeU32(buf, uint32(dbIndex))
	for _, ke := range ks.Iter() {
		writeEntry(buf, ke.Key, ke.Entry)
	}
}

func writeEntry(buf *bytes.Buffer, key string, e *store.Entry) {
	if e.Volatile() {
		buf.WriteByte(opExpireMS)
		writeU64(buf, uint64(e.ExpireAt))
	}

	switch v := e.Value.(type) {
	case *store.StringValue:
		buf.WriteByte(typeString)
		writeBytes(buf, []byte(key))
		writeBytes(buf, v.Data)
	case *store.ListValue:
		buf.WriteByte(typeList)
		writeBytes(buf, []byte(key))
		elems := v.Iter()
		writeU32(buf, uint32(len(elems)))
		for _, el := range elems {
			writeBytes(buf, el)
		}
	case *store.SetValue:
		buf.WriteByte(typeSet)
		writeBytes(buf, []byte(key))
		members := v.Members()
		writeU32(buf, uint32(len(members)))
		for _, m := range members {
			writeBytes(buf, m)
		}
	case *store.SortedSetValue:
		buf.WriteByte(typeSortedSet)
		writeBytes(buf, []byte(key))
		members := v.Iter()
		writeU32(buf, uint32(len(members)))
		for _, m := range members {
			writeBytes(buf, []byte(m.Member))
			writeF64(buf, m.Score)
		}
	case *store.HashValue:
		buf.WriteByte(typeHash)
		writeBytes(buf, []byte(key))
		fields := v.All()
		writeU32(buf, uint32(len(fields)))
		for _, f := range fields {
			writeBytes(buf, f.Name)
			writeBytes(buf, f.Value)
		}
	}
}

func writeU32(buf *bytes.Buffer, n uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, n uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	buf.Write(b[:])
}

func writeF64(buf *bytes.Buffer, f float64) {
	writeU64(buf, math.Float64bits(f))
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeU32(buf, uint32(len(b)))
	buf.Write(b)
}

// decoder walks a byte slice left to right, matching the teacher's own
// cursor-based parsing style (internal/resp.Parser does the same over a
// streaming buffer; here the whole file is already in memory).
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, fmt.Errorf("rdb: truncated file")
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) u32() (uint32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, fmt.Errorf("rdb: truncated u32")
	}
	v := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, fmt.Errorf("rdb: truncated u64")
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

func (d *decoder) f64() (float64, error) {
	bits, err := d.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	if d.pos+int(n) > len(d.buf) {
		return nil, fmt.Errorf("rdb: truncated string")
	}
	b := append([]byte(nil), d.buf[d.pos:d.pos+int(n)]...)
	d.pos += int(n)
	return b, nil
}

// DecodedEntry is one database-section entry yielded by Decode, carrying
// enough information for the caller to decide whether to skip it.
type DecodedEntry struct {
	DBIndex   int
	Key       string
	Value     store.Value
	ExpireAt  int64
	HasExpire bool
}

// Decode parses the §4.7 binary format, returning every entry whose
// expiration (if any) is still in the future relative to nowMillis. On a
// bad magic or a truncated/malformed section, it returns an error and no
// entries, matching the "verify magic" step of the Load contract.
func Decode(data []byte, nowMillis int64) ([]DecodedEntry, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("rdb: bad magic")
	}
	d := &decoder{buf: data, pos: len(Magic)}

	var out []DecodedEntry
	dbIndex := 0
	var pendingExpire int64
	haveExpire := false

	for {
		op, err := d.byte()
		if err != nil {
			return nil, fmt.Errorf("rdb: missing EOF terminator: %w", err)
		}
		switch op {
		case opEOF:
			return out, nil
		case opSelectDB:
			idx, err := d.u32()
			if err != nil {
				return nil, err
			}
			dbIndex = int(idx)
		case opExpireMS:
			ms, err := d.u64()
			if err != nil {
				return nil, err
			}
			pendingExpire = int64(ms)
			haveExpire = true
		case opExpireSec:
			secs, err := d.u32()
			if err != nil {
				return nil, err
			}
			pendingExpire = int64(secs) * 1000
			haveExpire = true
		default:
			entry, err := decodeValue(d, op)
			if err != nil {
				return nil, err
			}
			expireAt := pendingExpire
			hasExpire := haveExpire
			pendingExpire, haveExpire = 0, false

			if hasExpire && expireAt <= nowMillis {
				continue // already expired; dropped per the Load contract
			}
			out = append(out, DecodedEntry{
				DBIndex:   dbIndex,
				Key:       entry.key,
				Value:     entry.value,
				ExpireAt:  expireAt,
				HasExpire: hasExpire,
			})
		}
	}
}

type decodedValue struct {
	key   string
	value store.Value
}

func decodeValue(d *decoder, typeCode byte) (decodedValue, error) {
	keyBytes, err := d.bytes()
	if err != nil {
		return decodedValue{}, err
	}
	key := string(keyBytes)

	switch typeCode {
	case typeString:
		data, err := d.bytes()
		if err != nil {
			return decodedValue{}, err
		}
		return decodedValue{key: key, value: store.NewStringValue(data)}, nil

	case typeList:
		n, err := d.u32()
		if err != nil {
			return decodedValue{}, err
		}
		lv := store.NewListValue()
		for i := uint32(0); i < n; i++ {
			elem, err := d.bytes()
			if err != nil {
				return decodedValue{}, err
			}
			lv.PushBack(elem)
		}
		return decodedValue{key: key, value: lv}, nil

	case typeSet:
		n, err := d.u32()
		if err != nil {
			return decodedValue{}, err
		}
		sv := store.NewSetValue()
		for i := uint32(0); i < n; i++ {
			member, err := d.bytes()
			if err != nil {
				return decodedValue{}, err
			}
			sv.Add(member)
		}
		return decodedValue{key: key, value: sv}, nil

	case typeSortedSet:
		n, err := d.u32()
		if err != nil {
			return decodedValue{}, err
		}
		zv := store.NewSortedSetValue()
		for i := uint32(0); i < n; i++ {
			member, err := d.bytes()
			if err != nil {
				return decodedValue{}, err
			}
			score, err := d.f64()
			if err != nil {
				return decodedValue{}, err
			}
			zv.Add(string(member), score)
		}
		return decodedValue{key: key, value: zv}, nil

	case typeHash:
		n, err := d.u32()
		if err != nil {
			return decodedValue{}, err
		}
		hv := store.NewHashValue()
		for i := uint32(0); i < n; i++ {
			field, err := d.bytes()
			if err != nil {
				return decodedValue{}, err
			}
			value, err := d.bytes()
			if err != nil {
				return decodedValue{}, err
			}
			hv.Set(field, value)
		}
		return decodedValue{key: key, value: hv}, nil

	default:
		return decodedValue{}, fmt.Errorf("rdb: unknown type code %d", typeCode)
	}
}

// LoadInto decodes path and inserts every live entry into ks, skipping
// expired ones (§4.7's Load contract). A missing file is not an error.
func LoadInto(path string, ks *store.Keyspace, nowMillis int64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	entries, err := Decode(data, nowMillis)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.HasExpire {
			ks.InsertWithExpire(e.Key, e.Value, e.ExpireAt)
		} else {
			ks.Insert(e.Key, e.Value)
		}
	}
	return nil
}

// LoadAllInto decodes path and routes every live entry into
// keyspaces[entry.DBIndex], generalizing LoadInto to db_num databases. An
// entry whose DBIndex is out of range for keyspaces is dropped (the file
// was written by a server configured with more databases than this one).
func LoadAllInto(path string, keyspaces []*store.Keyspace, nowMillis int64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	entries, err := Decode(data, nowMillis)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.DBIndex < 0 || e.DBIndex >= len(keyspaces) || keyspaces[e.DBIndex] == nil {
			continue
		}
		ks := keyspaces[e.DBIndex]
		if e.HasExpire {
			ks.InsertWithExpire(e.Key, e.Value, e.ExpireAt)
		} else {
			ks.Insert(e.Key, e.Value)
		}
	}
	return nil
}

// saveResult is delivered on State.saveDone when a background save finishes.
type saveResult struct {
	err error
}

// State is the RDB singleton described by §3: last save timestamp, dirty
// counter, save-parameter list (read from config at trigger-test time), and
// an optional "child" handle for the in-flight background save.
type State struct {
	mu sync.Mutex

	path         string
	lastSaveTime int64
	dirty        int64

	saveActive bool
	saveDone   chan saveResult

	lastWriteStatus bool
}

// NewState returns an RDB state targeting path, with lastSaveTime seeded to
// nowMillis (as if a save had just completed, so the first auto-trigger
// test measures from server start).
func NewState(path string, nowMillis int64) *State {
	return &State{path: path, lastSaveTime: nowMillis, lastWriteStatus: true}
}

// MarkDirty increments the mutation counter the auto-save trigger tests.
func (s *State) MarkDirty(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty += n
}

// Dirty returns the mutation count since the last successful save.
func (s *State) Dirty() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// LastSaveTime returns the unix-millisecond timestamp of the last
// successful save.
func (s *State) LastSaveTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveTime
}

// LastWriteStatus reports whether the most recent save completed cleanly.
func (s *State) LastWriteStatus() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWriteStatus
}

// SaveActive reports whether a background save is currently running.
func (s *State) SaveActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveActive
}

// Save performs a synchronous save: encode, write to a temp file, fsync,
// atomically rename over the configured path (§4.7's Save contract).
func (s *State) Save(ks *store.Keyspace, dbIndex int, nowMillis int64) error {
	s.mu.Lock()
	path := s.path
	s.mu.Unlock()

	err := writeSnapshot(path, ks, dbIndex)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWriteStatus = err == nil
	if err == nil {
		s.lastSaveTime = nowMillis
		s.dirty = 0
	}
	return err
}

func writeSnapshot(path string, ks *store.Keyspace, dbIndex int) error {
	return writeSnapshotBytes(path, Encode(ks, dbIndex))
}

// SaveAll performs a synchronous save of every database in keyspaces,
// generalizing Save to db_num databases.
func (s *State) SaveAll(keyspaces []*store.Keyspace, nowMillis int64) error {
	s.mu.Lock()
	path := s.path
	s.mu.Unlock()

	err := writeSnapshotBytes(path, EncodeAll(keyspaces))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWriteStatus = err == nil
	if err == nil {
		s.lastSaveTime = nowMillis
		s.dirty = 0
	}
	return err
}

// ErrSaveInProgress is returned by BGSave when a background save is
// already running.
var ErrSaveInProgress = fmt.Errorf("ERR Background save already in progress")

// BGSave starts a background save in its own goroutine — this module's
// stand-in for the child-process fork §4.7 describes, since Go has no
// direct fork equivalent; the snapshot is taken synchronously via ks.Iter
// before the goroutine starts so it observes a single consistent instant,
// and mutations afterward are simply not part of this save (they'll be
// captured by the next one).
func (s *State) BGSave(ks *store.Keyspace, dbIndex int) error {
	s.mu.Lock()
	if s.saveActive {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	s.saveActive = true
	done := make(chan saveResult, 1)
	s.saveDone = done
	path := s.path
	s.mu.Unlock()

	data := Encode(ks, dbIndex)
	go func() {
		done <- saveResult{err: writeSnapshotBytes(path, data)}
	}()
	return nil
}

// BGSaveAll starts a background save of every database in keyspaces,
// generalizing BGSave to db_num databases.
func (s *State) BGSaveAll(keyspaces []*store.Keyspace) error {
	s.mu.Lock()
	if s.saveActive {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	s.saveActive = true
	done := make(chan saveResult, 1)
	s.saveDone = done
	path := s.path
	s.mu.Unlock()

	data := EncodeAll(keyspaces)
	go func() {
		done <- saveResult{err: writeSnapshotBytes(path, data)}
	}()
	return nil
}

func writeSnapshotBytes(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("rdb: create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("rdb: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("rdb: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rdb: rename into place: %w", err)
	}
	return nil
}

// PollSave non-blockingly checks whether a running background save has
// finished, reaping its result and updating lastSaveTime/dirty on success
// (§4.8 step 4's "non-blockingly probe completion").
func (s *State) PollSave(nowMillis int64) (finished bool, err error) {
	s.mu.Lock()
	done := s.saveDone
	s.mu.Unlock()
	if done == nil {
		return false, nil
	}

	select {
	case res := <-done:
		s.mu.Lock()
		s.saveActive = false
		s.saveDone = nil
		s.lastWriteStatus = res.err == nil
		if res.err == nil {
			s.lastSaveTime = nowMillis
			s.dirty = 0
		}
		s.mu.Unlock()
		return true, res.err
	default:
		return false, nil
	}
}

// ShouldAutoSave implements the auto-trigger test of §4.7: no save
// currently active, and some save-parameter rule's change threshold and
// time threshold are both met.
func (s *State) ShouldAutoSave(params []config.SaveParam, nowMillis int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveActive {
		return false
	}
	elapsedSeconds := (nowMillis - s.lastSaveTime) / 1000
	for _, p := range params {
		if s.dirty >= int64(p.Changes) && elapsedSeconds >= int64(p.Seconds) {
			return true
		}
	}
	return false
}
