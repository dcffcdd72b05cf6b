package main

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/relstore/bplusdb/dbms/btree"
	"github.com/relstore/bplusdb/dbms/btree/oracle"
	"github.com/relstore/bplusdb/dbms/pager"
	"github.com/relstore/bplusdb/dbms/recordfile"
)

// Engine is the common shape every storage backend in this benchmark is
// driven through: insert a key/value pair, point-get a key, and range-scan
// a closed interval. This mirrors the teacher's benchmark-competitor
// interface, generalized from int64 keys to this module's int32 keys and
// from an in-memory-only value to one backed by a real heap file where the
// engine needs one (the disk B+-tree).
type Engine interface {
	Insert(key int32, value []byte) error
	Get(key int32) ([]byte, bool, error)
	Range(start, end int32) (int, error) // returns the count of keys visited
	Close() error
}

// ─── disk B+-tree + heap file ──────────────────────────────────────────────

// DiskBTree fronts dbms/btree.Index with dbms/recordfile for values, the
// engine this repository's core is about.
type DiskBTree struct {
	idx *btree.Index
	rf  *recordfile.RecordFile
}

// OpenDiskBTree opens, creating them if absent, the index and heap files
// at the given base path. Existing files are reused as they are, not
// truncated.
func OpenDiskBTree(basePath string) (*DiskBTree, error) {
	rf, err := recordfile.Open(basePath+".tbl", pager.ModeWrite, 256)
	if err != nil {
		return nil, fmt.Errorf("bench: open heap: %w", err)
	}
	idx, err := btree.Open(basePath+".idx", pager.ModeWrite, 256)
	if err != nil {
		rf.Close()
		return nil, fmt.Errorf("bench: open index: %w", err)
	}
	return &DiskBTree{idx: idx, rf: rf}, nil
}

func (d *DiskBTree) Insert(key int32, value []byte) error {
	rid, err := d.rf.Append(key, value)
	if err != nil {
		return err
	}
	return d.idx.Insert(key, rid)
}

func (d *DiskBTree) Get(key int32) ([]byte, bool, error) {
	cur, err := d.idx.Locate(key)
	if err == btree.ErrEmptyTree {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if cur.AtEnd() {
		return nil, false, nil
	}
	gotKey, loc, err := d.idx.ReadForward(&cur)
	if err != nil {
		return nil, false, err
	}
	if gotKey != key {
		return nil, false, nil
	}
	_, value, err := d.rf.Read(loc)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (d *DiskBTree) Range(start, end int32) (int, error) {
	cur, err := d.idx.Locate(start)
	if err == btree.ErrEmptyTree {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count := 0
	for !cur.AtEnd() {
		key, _, err := d.idx.ReadForward(&cur)
		if err != nil {
			return count, err
		}
		if key > end {
			break
		}
		count++
	}
	return count, nil
}

func (d *DiskBTree) Close() error {
	err1 := d.idx.Close()
	err2 := d.rf.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// ─── in-memory oracle B+-tree ───────────────────────────────────────────────

// OracleEngine wraps dbms/btree/oracle as a memory-resident comparison arm;
// since the oracle has no value storage, values are kept alongside it in
// a plain map, mirroring how the teacher's in-memory engines store the
// value inline with the key.
type OracleEngine struct {
	tr     *oracle.Tree
	values map[int32][]byte
}

func OpenOracleEngine() *OracleEngine {
	return &OracleEngine{tr: oracle.New(64), values: make(map[int32][]byte)}
}

func (o *OracleEngine) Insert(key int32, value []byte) error {
	o.tr.Insert(key, btree.RecordLocator{PageID: key, SlotID: 0})
	o.values[key] = value
	return nil
}

func (o *OracleEngine) Get(key int32) ([]byte, bool, error) {
	if _, err := o.tr.Get(key); err != nil {
		return nil, false, nil
	}
	return o.values[key], true, nil
}

func (o *OracleEngine) Range(start, end int32) (int, error) {
	return len(o.tr.Range(start, end)), nil
}

func (o *OracleEngine) Close() error { return nil }

// ─── Pebble (LSM) ────────────────────────────────────────────────────────────

// PebbleEngine wraps Pebble behind Engine, carried over from the teacher's
// dbms/index/lsm.LSM with the key codec narrowed from int64 to this
// module's int32 keys.
type PebbleEngine struct {
	db *pebble.DB
}

func OpenPebbleEngine(dir string) (*PebbleEngine, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("bench: pebble open: %w", err)
	}
	return &PebbleEngine{db: db}, nil
}

func (p *PebbleEngine) Insert(key int32, value []byte) error {
	return p.db.Set(encodeKey(key), value, pebble.NoSync)
}

func (p *PebbleEngine) Get(key int32) ([]byte, bool, error) {
	val, closer, err := p.db.Get(encodeKey(key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bench: pebble get: %w", err)
	}
	out := make([]byte, len(val))
	copy(out, val)
	closer.Close()
	return out, true, nil
}

func (p *PebbleEngine) Range(start, end int32) (int, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: encodeKey(start),
		UpperBound: encodeKey(end + 1),
	})
	if err != nil {
		return 0, fmt.Errorf("bench: pebble range: %w", err)
	}
	defer iter.Close()
	count := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		count++
	}
	return count, nil
}

func (p *PebbleEngine) Close() error {
	return p.db.Close()
}

// encodeKey encodes an int32 as a big-endian 4-byte slice so lexicographic
// byte order matches numeric order for non-negative keys, the same trick
// the teacher's LSM wrapper uses for int64 keys. Negative keys encode as
// large unsigned values and sort after every non-negative key.
func encodeKey(k int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(k))
	return b
}
