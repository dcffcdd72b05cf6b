package btree

import (
	"path/filepath"
	"testing"

	"github.com/relstore/bplusdb/dbms/pager"
)

func locAt(pid, sid int32) RecordLocator { return RecordLocator{PageID: pid, SlotID: sid} }

func TestLeafInsertSortedOrder(t *testing.T) {
	var l Leaf
	l.Init()

	keys := []int32{5, 1, 3, 2, 4}
	for _, k := range keys {
		if err := l.Insert(k, locAt(k, 0)); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	if l.KeyCount() != len(keys) {
		t.Fatalf("key count = %d, want %d", l.KeyCount(), len(keys))
	}
	for i := 0; i < l.KeyCount(); i++ {
		k, _, err := l.ReadEntry(i)
		if err != nil {
			t.Fatalf("read entry %d: %v", i, err)
		}
		if k != int32(i+1) {
			t.Fatalf("entry %d = %d, want %d", i, k, i+1)
		}
	}
}

func TestLeafInsertTiesBreakRight(t *testing.T) {
	var l Leaf
	l.Init()
	l.Insert(3, locAt(1, 0))
	l.Insert(3, locAt(2, 0))

	_, loc0, _ := l.ReadEntry(0)
	_, loc1, _ := l.ReadEntry(1)
	if loc0.PageID != 1 || loc1.PageID != 2 {
		t.Fatalf("tie-break order wrong: %v, %v", loc0, loc1)
	}
}

func TestLeafFullReturnsErrFull(t *testing.T) {
	var l Leaf
	l.Init()
	for i := 0; i < LeafCapacity; i++ {
		if err := l.Insert(int32(i), locAt(int32(i), 0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := l.Insert(int32(LeafCapacity), locAt(0, 0)); err != ErrFull {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestLeafInsertAndSplit(t *testing.T) {
	var l Leaf
	l.Init()
	for i := 0; i < LeafCapacity; i++ {
		if err := l.Insert(int32(i), locAt(int32(i), 0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	l.SetNextNode(99)

	var sibling Leaf
	sibling.Init()
	newKey := int32(LeafCapacity) // sorts to the right edge
	siblingKey, err := l.InsertAndSplit(newKey, locAt(newKey, 0), &sibling)
	if err != nil {
		t.Fatalf("insertAndSplit: %v", err)
	}

	half := LeafCapacity / 2
	if l.KeyCount() != half {
		t.Fatalf("left keyCount = %d, want %d", l.KeyCount(), half)
	}
	// one extra entry landed in the sibling (the new key sorts rightmost)
	if sibling.KeyCount() != LeafCapacity-half+1 {
		t.Fatalf("sibling keyCount = %d, want %d", sibling.KeyCount(), LeafCapacity-half+1)
	}
	if firstSiblingKey, _, _ := sibling.ReadEntry(0); firstSiblingKey != siblingKey {
		t.Fatalf("siblingKey %d does not match sibling's first entry %d", siblingKey, firstSiblingKey)
	}
	if sibling.NextNode() != 99 {
		t.Fatalf("sibling did not inherit original nextNode")
	}

	// Invariant from spec §8: non-root leaves hold between ceil(L/2) and L
	// entries after a split.
	ceilHalf := (LeafCapacity + 1) / 2
	if l.KeyCount() < ceilHalf || l.KeyCount() > LeafCapacity {
		t.Fatalf("left leaf keyCount %d out of [%d, %d]", l.KeyCount(), ceilHalf, LeafCapacity)
	}
}

func TestLeafInsertAndSplitRejectsNonFull(t *testing.T) {
	var l Leaf
	l.Init()
	l.Insert(1, locAt(1, 0))
	var sibling Leaf
	sibling.Init()
	if _, err := l.InsertAndSplit(2, locAt(2, 0), &sibling); err == nil {
		t.Fatalf("expected precondition error on non-full leaf")
	}
}

func TestLeafRoundTripThroughPagedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	pf, err := pager.Open(path, pager.ModeWrite, 8)
	if err != nil {
		t.Fatalf("pager open: %v", err)
	}
	defer pf.Close()

	var l Leaf
	l.Init()
	for i := 0; i < 10; i++ {
		l.Insert(int32(i), locAt(int32(i), int32(i*2)))
	}
	l.SetNextNode(7)

	pid := pf.EndPid()
	if err := l.Write(pid, pf); err != nil {
		t.Fatalf("write: %v", err)
	}

	var l2 Leaf
	if err := l2.Read(pid, pf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if l2.buf != l.buf {
		t.Fatalf("leaf page did not round-trip byte-for-byte")
	}
}

func TestLeafLocateNotFoundPositionsAtEnd(t *testing.T) {
	var l Leaf
	l.Init()
	for _, k := range []int32{1, 3, 5} {
		l.Insert(k, locAt(k, 0))
	}
	eid, found := l.Locate(100)
	if found {
		t.Fatalf("expected not-found for searchKey beyond all entries")
	}
	if eid != l.KeyCount() {
		t.Fatalf("eid = %d, want KeyCount() = %d", eid, l.KeyCount())
	}
}
