package btree

import (
	"fmt"

	"github.com/relstore/bplusdb/dbms/pager"
)

// Leaf is a page-backed leaf node: a sorted array of (key, locator)
// entries plus a pointer to the right sibling leaf.
type Leaf struct {
	buf pager.Page
}

// Init resets the leaf to the empty state.
func (l *Leaf) Init() {
	l.buf = pager.Page{}
	putInt32(&l.buf, leafOffKeyCount, 0)
	putInt32(&l.buf, leafOffNextNode, pager.InvalidPageID)
}

// Read loads the leaf's page verbatim.
func (l *Leaf) Read(pid int32, pf *pager.File) error {
	if err := pf.Read(pid, &l.buf); err != nil {
		return fmt.Errorf("btree: leaf read %d: %w", pid, err)
	}
	return nil
}

// Write stores the leaf's page verbatim.
func (l *Leaf) Write(pid int32, pf *pager.File) error {
	if err := pf.Write(pid, &l.buf); err != nil {
		return fmt.Errorf("btree: leaf write %d: %w", pid, err)
	}
	return nil
}

// KeyCount returns the number of entries currently stored.
func (l *Leaf) KeyCount() int {
	return int(getInt32(&l.buf, leafOffKeyCount))
}

func (l *Leaf) setKeyCount(n int) {
	putInt32(&l.buf, leafOffKeyCount, int32(n))
}

// NextNode returns the page id of the right sibling leaf, or
// pager.InvalidPageID at the right edge.
func (l *Leaf) NextNode() int32 {
	return getInt32(&l.buf, leafOffNextNode)
}

// SetNextNode sets the right-sibling pointer.
func (l *Leaf) SetNextNode(pid int32) {
	putInt32(&l.buf, leafOffNextNode, pid)
}

func entryOffset(eid int) int {
	return leafOffEntries + eid*leafEntrySize
}

// ReadEntry returns the (key, locator) pair at eid.
func (l *Leaf) ReadEntry(eid int) (key int32, loc RecordLocator, err error) {
	if eid < 0 || eid >= l.KeyCount() {
		return 0, RecordLocator{}, fmt.Errorf("btree: leaf entry %d out of range", eid)
	}
	off := entryOffset(eid)
	loc.PageID = getInt32(&l.buf, off)
	loc.SlotID = getInt32(&l.buf, off+4)
	key = getInt32(&l.buf, off+8)
	return key, loc, nil
}

func (l *Leaf) writeEntry(eid int, key int32, loc RecordLocator) {
	off := entryOffset(eid)
	putInt32(&l.buf, off, loc.PageID)
	putInt32(&l.buf, off+4, loc.SlotID)
	putInt32(&l.buf, off+8, key)
}

// Locate returns the smallest eid such that entries[eid].key >= searchKey,
// via binary search. found is false when every key in the leaf is
// strictly smaller than searchKey, in which case eid == KeyCount().
func (l *Leaf) Locate(searchKey int32) (eid int, found bool) {
	n := l.KeyCount()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		k, _ := l.entryKey(mid)
		if k < searchKey {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < n
}

// Insert places (key, loc) in sorted position, ties breaking to the
// right. Returns ErrFull if the leaf has no room.
func (l *Leaf) Insert(key int32, loc RecordLocator) error {
	n := l.KeyCount()
	if n >= LeafCapacity {
		return ErrFull
	}
	// First position whose key is strictly greater than key, so the new
	// entry lands after any entries with an equal key.
	eid, hi := 0, n
	for eid < hi {
		mid := (eid + hi) / 2
		if k, _ := l.entryKey(mid); k <= key {
			eid = mid + 1
		} else {
			hi = mid
		}
	}
	for i := n; i > eid; i-- {
		k, lc, _ := l.ReadEntry(i - 1)
		l.writeEntry(i, k, lc)
	}
	l.writeEntry(eid, key, loc)
	l.setKeyCount(n + 1)
	return nil
}

// InsertAndSplit requires the leaf to be full and sibling to be empty. It
// moves the right half of entries (plus the new one, wherever it sorts)
// into sibling and returns the copy-up separator key: the first key that
// ends up in sibling.
func (l *Leaf) InsertAndSplit(key int32, loc RecordLocator, sibling *Leaf) (siblingKey int32, err error) {
	if l.KeyCount() != LeafCapacity {
		return 0, precondition("InsertAndSplit called on a non-full leaf")
	}
	if sibling.KeyCount() != 0 {
		return 0, precondition("InsertAndSplit called with a non-empty sibling")
	}

	half := LeafCapacity / 2
	siblingKey, _ = l.entryKey(half)

	// Move entries[half:LeafCapacity) into sibling.
	for i := half; i < LeafCapacity; i++ {
		k, lc, _ := l.ReadEntry(i)
		sibling.writeEntry(i-half, k, lc)
	}
	sibling.setKeyCount(LeafCapacity - half)
	l.setKeyCount(half)

	sibling.SetNextNode(l.NextNode())
	// l.nextNode is patched by the caller once the sibling's page id is known.

	if key >= siblingKey {
		if err := sibling.Insert(key, loc); err != nil {
			return 0, err
		}
	} else {
		if err := l.Insert(key, loc); err != nil {
			return 0, err
		}
	}
	return siblingKey, nil
}

func (l *Leaf) entryKey(eid int) (int32, error) {
	off := entryOffset(eid)
	return getInt32(&l.buf, off+8), nil
}
