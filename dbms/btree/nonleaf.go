package btree

import (
	"fmt"

	"github.com/relstore/bplusdb/dbms/pager"
)

// NonLeaf is a page-backed internal node: keyCount separator keys and
// keyCount+1 child page ids.
type NonLeaf struct {
	buf pager.Page
}

// Init resets the non-leaf to the empty state.
func (n *NonLeaf) Init() {
	n.buf = pager.Page{}
	putInt32(&n.buf, nonLeafOffKeyCount, 0)
}

// Read loads the non-leaf's page verbatim.
func (n *NonLeaf) Read(pid int32, pf *pager.File) error {
	if err := pf.Read(pid, &n.buf); err != nil {
		return fmt.Errorf("btree: non-leaf read %d: %w", pid, err)
	}
	return nil
}

// Write stores the non-leaf's page verbatim.
func (n *NonLeaf) Write(pid int32, pf *pager.File) error {
	if err := pf.Write(pid, &n.buf); err != nil {
		return fmt.Errorf("btree: non-leaf write %d: %w", pid, err)
	}
	return nil
}

// KeyCount returns the number of separator keys currently stored.
func (n *NonLeaf) KeyCount() int {
	return int(getInt32(&n.buf, nonLeafOffKeyCount))
}

func (n *NonLeaf) setKeyCount(c int) {
	putInt32(&n.buf, nonLeafOffKeyCount, int32(c))
}

func (n *NonLeaf) keyOffset(i int) int {
	return nonLeafOffKeyEntries() + i*4
}

func (n *NonLeaf) pageOffset(i int) int {
	return nonLeafOffPageEntries() + i*4
}

// KeyAt returns the separator key at position i.
func (n *NonLeaf) KeyAt(i int) int32 {
	return getInt32(&n.buf, n.keyOffset(i))
}

func (n *NonLeaf) setKeyAt(i int, k int32) {
	putInt32(&n.buf, n.keyOffset(i), k)
}

// ChildAt returns the child page id at position i (0..KeyCount()).
func (n *NonLeaf) ChildAt(i int) int32 {
	return getInt32(&n.buf, n.pageOffset(i))
}

func (n *NonLeaf) setChildAt(i int, pid int32) {
	putInt32(&n.buf, n.pageOffset(i), pid)
}

// Locate returns the smallest eid such that keyEntries[eid] >= searchKey;
// found is false when no such key exists.
func (n *NonLeaf) Locate(searchKey int32) (eid int, found bool) {
	c := n.KeyCount()
	lo, hi := 0, c
	for lo < hi {
		mid := (lo + hi) / 2
		if n.KeyAt(mid) < searchKey {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < c
}

// LocateChildPtr returns the child page id to descend into for searchKey.
// Per the spec's corrected semantics, descent always resolves to a child —
// when no separator key exceeds searchKey, the rightmost child is
// returned rather than an error.
func (n *NonLeaf) LocateChildPtr(searchKey int32) int32 {
	// Smallest i with keyEntries[i] > searchKey; KeyCount() when none.
	lo, hi := 0, n.KeyCount()
	for lo < hi {
		mid := (lo + hi) / 2
		if n.KeyAt(mid) <= searchKey {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return n.ChildAt(lo)
}

// Insert places (key, pid) so that pid becomes the new right-hand child of
// key, shifting both arrays right of the insertion point. Returns ErrFull
// if the node has no room.
func (n *NonLeaf) Insert(key int32, pid int32) error {
	c := n.KeyCount()
	if c >= NonLeafCapacity {
		return ErrFull
	}
	eid, found := n.Locate(key)
	if !found {
		eid = c
	}
	for i := c; i > eid; i-- {
		n.setKeyAt(i, n.KeyAt(i-1))
		n.setChildAt(i+1, n.ChildAt(i))
	}
	n.setKeyAt(eid, key)
	n.setChildAt(eid+1, pid)
	n.setKeyCount(c + 1)
	return nil
}

// InsertAndSplit requires the node to be full and sibling to be empty. The
// separator at the midpoint is moved up (removed from both resulting
// nodes) and returned to the caller for promotion into the parent.
func (n *NonLeaf) InsertAndSplit(key int32, pid int32, sibling *NonLeaf) (midKey int32, err error) {
	if n.KeyCount() != NonLeafCapacity {
		return 0, precondition("InsertAndSplit called on a non-full non-leaf")
	}
	if sibling.KeyCount() != 0 {
		return 0, precondition("InsertAndSplit called with a non-empty sibling")
	}

	half := NonLeafCapacity / 2
	midKey = n.KeyAt(half)

	// Sibling takes exactly the keys/children strictly right of the
	// midpoint; midKey itself is removed from both sides (move-up).
	m := NonLeafCapacity - (half + 1)
	for i := 0; i < m; i++ {
		sibling.setKeyAt(i, n.KeyAt(half+1+i))
	}
	for i := 0; i <= m; i++ {
		sibling.setChildAt(i, n.ChildAt(half+1+i))
	}
	sibling.setKeyCount(m)
	n.setKeyCount(half)

	if key >= midKey {
		err = sibling.Insert(key, pid)
	} else {
		err = n.Insert(key, pid)
	}
	if err != nil {
		return 0, err
	}
	return midKey, nil
}

// InitializeRoot is only valid on an empty node; it produces a non-leaf
// with exactly one separator, used when the root splits.
func (n *NonLeaf) InitializeRoot(leftPid int32, key int32, rightPid int32) error {
	if n.KeyCount() != 0 {
		return precondition("InitializeRoot called on a non-empty non-leaf")
	}
	n.setChildAt(0, leftPid)
	n.setKeyAt(0, key)
	n.setChildAt(1, rightPid)
	n.setKeyCount(1)
	return nil
}
