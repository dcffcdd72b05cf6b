package btree

import (
	"fmt"

	"github.com/relstore/bplusdb/dbms/pager"
)

// Offsets within page 0 of the fields the index itself writes: rootPid,
// treeHeight, and the page size the tree was created with.
const (
	metaOffRootPid     = 0
	metaOffTreeHeight  = 4
	metaOffPageSize    = 8
	metaPageID     int32 = 0
)

// Index is the disk-backed B+-tree index.
type Index struct {
	pf         *pager.File
	rootPid    int32
	treeHeight int
}

// Open opens, or in pager.ModeWrite creates, the index file at path. A
// freshly created file starts with an empty tree (rootPid = -1,
// treeHeight = 0).
func Open(path string, mode pager.Mode, cacheSize int) (*Index, error) {
	pf, err := pager.Open(path, mode, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("btree: open: %w", err)
	}
	idx := &Index{pf: pf}

	if pf.EndPid() == 0 {
		idx.rootPid = pager.InvalidPageID
		idx.treeHeight = 0
		var meta pager.Page
		putInt32(&meta, metaOffRootPid, idx.rootPid)
		putInt32(&meta, metaOffTreeHeight, int32(idx.treeHeight))
		putInt32(&meta, metaOffPageSize, int32(pager.PageSize))
		if err := pf.Write(metaPageID, &meta); err != nil {
			return nil, fmt.Errorf("btree: write initial metadata: %w", err)
		}
		return idx, nil
	}

	var meta pager.Page
	if err := pf.Read(metaPageID, &meta); err != nil {
		return nil, fmt.Errorf("btree: read metadata: %w", err)
	}
	idx.rootPid = getInt32(&meta, metaOffRootPid)
	idx.treeHeight = int(getInt32(&meta, metaOffTreeHeight))
	if onDisk := getInt32(&meta, metaOffPageSize); onDisk != int32(pager.PageSize) {
		return nil, fmt.Errorf("btree: page size mismatch: file was created with %d, configured for %d", onDisk, pager.PageSize)
	}
	return idx, nil
}

// Close persists (rootPid, treeHeight) to page 0, then closes the
// underlying file. Closing an already-closed index is an error: the
// metadata write to the closed pager.File fails and that error is returned.
func (idx *Index) Close() error {
	var meta pager.Page
	putInt32(&meta, metaOffRootPid, idx.rootPid)
	putInt32(&meta, metaOffTreeHeight, int32(idx.treeHeight))
	putInt32(&meta, metaOffPageSize, int32(pager.PageSize))
	if err := idx.pf.Write(metaPageID, &meta); err != nil {
		return fmt.Errorf("btree: persist metadata on close: %w", err)
	}
	return idx.pf.Close()
}

// promoted is the "please install this separator in the parent" signal a
// split propagates upward, in place of the source's mutually-passed
// out-parameters.
type promoted struct {
	key int32
	pid int32
}

func (idx *Index) allocatePage() int32 {
	return idx.pf.EndPid()
}

// Insert adds (key, locator) to the tree, growing the root when the
// recursive descent reports a split all the way to the top.
func (idx *Index) Insert(key int32, locator RecordLocator) error {
	if idx.treeHeight == 0 {
		var leaf Leaf
		leaf.Init()
		if err := leaf.Insert(key, locator); err != nil {
			return fmt.Errorf("btree: insert into fresh leaf: %w", err)
		}
		pid := idx.allocatePage()
		if err := leaf.Write(pid, idx.pf); err != nil {
			return err
		}
		idx.rootPid = pid
		idx.treeHeight = 1
		return nil
	}

	p, err := idx.insertRec(key, locator, idx.rootPid, idx.treeHeight)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}

	var newRoot NonLeaf
	newRoot.Init()
	if err := newRoot.InitializeRoot(idx.rootPid, p.key, p.pid); err != nil {
		return err
	}
	newRootPid := idx.allocatePage()
	if err := newRoot.Write(newRootPid, idx.pf); err != nil {
		return err
	}
	idx.rootPid = newRootPid
	idx.treeHeight++
	return nil
}

func (idx *Index) insertRec(key int32, locator RecordLocator, pid int32, heightRemaining int) (*promoted, error) {
	if heightRemaining == 1 {
		return idx.insertLeaf(key, locator, pid)
	}
	return idx.insertInternal(key, locator, pid, heightRemaining)
}

func (idx *Index) insertLeaf(key int32, locator RecordLocator, pid int32) (*promoted, error) {
	var leaf Leaf
	if err := leaf.Read(pid, idx.pf); err != nil {
		return nil, err
	}

	if err := leaf.Insert(key, locator); err == nil {
		if err := leaf.Write(pid, idx.pf); err != nil {
			return nil, err
		}
		return nil, nil
	} else if err != ErrFull {
		return nil, err
	}

	var sibling Leaf
	sibling.Init()
	siblingKey, err := leaf.InsertAndSplit(key, locator, &sibling)
	if err != nil {
		return nil, err
	}
	siblingPid := idx.allocatePage()
	// Sibling identity before write: finalize contents, allocate the page
	// id, write the sibling, patch the original's nextNode, write the
	// original. Inverting this order can leak a partially-linked chain.
	if err := sibling.Write(siblingPid, idx.pf); err != nil {
		return nil, err
	}
	leaf.SetNextNode(siblingPid)
	if err := leaf.Write(pid, idx.pf); err != nil {
		return nil, err
	}
	return &promoted{key: siblingKey, pid: siblingPid}, nil
}

func (idx *Index) insertInternal(key int32, locator RecordLocator, pid int32, heightRemaining int) (*promoted, error) {
	var inner NonLeaf
	if err := inner.Read(pid, idx.pf); err != nil {
		return nil, err
	}

	childPid := inner.LocateChildPtr(key)
	childPromoted, err := idx.insertRec(key, locator, childPid, heightRemaining-1)
	if err != nil {
		return nil, err
	}
	if childPromoted == nil {
		return nil, nil
	}

	if err := inner.Insert(childPromoted.key, childPromoted.pid); err == nil {
		if err := inner.Write(pid, idx.pf); err != nil {
			return nil, err
		}
		return nil, nil
	} else if err != ErrFull {
		return nil, err
	}

	var sibling NonLeaf
	sibling.Init()
	midKey, err := inner.InsertAndSplit(childPromoted.key, childPromoted.pid, &sibling)
	if err != nil {
		return nil, err
	}
	siblingPid := idx.allocatePage()
	if err := sibling.Write(siblingPid, idx.pf); err != nil {
		return nil, err
	}
	if err := inner.Write(pid, idx.pf); err != nil {
		return nil, err
	}
	return &promoted{key: midKey, pid: siblingPid}, nil
}

// Cursor is a (leaf page id, entry index) forward-scan position.
// pid == pager.InvalidPageID signals end-of-scan.
type Cursor struct {
	pid int32
	eid int
}

// Locate descends from the root for treeHeight-1 levels, then positions a
// cursor at the smallest key >= searchKey in the leaf it lands on. When
// that leaf holds no such key, the cursor starts at the right sibling's
// first entry, or is at end-of-scan if there is no right sibling. On an
// empty tree it returns ErrEmptyTree.
func (idx *Index) Locate(searchKey int32) (Cursor, error) {
	if idx.treeHeight == 0 {
		return Cursor{}, ErrEmptyTree
	}

	pid := idx.rootPid
	for level := idx.treeHeight; level > 1; level-- {
		var inner NonLeaf
		if err := inner.Read(pid, idx.pf); err != nil {
			return Cursor{}, err
		}
		pid = inner.LocateChildPtr(searchKey)
	}

	var leaf Leaf
	if err := leaf.Read(pid, idx.pf); err != nil {
		return Cursor{}, err
	}
	eid, found := leaf.Locate(searchKey)
	if !found {
		// Every key in this leaf is below searchKey: continue at the first
		// entry of the right sibling, or end-of-scan at the right edge.
		return Cursor{pid: leaf.NextNode(), eid: 0}, nil
	}
	return Cursor{pid: pid, eid: eid}, nil
}

// ReadForward reads the entry the cursor currently points at and advances
// it in place, following leaf links at the right edge. Reading past the
// end (pid == pager.InvalidPageID) is an error.
func (idx *Index) ReadForward(cur *Cursor) (key int32, locator RecordLocator, err error) {
	if cur.pid == pager.InvalidPageID {
		return 0, RecordLocator{}, fmt.Errorf("btree: read forward past end of scan")
	}

	var leaf Leaf
	if err := leaf.Read(cur.pid, idx.pf); err != nil {
		return 0, RecordLocator{}, err
	}
	key, locator, err = leaf.ReadEntry(cur.eid)
	if err != nil {
		return 0, RecordLocator{}, err
	}

	if cur.eid+1 < leaf.KeyCount() {
		cur.eid++
	} else {
		cur.pid = leaf.NextNode()
		cur.eid = 0
	}
	return key, locator, nil
}

// AtEnd reports whether the cursor has reached end-of-scan.
func (c Cursor) AtEnd() bool {
	return c.pid == pager.InvalidPageID
}

// TreeHeight returns the current number of levels (0 for an empty tree, 1
// when the root is a leaf).
func (idx *Index) TreeHeight() int { return idx.treeHeight }

// RootPid returns the page id of the current root, or
// pager.InvalidPageID if the tree is empty.
func (idx *Index) RootPid() int32 { return idx.rootPid }
