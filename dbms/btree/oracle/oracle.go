// Package oracle implements a pure in-memory B+-tree over the same
// (int32 key) -> locator shape as dbms/btree, used as a cross-check
// oracle in differential tests and as a memory-resident comparison arm in
// the benchmark harness.
//
// Because this tree exists to differential-test dbms/btree's own split
// logic, it is deliberately not a port of any single competitor
// implementation: it follows the same insert-then-split-on-return
// discipline as dbms/btree's insertRec (copy-up on a leaf split, move-up
// on a non-leaf split — see _examples/original_source/Bruinbase/BTreeNode.cc),
// restated for pointer-linked in-memory nodes instead of fixed-size
// disk pages.
package oracle

import (
	"errors"
	"slices"

	"github.com/relstore/bplusdb/dbms/btree"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("oracle: key not found")

type node struct {
	isLeaf   bool
	keys     []int32
	locators []btree.RecordLocator // populated only when isLeaf
	children []*node               // populated only when !isLeaf
	next     *node                 // right-sibling leaf chain
}

// Tree is an in-memory B+-tree with minimum degree t: every node other
// than the root holds between t-1 and 2t-1 keys.
type Tree struct {
	t    int
	root *node
}

// New returns an empty tree with the given minimum degree.
func New(t int) *Tree {
	if t < 2 {
		t = 2
	}
	return &Tree{t: t, root: &node{isLeaf: true}}
}

func (tr *Tree) maxKeys() int { return 2*tr.t - 1 }

// Get returns the locator stored for key, or ErrNotFound.
func (tr *Tree) Get(key int32) (btree.RecordLocator, error) {
	leaf := tr.leafFor(key)
	i, found := slices.BinarySearch(leaf.keys, key)
	if !found {
		return btree.RecordLocator{}, ErrNotFound
	}
	return leaf.locators[i], nil
}

func (tr *Tree) leafFor(key int32) *node {
	n := tr.root
	for !n.isLeaf {
		n = n.children[childIndex(n, key)]
	}
	return n
}

// childIndex picks the child to descend into for key: the last separator
// <= key routes right, so an equal separator and a search for the same
// key both land in the child to its right — matching dbms/btree's
// leftmost-vs-rightmost tie-break for duplicate keys.
func childIndex(n *node, key int32) int {
	i, found := slices.BinarySearch(n.keys, key)
	if found {
		i++
	}
	return i
}

// Insert adds or overwrites the locator stored for key.
func (tr *Tree) Insert(key int32, loc btree.RecordLocator) {
	promotedKey, sibling, split := tr.insertRec(tr.root, key, loc)
	if !split {
		return
	}
	tr.root = &node{children: []*node{tr.root, sibling}, keys: []int32{promotedKey}}
}

// insertRec descends to the leaf holding key, inserts, and on the way
// back up installs any promoted separator in the parent, splitting the
// parent in turn if that overflows it. A non-split return carries no
// promoted key or sibling.
func (tr *Tree) insertRec(n *node, key int32, loc btree.RecordLocator) (promotedKey int32, sibling *node, split bool) {
	if n.isLeaf {
		return tr.insertLeaf(n, key, loc)
	}

	i := childIndex(n, key)
	childKey, childSibling, childSplit := tr.insertRec(n.children[i], key, loc)
	if !childSplit {
		return 0, nil, false
	}

	n.keys = slices.Insert(n.keys, i, childKey)
	n.children = slices.Insert(n.children, i+1, childSibling)
	if len(n.keys) <= tr.maxKeys() {
		return 0, nil, false
	}
	return splitNonLeaf(n)
}

func (tr *Tree) insertLeaf(n *node, key int32, loc btree.RecordLocator) (int32, *node, bool) {
	i, found := slices.BinarySearch(n.keys, key)
	if found {
		n.locators[i] = loc
		return 0, nil, false
	}
	n.keys = slices.Insert(n.keys, i, key)
	n.locators = slices.Insert(n.locators, i, loc)
	if len(n.keys) <= tr.maxKeys() {
		return 0, nil, false
	}
	return splitLeaf(n)
}

// splitLeaf implements the copy-up discipline: the new sibling's first
// key stays in the sibling but is also copied up to the parent as the
// separator, and the leaf chain is relinked before either half is
// returned to the caller.
func splitLeaf(n *node) (int32, *node, bool) {
	mid := len(n.keys) / 2
	sib := &node{
		isLeaf:   true,
		keys:     append([]int32{}, n.keys[mid:]...),
		locators: append([]btree.RecordLocator{}, n.locators[mid:]...),
		next:     n.next,
	}
	n.keys = n.keys[:mid]
	n.locators = n.locators[:mid]
	n.next = sib
	return sib.keys[0], sib, true
}

// splitNonLeaf implements the move-up discipline: the middle key is
// removed from both halves and promoted to the parent instead of being
// duplicated into the sibling.
func splitNonLeaf(n *node) (int32, *node, bool) {
	mid := len(n.keys) / 2
	promotedKey := n.keys[mid]
	sib := &node{
		keys:     append([]int32{}, n.keys[mid+1:]...),
		children: append([]*node{}, n.children[mid+1:]...),
	}
	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]
	return promotedKey, sib, true
}

// Entry is one (key, locator) pair yielded by Range.
type Entry struct {
	Key     int32
	Locator btree.RecordLocator
}

// Range returns every entry with key in [start, end], in ascending order.
func (tr *Tree) Range(start, end int32) []Entry {
	var out []Entry
	leaf := tr.leafFor(start)
	i := 0
	for leaf != nil {
		for i < len(leaf.keys) {
			k := leaf.keys[i]
			if k > end {
				return out
			}
			if k >= start {
				out = append(out, Entry{Key: k, Locator: leaf.locators[i]})
			}
			i++
		}
		leaf = leaf.next
		i = 0
	}
	return out
}
