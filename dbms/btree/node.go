// Package btree implements the disk-backed B+-tree index: fixed-capacity
// leaf and non-leaf pages, recursive insert with split propagation, and a
// cursor-driven forward scan. Keys are 32-bit signed integers; values are
// opaque record locators pointing into a recordfile.RecordFile.
package btree

import (
	"encoding/binary"

	"github.com/relstore/bplusdb/dbms/pager"
	"github.com/relstore/bplusdb/dbms/recordfile"
)

// RecordLocator is the (page id, slot id) pair a leaf entry points at. It
// is the same shape as recordfile.RecordId — a leaf entry locates a tuple
// in the heap, nothing more.
type RecordLocator = recordfile.RecordId

// Leaf page layout: [keyCount int32][nextNode int32][entry * LeafCapacity]
// where entry = [locator.PageID int32][locator.SlotID int32][key int32].
const (
	leafHeaderSize = 8
	leafEntrySize  = 12

	leafOffKeyCount = 0
	leafOffNextNode = 4
	leafOffEntries  = leafHeaderSize
)

// LeafCapacity is L: the maximum number of entries a leaf page can hold.
const LeafCapacity = (pager.PageSize - leafHeaderSize) / leafEntrySize

// Non-leaf page layout: [keyCount int32][pageEntries int32 * (K+1)][keyEntries int32 * K].
const (
	nonLeafHeaderSize = 4

	nonLeafOffKeyCount = 0
)

// NonLeafCapacity is K: the maximum number of separator keys a non-leaf
// page can hold (it therefore has K+1 child pointers). One key plus one
// child pointer occupy 8 bytes per slot.
const NonLeafCapacity = (pager.PageSize - 8) / 8

func init() {
	if LeafCapacity < 2 {
		panic("btree: configured page size yields a leaf capacity below 2")
	}
	if NonLeafCapacity < 2 {
		panic("btree: configured page size yields a non-leaf capacity below 2")
	}
}

func nonLeafOffPageEntries() int { return nonLeafHeaderSize }
func nonLeafOffKeyEntries() int  { return nonLeafHeaderSize + 4*(NonLeafCapacity+1) }

func getInt32(p *pager.Page, off int) int32 {
	return int32(binary.LittleEndian.Uint32(p[off : off+4]))
}

func putInt32(p *pager.Page, off int, v int32) {
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(v))
}
