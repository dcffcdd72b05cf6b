// Package recordfile implements the heap table the B+-tree index points
// into: an append-only, slotted-page file of (key, value) tuples addressed
// by a RecordId. Records are never updated or deleted in place.
package recordfile

import (
	"encoding/binary"
	"fmt"

	"github.com/relstore/bplusdb/dbms/pager"
)

// RecordId is an opaque (page id, slot id) pair, ordered lexicographically.
// A PageID of -1 denotes "no such record / end of chain".
type RecordId struct {
	PageID int32
	SlotID int32
}

// InvalidRecordId is the sentinel for "no such record".
var InvalidRecordId = RecordId{PageID: pager.InvalidPageID, SlotID: 0}

// Less reports whether r sorts strictly before o, lexicographically on
// (PageID, SlotID).
func (r RecordId) Less(o RecordId) bool {
	if r.PageID != o.PageID {
		return r.PageID < o.PageID
	}
	return r.SlotID < o.SlotID
}

// ─── slotted page layout ─────────────────────────────────────────────────
//
//	[0:2]   slotCount   uint16
//	[2:4]   cellStart   uint16  (offset of the top of the cell area; shrinks
//	                             toward slotPtrs as cells are appended)
//	[4:...] slotPtrs    uint16 * slotCount, one per slot, grows downward
//	...free space...
//	cell area, grows upward from the bottom of the page:
//	  [key int32][valueLen uint32][value valueLen bytes]

const (
	offSlotCount = 0
	offCellStart = 2
	offSlotPtrs  = 4
	slotPtrSize  = 2
)

func initHeapPage(p *pager.Page) {
	for i := range p {
		p[i] = 0
	}
	putSlotCount(p, 0)
	putCellStart(p, uint16(pager.PageSize))
}

func slotCount(p *pager.Page) int {
	return int(binary.LittleEndian.Uint16(p[offSlotCount : offSlotCount+2]))
}

func putSlotCount(p *pager.Page, n int) {
	binary.LittleEndian.PutUint16(p[offSlotCount:offSlotCount+2], uint16(n))
}

func cellStart(p *pager.Page) uint16 {
	return binary.LittleEndian.Uint16(p[offCellStart : offCellStart+2])
}

func putCellStart(p *pager.Page, v uint16) {
	binary.LittleEndian.PutUint16(p[offCellStart:offCellStart+2], v)
}

func slotPtr(p *pager.Page, i int) uint16 {
	o := offSlotPtrs + i*slotPtrSize
	return binary.LittleEndian.Uint16(p[o : o+2])
}

func putSlotPtr(p *pager.Page, i int, off uint16) {
	o := offSlotPtrs + i*slotPtrSize
	binary.LittleEndian.PutUint16(p[o:o+2], off)
}

func cellSize(value []byte) int {
	return 4 + 4 + len(value) // key + valueLen + value
}

func freeSpace(p *pager.Page, n int) int {
	return int(cellStart(p)) - (offSlotPtrs + n*slotPtrSize)
}

func writeCell(p *pager.Page, off int, key int32, value []byte) {
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(key))
	binary.LittleEndian.PutUint32(p[off+4:off+8], uint32(len(value)))
	copy(p[off+8:off+8+len(value)], value)
}

func readCell(p *pager.Page, off int) (key int32, value []byte) {
	key = int32(binary.LittleEndian.Uint32(p[off : off+4]))
	vlen := int(binary.LittleEndian.Uint32(p[off+4 : off+8]))
	value = make([]byte, vlen)
	copy(value, p[off+8:off+8+vlen])
	return
}

// ─── RecordFile ───────────────────────────────────────────────────────────

// RecordFile is the heap table. It owns one paged file exclusively.
type RecordFile struct {
	pf      *pager.File
	tailPid int32
	tailBuf pager.Page
}

// Open opens, or in pager.ModeWrite creates, the heap file at path.
func Open(path string, mode pager.Mode, cacheSize int) (*RecordFile, error) {
	pf, err := pager.Open(path, mode, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("recordfile: open: %w", err)
	}
	rf := &RecordFile{pf: pf}

	if pf.EndPid() == 0 {
		var p pager.Page
		initHeapPage(&p)
		if err := pf.Write(0, &p); err != nil {
			return nil, fmt.Errorf("recordfile: init first page: %w", err)
		}
		rf.tailPid = 0
		rf.tailBuf = p
		return rf, nil
	}

	rf.tailPid = pf.EndPid() - 1
	if err := pf.Read(rf.tailPid, &rf.tailBuf); err != nil {
		return nil, fmt.Errorf("recordfile: read tail page: %w", err)
	}
	return rf, nil
}

// Close flushes nothing extra (every write is already durable) and closes
// the underlying paged file.
func (rf *RecordFile) Close() error {
	return rf.pf.Close()
}

// Append stores (key, value) as a new record, allocating a fresh tail page
// when the current one has no room.
func (rf *RecordFile) Append(key int32, value []byte) (RecordId, error) {
	need := cellSize(value)
	n := slotCount(&rf.tailBuf)
	if freeSpace(&rf.tailBuf, n) < need+slotPtrSize {
		if err := rf.flushTail(); err != nil {
			return RecordId{}, err
		}
		var p pager.Page
		initHeapPage(&p)
		rf.tailPid = rf.pf.EndPid()
		rf.tailBuf = p
		n = 0
	}

	top := int(cellStart(&rf.tailBuf)) - need
	writeCell(&rf.tailBuf, top, key, value)
	putCellStart(&rf.tailBuf, uint16(top))
	putSlotPtr(&rf.tailBuf, n, uint16(top))
	putSlotCount(&rf.tailBuf, n+1)

	if err := rf.flushTail(); err != nil {
		return RecordId{}, err
	}
	return RecordId{PageID: rf.tailPid, SlotID: int32(n)}, nil
}

func (rf *RecordFile) flushTail() error {
	if err := rf.pf.Write(rf.tailPid, &rf.tailBuf); err != nil {
		return fmt.Errorf("recordfile: flush tail page %d: %w", rf.tailPid, err)
	}
	return nil
}

// Read returns the (key, value) tuple at rid.
func (rf *RecordFile) Read(rid RecordId) (key int32, value []byte, err error) {
	var p *pager.Page
	if rid.PageID == rf.tailPid {
		p = &rf.tailBuf
	} else {
		var buf pager.Page
		if err := rf.pf.Read(rid.PageID, &buf); err != nil {
			return 0, nil, fmt.Errorf("recordfile: read page %d: %w", rid.PageID, err)
		}
		p = &buf
	}
	n := slotCount(p)
	if rid.SlotID < 0 || int(rid.SlotID) >= n {
		return 0, nil, fmt.Errorf("recordfile: slot %d out of range (page has %d slots)", rid.SlotID, n)
	}
	key, value = readCell(p, int(slotPtr(p, int(rid.SlotID))))
	return key, value, nil
}

// EndRid returns the record id one past the last appended record.
func (rf *RecordFile) EndRid() RecordId {
	return RecordId{PageID: rf.tailPid, SlotID: int32(slotCount(&rf.tailBuf))}
}

// Cursor drives a sequential scan over every record in the file, in
// (pageID, slotID) order.
type Cursor struct {
	rf   *RecordFile
	pid  int32
	slot int32
	n    int
	page pager.Page
}

// Scan returns a cursor positioned at the first record in the file.
func (rf *RecordFile) Scan() (*Cursor, error) {
	c := &Cursor{rf: rf, pid: 0, slot: 0}
	if err := c.loadPage(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cursor) loadPage() error {
	if c.pid == c.rf.tailPid {
		c.page = c.rf.tailBuf
	} else if err := c.rf.pf.Read(c.pid, &c.page); err != nil {
		return fmt.Errorf("recordfile: scan read page %d: %w", c.pid, err)
	}
	c.n = slotCount(&c.page)
	return nil
}

// Next advances to the next record and reports whether one was found.
func (c *Cursor) Next() (RecordId, int32, []byte, bool, error) {
	for {
		if int(c.slot) < c.n {
			rid := RecordId{PageID: c.pid, SlotID: c.slot}
			key, value := readCell(&c.page, int(slotPtr(&c.page, int(c.slot))))
			c.slot++
			return rid, key, value, true, nil
		}
		if c.pid >= c.rf.tailPid {
			return RecordId{}, 0, nil, false, nil
		}
		c.pid++
		c.slot = 0
		if err := c.loadPage(); err != nil {
			return RecordId{}, 0, nil, false, err
		}
	}
}
