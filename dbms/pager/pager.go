// Package pager implements the fixed-size paged file that backs both the
// B+-tree index and the heap record file: page read/write by id, and
// append-at-end allocation, fronted by a bounded admission cache of
// decoded pages.
package pager

import (
	"fmt"
	"os"

	"github.com/dgraph-io/ristretto/v2"
)

// PageSize is the fixed size, in bytes, of every page in a paged file.
// Page 0 is reserved for whatever metadata the owning component wants to
// keep there (the B+-tree keeps rootPid/treeHeight/pageSize; the record
// file does not use page 0 specially).
const PageSize = 4096

// InvalidPageID is the sentinel for "no such page" (an unset child pointer,
// an absent right sibling, an empty tree's root, and so on).
const InvalidPageID int32 = -1

// Page is one raw page-sized buffer.
type Page [PageSize]byte

// Mode selects how File.Open treats a missing file.
type Mode int

const (
	// ModeRead fails if the file does not already exist.
	ModeRead Mode = iota
	// ModeWrite creates the file if it does not already exist.
	ModeWrite
)

// File is a fixed-size paged file fronted by a bounded admission cache of
// decoded pages. It owns exactly one *os.File; per the concurrency model,
// a File is never shared between two callers.
type File struct {
	f         *os.File
	cache     *ristretto.Cache[int32, *Page]
	pageCount int32
}

// Open opens, or in ModeWrite creates, the paged file at path.
func Open(path string, mode Mode, cacheSize int) (*File, error) {
	flag := os.O_RDWR
	if mode == ModeWrite {
		flag |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("pager: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pager: stat %s: %w", path, err)
	}

	cache, err := newPageCache(cacheSize)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pager: init page cache: %w", err)
	}

	pf := &File{
		f:         f,
		cache:     cache,
		pageCount: int32(info.Size() / PageSize),
	}
	return pf, nil
}

// Close closes the underlying file. Closing an already-closed File
// returns an error.
func (pf *File) Close() error {
	if pf.f == nil {
		return fmt.Errorf("pager: close: already closed")
	}
	pf.cache.Close()
	err := pf.f.Close()
	pf.f = nil
	return err
}

// EndPid returns the next page id that Write would append at.
func (pf *File) EndPid() int32 {
	return pf.pageCount
}

// Read loads the page with the given id into buf.
func (pf *File) Read(pid int32, buf *Page) error {
	if pg, ok := pf.cache.Get(pid); ok {
		*buf = *pg
		return nil
	}
	off := int64(pid) * PageSize
	if _, err := pf.f.ReadAt(buf[:], off); err != nil {
		return fmt.Errorf("pager: read page %d: %w", pid, err)
	}
	cached := *buf
	pf.cache.Set(pid, &cached, 1)
	return nil
}

// Write stores buf at the given page id, extending the file (and bumping
// EndPid) when pid == EndPid().
func (pf *File) Write(pid int32, buf *Page) error {
	off := int64(pid) * PageSize
	if _, err := pf.f.WriteAt(buf[:], off); err != nil {
		return fmt.Errorf("pager: write page %d: %w", pid, err)
	}
	if pid >= pf.pageCount {
		pf.pageCount = pid + 1
	}
	cached := *buf
	pf.cache.Set(pid, &cached, 1)
	return nil
}

// ─── page cache ──────────────────────────────────────────────────────────

// newPageCache builds a cost-based admission cache (ristretto's TinyLFU
// policy) sized to hold roughly cacheSize decoded pages, one unit of cost
// each. Every mutation writes through to disk before touching the cache
// (see File.Write), so a page the cache admits, rejects, or evicts never
// affects correctness — only how often Read has to touch the disk.
func newPageCache(cacheSize int) (*ristretto.Cache[int32, *Page], error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	return ristretto.NewCache(&ristretto.Config[int32, *Page]{
		NumCounters: int64(cacheSize) * 10,
		MaxCost:     int64(cacheSize),
		BufferItems: 64,
	})
}
