package pager

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	pf, err := Open(path, ModeWrite, 8)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pf.Close()

	if got := pf.EndPid(); got != 0 {
		t.Fatalf("EndPid on empty file = %d, want 0", got)
	}
}

func TestReadModeFailsOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := Open(path, ModeRead, 8); err == nil {
		t.Fatalf("expected error opening missing file in ModeRead")
	}
}

func TestWriteAtEndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	pf, err := Open(path, ModeWrite, 8)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pf.Close()

	var p0 Page
	copy(p0[:], "page zero")
	if err := pf.Write(pf.EndPid(), &p0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := pf.EndPid(); got != 1 {
		t.Fatalf("EndPid after one append = %d, want 1", got)
	}

	var p1 Page
	copy(p1[:], "page one")
	if err := pf.Write(pf.EndPid(), &p1); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := pf.EndPid(); got != 2 {
		t.Fatalf("EndPid after two appends = %d, want 2", got)
	}
}

func TestRoundTripThroughCacheAndDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	pf, err := Open(path, ModeWrite, 1) // cache of size 1 forces eviction
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pf.Close()

	var a, b Page
	copy(a[:], "AAAA")
	copy(b[:], "BBBB")
	if err := pf.Write(0, &a); err != nil {
		t.Fatalf("write 0: %v", err)
	}
	if err := pf.Write(1, &b); err != nil {
		t.Fatalf("write 1: %v", err)
	}

	var got Page
	if err := pf.Read(0, &got); err != nil {
		t.Fatalf("read 0: %v", err)
	}
	if got != a {
		t.Fatalf("page 0 did not round-trip byte-for-byte")
	}
	if err := pf.Read(1, &got); err != nil {
		t.Fatalf("read 1: %v", err)
	}
	if got != b {
		t.Fatalf("page 1 did not round-trip byte-for-byte")
	}
}

func TestReopenPreservesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	pf, err := Open(path, ModeWrite, 8)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var p Page
	copy(p[:], "persisted")
	if err := pf.Write(pf.EndPid(), &p); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := pf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	pf2, err := Open(path, ModeRead, 8)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer pf2.Close()
	if got := pf2.EndPid(); got != 1 {
		t.Fatalf("EndPid after reopen = %d, want 1", got)
	}
	var got Page
	if err := pf2.Read(0, &got); err != nil {
		t.Fatalf("read after reopen: %v", err)
	}
	if got != p {
		t.Fatalf("content did not survive reopen")
	}
}

func TestCloseTwiceErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	pf, err := Open(path, ModeWrite, 8)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := pf.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := pf.Close(); err == nil {
		t.Fatalf("expected error on second close")
	}
}
