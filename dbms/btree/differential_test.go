package btree_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/relstore/bplusdb/dbms/btree"
	"github.com/relstore/bplusdb/dbms/btree/oracle"
	"github.com/relstore/bplusdb/dbms/pager"
)

// TestDifferentialInsertAndScanAgreesWithOracle drives the disk-backed
// Index and the in-memory oracle with the same sequence of inserts and
// checks that a full forward scan yields identical (key, locator)
// sequences from both.
func TestDifferentialInsertAndScanAgreesWithOracle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	idx, err := btree.Open(path, pager.ModeWrite, 64)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	tr := oracle.New(64)

	rng := rand.New(rand.NewSource(42))
	const n = 6000
	keys := rng.Perm(n)

	for _, k := range keys {
		key := int32(k)
		loc := btree.RecordLocator{PageID: key, SlotID: key * 2}
		if err := idx.Insert(key, loc); err != nil {
			t.Fatalf("index insert %d: %v", key, err)
		}
		tr.Insert(key, loc)
	}

	cur, err := idx.Locate(0)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	oracleEntries := tr.Range(0, int32(n-1))

	for i, want := range oracleEntries {
		if cur.AtEnd() {
			t.Fatalf("index scan ended early at entry %d, want key %d", i, want.Key)
		}
		gotKey, gotLoc, err := idx.ReadForward(&cur)
		if err != nil {
			t.Fatalf("readForward at entry %d: %v", i, err)
		}
		if gotKey != want.Key || gotLoc != want.Locator {
			t.Fatalf("entry %d: index scan (%d, %+v), oracle (%d, %+v)", i, gotKey, gotLoc, want.Key, want.Locator)
		}
	}
	if !cur.AtEnd() {
		t.Fatalf("index scan produced extra entries beyond the oracle's %d", len(oracleEntries))
	}
}

// TestDifferentialPointLookupsAgreeWithOracle checks point lookups (via
// Locate + ReadForward) for a random sample of keys against the oracle's
// Get.
func TestDifferentialPointLookupsAgreeWithOracle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	idx, err := btree.Open(path, pager.ModeWrite, 64)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	tr := oracle.New(64)

	rng := rand.New(rand.NewSource(7))
	const n = 3000
	keys := rng.Perm(n)
	for _, k := range keys {
		key := int32(k)
		loc := btree.RecordLocator{PageID: key, SlotID: key}
		idx.Insert(key, loc)
		tr.Insert(key, loc)
	}

	for _, k := range rng.Perm(n)[:200] {
		key := int32(k)
		wantLoc, err := tr.Get(key)
		if err != nil {
			t.Fatalf("oracle get %d: %v", key, err)
		}
		cur, err := idx.Locate(key)
		if err != nil {
			t.Fatalf("locate %d: %v", key, err)
		}
		if cur.AtEnd() {
			t.Fatalf("locate %d reached end of index", key)
		}
		gotKey, gotLoc, err := idx.ReadForward(&cur)
		if err != nil {
			t.Fatalf("readForward %d: %v", key, err)
		}
		if gotKey != key || gotLoc != wantLoc {
			t.Fatalf("key %d: index (%d, %+v), oracle (%d, %+v)", key, gotKey, gotLoc, key, wantLoc)
		}
	}
}
