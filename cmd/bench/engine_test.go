package main

import (
	"path/filepath"
	"testing"
)

func TestDiskBTreeInsertGetRange(t *testing.T) {
	e, err := OpenDiskBTree(filepath.Join(t.TempDir(), "disk"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer e.Close()

	for i := int32(0); i < 50; i++ {
		if err := e.Insert(i, []byte{byte(i)}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	value, found, err := e.Get(25)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || len(value) != 1 || value[0] != 25 {
		t.Fatalf("get(25) = %v, %v, want [25], true", value, found)
	}

	if _, found, err := e.Get(999); err != nil || found {
		t.Fatalf("get(999) = found %v, err %v, want not found", found, err)
	}

	count, err := e.Range(10, 20)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if count != 11 {
		t.Fatalf("range(10,20) = %d, want 11", count)
	}
}

func TestOracleEngineInsertGetRange(t *testing.T) {
	e := OpenOracleEngine()
	defer e.Close()

	for i := int32(0); i < 50; i++ {
		if err := e.Insert(i, []byte{byte(i)}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	value, found, err := e.Get(25)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || len(value) != 1 || value[0] != 25 {
		t.Fatalf("get(25) = %v, %v, want [25], true", value, found)
	}

	count, err := e.Range(10, 20)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if count != 11 {
		t.Fatalf("range(10,20) = %d, want 11", count)
	}
}

func TestEncodeKeyPreservesOrderForNonNegativeKeys(t *testing.T) {
	a := encodeKey(5)
	b := encodeKey(10)
	if string(a) >= string(b) {
		t.Fatalf("encodeKey(5) should sort before encodeKey(10)")
	}
}
