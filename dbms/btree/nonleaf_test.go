package btree

import "testing"

func TestNonLeafInsertSortedOrder(t *testing.T) {
	var n NonLeaf
	n.Init()
	if err := n.InitializeRoot(100, 10, 200); err != nil {
		t.Fatalf("initializeRoot: %v", err)
	}
	if err := n.Insert(20, 300); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := n.Insert(5, 50); err != nil {
		t.Fatalf("insert: %v", err)
	}

	wantKeys := []int32{5, 10, 20}
	for i, want := range wantKeys {
		if got := n.KeyAt(i); got != want {
			t.Fatalf("key %d = %d, want %d", i, got, want)
		}
	}
	wantChildren := []int32{100, 50, 200, 300}
	for i, want := range wantChildren {
		if got := n.ChildAt(i); got != want {
			t.Fatalf("child %d = %d, want %d", i, got, want)
		}
	}
}

func TestNonLeafInitializeRootRejectsNonEmpty(t *testing.T) {
	var n NonLeaf
	n.Init()
	n.InitializeRoot(1, 10, 2)
	if err := n.InitializeRoot(3, 20, 4); err == nil {
		t.Fatalf("expected precondition error on non-empty non-leaf")
	}
}

func TestNonLeafLocateChildPtrFallsToRightmost(t *testing.T) {
	var n NonLeaf
	n.Init()
	n.InitializeRoot(1, 10, 2)
	n.Insert(20, 3)

	// searchKey beyond every separator resolves to the rightmost child.
	if got := n.LocateChildPtr(1000); got != 3 {
		t.Fatalf("locateChildPtr(1000) = %d, want 3 (rightmost child)", got)
	}
	// searchKey below every separator resolves to the leftmost child.
	if got := n.LocateChildPtr(0); got != 1 {
		t.Fatalf("locateChildPtr(0) = %d, want 1", got)
	}
	// searchKey equal to a separator descends to its right child.
	if got := n.LocateChildPtr(10); got != 2 {
		t.Fatalf("locateChildPtr(10) = %d, want 2", got)
	}
}

func TestNonLeafFullReturnsErrFull(t *testing.T) {
	var n NonLeaf
	n.Init()
	n.InitializeRoot(0, 0, 1)
	for i := 1; i < NonLeafCapacity; i++ {
		if err := n.Insert(int32(i), int32(i+1)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if n.KeyCount() != NonLeafCapacity {
		t.Fatalf("keyCount = %d, want %d", n.KeyCount(), NonLeafCapacity)
	}
	if err := n.Insert(int32(NonLeafCapacity), int32(NonLeafCapacity+1)); err != ErrFull {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestNonLeafInsertAndSplitMoveUp(t *testing.T) {
	var n NonLeaf
	n.Init()
	n.InitializeRoot(0, 0, 1)
	for i := 1; i < NonLeafCapacity; i++ {
		n.Insert(int32(i), int32(i+1))
	}

	var sibling NonLeaf
	sibling.Init()
	newKey := int32(NonLeafCapacity)
	midKey, err := n.InsertAndSplit(newKey, newKey+1, &sibling)
	if err != nil {
		t.Fatalf("insertAndSplit: %v", err)
	}

	half := NonLeafCapacity / 2
	if midKey != int32(half) {
		t.Fatalf("midKey = %d, want %d", midKey, half)
	}
	// move-up removes midKey from both resulting nodes.
	for i := 0; i < n.KeyCount(); i++ {
		if n.KeyAt(i) == midKey {
			t.Fatalf("midKey %d still present in left node", midKey)
		}
	}
	for i := 0; i < sibling.KeyCount(); i++ {
		if sibling.KeyAt(i) == midKey {
			t.Fatalf("midKey %d still present in sibling", midKey)
		}
	}
	// total keys preserved: NonLeafCapacity original + 1 new - 1 moved up.
	if n.KeyCount()+sibling.KeyCount() != NonLeafCapacity {
		t.Fatalf("key counts %d + %d != %d", n.KeyCount(), sibling.KeyCount(), NonLeafCapacity)
	}
}

func TestNonLeafInsertAndSplitRejectsNonFull(t *testing.T) {
	var n NonLeaf
	n.Init()
	n.InitializeRoot(0, 5, 1)
	var sibling NonLeaf
	sibling.Init()
	if _, err := n.InsertAndSplit(10, 2, &sibling); err == nil {
		t.Fatalf("expected precondition error on non-full non-leaf")
	}
}
