package btree

import "errors"

// ErrFull is returned by Leaf.Insert / NonLeaf.Insert when the node has no
// room left; callers never surface this — it is always the trigger for a
// split.
var ErrFull = errors.New("btree: node full")

// ErrEmptyTree is returned by locate on a tree with treeHeight == 0.
var ErrEmptyTree = errors.New("btree: empty tree")

// errPrecondition marks a programming error — e.g. InsertAndSplit called on
// a node that was not actually full — distinct from an I/O failure so
// code in this package can tell the two apart with errors.As. The type is
// unexported, so other packages cannot name it as an errors.As target.
type errPrecondition struct {
	msg string
}

func (e *errPrecondition) Error() string { return "btree: precondition violated: " + e.msg }

func precondition(msg string) error {
	return &errPrecondition{msg: msg}
}
