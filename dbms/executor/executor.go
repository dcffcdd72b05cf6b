// Package executor drives a SELECT against a heap file, either via an
// index-scan over a planner-supplied key range or via a full heap scan,
// applying whatever residual predicates the planner could not fold into
// the range, then projects and counts matching rows.
package executor

import (
	"bytes"
	"fmt"

	"github.com/relstore/bplusdb/dbms/btree"
	"github.com/relstore/bplusdb/dbms/planner"
	"github.com/relstore/bplusdb/dbms/recordfile"
)

// Row is one projected result row. Key/Value are populated according to
// what the projection asked for; an unrequested field is left zero.
type Row struct {
	Key      int32
	HasKey   bool
	Value    []byte
	HasValue bool
}

// Select runs one query: preds is the WHERE clause's conjunction, proj
// says what to project, idx is nil when no index file exists for the
// table. It returns the projected rows in scan order and the match
// count (rows and count agree except that a count-only projection may
// omit materializing rows — callers that only need the count should
// still read count, not len(rows)).
func Select(rf *recordfile.RecordFile, idx *btree.Index, preds []planner.Predicate, proj planner.Projection) (rows []Row, count int, err error) {
	plan, ok := planner.Fold(preds, idx != nil, proj)
	if !ok {
		return nil, 0, nil
	}

	if plan.UseIndex {
		rows, count, err = scanIndex(rf, idx, plan, proj)
	} else {
		rows, count, err = scanHeap(rf, preds, proj)
	}
	return rows, count, err
}

func scanIndex(rf *recordfile.RecordFile, idx *btree.Index, plan planner.Plan, proj planner.Projection) ([]Row, int, error) {
	cur, err := idx.Locate(plan.MinKey)
	if err == btree.ErrEmptyTree {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("executor: locate: %w", err)
	}

	var rows []Row
	count := 0
	for !cur.AtEnd() {
		key, loc, err := idx.ReadForward(&cur)
		if err != nil {
			return nil, 0, fmt.Errorf("executor: readForward: %w", err)
		}
		if key > plan.MaxKey {
			break
		}

		var value []byte
		if plan.NeedValue {
			_, value, err = rf.Read(loc)
			if err != nil {
				return nil, 0, fmt.Errorf("executor: heap read for key %d: %w", key, err)
			}
		}

		if keyMatchesResidual(key, plan.ResidualKeyNotEquals) && valueMatchesResidual(value, plan.ResidualValuePreds) {
			rows = append(rows, project(key, value, proj))
			count++
		}
	}
	return rows, count, nil
}

func scanHeap(rf *recordfile.RecordFile, preds []planner.Predicate, proj planner.Projection) ([]Row, int, error) {
	cur, err := rf.Scan()
	if err != nil {
		return nil, 0, fmt.Errorf("executor: scan: %w", err)
	}

	var rows []Row
	count := 0
	for {
		_, key, value, ok, err := cur.Next()
		if err != nil {
			return nil, 0, fmt.Errorf("executor: heap scan: %w", err)
		}
		if !ok {
			break
		}
		if matchesAll(key, value, preds) {
			rows = append(rows, project(key, value, proj))
			count++
		}
	}
	return rows, count, nil
}

func keyMatchesResidual(key int32, notEquals []int32) bool {
	for _, ne := range notEquals {
		if key == ne {
			return false
		}
	}
	return true
}

func valueMatchesResidual(value []byte, preds []planner.Predicate) bool {
	for _, p := range preds {
		if !matchesValue(value, p) {
			return false
		}
	}
	return true
}

func matchesAll(key int32, value []byte, preds []planner.Predicate) bool {
	for _, p := range preds {
		switch p.Attr {
		case planner.Key:
			if !matchesKey(key, p) {
				return false
			}
		case planner.Value:
			if !matchesValue(value, p) {
				return false
			}
		}
	}
	return true
}

func matchesKey(key int32, p planner.Predicate) bool {
	switch p.Comp {
	case planner.EQ:
		return key == p.KeyLiteral
	case planner.NE:
		return key != p.KeyLiteral
	case planner.GT:
		return key > p.KeyLiteral
	case planner.LT:
		return key < p.KeyLiteral
	case planner.GE:
		return key >= p.KeyLiteral
	case planner.LE:
		return key <= p.KeyLiteral
	}
	return true
}

func matchesValue(value []byte, p planner.Predicate) bool {
	diff := bytes.Compare(value, p.ValueLiteral)
	switch p.Comp {
	case planner.EQ:
		return diff == 0
	case planner.NE:
		return diff != 0
	case planner.GT:
		return diff > 0
	case planner.LT:
		return diff < 0
	case planner.GE:
		return diff >= 0
	case planner.LE:
		return diff <= 0
	}
	return true
}

func project(key int32, value []byte, proj planner.Projection) Row {
	switch proj {
	case planner.ProjectKey:
		return Row{Key: key, HasKey: true}
	case planner.ProjectValue:
		return Row{Value: value, HasValue: true}
	case planner.ProjectBoth:
		return Row{Key: key, HasKey: true, Value: value, HasValue: true}
	default: // ProjectCount
		return Row{}
	}
}
