// Package planner folds a conjunction of predicates on an integer key (and
// optionally a value column) into a single contiguous key range, or
// detects that the conjunction is unsatisfiable, and decides whether the
// executor should drive the scan from an index or from the heap.
package planner

import (
	"math"
)

// Attribute names the column a Predicate constrains.
type Attribute int

const (
	Key Attribute = iota
	Value
)

// Comparison is the relational operator of a Predicate.
type Comparison int

const (
	EQ Comparison = iota
	NE
	LT
	LE
	GT
	GE
)

// Predicate is one simple condition from a WHERE clause's conjunction.
// KeyLiteral is meaningful only when Attr == Key; ValueLiteral only when
// Attr == Value.
type Predicate struct {
	Attr         Attribute
	Comp         Comparison
	KeyLiteral   int32
	ValueLiteral []byte
}

// Projection describes what the query needs to produce, independent of
// the WHERE clause: it determines NeedValue and, for an empty predicate
// list, can by itself justify using the index (COUNT(*) with no WHERE).
type Projection int

const (
	ProjectKey Projection = iota
	ProjectValue
	ProjectBoth
	ProjectCount
)

// Plan is the planner's output for a satisfiable conjunction.
type Plan struct {
	UseIndex             bool
	NeedValue            bool
	MinKey               int32
	MaxKey               int32
	ResidualKeyNotEquals []int32
	ResidualValuePreds   []Predicate
}

// bound is a one-sided key bound with a strictness flag (true = exclusive).
type bound struct {
	set    bool
	k      int32
	strict bool
}

// Fold folds preds (the left-to-right conjunction of a WHERE clause) and
// returns either a satisfiable Plan or ok == false for UNSAT. indexExists
// reports whether a usable index file was found for this table. Fold is a
// pure function of its arguments: no state survives between calls, so
// calling it twice with the same inputs always yields the same Plan.
func Fold(preds []Predicate, indexExists bool, proj Projection) (Plan, bool) {
	var (
		eq       bound // eq.set && !eq.strict encodes "EQ eq.k"; strict is unused here
		low      bound
		high     bound
		nes      []int32
		hasKeyPred bool
	)

	for _, p := range preds {
		if p.Attr != Key {
			continue
		}
		switch p.Comp {
		case EQ:
			hasKeyPred = true
			if eq.set && eq.k != p.KeyLiteral {
				return Plan{}, false
			}
			eq.set = true
			eq.k = p.KeyLiteral
		case NE:
			nes = append(nes, p.KeyLiteral)
			if eq.set && eq.k == p.KeyLiteral {
				return Plan{}, false
			}
		case GT:
			hasKeyPred = true
			tightenLow(&low, p.KeyLiteral, true)
		case GE:
			hasKeyPred = true
			tightenLow(&low, p.KeyLiteral, false)
		case LT:
			hasKeyPred = true
			tightenHigh(&high, p.KeyLiteral, true)
		case LE:
			hasKeyPred = true
			tightenHigh(&high, p.KeyLiteral, false)
		}
	}

	if unsat(eq, low, high) {
		return Plan{}, false
	}

	var residualValue []Predicate
	needValue := proj == ProjectValue || proj == ProjectBoth
	for _, p := range preds {
		if p.Attr == Value {
			needValue = true
			residualValue = append(residualValue, p)
		}
	}

	useIndex := indexExists && (hasKeyPred || (len(preds) == 0 && proj == ProjectCount))

	var minKey, maxKey int32
	if eq.set {
		minKey, maxKey = eq.k, eq.k
	} else {
		if low.set {
			if low.strict {
				minKey = low.k + 1
			} else {
				minKey = low.k
			}
		} else {
			minKey = math.MinInt32
		}
		if high.set {
			if high.strict {
				maxKey = high.k - 1
			} else {
				maxKey = high.k
			}
		} else {
			maxKey = math.MaxInt32
		}
	}

	return Plan{
		UseIndex:             useIndex,
		NeedValue:            needValue,
		MinKey:               minKey,
		MaxKey:               maxKey,
		ResidualKeyNotEquals: nes,
		ResidualValuePreds:   residualValue,
	}, true
}

// tightenLow replaces low with (k, strict) iff the new bound is strictly
// tighter (a larger effective lower bound) than the current one.
func tightenLow(low *bound, k int32, strict bool) {
	if !low.set {
		low.set, low.k, low.strict = true, k, strict
		return
	}
	switch {
	case strict && !low.strict:
		// new GT vs current GE: tighter iff k >= low.k
		if k >= low.k {
			low.k, low.strict = k, true
		}
	case !strict && low.strict:
		// new GE vs current GT: tighter iff k > low.k
		if k > low.k {
			low.k, low.strict = k, false
		}
	default:
		// same kind: tighter iff k exceeds the current bound
		if k > low.k {
			low.k = k
		}
	}
}

// tightenHigh is the symmetric counterpart of tightenLow for the upper bound.
func tightenHigh(high *bound, k int32, strict bool) {
	if !high.set {
		high.set, high.k, high.strict = true, k, strict
		return
	}
	switch {
	case strict && !high.strict:
		if k <= high.k {
			high.k, high.strict = k, true
		}
	case !strict && high.strict:
		if k < high.k {
			high.k, high.strict = k, false
		}
	default:
		if k < high.k {
			high.k = k
		}
	}
}

func unsat(eq, low, high bound) bool {
	if low.set && high.set {
		if low.k > high.k {
			return true
		}
		if low.k == high.k && (low.strict || high.strict) {
			return true
		}
		if low.strict && high.strict && high.k-low.k == 1 {
			return true
		}
	}
	if low.set && low.strict && low.k == math.MaxInt32 {
		return true
	}
	if high.set && high.strict && high.k == math.MinInt32 {
		return true
	}
	if eq.set {
		if low.set {
			if low.strict && eq.k <= low.k {
				return true
			}
			if !low.strict && eq.k < low.k {
				return true
			}
		}
		if high.set {
			if high.strict && eq.k >= high.k {
				return true
			}
			if !high.strict && eq.k > high.k {
				return true
			}
		}
	}
	return false
}
