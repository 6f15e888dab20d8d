package monitor

import (
	"golang.org/x/exp/constraints"

	"github.com/corvid-systems/go-semihsm/cell"
)

// varCompare implements VarCompare[V]: recomputes pred(left.Value(),
// right) on every change of left (and of right, if right is itself a
// cell rather than a constant), grounded on VarRefCompareMonitor.hpp.
type varCompare[V any] struct {
	base
	left      *cell.Cell[V]
	right     *cell.Cell[V] // nil in constant-comparison mode
	rightVal  V
	pred      func(left, right V) bool
	subL, subR *cell.ValueSubscription[V]
}

func (m *varCompare[V]) recompute() {
	right := m.rightVal
	if m.right != nil {
		right = m.right.Value()
	}
	m.base.setFulfilled(m.pred(m.left.Value(), right))
}

func (m *varCompare[V]) Start()                                        { m.base.start() }
func (m *varCompare[V]) Stop()                                          { m.base.stop() }
func (m *varCompare[V]) Fulfilled() bool                                { return m.base.Fulfilled() }
func (m *varCompare[V]) Active() bool                                   { return m.base.Active() }
func (m *varCompare[V]) Subscribe(cb FulfilledChangeFunc) *Subscription { return m.base.subscribe(cb) }

func newVarCompare[V any](left *cell.Cell[V], right *cell.Cell[V], rightVal V, pred func(a, b V) bool) Monitor {
	m := &varCompare[V]{left: left, right: right, rightVal: rightVal, pred: pred}
	m.base.onStart = func() {
		m.subL = m.left.SubscribeValueChanged(func(_, _ V) { m.recompute() })
		if m.right != nil {
			m.subR = m.right.SubscribeValueChanged(func(_, _ V) { m.recompute() })
		}
		m.recompute()
	}
	m.base.onStop = func() {
		m.subL.Unsubscribe()
		if m.subR != nil {
			m.subR.Unsubscribe()
		}
	}
	return m
}

// VarCompareCells builds a Monitor fulfilled iff pred(left.Value(),
// right.Value()) holds, re-evaluated whenever either cell changes.
func VarCompareCells[V any](left, right *cell.Cell[V], pred func(a, b V) bool) Monitor {
	return newVarCompare(left, right, *new(V), pred)
}

// VarCompareConst builds a Monitor fulfilled iff pred(left.Value(),
// constant) holds, re-evaluated whenever left changes.
func VarCompareConst[V any](left *cell.Cell[V], constant V, pred func(a, b V) bool) Monitor {
	return newVarCompare[V](left, nil, constant, pred)
}

// The following helpers mirror VarRefCompareMonitor.hpp's free functions
// (BiggerThan, LessThan, NoBiggerThan, NoLessThan, EqualTo), specialized
// to ordered numeric/comparable types via constraints.Ordered.

// BiggerThan builds a Monitor fulfilled iff left.Value() > constant.
func BiggerThan[V constraints.Ordered](left *cell.Cell[V], constant V) Monitor {
	return VarCompareConst(left, constant, func(a, b V) bool { return a > b })
}

// LessThan builds a Monitor fulfilled iff left.Value() < constant.
func LessThan[V constraints.Ordered](left *cell.Cell[V], constant V) Monitor {
	return VarCompareConst(left, constant, func(a, b V) bool { return a < b })
}

// NoBiggerThan builds a Monitor fulfilled iff left.Value() <= constant.
func NoBiggerThan[V constraints.Ordered](left *cell.Cell[V], constant V) Monitor {
	return VarCompareConst(left, constant, func(a, b V) bool { return a <= b })
}

// NoLessThan builds a Monitor fulfilled iff left.Value() >= constant.
func NoLessThan[V constraints.Ordered](left *cell.Cell[V], constant V) Monitor {
	return VarCompareConst(left, constant, func(a, b V) bool { return a >= b })
}

// EqualTo builds a Monitor fulfilled iff left.Value() == constant.
func EqualTo[V comparable](left *cell.Cell[V], constant V) Monitor {
	return VarCompareConst(left, constant, func(a, b V) bool { return a == b })
}
