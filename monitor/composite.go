package monitor

import "fmt"

// composeKind distinguishes the three binary composites, so
// recompute can share one struct (tagged variant per
// SPEC_FULL.md §9's dynamic-dispatch guidance for a closed set).
type composeKind int

const (
	kindAnd composeKind = iota
	kindOr
	kindXor
)

// binary is the shared implementation of AND/OR/XOR, grounded on
// RequirementMonitor.hpp's detail::BinaryRequirementMonitor: it owns
// both children exclusively, starts/subscribes to both on activation,
// and releases/stops on deactivation.
type binary struct {
	base
	kind        composeKind
	left, right Monitor
	subL, subR  *Subscription
}

func (m *binary) recompute() {
	var v bool
	switch m.kind {
	case kindAnd:
		v = m.left.Fulfilled() && m.right.Fulfilled()
	case kindOr:
		v = m.left.Fulfilled() || m.right.Fulfilled()
	case kindXor:
		v = m.left.Fulfilled() != m.right.Fulfilled()
	}
	m.base.setFulfilled(v)
}

func newBinary(kind composeKind, l, r Monitor) (*binary, error) {
	if l == nil || r == nil {
		return nil, fmt.Errorf("monitor: composite requires two non-nil children")
	}
	m := &binary{kind: kind, left: l, right: r}
	m.base.onStart = func() {
		m.left.Start()
		m.right.Start()
		m.subL = m.left.Subscribe(func(bool) { m.recompute() })
		m.subR = m.right.Subscribe(func(bool) { m.recompute() })
		m.recompute()
	}
	m.base.onStop = func() {
		m.subL.Unsubscribe()
		m.subR.Unsubscribe()
		m.left.Stop()
		m.right.Stop()
	}
	return m, nil
}

func (m *binary) Start()                                        { m.base.start() }
func (m *binary) Stop()                                          { m.base.stop() }
func (m *binary) Fulfilled() bool                                { return m.base.Fulfilled() }
func (m *binary) Active() bool                                   { return m.base.Active() }
func (m *binary) Subscribe(cb FulfilledChangeFunc) *Subscription { return m.base.subscribe(cb) }

// And builds a Monitor fulfilled iff both l and r are fulfilled.
// Returns an error if either child is nil.
func And(l, r Monitor) (Monitor, error) { return newBinary(kindAnd, l, r) }

// Or builds a Monitor fulfilled iff either l or r is fulfilled.
func Or(l, r Monitor) (Monitor, error) { return newBinary(kindOr, l, r) }

// Xor builds a Monitor fulfilled iff exactly one of l, r is fulfilled.
func Xor(l, r Monitor) (Monitor, error) { return newBinary(kindXor, l, r) }

// MustAnd/MustOr/MustXor panic instead of returning an error; useful at
// package-init time when the children are known non-nil by construction.
func MustAnd(l, r Monitor) Monitor { return must(And(l, r)) }
func MustOr(l, r Monitor) Monitor  { return must(Or(l, r)) }
func MustXor(l, r Monitor) Monitor { return must(Xor(l, r)) }

func must(m Monitor, err error) Monitor {
	if err != nil {
		panic(err)
	}
	return m
}

// not wraps a single child, inverting its fulfilled bit.
type not struct {
	base
	child Monitor
	sub   *Subscription
}

func (m *not) Start()                                        { m.base.start() }
func (m *not) Stop()                                          { m.base.stop() }
func (m *not) Fulfilled() bool                                { return m.base.Fulfilled() }
func (m *not) Active() bool                                   { return m.base.Active() }
func (m *not) Subscribe(cb FulfilledChangeFunc) *Subscription { return m.base.subscribe(cb) }

// Not builds a Monitor whose fulfilled bit is the logical inverse of
// m's. Applies double-negation elimination: Not(Not(x)) returns x
// itself rather than wrapping twice, mirroring make_not's dynamic_cast
// check in RequirementMonitor.hpp.
func Not(m Monitor) Monitor {
	if inner, ok := m.(*not); ok {
		return inner.child
	}
	n := &not{child: m}
	n.base.onStart = func() {
		n.child.Start()
		n.sub = n.child.Subscribe(func(childFulfilled bool) {
			n.base.setFulfilled(!childFulfilled)
		})
		n.base.setFulfilled(!n.child.Fulfilled())
	}
	n.base.onStop = func() {
		n.sub.Unsubscribe()
		n.child.Stop()
	}
	return n
}
