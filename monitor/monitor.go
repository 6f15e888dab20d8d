// Package monitor implements the requirement-monitor algebra: a
// tri-state {inactive, active-unfulfilled, active-fulfilled} guard with
// reference-counted Start/Stop, composed via And/Or/Xor/Not, and
// compared against observable cells via VarCompare.
//
// Grounded on original_source/Tools/include/Requirements/
// RequirementMonitor.hpp (ref-count discipline, BinaryRequirementMonitor,
// the make_and/make_or/make_not smart constructors and operator-overload
// fold) and VarRefCompareMonitor.hpp (cell-vs-constant comparison).
package monitor

// FulfilledChangeFunc is invoked when a Monitor's fulfilled bit changes
// while it is active (count > 0).
type FulfilledChangeFunc func(fulfilled bool)

type listener struct {
	id uint64
	cb FulfilledChangeFunc
}

// base implements the shared ref-counting and dispatch discipline every
// Monitor embeds, mirroring RequirementMonitor's non-virtual machinery.
type base struct {
	count     int
	fulfilled bool
	nextID    uint64
	listeners []listener
	onStart   func()
	onStop    func()
}

// Subscription is a move-only-style handle for a fulfilled-change
// subscription.
type Subscription struct {
	b    *base
	id   uint64
	done bool
}

// Unsubscribe removes the subscription; safe to call at most meaningfully
// once, idempotent thereafter.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.done || s.b == nil {
		return
	}
	s.done = true
	for i, l := range s.b.listeners {
		if l.id == s.id {
			s.b.listeners = append(s.b.listeners[:i], s.b.listeners[i+1:]...)
			return
		}
	}
}

func (b *base) subscribe(cb FulfilledChangeFunc) *Subscription {
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listener{id: id, cb: cb})
	return &Subscription{b: b, id: id}
}

// Fulfilled reports the current fulfilled bit. Always false while
// inactive (count == 0).
func (b *base) Fulfilled() bool { return b.fulfilled }

// Active reports whether this monitor has at least one outstanding
// Start without a matching Stop.
func (b *base) Active() bool { return b.count > 0 }

// setFulfilled installs v, notifying a snapshot of listeners only on a
// genuine transition, and only while active. Mirrors
// RequirementMonitor::set_fulfilled.
func (b *base) setFulfilled(v bool) {
	if b.count <= 0 || b.fulfilled == v {
		return
	}
	b.fulfilled = v
	if len(b.listeners) == 0 {
		return
	}
	snapshot := make([]listener, len(b.listeners))
	copy(snapshot, b.listeners)
	for _, l := range snapshot {
		l.cb(v)
	}
}

// start implements the shared 0->1 transition semantics: Start
// increments; on 0->1, force fulfilled=false then invoke onStart.
func (b *base) start() {
	b.count++
	if b.count == 1 {
		b.fulfilled = false
		if b.onStart != nil {
			b.onStart()
		}
	}
}

// stop implements the shared ->0 transition semantics: Stop decrements;
// on reaching 0, force fulfilled=false then invoke onStop.
func (b *base) stop() {
	if b.count <= 0 {
		return
	}
	b.count--
	if b.count == 0 {
		b.fulfilled = false
		if b.onStop != nil {
			b.onStop()
		}
	}
}

// Monitor is a Boolean-valued, ref-counted activation carrier attached
// to transitions: AND/OR/XOR/NOT composites and VarCompare all
// implement it, as does a bare user-defined guard via NewCustom.
type Monitor interface {
	// Start increments the activation count; the first Start from 0
	// activates the monitor (forces Fulfilled()==false, then runs
	// concrete activation logic).
	Start()
	// Stop decrements the activation count; the last Stop deactivates
	// (forces Fulfilled()==false, then runs concrete teardown).
	Stop()
	// Fulfilled reports the current fulfilled bit; always false while
	// inactive.
	Fulfilled() bool
	// Active reports whether Start has been called more times than Stop.
	Active() bool
	// Subscribe registers cb to be invoked on every genuine transition
	// of the fulfilled bit while active.
	Subscribe(cb FulfilledChangeFunc) *Subscription
}

// custom wraps a base with no children, for user-supplied activation
// hooks (e.g. timers) via NewCustom.
type custom struct {
	base
}

func (m *custom) Start()                             { m.base.start() }
func (m *custom) Stop()                               { m.base.stop() }
func (m *custom) Fulfilled() bool                     { return m.base.Fulfilled() }
func (m *custom) Active() bool                        { return m.base.Active() }
func (m *custom) Subscribe(cb FulfilledChangeFunc) *Subscription { return m.base.subscribe(cb) }

// Setter is handed to a NewCustom activation/deactivation hook so it
// can push fulfilled-state changes while active (e.g. on a timer tick).
type Setter struct{ m *custom }

// SetFulfilled pushes v as the new fulfilled state; a no-op while the
// monitor is inactive, and a no-op if v doesn't change the bit.
func (s Setter) SetFulfilled(v bool) { s.m.base.setFulfilled(v) }

// NewCustom builds a leaf Monitor whose fulfilled bit is pushed
// externally (e.g. a TimerRequirement that calls Setter.SetFulfilled(true)
// on expiry). onStart
// and onStop are invoked on the 0->1 and ->0 ref-count transitions
// respectively; either may be nil.
func NewCustom(onStart, onStop func(Setter)) Monitor {
	m := &custom{}
	if onStart != nil {
		m.base.onStart = func() { onStart(Setter{m: m}) }
	}
	if onStop != nil {
		m.base.onStop = func() { onStop(Setter{m: m}) }
	}
	return m
}
