// Package cell implements a single-writer, multi-reader reactive
// observable value ("Cell"), plus a derived variant ("Derived") whose
// value is computed from other cells via a pluggable binder.
//
// The design is grounded on the original source's VarRef/SourceVarRef
// hierarchy (Tools/include/VarRef/*.hpp): a Cell stores a default
// value, a current value, an optional equality predicate, value-change
// listeners keyed by a monotonic id, observed-state listeners, and a
// liveness flag. Subscription dispatch follows eventtarget.go's
// snapshot-before-iterate idiom so that a callback may (un)subscribe
// mid-dispatch without corrupting the iteration.
package cell

import (
	"sync/atomic"

	"github.com/corvid-systems/go-semihsm/internal/telemetry"
	"github.com/joeycumines/logiface"
)

// ListenerID identifies a registered subscription, so it can be removed
// without requiring the callback value itself to be comparable.
type ListenerID uint64

// ValueChangeFunc is invoked after a Cell's value changes, with the
// previous and new values.
type ValueChangeFunc[V any] func(old, new V)

// ObservedChangeFunc is invoked when a Cell's observed bit flips.
type ObservedChangeFunc func(observed bool)

type valueListener[V any] struct {
	id ListenerID
	cb ValueChangeFunc[V]
}

type observedListener struct {
	id ListenerID
	cb ObservedChangeFunc
}

// Cell is an observable single value. The zero value is not usable;
// construct with New.
type Cell[V any] struct {
	def     V
	value   V
	equal   func(a, b V) bool
	nextID  uint64
	valueL  []valueListener[V]
	obsL    []observedListener
	observed bool
	alive   atomic.Bool
	log     telemetry.Sink
	name    string
}

// Option configures a Cell or Derived at construction time, grounded on
// eventloop/options.go's LoopOption interface.
type Option[V any] interface {
	apply(*options[V]) error
}

type options[V any] struct {
	equal func(a, b V) bool
	log   telemetry.Sink
	name  string
}

type optionFunc[V any] func(*options[V]) error

func (f optionFunc[V]) apply(o *options[V]) error { return f(o) }

// WithEqual supplies a custom equality predicate, overriding the
// default (New's ==, or NewFunc's always-distinct fallback).
func WithEqual[V any](eq func(a, b V) bool) Option[V] {
	return optionFunc[V](func(o *options[V]) error {
		o.equal = eq
		return nil
	})
}

// WithLogger attaches a diagnostic sink. Default is a no-op.
func WithLogger[V any](sink telemetry.Sink) Option[V] {
	return optionFunc[V](func(o *options[V]) error {
		o.log = sink
		return nil
	})
}

// WithName attaches a label used only in diagnostic log output.
func WithName[V any](name string) Option[V] {
	return optionFunc[V](func(o *options[V]) error {
		o.name = name
		return nil
	})
}

// resolve applies opts in order, skipping nils and surfacing the first
// error, mirroring eventloop/options.go's resolveLoopOptions.
func resolve[V any](opts []Option[V]) (*options[V], error) {
	o := &options[V]{log: telemetry.NoOp}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// New constructs a Cell with the given default/current value. V must be
// comparable, or an explicit WithEqual option must be supplied.
func New[V comparable](def V, opts ...Option[V]) (*Cell[V], error) {
	o, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	if o.equal == nil {
		o.equal = func(a, b V) bool { return a == b }
	}
	c := &Cell[V]{def: def, value: def, equal: o.equal, log: o.log, name: o.name}
	c.alive.Store(true)
	return c, nil
}

// NewFunc constructs a Cell for a non-comparable V, given an explicit
// equality predicate (WithEqual is mandatory in this path; if omitted,
// all values are considered distinct).
func NewFunc[V any](def V, opts ...Option[V]) (*Cell[V], error) {
	o, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	if o.equal == nil {
		o.equal = func(a, b V) bool { return false }
	}
	c := &Cell[V]{def: def, value: def, equal: o.equal, log: o.log, name: o.name}
	c.alive.Store(true)
	return c, nil
}

// Value returns the current value. No side effects.
func (c *Cell[V]) Value() V { return c.value }

// DefaultValue returns the value supplied at construction.
func (c *Cell[V]) DefaultValue() V { return c.def }

// Observed reports whether at least one value-change listener is
// currently registered.
func (c *Cell[V]) Observed() bool { return c.observed }

// Equals reports whether a and b are equal under this cell's predicate.
func (c *Cell[V]) Equals(a, b V) bool { return c.equal(a, b) }

// setValue installs newValue if it differs from the current value under
// Equals, notifying a snapshot of value-change listeners. Unexported:
// only Cell's own SourceRef-style public setter (exposed on the
// surrounding type, e.g. Source) or a Derived's binder may call it.
func (c *Cell[V]) setValue(newValue V) {
	if c.equal(c.value, newValue) {
		return
	}
	old := c.value
	c.value = newValue
	if c.log.Enabled(logiface.LevelDebug) {
		c.log.Log(logiface.LevelDebug, "cell value changed", "name", c.name)
	}
	if len(c.valueL) == 0 {
		return
	}
	snapshot := make([]valueListener[V], len(c.valueL))
	copy(snapshot, c.valueL)
	for _, l := range snapshot {
		if !c.alive.Load() {
			return
		}
		l.cb(old, newValue)
	}
}

// SubscribeValueChanged registers cb to be invoked on every value
// change. Returns a move-only-style handle: call Unsubscribe at most
// once to remove it; calling it again, or after the Cell has been
// destroyed, is a safe no-op.
func (c *Cell[V]) SubscribeValueChanged(cb ValueChangeFunc[V]) *ValueSubscription[V] {
	c.nextID++
	id := ListenerID(c.nextID)
	c.valueL = append(c.valueL, valueListener[V]{id: id, cb: cb})
	c.updateObserved()
	return &ValueSubscription[V]{cell: c, id: id}
}

func (c *Cell[V]) unsubscribeValueChanged(id ListenerID) {
	for i, l := range c.valueL {
		if l.id == id {
			c.valueL = append(c.valueL[:i], c.valueL[i+1:]...)
			break
		}
	}
	c.updateObserved()
}

// SubscribeObservedChanged registers cb to fire only on a genuine
// 0<->>=1 transition of the observed bit.
func (c *Cell[V]) SubscribeObservedChanged(cb ObservedChangeFunc) *ObservedSubscription[V] {
	c.nextID++
	id := ListenerID(c.nextID)
	c.obsL = append(c.obsL, observedListener{id: id, cb: cb})
	return &ObservedSubscription[V]{cell: c, id: id}
}

func (c *Cell[V]) unsubscribeObservedChanged(id ListenerID) {
	for i, l := range c.obsL {
		if l.id == id {
			c.obsL = append(c.obsL[:i], c.obsL[i+1:]...)
			break
		}
	}
}

// updateObserved recomputes the observed bit and fires observed-state
// listeners only on a genuine transition, mirroring VarRef.hpp's
// update_observed_state.
func (c *Cell[V]) updateObserved() {
	newObserved := len(c.valueL) > 0
	if newObserved == c.observed {
		return
	}
	c.observed = newObserved
	if len(c.obsL) == 0 {
		return
	}
	snapshot := make([]observedListener, len(c.obsL))
	copy(snapshot, c.obsL)
	for _, l := range snapshot {
		if !c.alive.Load() {
			return
		}
		l.cb(newObserved)
	}
}

// ClearValueChanged removes all value-change listeners.
func (c *Cell[V]) ClearValueChanged() {
	c.valueL = nil
	c.updateObserved()
}

// ClearObservedChanged removes all observed-state listeners.
func (c *Cell[V]) ClearObservedChanged() {
	c.obsL = nil
}

// Destroy marks the cell as no longer alive; live subscription handles
// become no-ops on Unsubscribe, and any dispatch in progress stops
// after the current callback returns.
func (c *Cell[V]) Destroy() {
	c.alive.Store(false)
}

// ValueSubscription is a move-only-style handle returned by
// SubscribeValueChanged. Call Unsubscribe exactly once (further calls,
// or calls after the cell died, are no-ops).
type ValueSubscription[V any] struct {
	cell *Cell[V]
	id   ListenerID
	done bool
}

// Unsubscribe removes the subscription, if the cell is still alive and
// this handle has not already been used.
func (s *ValueSubscription[V]) Unsubscribe() {
	if s == nil || s.done {
		return
	}
	s.done = true
	if s.cell != nil && s.cell.alive.Load() {
		s.cell.unsubscribeValueChanged(s.id)
	}
}

// ObservedSubscription is the analogous handle for
// SubscribeObservedChanged.
type ObservedSubscription[V any] struct {
	cell *Cell[V]
	id   ListenerID
	done bool
}

// Unsubscribe removes the subscription, if the cell is still alive and
// this handle has not already been used.
func (s *ObservedSubscription[V]) Unsubscribe() {
	if s == nil || s.done {
		return
	}
	s.done = true
	if s.cell != nil && s.cell.alive.Load() {
		s.cell.unsubscribeObservedChanged(s.id)
	}
}
