package hsm

import (
	"github.com/corvid-systems/go-semihsm/internal/telemetry"
	"github.com/corvid-systems/go-semihsm/internal/xerrors"
	"github.com/corvid-systems/go-semihsm/monitor"
	"github.com/joeycumines/logiface"
)

// Engine is the transition engine ("FSM" in the original): it owns a
// State tree, drains newly-unblocked transitions to a stable quiescent
// configuration, and publishes net state-index changes to subscribers.
// Grounded on original_source/Tools/include/FiniteStateMachine/FSM.hpp.
//
// An Engine is built once over a fully-assembled State tree (AppendTransition
// may only be called before Start); it is not safe for concurrent use
// by more than one goroutine — see SPEC_FULL.md's concurrency model,
// which funnels multi-producer event delivery through the queue/future/pool
// packages rather than through Engine itself.
type Engine[I comparable] struct {
	root       *State[I]
	states     map[I]*State[I]
	current    *State[I]
	running    bool
	transiting bool

	pendingOrder []Transitable
	pendingSet   map[Transitable]struct{}

	enterExit *machineTransitable[I]

	nextID    uint64
	listeners []transitionListener[I]

	log telemetry.Sink
}

type transitionListener[I comparable] struct {
	id uint64
	cb func(from, to I)
}

// Subscription is a handle for an Engine transition-occurred
// subscription.
type Subscription[I comparable] struct {
	e    *Engine[I]
	id   uint64
	done bool
}

// Unsubscribe removes the subscription; idempotent.
func (s *Subscription[I]) Unsubscribe() {
	if s == nil || s.done || s.e == nil {
		return
	}
	s.done = true
	e := s.e
	for i, l := range e.listeners {
		if l.id == s.id {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			return
		}
	}
}

// Option configures an Engine at construction time, grounded on
// eventloop/options.go's LoopOption interface.
type Option[I comparable] interface {
	apply(*options[I]) error
}

type options[I comparable] struct {
	log telemetry.Sink
}

type optionFunc[I comparable] func(*options[I]) error

func (f optionFunc[I]) apply(o *options[I]) error { return f(o) }

// WithLogger attaches a diagnostic sink; nil is ignored (the default
// remains a no-op sink).
func WithLogger[I comparable](sink telemetry.Sink) Option[I] {
	return optionFunc[I](func(o *options[I]) error {
		if sink != nil {
			o.log = sink
		}
		return nil
	})
}

// resolveOptions applies opts in order, skipping nils and surfacing the
// first error, mirroring eventloop/options.go's resolveLoopOptions.
func resolveOptions[I comparable](opts []Option[I]) (*options[I], error) {
	o := &options[I]{log: telemetry.NoOp}
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

// machineTransitable is the synthetic start/stop Transitable every
// Engine owns internally, grounded on
// Transitables/StateMachineEnterExitTransitable.hpp. It drives the
// root's Enter/Exit when Start/Stop unblocks it.
type machineTransitable[I comparable] struct {
	transitableBase
	engine       *Engine[I]
	isEntering   bool
	enterHistory bool
}

func (m *machineTransitable[I]) transit(e transitEngine) {
	m.setBlocked(true)
	if m.isEntering {
		if m.enterHistory {
			m.engine.root.Enter()
		} else {
			m.engine.root.EntranceState().Enter()
		}
	} else {
		m.engine.root.Exit()
	}
	e.updateCurrent()
}

// NewEngine builds an Engine over root and every state reachable
// through its (real, non-synthetic) children. Returns a *xerrors.ConfigError
// if root is nil or if any reachable state already belongs to another
// Engine.
func NewEngine[I comparable](root *State[I], opts ...Option[I]) (*Engine[I], error) {
	if root == nil {
		return nil, xerrors.NewConfigError("NewEngine", "root state is nil")
	}

	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	e := &Engine[I]{
		states:     make(map[I]*State[I]),
		pendingSet: make(map[Transitable]struct{}),
		log:        o.log,
	}

	var attachErr error
	allStates(root, func(s *State[I]) {
		if attachErr != nil {
			return
		}
		if s.machine != nil {
			attachErr = xerrors.NewConfigError("NewEngine", "state already belongs to another engine")
			return
		}
		s.attachMachine(e)
		e.states[s.index] = s
	})
	if attachErr != nil {
		return nil, attachErr
	}

	e.root = root
	e.enterExit = &machineTransitable[I]{transitableBase: newTransitableBase(), engine: e}
	e.enterExit.onBlockedChange(func(blocked bool) { e.onBlockedChange(e.enterExit, blocked) })
	return e, nil
}

// Root returns the state tree's root.
func (e *Engine[I]) Root() *State[I] { return e.root }

// Current returns the deepest quiescent state reached by the last
// drain, or nil before the first Start.
func (e *Engine[I]) Current() *State[I] { return e.current }

// Running reports whether Start has been called without a matching Stop.
func (e *Engine[I]) Running() bool { return e.running }

// Subscribe registers cb to fire whenever Current's index changes (not
// fired for transitions between two states that share an index, e.g.
// settling at a compound's perimeter).
func (e *Engine[I]) Subscribe(cb func(from, to I)) *Subscription[I] {
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, transitionListener[I]{id: id, cb: cb})
	return &Subscription[I]{e: e, id: id}
}

func (e *Engine[I]) notifyTransition(from, to I) {
	if len(e.listeners) == 0 {
		return
	}
	snapshot := make([]transitionListener[I], len(e.listeners))
	copy(snapshot, e.listeners)
	for _, l := range snapshot {
		l.cb(from, to)
	}
}

// Start unblocks the synthetic enter transitable, driving the root
// into its default (or history) configuration. A no-op if already
// running.
func (e *Engine[I]) Start(enterHistory bool) {
	if e.running {
		return
	}
	e.running = true

	if e.root.Running() {
		e.enterExit.setBlocked(true)
		return
	}

	e.enterExit.enterHistory = enterHistory
	e.enterExit.isEntering = true
	e.enterExit.setBlocked(false)
}

// Stop unblocks the synthetic exit transitable, draining the root back
// to quiescence. A no-op if not running.
func (e *Engine[I]) Stop() {
	if !e.running {
		return
	}
	e.running = false

	if !e.root.Running() {
		e.enterExit.setBlocked(true)
		return
	}

	e.enterExit.isEntering = false
	e.enterExit.setBlocked(false)
}

// AppendTransition wires a guarded transition from departure to
// destination. departure == destination builds a self-transition
// (always re-entering the same state, optionally recalling history).
// Otherwise a cross-branching transition is built: the lowest common
// ancestor (LCA) of departure and destination is computed, and its
// result determines which endpoint is rewritten to a synthetic
// entrance/exitus substate (see the note below). Must be
// called before Start; returns a *xerrors.ConfigError otherwise, or if
// either index is unknown, or if the two states are disjoint.
//
// When the LCA coincides with the destination, the original algorithm
// rewrites the destination to depart_state.ExitusState() — the
// *departure* side's exitus, not the destination's. This is correct,
// not a transcription error: the destination being an ancestor of the
// departure means the transition is "exit up to (but not including)
// the destination, then settle at its perimeter", and the exitus
// substate modeling "the perimeter of the subtree being vacated" is
// defined on whichever side is being exited — the departure branch.
func (e *Engine[I]) AppendTransition(departure, destination I, guard monitor.Monitor, handler func(from, to I), enterHistory bool) error {
	if e.running {
		return xerrors.NewConfigError("AppendTransition", "cannot append a transition while the engine is running")
	}

	if departure == destination {
		state, ok := e.states[departure]
		if !ok {
			return xerrors.NewConfigError("AppendTransition", "departure state not found")
		}
		t := &Transition[I]{
			transitableBase: newTransitableBase(),
			kind:            transKindSelf,
			departure:       state,
			destination:     state,
			guard:           guard,
			handler:         handler,
			enterHistory:    enterHistory,
		}
		t.onBlockedChange(func(blocked bool) { e.onBlockedChange(t, blocked) })
		state.transitions = append(state.transitions, t)
		return nil
	}

	departState, ok := e.states[departure]
	if !ok {
		return xerrors.NewConfigError("AppendTransition", "departure state not found")
	}
	destState, ok := e.states[destination]
	if !ok {
		return xerrors.NewConfigError("AppendTransition", "destination state not found")
	}

	lca, err := findLCA(departState, destState)
	if err != nil {
		return xerrors.WrapConfigError("AppendTransition", "departure and destination are not in the same tree", err)
	}

	destRoot := destState
	branchDepart := departState
	branchDest := destState
	switch lca {
	case departState:
		branchDepart = departState.EntranceState()
	case destState:
		branchDest = departState.ExitusState()
	}

	var enterTarget *State[I]
	if enterHistory {
		enterTarget = destRoot
	} else {
		enterTarget = destRoot.EntranceState()
	}

	t := &Transition[I]{
		transitableBase: newTransitableBase(),
		kind:            transKindCross,
		departure:       branchDepart,
		destination:     branchDest,
		branching:       lca,
		destRoot:        destRoot,
		enterTarget:     enterTarget,
		guard:           guard,
		handler:         handler,
		enterHistory:    enterHistory,
	}
	t.onBlockedChange(func(blocked bool) { e.onBlockedChange(t, blocked) })
	branchDepart.transitions = append(branchDepart.transitions, t)
	return nil
}

func findLCA[I comparable](departure, destination *State[I]) (*State[I], error) {
	var departChain, destChain []*State[I]
	for s := departure; s != nil; s = s.parent {
		departChain = append(departChain, s)
	}
	for s := destination; s != nil; s = s.parent {
		destChain = append(destChain, s)
	}
	reverseStates(departChain)
	reverseStates(destChain)

	var lca *State[I]
	for i := 0; i < len(departChain) && i < len(destChain); i++ {
		if departChain[i] != destChain[i] {
			break
		}
		lca = departChain[i]
	}
	if lca == nil {
		return nil, xerrors.NewConfigError("findLCA", "departure and destination are not in the same tree")
	}
	return lca, nil
}

func reverseStates[I comparable](s []*State[I]) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// onBlockedChange is the engine-wide callback wired into every
// Transitable (Transition and the synthetic enter/exit transitable):
// it maintains the ordered pending-unblocked set and drives draining.
// Grounded on FSM::OnBlockStateChange.
func (e *Engine[I]) onBlockedChange(t Transitable, blocked bool) {
	if blocked {
		e.removePending(t)
		return
	}
	if _, ok := e.pendingSet[t]; ok {
		return
	}
	e.pendingSet[t] = struct{}{}
	e.pendingOrder = append(e.pendingOrder, t)
	e.tryDrain()
}

func (e *Engine[I]) removePending(t Transitable) {
	if _, ok := e.pendingSet[t]; !ok {
		return
	}
	delete(e.pendingSet, t)
	for i, p := range e.pendingOrder {
		if p == t {
			e.pendingOrder = append(e.pendingOrder[:i], e.pendingOrder[i+1:]...)
			break
		}
	}
}

// tryDrain fires every pending-unblocked Transitable, in the order it
// became unblocked, until the pending set runs dry. Re-entrancy safe:
// a transit() firing mid-drain that causes further onBlockedChange
// calls just grows pendingOrder, which this same loop keeps consuming;
// a transit() firing from outside an active drain (e.g. a guard
// fulfilled asynchronously) starts a fresh loop since transiting was
// false. Grounded on FSM::TryHandlePaddingTransitions.
func (e *Engine[I]) tryDrain() {
	if e.transiting {
		return
	}
	e.transiting = true
	fired := 0
	for len(e.pendingOrder) > 0 {
		t := e.pendingOrder[0]
		e.pendingOrder = e.pendingOrder[1:]
		delete(e.pendingSet, t)
		t.transit(e)
		fired++
	}
	e.transiting = false
	if fired > 0 && e.log.Enabled(logiface.LevelDebug) {
		e.log.Log(logiface.LevelDebug, "drain cascade settled", "fired", fired)
	}
}

// flushPending implements transitEngine; called by a Transitable after
// it fires, to re-enter the drain loop if one isn't already active.
// During an active drain this is a guarded no-op (transiting is
// already true), matching FSM::FlushPendingTransitions's call from
// inside Transit().
func (e *Engine[I]) flushPending() { e.tryDrain() }

// updateCurrent recomputes Current by walking the deepest terminal
// descendant from root, lifting a synthetic entrance/exitus hit back
// to its owning compound, and notifies subscribers only on a genuine
// index change. Grounded on FSM::UpdateCurrentState.
func (e *Engine[I]) updateCurrent() {
	if e.root == nil {
		return
	}
	state := deepestTerminal(e.root)
	if state == nil {
		return
	}
	if state.parent != nil && (state == state.parent.entrance || state == state.parent.exitus) {
		state = state.parent
	}

	old := e.root.index
	if e.current != nil {
		old = e.current.index
	}

	if e.current == state {
		return
	}
	e.current = state

	if old == state.index {
		return
	}
	if e.log.Enabled(logiface.LevelDebug) {
		e.log.Log(logiface.LevelDebug, "current state changed")
	}
	e.notifyTransition(old, state.index)
}
