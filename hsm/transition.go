package hsm

import (
	"sync/atomic"

	"github.com/corvid-systems/go-semihsm/monitor"
)

// transKind distinguishes the two concrete Transition shapes, following
// the same tagged-variant shape monitor.binary uses for And/Or/Xor —
// Go has no virtual dispatch, so the self vs. cross-branching behavior
// that Transition.hpp/SelfTransition.hpp/CrossBranchingTransition.hpp
// split across a class hierarchy lives here as a switch in transit.
type transKind int

const (
	transKindSelf transKind = iota
	transKindCross
)

// Transition holds a departure/destination pair, an optional guard
// Monitor, an action callback, and a history-recall flag. It is a
// Transitable: blocked by default, unblocked only while its guard (if
// any) is both active and fulfilled. Grounded on
// Transition/Transition.hpp, Transition/SelfTransition.hpp and
// Transition/CrossBranchingTransition.hpp.
type Transition[I comparable] struct {
	transitableBase
	kind         transKind
	departure    *State[I]
	destination  *State[I]
	branching    *State[I] // LCA; cross-branching only
	destRoot     *State[I] // original destination, before any LCA rewrite; cross-branching only
	enterTarget  *State[I] // entering_destination_: the "to" index reported to handler; cross-branching only
	guard        monitor.Monitor
	handler      func(from, to I)
	enterHistory bool
	entered      atomic.Bool
	guardSub     *monitor.Subscription
}

// Departure returns the state this transition fires from (after any
// LCA-driven endpoint rewrite).
func (t *Transition[I]) Departure() *State[I] { return t.departure }

// Destination returns the state this transition settles at (after any
// LCA-driven endpoint rewrite).
func (t *Transition[I]) Destination() *State[I] { return t.destination }

// enter activates the guard subscription; idempotent. Mirrors
// Transition::enter.
func (t *Transition[I]) enter() {
	if t.entered.Swap(true) {
		return
	}
	if t.guard == nil {
		t.setBlocked(false)
		return
	}
	t.guard.Start()
	t.guardSub = t.guard.Subscribe(func(fulfilled bool) {
		t.setBlocked(!fulfilled)
	})
	if t.guard.Fulfilled() {
		t.setBlocked(false)
	}
}

// exit tears down the guard subscription and re-blocks; idempotent.
// Mirrors Transition::exit.
func (t *Transition[I]) exit() {
	if !t.entered.Swap(false) {
		return
	}
	t.setBlocked(true)
	if t.guard != nil {
		t.guardSub.Unsubscribe()
		t.guard.Stop()
	}
}

// transit fires the transition: exit the vacated branch, run the
// handler, enter the target branch, then ask the engine to resettle
// Current and drain whatever newly unblocked. Called by Engine only
// while this Transitable sits in the pending-unblocked set.
func (t *Transition[I]) transit(e transitEngine) {
	switch t.kind {
	case transKindSelf:
		t.transitSelf(e)
	case transKindCross:
		t.transitCross(e)
	}
}

func (t *Transition[I]) transitSelf(e transitEngine) {
	t.setBlocked(true)

	target := t.departure
	target.Exit()
	if t.handler != nil {
		t.handler(target.index, target.index)
	}

	var enterTarget *State[I]
	if t.enterHistory {
		enterTarget = target.HistoryState()
	} else {
		enterTarget = target.EntranceState()
	}
	enterTarget.Enter()

	if target.machine != nil {
		if leaf := deepestTerminal(enterTarget); leaf != nil && leaf.index != target.index {
			target.machine.notifyTransition(target.index, leaf.index)
		}
	}

	e.updateCurrent()
	e.flushPending()
}

func (t *Transition[I]) transitCross(e transitEngine) {
	t.setBlocked(true)

	vacated := t.branching.current
	vacated.Exit()

	if t.handler != nil {
		t.handler(vacated.index, t.enterTarget.index)
	}

	var enterRoot *State[I]
	if t.enterHistory {
		enterRoot = t.destRoot.HistoryState()
	} else {
		enterRoot = t.destRoot.EntranceState()
	}
	enterRoot.Enter()

	e.updateCurrent()
	e.flushPending()
}
