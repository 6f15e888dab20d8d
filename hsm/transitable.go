// Package hsm implements the hierarchical state machine: the State
// tree with synthetic entrance/exitus substates and shallow history
// recall, Transition (self/cross/machine-enter-exit variants), and
// Engine, the transition engine that drains a set of newly-unblocked
// transitions to a stable quiescent configuration.
//
// Grounded on original_source/Tools/include/FiniteStateMachine/*.hpp —
// FSM.hpp, State/State.hpp, Transitables/Transitable.hpp,
// Transitables/StateMachineEnterExitTransitable.hpp,
// Transition/Transition.hpp, Transition/SelfTransition.hpp and
// Transition/CrossBranchingTransition.hpp — translated member-for-member.
package hsm

// Transitable is a blockable, fireable unit with a blocked bit and a
// blocked-change listener set; both Transition and the synthetic
// machine-enter/exit transitable implement it. Grounded on
// Transitables/Transitable.hpp.
type Transitable interface {
	// Blocked reports the current blocked bit. A Transitable is only
	// eligible to fire while unblocked (Blocked() == false).
	Blocked() bool
	// transit performs the actual firing logic; called by Engine only
	// for a Transitable currently in its pending-unblocked set.
	transit(e transitEngine)
}

// transitEngine is the narrow surface a Transitable's transit needs from
// the owning Engine, kept unexported so user code never calls it
// directly (only Engine.tryDrain drives firing).
type transitEngine interface {
	updateCurrent()
	flushPending()
}

// blockedChangeFunc is invoked whenever a transitable's blocked bit
// flips, with the new value.
type blockedChangeFunc func(blocked bool)

// transitableBase is the shared blocked-bit/listener machinery, embedded
// by both Transition and the synthetic machine-enter/exit transitable.
// Default blocked state is true (dormant), mirroring Transitable.hpp's
// block_{true} default.
type transitableBase struct {
	blocked   bool
	listeners []blockedChangeFunc
}

func newTransitableBase() transitableBase {
	return transitableBase{blocked: true}
}

// Blocked reports the current blocked bit.
func (t *transitableBase) Blocked() bool { return t.blocked }

// setBlocked installs v, notifying a snapshot of listeners only if it
// actually changes — mirroring Transitable::set_blocked.
func (t *transitableBase) setBlocked(v bool) {
	if t.blocked == v {
		return
	}
	t.blocked = v
	if len(t.listeners) == 0 {
		return
	}
	snapshot := make([]blockedChangeFunc, len(t.listeners))
	copy(snapshot, t.listeners)
	for _, l := range snapshot {
		l(v)
	}
}

// onBlockedChange registers a listener for blocked-bit flips; used
// internally by Engine to track the pending-unblocked set. There's no
// public removal handle since only Engine ever subscribes, for the
// lifetime of the owning Transitable.
func (t *transitableBase) onBlockedChange(cb blockedChangeFunc) {
	t.listeners = append(t.listeners, cb)
}
