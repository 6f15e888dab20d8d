package hsm

import (
	"sync/atomic"

	"github.com/corvid-systems/go-semihsm/internal/xerrors"
)

// Handler receives enter/exit callbacks for a State.
type Handler[I comparable] interface {
	OnEnter(s *State[I])
	OnExit(s *State[I])
}

// State is one node of the hierarchical state tree. Grounded on
// original_source/Tools/include/FiniteStateMachine/State/State.hpp.
//
// A *compound* state (constructed with ≥1 child) auto-creates two
// synthetic terminal children — entrance and exitus — both carrying the
// parent's own index, used as transient transition endpoints when a
// transition straddles the compound's boundary. A *terminal* state
// (constructed with no children) has current = entrance = exitus = self.
type State[I comparable] struct {
	index       I
	children    map[I]*State[I]
	childOrder  []I // insertion order, for deterministic iteration
	parent      *State[I]
	current     *State[I]
	entrance    *State[I]
	exitus      *State[I]
	entranceOwn *State[I] // non-nil only on the owning compound
	exitusOwn   *State[I]
	historyLeaf *State[I]
	terminal    bool
	running     atomic.Bool
	exiting     atomic.Bool
	handler     Handler[I]
	transitions []*Transition[I]
	Entered     func()
	Exited      func()
	machine     *Engine[I]
}

// NewState constructs a State tree rooted at index, with the given
// (possibly empty) owned children. A nil handler is permitted. Returns
// a *xerrors.ConfigError if a child already belongs to another tree, or
// if two children share an index.
func NewState[I comparable](index I, handler Handler[I], children ...*State[I]) (*State[I], error) {
	s := &State[I]{index: index, handler: handler}
	if len(children) == 0 {
		s.current, s.entrance, s.exitus = s, s, s
		s.terminal = true
		return s, nil
	}
	s.children = make(map[I]*State[I], len(children))
	for _, child := range children {
		if child == nil {
			continue
		}
		if child.parent != nil {
			return nil, xerrors.NewConfigError("NewState", "child already belongs to another state tree")
		}
		if _, exists := s.children[child.index]; exists {
			return nil, xerrors.NewConfigError("NewState", "duplicate child index")
		}
		child.parent = s
		s.children[child.index] = child
		s.childOrder = append(s.childOrder, child.index)
	}
	s.entranceOwn = &State[I]{index: index, parent: s}
	s.entranceOwn.current, s.entranceOwn.entrance, s.entranceOwn.exitus = s.entranceOwn, s.entranceOwn, s.entranceOwn
	s.entranceOwn.terminal = true
	s.entrance = s.entranceOwn

	s.exitusOwn = &State[I]{index: index, parent: s}
	s.exitusOwn.current, s.exitusOwn.entrance, s.exitusOwn.exitus = s.exitusOwn, s.exitusOwn, s.exitusOwn
	s.exitusOwn.terminal = true
	s.exitus = s.exitusOwn

	s.current = s.entrance
	s.terminal = false
	return s, nil
}

// MustNewState panics instead of returning an error.
func MustNewState[I comparable](index I, handler Handler[I], children ...*State[I]) *State[I] {
	s, err := NewState(index, handler, children...)
	if err != nil {
		panic(err)
	}
	return s
}

// Index returns this state's key.
func (s *State[I]) Index() I { return s.index }

// Parent returns the owning compound state, or nil at the root.
func (s *State[I]) Parent() *State[I] { return s.parent }

// Current returns the active child (self, for a terminal state).
func (s *State[I]) Current() *State[I] { return s.current }

// EntranceState returns the synthetic entrance substate (self, for a
// terminal state).
func (s *State[I]) EntranceState() *State[I] { return s.entrance }

// ExitusState returns the synthetic exitus substate (self, for a
// terminal state).
func (s *State[I]) ExitusState() *State[I] { return s.exitus }

// HistoryState returns the last-visited leaf for shallow-history
// recall, falling back to EntranceState if the compound has never
// exited.
func (s *State[I]) HistoryState() *State[I] {
	if s.historyLeaf != nil {
		return s.historyLeaf
	}
	return s.entrance
}

// Running reports whether Enter has been called without a matching Exit.
func (s *State[I]) Running() bool { return s.running.Load() }

// IsTerminal reports whether this state has no real children.
func (s *State[I]) IsTerminal() bool { return s.terminal }

// isEntranceState / isExitusState identify the synthetic perimeter
// states. AppendTransition's endpoint rewrite and updateCurrent's
// lift-to-parent rule compare against the entrance/exitus pointers
// directly and do not call these.
func (s *State[I]) isEntranceState() bool {
	return s.terminal && s.parent != nil && s == s.parent.entrance
}

func (s *State[I]) isExitusState() bool {
	return s.terminal && s.parent != nil && s == s.parent.exitus
}

// Child looks up a real (non-synthetic) child by index.
func (s *State[I]) Child(index I) (*State[I], bool) {
	c, ok := s.children[index]
	return c, ok
}

// attachMachine propagates the owning Engine to this state and its
// synthetic entrance/exitus children, following State::UpdateStateMachine.
func (s *State[I]) attachMachine(e *Engine[I]) {
	s.machine = e
	if s.exitusOwn != nil {
		s.exitusOwn.machine = e
	}
	if s.entranceOwn != nil {
		s.entranceOwn.machine = e
	}
}

// Enter implements State::Enter: idempotent; sets running; if it has a
// parent, makes itself the parent's current child and recurses into the
// parent; activates every outgoing transition; invokes handler/Entered;
// recurses into its own current child.
func (s *State[I]) Enter() {
	if s.running.Load() {
		return
	}
	s.running.Store(true)

	if s.parent != nil {
		s.parent.current = s
		s.parent.Enter()
	}

	for _, tr := range s.transitions {
		tr.enter()
	}

	if s.handler != nil {
		s.handler.OnEnter(s)
	}
	if s.Entered != nil {
		s.Entered()
	}

	s.current.Enter()
}

// Exit implements State::Exit: re-entrancy guarded via an atomic
// exchange; if compound, records the current deepest terminal
// descendant as the history leaf before descending; recurses into the
// current child; deactivates every outgoing transition; invokes
// handler/Exited; clears running.
func (s *State[I]) Exit() {
	if !s.running.Load() || s.exiting.Swap(true) {
		return
	}

	if !s.terminal && s.current != nil {
		leaf := s.current
		for leaf != nil && !leaf.terminal {
			leaf = leaf.current
		}
		if leaf != nil {
			s.historyLeaf = leaf
		} else {
			s.historyLeaf = s.entrance
		}
	}

	if s.current != nil {
		s.current.Exit()
	}

	for _, tr := range s.transitions {
		tr.exit()
	}

	if s.handler != nil {
		s.handler.OnExit(s)
	}
	if s.Exited != nil {
		s.Exited()
	}

	s.running.Store(false)
	s.exiting.Store(false)
}

// deepestTerminal walks current pointers from s to the first terminal
// descendant.
func deepestTerminal[I comparable](s *State[I]) *State[I] {
	for s != nil && !s.terminal {
		s = s.current
	}
	return s
}

// allStates walks the tree rooted at root (real states only, not the
// synthetic entrance/exitus owners), invoking visit on each.
func allStates[I comparable](root *State[I], visit func(*State[I])) {
	visit(root)
	for _, idx := range root.childOrder {
		allStates(root.children[idx], visit)
	}
}
