package cell

import "golang.org/x/exp/constraints"

// minMaxHeapSlimThreshold is the source-count boundary at which
// BindMinMaxAuto switches from the slim linear-rescan implementation to
// the binary-heap implementation, matching
// ReferenceVarRef.hpp's kMinMaxHeapSlimThreshold.
const minMaxHeapSlimThreshold = 127

// isMoreExtreme reports whether a is "more extreme" than b for the
// requested direction: for min, more extreme means smaller; for max,
// more extreme means larger.
func isMoreExtreme[V constraints.Ordered](a, b V, isMin bool) bool {
	if isMin {
		return a < b
	}
	return a > b
}

// --- Slim binder: O(1) on improvement, linear rescan on the incumbent
// becoming non-extreme. Grounded on MinMaxBinderSlim<T,Comparator>. ---

type minMaxSlimBinder[S any, V constraints.Ordered] struct {
	sources  []*Cell[S]
	subs     []*ValueSubscription[S]
	selector func(S) V
	isMin    bool
	best     *Cell[S] // the source currently holding the extreme value, or nil
}

func (b *minMaxSlimBinder[S, V]) OwnsSource(src any) bool {
	c, ok := src.(*Cell[S])
	if !ok {
		return false
	}
	for _, s := range b.sources {
		if s == c {
			return true
		}
	}
	return false
}

func (b *minMaxSlimBinder[S, V]) Close() {
	for _, s := range b.subs {
		s.Unsubscribe()
	}
}

func (b *minMaxSlimBinder[S, V]) rescan(owner *Derived[V]) {
	if len(b.sources) == 0 {
		b.best = nil
		return
	}
	best := b.sources[0]
	bestVal := b.selector(best.Value())
	for _, s := range b.sources[1:] {
		v := b.selector(s.Value())
		if isMoreExtreme(v, bestVal, b.isMin) {
			best = s
			bestVal = v
		}
	}
	b.best = best
	owner.set(bestVal)
}

func (b *minMaxSlimBinder[S, V]) onChange(owner *Derived[V], src *Cell[S], newValue S) {
	newVal := b.selector(newValue)
	if b.best == nil {
		b.best = src
		owner.set(newVal)
		return
	}
	if isMoreExtreme(newVal, owner.Value(), b.isMin) {
		// the new value strictly beats the current incumbent: it
		// becomes the new best in O(1).
		b.best = src
		owner.set(newVal)
		return
	}
	if src == b.best {
		// the incumbent's own value changed but is no longer (at least
		// as) extreme as before; it may no longer be the overall best,
		// so fall back to a full linear rescan.
		b.rescan(owner)
	}
}

// --- Heap binder: binary heap keyed by selector(value), sifted on
// change. Grounded on MinMaxBinder<T,Comparator>. ---

type minMaxHeapBinder[S any, V constraints.Ordered] struct {
	sources  []*Cell[S]
	subs     []*ValueSubscription[S]
	selector func(S) V
	isMin    bool
	heap     []*Cell[S]
	index    map[*Cell[S]]int
}

func (b *minMaxHeapBinder[S, V]) OwnsSource(src any) bool {
	c, ok := src.(*Cell[S])
	if !ok {
		return false
	}
	_, found := b.index[c]
	return found
}

func (b *minMaxHeapBinder[S, V]) Close() {
	for _, s := range b.subs {
		s.Unsubscribe()
	}
}

func (b *minMaxHeapBinder[S, V]) less(i, j int) bool {
	return isMoreExtreme(b.selector(b.heap[i].Value()), b.selector(b.heap[j].Value()), b.isMin)
}

func (b *minMaxHeapBinder[S, V]) swap(i, j int) {
	b.heap[i], b.heap[j] = b.heap[j], b.heap[i]
	b.index[b.heap[i]] = i
	b.index[b.heap[j]] = j
}

func (b *minMaxHeapBinder[S, V]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !b.less(i, parent) {
			return
		}
		b.swap(i, parent)
		i = parent
	}
}

func (b *minMaxHeapBinder[S, V]) siftDown(i int) {
	n := len(b.heap)
	for {
		l, r := 2*i+1, 2*i+2
		best := i
		if l < n && b.less(l, best) {
			best = l
		}
		if r < n && b.less(r, best) {
			best = r
		}
		if best == i {
			return
		}
		b.swap(i, best)
		i = best
	}
}

func (b *minMaxHeapBinder[S, V]) build(owner *Derived[V]) {
	for i := len(b.heap)/2 - 1; i >= 0; i-- {
		b.siftDown(i)
	}
	if len(b.heap) > 0 {
		owner.set(b.selector(b.heap[0].Value()))
	}
}

func (b *minMaxHeapBinder[S, V]) onChange(owner *Derived[V], src *Cell[S]) {
	i, ok := b.index[src]
	if !ok {
		return
	}
	b.siftUp(i)
	b.siftDown(i)
	// Cell.setValue's equality check suppresses the notification when
	// the root's extreme value is unchanged, so it's safe to always
	// reassert it here rather than track whether the root identity or
	// just its value moved.
	owner.set(b.selector(b.heap[0].Value()))
}

// BindMinMaxAuto dedupes sources, then binds d to the running
// minimum (isMin=true) or maximum (isMin=false) of selector(source),
// choosing the slim linear-rescan implementation at or below
// minMaxHeapSlimThreshold sources, and the binary-heap implementation
// above it.
func BindMinMaxAuto[S any, V constraints.Ordered](d *Derived[V], selector func(S) V, isMin bool, sources []*Cell[S]) bool {
	uniq := dedupSources(sources)
	if len(uniq) <= minMaxHeapSlimThreshold {
		b := &minMaxSlimBinder[S, V]{sources: uniq, selector: selector, isMin: isMin}
		if !d.bind(b) {
			return false
		}
		b.subs = make([]*ValueSubscription[S], len(uniq))
		for idx, s := range uniq {
			s := s
			b.subs[idx] = s.SubscribeValueChanged(func(_, newValue S) {
				b.onChange(d, s, newValue)
			})
		}
		b.rescan(d)
		return true
	}

	b := &minMaxHeapBinder[S, V]{selector: selector, isMin: isMin, heap: append([]*Cell[S]{}, uniq...), index: make(map[*Cell[S]]int, len(uniq))}
	for i, s := range b.heap {
		b.index[s] = i
	}
	if !d.bind(b) {
		return false
	}
	b.subs = make([]*ValueSubscription[S], len(uniq))
	for idx, s := range uniq {
		s := s
		b.subs[idx] = s.SubscribeValueChanged(func(_, _ S) {
			b.onChange(d, s)
		})
	}
	b.build(d)
	return true
}

// BindMin is BindMinMaxAuto with isMin=true.
func BindMin[S any, V constraints.Ordered](d *Derived[V], selector func(S) V, sources []*Cell[S]) bool {
	return BindMinMaxAuto(d, selector, true, sources)
}

// BindMax is BindMinMaxAuto with isMin=false.
func BindMax[S any, V constraints.Ordered](d *Derived[V], selector func(S) V, sources []*Cell[S]) bool {
	return BindMinMaxAuto(d, selector, false, sources)
}
