package cell

// Derived is a Cell whose value is computed by at most one active
// Binder over other cells ("sources"). Rebinding requires an explicit
// Unbind first. This mirrors ReferenceVarRef.hpp's "exactly one binder
// at a time" contract.
type Derived[V any] struct {
	*Cell[V]
	binder Binder[V]
}

// NewDerived constructs an unbound Derived cell with the given initial
// value (visible until a binder is attached and recomputes it).
func NewDerived[V comparable](def V, opts ...Option[V]) (*Derived[V], error) {
	c, err := New(def, opts...)
	if err != nil {
		return nil, err
	}
	return &Derived[V]{Cell: c}, nil
}

// NewDerivedFunc is the NewDerived counterpart for non-comparable V.
func NewDerivedFunc[V any](def V, opts ...Option[V]) (*Derived[V], error) {
	c, err := NewFunc(def, opts...)
	if err != nil {
		return nil, err
	}
	return &Derived[V]{Cell: c}, nil
}

// Binder is the policy object owning a Derived's source subscriptions
// and recomputing its value. Concrete binders are constructed via the
// Bind* helpers below; user code rarely implements this interface
// directly.
type Binder[V any] interface {
	// OwnsSource reports whether src (a *Cell[S] for whatever source
	// type S the binder was constructed with) is one of this binder's
	// subscribed sources.
	OwnsSource(src any) bool
	// Close releases all of this binder's source subscriptions. It must
	// be idempotent.
	Close()
}

// Bound reports whether a binder is currently attached.
func (d *Derived[V]) Bound() bool { return d.binder != nil }

// Unbind releases the current binder iff it owns source (or if source
// is nil, releases unconditionally). Returns false if there is no
// active binder, or source does not belong to it.
func (d *Derived[V]) Unbind(source any) bool {
	if d.binder == nil {
		return false
	}
	if source != nil && !d.binder.OwnsSource(source) {
		return false
	}
	d.binder.Close()
	d.binder = nil
	return true
}

// bind installs b as the active binder, failing if one is already
// attached.
func (d *Derived[V]) bind(b Binder[V]) bool {
	if d.binder != nil {
		return false
	}
	d.binder = b
	return true
}

// set is the binder-facing setter; binders call this (never the
// embedded Cell's private setValue directly, since that's defined in a
// different file but same package — kept as a named indirection for
// clarity at call sites).
func (d *Derived[V]) set(v V) { d.Cell.setValue(v) }

// --- Single-source mirror binder ---

type mirrorBinder[V any] struct {
	source *Cell[V]
	sub    *ValueSubscription[V]
}

func (b *mirrorBinder[V]) OwnsSource(src any) bool {
	c, ok := src.(*Cell[V])
	return ok && c == b.source
}

func (b *mirrorBinder[V]) Close() { b.sub.Unsubscribe() }

// BindTo binds d to mirror source's value exactly. Returns false if d
// already has an active binder.
func BindTo[V any](d *Derived[V], source *Cell[V]) bool {
	b := &mirrorBinder[V]{source: source}
	if !d.bind(b) {
		return false
	}
	b.sub = source.SubscribeValueChanged(func(_, newValue V) {
		d.set(newValue)
	})
	d.set(source.Value())
	return true
}

// --- N-ary function binder ---

type funcBinder2[A, B, V any] struct {
	a, b   *Cell[A]
	srcB   *Cell[B]
	subA   *ValueSubscription[A]
	subB   *ValueSubscription[B]
	f      func(A, B) V
	owner  *Derived[V]
}

func (fb *funcBinder2[A, B, V]) OwnsSource(src any) bool {
	if c, ok := src.(*Cell[A]); ok && c == fb.a {
		return true
	}
	if c, ok := src.(*Cell[B]); ok && c == fb.srcB {
		return true
	}
	return false
}

func (fb *funcBinder2[A, B, V]) Close() {
	fb.subA.Unsubscribe()
	fb.subB.Unsubscribe()
}

// BindFunc2 binds d to f(a.Value(), b.Value()), recomputed whenever
// either source changes, mirroring ReferenceVarRef.hpp's FunctionBinder
// specialized to a common, concretely-typed arity of two.
func BindFunc2[A, B, V any](d *Derived[V], a *Cell[A], b *Cell[B], f func(A, B) V) bool {
	fb := &funcBinder2[A, B, V]{a: a, srcB: b, f: f, owner: d}
	if !d.bind(fb) {
		return false
	}
	recompute := func() { d.set(fb.f(fb.a.Value(), fb.srcB.Value())) }
	fb.subA = a.SubscribeValueChanged(func(_, _ A) { recompute() })
	fb.subB = b.SubscribeValueChanged(func(_, _ B) { recompute() })
	recompute()
	return true
}

type funcBinder1[A, V any] struct {
	a   *Cell[A]
	sub *ValueSubscription[A]
	f   func(A) V
}

func (fb *funcBinder1[A, V]) OwnsSource(src any) bool {
	c, ok := src.(*Cell[A])
	return ok && c == fb.a
}

func (fb *funcBinder1[A, V]) Close() { fb.sub.Unsubscribe() }

// BindFunc1 binds d to f(a.Value()), recomputed on every change of a.
// Distinct from BindTo in that V need not equal A.
func BindFunc1[A, V any](d *Derived[V], a *Cell[A], f func(A) V) bool {
	fb := &funcBinder1[A, V]{a: a, f: f}
	if !d.bind(fb) {
		return false
	}
	fb.sub = a.SubscribeValueChanged(func(_, newValue A) { d.set(fb.f(newValue)) })
	d.set(fb.f(a.Value()))
	return true
}

// --- General N-ary function binder ---

// funcBinderN generalizes funcBinder1/funcBinder2 to an arbitrary,
// homogeneously-typed source count, mirroring the arbitrary arity of
// ReferenceVarRef.hpp's variadic FunctionBinder<F, Ts...>. Go generics
// have no variadic type-parameter packs, so a heterogeneous per-source
// type signature isn't expressible without reflection; BindFunc1/2
// cover the common concretely-typed cases and BindFuncN covers the
// rest by asking sources to share a type, which is how the original's
// vector-valued call sites (aggregate, min/max) already use it.
type funcBinderN[A, V any] struct {
	sources []*Cell[A]
	subs    []*ValueSubscription[A]
	cache   []A
	f       func([]A) V
}

func (fb *funcBinderN[A, V]) OwnsSource(src any) bool {
	c, ok := src.(*Cell[A])
	if !ok {
		return false
	}
	for _, s := range fb.sources {
		if s == c {
			return true
		}
	}
	return false
}

func (fb *funcBinderN[A, V]) Close() {
	for _, s := range fb.subs {
		s.Unsubscribe()
	}
}

// BindFuncN binds d to f(slots), where slots holds the current value of
// each of sources (deduplicated, preserving first-seen order) and is
// refreshed in its corresponding slot whenever that source changes —
// the slice is never resized after binding, only its entries mutated,
// so f always sees every source's last known value per spec.md:84.
func BindFuncN[A, V any](d *Derived[V], sources []*Cell[A], f func([]A) V) bool {
	uniq := dedupSources(sources)
	fb := &funcBinderN[A, V]{sources: uniq, f: f, cache: make([]A, len(uniq))}
	if !d.bind(fb) {
		return false
	}
	for i, s := range uniq {
		fb.cache[i] = s.Value()
	}
	fb.subs = make([]*ValueSubscription[A], len(uniq))
	for i, s := range uniq {
		idx := i
		fb.subs[idx] = s.SubscribeValueChanged(func(_, newValue A) {
			fb.cache[idx] = newValue
			d.set(fb.f(fb.cache))
		})
	}
	d.set(fb.f(fb.cache))
	return true
}
