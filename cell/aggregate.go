package cell

// aggregateBinder implements the incremental running-aggregate binder:
// value = value + selector(new) - selector(old), grounded on
// ReferenceVarRef.hpp's AggregateBinder<T,TSource>. V must support +
// and -, modeled via the Number constraint.
type aggregateBinder[S any, V Number] struct {
	sources  []*Cell[S]
	subs     []*ValueSubscription[S]
	selector func(S) V
	owner    *Derived[V]
}

func (b *aggregateBinder[S, V]) OwnsSource(src any) bool {
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

func (b *aggregateBinder[S, V]) Close() {
	for _, s := range b.subs {
		s.Unsubscribe()
	}
}

// dedupSources collapses identical pointers, preserving first-seen
// order, and drops nils — mirroring ReferenceVarRef.hpp's dedup_sources.
func dedupSources[S any](sources []*Cell[S]) []*Cell[S] {
	seen := make(map[*Cell[S]]bool, len(sources))
	out := make([]*Cell[S], 0, len(sources))
	for _, s := range sources {
		if s == nil || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// BindAggregate binds d to seed plus the sum of selector(source.Value())
// over all (deduplicated) sources, recomputed incrementally on each
// source change rather than by a full rescan.
func BindAggregate[S any, V Number](d *Derived[V], seed V, selector func(S) V, sources []*Cell[S]) bool {
	uniq := dedupSources(sources)
	b := &aggregateBinder[S, V]{sources: uniq, selector: selector, owner: d}
	if !d.bind(b) {
		return false
	}
	total := seed
	for _, s := range uniq {
		total += selector(s.Value())
	}
	b.subs = make([]*ValueSubscription[S], len(uniq))
	for i, s := range uniq {
		b.subs[i] = s.SubscribeValueChanged(func(old, new S) {
			d.set(d.Value() + selector(new) - selector(old))
		})
	}
	d.set(total)
	return true
}
