package cell

// Source wraps a Cell and exposes the writer-only SetValue operation,
// mirroring SourceVarRef.hpp's public set_value (VarRef itself keeps
// set_value protected). Most callers that own a mutable cell construct
// a Source; callers that only need read/subscribe access take the
// embedded *Cell[V].
type Source[V comparable] struct {
	*Cell[V]
}

// NewSource constructs a writable Cell.
func NewSource[V comparable](def V, opts ...Option[V]) (*Source[V], error) {
	c, err := New(def, opts...)
	if err != nil {
		return nil, err
	}
	return &Source[V]{Cell: c}, nil
}

// SetValue installs newValue, firing value-change listeners iff it
// differs (under Equals) from the current value.
func (s *Source[V]) SetValue(newValue V) { s.Cell.setValue(newValue) }

// Add is a convenience for numeric V: SetValue(Value() + delta).
func Add[V Number](s *Source[V], delta V) { s.SetValue(s.Value() + delta) }

// Number is the constraint used by Add and by the aggregate binder in
// aggregate.go. The min-max binders in minmax.go use
// constraints.Ordered instead.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
