package cell_test

import (
	"testing"

	"github.com/corvid-systems/go-semihsm/cell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSource[V comparable](t *testing.T, def V, opts ...cell.Option[V]) *cell.Source[V] {
	t.Helper()
	s, err := cell.NewSource(def, opts...)
	require.NoError(t, err)
	return s
}

func mustDerived[V comparable](t *testing.T, def V, opts ...cell.Option[V]) *cell.Derived[V] {
	t.Helper()
	d, err := cell.NewDerived(def, opts...)
	require.NoError(t, err)
	return d
}

func TestCell_SetValue_EqualityRespect(t *testing.T) {
	c := mustSource(t, 0)
	var fired int
	sub := c.SubscribeValueChanged(func(old, new int) { fired++ })
	defer sub.Unsubscribe()

	c.SetValue(5)
	require.Equal(t, 1, fired)
	c.SetValue(5)
	require.Equal(t, 1, fired, "re-setting the same value must not fire")
	c.SetValue(6)
	require.Equal(t, 2, fired)
}

func TestCell_ObservedBit_TracksSubscriptionCount(t *testing.T) {
	c := mustSource(t, "x")
	require.False(t, c.Observed())

	var transitions []bool
	osub := c.SubscribeObservedChanged(func(observed bool) {
		transitions = append(transitions, observed)
	})
	defer osub.Unsubscribe()

	sub1 := c.SubscribeValueChanged(func(_, _ string) {})
	require.True(t, c.Observed())

	sub2 := c.SubscribeValueChanged(func(_, _ string) {})
	require.True(t, c.Observed(), "still observed with 2 subscribers")

	sub1.Unsubscribe()
	require.True(t, c.Observed(), "still observed with 1 subscriber left")

	sub2.Unsubscribe()
	require.False(t, c.Observed())

	assert.Equal(t, []bool{true, false}, transitions, "only genuine 0<->1 transitions fire")
}

func TestCell_SnapshotBeforeIterate_AllowsUnsubscribeDuringDispatch(t *testing.T) {
	c := mustSource(t, 0)
	var calls []string
	var subB *cell.ValueSubscription[int]
	subA := c.SubscribeValueChanged(func(_, _ int) {
		calls = append(calls, "a")
		subB.Unsubscribe()
	})
	subB = c.SubscribeValueChanged(func(_, _ int) {
		calls = append(calls, "b")
	})
	defer subA.Unsubscribe()

	c.SetValue(1)
	// both fire for this dispatch since the listener list was snapshotted
	// before iteration began.
	require.Equal(t, []string{"a", "b"}, calls)

	calls = nil
	c.SetValue(2)
	// b was unsubscribed during the prior dispatch, so only a fires now.
	require.Equal(t, []string{"a"}, calls)
}

func TestDerived_BindTo_MirrorsSource(t *testing.T) {
	src := mustSource(t, 1)
	d := mustDerived(t, 0)
	require.True(t, cell.BindTo(d, src.Cell))
	require.Equal(t, 1, d.Value())

	src.SetValue(7)
	require.Equal(t, 7, d.Value())

	require.False(t, cell.BindTo(d, src.Cell), "cannot rebind without Unbind")
	require.True(t, d.Unbind(src.Cell))
	require.True(t, cell.BindTo(d, src.Cell))
}

func TestDerived_BindFunc2_RecomputesOnEitherSourceChange(t *testing.T) {
	a := mustSource(t, 1)
	b := mustSource(t, 2)
	sum := mustDerived(t, 0)
	require.True(t, cell.BindFunc2(sum, a.Cell, b.Cell, func(x, y int) int { return x + y }))
	require.Equal(t, 3, sum.Value())

	a.SetValue(10)
	require.Equal(t, 12, sum.Value())

	b.SetValue(5)
	require.Equal(t, 15, sum.Value())
}

func TestDerived_BindFuncN_RecomputesOnAnySourceChange(t *testing.T) {
	a := mustSource(t, 1)
	b := mustSource(t, 2)
	c := mustSource(t, 3)
	sum := mustDerived(t, 0)
	require.True(t, cell.BindFuncN(sum, []*cell.Cell[int]{a.Cell, b.Cell, c.Cell}, func(vals []int) int {
		total := 0
		for _, v := range vals {
			total += v
		}
		return total
	}))
	require.Equal(t, 6, sum.Value())

	b.SetValue(20)
	require.Equal(t, 24, sum.Value())

	c.SetValue(30)
	require.Equal(t, 51, sum.Value())
}

func TestDerived_BindFuncN_DedupesRepeatedSource(t *testing.T) {
	a := mustSource(t, 1)
	d := mustDerived(t, 0)
	require.True(t, cell.BindFuncN(d, []*cell.Cell[int]{a.Cell, a.Cell, a.Cell}, func(vals []int) int {
		return len(vals)
	}))
	require.Equal(t, 1, d.Value(), "identical source references must collapse to one slot")
}

func TestDerived_BindAggregate_IncrementalRunningTotal(t *testing.T) {
	s1 := mustSource(t, 1)
	s2 := mustSource(t, 2)
	s3 := mustSource(t, 3)
	total := mustDerived(t, 0)
	require.True(t, cell.BindAggregate(total, 0, func(v int) int { return v }, []*cell.Cell[int]{s1.Cell, s2.Cell, s3.Cell}))
	require.Equal(t, 6, total.Value())

	s2.SetValue(20)
	require.Equal(t, 24, total.Value())
}

func TestDerived_BindMinMax_Slim(t *testing.T) {
	sources := make([]*cell.Source[int], 5)
	refs := make([]*cell.Cell[int], 5)
	for i := range sources {
		sources[i] = mustSource(t, i)
		refs[i] = sources[i].Cell
	}
	min := mustDerived(t, 0)
	require.True(t, cell.BindMin(min, func(v int) int { return v }, refs))
	require.Equal(t, 0, min.Value())

	sources[0].SetValue(100)
	require.Equal(t, 1, min.Value(), "rescans when the incumbent stops being extreme")

	sources[4].SetValue(-5)
	require.Equal(t, -5, min.Value(), "O(1) improvement path")
}

func TestDerived_BindMinMax_HeapAboveThreshold(t *testing.T) {
	const n = 200
	sources := make([]*cell.Source[int], n)
	refs := make([]*cell.Cell[int], n)
	for i := range sources {
		sources[i] = mustSource(t, i)
		refs[i] = sources[i].Cell
	}
	max := mustDerived(t, 0)
	require.True(t, cell.BindMax(max, func(v int) int { return v }, refs))
	require.Equal(t, n-1, max.Value())

	sources[0].SetValue(n + 50)
	require.Equal(t, n+50, max.Value())

	sources[0].SetValue(-1)
	require.Equal(t, n-1, max.Value(), "re-sifts to find the next-largest root")
}

func TestDerived_Unbind_RejectsForeignSource(t *testing.T) {
	a := mustSource(t, 1)
	other := mustSource(t, 2)
	d := mustDerived(t, 0)
	require.True(t, cell.BindTo(d, a.Cell))
	require.False(t, d.Unbind(other.Cell), "Unbind must reject a source the current binder doesn't own")
	require.True(t, d.Unbind(a.Cell))
}
