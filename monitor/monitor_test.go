package monitor_test

import (
	"testing"

	"github.com/corvid-systems/go-semihsm/cell"
	"github.com/corvid-systems/go-semihsm/monitor"
	"github.com/stretchr/testify/require"
)

func TestMonitor_RefCounting_ForcesUnfulfilledAtZero(t *testing.T) {
	var starts, stops int
	m := monitor.NewCustom(
		func(s monitor.Setter) { starts++; s.SetFulfilled(true) },
		func(s monitor.Setter) { stops++ },
	)
	require.False(t, m.Active())
	require.False(t, m.Fulfilled())

	m.Start()
	require.True(t, m.Active())
	require.True(t, m.Fulfilled())
	require.Equal(t, 1, starts)

	m.Start()
	require.Equal(t, 1, starts, "second Start must not re-run onStart")

	m.Stop()
	require.True(t, m.Active(), "still one outstanding Start")
	require.Equal(t, 0, stops)

	m.Stop()
	require.False(t, m.Active())
	require.False(t, m.Fulfilled(), "fulfilled forced false on deactivation")
	require.Equal(t, 1, stops)
}

func TestMonitor_SetFulfilled_NoOpWhileInactive(t *testing.T) {
	var setter monitor.Setter
	m := monitor.NewCustom(func(s monitor.Setter) { setter = s }, nil)
	m.Start()
	m.Stop()
	setter.SetFulfilled(true)
	require.False(t, m.Fulfilled(), "set_fulfilled is a no-op while count == 0")
}

func TestAnd_RequiresBothChildren(t *testing.T) {
	a := monitor.NewCustom(func(s monitor.Setter) { s.SetFulfilled(true) }, nil)
	b := monitor.NewCustom(func(s monitor.Setter) { s.SetFulfilled(false) }, nil)

	and, err := monitor.And(a, b)
	require.NoError(t, err)
	and.Start()
	require.False(t, and.Fulfilled())

	_, err = monitor.And(a, nil)
	require.Error(t, err)
}

func TestOrXor_Composition(t *testing.T) {
	mkSetter := func(initial bool) (monitor.Monitor, func(bool)) {
		var s monitor.Setter
		m := monitor.NewCustom(func(setter monitor.Setter) { s = setter; s.SetFulfilled(initial) }, nil)
		return m, func(v bool) { s.SetFulfilled(v) }
	}

	a, setA := mkSetter(false)
	b, setB := mkSetter(false)

	or := monitor.MustOr(a, b)
	or.Start()
	require.False(t, or.Fulfilled())
	setA(true)
	require.True(t, or.Fulfilled())

	a2, setA2 := mkSetter(true)
	b2, setB2 := mkSetter(false)
	xor := monitor.MustXor(a2, b2)
	xor.Start()
	require.True(t, xor.Fulfilled())
	setB2(true)
	require.False(t, xor.Fulfilled())
	setA2(false)
	require.True(t, xor.Fulfilled())
	_ = setB
}

func TestNot_DoubleNegationElimination(t *testing.T) {
	a := monitor.NewCustom(func(s monitor.Setter) { s.SetFulfilled(true) }, nil)
	notA := monitor.Not(a)
	require.NotSame(t, a, notA)

	doubleNot := monitor.Not(notA)
	require.Same(t, a, doubleNot, "Not(Not(x)) must return x itself")
}

func TestVarCompare_RecomputesOnCellChange(t *testing.T) {
	temp, err := cell.NewSource(20)
	require.NoError(t, err)
	hot := monitor.BiggerThan(temp.Cell, 100)
	hot.Start()
	require.False(t, hot.Fulfilled())

	temp.SetValue(150)
	require.True(t, hot.Fulfilled())

	temp.SetValue(50)
	require.False(t, hot.Fulfilled())
}

func TestVarCompare_CellToCell(t *testing.T) {
	left, err := cell.NewSource(1)
	require.NoError(t, err)
	right, err := cell.NewSource(10)
	require.NoError(t, err)
	m := monitor.VarCompareCells(left.Cell, right.Cell, func(a, b int) bool { return a >= b })
	m.Start()
	require.False(t, m.Fulfilled())
	right.SetValue(1)
	require.True(t, m.Fulfilled())
	left.SetValue(0)
	require.False(t, m.Fulfilled())
}
