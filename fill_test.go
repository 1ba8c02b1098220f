package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(t *testing.T, text string) SelectionRange {
	t.Helper()
	r, err := ParseRange(text)
	require.NoError(t, err)
	return r
}

func opRaws(ops []Operation) map[string]string {
	m := make(map[string]string)
	for _, op := range ops {
		a, _ := op.Addr()
		if op.Raw == nil {
			m[a.A1()] = "<nil>"
			continue
		}
		m[a.A1()] = *op.Raw
	}
	return m
}

func TestParseRange(t *testing.T) {
	assert := assert.New(t)
	r, err := ParseRange("B3:A1")
	assert.NoError(err)
	assert.Equal(SelectionRange{Start: Addr(2, 1), End: Addr(0, 0)}, r)
	assert.Equal("A1:B3", r.String())
	assert.Equal(3, r.Height())
	assert.Equal(2, r.Width())

	r, err = ParseRange("C4")
	assert.NoError(err)
	assert.True(r.IsSingleCell())
	assert.Equal("C4", r.String())

	for _, bad := range []string{"", "A1:", ":B2", "A1:b2", "A0:B1"} {
		_, err := ParseRange(bad)
		assert.ErrorIs(err, ErrInvalidReference, bad)
	}
}

func TestSelectionRange(t *testing.T) {
	assert := assert.New(t)
	r := rng(t, "C3:A1")
	assert.True(r.Contains(Addr(1, 1)))
	assert.True(r.Contains(Addr(2, 2)))
	assert.False(r.Contains(Addr(3, 0)))
	assert.True(r.SameArea(rng(t, "A1:C3")))
	assert.True(r.SameArea(rng(t, "A3:C1")))
	assert.False(r.SameArea(rng(t, "A1:C4")))

	s := NewSheet("s", "Sheet1", 50, 20)
	assert.Equal("A5:T5", RowSelection(s, 4).String())
	assert.Equal("C1:C50", ColumnSelection(s, 2).String())
}

func TestAdjustFormula(t *testing.T) {
	for name, tt := range map[string]struct {
		formula string
		dRow    int
		dCol    int
		expect  string
	}{
		"down":       {formula: "=A1", dRow: 1, expect: "=A2"},
		"right":      {formula: "=A1+B2", dCol: 2, expect: "=C1+D2"},
		"both":       {formula: "=Z9*2", dRow: -3, dCol: 1, expect: "=AA6*2"},
		"negative":   {formula: "=A1+B2", dRow: -1, dCol: -1, expect: "=A1+A1"},
		"text":       {formula: "A1", dRow: 1, expect: "A1"},
		"noref":      {formula: "=1+2", dRow: 5, dCol: 5, expect: "=1+2"},
		"lowercase":  {formula: "=a1+A1", dRow: 1, expect: "=a1+A2"},
		"multiwidth": {formula: "=AZ10", dCol: 1, expect: "=BA10"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expect, AdjustFormula(tt.formula, tt.dRow, tt.dCol))
		})
	}
}

func TestFillOperationsSeries(t *testing.T) {
	assert := assert.New(t)
	s := NewSheet("s", "Sheet1", 50, 20)
	set(t, s, "A1", "1")

	ops := FillOperations(s, rng(t, "A1"), rng(t, "A1:A3"))
	assert.Equal(map[string]string{"A2": "1", "A3": "1"}, opRaws(ops))
	for _, op := range ops {
		assert.Equal(OpSetCell, op.Type)
		assert.Equal("s", op.SheetID)
	}
}

func TestFillOperationsFormula(t *testing.T) {
	assert := assert.New(t)
	s := NewSheet("s", "Sheet1", 50, 20)
	set(t, s, "B2", "=A1")

	ops := FillOperations(s, rng(t, "B2"), rng(t, "B2:B3"))
	assert.Equal(map[string]string{"B3": "=A2"}, opRaws(ops))

	// Filling up and left moves references the same way; references that would leave the sheet
	// are kept.
	ops = FillOperations(s, rng(t, "B2"), rng(t, "A1:B2"))
	assert.Equal(map[string]string{"A1": "=A1", "B1": "=A1", "A2": "=A1"}, opRaws(ops))
}

func TestFillOperationsTiles(t *testing.T) {
	assert := assert.New(t)
	s := NewSheet("s", "Sheet1", 50, 20)
	set(t, s, "A1", "a")
	set(t, s, "A2", "b")
	set(t, s, "B1", "=A1")

	ops := FillOperations(s, rng(t, "A1:B2"), rng(t, "A1:B5"))
	assert.Equal(map[string]string{
		"A3": "a", "B3": "=A3",
		"A4": "b", "B4": "<nil>",
		"A5": "a", "B5": "=A5",
	}, opRaws(ops))

	// Backwards from the source wraps around too.
	set(t, s, "C5", "x")
	set(t, s, "C6", "y")
	ops = FillOperations(s, rng(t, "C5:C6"), rng(t, "C3:C6"))
	assert.Equal(map[string]string{"C3": "x", "C4": "y"}, opRaws(ops))
}

func TestFillOperationsSameArea(t *testing.T) {
	s := NewDemoSheet("s")
	assert.Nil(t, FillOperations(s, rng(t, "A1:A3"), rng(t, "A3:A1")))
}

func TestFillDrag(t *testing.T) {
	assert := assert.New(t)
	d := StartFill(rng(t, "B2"))
	_, _, ok := d.Commit()
	assert.False(ok)

	assert.Equal("B2:B5", d.Move(Addr(4, 2)).String())
	assert.Equal(LockRow, d.Lock)
	// The lock holds even when the pointer moves further sideways than down.
	assert.Equal("B2:B3", d.Move(Addr(2, 9)).String())

	src, dst, ok := d.Commit()
	assert.True(ok)
	assert.Equal("B2", src.String())
	assert.Equal("B2:B3", dst.String())
	assert.Equal(LockNone, d.Lock)
	assert.Nil(d.Preview)

	assert.Equal("A2:B2", d.Move(Addr(1, 0)).String())
	assert.Equal(LockCol, d.Lock)
}
