package sheet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func rawSnapshot(s *Sheet) map[CellAddress]string {
	m := make(map[CellAddress]string)
	for _, c := range s.Cells() {
		if c.Raw != nil {
			m[c.Addr] = *c.Raw
		}
	}
	return m
}

func TestApplySetCell(t *testing.T) {
	assert := assert.New(t)
	s := NewDemoSheet("s")

	Apply(s, SetCell("s", Addr(0, 0), Raw("10")))
	assert.Equal("10", *s.RawAt(Addr(0, 0)))
	assert.Equal(10.0, s.ValueAt(Addr(0, 0)))
	assert.Equal(12.0, s.ValueAt(Addr(2, 0)))

	Apply(s, SetCell("s", Addr(0, 0), nil))
	assert.Nil(s.RawAt(Addr(0, 0)))
	assert.Equal(KindEmpty, s.CellAt(Addr(0, 0)).Kind)
	assert.Equal(2.0, s.ValueAt(Addr(2, 0)))
}

func TestApplyClearCell(t *testing.T) {
	assert := assert.New(t)
	s := NewDemoSheet("s")

	Apply(s, ClearCell("s", Addr(1, 0)))
	assert.Nil(s.RawAt(Addr(1, 0)))
	assert.NotNil(s.CellAt(Addr(1, 0)))
	assert.Equal(1.0, s.ValueAt(Addr(2, 0)))
}

func TestApplyRowZero(t *testing.T) {
	assert := assert.New(t)
	s := NewSheet("s", "Sheet1", 10, 10)
	op := Operation{Type: OpSetCell, SheetID: "s", Row: intp(0), Col: intp(0), Raw: Raw("x")}
	Apply(s, op)
	assert.Equal("x", *s.RawAt(Addr(0, 0)))

	data, err := json.Marshal(op)
	if !assert.NoError(err) {
		return
	}
	assert.JSONEq(`{"type":"setCell","sheetId":"s","row":0,"col":0,"raw":"x"}`, string(data))
}

func TestApplySkipsIncomplete(t *testing.T) {
	for name, op := range map[string]Operation{
		"set/norow":   {Type: OpSetCell, SheetID: "s", Col: intp(0), Raw: Raw("x")},
		"set/nocol":   {Type: OpSetCell, SheetID: "s", Row: intp(0), Raw: Raw("x")},
		"clear/norow": {Type: OpClearCell, SheetID: "s", Col: intp(0)},
		"unknown":     {Type: "renameSheet", SheetID: "s", Row: intp(0), Col: intp(0), Raw: Raw("x")},
		"insertRow":   {Type: OpInsertRow, SheetID: "s", Row: intp(0)},
		"deleteRow":   {Type: OpDeleteRow, SheetID: "s", Row: intp(1)},
		"swapRows":    {Type: OpSwapRows, SheetID: "s", FromRow: intp(0), ToRow: intp(2)},
		"insertCol":   {Type: OpInsertColumn, SheetID: "s", Col: intp(0)},
		"deleteCol":   {Type: OpDeleteColumn, SheetID: "s", Col: intp(0)},
		"swapCols":    {Type: OpSwapColumns, SheetID: "s", FromCol: intp(0), ToCol: intp(1)},
	} {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			s := NewDemoSheet("s")
			before := rawSnapshot(s)
			assert.Same(s, Apply(s, op))
			assert.Equal(before, rawSnapshot(s))
			assert.Equal(3, s.Len())
		})
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	assert := assert.New(t)
	s := NewSheet("s", "Sheet1", 2, 2)
	Apply(s, SetCell("s", Addr(100, 100), Raw("7")))
	assert.Equal(7.0, s.ValueAt(Addr(100, 100)))
	assert.False(s.InBounds(Addr(100, 100)))
}

func TestApplyAll(t *testing.T) {
	assert := assert.New(t)
	s := NewSheet("s", "Sheet1", 10, 10)
	var passes int
	s.OnCellUpdated = func(a CellAddress, c *Cell) {
		if a == Addr(0, 0) {
			passes++
		}
	}

	ApplyAll(s, []Operation{
		SetCell("s", Addr(0, 0), Raw("=B1*2")),
		SetCell("s", Addr(0, 1), Raw("4")),
		SetCell("s", Addr(0, 2), Raw("hello")),
	})
	assert.Equal(3, passes)
	// A1 precedes B1 in the pass order; the last pass saw B1 evaluated by the one before it.
	assert.Equal(8.0, s.ValueAt(Addr(0, 0)))
	assert.Equal("hello", s.ValueAt(Addr(0, 2)))
}

func TestOperationJSON(t *testing.T) {
	assert := assert.New(t)
	var ops []Operation
	err := json.Unmarshal([]byte(`[
		{"type":"setCell","sheetId":"s","row":1,"col":2,"raw":"=A1"},
		{"type":"clearCell","sheetId":"s","row":0,"col":0},
		{"type":"swapRows","sheetId":"s","fromRow":0,"toRow":3}
	]`), &ops)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(SetCell("s", Addr(1, 2), Raw("=A1")), ops[0])
	assert.Equal(ClearCell("s", Addr(0, 0)), ops[1])
	assert.Equal(OpSwapRows, ops[2].Type)
	assert.Equal(3, *ops[2].ToRow)
	_, ok := ops[2].Addr()
	assert.False(ok)
}

func TestSetCellCopiesRaw(t *testing.T) {
	raw := "a"
	op := SetCell("s", Addr(0, 0), &raw)
	raw = "b"
	assert.Equal(t, "a", *op.Raw)
}
