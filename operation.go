package sheet

// OpType names the kind of an Operation.
type OpType string

const (
	OpSetCell      OpType = "setCell"
	OpClearCell    OpType = "clearCell"
	OpInsertRow    OpType = "insertRow"
	OpDeleteRow    OpType = "deleteRow"
	OpSwapRows     OpType = "swapRows"
	OpInsertColumn OpType = "insertColumn"
	OpDeleteColumn OpType = "deleteColumn"
	OpSwapColumns  OpType = "swapColumns"
)

// Operation is a serializable description of one sheet mutation. Operations are the only
// sanctioned way to change the raw contents of a sheet.
//
// Row and Col are pointers because 0 is a valid coordinate: a set or clear with either missing
// is skipped.
type Operation struct {
	Type    OpType  `json:"type"`
	SheetID string  `json:"sheetId"`
	Row     *int    `json:"row,omitempty"`
	Col     *int    `json:"col,omitempty"`
	Raw     *string `json:"raw,omitempty"`
	FromRow *int    `json:"fromRow,omitempty"`
	ToRow   *int    `json:"toRow,omitempty"`
	FromCol *int    `json:"fromCol,omitempty"`
	ToCol   *int    `json:"toCol,omitempty"`
}

// SetCell returns a setCell operation. A nil raw empties the cell.
func SetCell(sheetID string, a CellAddress, raw *string) Operation {
	row, col := a.Row, a.Col
	op := Operation{Type: OpSetCell, SheetID: sheetID, Row: &row, Col: &col}
	if raw != nil {
		op.Raw = strPtr(*raw)
	}
	return op
}

// ClearCell returns a clearCell operation.
func ClearCell(sheetID string, a CellAddress) Operation {
	row, col := a.Row, a.Col
	return Operation{Type: OpClearCell, SheetID: sheetID, Row: &row, Col: &col}
}

// Addr returns the cell targeted by op, and false if the row or column is missing.
func (op Operation) Addr() (CellAddress, bool) {
	if op.Row == nil || op.Col == nil {
		return CellAddress{}, false
	}
	return CellAddress{Row: *op.Row, Col: *op.Col}, true
}

// Apply applies op to s and returns s. Structural operations are accepted and currently leave
// the sheet unchanged, as do unknown operation types and set/clear operations without a row or
// column. Coordinates outside the sheet's nominal bounds are not rejected.
func Apply(s *Sheet, op Operation) *Sheet {
	switch op.Type {
	case OpSetCell:
		a, ok := op.Addr()
		if !ok {
			return s
		}
		s.SetRaw(a, op.Raw)
		RecalcSheet(s)
	case OpClearCell:
		a, ok := op.Addr()
		if !ok {
			return s
		}
		s.SetRaw(a, nil)
		RecalcSheet(s)
	case OpInsertRow, OpDeleteRow, OpSwapRows, OpInsertColumn, OpDeleteColumn, OpSwapColumns:
		// TODO: shift cells and rewrite references once structural edits are supported.
	}
	return s
}

// ApplyAll applies ops to s in order. Each operation triggers its own recalculation pass.
func ApplyAll(s *Sheet, ops []Operation) *Sheet {
	for _, op := range ops {
		Apply(s, op)
	}
	return s
}
