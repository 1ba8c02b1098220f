package sheet

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Sheet represents a spreadsheet. The cell mapping is sparse: cells that were never touched are
// implicitly empty.
type Sheet struct {
	ID       string
	Name     string
	RowCount int
	ColCount int

	cells map[CellAddress]*Cell
	// order records the insertion order of cells, which is the order of a recalculation pass.
	order []CellAddress

	// OnCellUpdated is a callback that will be called when a cell is evaluated during
	// recalculations. It is *NOT* called when explicitly setting the raw content of a cell.
	// OnCellUpdated may be set by the user.
	OnCellUpdated func(addr CellAddress, c *Cell)
}

// NewSheet creates a new, empty spreadsheet. rowCount and colCount are advisory bounds.
func NewSheet(id, name string, rowCount, colCount int) *Sheet {
	return &Sheet{
		ID:       id,
		Name:     name,
		RowCount: rowCount,
		ColCount: colCount,
		cells:    make(map[CellAddress]*Cell),
	}
}

// CellOrNew returns the cell at addr, or puts a new empty cell into s at addr and returns that new
// cell.
func (s *Sheet) CellOrNew(addr CellAddress) *Cell {
	cell, ok := s.cells[addr]
	if !ok {
		cell = NewCell(addr)
		s.cells[addr] = cell
		s.order = append(s.order, addr)
	}
	return cell
}

// CellAt returns a cell from addr in s if there is one, or nil if there is none.
func (s *Sheet) CellAt(addr CellAddress) *Cell {
	return s.cells[addr]
}

// SetRaw sets the raw content of the cell at addr, materializing it if necessary. It does not
// touch the derived kind, value or error; those are stale until the next recalculation.
func (s *Sheet) SetRaw(addr CellAddress, raw *string) {
	cell := s.CellOrNew(addr)
	if raw == nil {
		cell.Raw = nil
		return
	}
	cell.Raw = strPtr(*raw)
}

// RawAt returns the raw content at addr, or nil if the cell is empty or absent.
func (s *Sheet) RawAt(addr CellAddress) *string {
	cell := s.cells[addr]
	if cell == nil {
		return nil
	}
	return cell.Raw
}

// Len returns the number of materialized cells.
func (s *Sheet) Len() int {
	return len(s.order)
}

// Cells returns the materialized cells in insertion order.
func (s *Sheet) Cells() []*Cell {
	ret := make([]*Cell, len(s.order))
	for i, a := range s.order {
		ret[i] = s.cells[a]
	}
	return ret
}

// InBounds reports whether addr lies inside the sheet's nominal row and column counts.
func (s *Sheet) InBounds(addr CellAddress) bool {
	return addr.Row >= 0 && addr.Col >= 0 && addr.Row < s.RowCount && addr.Col < s.ColCount
}

// MaxAddr returns the bottom-right most address of any cell with content, or A1 if the sheet has
// none.
func (s *Sheet) MaxAddr() CellAddress {
	var max CellAddress
	for a, c := range s.cells {
		if c.Raw == nil {
			continue
		}
		if a.Row > max.Row {
			max.Row = a.Row
		}
		if a.Col > max.Col {
			max.Col = a.Col
		}
	}
	return max
}

// ValueAt returns the computed value at addr, or nil if there is none.
func (s *Sheet) ValueAt(addr CellAddress) any {
	cell := s.cells[addr]
	if cell == nil {
		return nil
	}
	return cell.Value
}

// ContentAt will return a human-readable value for a given address, suitable for display. This will
// display the result of any formula.
func (s *Sheet) ContentAt(addr CellAddress) string {
	cell := s.cells[addr]
	if cell == nil {
		return ""
	}
	return cell.Content()
}

// EditAt returns the raw content of the cell at address addr, suitable for editing. This means
// cells containing formulas will return the formula text rather than the result of evaluating it.
func (s *Sheet) EditAt(addr CellAddress) string {
	cell := s.cells[addr]
	if cell == nil {
		return ""
	}
	return cell.EditValue()
}

// WriteCSV writes out a CSV containing the contents of the sheet from A1 to MaxAddr. When edit is
// true the raw contents are written, otherwise the human-readable values.
func (s *Sheet) WriteCSV(w io.Writer, edit bool) error {
	cw := csv.NewWriter(w)
	max := s.MaxAddr()
	for row := 0; row <= max.Row; row++ {
		rec := make([]string, max.Col+1)
		for col := range rec {
			a := Addr(row, col)
			if edit {
				rec[col] = s.EditAt(a)
			} else {
				rec[col] = s.ContentAt(a)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRange writes instructions to recreate the cells between the upper left start and bottom
// right end cells to w. The stream written is human-readable and suitable for reading with
// (*Sheet).Read
func (s *Sheet) WriteRange(start CellAddress, end CellAddress, w io.Writer) error {
	for row := start.Row; row <= end.Row; row++ {
		for col := start.Col; col <= end.Col; col++ {
			a := Addr(row, col)
			cell := s.cells[a]
			if cell == nil || cell.Raw == nil {
				continue
			}
			command := *cell.Raw
			if _, err := fmt.Fprintf(w, "%s %d %s\n", a, len(command), command); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadInstruction parses an instruction (such as those written out by WriteRange) and returns the
// cell address, content, and an error if it could not be parsed.
func ReadInstruction(r io.Reader) (CellAddress, string, error) {
	var addr string
	var clen uint32
	n, err := fmt.Fscanf(r, "%50s %d ", &addr, &clen)
	if err != nil {
		return CellAddress{}, "", err
	}
	if n != 2 {
		return CellAddress{}, "", fmt.Errorf("Expected address and length.")
	}
	if clen > 4096 {
		return CellAddress{}, "", fmt.Errorf("Bad length for content. Must be less than 4096.")
	}
	bs := make([]byte, clen)
	_, err = io.ReadFull(r, bs)
	if err != nil {
		return CellAddress{}, "", err
	}
	_, err = fmt.Fscanf(r, "\n")
	if err != nil {
		return CellAddress{}, "", err
	}
	a, err := ParseA1(addr)
	if err != nil {
		return CellAddress{}, "", err
	}
	return a, string(bs), nil
}

// Read reads one instruction (such as those written by WriteRange), sets the raw content in the
// sheet and recalculates. Instructions are in the form:
//  [address] [length] value\n
// For example, you can set various fields in the sheet by doing the following:
//  A1 2 10
//  B1 2 20
//  C1 2 30
//  D1 9 =A1+B1+C1
func (s *Sheet) Read(r io.Reader) error {
	a, c, err := ReadInstruction(r)
	if err != nil {
		return err
	}
	s.SetRaw(a, &c)
	RecalcCellAndSheet(s, a)
	return nil
}

type sheetJSON struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	RowCount int              `json:"rowCount"`
	ColCount int              `json:"colCount"`
	Cells    map[string]*Cell `json:"cells"`
}

// MarshalJSON encodes a snapshot of the sheet. Cells are keyed by CellAddress.Key.
func (s *Sheet) MarshalJSON() ([]byte, error) {
	sj := sheetJSON{
		ID:       s.ID,
		Name:     s.Name,
		RowCount: s.RowCount,
		ColCount: s.ColCount,
		Cells:    make(map[string]*Cell, len(s.cells)),
	}
	for a, c := range s.cells {
		sj.Cells[a.Key()] = c
	}
	return json.Marshal(sj)
}

// UnmarshalJSON decodes a snapshot written by MarshalJSON. Derived values are taken as-is; call
// RecalcSheet to recompute them.
func (s *Sheet) UnmarshalJSON(data []byte) error {
	var sj sheetJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	ns := NewSheet(sj.ID, sj.Name, sj.RowCount, sj.ColCount)
	addrs := make([]CellAddress, 0, len(sj.Cells))
	byAddr := make(map[CellAddress]*Cell, len(sj.Cells))
	for key, c := range sj.Cells {
		a, err := ParseKey(key)
		if err != nil {
			return err
		}
		addrs = append(addrs, a)
		byAddr[a] = c
	}
	// Map order is lost on the wire; restore a stable row-major order.
	sort.Slice(addrs, func(i, j int) bool {
		if addrs[i].Row != addrs[j].Row {
			return addrs[i].Row < addrs[j].Row
		}
		return addrs[i].Col < addrs[j].Col
	})
	for _, a := range addrs {
		c := byAddr[a]
		if c == nil {
			c = NewCell(a)
		}
		c.Addr = a
		if c.Kind == "" {
			c.Kind = KindEmpty
		}
		ns.cells[a] = c
		ns.order = append(ns.order, a)
	}
	s.ID, s.Name, s.RowCount, s.ColCount = ns.ID, ns.Name, ns.RowCount, ns.ColCount
	s.cells, s.order = ns.cells, ns.order
	return nil
}
