package sheet

import (
	"fmt"
	"strings"
)

// SelectionRange is a rectangle of cells between two corners. Start may be after End on either
// axis; Normalize puts the minimum corner first.
type SelectionRange struct {
	Start CellAddress `json:"start"`
	End   CellAddress `json:"end"`
}

// Range returns the range between two corners.
func Range(start, end CellAddress) SelectionRange {
	return SelectionRange{Start: start, End: end}
}

// ParseRange parses "A1:B3" or a single reference "A1".
func ParseRange(text string) (SelectionRange, error) {
	from, to, hasColon := strings.Cut(text, ":")
	if !hasColon {
		to = from
	}
	start, err := ParseA1(from)
	if err != nil {
		return SelectionRange{}, fmt.Errorf("invalid start of range %q: %w", text, err)
	}
	end, err := ParseA1(to)
	if err != nil {
		return SelectionRange{}, fmt.Errorf("invalid end of range %q: %w", text, err)
	}
	return SelectionRange{Start: start, End: end}, nil
}

func (r SelectionRange) String() string {
	n := r.Normalize()
	if n.Start == n.End {
		return n.Start.A1()
	}
	return n.Start.A1() + ":" + n.End.A1()
}

// Normalize returns r with Start holding the per-axis minimums and End the maximums.
func (r SelectionRange) Normalize() SelectionRange {
	return SelectionRange{
		Start: CellAddress{Row: min(r.Start.Row, r.End.Row), Col: min(r.Start.Col, r.End.Col)},
		End:   CellAddress{Row: max(r.Start.Row, r.End.Row), Col: max(r.Start.Col, r.End.Col)},
	}
}

// Height returns the number of rows covered by r.
func (r SelectionRange) Height() int {
	n := r.Normalize()
	return n.End.Row - n.Start.Row + 1
}

// Width returns the number of columns covered by r.
func (r SelectionRange) Width() int {
	n := r.Normalize()
	return n.End.Col - n.Start.Col + 1
}

// Contains reports whether a lies inside r.
func (r SelectionRange) Contains(a CellAddress) bool {
	n := r.Normalize()
	return a.Row >= n.Start.Row && a.Row <= n.End.Row && a.Col >= n.Start.Col && a.Col <= n.End.Col
}

// IsSingleCell reports whether r covers exactly one cell.
func (r SelectionRange) IsSingleCell() bool {
	return r.Start == r.End
}

// SameArea reports whether r and o cover the same cells.
func (r SelectionRange) SameArea(o SelectionRange) bool {
	return r.Normalize() == o.Normalize()
}

// RowSelection returns the range covering a whole row of s.
func RowSelection(s *Sheet, row int) SelectionRange {
	return SelectionRange{Start: Addr(row, 0), End: Addr(row, max(s.ColCount-1, 0))}
}

// ColumnSelection returns the range covering a whole column of s.
func ColumnSelection(s *Sheet, col int) SelectionRange {
	return SelectionRange{Start: Addr(0, col), End: Addr(max(s.RowCount-1, 0), col)}
}

// AdjustFormula shifts every A1 reference in formula by rowOffset rows and colOffset columns.
// A reference that would move to a negative row or column is left as it is; the others are
// still shifted. Text that is not a formula is returned unchanged.
func AdjustFormula(formula string, rowOffset, colOffset int) string {
	if !strings.HasPrefix(formula, "=") {
		return formula
	}
	return refRE.ReplaceAllStringFunc(formula, func(ref string) string {
		a, err := ParseA1(ref)
		if err != nil {
			return ref
		}
		moved := CellAddress{Row: a.Row + rowOffset, Col: a.Col + colOffset}
		if moved.Row < 0 || moved.Col < 0 {
			return ref
		}
		return moved.A1()
	})
}

// wrap reduces n into [0, size) with a non-negative modulo.
func wrap(n, size int) int {
	return (n%size + size) % size
}

// FillOperations computes the setCell operations that extend the pattern in source across
// target. Every target cell outside source receives the raw content of the source cell it tiles
// onto; formulas are adjusted by the offset between that target cell and its source cell.
// If target covers the same cells as source there is nothing to fill and nil is returned.
func FillOperations(s *Sheet, source, target SelectionRange) []Operation {
	src := source.Normalize()
	dst := target.Normalize()
	if src == dst {
		return nil
	}

	height := src.Height()
	width := src.Width()

	var ops []Operation
	for r := dst.Start.Row; r <= dst.End.Row; r++ {
		for c := dst.Start.Col; c <= dst.End.Col; c++ {
			a := Addr(r, c)
			if src.Contains(a) {
				continue
			}
			from := Addr(
				src.Start.Row+wrap(r-src.Start.Row, height),
				src.Start.Col+wrap(c-src.Start.Col, width),
			)
			raw := s.RawAt(from)
			if raw != nil && strings.HasPrefix(*raw, "=") {
				raw = strPtr(AdjustFormula(*raw, r-from.Row, c-from.Col))
			}
			ops = append(ops, SetCell(s.ID, a, raw))
		}
	}
	return ops
}

// FillLock is the axis a fill drag is constrained to.
type FillLock string

const (
	LockNone FillLock = ""
	LockRow  FillLock = "row"
	LockCol  FillLock = "col"
)

// FillDrag tracks one fill-handle gesture: it starts from a source selection, follows the
// pointer and ends with a commit. The axis lock is decided on the first move and kept until the
// gesture ends.
type FillDrag struct {
	Source  SelectionRange
	Lock    FillLock
	Preview *SelectionRange
}

// StartFill begins a fill gesture from source.
func StartFill(source SelectionRange) *FillDrag {
	return &FillDrag{Source: source.Normalize()}
}

// Move updates the preview for the pointer being over cell over and returns it. The preview
// extends the source along the locked axis only, towards over.
func (d *FillDrag) Move(over CellAddress) SelectionRange {
	src := d.Source
	if d.Lock == LockNone {
		dCol := over.Col - src.End.Col
		dRow := over.Row - src.End.Row
		if abs(dCol) >= abs(dRow) {
			d.Lock = LockCol
		} else {
			d.Lock = LockRow
		}
	}

	var preview SelectionRange
	if d.Lock == LockCol {
		preview = SelectionRange{
			Start: Addr(src.Start.Row, min(src.Start.Col, over.Col)),
			End:   Addr(src.End.Row, max(src.End.Col, over.Col)),
		}
	} else {
		preview = SelectionRange{
			Start: Addr(min(src.Start.Row, over.Row), src.Start.Col),
			End:   Addr(max(src.End.Row, over.Row), src.End.Col),
		}
	}
	d.Preview = &preview
	return preview
}

// Commit ends the gesture and returns the source and the final target. ok is false if the
// pointer never moved.
func (d *FillDrag) Commit() (source, target SelectionRange, ok bool) {
	if d.Preview == nil {
		return d.Source, d.Source, false
	}
	source, target = d.Source, *d.Preview
	d.Lock = LockNone
	d.Preview = nil
	return source, target, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
