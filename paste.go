package sheet

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	lineSplitRE = regexp.MustCompile(`\r\n|\n|\r`)
	quotedRE    = regexp.MustCompile(`^"(.*)"$`)
)

// ParseTSV splits tab-separated clipboard text into rows of cells. A trailing blank line is
// dropped and a single pair of surrounding quotes is removed from each cell.
func ParseTSV(text string) [][]string {
	lines := lineSplitRE.Split(text, -1)
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "" {
		lines = lines[:n-1]
	}
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		for i, f := range fields {
			fields[i] = quotedRE.ReplaceAllString(f, "$1")
		}
		rows = append(rows, fields)
	}
	return rows
}

// BuildSetOps turns a matrix of values anchored at anchor into setCell operations on s. Cells
// falling outside the sheet's bounds are skipped. Values are written as text: strings as-is, nil
// as "", anything else through FormatValue.
func BuildSetOps(s *Sheet, data [][]any, anchor CellAddress) []Operation {
	var ops []Operation
	for i, row := range data {
		for j, v := range row {
			a := Addr(anchor.Row+i, anchor.Col+j)
			if !s.InBounds(a) {
				continue
			}
			ops = append(ops, SetCell(s.ID, a, strPtr(FormatValue(v))))
		}
	}
	return ops
}

// StringMatrix converts rows of strings into the matrix form BuildSetOps accepts.
func StringMatrix(rows [][]string) [][]any {
	data := make([][]any, len(rows))
	for i, row := range rows {
		data[i] = make([]any, len(row))
		for j, v := range row {
			data[i][j] = v
		}
	}
	return data
}

// Values returns the contents of the cells in r, row by row: the raw text of cells that have
// one, so formulas are kept, and otherwise the cell's value. Missing cells are nil.
func Values(s *Sheet, r SelectionRange) [][]any {
	n := r.Normalize()
	data := make([][]any, 0, n.Height())
	for row := n.Start.Row; row <= n.End.Row; row++ {
		vals := make([]any, 0, n.Width())
		for col := n.Start.Col; col <= n.End.Col; col++ {
			var v any
			if c := s.CellAt(Addr(row, col)); c != nil {
				v = c.Value
				if c.Raw != nil {
					v = *c.Raw
				}
			}
			vals = append(vals, v)
		}
		data = append(data, vals)
	}
	return data
}

// SameShape reports an error unless got has exactly the rows and columns of want.
func SameShape(want, got [][]any) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrShapeMismatch, len(want), len(got))
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			return fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShapeMismatch, i, len(got[i]), len(want[i]))
		}
	}
	return nil
}
