package main

import (
	"io"
	"strconv"

	sheet "github.com/knusbaum/gridcalc"
	"github.com/olekukonko/tablewriter"
)

// writeSheet renders s from A1 to the larger of its content and a 10x5 window, with column
// letters across the top and row numbers down the side.
func writeSheet(w io.Writer, s *sheet.Sheet, editMode bool) {
	last := s.MaxAddr()
	rows := max(last.Row+1, 10)
	cols := max(last.Col+1, 5)

	t := tablewriter.NewWriter(w)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	header := []string{""}
	for col := 0; col < cols; col++ {
		header = append(header, sheet.ColLetters(col))
	}
	t.SetHeader(header)

	for row := 0; row < rows; row++ {
		line := []string{strconv.Itoa(row + 1)}
		for col := 0; col < cols; col++ {
			a := sheet.Addr(row, col)
			if editMode {
				line = append(line, s.EditAt(a))
			} else {
				line = append(line, s.ContentAt(a))
			}
		}
		t.Append(line)
	}
	t.Render()
}
