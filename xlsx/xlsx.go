// Package xlsx exchanges sheets with Excel workbooks. Only raw contents travel: formulas as
// formulas, literals as typed values.
package xlsx

import (
	"fmt"
	"io"
	"os"
	"strings"

	sheet "github.com/knusbaum/gridcalc"
	"github.com/xuri/excelize/v2"
)

const defaultSheetName = "Sheet1"

// Export writes the raw contents of s as the only worksheet of a new workbook. Numbers and
// booleans keep their type, formulas are written without the leading '='.
func Export(s *sheet.Sheet, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	name := defaultSheetName
	if s.Name != "" && s.Name != defaultSheetName {
		if err := f.SetSheetName(defaultSheetName, s.Name); err != nil {
			return fmt.Errorf("naming worksheet %q: %w", s.Name, err)
		}
		name = s.Name
	}

	for _, c := range s.Cells() {
		raw := c.RawString()
		if raw == "" {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(c.Addr.Col+1, c.Addr.Row+1)
		if err != nil {
			return fmt.Errorf("cell %s: %w", c.Addr, err)
		}
		if err := setCell(f, name, ref, c, raw); err != nil {
			return fmt.Errorf("cell %s: %w", ref, err)
		}
	}
	return f.Write(w)
}

func setCell(f *excelize.File, name, ref string, c *sheet.Cell, raw string) error {
	if strings.HasPrefix(raw, "=") {
		return f.SetCellFormula(name, ref, raw[1:])
	}
	switch v := c.Value.(type) {
	case float64:
		if c.Kind == sheet.KindNumber {
			return f.SetCellFloat(name, ref, v, -1, 64)
		}
	case bool:
		return f.SetCellBool(name, ref, v)
	}
	return f.SetCellStr(name, ref, raw)
}

// ExportFile writes s to a workbook at path.
func ExportFile(s *sheet.Sheet, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Export(s, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Import reads the first worksheet of a workbook and returns the setCell operations that write
// its contents into s. Formulas come back with a leading '='; other cells as their displayed
// text. Empty cells produce no operation.
func Import(r io.Reader, s *sheet.Sheet) ([]sheet.Operation, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %q: %w", name, err)
	}

	// Formula cells without a cached value can be missing from rows, so scan at least the
	// sheet's nominal bounds.
	nrows, ncols := s.RowCount, s.ColCount
	nrows = max(nrows, len(rows))
	for _, row := range rows {
		ncols = max(ncols, len(row))
	}

	var ops []sheet.Operation
	for r := 0; r < nrows; r++ {
		for c := 0; c < ncols; c++ {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			raw, err := readCell(f, name, ref)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", ref, err)
			}
			if raw == "" {
				continue
			}
			ops = append(ops, sheet.SetCell(s.ID, sheet.Addr(r, c), &raw))
		}
	}
	return ops, nil
}

func readCell(f *excelize.File, name, ref string) (string, error) {
	formula, err := f.GetCellFormula(name, ref)
	if err != nil {
		return "", err
	}
	if formula != "" {
		return "=" + formula, nil
	}
	return f.GetCellValue(name, ref)
}

// ImportFile reads the workbook at path. See Import.
func ImportFile(path string, s *sheet.Sheet) ([]sheet.Operation, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return Import(in, s)
}
