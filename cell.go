package sheet

import (
	"math"
	"strconv"
	"strings"
)

// Kind describes what kind of value is in a cell. It is derived from the raw content on every
// recalculation and never set directly by a mutation.
type Kind string

// These kinds describe what kind of value is in a cell.
// empty is when a cell has no raw content, but still exists - cells are materialized when they
// are touched, for instance when other cells have formulas that reference them.
// number, text and boolean are literals.
// formula is when the raw content starts with '=' and evaluated successfully.
// error is when a formula failed to parse or evaluate.
const (
	KindEmpty   Kind = "empty"
	KindNumber  Kind = "number"
	KindText    Kind = "text"
	KindBoolean Kind = "boolean"
	KindFormula Kind = "formula"
	KindError   Kind = "error"
)

// ErrCodeEval is the code of every formula parse or evaluation failure.
const ErrCodeEval = "EVAL"

// CellError is recorded on a cell whose formula could not be computed.
type CellError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Cell is the basic unit of storage and computation for a spreadsheet. Raw is exactly what was
// entered; Kind, Value and Err are computed from Raw by Evaluate.
type Cell struct {
	Addr CellAddress `json:"id"`
	// Raw is nil when the cell is empty. Formulas begin with '='.
	Raw *string `json:"raw"`

	Kind Kind `json:"type"`
	// Value holds a float64, string or bool, or nil for empty and error cells.
	Value any        `json:"value"`
	Err   *CellError `json:"error"`
}

// NewCell creates a new, empty cell at address a.
func NewCell(a CellAddress) *Cell {
	return &Cell{Addr: a, Kind: KindEmpty}
}

// RawString returns the raw content of the cell, or "" if there is none.
func (c *Cell) RawString() string {
	if c.Raw == nil {
		return ""
	}
	return *c.Raw
}

// EditValue returns the value to show when "editing" the cell. This means it will return the
// text or formula that was entered and not the evaluated result of a formula.
func (c *Cell) EditValue() string {
	return c.RawString()
}

// Content returns a string representation of the value of the cell. This will be a string
// representation of a number if the cell is numeric or has a formula that returns a result. It
// will be an error message if a formula results in an error, or it will be the text that was
// entered into the cell.
func (c *Cell) Content() string {
	switch c.Kind {
	case KindError:
		if c.Err == nil {
			return "##ERROR"
		}
		return "#" + c.Err.Code + ": " + c.Err.Message
	case KindEmpty:
		return ""
	}
	return FormatValue(c.Value)
}

// FormatValue renders a cell value as text: strings unchanged, numbers in their shortest exact
// form (see formatNumber), booleans as "true" or "false" and nil as "".
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumber(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// formatNumber writes v in plain decimal, switching to exponent form ("1e+21", "1.5e-7") at
// magnitudes of 1e21 and above or below 1e-6, the way JavaScript prints numbers.
func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if a := math.Abs(v); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

func strPtr(s string) *string {
	return &s
}

// Raw returns a pointer to raw, for use in operations and cell updates.
func Raw(raw string) *string {
	return strPtr(raw)
}
