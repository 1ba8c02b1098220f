package sheet

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// refRE finds the A1 references in a formula.
var refRE = regexp.MustCompile(`\b[A-Z]+[0-9]+\b`)

// Eval computes the value of e. lookup resolves identifiers to numbers.
func (e *Expression) Eval(lookup func(id string) (float64, error)) (float64, error) {
	switch e.op {
	case NUM:
		return e.num, nil
	case ID:
		return lookup(e.val)
	case NEG:
		if e.left == nil {
			return 0, fmt.Errorf("Bad expression: missing operand")
		}
		v, err := e.left.Eval(lookup)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case ADD, SUB, MUL, DIV:
	default:
		return 0, fmt.Errorf("Bad expression: unknown operator %s", e.op)
	}

	if e.left == nil || e.right == nil {
		return 0, fmt.Errorf("Bad expression: %s needs two operands", e.op)
	}
	l, err := e.left.Eval(lookup)
	if err != nil {
		return 0, err
	}
	r, err := e.right.Eval(lookup)
	if err != nil {
		return 0, err
	}

	switch e.op {
	case ADD:
		return l + r, nil
	case SUB:
		return l - r, nil
	case MUL:
		return l * r, nil
	default:
		if r == 0 {
			return 0, fmt.Errorf("Division by zero")
		}
		return l / r, nil
	}
}

// Evaluate recomputes c's kind, value and error from its raw content. Referenced cells are
// materialized in s and their current values are read; their raw content is never read. A failing
// formula is recorded on c and never returned.
func Evaluate(s *Sheet, c *Cell) {
	c.Err = nil
	raw := c.RawString()

	switch {
	case raw == "":
		c.Kind = KindEmpty
		c.Value = nil
	case strings.HasPrefix(raw, "="):
		v, err := evalFormula(s, raw[1:])
		if err != nil {
			c.Kind = KindError
			c.Value = nil
			c.Err = &CellError{Code: ErrCodeEval, Message: err.Error()}
			return
		}
		c.Kind = KindFormula
		c.Value = v
	case raw == "TRUE" || raw == "FALSE":
		c.Kind = KindBoolean
		c.Value = raw == "TRUE"
	default:
		if f, ok := parseNumber(raw); ok {
			c.Kind = KindNumber
			c.Value = f
			return
		}
		c.Kind = KindText
		c.Value = raw
	}
}

func evalFormula(s *Sheet, expr string) (float64, error) {
	// Resolve every reference before parsing, so referenced cells are materialized even when the
	// expression turns out to be malformed.
	vals := make(map[string]float64)
	for _, ref := range refRE.FindAllString(expr, -1) {
		if _, ok := vals[ref]; ok {
			continue
		}
		a, err := ParseA1(ref)
		if err != nil {
			return 0, err
		}
		vals[ref] = toNumber(s.CellOrNew(a).Value)
	}

	e, err := ParseExpression(expr)
	if err != nil {
		return 0, err
	}
	v, err := e.Eval(func(id string) (float64, error) {
		if f, ok := vals[id]; ok {
			return f, nil
		}
		return 0, fmt.Errorf("%s is not defined", id)
	})
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("Result is not a finite number")
	}
	return v, nil
}

// parseNumber parses the whole of raw, ignoring surrounding whitespace, as a finite number.
// Whitespace alone reads as 0.
func parseNumber(raw string) (float64, bool) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toNumber coerces a cell value to a number. Anything without a finite numeric reading is 0.
func toNumber(v any) float64 {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		f, _ := parseNumber(v)
		return f
	}
	return 0
}

// RecalcSheet evaluates every materialized cell in s exactly once, in insertion order. Cells
// materialized during the pass are empty and are not visited. There is no dependency ordering: a
// formula referencing a cell later in the order reads that cell's value from the previous pass.
func RecalcSheet(s *Sheet) {
	n := len(s.order)
	for i := 0; i < n; i++ {
		a := s.order[i]
		c := s.cells[a]
		Evaluate(s, c)
		if s.OnCellUpdated != nil {
			s.OnCellUpdated(a, c)
		}
	}
}

// RecalcCellAndSheet evaluates the cell at addr, materializing it if it does not exist, then
// recalculates the whole sheet.
func RecalcCellAndSheet(s *Sheet, addr CellAddress) {
	c := s.CellOrNew(addr)
	Evaluate(s, c)
	if s.OnCellUpdated != nil {
		s.OnCellUpdated(addr, c)
	}
	RecalcSheet(s)
}
