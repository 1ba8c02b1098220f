package sheet

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrShapeMismatch is returned when generated content does not have the shape of the selection
// it replaces.
var ErrShapeMismatch = errors.New("content shape does not match selection")

const (
	demoName     = "Sheet1"
	demoRowCount = 50
	demoColCount = 20
)

// ContentGenerator produces new cell content for a selection. The result must have the shape of
// data. Implementations talk to external services; their errors are returned to the caller
// unchanged.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string, data [][]any) ([][]any, error)
}

// CellUpdate is one entry of a batch update.
type CellUpdate struct {
	Row int     `json:"row"`
	Col int     `json:"col"`
	Raw *string `json:"raw"`
}

// Repository holds the sheets of a process, keyed by ID. Sheets are created on first reference
// and live as long as the repository. A Repository does no locking; callers that share one
// between goroutines must serialize access.
type Repository struct {
	sheets map[string]*Sheet

	// OnCreate, if set, is called with every sheet the repository creates, after seeding.
	OnCreate func(s *Sheet)
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{sheets: make(map[string]*Sheet)}
}

// NewDemoSheet creates the sheet handed out on first reference: A1=1, A2=2, A3==A1+A2.
func NewDemoSheet(id string) *Sheet {
	s := NewSheet(id, demoName, demoRowCount, demoColCount)
	s.SetRaw(Addr(0, 0), Raw("1"))
	s.SetRaw(Addr(1, 0), Raw("2"))
	s.SetRaw(Addr(2, 0), Raw("=A1+A2"))
	RecalcSheet(s)
	return s
}

// GetOrCreate returns the sheet with the given id, creating and storing the demo sheet if there is
// none yet.
func (r *Repository) GetOrCreate(id string) *Sheet {
	s, ok := r.sheets[id]
	if !ok {
		s = NewDemoSheet(id)
		r.sheets[id] = s
		if r.OnCreate != nil {
			r.OnCreate(s)
		}
	}
	return s
}

// Sheet is GetOrCreate.
func (r *Repository) Sheet(id string) *Sheet {
	return r.GetOrCreate(id)
}

// Lookup returns the sheet with the given id without creating it.
func (r *Repository) Lookup(id string) (*Sheet, bool) {
	s, ok := r.sheets[id]
	return s, ok
}

// IDs returns the ids of all sheets, sorted.
func (r *Repository) IDs() []string {
	ids := make([]string, 0, len(r.sheets))
	for id := range r.sheets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UpdateCell sets the raw content of one cell, recalculates it and then the whole sheet.
func (r *Repository) UpdateCell(id string, row, col int, raw *string) *Sheet {
	s := r.GetOrCreate(id)
	a := Addr(row, col)
	s.SetRaw(a, raw)
	RecalcCellAndSheet(s, a)
	return s
}

// BatchUpdateCells sets the raw content of every update and then recalculates the sheet once.
func (r *Repository) BatchUpdateCells(id string, updates []CellUpdate) *Sheet {
	s := r.GetOrCreate(id)
	for _, u := range updates {
		s.SetRaw(Addr(u.Row, u.Col), u.Raw)
	}
	RecalcSheet(s)
	return s
}

// ApplyOperations applies ops to the sheet in order, recalculating after each one.
func (r *Repository) ApplyOperations(id string, ops []Operation) *Sheet {
	s := r.GetOrCreate(id)
	return ApplyAll(s, ops)
}

// CommitFill extends the content of source across target and applies the resulting operations
// as one batch. The operations are returned so callers can record them for undo.
func (r *Repository) CommitFill(id string, source, target SelectionRange) ([]Operation, *Sheet) {
	s := r.GetOrCreate(id)
	ops := FillOperations(s, source, target)
	if len(ops) == 0 {
		return nil, s
	}
	return ops, ApplyAll(s, ops)
}

// FillWithAI sends the contents of selection (see Values) with prompt to gen and writes the
// answer back over the same cells as one batch. The generator's errors are returned unchanged and leave the
// sheet untouched, as does an answer whose shape differs from the selection.
func (r *Repository) FillWithAI(ctx context.Context, id string, selection SelectionRange, prompt string, gen ContentGenerator) ([]Operation, *Sheet, error) {
	s := r.GetOrCreate(id)
	sel := selection.Normalize()
	data := Values(s, sel)
	out, err := gen.Generate(ctx, prompt, data)
	if err != nil {
		return nil, s, err
	}
	if err := SameShape(data, out); err != nil {
		return nil, s, fmt.Errorf("generated content for %s: %w", sel, err)
	}
	ops := contentOps(s.ID, out, sel.Start)
	return ops, ApplyAll(s, ops), nil
}

// contentOps turns generated content anchored at anchor into setCell operations. Unlike a paste,
// nil empties the cell and nothing is skipped for being out of bounds.
func contentOps(sheetID string, data [][]any, anchor CellAddress) []Operation {
	var ops []Operation
	for i, row := range data {
		for j, v := range row {
			var raw *string
			if v != nil {
				raw = strPtr(FormatValue(v))
			}
			ops = append(ops, SetCell(sheetID, Addr(anchor.Row+i, anchor.Col+j), raw))
		}
	}
	return ops
}
