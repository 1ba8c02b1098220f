package sheet

// History is an undo/redo log of operation batches.
//
// Undo and Redo hand back the forward batch that was pushed, not its inverse. Replaying that
// batch does not restore the previous contents; callers that want real undo must snapshot the
// raw values the batch overwrote.
type History struct {
	undo [][]Operation
	redo [][]Operation
}

// Push records a batch. Empty batches are ignored. Pushing discards everything that could have
// been redone.
func (h *History) Push(ops []Operation) {
	if len(ops) == 0 {
		return
	}
	h.undo = append(h.undo, ops)
	h.redo = nil
}

// Undo moves the most recent batch to the redo stack and returns it, or nil if there is nothing
// to undo.
func (h *History) Undo() []Operation {
	if len(h.undo) == 0 {
		return nil
	}
	ops := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, ops)
	return ops
}

// Redo moves the most recently undone batch back to the undo stack and returns it, or nil if
// there is nothing to redo.
func (h *History) Redo() []Operation {
	if len(h.redo) == 0 {
		return nil
	}
	ops := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, ops)
	return ops
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
