package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	sheet "github.com/knusbaum/gridcalc"
	"github.com/knusbaum/gridcalc/xlsx"
)

type session struct {
	repo     *sheet.Repository
	id       string
	history  sheet.History
	editMode bool
	gen      sheet.ContentGenerator
	out      io.Writer
}

func newSession(id string, gen sheet.ContentGenerator, out io.Writer) *session {
	return &session{repo: sheet.NewRepository(), id: id, gen: gen, out: out}
}

func (sess *session) sheet() *sheet.Sheet {
	return sess.repo.GetOrCreate(sess.id)
}

func (sess *session) apply(ops []sheet.Operation) {
	sess.repo.ApplyOperations(sess.id, ops)
	sess.history.Push(ops)
}

const help = `SET addr value      set a cell
CLEAR addr          empty a cell
FILL src dst        extend src over dst, e.g. FILL A1 A1:A5
PASTE addr          paste tab-separated lines at addr, ended by a line with a single "."
UNDO, REDO          replay the last batch
EDIT                toggle showing raw contents
AI range prompt     rewrite range with the configured model
SAVE file.xlsx      export the sheet
LOAD file.xlsx      import a workbook into the sheet
CSV                 print the sheet as CSV`

func doCommand(ctx context.Context, sess *session, s *bufio.Scanner) (string, error) {
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	cmd := strings.SplitN(strings.TrimSpace(s.Text()), " ", 3)
	switch strings.ToUpper(cmd[0]) {
	case "":
		return "", nil
	case "SET":
		if len(cmd) < 3 {
			return "", fmt.Errorf("SET expects 2 arguments - SET [address] [value]")
		}
		a, err := sheet.ParseA1(cmd[1])
		if err != nil {
			return "", err
		}
		sess.apply([]sheet.Operation{sheet.SetCell(sess.id, a, &cmd[2])})
	case "CLEAR":
		if len(cmd) != 2 {
			return "", fmt.Errorf("CLEAR expects 1 argument - CLEAR [address]")
		}
		a, err := sheet.ParseA1(cmd[1])
		if err != nil {
			return "", err
		}
		sess.apply([]sheet.Operation{sheet.ClearCell(sess.id, a)})
	case "FILL":
		if len(cmd) != 3 {
			return "", fmt.Errorf("FILL expects 2 arguments - FILL [source] [target]")
		}
		src, err := sheet.ParseRange(cmd[1])
		if err != nil {
			return "", err
		}
		dst, err := sheet.ParseRange(cmd[2])
		if err != nil {
			return "", err
		}
		ops, _ := sess.repo.CommitFill(sess.id, src, dst)
		sess.history.Push(ops)
		return fmt.Sprintf("filled %d cells", len(ops)), nil
	case "PASTE":
		if len(cmd) != 2 {
			return "", fmt.Errorf("PASTE expects 1 argument - PASTE [address]")
		}
		a, err := sheet.ParseA1(cmd[1])
		if err != nil {
			return "", err
		}
		var lines []string
		for s.Scan() && s.Text() != "." {
			lines = append(lines, s.Text())
		}
		data := sheet.StringMatrix(sheet.ParseTSV(strings.Join(lines, "\n")))
		ops := sheet.BuildSetOps(sess.sheet(), data, a)
		sess.apply(ops)
		return fmt.Sprintf("pasted %d cells", len(ops)), nil
	case "UNDO", "REDO":
		var ops []sheet.Operation
		if strings.ToUpper(cmd[0]) == "UNDO" {
			ops = sess.history.Undo()
		} else {
			ops = sess.history.Redo()
		}
		if ops == nil {
			return "", fmt.Errorf("Nothing to %s", strings.ToLower(cmd[0]))
		}
		sess.repo.ApplyOperations(sess.id, ops)
	case "EDIT":
		sess.editMode = !sess.editMode
		return fmt.Sprintf("EDITMODE = %t", sess.editMode), nil
	case "AI":
		if len(cmd) < 3 {
			return "", fmt.Errorf("AI expects 2 arguments - AI [range] [prompt]")
		}
		if sess.gen == nil {
			return "", fmt.Errorf("No API key configured")
		}
		sel, err := sheet.ParseRange(cmd[1])
		if err != nil {
			return "", err
		}
		ops, _, err := sess.repo.FillWithAI(ctx, sess.id, sel, cmd[2], sess.gen)
		if err != nil {
			return "", err
		}
		sess.history.Push(ops)
	case "SAVE":
		if len(cmd) != 2 {
			return "", fmt.Errorf("SAVE expects 1 argument - SAVE [file]")
		}
		if err := xlsx.ExportFile(sess.sheet(), cmd[1]); err != nil {
			return "", err
		}
		return "saved " + cmd[1], nil
	case "LOAD":
		if len(cmd) != 2 {
			return "", fmt.Errorf("LOAD expects 1 argument - LOAD [file]")
		}
		ops, err := xlsx.ImportFile(cmd[1], sess.sheet())
		if err != nil {
			return "", err
		}
		sess.apply(ops)
		return fmt.Sprintf("loaded %d cells", len(ops)), nil
	case "CSV":
		if err := sess.sheet().WriteCSV(sess.out, sess.editMode); err != nil {
			return "", err
		}
	case "HELP":
		return help, nil
	default:
		return "", fmt.Errorf("Unknown command %s", cmd[0])
	}
	return "OK", nil
}

// repl reads commands from in until it is exhausted, rendering the sheet after every
// successful command.
func repl(ctx context.Context, sess *session, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	writeSheet(sess.out, sess.sheet(), sess.editMode)
	for {
		fmt.Fprintf(sess.out, "gridcalc > ")
		response, err := doCommand(ctx, sess, scanner)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sess.out, "%s\n", err)
			continue
		}
		if response == "" {
			continue
		}
		writeSheet(sess.out, sess.sheet(), sess.editMode)
		fmt.Fprintln(sess.out, response)
	}
}
