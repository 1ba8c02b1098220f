package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	sheet "github.com/knusbaum/gridcalc"
)

var (
	errNothing    = errors.New("nothing to do")
	errBadCommand = errors.New("bad command")
)

// server executes ctl commands against a repository. All access to the repository goes through
// mu, since 9P requests are served concurrently.
type server struct {
	mu      sync.Mutex
	repo    *sheet.Repository
	history map[string]*sheet.History
	def     string
	gen     sheet.ContentGenerator
	log     *log.Logger

	// publish receives one line per evaluated cell: SHEET ADDR LEN CONTENT\n
	publish func(line string)
	// created is called for every new sheet, with mu held.
	created func(s *sheet.Sheet)
}

func newServer(defaultSheet string, gen sheet.ContentGenerator, logger *log.Logger) *server {
	srv := &server{
		repo:    sheet.NewRepository(),
		history: make(map[string]*sheet.History),
		def:     defaultSheet,
		gen:     gen,
		log:     logger,
	}
	srv.repo.OnCreate = srv.onCreate
	return srv
}

func (srv *server) onCreate(s *sheet.Sheet) {
	id := s.ID
	s.OnCellUpdated = func(a sheet.CellAddress, c *sheet.Cell) {
		if srv.publish == nil {
			return
		}
		content := c.Content()
		srv.publish(fmt.Sprintf("%s %s %d %s\n", id, a, len(content), content))
	}
	srv.history[id] = &sheet.History{}
	if srv.created != nil {
		srv.created(s)
	}
	srv.log.Printf("created sheet %s", id)
}

// snapshot returns the JSON form of the sheet with the given id.
func (srv *server) snapshot(id string) ([]byte, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	s, ok := srv.repo.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("no sheet %s", id)
	}
	return json.Marshal(s)
}

type command struct {
	name string
	args []string
	// content is the length-prefixed payload of set and instruction commands, and the JSON of
	// ops and batch.
	content string
}

// readCommand reads one command from br. Commands are single lines, except that the
// length-prefixed content of an instruction or a set may span several.
func readCommand(br *bufio.Reader) (command, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return command{}, err
	}
	line = strings.TrimSuffix(strings.TrimLeft(line, " \t"), "\n")
	name, rest, _ := strings.Cut(line, " ")

	switch {
	case name == "":
		return command{}, errNothing
	case name == "set":
		id, rest, _ := strings.Cut(rest, " ")
		addr, rest, _ := strings.Cut(rest, " ")
		content, err := readContent(br, rest)
		if err != nil {
			return command{}, err
		}
		return command{name: name, args: []string{id, addr}, content: content}, nil
	case isAddr(name):
		content, err := readContent(br, rest)
		if err != nil {
			return command{}, err
		}
		return command{args: []string{name}, content: content}, nil
	case name == "ops" || name == "batch":
		id, payload, _ := strings.Cut(rest, " ")
		return command{name: name, args: []string{id}, content: payload}, nil
	}
	return command{name: name, args: strings.Fields(rest)}, nil
}

// readContent parses "LEN CONTENT" and reads further lines from br until LEN bytes of content
// have been collected.
func readContent(br *bufio.Reader, rest string) (string, error) {
	lenStr, content, _ := strings.Cut(rest, " ")
	n, err := strconv.Atoi(lenStr)
	if err != nil || n < 0 || n > 4096 {
		return "", fmt.Errorf("%w: bad content length %q", errBadCommand, lenStr)
	}
	for len(content) < n {
		more, err := br.ReadString('\n')
		if more == "" && err != nil {
			return "", fmt.Errorf("%w: content shorter than %d bytes: %w", errBadCommand, n, err)
		}
		content += "\n" + strings.TrimSuffix(more, "\n")
	}
	if len(content) != n {
		return "", fmt.Errorf("%w: content is %d bytes, expected %d", errBadCommand, len(content), n)
	}
	return content, nil
}

func isAddr(s string) bool {
	_, err := sheet.ParseA1(s)
	return err == nil
}

// serve executes commands read from r until it fails to read. Bad commands are logged and
// skipped.
func (srv *server) serve(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		cmd, err := readCommand(br)
		if errors.Is(err, errNothing) {
			continue
		}
		if errors.Is(err, errBadCommand) {
			// A bad length leaves the stream mid-command; reading resumes at the next line.
			srv.log.Printf("Failed to read: %s", err)
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := srv.exec(ctx, cmd); err != nil {
			srv.log.Printf("%s: %s", cmd.name, err)
		}
	}
}

func (srv *server) exec(ctx context.Context, cmd command) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	switch cmd.name {
	case "":
		return srv.set(srv.def, cmd.args[0], &cmd.content)
	case "set":
		if cmd.args[0] == "" {
			return fmt.Errorf("usage: set SHEET ADDR LEN CONTENT")
		}
		return srv.set(cmd.args[0], cmd.args[1], &cmd.content)
	case "clear":
		if len(cmd.args) != 2 {
			return fmt.Errorf("usage: clear SHEET ADDR")
		}
		a, err := sheet.ParseA1(cmd.args[1])
		if err != nil {
			return err
		}
		return srv.apply(cmd.args[0], []sheet.Operation{sheet.ClearCell(cmd.args[0], a)})
	case "ops":
		id, err := sheetArg(cmd, "ops SHEET JSON")
		if err != nil {
			return err
		}
		var ops []sheet.Operation
		if err := json.Unmarshal([]byte(cmd.content), &ops); err != nil {
			return fmt.Errorf("decoding operations: %w", err)
		}
		return srv.apply(id, ops)
	case "batch":
		id, err := sheetArg(cmd, "batch SHEET JSON")
		if err != nil {
			return err
		}
		var updates []sheet.CellUpdate
		if err := json.Unmarshal([]byte(cmd.content), &updates); err != nil {
			return fmt.Errorf("decoding updates: %w", err)
		}
		srv.repo.BatchUpdateCells(id, updates)
		ops := make([]sheet.Operation, 0, len(updates))
		for _, u := range updates {
			ops = append(ops, sheet.SetCell(id, sheet.Addr(u.Row, u.Col), u.Raw))
		}
		srv.history[id].Push(ops)
		return nil
	case "fill":
		if len(cmd.args) != 3 {
			return fmt.Errorf("usage: fill SHEET SOURCE TARGET")
		}
		src, err := sheet.ParseRange(cmd.args[1])
		if err != nil {
			return err
		}
		dst, err := sheet.ParseRange(cmd.args[2])
		if err != nil {
			return err
		}
		ops, _ := srv.repo.CommitFill(cmd.args[0], src, dst)
		srv.history[cmd.args[0]].Push(ops)
		return nil
	case "ai":
		if len(cmd.args) < 3 {
			return fmt.Errorf("usage: ai SHEET RANGE PROMPT")
		}
		if srv.gen == nil {
			return fmt.Errorf("no content generator configured")
		}
		sel, err := sheet.ParseRange(cmd.args[1])
		if err != nil {
			return err
		}
		ops, _, err := srv.repo.FillWithAI(ctx, cmd.args[0], sel, strings.Join(cmd.args[2:], " "), srv.gen)
		if err != nil {
			return err
		}
		srv.history[cmd.args[0]].Push(ops)
		return nil
	case "undo", "redo":
		if len(cmd.args) != 1 {
			return fmt.Errorf("usage: %s SHEET", cmd.name)
		}
		id := cmd.args[0]
		srv.repo.GetOrCreate(id)
		h := srv.history[id]
		var ops []sheet.Operation
		if cmd.name == "undo" {
			ops = h.Undo()
		} else {
			ops = h.Redo()
		}
		if ops == nil {
			return fmt.Errorf("nothing to %s", cmd.name)
		}
		srv.repo.ApplyOperations(id, ops)
		return nil
	case "new":
		srv.repo.GetOrCreate(uuid.NewString())
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd.name)
}

func (srv *server) set(id, ref string, raw *string) error {
	a, err := sheet.ParseA1(ref)
	if err != nil {
		return err
	}
	srv.repo.UpdateCell(id, a.Row, a.Col, raw)
	srv.history[id].Push([]sheet.Operation{sheet.SetCell(id, a, raw)})
	return nil
}

func (srv *server) apply(id string, ops []sheet.Operation) error {
	srv.repo.ApplyOperations(id, ops)
	srv.history[id].Push(ops)
	return nil
}

func sheetArg(cmd command, usage string) (string, error) {
	if len(cmd.args) != 1 || cmd.args[0] == "" {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return cmd.args[0], nil
}
