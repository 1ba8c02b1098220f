package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	sheet "github.com/knusbaum/gridcalc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	out [][]any
	err error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, data [][]any) ([][]any, error) {
	return g.out, g.err
}

// exec runs each line of input as a command and returns the responses.
func exec(t *testing.T, sess *session, input string) []string {
	t.Helper()
	s := bufio.NewScanner(strings.NewReader(input))
	var out []string
	for {
		resp, err := doCommand(context.Background(), sess, s)
		if err == io.EOF {
			return out
		}
		if err != nil {
			out = append(out, "error: "+err.Error())
			continue
		}
		out = append(out, resp)
	}
}

func rawAt(t *testing.T, sess *session, ref string) string {
	t.Helper()
	a, err := sheet.ParseA1(ref)
	require.NoError(t, err)
	return sess.sheet().EditAt(a)
}

func TestDoCommand(t *testing.T) {
	assert := assert.New(t)
	var b bytes.Buffer
	sess := newSession("s", nil, &b)

	out := exec(t, sess, "SET B1 hello world\nset A1 10\nCLEAR A2\nEDIT\n\nbogus\nSET A1\n")
	assert.Equal([]string{
		"OK",
		"OK",
		"OK",
		"EDITMODE = true",
		"",
		"error: Unknown command bogus",
		"error: SET expects 2 arguments - SET [address] [value]",
	}, out)
	assert.Equal("hello world", rawAt(t, sess, "B1"))
	assert.Equal(10.0, sess.sheet().ValueAt(sheet.Addr(2, 0)))
	assert.True(sess.editMode)
}

func TestDoCommandFillUndoRedo(t *testing.T) {
	assert := assert.New(t)
	sess := newSession("s", nil, io.Discard)

	out := exec(t, sess, "FILL A3 A3:C3\nUNDO\nREDO\nREDO\n")
	assert.Equal([]string{"filled 2 cells", "OK", "OK", "error: Nothing to redo"}, out)
	assert.Equal("=B1+B2", rawAt(t, sess, "B3"))
	assert.Equal("=C1+C2", rawAt(t, sess, "C3"))
}

func TestDoCommandPaste(t *testing.T) {
	assert := assert.New(t)
	sess := newSession("s", nil, io.Discard)

	out := exec(t, sess, "PASTE B1\n1\t2\n=B1+C1\t\"x\"\n.\nSET D1 4\n")
	assert.Equal([]string{"pasted 4 cells", "OK"}, out)
	assert.Equal("=B1+C1", rawAt(t, sess, "B2"))
	assert.Equal("x", rawAt(t, sess, "C2"))
	assert.Equal(3.0, sess.sheet().ValueAt(sheet.Addr(1, 1)))
}

func TestDoCommandAI(t *testing.T) {
	assert := assert.New(t)
	sess := newSession("s", nil, io.Discard)
	assert.Equal([]string{"error: No API key configured"}, exec(t, sess, "AI A1:A2 double\n"))

	sess.gen = &fakeGenerator{out: [][]any{{"a"}, {"b"}}}
	assert.Equal([]string{"OK"}, exec(t, sess, "AI A1:A2 spell them out\n"))
	assert.Equal("a", rawAt(t, sess, "A1"))
	assert.Equal("b", rawAt(t, sess, "A2"))

	sess.gen = &fakeGenerator{err: errors.New("quota")}
	assert.Equal([]string{"error: quota"}, exec(t, sess, "AI A1:A2 again\n"))
}

func TestDoCommandCSV(t *testing.T) {
	var b bytes.Buffer
	sess := newSession("s", nil, &b)
	exec(t, sess, "CSV\nEDIT\nCSV\n")
	assert.Equal(t, "1\n2\n3\n1\n2\n=A1+A2\n", b.String())
}

func TestDoCommandSaveLoad(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "s.xlsx")

	sess := newSession("s", nil, io.Discard)
	out := exec(t, sess, "SET B2 =A3*2\nSAVE "+path+"\n")
	assert.Equal([]string{"OK", "saved " + path}, out)

	other := newSession("t", nil, io.Discard)
	out = exec(t, other, "CLEAR A1\nLOAD "+path+"\n")
	assert.Equal([]string{"OK", "loaded 4 cells"}, out)
	assert.Equal("=A3*2", rawAt(t, other, "B2"))
	assert.Equal(6.0, other.sheet().ValueAt(sheet.Addr(1, 1)))
}

func TestRepl(t *testing.T) {
	var b bytes.Buffer
	sess := newSession("s", nil, &b)
	require.NoError(t, repl(context.Background(), sess, strings.NewReader("SET B1 7\nnope\n")))

	out := b.String()
	assert.Contains(t, out, "gridcalc > ")
	assert.Contains(t, out, "Unknown command nope")
	assert.Equal(t, 2, strings.Count(out, "| A "))
	assert.Contains(t, out, "| 7 ")
}

func TestReadInstructions(t *testing.T) {
	s, err := readInstructions("x", strings.NewReader("A1 2 10\nB1 2 20\nC1 6 =A1+B1\n"))
	require.NoError(t, err)
	assert.Equal(t, 30.0, s.ValueAt(sheet.Addr(0, 2)))

	_, err = readInstructions("x", strings.NewReader("A1 x 10\n"))
	assert.Error(t, err)
}
