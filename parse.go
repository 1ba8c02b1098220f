package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type Op int

const (
	NONE Op = iota
	ADD
	SUB
	MUL
	DIV
	LP
	RP
	ID
	NUM
	NEG
)

var opNames = [...]string{
	NONE: "NONE",
	ADD:  "+",
	SUB:  "-",
	MUL:  "*",
	DIV:  "/",
	LP:   "(",
	RP:   ")",
	ID:   "identifier",
	NUM:  "number",
	NEG:  "-",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

type Token struct {
	op  Op
	val string
}

func (t Token) String() string {
	if t.op == ID || t.op == NUM {
		return t.val
	}
	return t.op.String()
}

// Expression is a node of a parsed formula. ID nodes hold a reference in val, NUM nodes hold a
// literal in num, NEG nodes only have a left operand.
type Expression struct {
	op    Op
	left  *Expression
	right *Expression
	val   string
	num   float64
}

// punct maps the single-rune tokens to their operators.
var punct = map[rune]Op{
	'+': ADD,
	'-': SUB,
	'*': MUL,
	'/': DIV,
	'(': LP,
	')': RP,
}

// Parser reads one formula. look holds a token that was read ahead and put back.
type Parser struct {
	r    *strings.Reader
	look Token
}

func (p *Parser) unreadToken(tok Token) error {
	if p.look.op != NONE {
		return fmt.Errorf("Cannot unread more than one token.")
	}
	p.look = tok
	return nil
}

func (p *Parser) nextTok() (tok Token, err error) {
	if p.look.op != NONE {
		tok = p.look
		p.look.op = NONE
		p.look.val = ""
		return
	}
	rn, _, err := p.r.ReadRune()
	for err == nil && unicode.IsSpace(rn) {
		rn, _, err = p.r.ReadRune()
	}
	if err != nil {
		return Token{}, err
	}

	if op, ok := punct[rn]; ok {
		return Token{op: op}, nil
	}
	if unicode.IsDigit(rn) || rn == '.' {
		p.r.UnreadRune()
		return p.number()
	}

	if !unicode.IsLetter(rn) {
		return Token{}, fmt.Errorf("Unexpected rune %q", rn)
	}

	var id strings.Builder
	for err == nil && (unicode.IsLetter(rn) || unicode.IsDigit(rn)) {
		id.WriteRune(rn)
		rn, _, err = p.r.ReadRune()
	}
	if err == nil {
		p.r.UnreadRune()
	}
	return Token{op: ID, val: id.String()}, nil
}

// number reads a numeric literal: digits with an optional fraction and exponent.
func (p *Parser) number() (Token, error) {
	var sb strings.Builder
	accept := func(pred func(rune) bool) bool {
		rn, _, err := p.r.ReadRune()
		if err != nil {
			return false
		}
		if !pred(rn) {
			p.r.UnreadRune()
			return false
		}
		sb.WriteRune(rn)
		return true
	}
	isDigit := func(rn rune) bool { return rn >= '0' && rn <= '9' }

	for accept(isDigit) {
	}
	if accept(func(rn rune) bool { return rn == '.' }) {
		for accept(isDigit) {
		}
	}
	if accept(func(rn rune) bool { return rn == 'e' || rn == 'E' }) {
		accept(func(rn rune) bool { return rn == '+' || rn == '-' })
		if !accept(isDigit) {
			return Token{}, fmt.Errorf("Malformed number %q", sb.String())
		}
		for accept(isDigit) {
		}
	}
	if _, err := strconv.ParseFloat(sb.String(), 64); err != nil {
		return Token{}, fmt.Errorf("Malformed number %q", sb.String())
	}
	return Token{op: NUM, val: sb.String()}, nil
}

// The grammar, lowest precedence first. Binary operators are left associative.
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | primary
//	primary = "(" expr ")" | ID | NUM
//
//	ID  = [a-zA-Z][a-zA-Z0-9]*
//	NUM = [0-9]*(\.[0-9]*)?([eE][+-]?[0-9]+)?

// peek returns the next token without consuming it. At the end of input it returns a NONE token
// and no error.
func (p *Parser) peek() (Token, error) {
	tok, err := p.nextTok()
	if err == io.EOF {
		return Token{op: NONE}, nil
	}
	if err != nil {
		return Token{}, err
	}
	return tok, p.unreadToken(tok)
}

// binary parses operands with next, joined by any of ops.
func (p *Parser) binary(next func() (*Expression, error), ops ...Op) (*Expression, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !tok.op.oneOf(ops) {
			return left, nil
		}
		p.nextTok()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Expression{op: tok.op, left: left, right: right}
	}
}

func (o Op) oneOf(ops []Op) bool {
	for _, op := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func (p *Parser) parseExpr() (*Expression, error) {
	return p.binary(p.parseTerm, ADD, SUB)
}

func (p *Parser) parseTerm() (*Expression, error) {
	return p.binary(p.parseUnary, MUL, DIV)
}

func (p *Parser) parseUnary() (*Expression, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.op {
	case ADD:
		p.nextTok()
		return p.parseUnary()
	case SUB:
		p.nextTok()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expression{op: NEG, left: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*Expression, error) {
	tok, err := p.nextTok()
	if err == io.EOF {
		return nil, fmt.Errorf("Unexpected end of expression")
	}
	if err != nil {
		return nil, err
	}

	switch tok.op {
	case ID:
		return &Expression{op: ID, val: tok.val}, nil
	case NUM:
		f, err := strconv.ParseFloat(tok.val, 64)
		if err != nil {
			return nil, err
		}
		return &Expression{op: NUM, val: tok.val, num: f}, nil
	case LP:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing, err := p.nextTok()
		if err == io.EOF {
			return nil, fmt.Errorf("Expected ), but reached the end of the expression")
		}
		if err != nil {
			return nil, err
		}
		if closing.op != RP {
			return nil, fmt.Errorf("Expected ), but have %s", closing)
		}
		return inner, nil
	}
	return nil, fmt.Errorf("Expected a number, reference or (, but got %s", tok)
}

// ParseExpression parses a formula. A leading '=' is optional. The whole input must be consumed.
func ParseExpression(eqn string) (*Expression, error) {
	p := &Parser{r: strings.NewReader(strings.TrimPrefix(eqn, "="))}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	tok, err := p.nextTok()
	if err == nil {
		return nil, fmt.Errorf("Unexpected token %s", tok)
	}
	if err != io.EOF {
		return nil, err
	}
	return e, nil
}
