package sheet

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrInvalidKey is returned by ParseKey when a key is not of the form R<digits>C<digits>.
	ErrInvalidKey = errors.New("invalid cell key")
	// ErrInvalidReference is returned by ParseA1 when a reference is not of the form [A-Z]+[0-9]+.
	ErrInvalidReference = errors.New("invalid cell reference")
)

// MaxColLetters is the longest column name ParseA1 accepts. Seven letters cover columns up to
// "ZZZZZZZ", well inside an int.
const MaxColLetters = 7

var (
	keyRE = regexp.MustCompile(`^R([0-9]+)C([0-9]+)$`)
	a1RE  = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)
)

// CellAddress is the address of a cell in a sheet. Row and Col are 0-based.
type CellAddress struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Addr is shorthand for CellAddress{Row: row, Col: col}.
func Addr(row, col int) CellAddress {
	return CellAddress{Row: row, Col: col}
}

// Key returns the canonical key of ca, as in "R2C1".
func (ca CellAddress) Key() string {
	return "R" + strconv.Itoa(ca.Row) + "C" + strconv.Itoa(ca.Col)
}

// ParseKey parses a key produced by Key.
func ParseKey(key string) (CellAddress, error) {
	m := keyRE.FindStringSubmatch(key)
	if m == nil {
		return CellAddress{}, fmt.Errorf("%w '%s'", ErrInvalidKey, key)
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return CellAddress{}, fmt.Errorf("%w '%s': %v", ErrInvalidKey, key, err)
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return CellAddress{}, fmt.Errorf("%w '%s': %v", ErrInvalidKey, key, err)
	}
	return CellAddress{Row: row, Col: col}, nil
}

// A1 returns the traditional spreadsheet form of ca: column letters followed by the 1-based
// row, as in "B3".
func (ca CellAddress) A1() string {
	return ColLetters(ca.Col) + strconv.Itoa(ca.Row+1)
}

// String returns a human-readable representation of ca. This value can also be parsed by ParseA1.
func (ca CellAddress) String() string {
	return ca.A1()
}

// ParseA1 parses an address string of the format [A-Z]+[0-9]+, where the alphabetic characters
// are the column and the number is the 1-based row. Lower case letters are rejected.
func ParseA1(ref string) (CellAddress, error) {
	m := a1RE.FindStringSubmatch(ref)
	if m == nil {
		return CellAddress{}, fmt.Errorf("%w '%s'", ErrInvalidReference, ref)
	}
	row, err := strconv.Atoi(m[2])
	if err != nil {
		return CellAddress{}, fmt.Errorf("%w '%s': %v", ErrInvalidReference, ref, err)
	}
	if row < 1 {
		return CellAddress{}, fmt.Errorf("%w '%s': rows start at 1", ErrInvalidReference, ref)
	}
	if len(m[1]) > MaxColLetters {
		return CellAddress{}, fmt.Errorf("%w '%s': column is longer than %d letters", ErrInvalidReference, ref, MaxColLetters)
	}
	return CellAddress{Row: row - 1, Col: ColIndex(m[1])}, nil
}

// ColLetters converts a 0-based column index to its letters: 0 is "A", 25 is "Z", 26 is "AA".
// Column letters are a bijective base-26 numeral, so there is no zero digit.
func ColLetters(index int) string {
	var buf [16]byte
	i := len(buf)
	for col := index + 1; col > 0; col = (col - 1) / 26 {
		i--
		buf[i] = byte('A' + (col-1)%26)
	}
	return string(buf[i:])
}

// ColIndex converts column letters to a 0-based column index. It is the inverse of ColLetters and
// expects only the letters A-Z and at most MaxColLetters of them.
func ColIndex(letters string) int {
	col := 0
	for i := 0; i < len(letters); i++ {
		col = col*26 + int(letters[i]-'A'+1)
	}
	return col - 1
}
