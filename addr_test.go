package sheet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseA1(t *testing.T) {
	for name, tt := range map[string]struct {
		addr        string
		expectAddr  CellAddress
		expectError bool
	}{
		"good": {
			addr:       "A2",
			expectAddr: CellAddress{Row: 1, Col: 0},
		},
		"long/1": {
			addr:       "ZZ2",
			expectAddr: CellAddress{Row: 1, Col: 701},
		},
		"long/2": {
			addr:       "AAA200000000",
			expectAddr: CellAddress{Row: 199999999, Col: 702},
		},
		"lowercase": {
			addr:        "a2",
			expectError: true,
		},
		"norow": {
			addr:        "A",
			expectError: true,
		},
		"zero": {
			addr:        "A0",
			expectError: true,
		},
		"trailing": {
			addr:        "A1B",
			expectError: true,
		},
		"long/max": {
			addr:       "ZZZZZZZ1",
			expectAddr: CellAddress{Row: 0, Col: 8353082581},
		},
		"overflow": {
			addr:        "ZZZZZZZZZZZZZZ1",
			expectError: true,
		},
		"toolong": {
			addr:        "AAAAAAAA1",
			expectError: true,
		},
		"key": {
			addr:        "R1C1",
			expectError: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			addr, err := ParseA1(tt.addr)

			if tt.expectError {
				assert.True(errors.Is(err, ErrInvalidReference))
			} else {
				assert.NoError(err)
				assert.Equal(tt.expectAddr, addr)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	assert := assert.New(t)
	a, err := ParseKey("R12C3")
	assert.NoError(err)
	assert.Equal(CellAddress{Row: 12, Col: 3}, a)

	for _, bad := range []string{"", "R1", "C1", "r1c1", "R-1C2", "R1C2x", "A1"} {
		_, err := ParseKey(bad)
		assert.True(errors.Is(err, ErrInvalidKey), bad)
	}
}

func TestColLetters(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{51, "AZ"},
		{701, "ZZ"},
		{702, "AAA"},
		{16383, "XFD"},
	}
	for _, tt := range tests {
		if got := ColLetters(tt.col); got != tt.want {
			t.Errorf("ColLetters(%d) = %q, want %q", tt.col, got, tt.want)
		}
		if got := ColIndex(tt.want); got != tt.col {
			t.Errorf("ColIndex(%q) = %d, want %d", tt.want, got, tt.col)
		}
	}
}

func TestA1(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("A1", Addr(0, 0).A1())
	assert.Equal("Z7", Addr(6, 25).A1())
	assert.Equal("AA3", Addr(2, 26).A1())
	assert.Equal("R2C26", Addr(2, 26).Key())
}

func TestAddressRoundTrip(t *testing.T) {
	assert := assert.New(t)
	check := func(a CellAddress) bool {
		k, err := ParseKey(a.Key())
		if !assert.NoError(err) || !assert.Equal(a, k) {
			return false
		}
		r, err := ParseA1(a.A1())
		return assert.NoError(err) && assert.Equal(a, r)
	}

	for col := 0; col < 20000; col++ {
		if !check(Addr(col%97, col)) {
			return
		}
	}
	for col := 1 << 20; col < 1<<20+64; col++ {
		if !check(Addr(col, col)) {
			return
		}
	}
}

func ExampleColLetters() {
	fmt.Println(ColLetters(0), ColLetters(25), ColLetters(26))
	// Output: A Z AA
}
