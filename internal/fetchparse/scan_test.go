package fetchparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPrefix(t *testing.T) {
	assert.True(t, matchPrefix("envelope (", "ENVELOPE"))
	assert.True(t, matchPrefix("NIL", "nil"))
	assert.False(t, matchPrefix("NI", "NIL"))
	assert.False(t, matchPrefix("UIX", "UID"))
	assert.True(t, matchPrefix("anything", ""))
}

func TestScanUnsignedInt(t *testing.T) {
	n, rest, err := scanUnsignedInt("6026 RFC822")
	require.NoError(t, err)
	assert.Equal(t, uint64(6026), n)
	assert.Equal(t, " RFC822", rest)

	_, _, err = scanUnsignedInt(" 1")
	assert.ErrorIs(t, err, ErrSyntax)

	_, _, err = scanUnsignedInt("99999999999999999999999")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestScanQuotedOrNil(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		present bool
		rest    string
		wantErr bool
	}{
		{name: "nil", input: "NIL rest", rest: "rest"},
		{name: "nil lower case", input: "nil)", rest: ")"},
		{name: "quoted", input: `"hello" x`, want: "hello", present: true, rest: " x"},
		{name: "empty quoted", input: `""`, want: "", present: true},
		{name: "escaped quote kept", input: `"say \"hi\"")`, want: `say \"hi\"`, present: true, rest: ")"},
		{name: "escaped backslash", input: `"a\\" b`, want: `a\\`, present: true, rest: " b"},
		{name: "parens inside", input: `"(x))" y`, want: "(x))", present: true, rest: " y"},
		{name: "leading space", input: `  "v"`, want: "v", present: true},
		{name: "literal", input: "{5}\r\nab\"(c rest", want: "ab\"(c", present: true, rest: " rest"},
		{name: "literal bare LF", input: "{3}\nabc", want: "abc", present: true},
		{name: "empty literal", input: "{0}\r\n)", want: "", present: true, rest: ")"},
		{name: "literal too short", input: "{9}\r\nabc", wantErr: true},
		{name: "literal no brace", input: "{9\r\nabc", wantErr: true},
		{name: "literal bad length", input: "{-1}\r\nabc", wantErr: true},
		{name: "literal no newline", input: "{3}abc", wantErr: true},
		{name: "unterminated", input: `"abc`, wantErr: true},
		{name: "dangling escape", input: `"abc\"`, wantErr: true},
		{name: "atom", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present, rest, err := scanQuotedOrNil(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSyntax)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestScanParenthesized(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		inner   string
		rest    string
		wantErr bool
	}{
		{name: "simple", input: `(\Seen \Answered) UID`, inner: `\Seen \Answered`, rest: " UID"},
		{name: "empty", input: "()", inner: ""},
		{name: "nested", input: "(a (b) c) d", inner: "a (b) c", rest: " d"},
		{name: "quoted paren", input: `("a)" NIL "b" "c") x`, inner: `"a)" NIL "b" "c"`, rest: " x"},
		{name: "escaped quote in quotes", input: `("a\")" NIL)`, inner: `"a\")" NIL`},
		{name: "leading space", input: "  (x)", inner: "x"},
		{name: "no open", input: "x (y)", wantErr: true},
		{name: "unmatched", input: "(a (b)", wantErr: true},
		{name: "unmatched in quote", input: `("a)`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, rest, err := scanParenthesized(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSyntax)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.inner, inner)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestScanParenthesizedList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		inner   string
		present bool
		rest    string
		wantErr bool
	}{
		{name: "nil", input: "NIL NIL", rest: "NIL"},
		{
			name:    "one",
			input:   `(("A" NIL "a" "b")) NIL`,
			inner:   `("A" NIL "a" "b")`,
			present: true,
			rest:    " NIL",
		},
		{
			name:    "two",
			input:   `(("A" NIL "a" "b")("C" NIL "c" "d"))`,
			inner:   `("A" NIL "a" "b")("C" NIL "c" "d")`,
			present: true,
		},
		{
			name:    "quoted closers",
			input:   `(("A))" NIL "a" "b")) x`,
			inner:   `("A))" NIL "a" "b")`,
			present: true,
			rest:    " x",
		},
		{name: "not a list", input: `"x"`, wantErr: true},
		{name: "single paren", input: `("x")`, wantErr: true},
		{name: "unterminated", input: `(("A" NIL "a" "b")`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, present, rest, err := scanParenthesizedList(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSyntax)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.inner, inner)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.rest, rest)
		})
	}
}
