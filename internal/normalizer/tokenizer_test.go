package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.String())
	}
	return out
}

func TestTokenize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []string{},
		},
		{
			name:     "Whitespace only",
			input:    "  \n\t \r\n ",
			expected: []string{},
		},
		{
			name:     "Single line with commas",
			input:    "Cavon, ON L0A 1C0",
			expected: []string{"Cavon", "ON", "L0A", "1C0", `\n`},
		},
		{
			name:     "Blank line becomes lone break",
			input:    "Orange, CA 92868\n\nAttn: Bob",
			expected: []string{"Orange", "CA", "92868", `\n`, `\n`, "Attn:", "Bob", `\n`},
		},
		{
			name:     "CRLF and CR line endings",
			input:    "A\r\nB\rC",
			expected: []string{"A", `\n`, "B", `\n`, "C", `\n`},
		},
		{
			name:     "Repeated separators",
			input:    "Bridgewater,,  NS ,\tCA",
			expected: []string{"Bridgewater", "NS", "CA", `\n`},
		},
		{
			name:     "Surrounding whitespace ignored",
			input:    "\n\n  Trimen Inc.  \n",
			expected: []string{"Trimen", "Inc.", `\n`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, words(Tokenize(tc.input)))
		})
	}
}

func TestTokenize_OneBreakPerLine(t *testing.T) {
	tokens := Tokenize("a\nb\n\nc")
	breaks := 0
	for _, tok := range tokens {
		if tok.Break {
			breaks++
			assert.Empty(t, tok.Text)
		} else {
			assert.NotEmpty(t, tok.Text)
		}
	}
	assert.Equal(t, 4, breaks)
	require.NotEmpty(t, tokens)
	assert.True(t, tokens[len(tokens)-1].Break)
}

func TestFoldKey(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Québec", "quebec"},
		{"QC", "qc"},
		{"  Ontario ", "ontario"},
		{"MONTRÉAL", "montreal"},
		{"Straße", "strasse"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, FoldKey(tc.input))
		})
	}

	assert.True(t, EqualFold("Nuevo León", "NUEVO LEON"))
	assert.False(t, EqualFold("ON", "OR"))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("Cavon,  ON L0A 1C0\r\nCanada", "v1")
	b := Fingerprint("Cavon, ON L0A 1C0\nCanada", "v1")
	c := Fingerprint("Cavon, ON L0A 1C0\nCanada", "v2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, b, c)
	assert.Contains(t, a, "sha256:")
}

func TestJoinWords(t *testing.T) {
	assert.Equal(t, "North York", JoinWords([]Token{Word("North"), LineBreak(), Word("York")}))
	assert.Equal(t, "", JoinWords(nil))
}
