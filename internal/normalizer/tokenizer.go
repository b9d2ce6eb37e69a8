package normalizer

import (
	"strings"
)

// Token is either a word or a line-break marker.
type Token struct {
	Text  string `json:"text,omitempty"`
	Break bool   `json:"break,omitempty"`
}

// Word creates a word token.
func Word(text string) Token { return Token{Text: text} }

// LineBreak creates a line-break marker.
func LineBreak() Token { return Token{Break: true} }

func (t Token) String() string {
	if t.Break {
		return "\\n"
	}
	return t.Text
}

// Tokenize splits raw address text into word tokens and line-break markers.
// Each input line contributes its words (split on spaces, tabs and commas)
// followed by exactly one break, so a blank line inside the address becomes a
// lone break. Leading and trailing whitespace of the whole input is ignored;
// empty input yields an empty sequence.
func Tokenize(raw string) []Token {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	lines := SplitLines(raw)
	tokens := make([]Token, 0, len(lines)*4)
	for _, line := range lines {
		for _, w := range strings.FieldsFunc(line, isSeparator) {
			tokens = append(tokens, Word(w))
		}
		tokens = append(tokens, LineBreak())
	}
	return tokens
}

// SplitLines splits on \r\n, \r and \n.
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// JoinWords joins the word tokens of a run, ignoring breaks.
func JoinWords(tokens []Token) string {
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !t.Break {
			words = append(words, t.Text)
		}
	}
	return strings.Join(words, " ")
}

func isSeparator(r rune) bool {
	return r == ' ' || r == ',' || r == '\t'
}
