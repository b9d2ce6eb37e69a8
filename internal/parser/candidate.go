package parser

import (
	"strconv"
	"strings"

	"github.com/postal-parser/internal/locale"
	"github.com/postal-parser/internal/normalizer"
)

// NoToken marks an index that points at no token.
const NoToken = -1

// Candidate is one hypothesis of how the tokens map onto address fields.
type Candidate struct {
	Country      locale.Country
	CountryToken int // NoToken when the country was implied by the state
	State        string
	StateToken   int

	City         string
	PostalCode   string
	PostalTokens []int

	// Block holds the recipient and street lines, breaks included.
	Block          []normalizer.Token
	LeftoverBreaks int

	Score int
}

// HasCountryToken reports whether the country was written in the input.
func (c *Candidate) HasCountryToken() bool {
	return c.CountryToken != NoToken
}

// BlockLines returns the non-blank, trimmed lines of the block.
func (c *Candidate) BlockLines() []string {
	lines := make([]string, 0, 4)
	words := make([]string, 0, 8)
	flush := func() {
		if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
			lines = append(lines, line)
		}
		words = words[:0]
	}
	for _, t := range c.Block {
		if t.Break {
			flush()
			continue
		}
		words = append(words, t.Text)
	}
	flush()
	return lines
}

// readingKey identifies the fields a candidate would produce.
func (c *Candidate) readingKey() string {
	var b strings.Builder
	b.WriteString(string(c.Country))
	for _, f := range []string{c.State, strconv.Itoa(c.StateToken), c.City, c.PostalCode} {
		b.WriteByte(0)
		b.WriteString(f)
	}
	for _, t := range c.Block {
		b.WriteByte(0)
		if t.Break {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(t.Text)
	}
	return b.String()
}
