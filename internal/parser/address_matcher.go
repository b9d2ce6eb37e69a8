package parser

import (
	"strings"

	"github.com/postal-parser/internal/locale"
	"github.com/postal-parser/internal/normalizer"
)

// AddressMatcher generates every plausible (country, state) reading of a
// token sequence and fills in the city, postal code and street block of each.
type AddressMatcher struct {
	table *locale.Table
}

// NewAddressMatcher returns a matcher resolving names against table.
func NewAddressMatcher(table *locale.Table) *AddressMatcher {
	return &AddressMatcher{table: table}
}

type countrySeed struct {
	country locale.Country
	token   int
}

// findCountries returns one seed per token naming a country, in token order.
func (am *AddressMatcher) findCountries(tokens []normalizer.Token) []countrySeed {
	var seeds []countrySeed
	for i, t := range tokens {
		if t.Break {
			continue
		}
		if c, ok := am.table.LookupCountry(t.Text); ok {
			seeds = append(seeds, countrySeed{country: c, token: i})
		}
	}
	return seeds
}

// MatchCandidates runs the constrained state search for every country seed and
// the unconstrained search for every country with a state table. Seeds that
// match no state are dropped. Once a line names nothing but a country, the
// unconstrained search is limited to the countries written that way.
func (am *AddressMatcher) MatchCandidates(tokens []normalizer.Token) []Candidate {
	var candidates []Candidate
	for _, seed := range am.findCountries(tokens) {
		candidates = append(candidates, am.matchStates(tokens, seed.country, seed.token)...)
	}
	written := am.countryLines(tokens)
	for _, c := range am.table.StateCountries() {
		if len(written) > 0 && !written[c] {
			continue
		}
		candidates = append(candidates, am.matchStates(tokens, c, NoToken)...)
	}
	for i := range candidates {
		am.extract(tokens, &candidates[i])
	}
	return candidates
}

// countryLines returns the countries named by a line holding nothing else.
func (am *AddressMatcher) countryLines(tokens []normalizer.Token) map[locale.Country]bool {
	written := make(map[locale.Country]bool)
	for pos := 0; pos < len(tokens); {
		end := nextBreak(tokens, pos)
		if c, ok := am.lineCountry(tokens, pos, end); ok {
			written[c] = true
		}
		pos = end + 1
	}
	return written
}

// lineCountry reports the country named by tokens[from:to], either word by
// word ("Canada Canada") or as one multi-word name ("United States").
func (am *AddressMatcher) lineCountry(tokens []normalizer.Token, from, to int) (locale.Country, bool) {
	if from >= to {
		return "", false
	}
	var line locale.Country
	for i := from; i < to; i++ {
		c, ok := am.table.LookupCountry(tokens[i].Text)
		if !ok || (line != "" && c != line) {
			line = ""
			break
		}
		line = c
	}
	if line != "" {
		return line, true
	}
	return am.phraseCountry(tokens, from, to)
}

// phraseCountry looks up the words of tokens[from:to] joined as one name.
func (am *AddressMatcher) phraseCountry(tokens []normalizer.Token, from, to int) (locale.Country, bool) {
	if to-from < 2 {
		return "", false
	}
	words := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		words = append(words, tokens[i].Text)
	}
	return am.table.LookupCountry(strings.Join(words, " "))
}

func (am *AddressMatcher) matchStates(tokens []normalizer.Token, country locale.Country, countryToken int) []Candidate {
	var out []Candidate
	for i, t := range tokens {
		if t.Break || i == countryToken {
			continue
		}
		state, ok := am.table.State(country, t.Text)
		if !ok {
			continue
		}
		// Without a written country, "CA" must not become California when it
		// names Canada.
		if countryToken == NoToken {
			if other, isCountry := am.table.LookupCountry(t.Text); isCountry && other != country {
				continue
			}
		}
		out = append(out, Candidate{
			Country:      country,
			CountryToken: countryToken,
			State:        state,
			StateToken:   i,
		})
	}
	return out
}

// extract fills city, postal code and block for a state-matched candidate.
// The city and postal code come from the line holding the state token;
// following lines that hold only the country name or a postal code are
// absorbed as well.
func (am *AddressMatcher) extract(tokens []normalizer.Token, c *Candidate) {
	start, end := lineBounds(tokens, c.StateToken)

	segment := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		if i == c.StateToken || i == c.CountryToken || am.table.Names(tokens[i].Text, c.Country) {
			continue
		}
		segment = append(segment, i)
	}

	var city []string
	for j := 0; j < len(segment); {
		if n := postalRun(c.Country, tokens, segment[j:]); n > 0 {
			c.PostalTokens = append(c.PostalTokens, segment[j:j+n]...)
			j += n
			continue
		}
		city = append(city, tokens[segment[j]].Text)
		j++
	}

	blank := 0
	absorbed := make(map[int]bool)
	for pos := end + 1; pos < len(tokens); {
		next := nextBreak(tokens, pos)
		if next == pos {
			blank++
			pos++
			continue
		}
		if country, ok := am.phraseCountry(tokens, pos, next); ok && country == c.Country {
			if !c.HasCountryToken() {
				c.CountryToken = pos
			}
			for i := pos; i < next; i++ {
				absorbed[i] = true
			}
			c.LeftoverBreaks += blank
			blank = 0
			pos = next + 1
			continue
		}
		postal, ok := am.tailLine(tokens, pos, next, c)
		if !ok {
			break
		}
		c.PostalTokens = append(c.PostalTokens, postal...)
		c.LeftoverBreaks += blank
		blank = 0
		pos = next + 1
	}

	c.City = strings.Join(city, " ")
	postal := make([]string, 0, len(c.PostalTokens))
	for _, i := range c.PostalTokens {
		postal = append(postal, tokens[i].Text)
	}
	c.PostalCode = strings.Join(postal, " ")
	c.Block = am.rebuildBlock(tokens, start, absorbed, c)
}

// tailLine checks whether tokens[from:to] hold nothing but the candidate's
// country name and, while no postal code was found yet, postal tokens.
func (am *AddressMatcher) tailLine(tokens []normalizer.Token, from, to int, c *Candidate) ([]int, bool) {
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}

	var postal []int
	for j := 0; j < len(idx); {
		if am.table.Names(tokens[idx[j]].Text, c.Country) {
			j++
			continue
		}
		if len(c.PostalTokens) == 0 {
			if n := postalRun(c.Country, tokens, idx[j:]); n > 0 {
				postal = append(postal, idx[j:j+n]...)
				j += n
				continue
			}
		}
		return nil, false
	}
	return postal, true
}

// rebuildBlock keeps every token before the state line and drops, from the
// state line on, every word already accounted for by another field. Tokens of
// absorbed multi-word country lines are always dropped.
func (am *AddressMatcher) rebuildBlock(tokens []normalizer.Token, boundary int, absorbed map[int]bool, c *Candidate) []normalizer.Token {
	exclude := make(map[string]bool)
	add := func(s string) {
		for _, w := range strings.Fields(s) {
			exclude[normalizer.FoldKey(w)] = true
		}
	}
	add(c.City)
	for _, i := range c.PostalTokens {
		add(tokens[i].Text)
	}
	add(tokens[c.StateToken].Text)
	add(c.State)
	if c.HasCountryToken() && !absorbed[c.CountryToken] {
		add(tokens[c.CountryToken].Text)
	}
	add(string(c.Country))
	add(am.table.Alpha3(c.Country))

	block := make([]normalizer.Token, 0, len(tokens))
	for i, t := range tokens {
		if t.Break {
			if len(block) > 0 && !block[len(block)-1].Break {
				block = append(block, t)
			}
			continue
		}
		if absorbed[i] || (i >= boundary && exclude[normalizer.FoldKey(t.Text)]) {
			continue
		}
		block = append(block, t)
	}
	return block
}

// postalRun returns how many tokens at the head of idx form a postal code
// fragment of c: 2 for a complete two-block code, 1 for a single token.
func postalRun(c locale.Country, tokens []normalizer.Token, idx []int) int {
	if !HasPostalFormat(c) || len(idx) == 0 {
		return 0
	}
	if len(idx) > 1 && IsPostalPair(c, tokens[idx[0]].Text, tokens[idx[1]].Text) {
		return 2
	}
	if IsPostalToken(c, tokens[idx[0]].Text) {
		return 1
	}
	return 0
}

// lineBounds returns [start, end) of the line holding token i; end is the
// index of the terminating break or len(tokens).
func lineBounds(tokens []normalizer.Token, i int) (int, int) {
	start := i
	for start > 0 && !tokens[start-1].Break {
		start--
	}
	return start, nextBreak(tokens, i)
}

func nextBreak(tokens []normalizer.Token, from int) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i].Break {
			return i
		}
	}
	return len(tokens)
}
