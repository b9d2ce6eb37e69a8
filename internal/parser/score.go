package parser

import (
	"fmt"
	"sort"

	"github.com/postal-parser/internal/locale"
)

// ScoreCandidate counts the penalties of c; lower is better.
func ScoreCandidate(c *Candidate) int {
	score := 0
	if len(c.BlockLines()) == 0 {
		score++
	}
	if c.City == "" {
		score++
	}
	if c.State == "" {
		score++
	}
	if c.Country == "" {
		score++
	}
	if !c.HasCountryToken() {
		score++
	}
	if c.PostalCode == "" {
		score++
	}
	score += c.LeftoverBreaks

	switch c.Country {
	case locale.Canada, locale.UnitedStates:
		if !ValidPostalCode(c.Country, c.PostalCode) {
			score++
		}
	default:
		score++
	}
	return score
}

// RankCandidates scores the candidates, sorts them best first and drops every
// candidate that reads the same fields as a better-ranked one. Repeated
// country mentions yield such duplicates.
func RankCandidates(candidates []Candidate) []Candidate {
	for i := range candidates {
		candidates[i].Score = ScoreCandidate(&candidates[i])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})

	seen := make(map[string]bool, len(candidates))
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.readingKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		ranked = append(ranked, c)
	}
	return ranked
}

// SelectCandidate ranks the candidates and returns the unique best one.
func SelectCandidate(candidates []Candidate) (*Candidate, error) {
	if len(candidates) == 0 {
		return nil, ambiguous("no state or province recognized", nil)
	}
	ranked := RankCandidates(candidates)
	if len(ranked) == 1 || ranked[0].Score < ranked[1].Score {
		return &ranked[0], nil
	}
	return nil, ambiguous(fmt.Sprintf("%d candidates tie at score %d", countTied(ranked), ranked[0].Score), ranked)
}

func countTied(sorted []Candidate) int {
	n := 1
	for n < len(sorted) && sorted[n].Score == sorted[0].Score {
		n++
	}
	return n
}
