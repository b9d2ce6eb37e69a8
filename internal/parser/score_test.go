package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postal-parser/internal/locale"
	"github.com/postal-parser/internal/normalizer"
)

func blockOf(words ...string) []normalizer.Token {
	out := make([]normalizer.Token, 0, len(words)+1)
	for _, w := range words {
		out = append(out, normalizer.Word(w))
	}
	return append(out, normalizer.LineBreak())
}

func TestScoreCandidate(t *testing.T) {
	testCases := []struct {
		name      string
		candidate Candidate
		expected  int
	}{
		{
			name: "complete Canadian address",
			candidate: Candidate{
				Country: locale.Canada, CountryToken: 9, State: "Ontario",
				City: "Cavon", PostalCode: "L0A 1C0", Block: blockOf("MCC"),
			},
			expected: 0,
		},
		{
			name: "implied country without postal code",
			candidate: Candidate{
				Country: locale.Canada, CountryToken: NoToken, State: "Quebec",
				City: "Boucherville", Block: blockOf("Trimen"),
			},
			expected: 3,
		},
		{
			name: "malformed zip",
			candidate: Candidate{
				Country: locale.UnitedStates, CountryToken: 3, State: "Michigan",
				City: "Redford", PostalCode: "48240 1480", Block: blockOf("Fire"),
			},
			expected: 1,
		},
		{
			name: "unverifiable country",
			candidate: Candidate{
				Country: "AU", CountryToken: NoToken, State: "Victoria",
				City: "Melbourne", Block: blockOf("Acme"),
			},
			expected: 3,
		},
		{
			name: "empty block, no city, leftover breaks",
			candidate: Candidate{
				Country: locale.UnitedStates, CountryToken: 1, State: "Texas",
				PostalCode: "75001", LeftoverBreaks: 2,
			},
			expected: 4,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ScoreCandidate(&tc.candidate))
		})
	}
}

func TestSelectCandidate(t *testing.T) {
	good := Candidate{Country: locale.Canada, CountryToken: 2, State: "Ontario", City: "Cavon", PostalCode: "L0A 1C0", Block: blockOf("MCC")}
	weak := Candidate{Country: locale.Canada, CountryToken: NoToken, State: "Ontario", City: "Cavon", Block: blockOf("MCC")}

	t.Run("empty set", func(t *testing.T) {
		_, err := SelectCandidate(nil)
		assert.True(t, errors.Is(err, ErrAmbiguousAddress))
	})

	t.Run("single candidate wins regardless of score", func(t *testing.T) {
		best, err := SelectCandidate([]Candidate{weak})
		require.NoError(t, err)
		assert.Equal(t, 3, best.Score)
	})

	t.Run("strictly lower score wins", func(t *testing.T) {
		best, err := SelectCandidate([]Candidate{weak, good})
		require.NoError(t, err)
		assert.Equal(t, 0, best.Score)
		assert.Equal(t, 2, best.CountryToken)
	})

	t.Run("tie is refused", func(t *testing.T) {
		other := good
		other.City = "Toronto"
		other.StateToken = 4
		_, err := SelectCandidate([]Candidate{good, other, weak})
		var ambErr *AmbiguityError
		require.True(t, errors.As(err, &ambErr))
		assert.Len(t, ambErr.Candidates, 3)
		assert.Contains(t, ambErr.Reason, "2 candidates tie at score 0")
	})

	t.Run("same reading from another country token is collapsed", func(t *testing.T) {
		again := good
		again.CountryToken = 5
		best, err := SelectCandidate([]Candidate{good, again, weak})
		require.NoError(t, err)
		assert.Equal(t, 0, best.Score)
		assert.Equal(t, 2, best.CountryToken)
	})
}

func TestRankCandidates(t *testing.T) {
	good := Candidate{Country: locale.Canada, CountryToken: 2, State: "Ontario", City: "Cavon", PostalCode: "L0A 1C0", Block: blockOf("MCC")}
	implied := good
	implied.CountryToken = NoToken
	repeated := good
	repeated.CountryToken = 7
	street := good
	street.Block = blockOf("MCC", "Fire")

	ranked := RankCandidates([]Candidate{implied, good, repeated, street})
	require.Len(t, ranked, 2)
	// the implied and repeated readings collapse into the best one
	assert.Equal(t, 2, ranked[0].CountryToken)
	assert.Equal(t, 0, ranked[0].Score)
	assert.Equal(t, "MCC Fire", ranked[1].BlockLines()[0])
	assert.Equal(t, 0, ranked[1].Score)
}
