package locale

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/postal-parser/internal/normalizer"
)

// Suggestion is a state name that looks like a misspelled or unknown alias.
type Suggestion struct {
	State string  `json:"state"`
	Alias string  `json:"alias"`
	Score float64 `json:"score"`
}

// Suggester ranks the states of a country by similarity to free text. It
// never influences parsing; parse failures use it to hint at what the caller
// may have meant.
type Suggester struct {
	table     *Table
	jwWeight  float64
	levWeight float64
}

// NewSuggester weighs Jaro-Winkler similarity against normalized Levenshtein
// similarity. Zero weights fall back to 0.7 / 0.3.
func NewSuggester(table *Table, jwWeight, levWeight float64) *Suggester {
	if jwWeight <= 0 && levWeight <= 0 {
		jwWeight, levWeight = 0.7, 0.3
	}
	return &Suggester{table: table, jwWeight: jwWeight, levWeight: levWeight}
}

// Suggest returns at most limit states of c whose name or alias resembles text.
// An empty text lists every state alphabetically.
func (s *Suggester) Suggest(c Country, text string, limit int) []Suggestion {
	query := normalizer.FoldKey(text)
	aliases, ok := s.table.states[c]
	if !ok {
		return nil
	}

	if query == "" {
		out := make([]Suggestion, 0, len(s.table.canonical[c]))
		for _, name := range s.table.canonical[c] {
			out = append(out, Suggestion{State: name, Alias: name, Score: 1})
		}
		return truncate(out, limit)
	}

	best := make(map[string]Suggestion)
	for alias, canonical := range aliases {
		score := s.similarity(query, alias)
		if !acceptable(query, score) {
			continue
		}
		if prev, seen := best[canonical]; !seen || score > prev.Score || (score == prev.Score && alias < prev.Alias) {
			best[canonical] = Suggestion{State: canonical, Alias: alias, Score: score}
		}
	}

	out := make([]Suggestion, 0, len(best))
	for _, sg := range best {
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].State < out[j].State
	})
	return truncate(out, limit)
}

func (s *Suggester) similarity(query, alias string) float64 {
	if query == alias {
		return 1
	}
	jw := smetrics.JaroWinkler(query, alias, 0.7, 4)

	dist := levenshtein.ComputeDistance(query, alias)
	maxLen := math.Max(float64(len(query)), float64(len(alias)))
	lev := 1.0 - float64(dist)/maxLen

	score := (s.jwWeight*jw + s.levWeight*lev) / (s.jwWeight + s.levWeight)
	if strings.HasPrefix(alias, query) && score < 0.9 {
		score = 0.9
	}
	return score
}

// Short queries need a closer match than long ones.
func acceptable(query string, score float64) bool {
	if len(query) <= 3 {
		return score >= 0.85
	}
	if len(query) <= 10 {
		return score >= 0.75
	}
	return score >= 0.6
}

func truncate(list []Suggestion, limit int) []Suggestion {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
