package parser

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
	"github.com/postal-parser/internal/locale"
	"github.com/postal-parser/internal/normalizer"
)

// AddressParser turns free-form address text into postal records.
type AddressParser struct {
	matcher *AddressMatcher
	table   *locale.Table
	logger  *zap.Logger
}

// NewAddressParser returns a parser over table; a nil table means the
// bundled default.
func NewAddressParser(table *locale.Table, logger *zap.Logger) *AddressParser {
	if table == nil {
		table = locale.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressParser{
		matcher: NewAddressMatcher(table),
		table:   table,
		logger:  logger,
	}
}

// Table returns the locale table the parser resolves against.
func (ap *AddressParser) Table() *locale.Table {
	return ap.table
}

// Parse turns free-form address text into a complete PostalAddress or fails
// with an error matching ErrAmbiguousAddress.
func (ap *AddressParser) Parse(raw string) (*models.PostalAddress, error) {
	address, _, err := ap.parse(raw)
	return address, err
}

// Candidates returns every scored candidate of raw, best first.
func (ap *AddressParser) Candidates(raw string) []Candidate {
	return RankCandidates(ap.matcher.MatchCandidates(normalizer.Tokenize(raw)))
}

func (ap *AddressParser) parse(raw string) (*models.PostalAddress, *Candidate, error) {
	tokens := normalizer.Tokenize(raw)
	if len(tokens) == 0 {
		return nil, nil, ambiguous("empty input", nil)
	}

	candidates := ap.matcher.MatchCandidates(tokens)
	best, err := SelectCandidate(candidates)
	if err != nil {
		ap.logger.Debug("Address did not resolve",
			zap.Int("tokens", len(tokens)),
			zap.Int("candidates", len(candidates)),
			zap.Error(err))
		return nil, nil, err
	}

	address, err := ap.assemble(best)
	if err != nil {
		return nil, best, err
	}

	ap.logger.Debug("Parsed address",
		zap.Int("candidates", len(candidates)),
		zap.String("country", string(best.Country)),
		zap.String("state", best.State),
		zap.Int("score", best.Score))
	return address, best, nil
}

// assemble builds the final record; it refuses to return one with a missing
// required field.
func (ap *AddressParser) assemble(c *Candidate) (*models.PostalAddress, error) {
	lines := c.BlockLines()
	if len(lines) == 0 {
		return nil, ambiguous("no recipient or street lines", []Candidate{*c})
	}

	address := &models.PostalAddress{
		AddressTo:     lines[0],
		StreetAddress: strings.Join(lines[1:], "\n"),
		Municipality:  strings.TrimSpace(c.City),
		State:         c.State,
		Country:       string(c.Country),
		CountryName:   ap.table.CountryName(c.Country),
		PostalCode:    c.PostalCode,
	}
	if err := address.Validate(); err != nil {
		return nil, &AmbiguityError{Reason: err.Error(), Candidates: []Candidate{*c}}
	}
	return address, nil
}

// ParseAddress parses raw and returns the result with its fingerprint. On
// failure the result is still returned, with status ambiguous, alongside the
// error.
func (ap *AddressParser) ParseAddress(raw string, withCandidates bool) (*models.AddressResult, error) {
	result := &models.AddressResult{
		Raw:            raw,
		RawFingerprint: normalizer.Fingerprint(raw, ap.table.Version()),
		LocaleVersion:  ap.table.Version(),
	}

	address, best, err := ap.parse(raw)
	if err != nil {
		result.Status = models.StatusAmbiguous
		result.Error = err.Error()
		var ambErr *AmbiguityError
		if errors.As(err, &ambErr) {
			result.Candidates = SummarizeCandidates(ambErr.Candidates)
		}
		return result, err
	}

	result.Address = address
	result.Score = best.Score
	result.Status = models.StatusMatched
	if withCandidates {
		result.Candidates = SummarizeCandidates(ap.Candidates(raw))
	}
	return result, nil
}

// ParseAddresses parses a batch sequentially and keeps the input order.
func (ap *AddressParser) ParseAddresses(raws []string) []*models.AddressResult {
	results := make([]*models.AddressResult, len(raws))
	failed := 0
	for i, raw := range raws {
		result, err := ap.ParseAddress(raw, false)
		if err != nil {
			failed++
		}
		results[i] = result
	}

	ap.logger.Info("Parsed address batch",
		zap.Int("total", len(raws)),
		zap.Int("failed", failed))
	return results
}

// SummarizeCandidates converts candidates for API responses and review records.
func SummarizeCandidates(candidates []Candidate) []models.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, models.Candidate{
			Country:         string(c.Country),
			State:           c.State,
			Municipality:    c.City,
			PostalCode:      c.PostalCode,
			HasCountryToken: c.HasCountryToken(),
			StateToken:      c.StateToken,
			Score:           c.Score,
		})
	}
	return out
}
