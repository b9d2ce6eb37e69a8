package parser

import (
	"errors"
	"fmt"
)

// ErrAmbiguousAddress is returned when the input does not resolve to exactly
// one best field assignment. Parsing is a pure function of the input and the
// locale table, so retrying never helps.
var ErrAmbiguousAddress = errors.New("ambiguous or unparseable address")

// AmbiguityError carries the scored candidates behind a failed parse.
type AmbiguityError struct {
	Reason     string
	Candidates []Candidate
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAmbiguousAddress.Error(), e.Reason)
}

// Is makes errors.Is(err, ErrAmbiguousAddress) hold.
func (e *AmbiguityError) Is(target error) bool {
	return target == ErrAmbiguousAddress
}

func ambiguous(reason string, candidates []Candidate) error {
	return &AmbiguityError{Reason: reason, Candidates: candidates}
}
