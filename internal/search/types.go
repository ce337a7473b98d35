package search

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/finder/internal/matcher"
)

var (
	// ErrNoFeaturesInQuery is returned when the query image produced no
	// descriptors. The catalog is not consulted.
	ErrNoFeaturesInQuery = errors.New("no features in query image")

	// ErrCatalogUnavailable wraps any failure to read from the catalog.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// CandidateError reports a single candidate that could not be evaluated.
// It is not fatal to a scan.
type CandidateError struct {
	ID  string
	Err error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate %s: %v", e.ID, e.Err)
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}

// SkippedCandidate is a candidate left out of a verdict.
type SkippedCandidate struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// AggregateVerdict is the outcome of a search over one or more candidates.
type AggregateVerdict struct {
	Matched   bool                  `json:"matched"`
	Best      *matcher.MatchResult  `json:"best,omitempty"`
	Results   []matcher.MatchResult `json:"results"`
	Evaluated int                   `json:"evaluated"`
	Skipped   []SkippedCandidate    `json:"skipped,omitempty"`
}

func (v *AggregateVerdict) add(res matcher.MatchResult) {
	v.Results = append(v.Results, res)
	v.Evaluated++
}

func (v *AggregateVerdict) skip(err error) {
	var ce *CandidateError
	if errors.As(err, &ce) {
		v.Skipped = append(v.Skipped, SkippedCandidate{ID: ce.ID, Reason: ce.Err.Error()})
		return
	}
	v.Skipped = append(v.Skipped, SkippedCandidate{Reason: err.Error()})
}

// better reports whether a ranks above b. In ratio mode more good matches
// win, otherwise the smaller minimum distance wins.
func better(a, b matcher.MatchResult, mode matcher.Mode) bool {
	if mode == matcher.ModeRatio && a.GoodMatches != b.GoodMatches {
		return a.GoodMatches > b.GoodMatches
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.GoodMatches > b.GoodMatches
}
