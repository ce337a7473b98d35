// Package matcher scores a query descriptor set against a candidate set using
// brute-force Hamming nearest neighbours and a verdict policy.
package matcher

import (
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/finder/internal/fingerprint"
)

// ErrDescriptorLengthMismatch is returned when the two sets were produced
// with different descriptor lengths and cannot be compared.
var ErrDescriptorLengthMismatch = errors.New("descriptor length mismatch")

// Reason explains a verdict.
type Reason string

const (
	ReasonMatched              Reason = "matched"
	ReasonAboveThreshold       Reason = "distance_above_threshold"
	ReasonTooFewGoodMatches    Reason = "too_few_good_matches"
	ReasonNoFeaturesInQuery    Reason = "no_features_in_query"
	ReasonInsufficientFeatures Reason = "insufficient_features"
)

// NoDistance is reported when no descriptor pairs exist.
const NoDistance = -1

// MatchResult is the outcome of comparing a query with one candidate.
type MatchResult struct {
	CandidateID string `json:"candidate_id"`
	Distance    int    `json:"distance"`     // minimum pair distance in bits, NoDistance without pairs
	GoodMatches int    `json:"good_matches"` // pairs accepted by the policy
	Pairs       int    `json:"pairs"`        // one per query descriptor
	IsMatch     bool   `json:"is_match"`
	Reason      Reason `json:"reason"`
}

// Match pairs every query descriptor with its nearest candidate descriptor
// and applies the policy to the resulting distances. Empty sets never match.
func Match(query, candidate fingerprint.DescriptorSet, policy Policy) (MatchResult, error) {
	if query.Empty() {
		return MatchResult{Distance: NoDistance, Reason: ReasonNoFeaturesInQuery}, nil
	}
	if candidate.Empty() {
		return MatchResult{Distance: NoDistance, Reason: ReasonInsufficientFeatures}, nil
	}
	if query.Length != candidate.Length {
		return MatchResult{}, fmt.Errorf("%w: query %d bytes, candidate %d bytes",
			ErrDescriptorLengthMismatch, query.Length, candidate.Length)
	}

	distances, err := nearestDistances(query, candidate)
	if err != nil {
		return MatchResult{}, err
	}

	dMin := math.MaxInt
	for _, d := range distances {
		dMin = min(dMin, d)
	}

	result := MatchResult{Distance: dMin, Pairs: len(distances)}

	switch policy.Mode() {
	case ModeRatio:
		bound := policy.ratio * float64(max(dMin, distanceFloor))
		for _, d := range distances {
			if float64(d) < bound {
				result.GoodMatches++
			}
		}
		result.IsMatch = result.GoodMatches >= policy.minGoodMatches
		if !result.IsMatch {
			result.Reason = ReasonTooFewGoodMatches
		}
	default:
		for _, d := range distances {
			if d <= policy.maxDistance {
				result.GoodMatches++
			}
		}
		result.IsMatch = dMin <= policy.maxDistance
		if !result.IsMatch {
			result.Reason = ReasonAboveThreshold
		}
	}

	if result.IsMatch {
		result.Reason = ReasonMatched
	}
	return result, nil
}

// nearestDistances returns, for each query descriptor, the Hamming distance
// to its closest candidate descriptor.
func nearestDistances(query, candidate fingerprint.DescriptorSet) ([]int, error) {
	for j, c := range candidate.Descriptors {
		if len(c) != candidate.Length {
			return nil, fmt.Errorf("%w: candidate descriptor %d has %d bytes", ErrDescriptorLengthMismatch, j, len(c))
		}
	}

	distances := make([]int, len(query.Descriptors))
	for i, q := range query.Descriptors {
		if len(q) != query.Length {
			return nil, fmt.Errorf("%w: query descriptor %d has %d bytes", ErrDescriptorLengthMismatch, i, len(q))
		}
		best := math.MaxInt
		for _, c := range candidate.Descriptors {
			if d := fingerprint.HammingDistance(q, c); d < best {
				best = d
				if best == 0 {
					break
				}
			}
		}
		distances[i] = best
	}
	return distances, nil
}
