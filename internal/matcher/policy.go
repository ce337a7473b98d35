package matcher

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidPolicyConfiguration is returned when a policy is constructed with
// parameters that cannot produce a meaningful verdict.
var ErrInvalidPolicyConfiguration = errors.New("invalid policy configuration")

// Mode selects how the nearest-neighbour distances are turned into a verdict.
//
// The inverted test (minimum distance greater than a near-zero threshold)
// rejects exact matches and accepts nearly everything else, so it is not
// offered as a mode.
type Mode string

const (
	// ModeThreshold matches when the minimum pair distance is <= MaxDistance.
	ModeThreshold Mode = "threshold"

	// ModeRatio matches when at least MinGoodMatches pairs are closer than
	// Ratio times the minimum pair distance.
	ModeRatio Mode = "ratio"
)

const (
	// DefaultMaxDistance is the default Hamming distance bound in bits for
	// 256-bit descriptors.
	DefaultMaxDistance = 40

	// DefaultRatio is the default multiplier applied to the minimum distance.
	DefaultRatio = 2.0

	// DefaultMinGoodMatches requires the best pair plus one more correspondence.
	DefaultMinGoodMatches = 2

	// distanceFloor keeps the ratio bound above zero when the best pair is exact.
	distanceFloor = 1
)

// Policy is an immutable verdict policy. The zero Policy is a threshold policy
// with MaxDistance 0, i.e. only exact descriptor matches count.
type Policy struct {
	mode           Mode
	maxDistance    int
	ratio          float64
	minGoodMatches int
}

// NewThresholdPolicy creates a fixed-threshold policy. maxDistance is in bits
// and must not be negative.
func NewThresholdPolicy(maxDistance int) (Policy, error) {
	if maxDistance < 0 {
		return Policy{}, fmt.Errorf("%w: max distance must be >= 0, got %d", ErrInvalidPolicyConfiguration, maxDistance)
	}
	return Policy{mode: ModeThreshold, maxDistance: maxDistance}, nil
}

// NewRatioPolicy creates a relative-ratio policy. ratio must be positive and
// finite, minGoodMatches at least 1.
func NewRatioPolicy(ratio float64, minGoodMatches int) (Policy, error) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return Policy{}, fmt.Errorf("%w: ratio must be a positive number, got %v", ErrInvalidPolicyConfiguration, ratio)
	}
	if minGoodMatches < 1 {
		return Policy{}, fmt.Errorf("%w: min good matches must be >= 1, got %d", ErrInvalidPolicyConfiguration, minGoodMatches)
	}
	return Policy{mode: ModeRatio, ratio: ratio, minGoodMatches: minGoodMatches}, nil
}

// ParsePolicy builds a policy from loosely typed settings (config, flags,
// form values). Parameters not used by the selected mode are ignored.
func ParsePolicy(mode string, maxDistance int, ratio float64, minGoodMatches int) (Policy, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case ModeThreshold, "":
		return NewThresholdPolicy(maxDistance)
	case ModeRatio:
		return NewRatioPolicy(ratio, minGoodMatches)
	default:
		return Policy{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidPolicyConfiguration, mode)
	}
}

// Mode returns the policy mode.
func (p Policy) Mode() Mode {
	if p.mode == "" {
		return ModeThreshold
	}
	return p.mode
}

// MaxDistance returns the threshold bound (threshold mode only).
func (p Policy) MaxDistance() int { return p.maxDistance }

// Ratio returns the distance multiplier (ratio mode only).
func (p Policy) Ratio() float64 { return p.ratio }

// MinGoodMatches returns the required number of good pairs (ratio mode only).
func (p Policy) MinGoodMatches() int { return p.minGoodMatches }

func (p Policy) String() string {
	if p.Mode() == ModeRatio {
		return fmt.Sprintf("ratio(%.2f, min %d)", p.ratio, p.minGoodMatches)
	}
	return fmt.Sprintf("threshold(%d)", p.maxDistance)
}
