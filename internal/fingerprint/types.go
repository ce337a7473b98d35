package fingerprint

import (
	"encoding/binary"
	"math/bits"
)

// DescriptorLength is the byte length of descriptors produced by the ORB
// extractor (256 binary tests).
const DescriptorLength = 32

// Keypoint is a salient point detected in an image. Coordinates are in the
// pixel space of the (possibly downscaled) grayscale input.
type Keypoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`    // pyramid scale relative to level 0
	Angle    float64 `json:"angle"`    // orientation in radians
	Response float64 `json:"response"` // Harris corner response
	Level    int     `json:"level"`
}

// Descriptor is a fixed-length binary feature vector.
type Descriptor []byte

// DescriptorSet is the ordered list of descriptors extracted from one image.
// All descriptors share Length bytes. An empty set is valid and means the
// image had no detectable features.
type DescriptorSet struct {
	Length      int
	Descriptors []Descriptor
}

// NewDescriptorSet creates a descriptor set of the given descriptor length.
func NewDescriptorSet(length int, descriptors ...Descriptor) DescriptorSet {
	return DescriptorSet{Length: length, Descriptors: descriptors}
}

// Len returns the number of descriptors in the set.
func (s DescriptorSet) Len() int {
	return len(s.Descriptors)
}

// Empty reports whether the set has no descriptors.
func (s DescriptorSet) Empty() bool {
	return len(s.Descriptors) == 0
}

// Equal reports whether two sets hold the same descriptors byte for byte.
func (s DescriptorSet) Equal(other DescriptorSet) bool {
	if s.Length != other.Length || len(s.Descriptors) != len(other.Descriptors) {
		return false
	}
	for i := range s.Descriptors {
		a, b := s.Descriptors[i], other.Descriptors[i]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

// HammingDistance computes the number of differing bits between two
// descriptors of equal length.
func HammingDistance(a, b Descriptor) int {
	distance := 0
	i := 0
	for ; i+8 <= len(a); i += 8 {
		distance += bits.OnesCount64(binary.LittleEndian.Uint64(a[i:]) ^ binary.LittleEndian.Uint64(b[i:]))
	}
	for ; i < len(a); i++ {
		distance += bits.OnesCount8(a[i] ^ b[i])
	}
	return distance
}
