package fingerprint

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedDescriptorData is returned when a serialized descriptor set
// cannot be reconstructed without truncating or guessing.
var ErrMalformedDescriptorData = errors.New("malformed descriptor data")

// Serialize flattens a descriptor set into the numeric sequence stored in the
// catalog. Descriptors keep their order and each byte b is written as the
// exact float64 value of b, so the result has Len()*Length elements.
func Serialize(set DescriptorSet) []float64 {
	out := make([]float64, 0, len(set.Descriptors)*set.Length)
	for _, d := range set.Descriptors {
		for _, b := range d {
			out = append(out, float64(b))
		}
	}
	return out
}

// Deserialize rebuilds a descriptor set from its stored form. The data length
// must be an exact multiple of length and every value must be an integer in
// [0, 255]; anything else is rejected with ErrMalformedDescriptorData.
func Deserialize(data []float64, length int) (DescriptorSet, error) {
	if length <= 0 {
		return DescriptorSet{}, fmt.Errorf("%w: invalid descriptor length %d", ErrMalformedDescriptorData, length)
	}
	if len(data)%length != 0 {
		return DescriptorSet{}, fmt.Errorf("%w: %d values is not a multiple of descriptor length %d",
			ErrMalformedDescriptorData, len(data), length)
	}

	count := len(data) / length
	raw := make([]byte, len(data))
	for i, v := range data {
		b, ok := byteValue(v)
		if !ok {
			return DescriptorSet{}, fmt.Errorf("%w: value %v at index %d is not a byte", ErrMalformedDescriptorData, v, i)
		}
		raw[i] = b
	}

	descriptors := make([]Descriptor, count)
	for i := range count {
		descriptors[i] = Descriptor(raw[i*length : (i+1)*length : (i+1)*length])
	}

	return DescriptorSet{Length: length, Descriptors: descriptors}, nil
}

// byteValue is the inverse of the float64(b) mapping used by Serialize.
func byteValue(v float64) (byte, bool) {
	if math.IsNaN(v) || v != math.Trunc(v) || v < 0 || v > 255 {
		return 0, false
	}
	return byte(v), true
}
