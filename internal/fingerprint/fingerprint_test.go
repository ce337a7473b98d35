package fingerprint

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"testing"
)

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        Descriptor
		b        Descriptor
		expected int
	}{
		{"identical", Descriptor{0x00}, Descriptor{0x00}, 0},
		{"one bit different", Descriptor{0x00}, Descriptor{0x01}, 1},
		{"completely different byte", Descriptor{0xFF}, Descriptor{0x00}, 8},
		{"alternating", Descriptor{0xAA, 0xAA}, Descriptor{0x55, 0x55}, 16},
		{"nine bytes uses tail", Descriptor{0, 0, 0, 0, 0, 0, 0, 0, 0x0F}, Descriptor{0, 0, 0, 0, 0, 0, 0, 0xFF, 0}, 12},
		{"full descriptor", bytes.Repeat([]byte{0xFF}, 32), make(Descriptor, 32), 256},
		{"empty", Descriptor{}, Descriptor{}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := HammingDistance(tc.a, tc.b)
			if result != tc.expected {
				t.Errorf("HammingDistance(%x, %x) = %d; want %d", tc.a, tc.b, result, tc.expected)
			}
		})
	}
}

func TestSerializeLayout(t *testing.T) {
	set := NewDescriptorSet(3, Descriptor{1, 2, 3}, Descriptor{250, 0, 255})

	got := Serialize(set)
	want := []float64{1, 2, 3, 250, 0, 255}

	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	allBytes := make(Descriptor, 256)
	for i := range allBytes {
		allBytes[i] = byte(i)
	}

	tests := []struct {
		name string
		set  DescriptorSet
	}{
		{"empty", NewDescriptorSet(DescriptorLength)},
		{"single byte descriptor", NewDescriptorSet(1, Descriptor{0x80})},
		{"every byte value", NewDescriptorSet(256, allBytes)},
		{"orb sized", NewDescriptorSet(DescriptorLength, patternDescriptor(1), patternDescriptor(7), patternDescriptor(200))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := Serialize(tc.set)
			if len(data) != tc.set.Len()*tc.set.Length {
				t.Errorf("serialized length %d, want %d", len(data), tc.set.Len()*tc.set.Length)
			}

			got, err := Deserialize(data, tc.set.Length)
			if err != nil {
				t.Fatalf("Deserialize failed: %v", err)
			}
			if !got.Equal(tc.set) {
				t.Errorf("round trip mismatch: got %v, want %v", got, tc.set)
			}
		})
	}
}

func TestDeserializeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		data   []float64
		length int
	}{
		{"not a multiple", []float64{1, 2, 3}, 2},
		{"zero length", []float64{1, 2}, 0},
		{"negative length", []float64{1, 2}, -4},
		{"fractional value", []float64{1, 2.5}, 2},
		{"above byte range", []float64{1, 256}, 2},
		{"negative value", []float64{-1, 2}, 2},
		{"NaN", []float64{math.NaN(), 2}, 2},
		{"infinity", []float64{math.Inf(1), 2}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Deserialize(tc.data, tc.length)
			if !errors.Is(err, ErrMalformedDescriptorData) {
				t.Errorf("expected ErrMalformedDescriptorData, got %v", err)
			}
		})
	}
}

func TestDeserializeEmptyIsValid(t *testing.T) {
	set, err := Deserialize([]float64{}, DescriptorLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.Empty() {
		t.Errorf("expected empty set, got %d descriptors", set.Len())
	}
	if set.Length != DescriptorLength {
		t.Errorf("expected length %d, got %d", DescriptorLength, set.Length)
	}
}

func TestToGrayscale(t *testing.T) {
	img := createTestImage(10, 10, color.RGBA{255, 0, 0, 255})

	gray := toGrayscale(img)

	if gray.Bounds().Dx() != 10 || gray.Bounds().Dy() != 10 {
		t.Errorf("expected 10x10, got %dx%d", gray.Bounds().Dx(), gray.Bounds().Dy())
	}

	// Red should convert to approximately 0.299 * 255 = 76.245
	if v := gray.GrayAt(3, 3).Y; v != 76 {
		t.Errorf("red pixel luma should be 76, got %d", v)
	}
}

func TestFitWithin(t *testing.T) {
	gray := toGrayscale(createTestImage(400, 200, color.White))

	resized := fitWithin(gray, 100)
	if resized.Bounds().Dx() != 100 || resized.Bounds().Dy() != 50 {
		t.Errorf("expected 100x50, got %dx%d", resized.Bounds().Dx(), resized.Bounds().Dy())
	}

	same := fitWithin(gray, 1000)
	if same != gray {
		t.Error("image within limits should be returned unchanged")
	}
}

func TestBoxBlurUniform(t *testing.T) {
	gray := toGrayscale(createTestImage(20, 20, color.RGBA{100, 100, 100, 255}))

	blurred := boxBlur(gray, 2)

	for _, v := range blurred.Pix {
		if v != 100 {
			t.Fatalf("blur of uniform image should stay uniform, got %d", v)
		}
	}
}

func TestBriefPattern(t *testing.T) {
	// Any change to the table invalidates every stored descriptor.
	first := []testPair{{-2, -2, -7, 2}, {3, 9, 5, -7}, {-1, 5, -6, -1}, {3, 8, -13, 0}}
	for i, p := range first {
		if briefPattern[i] != p {
			t.Errorf("pair %d = %v; want %v", i, briefPattern[i], p)
		}
	}

	checksum := 0
	for i, p := range briefPattern {
		checksum += (i + 1) * (int(p.x1) + 3*int(p.y1) + 5*int(p.x2) + 7*int(p.y2))
		if p.x1 == p.x2 && p.y1 == p.y2 {
			t.Errorf("pair %d compares a point with itself", i)
		}
		for _, v := range []int8{p.x1, p.y1, p.x2, p.y2} {
			if v < -patternRadius || v > patternRadius {
				t.Errorf("pair %d coordinate %d outside radius", i, v)
			}
		}
	}
	if checksum != -30506 {
		t.Errorf("pattern checksum = %d; want -30506", checksum)
	}
}

func TestExtractUniformImageHasNoFeatures(t *testing.T) {
	extractor := NewExtractor(DefaultConfig())

	set := extractor.Extract(createTestImage(200, 200, color.White))

	if !set.Empty() {
		t.Errorf("uniform image should have no features, got %d", set.Len())
	}
	if set.Length != DescriptorLength {
		t.Errorf("empty set should still carry length %d, got %d", DescriptorLength, set.Length)
	}
}

func TestExtractNilImage(t *testing.T) {
	extractor := NewExtractor(Config{})

	set := extractor.Extract(nil)

	if !set.Empty() {
		t.Error("nil image should yield an empty set")
	}
}

func TestExtractFindsCorners(t *testing.T) {
	extractor := NewExtractor(DefaultConfig())
	img := createSquaresImage(240, 240)

	keypoints, set := extractor.DetectAndCompute(img)

	if set.Empty() {
		t.Fatal("expected features on image with squares")
	}
	if len(keypoints) != set.Len() {
		t.Errorf("keypoints (%d) and descriptors (%d) should align", len(keypoints), set.Len())
	}
	for i, d := range set.Descriptors {
		if len(d) != DescriptorLength {
			t.Errorf("descriptor %d has length %d", i, len(d))
		}
	}
	for i, kp := range keypoints {
		if kp.X < 0 || kp.Y < 0 || kp.X >= 240 || kp.Y >= 240 {
			t.Errorf("keypoint %d out of bounds: (%f, %f)", i, kp.X, kp.Y)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	extractor := NewExtractor(DefaultConfig())
	img := createSquaresImage(240, 240)

	first := extractor.Extract(img)
	second := extractor.Extract(img)

	if !first.Equal(second) {
		t.Error("extraction should be deterministic for the same image")
	}
}

func TestExtractMaxFeatures(t *testing.T) {
	extractor := NewExtractor(Config{MaxFeatures: 5})

	set := extractor.Extract(createSquaresImage(240, 240))

	if set.Len() > 5 {
		t.Errorf("expected at most 5 features, got %d", set.Len())
	}
}

func TestExtractBytes(t *testing.T) {
	extractor := NewExtractor(DefaultConfig())
	img := createSquaresImage(240, 240)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}

	fromBytes, err := extractor.ExtractBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractBytes failed: %v", err)
	}
	if !fromBytes.Equal(extractor.Extract(img)) {
		t.Error("lossless encoding should give the same descriptors")
	}
}

func TestExtractBytesInvalidImage(t *testing.T) {
	extractor := NewExtractor(DefaultConfig())

	_, err := extractor.ExtractBytes([]byte("not an image"))
	if err == nil {
		t.Error("ExtractBytes should fail for invalid image data")
	}
}

func TestExtractRotationTolerant(t *testing.T) {
	extractor := NewExtractor(DefaultConfig())
	img := createRandomSquaresImage(300, 300, 42)

	upright := extractor.Extract(img)
	rotated := extractor.Extract(rotate90(img))
	if upright.Len() < 50 || rotated.Len() < 50 {
		t.Fatalf("expected plenty of features, got %d and %d", upright.Len(), rotated.Len())
	}

	// 40 bits is the default match threshold for 256-bit descriptors.
	const maxDistance = 40
	matched := 0
	for _, d := range upright.Descriptors {
		best := math.MaxInt
		for _, r := range rotated.Descriptors {
			best = min(best, HammingDistance(d, r))
		}
		if best <= maxDistance {
			matched++
		}
	}

	if ratio := float64(matched) / float64(upright.Len()); ratio < 0.5 {
		t.Errorf("only %d of %d descriptors found a rotated counterpart within %d bits", matched, upright.Len(), maxDistance)
	}
}

// Helper functions

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createSquaresImage draws white squares on a black background.
func createSquaresImage(width, height int) *image.RGBA {
	img := createTestImage(width, height, color.Black)
	origins := [][2]int{{40, 40}, {130, 45}, {50, 130}, {140, 140}, {95, 95}}
	for _, o := range origins {
		for x := o[0]; x < o[0]+26; x++ {
			for y := o[1]; y < o[1]+22; y++ {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func patternDescriptor(seed byte) Descriptor {
	d := make(Descriptor, DescriptorLength)
	for i := range d {
		d[i] = seed*byte(i) + byte(i*i)
	}
	return d
}

// createRandomSquaresImage scatters squares of random size and shade over a
// mid-grey background.
func createRandomSquaresImage(width, height int, seed uint64) *image.Gray {
	r := rand.New(rand.NewPCG(seed, seed))
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	for range 40 {
		size := 12 + r.IntN(30)
		x0, y0 := r.IntN(width-size), r.IntN(height-size)
		shade := uint8(r.IntN(256))
		for y := y0; y < y0+size; y++ {
			for x := x0; x < x0+size; x++ {
				img.SetGray(x, y, color.Gray{Y: shade})
			}
		}
	}
	return img
}

// rotate90 rotates an image a quarter turn clockwise.
func rotate90(img *image.Gray) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetGray(b.Dy()-1-y, x, img.GrayAt(x, y))
		}
	}
	return out
}
