package fingerprint

import (
	"image"
	"math"
	"sort"
)

const (
	// orientationRadius is the radius of the circular patch used for the
	// intensity centroid.
	orientationRadius = 15

	// minBorder keeps every sample of the rotated test pattern, the Harris
	// window and the orientation patch inside the image.
	minBorder = orientationRadius + 5

	// fastArc is the number of contiguous circle pixels required by FAST-9.
	fastArc = 9

	harrisK      = 0.04
	harrisRadius = 3
	blurRadius   = 2
)

// Config holds ORB detector parameters. Zero fields fall back to DefaultConfig.
type Config struct {
	MaxFeatures   int     // keypoints retained per image, best Harris response first
	Levels        int     // scale pyramid levels
	ScaleFactor   float64 // downscale ratio between pyramid levels
	FastThreshold int     // intensity difference for the FAST segment test
	EdgeThreshold int     // border in pixels where no keypoints are detected
	MaxImageSize  int     // longest side after downscaling (0 = no downscaling)
}

// DefaultConfig returns the detector parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxFeatures:   500,
		Levels:        8,
		ScaleFactor:   1.2,
		FastThreshold: 20,
		EdgeThreshold: 31,
		MaxImageSize:  1024,
	}
}

// Extractor computes ORB-style descriptors: FAST corners ranked by Harris
// response over a scale pyramid, oriented by intensity centroid, described by
// a rotated BRIEF pattern. It is safe for concurrent use.
type Extractor struct {
	cfg  Config
	umax []int
}

// NewExtractor creates an extractor, filling unset parameters with defaults.
func NewExtractor(cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = def.MaxFeatures
	}
	if cfg.Levels <= 0 {
		cfg.Levels = def.Levels
	}
	if cfg.ScaleFactor <= 1 {
		cfg.ScaleFactor = def.ScaleFactor
	}
	if cfg.FastThreshold <= 0 {
		cfg.FastThreshold = def.FastThreshold
	}
	if cfg.EdgeThreshold == 0 {
		cfg.EdgeThreshold = def.EdgeThreshold
	}
	cfg.EdgeThreshold = max(cfg.EdgeThreshold, minBorder)
	if cfg.MaxImageSize < 0 {
		cfg.MaxImageSize = 0
	}

	umax := make([]int, orientationRadius+1)
	for dy := range umax {
		umax[dy] = int(math.Sqrt(float64(orientationRadius*orientationRadius - dy*dy)))
	}

	return &Extractor{cfg: cfg, umax: umax}
}

// Config returns the effective detector parameters.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract returns the descriptor set of an image. An image without
// detectable features yields an empty set, not an error.
func (e *Extractor) Extract(img image.Image) DescriptorSet {
	_, set := e.DetectAndCompute(img)
	return set
}

// ExtractBytes decodes an encoded image and extracts its descriptors.
func (e *Extractor) ExtractBytes(data []byte) (DescriptorSet, error) {
	img, err := DecodeImageBytes(data)
	if err != nil {
		return DescriptorSet{}, err
	}
	return e.Extract(img), nil
}

type pyramidLevel struct {
	img    *image.Gray
	smooth *image.Gray
	scale  float64
}

type corner struct {
	x, y     int
	level    int
	response float64
}

// DetectAndCompute returns the retained keypoints and their descriptors in
// the same order.
func (e *Extractor) DetectAndCompute(img image.Image) ([]Keypoint, DescriptorSet) {
	set := DescriptorSet{Length: DescriptorLength}
	if img == nil || img.Bounds().Empty() {
		return nil, set
	}

	gray := fitWithin(toGrayscale(img), e.cfg.MaxImageSize)
	levels := e.buildPyramid(gray)

	var corners []corner
	for i := range levels {
		corners = append(corners, e.detect(levels[i].img, i)...)
	}
	if len(corners) == 0 {
		return nil, set
	}

	sort.Slice(corners, func(i, j int) bool {
		a, b := corners[i], corners[j]
		if a.response != b.response {
			return a.response > b.response
		}
		if a.level != b.level {
			return a.level < b.level
		}
		if a.y != b.y {
			return a.y < b.y
		}
		return a.x < b.x
	})
	if len(corners) > e.cfg.MaxFeatures {
		corners = corners[:e.cfg.MaxFeatures]
	}

	keypoints := make([]Keypoint, 0, len(corners))
	set.Descriptors = make([]Descriptor, 0, len(corners))
	for _, c := range corners {
		lvl := &levels[c.level]
		if lvl.smooth == nil {
			lvl.smooth = boxBlur(lvl.img, blurRadius)
		}
		angle := e.orientation(lvl.img, c.x, c.y)

		keypoints = append(keypoints, Keypoint{
			X:        float64(c.x) * lvl.scale,
			Y:        float64(c.y) * lvl.scale,
			Scale:    lvl.scale,
			Angle:    angle,
			Response: c.response,
			Level:    c.level,
		})
		set.Descriptors = append(set.Descriptors, describe(lvl.smooth, c.x, c.y, angle))
	}

	return keypoints, set
}

// buildPyramid resamples the base image once per level, stopping when a level
// becomes too small to hold a keypoint.
func (e *Extractor) buildPyramid(base *image.Gray) []pyramidLevel {
	levels := []pyramidLevel{{img: base, scale: 1}}
	width := base.Bounds().Dx()
	height := base.Bounds().Dy()
	minSide := 2*e.cfg.EdgeThreshold + 1

	scale := 1.0
	for i := 1; i < e.cfg.Levels; i++ {
		scale *= e.cfg.ScaleFactor
		w := int(math.Round(float64(width) / scale))
		h := int(math.Round(float64(height) / scale))
		if w < minSide || h < minSide {
			break
		}
		levels = append(levels, pyramidLevel{img: resizeGray(base, w, h), scale: scale})
	}
	return levels
}

// fastCircle is the Bresenham circle of radius 3 used by the FAST test.
var fastCircle = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1}, {3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1}, {-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// detect finds FAST corners on one level and keeps those that are local
// maxima of the Harris response.
func (e *Extractor) detect(img *image.Gray, level int) []corner {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	border := e.cfg.EdgeThreshold
	if width <= 2*border || height <= 2*border {
		return nil
	}

	response := make([]float64, width*height)
	isCorner := make([]bool, width*height)
	var found []int

	for y := border; y < height-border; y++ {
		for x := border; x < width-border; x++ {
			if !isFastCorner(img, x, y, e.cfg.FastThreshold) {
				continue
			}
			idx := y*width + x
			isCorner[idx] = true
			response[idx] = harrisResponse(img, x, y)
			found = append(found, idx)
		}
	}

	var corners []corner
	for _, idx := range found {
		r := response[idx]
		suppressed := false
		for dy := -1; dy <= 1 && !suppressed; dy++ {
			for dx := -1; dx <= 1; dx++ {
				n := idx + dy*width + dx
				if n == idx || !isCorner[n] {
					continue
				}
				if response[n] > r || (response[n] == r && n < idx) {
					suppressed = true
					break
				}
			}
		}
		if !suppressed {
			corners = append(corners, corner{x: idx % width, y: idx / width, level: level, response: r})
		}
	}
	return corners
}

// isFastCorner runs the FAST-9 segment test: at least nine contiguous circle
// pixels all brighter than p+t or all darker than p-t.
func isFastCorner(img *image.Gray, x, y, t int) bool {
	p := int(img.Pix[y*img.Stride+x])
	hi, lo := p+t, p-t

	var states [16]int8
	brightCompass, darkCompass := 0, 0
	for i, o := range fastCircle {
		v := int(img.Pix[(y+o[1])*img.Stride+x+o[0]])
		switch {
		case v > hi:
			states[i] = 1
		case v < lo:
			states[i] = -1
		}
		if i%4 == 0 {
			switch states[i] {
			case 1:
				brightCompass++
			case -1:
				darkCompass++
			}
		}
	}
	// Any arc of nine covers at least two of the four compass points.
	if brightCompass < 2 && darkCompass < 2 {
		return false
	}

	for _, want := range [2]int8{1, -1} {
		run := 0
		for i := range 2 * len(states) {
			if states[i%len(states)] != want {
				run = 0
				continue
			}
			run++
			if run >= fastArc {
				return true
			}
		}
	}
	return false
}

// harrisResponse computes det(M) - k*trace(M)^2 of the structure tensor over
// a (2*harrisRadius+1)^2 window.
func harrisResponse(img *image.Gray, x, y int) float64 {
	var a, b, c float64
	stride := img.Stride
	for py := y - harrisRadius; py <= y+harrisRadius; py++ {
		for px := x - harrisRadius; px <= x+harrisRadius; px++ {
			ix := float64(int(img.Pix[py*stride+px+1]) - int(img.Pix[py*stride+px-1]))
			iy := float64(int(img.Pix[(py+1)*stride+px]) - int(img.Pix[(py-1)*stride+px]))
			a += ix * ix
			b += iy * iy
			c += ix * iy
		}
	}
	return a*b - c*c - harrisK*(a+b)*(a+b)
}

// orientation returns the angle of the intensity centroid of the circular
// patch around (x, y).
func (e *Extractor) orientation(img *image.Gray, x, y int) float64 {
	var m01, m10 float64
	for dy := -orientationRadius; dy <= orientationRadius; dy++ {
		span := e.umax[abs(dy)]
		row := (y + dy) * img.Stride
		for dx := -span; dx <= span; dx++ {
			v := float64(img.Pix[row+x+dx])
			m10 += float64(dx) * v
			m01 += float64(dy) * v
		}
	}
	return math.Atan2(m01, m10)
}

// describe evaluates the test pattern rotated by angle on the smoothed image.
func describe(smooth *image.Gray, x, y int, angle float64) Descriptor {
	cos, sin := math.Cos(angle), math.Sin(angle)
	d := make(Descriptor, DescriptorLength)
	for i, p := range &briefPattern {
		if sampleRotated(smooth, x, y, p.x1, p.y1, cos, sin) < sampleRotated(smooth, x, y, p.x2, p.y2, cos, sin) {
			d[i/8] |= 1 << (i % 8)
		}
	}
	return d
}

func sampleRotated(img *image.Gray, x, y int, px, py int8, cos, sin float64) uint8 {
	rx := int(math.Round(float64(px)*cos - float64(py)*sin))
	ry := int(math.Round(float64(px)*sin + float64(py)*cos))
	return img.Pix[(y+ry)*img.Stride+x+rx]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
