package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes any registered image format (JPEG, PNG, GIF, BMP, WebP).
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeImageBytes decodes an in-memory image.
func DecodeImageBytes(data []byte) (image.Image, error) {
	return DecodeImage(bytes.NewReader(data))
}

// toGrayscale converts an image to a single-channel 8-bit image using the
// ITU-R BT.601 luma formula. Colour information is discarded.
func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := gray.Pix[(y-bounds.Min.Y)*gray.Stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			row[x-bounds.Min.X] = uint8(luma + 0.5)
		}
	}

	return gray
}

// fitWithin downscales a grayscale image so that neither side exceeds maxSize,
// keeping the aspect ratio. Images already small enough are returned as is.
func fitWithin(img *image.Gray, maxSize int) *image.Gray {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}

	return resizeGray(img, newWidth, newHeight)
}

// resizeGray scales a grayscale image to the given dimensions.
func resizeGray(img *image.Gray, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// boxBlur smooths a grayscale image with a (2*radius+1)^2 box filter. Pixels
// outside the image are clamped to the nearest edge.
func boxBlur(img *image.Gray, radius int) *image.Gray {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	size := 2*radius + 1

	tmp := make([]int, width*height)
	for y := range height {
		row := img.Pix[y*img.Stride:]
		for x := range width {
			sum := 0
			for k := -radius; k <= radius; k++ {
				sum += int(row[clamp(x+k, 0, width-1)])
			}
			tmp[y*width+x] = sum
		}
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	area := size * size
	for y := range height {
		for x := range width {
			sum := 0
			for k := -radius; k <= radius; k++ {
				sum += tmp[clamp(y+k, 0, height-1)*width+x]
			}
			out.Pix[y*out.Stride+x] = uint8((sum + area/2) / area)
		}
	}

	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
