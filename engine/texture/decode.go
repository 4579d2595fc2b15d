package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxDimension is the largest width or height uploaded to the GPU. Larger images are
// downscaled on decode, keeping their aspect ratio.
const MaxDimension = 8192

// ErrEmptyImage is returned when a decoded image has no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Decode reads an image in any registered format and converts it to tightly packed RGBA8.
//
// Parameters:
//   - r: the encoded image
//
// Returns:
//   - common.TextureStagingData: the pixels, row stride 4*width
//   - error: an error if the format is unknown or the data is corrupt
func Decode(r io.Reader) (common.TextureStagingData, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}
	common.Logger().Debug("decoded image", "format", format, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return FromImage(img)
}

// Load opens and decodes the image file at path.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - common.TextureStagingData: the pixels
//   - error: an error if the file could not be opened or decoded
func Load(path string) (common.TextureStagingData, error) {
	f, err := os.Open(path)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	defer f.Close()

	staging, err := Decode(f)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%s: %w", path, err)
	}
	return staging, nil
}

// FromImage converts img to staging data, downscaling it to fit MaxDimension.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - common.TextureStagingData: the pixels
//   - error: ErrEmptyImage if img has a zero-sized bound
func FromImage(img image.Image) (common.TextureStagingData, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return common.TextureStagingData{}, ErrEmptyImage
	}

	var rgba *image.RGBA
	if w, h := fitWithin(b.Dx(), b.Dy(), MaxDimension); w != b.Dx() || h != b.Dy() {
		rgba = transform.Resize(img, w, h, transform.Linear)
	} else {
		rgba = clone.AsRGBA(img)
	}

	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	pixels := make([]byte, 4*w*h)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+4*w]
		copy(pixels[y*4*w:], row)
	}
	return common.TextureStagingData{Pixels: pixels, Width: uint32(w), Height: uint32(h)}, nil
}

// fitWithin scales (w, h) down so neither side exceeds limit. Sizes already inside the
// limit are returned unchanged; a scaled side never drops below 1.
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// Checkerboard generates a size x size two-tone checkerboard with cells squares per side.
// Used when no texture file is configured.
//
// Parameters:
//   - size: the edge length in pixels (minimum 1)
//   - cells: the number of squares along each edge (minimum 1)
//
// Returns:
//   - common.TextureStagingData: the pixels
func Checkerboard(size, cells int) common.TextureStagingData {
	size = max(size, 1)
	cells = common.Clamp(cells, 1, size)

	light := color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	dark := color.RGBA{R: 0x40, G: 0x30, B: 0x60, A: 0xff}

	cell := size / cells
	pixels := make([]byte, 4*size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := dark
			if (x/cell+y/cell)%2 == 0 {
				c = light
			}
			i := 4 * (y*size + x)
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return common.TextureStagingData{Pixels: pixels, Width: uint32(size), Height: uint32(size)}
}
