package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// glyphWidth and lineHeight are the advance and line pitch of basicfont.Face7x13.
	glyphWidth = 7
	lineHeight = 15
	padding    = 6
)

var (
	panelColor = color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xc0}
	titleColor = color.RGBA{R: 0xff, G: 0xd0, B: 0x60, A: 0xff}
	textColor  = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
)

// PanelSize returns the smallest panel that fits title and lines without clipping.
//
// Parameters:
//   - title: the heading line
//   - lines: the body lines
//
// Returns:
//   - width, height: the panel size in pixels
func PanelSize(title string, lines []string) (int, int) {
	longest := len(title)
	for _, l := range lines {
		longest = max(longest, len(l))
	}
	return longest*glyphWidth + 2*padding, (len(lines)+1)*lineHeight + 2*padding
}

// Rasterize draws title and lines onto a translucent width x height panel.
// Text past the panel edge is clipped.
//
// Parameters:
//   - title: the heading, drawn highlighted
//   - lines: the body lines, one per row
//   - width, height: the panel size in pixels
//
// Returns:
//   - *image.RGBA: the panel image
func Rasterize(title string, lines []string, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(panelColor), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(titleColor),
		Face: face,
	}

	baseline := padding + face.Ascent
	d.Dot = fixed.P(padding, baseline)
	d.DrawString(title)

	d.Src = image.NewUniform(textColor)
	for _, l := range lines {
		baseline += lineHeight
		if baseline-face.Ascent >= height {
			break
		}
		d.Dot = fixed.P(padding, baseline)
		d.DrawString(l)
	}
	return img
}
