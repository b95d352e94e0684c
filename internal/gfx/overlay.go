package gfx

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// StampDebugOverlay draws diagnostic text lines onto a snapshot before it
// leaves for the stream. It works on the copy, never the live buffer, so
// recordings and replays stay free of overlay pixels.
func StampDebugOverlay(img *image.RGBA, lines []string) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
	}
	shadow := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{A: 255}),
		Face: face,
	}
	y := face.Height + 2
	for _, line := range lines {
		shadow.Dot = fixed.P(5, y+1)
		shadow.DrawString(line)
		drawer.Dot = fixed.P(4, y)
		drawer.DrawString(line)
		y += face.Height + 2
	}
}
