package gfx

import (
	"fmt"
	"image"
	"image/color"
)

// Screen is the true-color composition target. Draw calls take palette
// indexes and resolve them through the active palette at call time; the
// buffer itself stores RGBA, so a snapshot never needs the palette again.
// All methods must be called from the tick loop goroutine.
type Screen struct {
	width   int
	height  int
	palette *Palette
	buf     []uint8 // RGBA, row-major
}

// NewScreen allocates a cleared screen with the given palette.
func NewScreen(width, height int, palette *Palette) (*Screen, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("screen dimensions %dx%d out of range", width, height)
	}
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Screen{
		width:   width,
		height:  height,
		palette: palette,
		buf:     make([]uint8, width*height*4),
	}, nil
}

// Width returns the screen width in pixels.
func (s *Screen) Width() int { return s.width }

// Height returns the screen height in pixels.
func (s *Screen) Height() int { return s.height }

// SetPalette swaps the active palette. Pixels already composed keep their
// colors; only subsequent draw calls resolve through the new palette.
func (s *Screen) SetPalette(p *Palette) {
	if p != nil {
		s.palette = p
	}
}

// Palette returns the active palette.
func (s *Screen) Palette() *Palette { return s.palette }

func (s *Screen) put(offset int, c color.RGBA) {
	s.buf[offset] = c.R
	s.buf[offset+1] = c.G
	s.buf[offset+2] = c.B
	s.buf[offset+3] = c.A
}

// Clear floods the whole screen with one palette color, alpha forced opaque
// so a cleared screen is never see-through.
func (s *Screen) Clear(index uint8) {
	c := s.palette.Color(index)
	c.A = 0xFF
	for off := 0; off < len(s.buf); off += 4 {
		s.put(off, c)
	}
}

// SetPixel plots one palette color. Out-of-bounds plots are dropped.
func (s *Screen) SetPixel(x, y int, index uint8) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return
	}
	s.put((y*s.width+x)*4, s.palette.Color(index))
}

// PixelRGBA reads back one composed pixel. Out-of-bounds reads are zero.
func (s *Screen) PixelRGBA(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return color.RGBA{}
	}
	off := (y*s.width + x) * 4
	return color.RGBA{R: s.buf[off], G: s.buf[off+1], B: s.buf[off+2], A: s.buf[off+3]}
}

// FillRect fills an axis-aligned rectangle, clipped to the screen.
func (s *Screen) FillRect(x, y, w, h int, index uint8) {
	if w <= 0 || h <= 0 {
		return
	}
	c := s.palette.Color(index)
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, s.width), min(y+h, s.height)
	for py := y0; py < y1; py++ {
		off := (py*s.width + x0) * 4
		for px := x0; px < x1; px++ {
			s.put(off, c)
			off += 4
		}
	}
}

// Blit composes a sprite at (x, y), walking its runs and resolving indexes
// through the active palette. Index 0 is transparent. The blit clips at the
// screen edges.
func (s *Screen) Blit(sp *Sprite, x, y int) {
	pos := 0
	for _, run := range sp.Runs {
		if run.Index == 0 {
			pos += int(run.Count)
			continue
		}
		c := s.palette.Color(run.Index)
		for i := 0; i < int(run.Count); i++ {
			px := x + (pos % sp.Width)
			py := y + (pos / sp.Width)
			pos++
			if px < 0 || py < 0 || px >= s.width || py >= s.height {
				continue
			}
			s.put((py*s.width+px)*4, c)
		}
	}
}

// DrawText renders a string with a bitmap font in one palette color.
// Characters the font lacks advance the cursor but draw nothing.
func (s *Screen) DrawText(f *Font, text string, x, y int, index uint8) {
	c := s.palette.Color(index)
	rowBytes := f.rowBytes()
	cx := x
	for i := 0; i < len(text); i++ {
		glyph, ok := f.Glyph(text[i])
		if ok {
			for gy := 0; gy < f.GlyphHeight; gy++ {
				py := y + gy
				if py < 0 || py >= s.height {
					continue
				}
				row := glyph[gy*rowBytes : (gy+1)*rowBytes]
				for gx := 0; gx < f.GlyphWidth; gx++ {
					if row[gx/8]&(0x80>>(gx%8)) == 0 {
						continue
					}
					px := cx + gx
					if px < 0 || px >= s.width {
						continue
					}
					s.put((py*s.width+px)*4, c)
				}
			}
		}
		cx += f.GlyphWidth
	}
}

// DrawTextCenter renders text horizontally centered on cx.
func (s *Screen) DrawTextCenter(f *Font, text string, cx, y int, index uint8) {
	s.DrawText(f, text, cx-f.TextWidth(text)/2, y, index)
}

// DrawShadowText renders text with a one-pixel drop shadow under it.
func (s *Screen) DrawShadowText(f *Font, text string, x, y int, index, shadow uint8) {
	s.DrawText(f, text, x+1, y+1, shadow)
	s.DrawText(f, text, x, y, index)
}

// Snapshot copies the composed buffer into a standalone image. The copy is
// what leaves the tick loop goroutine; the screen keeps drawing into its
// own buffer.
func (s *Screen) Snapshot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	copy(img.Pix, s.buf)
	return img
}
