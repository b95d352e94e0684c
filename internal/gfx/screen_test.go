package gfx

import (
	"image/color"
	"testing"
)

func newTestScreen(t *testing.T, w, h int) *Screen {
	t.Helper()
	s, err := NewScreen(w, h, DefaultPalette())
	if err != nil {
		t.Fatalf("Expected screen to allocate, got %v", err)
	}
	return s
}

func TestClearFloodsWithPaletteColor(t *testing.T) {
	// Setup
	s := newTestScreen(t, 4, 4)

	// Act
	s.Clear(8) // red in the default palette

	// Assert
	want := color.RGBA{R: 255, G: 0, B: 77, A: 255}
	if got := s.PixelRGBA(0, 0); got != want {
		t.Errorf("Expected %v at origin, got %v", want, got)
	}
	if got := s.PixelRGBA(3, 3); got != want {
		t.Errorf("Expected %v at far corner, got %v", want, got)
	}
}

func TestBlitSkipsTransparentIndex(t *testing.T) {
	// Setup: background color 7, sprite with a transparent hole
	s := newTestScreen(t, 3, 1)
	s.Clear(7)
	sp, err := SpriteFromIndexes(3, 1, []uint8{5, 0, 5})
	if err != nil {
		t.Fatalf("Expected sprite to encode, got %v", err)
	}

	// Act
	s.Blit(sp, 0, 0)

	// Assert: hole shows the background, solids show the sprite color
	bg := DefaultPalette().Color(7)
	fg := DefaultPalette().Color(5)
	if got := s.PixelRGBA(1, 0); got != bg {
		t.Errorf("Expected background through the hole, got %v", got)
	}
	if got := s.PixelRGBA(0, 0); got != fg {
		t.Errorf("Expected sprite color at solid pixel, got %v", got)
	}
	if got := s.PixelRGBA(2, 0); got != fg {
		t.Errorf("Expected sprite color at solid pixel, got %v", got)
	}
}

func TestBlitClipsAtEdges(t *testing.T) {
	// Setup: a 2x2 solid sprite hanging off the top-left corner
	s := newTestScreen(t, 4, 4)
	s.Clear(1)
	sp, err := SpriteFromIndexes(2, 2, []uint8{9, 9, 9, 9})
	if err != nil {
		t.Fatalf("Expected sprite to encode, got %v", err)
	}

	// Act
	s.Blit(sp, -1, -1)

	// Assert: only the overlapping pixel landed
	fg := DefaultPalette().Color(9)
	bg := DefaultPalette().Color(1)
	if got := s.PixelRGBA(0, 0); got != fg {
		t.Errorf("Expected clipped blit to land at origin, got %v", got)
	}
	if got := s.PixelRGBA(1, 0); got != bg {
		t.Errorf("Expected background at (1,0), got %v", got)
	}
	if got := s.PixelRGBA(0, 1); got != bg {
		t.Errorf("Expected background at (0,1), got %v", got)
	}
}

func TestDrawTextSetsGlyphPixels(t *testing.T) {
	// Setup: one glyph, leftmost pixel on in row 0, rightmost in row 1
	s := newTestScreen(t, 16, 2)
	s.Clear(0)
	f := &Font{
		GlyphWidth:  8,
		GlyphHeight: 2,
		First:       'A',
		Glyphs:      [][]byte{{0x80, 0x01}},
	}

	// Act
	s.DrawText(f, "A", 0, 0, 7)

	// Assert
	fg := DefaultPalette().Color(7)
	if got := s.PixelRGBA(0, 0); got != fg {
		t.Errorf("Expected leftmost pixel of row 0 set, got %v", got)
	}
	if got := s.PixelRGBA(7, 1); got != fg {
		t.Errorf("Expected rightmost pixel of row 1 set, got %v", got)
	}
	if got := s.PixelRGBA(1, 0); got == fg {
		t.Errorf("Expected pixel (1,0) untouched")
	}
}

func TestDrawTextAdvancesPerCharacter(t *testing.T) {
	// Setup
	s := newTestScreen(t, 24, 1)
	s.Clear(0)
	f := &Font{
		GlyphWidth:  8,
		GlyphHeight: 1,
		First:       'A',
		Glyphs:      [][]byte{{0x80}},
	}

	// Act
	s.DrawText(f, "AA", 0, 0, 7)

	// Assert: second glyph starts one cell over
	fg := DefaultPalette().Color(7)
	if got := s.PixelRGBA(8, 0); got != fg {
		t.Errorf("Expected second glyph at x=8, got %v", got)
	}
}

func TestDrawTextCenterBalancesMargins(t *testing.T) {
	// Setup: one solid full-cell glyph on a wide screen
	s := newTestScreen(t, 24, 1)
	s.Clear(0)
	f := &Font{
		GlyphWidth:  8,
		GlyphHeight: 1,
		First:       'A',
		Glyphs:      [][]byte{{0xFF}},
	}

	// Act: center an 8px glyph on x=12
	s.DrawTextCenter(f, "A", 12, 0, 7)

	// Assert: glyph spans [8,16), margins equal on both sides
	fg := DefaultPalette().Color(7)
	if got := s.PixelRGBA(8, 0); got != fg {
		t.Errorf("Expected glyph to start at x=8, got %v", got)
	}
	if got := s.PixelRGBA(15, 0); got != fg {
		t.Errorf("Expected glyph to end at x=15, got %v", got)
	}
	if got := s.PixelRGBA(7, 0); got == fg {
		t.Errorf("Expected left margin clear at x=7")
	}
	if got := s.PixelRGBA(16, 0); got == fg {
		t.Errorf("Expected right margin clear at x=16")
	}
}

func TestDrawShadowTextOffsetsShadow(t *testing.T) {
	// Setup: single-pixel glyph
	s := newTestScreen(t, 4, 4)
	s.Clear(0)
	f := &Font{
		GlyphWidth:  8,
		GlyphHeight: 1,
		First:       'A',
		Glyphs:      [][]byte{{0x80}},
	}

	// Act
	s.DrawShadowText(f, "A", 1, 1, 7, 5)

	// Assert: text at (1,1), shadow one pixel down-right
	if got := s.PixelRGBA(1, 1); got != DefaultPalette().Color(7) {
		t.Errorf("Expected text color at (1,1), got %v", got)
	}
	if got := s.PixelRGBA(2, 2); got != DefaultPalette().Color(5) {
		t.Errorf("Expected shadow color at (2,2), got %v", got)
	}
}

func TestPaletteCycleRotatesRange(t *testing.T) {
	// Setup
	p := DefaultPalette()
	c1, c2, c3 := p.Colors[1], p.Colors[2], p.Colors[3]

	// Act
	p.Cycle(1, 3)

	// Assert: each slot took its right neighbor, the first wrapped to the end
	if p.Colors[1] != c2 {
		t.Errorf("Expected slot 1 to take slot 2's color, got %v", p.Colors[1])
	}
	if p.Colors[2] != c3 {
		t.Errorf("Expected slot 2 to take slot 3's color, got %v", p.Colors[2])
	}
	if p.Colors[3] != c1 {
		t.Errorf("Expected slot 3 to wrap to slot 1's color, got %v", p.Colors[3])
	}
	if p.Colors[0] != (color.RGBA{}) {
		t.Errorf("Expected slot 0 untouched, got %v", p.Colors[0])
	}
}

func TestPaletteSwapExchangesSlots(t *testing.T) {
	// Setup
	p := DefaultPalette()
	c8, c9 := p.Colors[8], p.Colors[9]

	// Act
	p.Swap(8, 9)

	// Assert
	if p.Colors[8] != c9 || p.Colors[9] != c8 {
		t.Errorf("Expected slots 8 and 9 exchanged, got %v and %v", p.Colors[8], p.Colors[9])
	}
}

func TestScanlinesDarkensOddRowsOnly(t *testing.T) {
	// Setup
	s := newTestScreen(t, 2, 2)
	s.Clear(7)
	even := s.PixelRGBA(0, 0)

	// Act: halve odd-row brightness
	s.Scanlines(128)

	// Assert
	if got := s.PixelRGBA(0, 0); got != even {
		t.Errorf("Expected even row untouched, got %v", got)
	}
	odd := s.PixelRGBA(0, 1)
	if odd.R != even.R/2 || odd.G != even.G/2 || odd.B != even.B/2 {
		t.Errorf("Expected odd row at half brightness, got %v", odd)
	}
}

func TestPaletteSwapAffectsOnlyNewDraws(t *testing.T) {
	// Setup
	s := newTestScreen(t, 2, 1)
	s.SetPixel(0, 0, 8)
	before := s.PixelRGBA(0, 0)

	// Act: swap color 8 to pure green and draw the second pixel
	swapped := DefaultPalette()
	swapped.Colors[8] = color.RGBA{G: 255, A: 255}
	s.SetPalette(swapped)
	s.SetPixel(1, 0, 8)

	// Assert: composed pixels keep their color, new draws take the new one
	if got := s.PixelRGBA(0, 0); got != before {
		t.Errorf("Expected old pixel to keep its color, got %v", got)
	}
	if got := s.PixelRGBA(1, 0); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("Expected new pixel in swapped color, got %v", got)
	}
}

func TestDissolveIsDeterministic(t *testing.T) {
	// Setup: two identical screens
	a := newTestScreen(t, 16, 16)
	b := newTestScreen(t, 16, 16)
	a.Clear(7)
	b.Clear(7)

	// Act: same progress, same seed
	a.Dissolve(0.5, 42, 1)
	b.Dissolve(0.5, 42, 1)

	// Assert: byte-identical result, and the effect actually did something
	touched := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if a.PixelRGBA(x, y) != b.PixelRGBA(x, y) {
				t.Fatalf("Expected identical pixels at (%d,%d)", x, y)
			}
			if a.PixelRGBA(x, y) == DefaultPalette().Color(1) {
				touched++
			}
		}
	}
	if touched == 0 || touched == 256 {
		t.Errorf("Expected a partial dissolve, got %d of 256 pixels", touched)
	}
}

func TestDissolveFullProgressFloods(t *testing.T) {
	// Setup
	s := newTestScreen(t, 8, 8)
	s.Clear(7)

	// Act
	s.Dissolve(1.0, 7, 2)

	// Assert
	want := DefaultPalette().Color(2)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := s.PixelRGBA(x, y); got != want {
				t.Fatalf("Expected full flood at (%d,%d), got %v", x, y, got)
			}
		}
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	// Setup
	s := newTestScreen(t, 2, 2)
	s.Clear(8)

	// Act: snapshot, then keep drawing
	img := s.Snapshot()
	s.Clear(1)

	// Assert: the snapshot still shows the old frame
	r, g, b, _ := img.At(0, 0).RGBA()
	if uint8(r>>8) != 255 || uint8(g>>8) != 0 || uint8(b>>8) != 77 {
		t.Errorf("Expected snapshot to keep the red clear, got %v", img.At(0, 0))
	}
}

func TestStampDebugOverlayMarksSnapshot(t *testing.T) {
	// Setup
	s := newTestScreen(t, 120, 40)
	s.Clear(1)
	img := s.Snapshot()

	// Act
	StampDebugOverlay(img, []string{"tick 42"})

	// Assert: some pixels turned white, the live buffer stayed clean
	marked := false
	for y := 0; y < 40 && !marked; y++ {
		for x := 0; x < 120; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r == 0xFFFF && g == 0xFFFF && b == 0xFFFF {
				marked = true
				break
			}
		}
	}
	if !marked {
		t.Errorf("Expected overlay text pixels on the snapshot")
	}
	if got := s.PixelRGBA(4, 4); got == (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("Expected live buffer to stay free of overlay pixels")
	}
}
