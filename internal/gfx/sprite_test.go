package gfx

import (
	"bytes"
	"testing"
)

func TestParsePaletteRejectsWrongMagic(t *testing.T) {
	// Setup: a sprite header fed to the palette parser
	var buf bytes.Buffer
	buf.WriteString("FSPR")
	buf.Write([]byte{1, 0, 1})

	// Act
	_, err := ParsePalette(&buf)

	// Assert
	if err == nil {
		t.Errorf("Expected wrong magic to be rejected")
	}
}

func TestPaletteRoundTrip(t *testing.T) {
	// Setup
	src := DefaultPalette()

	// Act
	var buf bytes.Buffer
	if err := WritePalette(&buf, src); err != nil {
		t.Fatalf("Expected palette write to succeed, got %v", err)
	}
	got, err := ParsePalette(&buf)
	if err != nil {
		t.Fatalf("Expected palette parse to succeed, got %v", err)
	}

	// Assert
	if got.Count != src.Count {
		t.Errorf("Expected %d colors, got %d", src.Count, got.Count)
	}
	if got.Color(8) != src.Color(8) {
		t.Errorf("Expected color 8 to survive the trip, got %v", got.Color(8))
	}
}

func TestSpriteFromIndexesBuildsRuns(t *testing.T) {
	// Setup: one transparent pixel then three solid ones
	indexes := []uint8{0, 5, 5, 5}

	// Act
	sp, err := SpriteFromIndexes(4, 1, indexes)
	if err != nil {
		t.Fatalf("Expected encoding to succeed, got %v", err)
	}

	// Assert
	if len(sp.Runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(sp.Runs))
	}
	if sp.Runs[0] != (Run{Count: 1, Index: 0}) {
		t.Errorf("Expected first run (1, 0), got %+v", sp.Runs[0])
	}
	if sp.Runs[1] != (Run{Count: 3, Index: 5}) {
		t.Errorf("Expected second run (3, 5), got %+v", sp.Runs[1])
	}
}

func TestSpriteRunsSplitAt255(t *testing.T) {
	// Setup: a run longer than one byte can count
	indexes := make([]uint8, 300)
	for i := range indexes {
		indexes[i] = 7
	}

	// Act
	sp, err := SpriteFromIndexes(300, 1, indexes)
	if err != nil {
		t.Fatalf("Expected encoding to succeed, got %v", err)
	}

	// Assert
	if len(sp.Runs) != 2 {
		t.Fatalf("Expected the run to split in 2, got %d runs", len(sp.Runs))
	}
	if sp.Runs[0].Count != 255 || sp.Runs[1].Count != 45 {
		t.Errorf("Expected split 255+45, got %d+%d", sp.Runs[0].Count, sp.Runs[1].Count)
	}
}

func TestParseSpriteRejectsBadCoverage(t *testing.T) {
	// Setup: header claims 2x2 but the single run covers 3 pixels
	var buf bytes.Buffer
	buf.WriteString("FSPR")
	buf.Write([]byte{1})          // version
	buf.Write([]byte{0, 2, 0, 2}) // 2x2
	buf.Write([]byte{0, 0, 0, 1}) // one run
	buf.Write([]byte{3, 9})       // covers 3 of 4 pixels

	// Act
	_, err := ParseSprite(&buf)

	// Assert
	if err == nil {
		t.Errorf("Expected short coverage to be rejected")
	}
}

func TestSpriteRoundTrip(t *testing.T) {
	// Setup
	indexes := []uint8{1, 1, 0, 2, 2, 2, 0, 0, 3}
	src, err := SpriteFromIndexes(3, 3, indexes)
	if err != nil {
		t.Fatalf("Expected encoding to succeed, got %v", err)
	}

	// Act
	var buf bytes.Buffer
	if err := WriteSprite(&buf, src); err != nil {
		t.Fatalf("Expected sprite write to succeed, got %v", err)
	}
	got, err := ParseSprite(&buf)
	if err != nil {
		t.Fatalf("Expected sprite parse to succeed, got %v", err)
	}

	// Assert
	if got.Width != 3 || got.Height != 3 {
		t.Errorf("Expected 3x3 sprite, got %dx%d", got.Width, got.Height)
	}
	back := got.Indexes()
	for i := range indexes {
		if back[i] != indexes[i] {
			t.Fatalf("Expected pixel %d to be %d, got %d", i, indexes[i], back[i])
		}
	}
}

func TestFontGlyphLookup(t *testing.T) {
	// Setup: a two-glyph font starting at space
	f := &Font{
		GlyphWidth:  8,
		GlyphHeight: 1,
		First:       ' ',
		Glyphs:      [][]byte{{0x00}, {0xFF}},
	}

	// Act + Assert
	if _, ok := f.Glyph('!'); !ok {
		t.Errorf("Expected '!' to be inside the font range")
	}
	if _, ok := f.Glyph('z'); ok {
		t.Errorf("Expected 'z' to be outside the font range")
	}
	if f.TextWidth("abc") != 24 {
		t.Errorf("Expected text width 24, got %d", f.TextWidth("abc"))
	}
}

func TestFontRoundTrip(t *testing.T) {
	// Setup
	src := &Font{
		GlyphWidth:  8,
		GlyphHeight: 2,
		First:       'A',
		Glyphs:      [][]byte{{0x81, 0x18}, {0xFF, 0x00}},
	}

	// Act
	var buf bytes.Buffer
	if err := WriteFont(&buf, src); err != nil {
		t.Fatalf("Expected font write to succeed, got %v", err)
	}
	got, err := ParseFont(&buf)
	if err != nil {
		t.Fatalf("Expected font parse to succeed, got %v", err)
	}

	// Assert
	glyph, ok := got.Glyph('B')
	if !ok {
		t.Fatalf("Expected glyph 'B' to exist")
	}
	if glyph[0] != 0xFF || glyph[1] != 0x00 {
		t.Errorf("Expected glyph bitmap to survive the trip, got %v", glyph)
	}
}
