package gfx

import (
	"fmt"
	"io"
)

// fontMagic identifies a .fnt file.
var fontMagic = [4]byte{'F', 'F', 'N', 'T'}

// Font is a fixed-cell 1bpp bitmap font. Glyph rows are packed MSB-first,
// one or more bytes per row depending on the cell width.
type Font struct {
	GlyphWidth  int
	GlyphHeight int
	First       byte // char code of the first glyph, usually ' '
	Glyphs      [][]byte
}

// rowBytes is the packed byte width of one glyph row.
func (f *Font) rowBytes() int {
	return (f.GlyphWidth + 7) / 8
}

// Glyph returns the packed bitmap for a character. Characters outside the
// font's range return ok=false and draw as blanks.
func (f *Font) Glyph(ch byte) ([]byte, bool) {
	if ch < f.First || int(ch-f.First) >= len(f.Glyphs) {
		return nil, false
	}
	return f.Glyphs[ch-f.First], true
}

// TextWidth returns the pixel width of a string drawn in this font.
func (f *Font) TextWidth(text string) int {
	return len(text) * f.GlyphWidth
}

// ParseFont reads the binary .fnt format: magic, version byte, glyph width,
// glyph height, first char code and glyph count (one byte each), then the
// packed glyph bitmaps.
func ParseFont(r io.Reader) (*Font, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read font magic: %w", err)
	}
	if magic != fontMagic {
		return nil, fmt.Errorf("not a font file (magic %q)", magic)
	}

	var header [5]byte // version, glyphW, glyphH, first, count
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read font header: %w", err)
	}
	if header[0] != 1 {
		return nil, fmt.Errorf("unsupported font version %d", header[0])
	}
	if header[1] == 0 || header[2] == 0 || header[4] == 0 {
		return nil, fmt.Errorf("font header has zero dimension or glyph count")
	}

	f := &Font{
		GlyphWidth:  int(header[1]),
		GlyphHeight: int(header[2]),
		First:       header[3],
		Glyphs:      make([][]byte, header[4]),
	}
	size := f.rowBytes() * f.GlyphHeight
	for i := range f.Glyphs {
		glyph := make([]byte, size)
		if _, err := io.ReadFull(r, glyph); err != nil {
			return nil, fmt.Errorf("read font glyph %d: %w", i, err)
		}
		f.Glyphs[i] = glyph
	}
	return f, nil
}

// WriteFont emits the binary .fnt format.
func WriteFont(w io.Writer, f *Font) error {
	if f.GlyphWidth <= 0 || f.GlyphWidth > 255 || f.GlyphHeight <= 0 || f.GlyphHeight > 255 {
		return fmt.Errorf("font cell %dx%d out of range", f.GlyphWidth, f.GlyphHeight)
	}
	if len(f.Glyphs) == 0 || len(f.Glyphs) > 255 {
		return fmt.Errorf("font glyph count %d out of range", len(f.Glyphs))
	}
	if _, err := w.Write(fontMagic[:]); err != nil {
		return fmt.Errorf("write font magic: %w", err)
	}
	header := []byte{1, byte(f.GlyphWidth), byte(f.GlyphHeight), f.First, byte(len(f.Glyphs))}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write font header: %w", err)
	}
	size := f.rowBytes() * f.GlyphHeight
	for i, glyph := range f.Glyphs {
		if len(glyph) != size {
			return fmt.Errorf("font glyph %d is %d bytes, want %d", i, len(glyph), size)
		}
		if _, err := w.Write(glyph); err != nil {
			return fmt.Errorf("write font glyph %d: %w", i, err)
		}
	}
	return nil
}
