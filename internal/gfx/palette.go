// Package gfx implements the virtual display: an indexed-color palette,
// run-length encoded sprites, bitmap fonts and the true-color screen they
// are composed onto. Sprites store palette indexes, not colors; indexes
// resolve through the active palette at blit time, so palette swaps recolor
// everything already on disk for free.
package gfx

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
)

// PaletteSize is the number of color slots in a palette. Index 0 is the
// transparent index by convention: sprite runs carrying it are skipped.
const PaletteSize = 256

// paletteMagic identifies a .pal file.
var paletteMagic = [4]byte{'F', 'P', 'A', 'L'}

// Palette maps color indexes to display colors. Unset slots are opaque black.
type Palette struct {
	Colors [PaletteSize]color.RGBA
	Count  int
}

// Color resolves an index to its display color.
func (p *Palette) Color(index uint8) color.RGBA {
	return p.Colors[index]
}

// Swap exchanges two palette slots. Pixels already composed keep their
// colors; subsequent draws resolve through the swapped slots.
func (p *Palette) Swap(i, j uint8) {
	p.Colors[i], p.Colors[j] = p.Colors[j], p.Colors[i]
}

// Cycle rotates the slot range [lo, hi] one step toward lo. Calling it
// every few ticks scrolls the range's colors (waterfalls, fire, marquee
// lights) without touching a single pixel.
func (p *Palette) Cycle(lo, hi uint8) {
	if lo >= hi || int(hi) >= PaletteSize {
		return
	}
	first := p.Colors[lo]
	copy(p.Colors[lo:hi], p.Colors[lo+1:hi+1])
	p.Colors[hi] = first
}

// ParsePalette reads the binary .pal format: a 4-byte magic, a version
// byte, a big-endian uint16 color count, then count RGBA quadruplets.
func ParsePalette(r io.Reader) (*Palette, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read palette magic: %w", err)
	}
	if magic != paletteMagic {
		return nil, fmt.Errorf("not a palette file (magic %q)", magic)
	}

	var version uint8
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read palette version: %w", err)
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported palette version %d", version)
	}

	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("read palette count: %w", err)
	}
	if count == 0 || count > PaletteSize {
		return nil, fmt.Errorf("palette count %d out of range", count)
	}

	p := &Palette{Count: int(count)}
	quad := make([]byte, 4)
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(r, quad); err != nil {
			return nil, fmt.Errorf("read palette entry %d: %w", i, err)
		}
		p.Colors[i] = color.RGBA{R: quad[0], G: quad[1], B: quad[2], A: quad[3]}
	}
	return p, nil
}

// WritePalette emits the binary .pal format for the first count slots.
func WritePalette(w io.Writer, p *Palette) error {
	if p.Count == 0 || p.Count > PaletteSize {
		return fmt.Errorf("palette count %d out of range", p.Count)
	}
	if _, err := w.Write(paletteMagic[:]); err != nil {
		return fmt.Errorf("write palette magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint8(1)); err != nil {
		return fmt.Errorf("write palette version: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint16(p.Count)); err != nil {
		return fmt.Errorf("write palette count: %w", err)
	}
	for i := 0; i < p.Count; i++ {
		c := p.Colors[i]
		if _, err := w.Write([]byte{c.R, c.G, c.B, c.A}); err != nil {
			return fmt.Errorf("write palette entry %d: %w", i, err)
		}
	}
	return nil
}

// DefaultPalette returns the built-in 16-color palette used when no .pal
// asset is loaded. The layout follows the classic CGA/EGA ramp.
func DefaultPalette() *Palette {
	p := &Palette{Count: 16}
	ramp := []color.RGBA{
		{0, 0, 0, 0},         // 0: transparent
		{29, 43, 83, 255},    // 1: dark blue
		{126, 37, 83, 255},   // 2: dark purple
		{0, 135, 81, 255},    // 3: dark green
		{171, 82, 54, 255},   // 4: brown
		{95, 87, 79, 255},    // 5: dark gray
		{194, 195, 199, 255}, // 6: light gray
		{255, 241, 232, 255}, // 7: white
		{255, 0, 77, 255},    // 8: red
		{255, 163, 0, 255},   // 9: orange
		{255, 236, 39, 255},  // 10: yellow
		{0, 228, 54, 255},    // 11: green
		{41, 173, 255, 255},  // 12: blue
		{131, 118, 156, 255}, // 13: lavender
		{255, 119, 168, 255}, // 14: pink
		{255, 204, 170, 255}, // 15: peach
	}
	copy(p.Colors[:], ramp)
	return p
}
