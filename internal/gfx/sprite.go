package gfx

import (
	"encoding/binary"
	"fmt"
	"io"
)

// spriteMagic identifies a .spr file.
var spriteMagic = [4]byte{'F', 'S', 'P', 'R'}

// Run is one horizontal stretch of identical palette indexes.
type Run struct {
	Count uint8
	Index uint8
}

// Sprite is a run-length encoded indexed image. Runs cover the pixel grid
// row-major with no row padding; a run may span row boundaries. The sprite
// keeps indexes rather than colors so the palette can change under it.
type Sprite struct {
	Width  int
	Height int
	Runs   []Run
}

// ParseSprite reads the binary .spr format: magic, version byte, big-endian
// uint16 width and height, a big-endian uint32 run count, then the runs as
// (count, index) byte pairs. The runs must cover exactly width*height pixels.
func ParseSprite(r io.Reader) (*Sprite, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read sprite magic: %w", err)
	}
	if magic != spriteMagic {
		return nil, fmt.Errorf("not a sprite file (magic %q)", magic)
	}

	var version uint8
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read sprite version: %w", err)
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported sprite version %d", version)
	}

	var width, height uint16
	if err := binary.Read(r, binary.BigEndian, &width); err != nil {
		return nil, fmt.Errorf("read sprite width: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &height); err != nil {
		return nil, fmt.Errorf("read sprite height: %w", err)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("sprite dimensions %dx%d out of range", width, height)
	}

	var runCount uint32
	if err := binary.Read(r, binary.BigEndian, &runCount); err != nil {
		return nil, fmt.Errorf("read sprite run count: %w", err)
	}

	sp := &Sprite{Width: int(width), Height: int(height), Runs: make([]Run, runCount)}
	pair := make([]byte, 2)
	covered := 0
	for i := range sp.Runs {
		if _, err := io.ReadFull(r, pair); err != nil {
			return nil, fmt.Errorf("read sprite run %d: %w", i, err)
		}
		if pair[0] == 0 {
			return nil, fmt.Errorf("sprite run %d has zero length", i)
		}
		sp.Runs[i] = Run{Count: pair[0], Index: pair[1]}
		covered += int(pair[0])
	}
	if covered != sp.Width*sp.Height {
		return nil, fmt.Errorf("sprite runs cover %d pixels, want %d", covered, sp.Width*sp.Height)
	}
	return sp, nil
}

// SpriteFromIndexes run-length encodes a row-major index grid.
func SpriteFromIndexes(width, height int, indexes []uint8) (*Sprite, error) {
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, fmt.Errorf("sprite dimensions %dx%d out of range", width, height)
	}
	if len(indexes) != width*height {
		return nil, fmt.Errorf("index grid has %d pixels, want %d", len(indexes), width*height)
	}

	sp := &Sprite{Width: width, Height: height}
	i := 0
	for i < len(indexes) {
		index := indexes[i]
		count := 1
		for i+count < len(indexes) && indexes[i+count] == index && count < 255 {
			count++
		}
		sp.Runs = append(sp.Runs, Run{Count: uint8(count), Index: index})
		i += count
	}
	return sp, nil
}

// WriteSprite emits the binary .spr format.
func WriteSprite(w io.Writer, sp *Sprite) error {
	if _, err := w.Write(spriteMagic[:]); err != nil {
		return fmt.Errorf("write sprite magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint8(1)); err != nil {
		return fmt.Errorf("write sprite version: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint16(sp.Width)); err != nil {
		return fmt.Errorf("write sprite width: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint16(sp.Height)); err != nil {
		return fmt.Errorf("write sprite height: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(sp.Runs))); err != nil {
		return fmt.Errorf("write sprite run count: %w", err)
	}
	for i, run := range sp.Runs {
		if _, err := w.Write([]byte{run.Count, run.Index}); err != nil {
			return fmt.Errorf("write sprite run %d: %w", i, err)
		}
	}
	return nil
}

// Indexes expands the runs back into a row-major index grid.
func (sp *Sprite) Indexes() []uint8 {
	out := make([]uint8, 0, sp.Width*sp.Height)
	for _, run := range sp.Runs {
		for i := 0; i < int(run.Count); i++ {
			out = append(out, run.Index)
		}
	}
	return out
}
