// Package main - farolpak
// Asset pipeline for the farol console. Converts PNG art into the binary
// palette, sprite and font formats the runtime loads.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/mattn/go-isatty"

	"github.com/farolengine/farol/internal/gfx"
)

const usageString = `farolpak converts PNG art into farol asset files.

Usage: farolpak <command> [flags] <args>

Commands:
  pal   quantize a PNG into a .pal palette
  spr   encode a PNG as a .spr sprite against a palette
  fnt   pack a glyph strip PNG into a .fnt bitmap font
  info  inspect a .pal, .spr or .fnt file
`

var pretty = isatty.IsTerminal(os.Stdout.Fd())

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageString)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "pal":
		runPal(os.Args[2:])
	case "spr":
		runSpr(os.Args[2:])
	case "fnt":
		runFnt(os.Args[2:])
	case "info":
		runInfo(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usageString)
		os.Exit(1)
	}
}

// runPal quantizes a source image down to a palette. Slot 0 is reserved
// for the transparent index, so the quantizer gets one slot fewer.
func runPal(args []string) {
	flags := flag.NewFlagSet("pal", flag.ExitOnError)
	colors := flags.Int("colors", 32, "number of palette slots including the transparent slot 0")
	flags.Parse(args)

	if flags.NArg() != 2 {
		log.Fatalln("usage: farolpak pal [flags] <input.png> <output.pal>")
	}
	if *colors < 2 || *colors > gfx.PaletteSize {
		log.Fatalf("color count %d out of range (2-%d)", *colors, gfx.PaletteSize)
	}

	src := decodeImage(flags.Arg(0))

	q := quantize.MedianCutQuantizer{}
	quantized := q.Quantize(make([]color.Color, 0, *colors-1), src)

	p := &gfx.Palette{Count: len(quantized) + 1}
	for i, c := range quantized {
		r, g, b, a := c.RGBA()
		p.Colors[i+1] = color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	}

	writeAsset(flags.Arg(1), func(w io.Writer) error { return gfx.WritePalette(w, p) })
	done("wrote %s (%d colors)", flags.Arg(1), p.Count)
}

// runSpr matches every source pixel to its nearest palette slot and
// run-length encodes the result.
func runSpr(args []string) {
	flags := flag.NewFlagSet("spr", flag.ExitOnError)
	palPath := flags.String("palette", "", "palette file to match colors against (required)")
	dither := flags.Bool("dither", false, "enable Floyd-Steinberg error diffusion")
	flags.Parse(args)

	if flags.NArg() != 2 || *palPath == "" {
		log.Fatalln("usage: farolpak spr -palette <file.pal> [-dither] <input.png> <output.spr>")
	}

	pal := readPalette(*palPath)
	if pal.Count < 2 {
		log.Fatalln("palette has no opaque slots")
	}
	src := decodeImage(flags.Arg(0))

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	var indexes []uint8
	if *dither {
		indexes = ditherIndexes(pal, src)
	} else {
		indexes = make([]uint8, 0, width*height)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				indexes = append(indexes, nearestIndex(pal, src.At(x, y)))
			}
		}
	}

	sp, err := gfx.SpriteFromIndexes(width, height, indexes)
	if err != nil {
		log.Fatalln(err)
	}

	writeAsset(flags.Arg(1), func(w io.Writer) error { return gfx.WriteSprite(w, sp) })
	rawSize := width * height
	done("wrote %s (%dx%d, %d runs, %.0f%% of raw)",
		flags.Arg(1), sp.Width, sp.Height, len(sp.Runs),
		float64(len(sp.Runs)*2)/float64(rawSize)*100)
}

// runFnt slices a horizontal glyph strip into fixed cells and packs each
// cell as 1bpp rows, MSB first.
func runFnt(args []string) {
	flags := flag.NewFlagSet("fnt", flag.ExitOnError)
	cellW := flags.Int("width", 8, "glyph cell width in pixels")
	cellH := flags.Int("height", 8, "glyph cell height in pixels")
	first := flags.Int("first", 32, "char code of the strip's first glyph")
	flags.Parse(args)

	if flags.NArg() != 2 {
		log.Fatalln("usage: farolpak fnt [flags] <strip.png> <output.fnt>")
	}
	if *first < 0 || *first > 255 {
		log.Fatalf("first char code %d out of range", *first)
	}

	src := decodeImage(flags.Arg(0))
	bounds := src.Bounds()
	if bounds.Dx() < *cellW || bounds.Dy() < *cellH {
		log.Fatalf("strip %dx%d is smaller than one %dx%d cell", bounds.Dx(), bounds.Dy(), *cellW, *cellH)
	}

	count := bounds.Dx() / *cellW
	if count > 255 {
		count = 255
	}

	f := &gfx.Font{GlyphWidth: *cellW, GlyphHeight: *cellH, First: byte(*first)}
	rowBytes := (*cellW + 7) / 8
	for g := 0; g < count; g++ {
		glyph := make([]byte, rowBytes**cellH)
		for y := 0; y < *cellH; y++ {
			for x := 0; x < *cellW; x++ {
				px := src.At(bounds.Min.X+g**cellW+x, bounds.Min.Y+y)
				if lit(px) {
					glyph[y*rowBytes+x/8] |= 0x80 >> (x % 8)
				}
			}
		}
		f.Glyphs = append(f.Glyphs, glyph)
	}

	writeAsset(flags.Arg(1), func(w io.Writer) error { return gfx.WriteFont(w, f) })
	done("wrote %s (%d glyphs, %dx%d cells)", flags.Arg(1), len(f.Glyphs), f.GlyphWidth, f.GlyphHeight)
}

// runInfo parses any asset file and prints a one-line summary.
func runInfo(args []string) {
	flags := flag.NewFlagSet("info", flag.ExitOnError)
	flags.Parse(args)

	if flags.NArg() != 1 {
		log.Fatalln("usage: farolpak info <file>")
	}
	path := flags.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		log.Fatalln(err)
	}
	size := humanize.Bytes(uint64(st.Size()))

	switch filepath.Ext(path) {
	case ".pal":
		p, err := gfx.ParsePalette(f)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Printf("%s: palette, %d colors, %s\n", path, p.Count, size)
	case ".spr":
		sp, err := gfx.ParseSprite(f)
		if err != nil {
			log.Fatalln(err)
		}
		raw := sp.Width * sp.Height
		fmt.Printf("%s: sprite, %dx%d, %d runs (%.0f%% of raw), %s\n",
			path, sp.Width, sp.Height, len(sp.Runs),
			float64(len(sp.Runs)*2)/float64(raw)*100, size)
	case ".fnt":
		fn, err := gfx.ParseFont(f)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Printf("%s: font, %d glyphs of %dx%d starting at %q, %s\n",
			path, len(fn.Glyphs), fn.GlyphWidth, fn.GlyphHeight, fn.First, size)
	default:
		log.Fatalf("unknown asset extension %q", filepath.Ext(path))
	}
}

func decodeImage(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		log.Fatalln(err)
	}
	return img
}

func readPalette(path string) *gfx.Palette {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()

	p, err := gfx.ParsePalette(f)
	if err != nil {
		log.Fatalln(err)
	}
	return p
}

func writeAsset(path string, write func(io.Writer) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		log.Fatalln(err)
	}
}

// ditherIndexes maps pixels through Floyd-Steinberg error diffusion
// against the opaque palette slots. Transparent source pixels stay 0.
func ditherIndexes(p *gfx.Palette, src image.Image) []uint8 {
	opaque := make(color.Palette, 0, p.Count-1)
	for i := 1; i < p.Count; i++ {
		opaque = append(opaque, p.Colors[i])
	}

	bounds := src.Bounds()
	dst := image.NewPaletted(bounds, opaque)
	draw.FloydSteinberg.Draw(dst, bounds, src, bounds.Min)

	indexes := make([]uint8, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := src.At(x, y).RGBA(); a < 0x8000 {
				indexes = append(indexes, 0)
				continue
			}
			indexes = append(indexes, dst.ColorIndexAt(x, y)+1)
		}
	}
	return indexes
}

// nearestIndex maps a color to the closest palette slot by squared RGB
// distance. Mostly transparent pixels map to slot 0 regardless of hue.
func nearestIndex(p *gfx.Palette, c color.Color) uint8 {
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return 0
	}

	best, bestDist := uint8(0), int64(1)<<62
	for i := 1; i < p.Count; i++ {
		pc := p.Colors[i]
		dr := int64(r>>8) - int64(pc.R)
		dg := int64(g>>8) - int64(pc.G)
		db := int64(b>>8) - int64(pc.B)
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			best, bestDist = uint8(i), dist
		}
	}
	return best
}

// lit reports whether a strip pixel counts as part of a glyph.
// Rec. 601 luma against a mid-gray threshold.
func lit(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return false
	}
	luma := (299*r + 587*g + 114*b) / 1000
	return luma >= 0x8000
}

func done(format string, args ...interface{}) {
	if pretty {
		format = "✅ " + format
	}
	fmt.Printf(format+"\n", args...)
}
