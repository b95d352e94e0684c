package assets

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/farolengine/farol/internal/gfx"
)

func writePaletteFile(t *testing.T, path string, p *gfx.Palette) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Expected asset dir to create, got %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Expected asset file to create, got %v", err)
	}
	defer f.Close()
	if err := gfx.WritePalette(f, p); err != nil {
		t.Fatalf("Expected palette to write, got %v", err)
	}
}

func TestLoaderParsesPalette(t *testing.T) {
	// Setup
	root := t.TempDir()
	writePaletteFile(t, filepath.Join(root, "palettes", "classic.pal"), gfx.DefaultPalette())
	loader := NewLoader(root, nil, nil)

	// Act
	p, err := loader.Palette("classic")
	if err != nil {
		t.Fatalf("Expected palette to load, got %v", err)
	}

	// Assert
	if p.Count != 16 {
		t.Errorf("Expected 16 colors, got %d", p.Count)
	}
}

func TestLoaderCachesByModTime(t *testing.T) {
	// Setup
	root := t.TempDir()
	writePaletteFile(t, filepath.Join(root, "palettes", "classic.pal"), gfx.DefaultPalette())
	loader := NewLoader(root, nil, nil)

	// Act: load twice without touching the file
	first, err := loader.Palette("classic")
	if err != nil {
		t.Fatalf("Expected palette to load, got %v", err)
	}
	second, err := loader.Palette("classic")
	if err != nil {
		t.Fatalf("Expected palette to load, got %v", err)
	}

	// Assert: the cache returned the same parse
	if first != second {
		t.Errorf("Expected the cached instance on the second load")
	}
}

func TestLoaderReloadsWhenFileChanges(t *testing.T) {
	// Setup
	root := t.TempDir()
	path := filepath.Join(root, "palettes", "classic.pal")
	writePaletteFile(t, path, gfx.DefaultPalette())
	loader := NewLoader(root, nil, nil)

	first, err := loader.Palette("classic")
	if err != nil {
		t.Fatalf("Expected palette to load, got %v", err)
	}

	// Act: rewrite the file with a changed color and a newer mtime
	edited := gfx.DefaultPalette()
	edited.Colors[1] = color.RGBA{R: 1, G: 2, B: 3, A: 255}
	writePaletteFile(t, path, edited)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Expected chtimes to succeed, got %v", err)
	}

	second, err := loader.Palette("classic")
	if err != nil {
		t.Fatalf("Expected palette to reload, got %v", err)
	}

	// Assert
	if first == second {
		t.Errorf("Expected a fresh parse after the file changed")
	}
	if second.Color(1) != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("Expected the edited color, got %v", second.Color(1))
	}
}

func TestLoaderMissingAsset(t *testing.T) {
	// Setup
	loader := NewLoader(t.TempDir(), nil, nil)

	// Act
	_, err := loader.Sprite("ghost")

	// Assert
	if err == nil {
		t.Errorf("Expected missing asset to fail")
	}
}
