package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/platform/logger"
)

// Loader resolves asset names to parsed values. Names are bare identifiers
// ("player", "classic"); the loader maps them to files under the asset root
// by kind: palettes/<name>.pal, sprites/<name>.spr, fonts/<name>.fnt.
type Loader struct {
	root   string
	store  Store
	logger *logger.Logger
}

// NewLoader creates a loader over the given asset root.
func NewLoader(root string, store Store, log *logger.Logger) *Loader {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Loader{root: root, store: store, logger: log}
}

// load runs the stat/cache/parse dance shared by every asset kind.
func (l *Loader) load(kind, name, ext string, parse func(*os.File) (interface{}, error)) (interface{}, error) {
	path := filepath.Join(l.root, kind, name+ext)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("asset %s/%s: %w", kind, name, err)
	}

	if entry, ok := l.store.Get(path); ok && entry.ModTime.Equal(info.ModTime()) {
		return entry.Value, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset %s/%s: %w", kind, name, err)
	}
	defer f.Close()

	value, err := parse(f)
	if err != nil {
		l.store.Del(path)
		return nil, fmt.Errorf("asset %s/%s: %w", kind, name, err)
	}

	l.store.Set(path, Entry{Value: value, ModTime: info.ModTime()})
	if l.logger != nil {
		l.logger.Infof("Loaded asset %s/%s%s", kind, name, ext)
	}
	return value, nil
}

// Palette loads a .pal asset.
func (l *Loader) Palette(name string) (*gfx.Palette, error) {
	value, err := l.load("palettes", name, ".pal", func(f *os.File) (interface{}, error) {
		return gfx.ParsePalette(f)
	})
	if err != nil {
		return nil, err
	}
	return value.(*gfx.Palette), nil
}

// Sprite loads a .spr asset.
func (l *Loader) Sprite(name string) (*gfx.Sprite, error) {
	value, err := l.load("sprites", name, ".spr", func(f *os.File) (interface{}, error) {
		return gfx.ParseSprite(f)
	})
	if err != nil {
		return nil, err
	}
	return value.(*gfx.Sprite), nil
}

// Font loads a .fnt asset.
func (l *Loader) Font(name string) (*gfx.Font, error) {
	value, err := l.load("fonts", name, ".fnt", func(f *os.File) (interface{}, error) {
		return gfx.ParseFont(f)
	})
	if err != nil {
		return nil, err
	}
	return value.(*gfx.Font), nil
}
