package script

import (
	"time"

	"github.com/Shopify/go-lua"

	"github.com/farolengine/farol/internal/assets"
	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/input"
	"github.com/farolengine/farol/internal/platform/logger"
)

// Director lets scripts request state transitions. Requests are queued and
// applied by the engine between ticks, never mid-callback.
type Director interface {
	RequestTransition(name string)
}

// Bindings is the farol.* API surface scripts draw and read input through.
type Bindings struct {
	Screen   *gfx.Screen
	Pad      *input.Pad
	Assets   *assets.Loader
	Font     *gfx.Font
	Director Director
	Logger   *logger.Logger
	Clock    func() float64 // seconds since session start
}

// NewBindings wires the binding surface. A nil clock falls back to wall
// time since construction.
func NewBindings(screen *gfx.Screen, pad *input.Pad, loader *assets.Loader, font *gfx.Font, director Director, log *logger.Logger, clock func() float64) *Bindings {
	if clock == nil {
		start := time.Now()
		clock = func() float64 { return time.Since(start).Seconds() }
	}
	return &Bindings{
		Screen:   screen,
		Pad:      pad,
		Assets:   loader,
		Font:     font,
		Director: director,
		Logger:   log,
		Clock:    clock,
	}
}

// register installs the farol global table.
func (b *Bindings) register(state *lua.State) {
	funcs := []lua.RegistryFunction{
		{Name: "cls", Function: b.cls},
		{Name: "pixel", Function: b.pixel},
		{Name: "rect", Function: b.rect},
		{Name: "sprite", Function: b.sprite},
		{Name: "print", Function: b.print},
		{Name: "print_center", Function: b.printCenter},
		{Name: "font", Function: b.font},
		{Name: "palette", Function: b.palette},
		{Name: "pal_swap", Function: b.palSwap},
		{Name: "pal_cycle", Function: b.palCycle},
		{Name: "dissolve", Function: b.dissolve},
		{Name: "scanlines", Function: b.scanlines},
		{Name: "btn", Function: b.btn},
		{Name: "btnp", Function: b.btnp},
		{Name: "state", Function: b.transition},
		{Name: "time", Function: b.clock},
		{Name: "log", Function: b.log},
	}
	state.NewTable()
	lua.SetFunctions(state, funcs, 0)
	state.SetGlobal("farol")
}

// farol.cls(color) clears the screen to a palette color.
func (b *Bindings) cls(state *lua.State) int {
	index := lua.OptInteger(state, 1, 0)
	b.Screen.Clear(uint8(index))
	return 0
}

// farol.pixel(x, y, color) plots one pixel.
func (b *Bindings) pixel(state *lua.State) int {
	x := lua.CheckInteger(state, 1)
	y := lua.CheckInteger(state, 2)
	index := lua.CheckInteger(state, 3)
	b.Screen.SetPixel(x, y, uint8(index))
	return 0
}

// farol.rect(x, y, w, h, color) fills a rectangle.
func (b *Bindings) rect(state *lua.State) int {
	x := lua.CheckInteger(state, 1)
	y := lua.CheckInteger(state, 2)
	w := lua.CheckInteger(state, 3)
	h := lua.CheckInteger(state, 4)
	index := lua.CheckInteger(state, 5)
	b.Screen.FillRect(x, y, w, h, uint8(index))
	return 0
}

// farol.sprite(name, x, y) blits a sprite asset.
func (b *Bindings) sprite(state *lua.State) int {
	name := lua.CheckString(state, 1)
	x := lua.CheckInteger(state, 2)
	y := lua.CheckInteger(state, 3)
	sp, err := b.Assets.Sprite(name)
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
		return 0
	}
	b.Screen.Blit(sp, x, y)
	return 0
}

// farol.print(text, x, y, color) draws text with the active bitmap font.
func (b *Bindings) print(state *lua.State) int {
	text := lua.CheckString(state, 1)
	x := lua.CheckInteger(state, 2)
	y := lua.CheckInteger(state, 3)
	index := lua.OptInteger(state, 4, 7)
	if b.Font == nil {
		lua.Errorf(state, "no font loaded, call farol.font first")
		return 0
	}
	b.Screen.DrawText(b.Font, text, x, y, uint8(index))
	return 0
}

// farol.print_center(text, cx, y, color) draws text centered on cx.
func (b *Bindings) printCenter(state *lua.State) int {
	text := lua.CheckString(state, 1)
	cx := lua.CheckInteger(state, 2)
	y := lua.CheckInteger(state, 3)
	index := lua.OptInteger(state, 4, 7)
	if b.Font == nil {
		lua.Errorf(state, "no font loaded, call farol.font first")
		return 0
	}
	b.Screen.DrawTextCenter(b.Font, text, cx, y, uint8(index))
	return 0
}

// farol.font(name) switches the active bitmap font.
func (b *Bindings) font(state *lua.State) int {
	name := lua.CheckString(state, 1)
	f, err := b.Assets.Font(name)
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
		return 0
	}
	b.Font = f
	return 0
}

// farol.palette(name) switches the active palette.
func (b *Bindings) palette(state *lua.State) int {
	name := lua.CheckString(state, 1)
	p, err := b.Assets.Palette(name)
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
		return 0
	}
	b.Screen.SetPalette(p)
	return 0
}

// farol.pal_swap(i, j) exchanges two slots of the active palette.
func (b *Bindings) palSwap(state *lua.State) int {
	i := lua.CheckInteger(state, 1)
	j := lua.CheckInteger(state, 2)
	b.Screen.Palette().Swap(uint8(i), uint8(j))
	return 0
}

// farol.pal_cycle(lo, hi) rotates a slot range of the active palette.
func (b *Bindings) palCycle(state *lua.State) int {
	lo := lua.CheckInteger(state, 1)
	hi := lua.CheckInteger(state, 2)
	b.Screen.Palette().Cycle(uint8(lo), uint8(hi))
	return 0
}

// farol.dissolve(progress, seed, color) applies the dissolve effect.
func (b *Bindings) dissolve(state *lua.State) int {
	progress := lua.CheckNumber(state, 1)
	seed := lua.OptInteger(state, 2, 0)
	index := lua.OptInteger(state, 3, 0)
	b.Screen.Dissolve(progress, uint32(seed), uint8(index))
	return 0
}

// farol.scanlines(level) darkens odd rows for the CRT look.
func (b *Bindings) scanlines(state *lua.State) int {
	level := lua.OptInteger(state, 1, 160)
	b.Screen.Scanlines(uint8(level))
	return 0
}

// farol.btn(id) reports whether a pad button is held.
func (b *Bindings) btn(state *lua.State) int {
	id := lua.CheckInteger(state, 1)
	state.PushBoolean(b.Pad.Held(input.Button(id)))
	return 1
}

// farol.btnp(id) reports whether a pad button was pressed this tick.
func (b *Bindings) btnp(state *lua.State) int {
	id := lua.CheckInteger(state, 1)
	state.PushBoolean(b.Pad.Pressed(input.Button(id)))
	return 1
}

// farol.state(name) queues a state transition.
func (b *Bindings) transition(state *lua.State) int {
	name := lua.CheckString(state, 1)
	b.Director.RequestTransition(name)
	return 0
}

// farol.time() returns seconds since the session started.
func (b *Bindings) clock(state *lua.State) int {
	state.PushNumber(b.Clock())
	return 1
}

// farol.log(msg) writes to the engine log.
func (b *Bindings) log(state *lua.State) int {
	msg := lua.CheckString(state, 1)
	if b.Logger != nil {
		b.Logger.Infof("[LUA] %s", msg)
	}
	return 0
}
