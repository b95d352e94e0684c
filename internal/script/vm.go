// Package script embeds the Lua VM that drives scripted game states.
// Scripts define one table per state ("title", "game"...) whose fields are
// the lifecycle callbacks: enter(), update(dt), render(dt) and optionally
// exit(). The engine calls them through VM.Call.
package script

import (
	"fmt"
	"time"

	"github.com/Shopify/go-lua"

	"github.com/farolengine/farol/internal/platform/metrics"
)

// VM wraps one Lua state. The Lua state is not thread safe; every method
// must be called from the tick loop goroutine.
type VM struct {
	state *lua.State
	path  string
}

// NewVM creates a Lua state with the standard libraries open and, when
// bindings are given, the farol.* API registered.
func NewVM(b *Bindings) *VM {
	state := lua.NewState()
	lua.OpenLibraries(state)
	if b != nil {
		b.register(state)
	}
	return &VM{state: state}
}

// Run executes a script file. Top-level code runs immediately; state tables
// and their callbacks become available afterwards.
func (vm *VM) Run(path string) error {
	if err := lua.DoFile(vm.state, path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	vm.path = path
	return nil
}

// RunString executes an inline chunk. Tests and the diagnostics console
// use this; the server always goes through Run.
func (vm *VM) RunString(src string) error {
	if err := lua.DoString(vm.state, src); err != nil {
		return fmt.Errorf("script chunk: %w", err)
	}
	return nil
}

// Path returns the file the VM last ran, empty for inline-only VMs.
func (vm *VM) Path() string {
	return vm.path
}

// pushCallback leaves table.name on the stack, or pushes nothing and
// reports why it could not.
func (vm *VM) pushCallback(table, name string) error {
	vm.state.Global(table)
	if vm.state.TypeOf(-1) != lua.TypeTable {
		vm.state.Pop(1)
		return fmt.Errorf("script table %q not defined", table)
	}
	vm.state.Field(-1, name)
	if vm.state.TypeOf(-1) != lua.TypeFunction {
		vm.state.Pop(2)
		return fmt.Errorf("script callback %s.%s not defined", table, name)
	}
	vm.state.Remove(-2) // drop the table, keep the function
	return nil
}

// HasCallback reports whether table.name exists and is a function.
func (vm *VM) HasCallback(table, name string) bool {
	if err := vm.pushCallback(table, name); err != nil {
		return false
	}
	vm.state.Pop(1)
	return true
}

// Call invokes table.name with the given float arguments and no results.
func (vm *VM) Call(table, name string, args ...float64) error {
	start := time.Now()
	err := vm.call(table, name, args...)
	metrics.Get().RecordScriptCall(time.Since(start), err)
	return err
}

func (vm *VM) call(table, name string, args ...float64) error {
	if err := vm.pushCallback(table, name); err != nil {
		return err
	}
	for _, arg := range args {
		vm.state.PushNumber(arg)
	}
	if err := vm.state.ProtectedCall(len(args), 0, 0); err != nil {
		return fmt.Errorf("script %s.%s: %w", table, name, err)
	}
	return nil
}

// GlobalNumber reads table.field as a number. Diagnostics and tests peek at
// script state through this.
func (vm *VM) GlobalNumber(table, field string) (float64, error) {
	vm.state.Global(table)
	if vm.state.TypeOf(-1) != lua.TypeTable {
		vm.state.Pop(1)
		return 0, fmt.Errorf("script table %q not defined", table)
	}
	vm.state.Field(-1, field)
	n, ok := vm.state.ToNumber(-1)
	vm.state.Pop(2)
	if !ok {
		return 0, fmt.Errorf("script value %s.%s is not a number", table, field)
	}
	return n, nil
}
