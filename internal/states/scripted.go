package states

import (
	"github.com/farolengine/farol/internal/game"
	"github.com/farolengine/farol/internal/script"
)

// ScriptedState bridges a Lua state table into the game lifecycle. The
// table must define update(dt) and render(dt); enter() and exit() are
// optional and skipped when absent.
type ScriptedState struct {
	vm    *script.VM
	table string
}

var (
	_ game.State  = (*ScriptedState)(nil)
	_ game.Exiter = (*ScriptedState)(nil)
)

// NewScriptedState binds a state to the Lua table of the given name.
func NewScriptedState(vm *script.VM, table string) *ScriptedState {
	return &ScriptedState{vm: vm, table: table}
}

// Table returns the Lua table name this state is bound to.
func (s *ScriptedState) Table() string {
	return s.table
}

func (s *ScriptedState) Enter() error {
	if !s.vm.HasCallback(s.table, "enter") {
		return nil
	}
	return s.vm.Call(s.table, "enter")
}

func (s *ScriptedState) Update(delta float64) error {
	return s.vm.Call(s.table, "update", delta)
}

func (s *ScriptedState) Render(delta float64) error {
	return s.vm.Call(s.table, "render", delta)
}

func (s *ScriptedState) Exit() error {
	if !s.vm.HasCallback(s.table, "exit") {
		return nil
	}
	return s.vm.Call(s.table, "exit")
}
