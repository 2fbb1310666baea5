// Package scripting runs user-supplied Lua mortality rules.
package scripting

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	lua "github.com/yuin/gopher-lua"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/grid"
)

// RuleFunc is the global a script must define:
//
//	function death_rule(cell, patch, tick) return cell.age > 5 and patch.toxicity > 0.5 end
const RuleFunc = "death_rule"

// Rule wraps a single gopher-lua VM holding a death_rule function.
// Single-goroutine access only (tick loop).
type Rule struct {
	vm  *lua.LState
	fn  lua.LValue
	rng *rand.Rand
	log *slog.Logger
	err error
}

// LoadRule loads a rule script from a file.
func LoadRule(path string, rng *rand.Rand, log *slog.Logger) (*Rule, error) {
	return newRule(func(vm *lua.LState) error { return vm.DoFile(path) }, rng, log)
}

// NewRule loads a rule from Lua source.
func NewRule(src string, rng *rand.Rand, log *slog.Logger) (*Rule, error) {
	return newRule(func(vm *lua.LState) error { return vm.DoString(src) }, rng, log)
}

func newRule(load func(*lua.LState) error, rng *rand.Rand, log *slog.Logger) (*Rule, error) {
	if log == nil {
		log = slog.Default()
	}
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	r := &Rule{vm: vm, rng: rng, log: log}

	// rand() and math.random draw from the simulation RNG so scripted runs
	// stay reproducible. math.randomseed is a no-op; the run seed rules.
	vm.SetGlobal("rand", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(r.rng.Float64()))
		return 1
	}))
	if mathLib, ok := vm.GetGlobal(lua.MathLibName).(*lua.LTable); ok {
		mathLib.RawSetString("random", vm.NewFunction(r.luaRandom))
		mathLib.RawSetString("randomseed", vm.NewFunction(func(*lua.LState) int { return 0 }))
	}

	if err := load(vm); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load rule script: %w", err)
	}
	r.fn = vm.GetGlobal(RuleFunc)
	if r.fn.Type() != lua.LTFunction {
		vm.Close()
		return nil, errors.New("rule script does not define function " + RuleFunc)
	}
	return r, nil
}

// luaRandom follows Lua's math.random: no arguments gives [0,1), random(m)
// gives an integer in [1,m] and random(m, n) one in [m,n].
func (r *Rule) luaRandom(L *lua.LState) int {
	lo, hi := 1, 0
	switch L.GetTop() {
	case 0:
		L.Push(lua.LNumber(r.rng.Float64()))
		return 1
	case 1:
		hi = L.CheckInt(1)
	default:
		lo, hi = L.CheckInt(1), L.CheckInt(2)
	}
	if hi < lo {
		L.ArgError(L.GetTop(), "interval is empty")
		return 0
	}
	L.Push(lua.LNumber(lo + r.rng.Intn(hi-lo+1)))
	return 1
}

// Dies calls death_rule. A script error is logged once and the rule then
// lets every cell live.
func (r *Rule) Dies(cell components.Cell, patch grid.Patch, tick int) bool {
	if r.err != nil {
		return false
	}

	c := r.vm.NewTable()
	c.RawSetString("id", lua.LNumber(cell.ID))
	c.RawSetString("parent", lua.LNumber(cell.ParentID))
	c.RawSetString("generation", lua.LNumber(cell.Generation))
	c.RawSetString("age", lua.LNumber(cell.Age))
	c.RawSetString("resistance", lua.LNumber(cell.Resistance))
	c.RawSetString("divisions", lua.LNumber(cell.Divisions))
	c.RawSetString("cooldown", lua.LNumber(cell.Cooldown))
	c.RawSetString("birth_tick", lua.LNumber(cell.BirthTick))

	p := r.vm.NewTable()
	p.RawSetString("row", lua.LNumber(patch.Pos.Row))
	p.RawSetString("col", lua.LNumber(patch.Pos.Col))
	p.RawSetString("toxicity", lua.LNumber(patch.Toxicity))

	if err := r.vm.CallByParam(lua.P{
		Fn:      r.fn,
		NRet:    1,
		Protect: true,
	}, c, p, lua.LNumber(tick)); err != nil {
		r.err = err
		r.log.Error("lua death_rule error, rule disabled", "tick", tick, "cell", cell.ID, "error", err)
		return false
	}

	result := r.vm.Get(-1)
	r.vm.Pop(1)
	return lua.LVAsBool(result)
}

// Err returns the script error that disabled the rule, if any.
func (r *Rule) Err() error { return r.err }

// Close shuts down the Lua VM.
func (r *Rule) Close() {
	r.vm.Close()
}
