package luavm

import (
	_ "embed"
	"fmt"
	"github.com/ValentinKolb/vKV/lib/rules"
	"github.com/lni/dragonboat/v4/logger"
	lua "github.com/yuin/gopher-lua"
	"os"
	"strings"
	"sync"
)

var Logger = logger.GetLogger("luavm")

const (
	// DispatchFunc is the global function every rule script has to define.
	DispatchFunc = "dispatch"

	defaultChunkName = "extensions.lua"
)

//go:embed extensions.lua
var defaultScript string

// VM is a rules.Dispatcher backed by a Lua script.
//
// Thread-safety: a lua.LState must not be used concurrently, all calls into the
// script are serialized. Reload swaps the state under the same lock.
type VM struct {
	mu    sync.Mutex
	state *lua.LState
	path  string
}

// Compile-time check
var (
	_ rules.Dispatcher = (*VM)(nil)
	_ rules.Reloader   = (*VM)(nil)
)

// New loads the script at path, or the built-in script if path is empty.
// An error means the rules are unusable and the caller must not start.
func New(path string) (*VM, error) {
	name, src := defaultChunkName, defaultScript
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read lua script: %w", err)
		}
		name, src = path, string(data)
	}

	state, err := loadState(name, src)
	if err != nil {
		return nil, err
	}
	Logger.Debugf("loaded lua rules from %s", name)
	return &VM{state: state, path: path}, nil
}

// NewFromSource loads a script from memory. Reload is a no-op for the returned VM.
func NewFromSource(name, src string) (*VM, error) {
	state, err := loadState(name, src)
	if err != nil {
		return nil, err
	}
	return &VM{state: state}, nil
}

// fileLoaders are the base library globals that read from disk
var fileLoaders = []string{"dofile", "loadfile", "require", "module"}

// loadState creates a sandboxed state (no io, os, package or debug libraries and
// no file loaders), runs the script and checks that it defines the dispatch function.
func loadState(name, src string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open lua library %s: %w", lib.name, err)
		}
	}
	for _, global := range fileLoaders {
		L.SetGlobal(global, lua.LNil)
	}

	fn, err := L.Load(strings.NewReader(src), name)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to compile %s: %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}

	if L.GetGlobal(DispatchFunc).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%s does not define a global function %q", name, DispatchFunc)
	}
	return L, nil
}

// Dispatch calls dispatch(action, key, value) in the script.
// A runtime error in the script or a malformed return value is returned as error,
// a rejection by the script is returned as a failed rules.Outcome.
func (vm *VM) Dispatch(action rules.Action, key, value string) (rules.Outcome, error) {
	if !action.Valid() {
		return rules.UnknownAction(action), nil
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.state == nil {
		return rules.Outcome{}, fmt.Errorf("lua vm is closed")
	}

	L := vm.state
	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(DispatchFunc),
		NRet:    1,
		Protect: true,
	}, lua.LString(action.String()), lua.LString(key), lua.LString(value)); err != nil {
		return rules.Outcome{}, fmt.Errorf("lua dispatch failed: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	return toOutcome(ret)
}

// toOutcome converts the table returned by the script.
func toOutcome(ret lua.LValue) (rules.Outcome, error) {
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return rules.Outcome{}, fmt.Errorf("lua dispatch returned %s, expected a table", ret.Type())
	}

	result, hasResult, err := optionalString(tbl, "result")
	if err != nil {
		return rules.Outcome{}, err
	}
	msg, _, err := optionalString(tbl, "error")
	if err != nil {
		return rules.Outcome{}, err
	}

	switch {
	case !lua.LVAsBool(tbl.RawGetString("success")):
		return rules.Reject(msg), nil
	case hasResult:
		return rules.Format(result), nil
	default:
		return rules.Accept(), nil
	}
}

func optionalString(tbl *lua.LTable, field string) (string, bool, error) {
	v := tbl.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return "", false, nil
	case lua.LTString, lua.LTNumber:
		return lua.LVAsString(v), true, nil
	default:
		return "", false, fmt.Errorf("lua dispatch returned %s for field %q, expected a string", v.Type(), field)
	}
}

// Reload re-reads the script from the path given to New and swaps the state.
// If the new script fails to load the current state stays active.
func (vm *VM) Reload() error {
	if vm.path == "" {
		return nil
	}
	data, err := os.ReadFile(vm.path)
	if err != nil {
		return fmt.Errorf("failed to read lua script: %w", err)
	}
	state, err := loadState(vm.path, string(data))
	if err != nil {
		return err
	}

	vm.mu.Lock()
	old := vm.state
	vm.state = state
	vm.mu.Unlock()

	if old != nil {
		old.Close()
	}
	Logger.Debugf("lua rules reloaded from %s", vm.path)
	return nil
}

// Close releases the lua state. Dispatch fails after Close.
func (vm *VM) Close() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.state != nil {
		vm.state.Close()
		vm.state = nil
	}
	return nil
}
