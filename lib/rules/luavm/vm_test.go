package luavm

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/vKV/lib/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefault(t *testing.T) *VM {
	t.Helper()
	vm, err := New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = vm.Close() })
	return vm
}

func TestBuiltinScript(t *testing.T) {
	vm := newDefault(t)

	tests := []struct {
		name   string
		action rules.Action
		key    string
		value  string
		ok     bool
		result string
	}{
		{"add valid cpf", rules.ActionAdd, "cpf_zezinho", "12345678909", true, ""},
		{"add punctuated cpf", rules.ActionAdd, "cpf_zezinho", "123.456.789-09", true, ""},
		{"add invalid cpf", rules.ActionAdd, "cpf_bad", "12345678900", false, ""},
		{"add repeated cpf", rules.ActionAdd, "cpf_bad", "00000000000", false, ""},
		{"add short cpf", rules.ActionAdd, "cpf_bad", "123", false, ""},
		{"get cpf", rules.ActionGet, "cpf_zezinho", "12345678909", true, "123.456.789-09"},
		{"add valid date", rules.ActionAdd, "data_joao", "2000-01-23", true, ""},
		{"add leap day", rules.ActionAdd, "data_leap", "2000-02-29", true, ""},
		{"add impossible date", rules.ActionAdd, "data_bad", "2000-02-30", false, ""},
		{"add no leap day", rules.ActionAdd, "data_bad", "1900-02-29", false, ""},
		{"add malformed date", rules.ActionAdd, "data_bad", "23/01/2000", false, ""},
		{"get date", rules.ActionGet, "data_joao", "2000-01-23", true, "23/01/2000"},
		{"add pass-through", rules.ActionAdd, "name_foo", "hello", true, ""},
		{"get pass-through", rules.ActionGet, "name_foo", "hello", true, "hello"},
		{"add empty value", rules.ActionAdd, "name_foo", "", false, ""},
		{"unknown action", rules.Action(0), "name_foo", "hello", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := vm.Dispatch(tt.action, tt.key, tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.ok, o.OK(), o.String())
			if !tt.ok {
				assert.NotEmpty(t, o.Err())
				return
			}
			if tt.result != "" {
				r, ok := o.Result()
				assert.True(t, ok)
				assert.Equal(t, tt.result, r)
			}
		})
	}
}

func TestSandbox(t *testing.T) {
	vm, err := NewFromSource("sandbox.lua", `
function dispatch(action, key, value)
  if os ~= nil or io ~= nil or package ~= nil then
    return { success = false, error = "os, io or package is reachable" }
  end
  if dofile ~= nil or loadfile ~= nil or require ~= nil then
    return { success = false, error = "a file loader is reachable" }
  end
  return { success = true, result = string.upper(value) }
end
`)
	require.NoError(t, err)
	defer vm.Close()

	o, err := vm.Dispatch(rules.ActionGet, "k", "abc")
	require.NoError(t, err)
	require.True(t, o.OK(), o.Err())
	assert.Equal(t, "ABC", o.ResultOr(""))
}

func TestSandboxBlocksFileAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.lua")
	require.NoError(t, os.WriteFile(path, []byte("return 'secret'"), 0o644))

	_, err := NewFromSource("loader.lua", fmt.Sprintf(`
local f = loadfile(%q)
function dispatch(action, key, value)
  return { success = true, result = f() }
end
`, path))
	assert.Error(t, err)
}

func TestLoadFailures(t *testing.T) {
	scripts := map[string]string{
		"syntax error":   "function dispatch(",
		"runtime error":  "error('boom')",
		"no dispatch":    "local x = 1",
		"not a function": "dispatch = 42",
	}
	for name, src := range scripts {
		t.Run(name, func(t *testing.T) {
			_, err := NewFromSource(name+".lua", src)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing.lua"))
		assert.Error(t, err)
	})
}

func TestEngineFailures(t *testing.T) {
	scripts := map[string]string{
		"runtime error":   "function dispatch(a, k, v) error('boom') end",
		"no table":        "function dispatch(a, k, v) return 'yes' end",
		"nothing":         "function dispatch(a, k, v) end",
		"table as result": "function dispatch(a, k, v) return { success = true, result = {} } end",
	}
	for name, src := range scripts {
		t.Run(name, func(t *testing.T) {
			vm, err := NewFromSource(name+".lua", src)
			require.NoError(t, err)
			defer vm.Close()

			_, err = vm.Dispatch(rules.ActionAdd, "k", "v")
			assert.Error(t, err)
		})
	}
}

func TestOutcomeConversion(t *testing.T) {
	vm, err := NewFromSource("conv.lua", `
function dispatch(action, key, value)
  if key == "num" then return { success = true, result = 42 } end
  if key == "silent" then return { success = false } end
  if key == "accept" then return { success = true } end
  return { success = false, error = action .. ":" .. key .. ":" .. value }
end
`)
	require.NoError(t, err)
	defer vm.Close()

	o, err := vm.Dispatch(rules.ActionGet, "num", "x")
	require.NoError(t, err)
	assert.Equal(t, "42", o.ResultOr(""))

	o, err = vm.Dispatch(rules.ActionAdd, "silent", "x")
	require.NoError(t, err)
	assert.False(t, o.OK())
	assert.NotEmpty(t, o.Err())

	o, err = vm.Dispatch(rules.ActionGet, "accept", "x")
	require.NoError(t, err)
	_, has := o.Result()
	assert.True(t, o.OK())
	assert.False(t, has)

	o, err = vm.Dispatch(rules.ActionAdd, "echo", "x")
	require.NoError(t, err)
	assert.Equal(t, "ADD:echo:x", o.Err())
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.lua")
	write := func(src string) {
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	write(`function dispatch(a, k, v) return { success = true, result = "v1" } end`)

	vm, err := New(path)
	require.NoError(t, err)
	defer vm.Close()

	o, _ := vm.Dispatch(rules.ActionGet, "k", "x")
	assert.Equal(t, "v1", o.ResultOr(""))

	write(`function dispatch(`)
	assert.Error(t, vm.Reload())
	o, _ = vm.Dispatch(rules.ActionGet, "k", "x")
	assert.Equal(t, "v1", o.ResultOr(""), "broken script must not replace the loaded one")

	write(`function dispatch(a, k, v) return { success = true, result = "v2" } end`)
	require.NoError(t, vm.Reload())
	o, _ = vm.Dispatch(rules.ActionGet, "k", "x")
	assert.Equal(t, "v2", o.ResultOr(""))
}

func TestClose(t *testing.T) {
	vm, err := New("")
	require.NoError(t, err)
	require.NoError(t, vm.Close())
	require.NoError(t, vm.Close())

	_, err = vm.Dispatch(rules.ActionGet, "k", "v")
	assert.Error(t, err)
}
