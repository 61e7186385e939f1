package repl

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/vKV/lib/db"
	"github.com/ValentinKolb/vKV/lib/db/engines/maple"
	"github.com/ValentinKolb/vKV/lib/rules"
	"github.com/ValentinKolb/vKV/lib/rules/luavm"
	"github.com/ValentinKolb/vKV/lib/rules/native"
	"github.com/ValentinKolb/vKV/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, d rules.Dispatcher) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) }, d)
	return NewSession(s, d, &out, nil), &out
}

func nativeDispatcher(t *testing.T) rules.Dispatcher {
	t.Helper()
	d, err := native.New("")
	require.NoError(t, err)
	return d
}

// acceptAll accepts every value and has no rule definition to reload
type acceptAll struct{}

func (acceptAll) Dispatch(rules.Action, string, string) (rules.Outcome, error) {
	return rules.Accept(), nil
}

// run feeds input to a fresh session and returns everything it printed
func run(t *testing.T, d rules.Dispatcher, input string) string {
	t.Helper()
	s, out := newSession(t, d)
	require.NoError(t, s.Run(context.Background(), strings.NewReader(input)))
	return out.String()
}

// --------------------------------------------------------------------------
// Parsing
// --------------------------------------------------------------------------

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
		ok   bool
	}{
		{"", Command{}, false},
		{"   \t ", Command{}, false},
		{"LIST", Command{Name: CmdList, Raw: "LIST"}, true},
		{"get cpf_a", Command{Name: CmdGet, Raw: "get", Key: "cpf_a"}, true},
		{"Add name hello world", Command{Name: CmdAdd, Raw: "Add", Key: "name", Value: "hello world"}, true},
		{"  ADD   k   v  ", Command{Name: CmdAdd, Raw: "ADD", Key: "k", Value: "v"}, true},
		{"quit", Command{Name: CmdExit, Raw: "quit"}, true},
		{"ADD\tk\tv", Command{Name: CmdAdd, Raw: "ADD", Key: "k", Value: "v"}, true},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

// --------------------------------------------------------------------------
// Sessions
// --------------------------------------------------------------------------

func TestSessionScenarios(t *testing.T) {
	vm, err := luavm.New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = vm.Close() })

	input := strings.Join([]string{
		"ADD cpf_zezinho 12345678909",
		"GET cpf_zezinho",
		"ADD cpf_bad 12345678900",
		"add data_joao 2000-01-23",
		"get data_joao",
		"ADD data_bad 2000-02-30",
		"ADD name_foo hello",
		"GET name_foo",
		"GET no_such_key",
		"LIST",
	}, "\n")

	for name, d := range map[string]rules.Dispatcher{"native": nativeDispatcher(t), "lua": vm} {
		t.Run(name, func(t *testing.T) {
			lines := strings.Split(strings.TrimSpace(run(t, d, input)), "\n")
			require.Len(t, lines, 12)

			assert.Equal(t, "OK", lines[0])
			assert.Equal(t, "123.456.789-09", lines[1])
			assert.True(t, strings.HasPrefix(lines[2], "ERROR: invalid input: "), lines[2])
			assert.Equal(t, "OK", lines[3])
			assert.Equal(t, "23/01/2000", lines[4])
			assert.True(t, strings.HasPrefix(lines[5], "ERROR: invalid input: "), lines[5])
			assert.Equal(t, "OK", lines[6])
			assert.Equal(t, "hello", lines[7])
			assert.Equal(t, "NOTFOUND", lines[8])
			assert.Equal(t, []string{"cpf_zezinho", "data_joao", "name_foo"}, lines[9:])
		})
	}
}

func TestSessionUsageErrors(t *testing.T) {
	out := run(t, nativeDispatcher(t), "ADD\nADD only_key\nGET\nFOO bar\n")
	assert.Equal(t,
		"ERROR: usage: ADD <key> <value>\n"+
			"ERROR: usage: ADD <key> <value>\n"+
			"ERROR: usage: GET <key>\n"+
			"ERROR: unknown command FOO, type HELP for a list of commands\n",
		out)
}

func TestSessionValueWithSpaces(t *testing.T) {
	out := run(t, nativeDispatcher(t), "ADD greeting hello   big world\nGET greeting\n")
	assert.Equal(t, "OK\nhello   big world\n", out)
}

func TestSessionExitStopsReading(t *testing.T) {
	out := run(t, nativeDispatcher(t), "ADD a 1\nexit\nADD b 2\n")
	assert.Equal(t, "OK\n", out)
}

func TestSessionExitReleasesReader(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		out := run(t, acceptAll{}, "EXIT\nLIST\nLIST\n")
		assert.Empty(t, out)
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, 2*time.Second, 10*time.Millisecond, "reader goroutines still running after EXIT")
}

func TestSessionHelpAndBlankLines(t *testing.T) {
	out := run(t, nativeDispatcher(t), "\n\nhelp\n")
	assert.Equal(t, helpText+"\n", out)
}

func TestSessionBannerAndPrompt(t *testing.T) {
	var out bytes.Buffer
	s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) }, nativeDispatcher(t))
	session := NewSession(s, nil, &out, &Options{Banner: true, Prompt: "> "})

	require.NoError(t, session.Run(context.Background(), strings.NewReader("LIST\n")))
	assert.True(t, strings.HasPrefix(out.String(), "vKV shell."))
	assert.Equal(t, 2, strings.Count(out.String(), "> "))
}

func TestSessionStats(t *testing.T) {
	d := rules.NewInstrumented(nativeDispatcher(t))
	out := run(t, d, "ADD name_a hello\nADD cpf_b 1\nSTATS\n")

	assert.Contains(t, out, "db_type maple\n")
	assert.Contains(t, out, "db_keys 1\n")
	assert.Contains(t, out, `vkv_dispatch_total{action="ADD",outcome="accepted"} 1`)
	assert.Contains(t, out, `vkv_dispatch_total{action="ADD",outcome="rejected"} 1`)
}

func TestSessionReload(t *testing.T) {
	t.Run("builtin rules", func(t *testing.T) {
		out := run(t, rules.NewInstrumented(nativeDispatcher(t)), "RELOAD\n")
		assert.Equal(t, "OK\n", out)
	})

	t.Run("not reloadable", func(t *testing.T) {
		out := run(t, rules.NewInstrumented(acceptAll{}), "RELOAD\n")
		assert.Equal(t, "ERROR: "+rules.ErrNotReloadable.Error()+"\n", out)
	})

	t.Run("no dispatcher", func(t *testing.T) {
		var out bytes.Buffer
		s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) }, nativeDispatcher(t))
		session := NewSession(s, nil, &out, nil)
		assert.False(t, session.Exec("RELOAD"))
		assert.Equal(t, "ERROR: "+rules.ErrNotReloadable.Error()+"\n", out.String())
	})

	t.Run("rule file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - prefix: cpf_\n    rule: cpf\n"), 0o644))

		d, err := native.New(path)
		require.NoError(t, err)
		s, out := newSession(t, d)

		assert.False(t, s.Exec("ADD data_x not-a-date"))
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - prefix: data_\n    rule: date\n"), 0o644))
		assert.False(t, s.Exec("RELOAD"))
		assert.False(t, s.Exec("ADD data_y not-a-date"))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "OK", lines[0])
		assert.Equal(t, "OK", lines[1])
		assert.True(t, strings.HasPrefix(lines[2], "ERROR: invalid input: "), lines[2])
	})
}

func TestSessionContextCancel(t *testing.T) {
	s, _ := newSession(t, nativeDispatcher(t))

	// a reader that never returns simulates an idle terminal
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, pr) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after cancel")
	}
}
