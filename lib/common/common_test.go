package common

import (
	"bytes"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		" error ": logger.ERROR,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("rules", &buf)
	l.out.SetFlags(0)

	l.Infof("hidden at the default level")
	assert.Empty(t, buf.String())

	l.SetLevel(logger.INFO)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Infof("reloaded %s", "rules.lua")
	assert.Equal(t, "INFO  | rules           | reloaded rules.lua\n", buf.String())

	buf.Reset()
	l.SetLevel(logger.ERROR)
	l.Warningf("dropped")
	assert.Empty(t, buf.String())
	l.Errorf("kept")
	assert.Contains(t, buf.String(), "ERROR | rules")
}

func TestLoggerPanicf(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("store", &buf)
	l.out.SetFlags(0)
	l.SetLevel(logger.ERROR)

	assert.PanicsWithValue(t, "broken 7", func() { l.Panicf("broken %d", 7) })
	assert.Equal(t, "PANIC | store           | broken 7\n", buf.String())
}

func TestInitLoggersRejectsInvalidLevel(t *testing.T) {
	assert.Error(t, InitLoggers("verbose"))
}

func TestParseRulesEngine(t *testing.T) {
	e, err := ParseRulesEngine("Lua")
	require.NoError(t, err)
	assert.Equal(t, RulesEngineLua, e)

	e, err = ParseRulesEngine("native")
	require.NoError(t, err)
	assert.Equal(t, RulesEngineNative, e)

	_, err = ParseRulesEngine("python")
	assert.Error(t, err)
}

func TestShellConfigValidate(t *testing.T) {
	valid := ShellConfig{RulesEngine: RulesEngineLua, LogLevel: "info"}
	assert.NoError(t, valid.Validate())

	watchWithoutFile := valid
	watchWithoutFile.Watch = true
	assert.Error(t, watchWithoutFile.Validate())

	watchWithFile := watchWithoutFile
	watchWithFile.RulesFile = "rules.lua"
	assert.NoError(t, watchWithFile.Validate())

	badEngine := valid
	badEngine.RulesEngine = "python"
	assert.Error(t, badEngine.Validate())

	badLevel := valid
	badLevel.LogLevel = "loud"
	assert.Error(t, badLevel.Validate())
}

func TestShellConfigString(t *testing.T) {
	c := ShellConfig{RulesEngine: RulesEngineNative, LogLevel: "warn", InitialCapacity: 64}
	s := c.String()

	assert.Contains(t, s, "RULES\n")
	assert.Contains(t, s, "  Engine                : native\n")
	assert.Contains(t, s, "(embedded)")
	assert.Contains(t, s, "  Initial Capacity      : 64\n")
	assert.Contains(t, s, "LOGGING\n")
}
