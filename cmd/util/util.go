package util

import (
	"fmt"
	"github.com/ValentinKolb/vKV/lib/common"
	"github.com/ValentinKolb/vKV/lib/db"
	"github.com/ValentinKolb/vKV/lib/db/engines/maple"
	"github.com/ValentinKolb/vKV/lib/rules"
	"github.com/ValentinKolb/vKV/lib/rules/luavm"
	"github.com/ValentinKolb/vKV/lib/rules/native"
	"github.com/ValentinKolb/vKV/lib/store"
	"github.com/ValentinKolb/vKV/lib/store/lstore"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"strings"
)

var Logger = logger.GetLogger("cmd")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetupRulesFlags adds the flags selecting the rule engine to a command
func SetupRulesFlags(cmd *cobra.Command) {
	key := "rules-engine"
	cmd.PersistentFlags().String(key, string(common.RulesEngineLua), WrapString("The engine that validates and formats values (lua, native)"))

	key = "rules-file"
	cmd.PersistentFlags().String(key, "", WrapString("Path to the rule definition: a lua script defining dispatch(action, key, value) for the lua engine or a yaml rule table for the native engine. The built-in rules are used if empty"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be written to stderr (debug, info, warn, error)"))

	key = "config"
	cmd.PersistentFlags().String(key, "", WrapString("Optional config file (yaml, json or toml) holding any of the flags"))
}

// InitConfig initializes configuration from env files, environment variables and the optional config file
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("vkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper and reads the config file if one is given
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return nil
}

// GetShellConfig reads the shell configuration from viper and validates it
func GetShellConfig() (*common.ShellConfig, error) {
	engine, err := common.ParseRulesEngine(viper.GetString("rules-engine"))
	if err != nil {
		return nil, err
	}

	conf := &common.ShellConfig{
		RulesEngine:     engine,
		RulesFile:       viper.GetString("rules-file"),
		Watch:           viper.GetBool("watch"),
		InitialCapacity: viper.GetInt("initial-capacity"),
		LogLevel:        viper.GetString("log-level"),
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// --------------------------------------------------------------------------
// Factories
// --------------------------------------------------------------------------

// NewDispatcher loads the rules of the configured engine.
// An error means the rules could not be loaded and the command must not continue.
func NewDispatcher(conf *common.ShellConfig) (rules.Dispatcher, error) {
	switch conf.RulesEngine {
	case common.RulesEngineLua:
		vm, err := luavm.New(conf.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load lua rules: %w", err)
		}
		return vm, nil
	case common.RulesEngineNative:
		d, err := native.New(conf.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load native rules: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("invalid rules engine %s", conf.RulesEngine)
	}
}

// CloseDispatcher releases the resources of d, if it holds any.
// An instrumented dispatcher closes the dispatcher it wraps.
func CloseDispatcher(d rules.Dispatcher) {
	if i, ok := d.(*rules.Instrumented); ok {
		d = i.Unwrap()
	}
	if c, ok := d.(io.Closer); ok {
		if err := c.Close(); err != nil {
			Logger.Warningf("failed to close rule engine: %v", err)
		}
	}
}

// NewStore creates a local store on a maple db that routes every operation through d
func NewStore(conf *common.ShellConfig, d rules.Dispatcher) store.IStore {
	factory := func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{InitialCapacity: conf.InitialCapacity})
	}
	return lstore.NewLocalStore(factory, d)
}
