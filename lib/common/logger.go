package common

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LoggerNames lists the package loggers of vKV. InitLoggers sets the level of all of them.
var LoggerNames = []string{"rules", "luavm", "store", "repl", "cmd"}

// output is where all loggers write to. stdout is reserved for the shell.
var output io.Writer = os.Stderr

// --------------------------------------------------------------------------
// Logger
// --------------------------------------------------------------------------

// levelNames are the labels written in front of every line
var levelNames = map[logger.LogLevel]string{
	logger.CRITICAL: "PANIC",
	logger.ERROR:    "ERROR",
	logger.WARNING:  "WARN",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DEBUG",
}

// vKVLogger is the logger.ILogger installed for every package.
// The level can be changed while other goroutines (e.g. the rule watcher) log.
type vKVLogger struct {
	name  string
	level atomic.Int32
	out   *log.Logger
}

func newLogger(name string, w io.Writer) *vKVLogger {
	l := &vKVLogger{name: name, out: log.New(w, "", log.Ldate|log.Ltime)}
	l.SetLevel(logger.WARNING)
	return l
}

func (l *vKVLogger) SetLevel(level logger.LogLevel) { l.level.Store(int32(level)) }

func (l *vKVLogger) Debugf(format string, args ...interface{}) { l.logf(logger.DEBUG, format, args) }

func (l *vKVLogger) Infof(format string, args ...interface{}) { l.logf(logger.INFO, format, args) }

func (l *vKVLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, format, args)
}

func (l *vKVLogger) Errorf(format string, args ...interface{}) { l.logf(logger.ERROR, format, args) }

// Panicf always logs and panics, regardless of the level.
func (l *vKVLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.write(logger.CRITICAL, msg)
	panic(msg)
}

// logf writes the message if level is enabled
func (l *vKVLogger) logf(level logger.LogLevel, format string, args []interface{}) {
	if logger.LogLevel(l.level.Load()) < level {
		return
	}
	l.write(level, fmt.Sprintf(format, args...))
}

func (l *vKVLogger) write(level logger.LogLevel, msg string) {
	l.out.Printf("%-5s | %-15s | %s", levelNames[level], l.name, msg)
}

// CreateLogger is the logger.Factory for vKV. New loggers write to stderr at level warn.
func CreateLogger(pkgName string) logger.ILogger {
	return newLogger(pkgName, output)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the custom logger factory and sets the level of all vKV loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	// Set as the global logger factory
	logger.SetLoggerFactory(CreateLogger)

	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
