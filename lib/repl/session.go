package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/vKV/lib/rules"
	"github.com/ValentinKolb/vKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"sort"
	"strings"
)

var Logger = logger.GetLogger("repl")

// maxLineSize is the longest input line the session accepts
const maxLineSize = 1024 * 1024

const helpText = `Available commands:
  ADD <key> <value>  - validate and store a value
  GET <key>          - read and format a value
  LIST               - list all keys
  STATS              - show store and rule statistics
  RELOAD             - reload the rule definition
  HELP               - show this help
  EXIT               - leave the shell`

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// Options configures the interactive parts of a Session
type Options struct {
	Banner bool   // print a greeting before the first command
	Prompt string // printed before every line is read ("" = no prompt)
}

// Session reads commands line by line, executes them against a store and writes
// one response per command.
type Session struct {
	store store.IStore
	rules rules.Dispatcher
	out   io.Writer
	opts  Options
}

// statsWriter is implemented by dispatchers that record metrics (see rules.Instrumented)
type statsWriter interface {
	WritePrometheus(w io.Writer)
}

// NewSession creates a session on s. dispatcher is the dispatcher s was created with,
// it is only used for RELOAD and STATS and may be nil.
func NewSession(s store.IStore, dispatcher rules.Dispatcher, out io.Writer, opts *Options) *Session {
	if opts == nil {
		opts = &Options{}
	}
	return &Session{
		store: s,
		rules: dispatcher,
		out:   out,
		opts:  *opts,
	}
}

// Run executes the commands read from in until EXIT, end of input or until ctx is cancelled.
// Only a read error of in is returned, failed commands are reported on the output.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	// stops the reader once the session ends with input left unread
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.opts.Banner {
		s.println("vKV shell. Type HELP for help.")
	}

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		s.prompt()

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if quit := s.Exec(line); quit {
				return nil
			}
		}
	}
}

// Exec executes a single command line and reports whether the session should end.
func (s *Session) Exec(line string) (quit bool) {
	cmd, ok := Parse(line)
	if !ok {
		return false
	}
	Logger.Debugf("exec %s key=%q", cmd.Name, cmd.Key)

	switch cmd.Name {
	case CmdAdd:
		if cmd.Key == "" || cmd.Value == "" {
			s.errorln("usage: ADD <key> <value>")
			return false
		}
		if err := s.store.Add(cmd.Key, cmd.Value); err != nil {
			s.errorln(err.Error())
			return false
		}
		s.println("OK")

	case CmdGet:
		if cmd.Key == "" {
			s.errorln("usage: GET <key>")
			return false
		}
		value, err := s.store.Get(cmd.Key)
		switch {
		case store.IsNotFound(err):
			s.println("NOTFOUND")
		case err != nil:
			s.errorln(err.Error())
		default:
			s.println(value)
		}

	case CmdList:
		keys := s.store.ListKeys()
		sort.Strings(keys)
		for _, k := range keys {
			s.println(k)
		}

	case CmdStats:
		s.stats()

	case CmdReload:
		s.reload()

	case CmdHelp:
		s.println(helpText)

	case CmdExit:
		return true

	default:
		s.errorln(fmt.Sprintf("unknown command %s, type HELP for a list of commands", cmd.Raw))
	}
	return false
}

// --------------------------------------------------------------------------
// Commands with optional collaborators
// --------------------------------------------------------------------------

func (s *Session) stats() {
	info, err := s.store.GetDBInfo()
	if err != nil {
		s.errorln(err.Error())
		return
	}
	s.println(fmt.Sprintf("db_type %s", info.DbType))
	s.println(fmt.Sprintf("db_size_bytes %d", info.SizeBytes))
	s.println(fmt.Sprintf("db_keys %d", len(s.store.ListKeys())))

	if w, ok := s.rules.(statsWriter); ok {
		w.WritePrometheus(s.out)
	}
}

func (s *Session) reload() {
	r, ok := s.rules.(rules.Reloader)
	if !ok {
		s.errorln(rules.ErrNotReloadable.Error())
		return
	}
	if err := r.Reload(); err != nil {
		if !errors.Is(err, rules.ErrNotReloadable) {
			Logger.Errorf("reload failed: %v", err)
		}
		s.errorln(err.Error())
		return
	}
	Logger.Infof("rules reloaded")
	s.println("OK")
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

func (s *Session) println(line string) {
	_, _ = io.WriteString(s.out, line+"\n")
}

func (s *Session) errorln(msg string) {
	s.println("ERROR: " + msg)
}

func (s *Session) prompt() {
	if s.opts.Prompt != "" {
		_, _ = io.WriteString(s.out, s.opts.Prompt)
	}
}

// --------------------------------------------------------------------------
// Parsing
// --------------------------------------------------------------------------

// CmdName is a command keyword, always upper case
type CmdName string

const (
	CmdAdd    CmdName = "ADD"
	CmdGet    CmdName = "GET"
	CmdList   CmdName = "LIST"
	CmdStats  CmdName = "STATS"
	CmdReload CmdName = "RELOAD"
	CmdHelp   CmdName = "HELP"
	CmdExit   CmdName = "EXIT"
)

// Command is a parsed input line
type Command struct {
	Name  CmdName
	Raw   string // the keyword as typed
	Key   string
	Value string // everything after the key, may contain spaces
}

// Parse splits line into command, key and value. The keyword is case-insensitive,
// QUIT is an alias for EXIT. ok is false for blank lines.
func Parse(line string) (cmd Command, ok bool) {
	rest := strings.TrimSpace(line)
	if rest == "" {
		return Command{}, false
	}

	cmd.Raw, rest = cut(rest)
	cmd.Key, rest = cut(rest)
	cmd.Value = rest

	cmd.Name = CmdName(strings.ToUpper(cmd.Raw))
	if cmd.Name == "QUIT" {
		cmd.Name = CmdExit
	}
	return cmd, true
}

// cut returns the first whitespace separated token of s and the trimmed remainder
func cut(s string) (token, rest string) {
	i := strings.IndexFunc(s, isSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
