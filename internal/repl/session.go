package repl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/atinylittleshell/gep/internal/core"
	"github.com/atinylittleshell/gep/internal/history"
	"github.com/atinylittleshell/gep/internal/repl/config"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	// Commands that must not run again on an empty line.
	defaultDontRepeat = []string{
		"attach", "run", "r", "detach", "help", "complete", "quit", "q",
		// GEF
		"theme", "canary", "functions", "gef", "tmux-setup",
	}

	// Commands that repeat with their arguments dropped.
	defaultRootOnly = []string{"x", "next", "n", "step", "s", "stepi", "si", "nexti", "ni"}

	// Commands that read a body terminated by "end".
	defaultMultiLine = []string{"commands", "if", "while", "py", "python", "define", "document"}
)

// ParameterHost reads and writes debugger settings.
type ParameterHost interface {
	Parameter(ctx context.Context, name string) (string, error)
	Execute(ctx context.Context, command string, out io.Writer) error
}

// Session holds the state shared by every turn of the prompt: the history
// log and the command tables that drive repeat and multi-line handling.
type Session struct {
	history          *history.HistoryManager
	historyFile      string
	historySave      bool
	removeDuplicates bool

	dontRepeat map[string]struct{}
	rootOnly   map[string]struct{}
	multiLine  map[string]struct{}

	loaded bool
	logger *zap.Logger
}

// NewSession reads the debugger's history settings, opens the history log
// and builds the command tables from the defaults plus cfg.
// The debugger's own history saving is switched off; the session appends
// to the same file instead.
func NewSession(ctx context.Context, host ParameterHost, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := &Session{
		multiLine: toSet(defaultMultiLine, cfg.MultiLine.Commands),
		rootOnly:  toSet(defaultRootOnly, cfg.Repeat.RootOnly),
		logger:    logger,
	}
	s.dontRepeat = toSet(defaultDontRepeat, cfg.Repeat.DontRepeat, lo.Keys(s.multiLine))

	save, err := host.Parameter(ctx, "history save")
	if err != nil {
		return nil, fmt.Errorf("failed to read history settings: %w", err)
	}
	s.historySave = save == "on"

	if s.historySave {
		s.historyFile = cfg.History.File
		if s.historyFile == "" {
			if s.historyFile, err = host.Parameter(ctx, "history filename"); err != nil {
				return nil, fmt.Errorf("failed to read history filename: %w", err)
			}
		}
		if s.historyFile == "" {
			s.historyFile = core.HistoryFile()
		}

		dups, err := host.Parameter(ctx, "history remove-duplicates")
		if err != nil {
			return nil, fmt.Errorf("failed to read history settings: %w", err)
		}
		s.removeDuplicates = dups == "unlimited"

		if err := host.Execute(ctx, "set history save off", io.Discard); err != nil {
			logger.Warn("failed to disable debugger history saving", zap.Error(err))
		}
	}

	s.history, err = history.NewHistoryManager(s.historyFile, s.removeDuplicates)
	if err != nil {
		return nil, err
	}

	logger.Debug("session started",
		zap.Bool("historySave", s.historySave),
		zap.String("historyFile", s.historyFile),
		zap.Bool("removeDuplicates", s.removeDuplicates))

	s.loaded = true
	return s, nil
}

func toSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				set[item] = struct{}{}
			}
		}
	}
	return set
}

// Loaded reports whether the session is between NewSession and Close.
func (s *Session) Loaded() bool {
	return s.loaded
}

// History returns the session's history log.
func (s *Session) History() *history.HistoryManager {
	return s.history
}

// HistorySaved reports whether accepted lines are persisted.
func (s *Session) HistorySaved() bool {
	return s.historySave
}

func (s *Session) HistoryFile() string {
	return s.historyFile
}

// Record appends an accepted input line to the history log.
func (s *Session) Record(line string) {
	if err := s.history.Append(line); err != nil {
		s.logger.Warn("failed to record history", zap.Error(err))
	}
}

// Close ends the session.
func (s *Session) Close() error {
	s.loaded = false
	return nil
}

func (s *Session) isMultiLine(root string) bool {
	_, ok := s.multiLine[root]
	return ok
}
