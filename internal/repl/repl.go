// Package repl provides the interactive prompt of gep. It reads one logical
// command per turn with the line editor, resolves empty lines and
// multi-line blocks, and hands the result to the debugger.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/atinylittleshell/gep/internal/repl/completion"
	"github.com/atinylittleshell/gep/internal/repl/config"
	"github.com/atinylittleshell/gep/internal/repl/input"
	"github.com/atinylittleshell/gep/internal/repl/render"
)

// ErrExit is returned when the debugger has gone away and the prompt
// should stop.
var ErrExit = errors.New("exit requested")

const fallbackPrompt = "(gdb) "

// Host is the debugger as seen by the prompt.
type Host interface {
	completion.Host
	ParameterHost
	PromptHost

	SetPrompt(ctx context.Context, prompt string) error
	Exited() bool
}

// LineReader reads one line of input under prompt.
type LineReader interface {
	ReadLine(ctx context.Context, prompt string) (input.Result, error)
}

// Options holds configuration for creating a REPL.
type Options struct {
	Host   Host
	Config *config.Config

	// Finder runs the fuzzy picker. Nil selects the built-in completion and
	// history search.
	Finder input.Finder

	// Prompt overrides the prompt hook derived from Config.
	Prompt PromptHook

	// Reader overrides the interactive line editor.
	Reader LineReader

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	BuildVersion    string
	DebuggerVersion string

	Logger *zap.Logger
}

// REPL is the prompt loop.
type REPL struct {
	host    Host
	config  *config.Config
	session *Session

	source   *completion.Source
	provider *completion.Provider
	finder   input.Finder
	keymap   *input.KeyMap
	styles   input.RenderConfig

	prompt       PromptHook
	syncedPrompt string
	reader       LineReader

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	buildVersion    string
	debuggerVersion string
	logger          *zap.Logger
}

// NewREPL starts a session against opts.Host.
func NewREPL(ctx context.Context, opts Options) (*REPL, error) {
	if opts.Host == nil {
		return nil, errors.New("repl: a host is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	session, err := NewSession(ctx, opts.Host, cfg, logger)
	if err != nil {
		return nil, err
	}

	limit := completion.Unlimited
	if value, err := opts.Host.Parameter(ctx, "max-completions"); err != nil {
		logger.Debug("failed to read max-completions", zap.Error(err))
	} else if limit, err = completion.ParseLimit(value); err != nil {
		logger.Warn("invalid max-completions", zap.String("value", value), zap.Error(err))
		limit = completion.Unlimited
	}

	var policy completion.HelpPolicy = completion.PrefixPolicy{}
	if cfg.Completion.PerCandidateHelp {
		policy = completion.AlwaysPolicy{}
	}
	source := completion.NewSource(opts.Host, completion.SourceConfig{Limit: limit, Policy: policy, Logger: logger})

	keymap := input.DefaultKeyMap()
	if cfg.Keys.HistorySearch != "" {
		keymap.Rebind(input.ActionHistorySearch, cfg.Keys.HistorySearch)
	}
	if cfg.Keys.Complete != "" {
		keymap.Rebind(input.ActionComplete, cfg.Keys.Complete)
	}

	styles := input.DefaultRenderConfig()
	styles.SingleColumn = cfg.Completion.SingleColumn

	r := &REPL{
		host:            opts.Host,
		config:          cfg,
		session:         session,
		source:          source,
		provider:        completion.NewProvider(source, logger),
		finder:          opts.Finder,
		keymap:          keymap,
		styles:          styles,
		prompt:          opts.Prompt,
		reader:          opts.Reader,
		stdin:           opts.Stdin,
		stdout:          opts.Stdout,
		stderr:          opts.Stderr,
		buildVersion:    opts.BuildVersion,
		debuggerVersion: opts.DebuggerVersion,
		logger:          logger,
	}

	if r.stdin == nil {
		r.stdin = os.Stdin
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.stderr == nil {
		r.stderr = os.Stderr
	}
	if r.reader == nil {
		r.reader = r
	}
	if r.prompt == nil {
		r.prompt = HostPrompt{Host: opts.Host}
		if cfg.Prompt != "" {
			r.prompt = StyledPrompt{Text: cfg.Prompt, Style: render.PromptStyle}
		}
	}

	if current, err := opts.Host.CurrentPrompt(ctx); err == nil {
		r.syncedPrompt = current
	}

	if !session.HistorySaved() {
		fmt.Fprintln(r.stderr, render.WarningLine("`set history save on` for a better experience with gep"))
	}

	return r, nil
}

// Config returns the configuration the REPL was created with.
func (r *REPL) Config() *config.Config {
	return r.config
}

// Session returns the session state.
func (r *REPL) Session() *Session {
	return r.session
}

// Run reads and dispatches commands until the debugger exits, the user
// ends input, or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.showWelcomeScreen()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.host.Exited() {
			return nil
		}

		prompt := r.currentPrompt(ctx)
		result, err := r.reader.ReadLine(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch result.Type {
		case input.ResultInterrupt:
			continue
		case input.ResultEOF:
			return r.quit(ctx)
		}

		command, ok, err := r.readCommand(ctx, result.Value)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if !ok {
			continue
		}

		if err := r.processCommand(ctx, command); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			return err
		}
	}
}

// currentPrompt runs the prompt hook and keeps the debugger's prompt
// setting in step with what is shown.
func (r *REPL) currentPrompt(ctx context.Context) string {
	prompt, err := r.prompt.Prompt(ctx)
	if err != nil {
		r.logger.Warn("prompt hook failed", zap.Error(err))
		prompt = r.syncedPrompt
	}
	if prompt == "" {
		prompt = fallbackPrompt
	}

	if prompt != r.syncedPrompt {
		if err := r.host.SetPrompt(ctx, prompt); err != nil {
			r.logger.Debug("failed to sync prompt", zap.Error(err))
		} else {
			r.syncedPrompt = prompt
		}
	}

	return stripReadlineMarkers(prompt)
}

// readCommand turns the first line of a turn into a complete command. An
// empty line repeats the last command; a block opener keeps reading until
// the block is closed. It reports false when an interrupt abandoned the
// block.
func (r *REPL) readCommand(ctx context.Context, line string) (string, bool, error) {
	if strings.TrimSpace(line) == "" {
		return r.session.repeatLast(), true, nil
	}

	r.session.Record(line)
	if !r.session.OpensBlock(line) {
		return line, true, nil
	}

	block := r.session.NewBlock(line)
	for {
		result, err := r.reader.ReadLine(ctx, ContinuationPrompt(block.Depth()))
		if err != nil {
			return "", false, err
		}

		switch result.Type {
		case input.ResultInterrupt:
			r.logger.Debug("multi-line input abandoned", zap.Int("depth", block.Depth()))
			return "", false, nil
		case input.ResultEOF:
			if block.CloseInnermost() {
				return block.String(), true, nil
			}
			continue
		}

		r.session.Record(result.Value)
		if block.Add(result.Value) {
			return block.String(), true, nil
		}
	}
}

// processCommand sends command to the debugger. Debugger errors are
// printed; a panic is logged and reported without ending the session.
func (r *REPL) processCommand(ctx context.Context, command string) (err error) {
	if strings.TrimSpace(command) == "" {
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic while running command",
				zap.String("command", command),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			fmt.Fprintln(r.stderr, render.WarningLine(fmt.Sprintf("internal error: %v (details in the log)", p)))
			err = nil
		}
	}()

	// Ctrl+C while the command runs interrupts the debugger instead of
	// killing gep.
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	r.logger.Debug("dispatching command", zap.String("command", command))
	execErr := r.host.Execute(runCtx, command, r.stdout)

	if r.host.Exited() {
		return ErrExit
	}
	if execErr != nil {
		fmt.Fprintln(r.stderr, render.ErrorLine(execErr.Error()))
	}
	return nil
}

// quit ends the debugger session on end of input.
func (r *REPL) quit(ctx context.Context) error {
	if err := r.host.Execute(ctx, "quit", r.stdout); err != nil && !r.host.Exited() {
		r.logger.Debug("quit failed", zap.Error(err))
	}
	return nil
}

// ReadLine runs the line editor for one line.
func (r *REPL) ReadLine(ctx context.Context, prompt string) (input.Result, error) {
	width := 80
	if f, ok := r.stdout.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	styles := r.styles
	model := input.New(input.Config{
		Prompt:             prompt,
		History:            r.session.History(),
		CompletionProvider: r.provider,
		Finder:             r.finder,
		Completions:        r.source,
		KeyMap:             r.keymap,
		RenderConfig:       &styles,
		Width:              width,
		Context:            ctx,
		Logger:             r.logger,
	})

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(r.stdin),
		tea.WithOutput(r.stdout),
	)
	final, err := program.Run()
	if err != nil {
		return input.Result{}, fmt.Errorf("error reading input: %w", err)
	}

	m, ok := final.(input.Model)
	if !ok {
		return input.Result{}, fmt.Errorf("unexpected model type %T", final)
	}
	if m.FinderDisabled() {
		r.finder = nil
	}

	result := m.Result()
	switch result.Type {
	case input.ResultSubmit:
		fmt.Fprintln(r.stdout, prompt+result.Value)
	case input.ResultInterrupt:
		fmt.Fprintln(r.stdout, prompt+m.Value()+"^C")
	case input.ResultEOF:
		fmt.Fprintln(r.stdout, prompt+"quit")
	}
	return result, nil
}

// showWelcomeScreen displays the banner with session info.
func (r *REPL) showWelcomeScreen() {
	termWidth := 80
	if f, ok := r.stdout.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			termWidth = w
		}
	}

	info := render.WelcomeInfo{
		Version:  r.buildVersion,
		Debugger: r.debuggerVersion,
	}
	if r.finder != nil {
		info.Picker = r.config.Picker.Command
	}
	if r.session.HistorySaved() {
		info.HistoryFile = r.session.HistoryFile()
	}

	render.RenderWelcome(r.stdout, info, termWidth)
}

// Close ends the session.
func (r *REPL) Close() error {
	return r.session.Close()
}
