package gdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// fanOut is appended one character at a time when the fallback listing
// is asked to complete an empty word.
const fanOut = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_-"

// Host adapts a Client to the operations the prompt needs.
type Host struct {
	client     *Client
	logger     *zap.Logger
	version    *semver.Version
	structured bool
}

// NewHost probes the debugger version to pick a completion strategy.
func NewHost(ctx context.Context, client *Client, logger *zap.Logger) (*Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Host{client: client, logger: logger}

	var banner bytes.Buffer
	if _, err := client.Request(ctx, "-gdb-version", &banner); err != nil {
		return nil, fmt.Errorf("failed to query debugger version: %w", err)
	}

	v, err := ParseVersion(banner.String())
	if err != nil {
		logger.Warn("could not determine debugger version, using console completion", zap.Error(err))
	} else {
		h.version = v
		h.structured = SupportsStructuredCompletion(v)
		logger.Debug("debugger version detected",
			zap.String("version", v.String()),
			zap.Bool("structuredCompletion", h.structured))
	}

	return h, nil
}

// Version returns the detected release, or nil.
func (h *Host) Version() *semver.Version {
	return h.version
}

// Execute runs a console command. Commands spanning several lines are
// handed to the embedded Python interpreter, which accepts whole blocks.
func (h *Host) Execute(ctx context.Context, command string, out io.Writer) error {
	console := command
	if strings.Contains(command, "\n") {
		console = fmt.Sprintf("python gdb.execute(%s, from_tty=True)", strconv.QuoteToASCII(command))
	}
	_, err := h.client.Request(ctx, "-interpreter-exec console "+Quote(console), out)
	return err
}

// Completions lists the debugger's completions for prefix, at most limit of
// them unless limit is negative.
func (h *Host) Completions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit == 0 {
		return nil, nil
	}

	var matches []string
	var err error
	if h.structured {
		matches, err = h.structuredCompletions(ctx, prefix)
	} else {
		matches, err = h.consoleCompletions(ctx, prefix, limit)
	}
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (h *Host) structuredCompletions(ctx context.Context, prefix string) ([]string, error) {
	rec, err := h.client.Request(ctx, "-complete "+Quote(prefix), io.Discard)
	if err != nil {
		return nil, err
	}
	return rec.Results.Strings("matches"), nil
}

// consoleCompletions uses the console complete command. It lists nothing
// for a word that has not started yet, so in that case every leading
// character is tried in turn.
func (h *Host) consoleCompletions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if strings.TrimSpace(prefix) == "" || !strings.HasSuffix(prefix, " ") {
		return h.complete(ctx, prefix)
	}

	var all []string
	for _, c := range fanOut {
		if limit > 0 && len(all) >= limit {
			break
		}
		matches, err := h.complete(ctx, prefix+string(c))
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	return all, nil
}

func (h *Host) complete(ctx context.Context, prefix string) ([]string, error) {
	var buf bytes.Buffer
	if err := h.Execute(ctx, "complete "+prefix, &buf); err != nil {
		return nil, err
	}
	return splitLines(buf.String()), nil
}

// HelpText returns the trimmed output of "help name". A command the
// debugger does not know is reported as an error.
func (h *Host) HelpText(ctx context.Context, name string) (string, bool, error) {
	var buf bytes.Buffer
	if err := h.Execute(ctx, "help "+name, &buf); err != nil {
		return "", false, err
	}
	text := strings.TrimSpace(buf.String())
	return text, text != "", nil
}

// Parameter returns the value of a debugger setting as shown by -gdb-show.
func (h *Host) Parameter(ctx context.Context, name string) (string, error) {
	rec, err := h.client.Request(ctx, "-gdb-show "+name, io.Discard)
	if err != nil {
		return "", err
	}
	return rec.Results.String("value"), nil
}

// CurrentPrompt returns the prompt string the debugger is configured with.
func (h *Host) CurrentPrompt(ctx context.Context) (string, error) {
	return h.Parameter(ctx, "prompt")
}

// SetPrompt stores prompt as the debugger's prompt setting.
func (h *Host) SetPrompt(ctx context.Context, prompt string) error {
	return h.Execute(ctx, "set prompt "+EscapePrompt(prompt), io.Discard)
}

// AttachTerminal points the inferior at the terminal on stdin so programs
// under test can read and write it directly.
func (h *Host) AttachTerminal(ctx context.Context) error {
	path, err := os.Readlink("/proc/self/fd/0")
	if err != nil {
		return fmt.Errorf("failed to resolve terminal: %w", err)
	}
	_, err = h.client.Request(ctx, "-inferior-tty-set "+path, io.Discard)
	return err
}

// Exited reports whether the debugger has terminated.
func (h *Host) Exited() bool {
	return h.client.Exited()
}

// Interrupt stops a running inferior.
func (h *Host) Interrupt() {
	h.client.Interrupt()
}

// Close shuts the debugger down.
func (h *Host) Close() error {
	return h.client.Close()
}

// EscapePrompt encodes a prompt for "set prompt". Readline's invisible
// markers are dropped, and the rest is written as octal escapes so the
// setting survives whitespace and backslashes.
func EscapePrompt(prompt string) string {
	var b strings.Builder
	for _, r := range prompt {
		switch {
		case r == '\001' || r == '\002':
		case r < 0x100:
			fmt.Fprintf(&b, `\%o`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
