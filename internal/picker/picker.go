// Package picker drives an external fuzzy finder process and serves its
// preview pane.
package picker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotInstalled reports that the fuzzy finder binary was not found.
	ErrNotInstalled = errors.New("fuzzy finder is not installed")

	// ErrPicker reports that the fuzzy finder exited with an error.
	ErrPicker = errors.New("fuzzy finder failed")
)

const (
	exitNoMatch     = 1
	exitError       = 2
	exitInterrupted = 130
)

// Delimiter separates records on the picker's stdin and stdout. The zero
// value is Newline.
type Delimiter int

const (
	Newline Delimiter = iota
	NUL
)

func (d Delimiter) sep() byte {
	if d == NUL {
		return 0
	}
	return '\n'
}

// Config holds configuration for creating a Picker.
type Config struct {
	// Command is the finder invocation, split with shell rules.
	Command string

	// Height is passed as --height.
	Height string

	// PreviewWindow is passed as --preview-window.
	PreviewWindow string

	// Stderr receives the finder's diagnostics. Nil selects os.Stderr.
	Stderr io.Writer

	Logger *zap.Logger
}

// Picker launches the fuzzy finder.
type Picker struct {
	argv          []string
	height        string
	previewWindow string
	stderr        io.Writer
	logger        *zap.Logger
}

// New resolves the finder binary. It returns an error wrapping
// ErrNotInstalled if the binary is not on PATH.
func New(cfg Config) (*Picker, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	command := cfg.Command
	if strings.TrimSpace(command) == "" {
		command = "fzf"
	}

	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid picker command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("invalid picker command %q", command)
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, argv[0])
	}
	argv[0] = path

	height := cfg.Height
	if height == "" {
		height = "40%"
	}
	previewWindow := cfg.PreviewWindow
	if previewWindow == "" {
		previewWindow = "right:55%:wrap"
	}

	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Picker{
		argv:          argv,
		height:        height,
		previewWindow: previewWindow,
		stderr:        stderr,
		logger:        logger,
	}, nil
}

// Request describes one picker invocation.
type Request struct {
	// Query pre-fills the finder's search box.
	Query string

	// Candidates are shown in order; the first is at the top.
	Candidates []string

	// Preview is the preview source, or nil for no preview pane.
	Preview Preview

	Delimiter Delimiter
}

// Selection is the outcome of a picker invocation.
type Selection struct {
	// Text is the chosen line, or the original query when cancelled.
	Text string

	Cancelled bool
}

// Args returns the finder arguments for req, excluding the binary.
func (p *Picker) Args(req Request) []string {
	query := req.Query
	if strings.HasPrefix(query, "!") {
		// A leading ! is the finder's negation operator.
		query = "^" + query
	}

	args := append([]string{}, p.argv[1:]...)
	args = append(args,
		"--bind=tab:down",
		"--bind=btab:up",
		"--cycle",
		"--select-1",
		"--exit-0",
		"--tiebreak=index",
		"--no-multi",
		"--height="+p.height,
		"--layout=reverse",
		"--print-query",
		"--query", query,
	)
	if req.Delimiter == NUL {
		args = append(args, "--read0", "--print0")
	}
	if req.Preview != nil {
		args = append(args,
			"--preview-window", p.previewWindow,
			"--preview", req.Preview.Command(),
		)
	}
	return args
}

// Run executes the finder and returns the chosen line. A cancelled or
// empty pick returns the original query with Cancelled set.
func (p *Picker) Run(ctx context.Context, req Request) (Selection, error) {
	id := uuid.NewString()
	logger := p.logger.With(zap.String("invocation", id))
	cancelled := Selection{Text: req.Query, Cancelled: true}

	cmd := exec.CommandContext(ctx, p.argv[0], p.Args(req)...)
	cmd.Stderr = p.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return cancelled, fmt.Errorf("error creating picker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return cancelled, fmt.Errorf("error creating picker stdout: %w", err)
	}

	logger.Debug("starting picker",
		zap.Int("candidates", len(req.Candidates)),
		zap.Bool("preview", req.Preview != nil))

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return cancelled, fmt.Errorf("%w: %v", ErrNotInstalled, err)
		}
		return cancelled, fmt.Errorf("error starting picker: %w", err)
	}

	var output []byte
	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		return writeCandidates(stdin, req.Candidates, req.Delimiter)
	})
	g.Go(func() error {
		var readErr error
		output, readErr = io.ReadAll(stdout)
		return readErr
	})

	if err := g.Wait(); err != nil {
		// The finder may exit before reading every candidate.
		logger.Debug("picker pipe closed early", zap.Error(err))
	}

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return cancelled, fmt.Errorf("error waiting for picker: %w", waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	logger.Debug("picker exited", zap.Int("exitCode", exitCode), zap.Int("outputBytes", len(output)))

	switch exitCode {
	case 0:
	case exitNoMatch, exitInterrupted:
		return cancelled, nil
	case exitError:
		return cancelled, fmt.Errorf("%w: exit status %d", ErrPicker, exitCode)
	default:
		if ctx.Err() != nil {
			return cancelled, nil
		}
		return cancelled, fmt.Errorf("%w: exit status %d", ErrPicker, exitCode)
	}

	records := splitRecords(output, req.Delimiter)
	if len(records) == 0 {
		return cancelled, nil
	}
	return Selection{Text: records[len(records)-1]}, nil
}

func writeCandidates(w io.Writer, candidates []string, delim Delimiter) error {
	bw := bufio.NewWriter(w)
	for _, candidate := range candidates {
		if _, err := bw.WriteString(candidate); err != nil {
			return err
		}
		if err := bw.WriteByte(delim.sep()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func splitRecords(output []byte, delim Delimiter) []string {
	output = bytes.TrimSuffix(output, []byte{delim.sep()})
	if len(output) == 0 {
		return nil
	}

	var records []string
	for _, record := range bytes.Split(output, []byte{delim.sep()}) {
		records = append(records, string(record))
	}
	return records
}
