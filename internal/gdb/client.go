// Package gdb drives a GDB process over the machine interface and exposes
// the small surface the prompt needs: running console commands, listing
// completions, reading help text and parameters.
package gdb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ErrExited is returned once the debugger process has gone away.
var ErrExited = errors.New("debugger exited")

// CommandError is an ^error result from the debugger.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

// Config controls how the debugger process is started.
type Config struct {
	Path string
	Args []string

	// Output receives console and target output that arrives between
	// commands, such as the startup banner or script output.
	Output io.Writer

	Logger *zap.Logger
}

// Client owns one debugger process. Requests are serialized; the client is
// safe for concurrent use.
type Client struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	output io.Writer
	logger *zap.Logger

	mu      sync.Mutex
	token   int
	records chan Record
	exited  atomic.Bool

	closeOnce sync.Once
	closeErr  error
	waitCh    chan error
}

// Start spawns the debugger and waits for its first prompt.
func Start(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Path == "" {
		cfg.Path = "gdb"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	args := append([]string{"--interpreter=mi", "--quiet"}, cfg.Args...)
	cmd := exec.Command(cfg.Path, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to start %s: %w", cfg.Path, err)
	}

	cfg.Logger.Debug("debugger spawned",
		zap.String("command", cfg.Path),
		zap.Strings("args", args),
		zap.Int("pid", cmd.Process.Pid))

	c := &Client{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewReader(stdout),
		output:  cfg.Output,
		logger:  cfg.Logger,
		records: make(chan Record, 1024),
		waitCh:  make(chan error, 1),
	}

	go c.readLoop()

	if err := c.awaitPrompt(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// readLoop parses stdout into records until the process closes it.
func (c *Client) readLoop() {
	defer func() {
		close(c.records)
		c.exited.Store(true)
		c.waitCh <- c.cmd.Wait()
		c.logger.Debug("debugger readLoop exiting")
	}()

	for {
		line, err := c.stdout.ReadString('\n')
		if line != "" {
			rec, parseErr := ParseRecord(line)
			if parseErr != nil {
				c.logger.Debug("unparseable MI line", zap.String("line", line), zap.Error(parseErr))
				rec = Record{Kind: TargetOutput, Token: -1, Stream: strings.TrimRight(line, "\r\n")}
			}
			c.records <- rec
		}
		if err != nil {
			if err != io.EOF {
				c.logger.Debug("debugger read error", zap.Error(err))
			}
			return
		}
	}
}

// Exited reports whether the debugger process has terminated.
func (c *Client) Exited() bool {
	return c.exited.Load()
}

func (c *Client) awaitPrompt(ctx context.Context) error {
	for {
		select {
		case rec, ok := <-c.records:
			if !ok {
				return ErrExited
			}
			if rec.Kind == PromptRecord {
				return nil
			}
			c.forward(c.output, rec)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Request sends one MI command and waits for its result. Stream output
// produced while the command runs is written to out. A command that
// resumes the inferior completes when it stops again. Cancelling ctx
// interrupts the debugger but still waits for it to report back.
func (c *Client) Request(ctx context.Context, command string, out io.Writer) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exited.Load() {
		return Record{}, ErrExited
	}
	if out == nil {
		out = io.Discard
	}

	c.drain()

	c.token++
	token := c.token
	if _, err := fmt.Fprintf(c.stdin, "%d%s\n", token, command); err != nil {
		c.logger.Debug("failed to write MI command", zap.String("command", command), zap.Error(err))
		return Record{}, ErrExited
	}
	c.logger.Debug("MI command sent", zap.Int("token", token), zap.String("command", command))

	var (
		result   Record
		running  bool
		finished bool
		done     = ctx.Done()
	)
	for {
		select {
		case rec, ok := <-c.records:
			if !ok {
				if finished {
					return result, nil
				}
				return Record{}, ErrExited
			}

			switch rec.Kind {
			case PromptRecord:
				if finished {
					return result, c.resultError(command, result)
				}
			case ResultRecord:
				if rec.Token != token {
					c.logger.Debug("ignoring result for another token", zap.Int("token", rec.Token))
					continue
				}
				switch rec.Class {
				case "running":
					running = true
				case "exit":
					c.exited.Store(true)
					return rec, nil
				default:
					result = rec
					finished = !running || rec.Class == "error"
				}
			case ExecAsync:
				if rec.Class == "stopped" && running {
					if result.Class == "" {
						result = Record{Kind: ResultRecord, Token: token, Class: "done", Results: rec.Results}
					}
					finished = true
				}
			case StatusAsync, NotifyAsync:
				c.logger.Debug("MI async record", zap.Stringer("kind", rec.Kind), zap.String("class", rec.Class))
			default:
				c.forward(out, rec)
			}
		case <-done:
			done = nil
			c.logger.Debug("interrupting debugger", zap.Int("token", token))
			c.Interrupt()
		}
	}
}

func (c *Client) resultError(command string, result Record) error {
	if result.Class == "error" {
		return &CommandError{Command: command, Message: result.Results.String("msg")}
	}
	return nil
}

// drain forwards whatever arrived since the previous request.
func (c *Client) drain() {
	for {
		select {
		case rec, ok := <-c.records:
			if !ok {
				return
			}
			c.forward(c.output, rec)
		default:
			return
		}
	}
}

func (c *Client) forward(out io.Writer, rec Record) {
	switch rec.Kind {
	case ConsoleStream, TargetStream, LogStream:
		_, _ = io.WriteString(out, rec.Stream)
	case TargetOutput:
		_, _ = io.WriteString(out, rec.Stream+"\n")
	case PromptRecord:
	default:
		c.logger.Debug("MI out-of-band record", zap.Stringer("kind", rec.Kind), zap.String("class", rec.Class))
	}
}

// Interrupt delivers SIGINT to the debugger, which stops a running
// inferior or aborts the current command.
func (c *Client) Interrupt() {
	if c.cmd.Process == nil || c.exited.Load() {
		return
	}
	if err := c.cmd.Process.Signal(syscall.SIGINT); err != nil {
		c.logger.Debug("failed to interrupt debugger", zap.Error(err))
	}
}

// Close asks the debugger to exit and reaps it, killing it if it does not
// exit promptly.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if !c.exited.Load() {
			c.mu.Lock()
			_, _ = io.WriteString(c.stdin, "-gdb-exit\n")
			c.mu.Unlock()
		}
		_ = c.stdin.Close()

		go func() {
			for range c.records {
			}
		}()

		select {
		case err := <-c.waitCh:
			c.closeErr = exitError(err)
		case <-time.After(3 * time.Second):
			c.logger.Warn("debugger did not exit, killing it", zap.Int("pid", c.cmd.Process.Pid))
			_ = c.cmd.Process.Kill()
			c.closeErr = exitError(<-c.waitCh)
		}
	})
	return c.closeErr
}

func exitError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
