package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/syntax"
)

const (
	tempDirPattern = "gep_tab_fzf_"
	retryInterval  = 10 * time.Millisecond
	respondTimeout = 5 * time.Second
	requestTimeout = time.Second
)

// Preview is a preview source for one picker invocation.
type Preview interface {
	// Command is the shell command the picker runs for each highlighted line.
	Command() string
	// Close releases every resource held by the preview.
	Close() error
}

// HelpFunc resolves the help text of a candidate.
type HelpFunc func(ctx context.Context, candidate string) (string, bool)

type helpEntry struct {
	text string
	ok   bool
}

// HelpIndex maps candidate indices to help text. Entries are computed on
// first request and cached for the life of the index.
type HelpIndex struct {
	mu         sync.Mutex
	candidates []string
	resolve    HelpFunc
	cache      map[int]helpEntry
}

// NewHelpIndex creates an index over candidates.
func NewHelpIndex(candidates []string, resolve HelpFunc) *HelpIndex {
	return &HelpIndex{
		candidates: candidates,
		resolve:    resolve,
		cache:      make(map[int]helpEntry),
	}
}

// Lookup returns the help text of candidate idx. Indices outside the
// candidate set report ok=false.
func (h *HelpIndex) Lookup(ctx context.Context, idx int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if idx < 0 || idx >= len(h.candidates) {
		return "", false
	}
	if entry, ok := h.cache[idx]; ok {
		return entry.text, entry.ok
	}

	text, ok := h.resolve(ctx, h.candidates[idx])
	h.cache[idx] = helpEntry{text: text, ok: ok}
	return text, ok
}

// Channel serves help text to the picker's preview command over a pair of
// named pipes. The preview command writes the highlighted index to the
// input pipe and reads the response from the output pipe.
type Channel struct {
	dir        string
	inputPath  string
	outputPath string

	index  *HelpIndex
	logger *zap.Logger

	stopping atomic.Bool
	done     chan struct{}
	once     sync.Once
	closeErr error
}

var _ Preview = (*Channel)(nil)

// OpenChannel creates the pipes and starts the worker goroutine. Lookups
// run with ctx's values but are not cancelled with it or by Close; an
// interrupted help lookup would interrupt the debugger.
func OpenChannel(ctx context.Context, index *HelpIndex, logger *zap.Logger) (*Channel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("error creating preview directory: %w", err)
	}

	c := &Channel{
		dir:        dir,
		inputPath:  filepath.Join(dir, "input"),
		outputPath: filepath.Join(dir, "output"),
		index:      index,
		logger:     logger,
		done:       make(chan struct{}),
	}

	for _, path := range []string{c.inputPath, c.outputPath} {
		if err := syscall.Mkfifo(path, 0600); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("error creating preview pipe: %w", err)
		}
	}

	go c.serve(context.WithoutCancel(ctx))

	return c, nil
}

// InputPath returns the request pipe.
func (c *Channel) InputPath() string {
	return c.inputPath
}

// OutputPath returns the response pipe.
func (c *Channel) OutputPath() string {
	return c.outputPath
}

// Command returns the fzf preview command for this channel.
func (c *Channel) Command() string {
	return fmt.Sprintf("echo {n} > %s\ncat %s", shellQuote(c.inputPath), shellQuote(c.outputPath))
}

func (c *Channel) serve(ctx context.Context) {
	defer close(c.done)

	var request []byte
	for !c.stopping.Load() {
		if request == nil {
			var err error
			request, err = readRequest(c.inputPath)
			if err != nil {
				c.logger.Warn("preview channel closed unexpectedly", zap.Error(err))
				return
			}
		}
		pending := request
		request = nil
		if len(pending) == 0 {
			continue
		}

		idx, err := strconv.Atoi(strings.TrimSpace(string(pending)))
		if err != nil {
			c.logger.Debug("ignoring malformed preview request", zap.ByteString("request", pending))
			continue
		}

		text, _ := c.index.Lookup(ctx, idx)
		next, err := c.respond(text)
		switch {
		case errors.Is(err, errSuperseded):
			c.logger.Debug("preview request superseded", zap.Int("index", idx), zap.ByteString("next", next))
			request = next
		case err != nil:
			c.logger.Debug("preview response dropped", zap.Int("index", idx), zap.Error(err))
		}
	}
}

func readRequest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

var (
	errStopping   = errors.New("preview channel is stopping")
	errSuperseded = errors.New("preview request superseded")
)

// respond waits for a reader on the output pipe without blocking, so that a
// stop request is always observed. The finder kills a preview command when
// the highlight moves; if the next request arrives before anyone reads the
// response, respond gives up and returns that request with errSuperseded.
func (c *Channel) respond(text string) ([]byte, error) {
	deadline := time.Now().Add(respondTimeout)

	for {
		if c.stopping.Load() {
			return nil, errStopping
		}

		f, err := os.OpenFile(c.outputPath, os.O_WRONLY|syscall.O_NONBLOCK, 0)
		if err == nil {
			_, werr := io.WriteString(f, text)
			cerr := f.Close()
			return nil, errors.Join(werr, cerr)
		}
		if !errors.Is(err, syscall.ENXIO) {
			return nil, err
		}

		next, err := c.pendingRequest()
		if err != nil {
			return nil, err
		}
		if len(next) > 0 {
			return next, errSuperseded
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("no reader on preview pipe: %w", syscall.ENXIO)
		}
		time.Sleep(retryInterval)
	}
}

// pendingRequest reads a request that a preview command is already writing
// to the input pipe. It returns nothing if no writer is connected.
func (c *Channel) pendingRequest() ([]byte, error) {
	f, err := os.OpenFile(c.inputPath, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Without a writer the first read reports end of file.
	deadline := time.Now().Add(requestTimeout)
	_ = f.SetReadDeadline(deadline)

	var request []byte
	buf := make([]byte, 64)
	for {
		n, err := f.Read(buf)
		request = append(request, buf[:n]...)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrDeadlineExceeded):
			return request, nil
		case errors.Is(err, syscall.EAGAIN):
			if c.stopping.Load() || time.Now().After(deadline) {
				return request, nil
			}
			time.Sleep(retryInterval)
		default:
			return request, err
		}
	}
}

// Close stops the worker, waits for it to exit and removes the pipes.
func (c *Channel) Close() error {
	c.once.Do(func() {
		c.stopping.Store(true)

		// A zero-length write unblocks the worker if it is waiting for a
		// request. The non-blocking open fails while the worker is busy
		// elsewhere, so keep trying until it has exited.
		for {
			f, err := os.OpenFile(c.inputPath, os.O_WRONLY|syscall.O_NONBLOCK, 0)
			if err == nil {
				f.Close()
			}

			select {
			case <-c.done:
			case <-time.After(retryInterval):
				continue
			}
			break
		}

		c.closeErr = os.RemoveAll(c.dir)
	})
	return c.closeErr
}

// StaticPreview shows the same text for every candidate. It is used when
// all candidates of a batch share one help text.
type StaticPreview struct {
	dir  string
	path string
}

var _ Preview = (*StaticPreview)(nil)

// NewStaticPreview writes text to a private temporary file.
func NewStaticPreview(text string) (*StaticPreview, error) {
	dir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("error creating preview directory: %w", err)
	}

	path := filepath.Join(dir, "preview")
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("error writing preview: %w", err)
	}

	return &StaticPreview{dir: dir, path: path}, nil
}

// Command prints the stored text regardless of the highlighted line.
func (s *StaticPreview) Command() string {
	return "cat " + shellQuote(s.path)
}

// Close removes the temporary file.
func (s *StaticPreview) Close() error {
	return os.RemoveAll(s.dir)
}

func shellQuote(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return quoted
}
