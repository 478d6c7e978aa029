package picker

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

// preview runs the channel's preview command the way the finder would for
// the highlighted line idx.
func preview(t *testing.T, c Preview, idx string) string {
	t.Helper()
	script := strings.ReplaceAll(c.Command(), "{n}", idx)
	out, err := exec.Command("sh", "-c", script).Output()
	require.NoError(t, err)
	return string(out)
}

func TestHelpIndexIsLazy(t *testing.T) {
	var calls atomic.Int32
	index := NewHelpIndex([]string{"print", "run"}, func(_ context.Context, candidate string) (string, bool) {
		calls.Add(1)
		if candidate == "run" {
			return "", false
		}
		return "help for " + candidate, true
	})

	assert.Equal(t, int32(0), calls.Load())

	text, ok := index.Lookup(context.Background(), 0)
	assert.True(t, ok)
	assert.Equal(t, "help for print", text)

	_, _ = index.Lookup(context.Background(), 0)
	assert.Equal(t, int32(1), calls.Load(), "results are cached")

	_, ok = index.Lookup(context.Background(), 1)
	assert.False(t, ok)

	_, ok = index.Lookup(context.Background(), 7)
	assert.False(t, ok)
	_, ok = index.Lookup(context.Background(), -1)
	assert.False(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChannelServesRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	index := NewHelpIndex([]string{"print", "printf"}, func(_ context.Context, candidate string) (string, bool) {
		return strings.ToUpper(candidate) + " docs", true
	})

	c, err := OpenChannel(context.Background(), index, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "PRINTF docs", preview(t, c, "1"))
	assert.Equal(t, "PRINT docs", preview(t, c, "0"))
	assert.Equal(t, "", preview(t, c, "42"), "unregistered index yields an empty response")

	require.NoError(t, c.Close())
	_, err = os.Stat(c.InputPath())
	assert.True(t, os.IsNotExist(err), "pipes are removed on close")
}

func TestChannelIgnoresMalformedRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	index := NewHelpIndex([]string{"next"}, func(context.Context, string) (string, bool) {
		return "Step program.", true
	})

	c, err := OpenChannel(context.Background(), index, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, exec.Command("sh", "-c", "echo garbage > "+shellQuote(c.InputPath())).Run())

	assert.Equal(t, "Step program.", preview(t, c, "0"), "worker keeps serving after a bad request")
}

func TestChannelSkipsAbandonedPreview(t *testing.T) {
	defer goleak.VerifyNone(t)

	index := NewHelpIndex([]string{"info", "inferior"}, func(_ context.Context, candidate string) (string, bool) {
		if candidate == "info" {
			time.Sleep(50 * time.Millisecond)
		}
		return candidate + " docs", true
	})

	c, err := OpenChannel(context.Background(), index, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	// The finder killed the first preview before it read the response.
	require.NoError(t, exec.Command("sh", "-c", "echo 0 > "+shellQuote(c.InputPath())).Run())

	start := time.Now()
	assert.Equal(t, "inferior docs", preview(t, c, "1"))
	assert.Less(t, time.Since(start), respondTimeout/2, "next request is not held up by the abandoned one")
}

func TestChannelCloseDuringLookup(t *testing.T) {
	defer goleak.VerifyNone(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var lookupCtx context.Context
	index := NewHelpIndex([]string{"backtrace"}, func(ctx context.Context, _ string) (string, bool) {
		lookupCtx = ctx
		close(entered)
		<-release
		return "Print backtrace of all stack frames.", true
	})

	c, err := OpenChannel(context.Background(), index, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, exec.Command("sh", "-c", "echo 0 > "+shellQuote(c.InputPath())).Run())
	<-entered

	closed := make(chan error, 1)
	go func() { closed <- c.Close() }()

	select {
	case err := <-closed:
		t.Fatalf("close returned during a lookup: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.NoError(t, lookupCtx.Err(), "closing does not cancel an in-flight lookup")

	close(release)
	require.NoError(t, <-closed)
	_, err = os.Stat(c.InputPath())
	assert.True(t, os.IsNotExist(err))
}

func TestChannelCloseWithoutRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := OpenChannel(context.Background(), NewHelpIndex(nil, nil), zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")
}

func TestChannelCommandQuotesPaths(t *testing.T) {
	c, err := OpenChannel(context.Background(), NewHelpIndex(nil, nil), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	command := c.Command()
	assert.True(t, strings.HasPrefix(command, "echo {n} > "))
	assert.Contains(t, command, "\ncat ")
	assert.Contains(t, command, c.OutputPath())
}

func TestStaticPreview(t *testing.T) {
	p, err := NewStaticPreview("Set breakpoint at specified location.")
	require.NoError(t, err)

	assert.Equal(t, "Set breakpoint at specified location.", preview(t, p, "3"))

	require.NoError(t, p.Close())
	_, err = os.Stat(p.path)
	assert.True(t, os.IsNotExist(err))
}
