package repl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atinylittleshell/gep/internal/gdb"
	"github.com/atinylittleshell/gep/internal/repl/config"
	"github.com/atinylittleshell/gep/internal/repl/input"
)

type testREPL struct {
	*REPL
	host   *fakeHost
	reader *scriptedReader
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestREPL(t *testing.T, host *fakeHost, reader *scriptedReader, opts ...func(*Options)) *testREPL {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	options := Options{
		Host:         host,
		Reader:       reader,
		Stdout:       stdout,
		Stderr:       stderr,
		BuildVersion: "1.2.3",
		Logger:       zaptest.NewLogger(t),
	}
	for _, opt := range opts {
		opt(&options)
	}

	r, err := NewREPL(context.Background(), options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	return &testREPL{REPL: r, host: host, reader: reader, stdout: stdout, stderr: stderr}
}

func interrupt() input.Result {
	return input.Result{Type: input.ResultInterrupt}
}

func submit(value string) input.Result {
	return input.Result{Type: input.ResultSubmit, Value: value}
}

func TestNewREPL_RequiresHost(t *testing.T) {
	_, err := NewREPL(context.Background(), Options{})
	require.Error(t, err)
}

func TestNewREPL_Defaults(t *testing.T) {
	r := newTestREPL(t, newFakeHost(), lines())

	assert.Equal(t, config.DefaultConfig(), r.Config())
	assert.True(t, r.Session().Loaded())
	assert.Equal(t, 200, r.source.Limit())
	assert.Contains(t, ansi.Strip(r.stderr.String()), "`set history save on`")
}

func TestNewREPL_PerCandidateHelp(t *testing.T) {
	ctx := context.Background()

	r := newTestREPL(t, newFakeHost(), lines())
	batch, err := r.source.Batch(ctx, "info ")
	require.NoError(t, err)
	assert.False(t, batch.IndividualHelp, "subcommands without distinct help share a preview")

	cfg := config.DefaultConfig()
	cfg.Completion.PerCandidateHelp = true
	r = newTestREPL(t, newFakeHost(), lines(), func(o *Options) { o.Config = cfg })
	batch, err = r.source.Batch(ctx, "info ")
	require.NoError(t, err)
	assert.Equal(t, []string{"info frame", "info registers"}, batch.Items)
	assert.True(t, batch.IndividualHelp)
}

func TestNewREPL_UnlimitedCompletions(t *testing.T) {
	host := newFakeHost()
	host.params["max-completions"] = "unlimited"

	r := newTestREPL(t, host, lines())
	assert.Equal(t, -1, r.source.Limit())
}

func TestNewREPL_NoWarningWhenHistorySaved(t *testing.T) {
	host := newFakeHost()
	host.params["history save"] = "on"
	host.params["history filename"] = t.TempDir() + "/history"

	r := newTestREPL(t, host, lines())
	assert.Empty(t, r.stderr.String())
}

func TestRun_DispatchesCommands(t *testing.T) {
	r := newTestREPL(t, newFakeHost(), lines("break main", "print 1"))

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"break main", "print 1", "quit"}, r.host.userCommands())
	assert.Contains(t, r.stdout.String(), "ran print 1")
	assert.Contains(t, ansi.Strip(r.stdout.String()), "GDB Enhanced Prompt")
	assert.Equal(t, []string{"print 1", "break main"}, r.Session().History().GetRecentEntries(0))
}

func TestRun_EmptyLineRepeats(t *testing.T) {
	r := newTestREPL(t, newFakeHost(), lines("", "next 3", "", "  ", "print x", "", "run", ""))

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"next 3", "next", "next", "print x", "print x", "run", "quit"}, r.host.userCommands())
	assert.NotContains(t, r.Session().History().GetRecentEntries(0), "", "empty lines are not recorded")
}

func TestRun_MultiLine(t *testing.T) {
	r := newTestREPL(t, newFakeHost(), lines("if x > 1", "while y", "print x", "end", "end", "bt"))

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"if x > 1\nwhile y\nprint x\nend\nend", "bt", "quit"}, r.host.userCommands())
	assert.Equal(t, []string{"(gdb) ", ">", " >", " >", ">", "(gdb) ", "(gdb) "}, r.reader.prompts)
}

func TestRun_MultiLineEOFClosesBlocks(t *testing.T) {
	r := newTestREPL(t, newFakeHost(), lines("define walk", "while 1", "next"))

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"define walk\nwhile 1\nnext\nend\nend", "quit"}, r.host.userCommands())
}

func TestRun_InlinePython(t *testing.T) {
	r := newTestREPL(t, newFakeHost(), lines("py print(1)"))

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"py print(1)", "quit"}, r.host.userCommands())
}

func TestRun_InterruptAbandonsBlock(t *testing.T) {
	reader := lines("if 1", "print 1").then(interrupt()).then(submit("bt"))
	r := newTestREPL(t, newFakeHost(), reader)

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"bt", "quit"}, r.host.userCommands())
}

func TestRun_InterruptAtTopLevelContinues(t *testing.T) {
	reader := (&scriptedReader{}).then(interrupt()).then(submit("info frame"))
	r := newTestREPL(t, newFakeHost(), reader)

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"info frame", "quit"}, r.host.userCommands())
}

func TestRun_HostErrorsArePrinted(t *testing.T) {
	host := newFakeHost()
	host.failures = map[string]error{
		"frobnicate": &gdb.CommandError{Message: `Undefined command: "frobnicate".  Try "help".`},
	}
	r := newTestREPL(t, host, lines("frobnicate", "bt"))

	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, ansi.Strip(r.stderr.String()), `Undefined command: "frobnicate"`)
	assert.Equal(t, []string{"frobnicate", "bt", "quit"}, host.userCommands())
}

func TestRun_RecoversFromPanic(t *testing.T) {
	host := newFakeHost()
	host.panics = "explode"
	r := newTestREPL(t, host, lines("explode", "bt"))

	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, ansi.Strip(r.stderr.String()), "internal error: boom")
	assert.Equal(t, []string{"explode", "bt", "quit"}, host.userCommands())
}

func TestRun_StopsWhenHostExits(t *testing.T) {
	host := newFakeHost()
	host.exitOn = "kill-debugger"
	r := newTestREPL(t, host, lines("kill-debugger", "bt"))

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"kill-debugger"}, host.userCommands())
}

func TestRun_ContextCancelled(t *testing.T) {
	r := newTestREPL(t, newFakeHost(), lines("bt"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.host.userCommands())
}

func TestRun_ReaderError(t *testing.T) {
	reader := lines("bt")
	reader.err = errors.New("terminal went away")
	r := newTestREPL(t, newFakeHost(), reader)

	err := r.Run(context.Background())
	assert.EqualError(t, err, "terminal went away")
	assert.Equal(t, []string{"bt"}, r.host.userCommands())
}

func TestRun_SyncsPrompt(t *testing.T) {
	host := newFakeHost()
	r := newTestREPL(t, host, lines("bt", "bt"), func(o *Options) {
		o.Prompt = StaticPrompt("\001\x1b[1m\002gep>\001\x1b[0m\002 ")
	})

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"\001\x1b[1m\002gep>\001\x1b[0m\002 "}, host.prompts, "the prompt is pushed once")
	assert.Equal(t, "\x1b[1mgep>\x1b[0m ", r.reader.prompts[0])
}

func TestRun_PromptHookFailureKeepsPrompt(t *testing.T) {
	host := newFakeHost()
	r := newTestREPL(t, host, lines("bt"), func(o *Options) {
		o.Prompt = failingPrompt{}
	})

	require.NoError(t, r.Run(context.Background()))

	assert.Empty(t, host.prompts)
	assert.Equal(t, "(gdb) ", r.reader.prompts[0])
}

func TestRun_ConfiguredPrompt(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Prompt = "gep> "

	host := newFakeHost()
	r := newTestREPL(t, host, lines(), func(o *Options) {
		o.Config = cfg
	})

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, host.prompts, 1)
	assert.Equal(t, "gep> ", ansi.Strip(r.reader.prompts[0]))
}
