package repl

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPrompt struct{}

func (failingPrompt) Prompt(context.Context) (string, error) {
	return "", errors.New("prompt hook failed")
}

func TestHostPrompt(t *testing.T) {
	host := newFakeHost()
	host.prompt = "(gdb) "

	prompt, err := HostPrompt{Host: host}.Prompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "(gdb) ", prompt)
}

func TestStyledPrompt(t *testing.T) {
	style := lipgloss.NewStyle().Bold(true)

	t.Run("text", func(t *testing.T) {
		prompt, err := StyledPrompt{Text: "gep> ", Style: style}.Prompt(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "gep> ", ansi.Strip(prompt))
		assert.Equal(t, style.Render("gep>")+" ", prompt)
	})

	t.Run("previous", func(t *testing.T) {
		p := StyledPrompt{Previous: StaticPrompt("(gdb) "), Text: "ignored", Style: style}
		prompt, err := p.Prompt(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "(gdb) ", ansi.Strip(prompt))
	})

	t.Run("already styled", func(t *testing.T) {
		colored := "\x1b[31mgef➤ \x1b[0m"
		prompt, err := StyledPrompt{Text: colored, Style: style}.Prompt(context.Background())
		require.NoError(t, err)
		assert.Equal(t, colored, prompt)
	})

	t.Run("previous error", func(t *testing.T) {
		_, err := StyledPrompt{Previous: failingPrompt{}, Style: style}.Prompt(context.Background())
		require.Error(t, err)
	})
}

func TestStripReadlineMarkers(t *testing.T) {
	assert.Equal(t, "\x1b[1mgef➤\x1b[0m ", stripReadlineMarkers("\001\x1b[1m\002gef➤\001\x1b[0m\002 "))
	assert.Equal(t, "(gdb) ", stripReadlineMarkers("(gdb) "))
}
