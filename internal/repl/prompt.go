package repl

import (
	"context"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// PromptHook computes the prompt shown at the start of a turn.
type PromptHook interface {
	Prompt(ctx context.Context) (string, error)
}

// PromptHost reads the debugger's prompt setting.
type PromptHost interface {
	CurrentPrompt(ctx context.Context) (string, error)
}

// HostPrompt shows the debugger's own prompt.
type HostPrompt struct {
	Host PromptHost
}

func (p HostPrompt) Prompt(ctx context.Context) (string, error) {
	return p.Host.CurrentPrompt(ctx)
}

// StyledPrompt renders the prompt of Previous, or Text when Previous is
// nil, with Style. Prompts that already carry escape sequences are left as
// they are.
type StyledPrompt struct {
	Previous PromptHook
	Text     string
	Style    lipgloss.Style
}

func (p StyledPrompt) Prompt(ctx context.Context) (string, error) {
	text := p.Text
	if p.Previous != nil {
		var err error
		if text, err = p.Previous.Prompt(ctx); err != nil {
			return "", err
		}
	}
	if ansi.Strip(text) != text {
		return text, nil
	}

	// Style the visible text only so trailing spaces stay unstyled.
	body := strings.TrimRight(text, " ")
	return p.Style.Render(body) + text[len(body):], nil
}

// StaticPrompt always returns the same text.
type StaticPrompt string

func (p StaticPrompt) Prompt(context.Context) (string, error) {
	return string(p), nil
}

// stripReadlineMarkers drops the \001 and \002 bytes readline uses to
// bracket invisible prompt characters.
func stripReadlineMarkers(prompt string) string {
	return strings.NewReplacer("\001", "", "\002", "").Replace(prompt)
}
