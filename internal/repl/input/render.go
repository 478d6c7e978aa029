package input

import (
	"fmt"
	"strings"

	"github.com/atinylittleshell/gep/internal/repl/render"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// RenderConfig holds the editor's styles.
type RenderConfig struct {
	PromptStyle     lipgloss.Style
	TextStyle       lipgloss.Style
	CursorStyle     lipgloss.Style
	SuggestionStyle lipgloss.Style
	InfoPanelStyle  lipgloss.Style
	MenuStyle       lipgloss.Style
	SelectedStyle   lipgloss.Style

	// SingleColumn lists completions one per row instead of in a grid.
	SingleColumn bool

	// MenuRows caps how many rows of completions are shown at once.
	MenuRows int
}

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		PromptStyle:     lipgloss.NewStyle(),
		TextStyle:       lipgloss.NewStyle(),
		CursorStyle:     lipgloss.NewStyle().Reverse(true),
		SuggestionStyle: lipgloss.NewStyle().Foreground(render.ColorGray),
		InfoPanelStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(render.ColorYellow),
		MenuStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(render.ColorYellow),
		SelectedStyle: lipgloss.NewStyle().Bold(true).Foreground(render.ColorCyan),
		SingleColumn:  true,
		MenuRows:      6,
	}
}

// Renderer draws the editor for a given terminal width.
type Renderer struct {
	config RenderConfig
	width  int
}

func NewRenderer(config RenderConfig) *Renderer {
	if config.MenuRows <= 0 {
		config.MenuRows = 6
	}
	return &Renderer{config: config, width: 80}
}

func (r *Renderer) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

func (r *Renderer) Width() int {
	return r.width
}

// RenderInputLine draws prompt and text with the cursor, followed by the
// ghost suffix of suggestion when the cursor is at the end. Long lines wrap
// at the terminal width.
func (r *Renderer) RenderInputLine(prompt string, buffer *Buffer, suggestion string, focused bool) string {
	runes := []rune(buffer.Text())
	pos := clamp(buffer.Pos(), 0, len(runes))

	lastLine := prompt
	if i := strings.LastIndex(prompt, "\n"); i >= 0 {
		lastLine = prompt[i+1:]
	}

	var out strings.Builder
	out.WriteString(r.config.PromptStyle.Render(prompt))
	col := ansi.StringWidth(lastLine)

	put := func(s string, style lipgloss.Style) {
		w := ansi.StringWidth(s)
		if col+w > r.width && col > 0 {
			out.WriteString("\n")
			col = 0
		}
		out.WriteString(style.Render(s))
		col += w
	}

	for i, ch := range runes {
		if i == pos && focused {
			put(string(ch), r.config.CursorStyle)
			continue
		}
		put(string(ch), r.config.TextStyle)
	}

	if pos < len(runes) {
		return out.String()
	}

	ghost := []rune(GhostSuffix(buffer.Text(), suggestion))
	switch {
	case len(ghost) > 0 && focused:
		put(string(ghost[0]), r.config.CursorStyle.Foreground(r.config.SuggestionStyle.GetForeground()))
		for _, ch := range ghost[1:] {
			put(string(ch), r.config.SuggestionStyle)
		}
	case len(ghost) > 0:
		for _, ch := range ghost {
			put(string(ch), r.config.SuggestionStyle)
		}
	case focused:
		put(" ", r.config.CursorStyle)
	}

	return out.String()
}

// RenderCompletionMenu draws the fallback completion menu.
func (r *Renderer) RenderCompletionMenu(cs *CompletionState) string {
	if cs == nil || !cs.IsVisible() {
		return ""
	}

	var body string
	if r.config.SingleColumn {
		body = r.singleColumn(cs.Suggestions(), cs.Selected())
	} else {
		body = r.multiColumn(cs.Suggestions(), cs.Selected())
	}
	return r.config.MenuStyle.Width(max(1, r.width-2)).Render(body)
}

func (r *Renderer) singleColumn(items []string, selected int) string {
	start, end := visibleWindow(max(selected, 0), len(items), r.config.MenuRows)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		gutter := "     "
		switch {
		case i == start && start > 0:
			gutter = fmt.Sprintf("↑ %3d", start)
		case i == end-1 && end < len(items):
			gutter = fmt.Sprintf("↓ %3d", len(items)-end)
		}

		if i == selected {
			lines = append(lines, gutter+"> "+r.config.SelectedStyle.Render(items[i]))
		} else {
			lines = append(lines, gutter+"  "+items[i])
		}
	}
	return strings.Join(lines, "\n")
}

// multiColumn lays items out row-major in equal-width columns and scrolls
// by row so the selection stays visible.
func (r *Renderer) multiColumn(items []string, selected int) string {
	cellWidth := 0
	for _, item := range items {
		cellWidth = max(cellWidth, ansi.StringWidth(item))
	}
	cellWidth += 2

	columns := max(1, (r.width-4)/cellWidth)
	rows := (len(items) + columns - 1) / columns
	start, end := visibleWindow(max(selected, 0)/columns, rows, r.config.MenuRows)

	lines := make([]string, 0, end-start)
	for row := start; row < end; row++ {
		var line strings.Builder
		for col := 0; col < columns; col++ {
			i := row*columns + col
			if i >= len(items) {
				break
			}
			cell := items[i] + strings.Repeat(" ", cellWidth-ansi.StringWidth(items[i]))
			if i == selected {
				cell = r.config.SelectedStyle.Render(cell)
			}
			line.WriteString(cell)
		}
		lines = append(lines, strings.TrimRight(line.String(), " "))
	}
	return strings.Join(lines, "\n")
}

// RenderInfoPanel draws content in a bordered panel.
func (r *Renderer) RenderInfoPanel(content InfoPanelContent) string {
	if content == nil || !content.IsVisible() {
		return ""
	}
	body := content.Render(max(1, r.width-4))
	if body == "" {
		return ""
	}
	return r.config.InfoPanelStyle.Width(max(1, r.width-2)).Render(body)
}

// RenderHistorySearchPrompt draws the prompt of the fallback reverse
// search, bash style.
func (r *Renderer) RenderHistorySearchPrompt(state *HistorySearchState, focused bool) string {
	if state == nil || !state.IsActive() {
		return ""
	}

	label := lipgloss.NewStyle().Foreground(render.ColorYellow).Render("(reverse-i-search)")
	query := lipgloss.NewStyle().Bold(true).Render(state.Query())
	cursor := ""
	if focused {
		cursor = r.config.CursorStyle.Render(" ")
	}

	status := ""
	if state.Query() != "" && state.MatchCount() == 0 {
		status = lipgloss.NewStyle().Foreground(render.ColorRed).Render(" [no match]")
	}
	return label + "`" + query + cursor + "'" + status + ": " + state.CurrentMatch()
}

// RenderFullView draws everything below and including the input line.
func (r *Renderer) RenderFullView(prompt string, buffer *Buffer, suggestion string, focused bool, completions *CompletionState, info InfoPanelContent) string {
	var out strings.Builder

	// Start at column 0 even if log output left the cursor mid-line.
	out.WriteString("\r\x1b[K")
	out.WriteString(r.RenderInputLine(prompt, buffer, suggestion, focused))

	if menu := r.RenderCompletionMenu(completions); menu != "" {
		out.WriteString("\n" + menu)
	}
	if panel := r.RenderInfoPanel(info); panel != "" {
		out.WriteString("\n" + panel)
	}
	return out.String()
}

// GhostSuffix returns the part of suggestion beyond text, or "".
func GhostSuffix(text, suggestion string) string {
	if !strings.HasPrefix(suggestion, text) || len(suggestion) <= len(text) {
		return ""
	}
	return suggestion[len(text):]
}

// visibleWindow picks a window of at most size rows around selected.
func visibleWindow(selected, total, size int) (start, end int) {
	if total <= size {
		return 0, total
	}
	start = clamp(selected-size/2, 0, total-size)
	return start, start + size
}
