package input

import (
	"context"
	"errors"
	"strings"

	"github.com/atinylittleshell/gep/internal/picker"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	m.result = Result{
		Type:  ResultSubmit,
		Value: m.buffer.Text(),
	}
	return m, tea.Quit
}

func (m Model) handleInterrupt() (tea.Model, tea.Cmd) {
	m.result = Result{Type: ResultInterrupt}
	return m, tea.Quit
}

func (m Model) handleEOF() (tea.Model, tea.Cmd) {
	m.result = Result{Type: ResultEOF}
	return m, tea.Quit
}

// edit runs a buffer mutation and refreshes derived state if the text
// changed.
func (m Model) edit(mutate func()) (tea.Model, tea.Cmd) {
	before := m.buffer.Text()
	mutate()
	if m.buffer.Text() != before {
		return m.onTextChanged()
	}
	return m, nil
}

// handleCharacterForward moves right, or accepts the suggestion at the end
// of the line.
func (m Model) handleCharacterForward() (tea.Model, tea.Cmd) {
	if m.buffer.Pos() < m.buffer.Len() {
		m.buffer.SetPos(m.buffer.Pos() + 1)
		return m, nil
	}
	return m.acceptSuggestion()
}

func (m Model) handleLineEnd() (tea.Model, tea.Cmd) {
	if m.buffer.Pos() < m.buffer.Len() {
		m.buffer.CursorEnd()
		return m, nil
	}
	return m.acceptSuggestion()
}

func (m Model) acceptSuggestion() (tea.Model, tea.Cmd) {
	if GhostSuffix(m.buffer.Text(), m.suggestion) == "" {
		return m, nil
	}
	m.buffer.SetText(m.suggestion)
	m.suggestion = ""
	return m, nil
}

func (m Model) handleInsertRunes(runes []rune) (tea.Model, tea.Cmd) {
	m.buffer.InsertRunes(runes)
	return m.onTextChanged()
}

func (m Model) handlePaste(text string) (tea.Model, tea.Cmd) {
	// The prompt holds a single line; pasted newlines become spaces.
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	if text == "" {
		return m, nil
	}
	m.buffer.Insert(text)
	return m.onTextChanged()
}

// onTextChanged resets history navigation and recomputes the suggestion.
func (m Model) onTextChanged() (tea.Model, tea.Cmd) {
	m.historyIndex = 0
	m.hasNavigatedHistory = false
	m.infoContent = nil
	m.suggestion = SuggestFromHistory(m.historyValues, m.buffer.Text())
	return m, nil
}

func (m Model) handleHistoryPrevious() (tea.Model, tea.Cmd) {
	if m.historyIndex >= len(m.historyValues) {
		return m, nil
	}
	if m.historyIndex == 0 {
		m.savedCurrentInput = m.buffer.Text()
	}
	m.historyIndex++
	m.hasNavigatedHistory = true
	m.buffer.SetText(m.historyValues[m.historyIndex-1])
	m.suggestion = ""
	return m, nil
}

func (m Model) handleHistoryNext() (tea.Model, tea.Cmd) {
	if m.historyIndex == 0 {
		return m, nil
	}
	m.historyIndex--
	if m.historyIndex == 0 {
		m.buffer.SetText(m.savedCurrentInput)
		m.hasNavigatedHistory = false
	} else {
		m.buffer.SetText(m.historyValues[m.historyIndex-1])
	}
	m.suggestion = ""
	return m, nil
}

// handleComplete runs fuzzy completion through the picker, or the
// in-editor menu when no picker is available.
func (m Model) handleComplete() (tea.Model, tea.Cmd) {
	if m.finder != nil && m.completions != nil {
		finder, source, logger := m.finder, m.completions, m.logger
		text := m.buffer.TextBeforeCursor()
		return m.startPicker(func(ctx context.Context) (Edit, bool, error) {
			return RunFuzzyComplete(ctx, finder, source, text, logger)
		})
	}

	if m.completionProvider == nil {
		return m, nil
	}

	text := m.buffer.Text()
	pos := m.buffer.Pos()
	suggestions := m.completionProvider.GetCompletions(text, pos)
	if len(suggestions) == 0 {
		return m, nil
	}

	m.completion.Activate(suggestions, WordStart(text, pos), pos, m.buffer.Snapshot())
	if len(suggestions) == 1 {
		m.completion.Apply(m.buffer, suggestions[0])
		m.completion.Reset()
		m.showCompletionHelp()
		m.suggestion = ""
		return m, nil
	}
	return m.handleCompletionStep(m.completion.Next)
}

// handleCompletionStep moves through the open menu and previews the
// highlighted entry in the line.
func (m Model) handleCompletionStep(step func() string) (tea.Model, tea.Cmd) {
	suggestion := step()
	if suggestion == "" {
		return m, nil
	}
	m.completion.Apply(m.buffer, suggestion)
	m.showCompletionHelp()
	m.suggestion = ""
	return m, nil
}

func (m *Model) showCompletionHelp() {
	if m.completionProvider == nil {
		return
	}
	help := m.completionProvider.GetHelpInfo(m.buffer.Text(), m.buffer.Pos())
	if help == "" {
		m.infoContent = nil
		return
	}
	m.infoContent = NewHelpContent(help)
}

// handleHistorySearch runs reverse history search through the picker, or
// starts the in-editor search when no picker is available.
func (m Model) handleHistorySearch() (tea.Model, tea.Cmd) {
	if m.finder != nil && m.history != nil {
		finder, history, logger := m.finder, m.history, m.logger
		query := m.buffer.TextBeforeCursor()
		return m.startPicker(func(ctx context.Context) (Edit, bool, error) {
			return RunHistorySearch(ctx, finder, history, query, logger)
		})
	}

	if m.history != nil {
		reloadHistory(m.history, m.logger)
		m.historyValues = m.history.GetRecentEntries(0)
	}
	m.historySearch.Start(m.historyValues, m.buffer.Snapshot())
	m.suggestion = ""
	if match := m.historySearch.CurrentMatch(); match != "" {
		m.buffer.SetText(match)
	}
	return m, nil
}

// startPicker hands the terminal to job. The line is snapshotted so a
// cancelled or failed run leaves it untouched.
func (m Model) startPicker(job pickerJob) (tea.Model, tea.Cmd) {
	m.pickerSnapshot = m.buffer.Snapshot()
	m.suggestion = ""
	m.infoContent = nil

	line := m.renderer.RenderInputLine(m.prompt, m.buffer, "", false)
	task := newPickerTask(m.ctx, m.prompt, line, job)
	return m, tea.Exec(task, func(err error) tea.Msg {
		return pickerResultMsg{edit: task.edit, ok: task.ok, err: err}
	})
}

func (m Model) handlePickerResult(msg pickerResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.buffer.Restore(m.pickerSnapshot)
		if errors.Is(msg.err, picker.ErrNotInstalled) {
			m.logger.Warn("fuzzy finder not found, using built-in completion", zap.Error(msg.err))
			m.finder = nil
			m.finderDisabled = true
			m.infoContent = NewHelpContent("fuzzy finder not found; falling back to built-in completion and search")
			return m, nil
		}
		m.logger.Error("fuzzy finder failed", zap.Error(msg.err))
		m.infoContent = NewHelpContent(msg.err.Error())
		return m, nil
	}

	if !msg.ok {
		m.buffer.Restore(m.pickerSnapshot)
		return m, nil
	}

	msg.edit.Apply(m.buffer)
	return m.onTextChanged()
}

// handleHistorySearchKey handles key input while the in-editor search is
// open.
func (m Model) handleHistorySearchKey(msg tea.KeyMsg, action Action) (tea.Model, tea.Cmd) {
	switch action {
	case ActionSubmit:
		m.buffer.SetText(m.historySearch.Accept())
		return m.handleSubmit()

	case ActionCancel, ActionInterrupt:
		m.buffer.Restore(m.historySearch.Cancel())
		return m, nil

	case ActionHistorySearch, ActionCursorUp:
		m.historySearch.NextMatch()
		m.showSearchMatch()
		return m, nil

	case ActionCursorDown:
		m.historySearch.PrevMatch()
		m.showSearchMatch()
		return m, nil

	case ActionDeleteCharacterBackward:
		if m.historySearch.DeleteChar() {
			m.showSearchMatch()
		}
		return m, nil

	case ActionCharacterForward, ActionCharacterBackward, ActionLineStart, ActionLineEnd:
		// Accept the match and keep the cursor movement.
		m.buffer.SetText(m.historySearch.Accept())
		return m.handleKeyMsg(msg)
	}

	if len(msg.Runes) == 0 {
		return m, nil
	}
	for _, r := range msg.Runes {
		if r >= 32 {
			m.historySearch.AddChar(r)
		}
	}
	m.showSearchMatch()
	return m, nil
}

func (m *Model) showSearchMatch() {
	if match := m.historySearch.CurrentMatch(); match != "" {
		m.buffer.SetText(match)
		return
	}
	if m.historySearch.Query() == "" {
		m.buffer.SetText(m.historySearch.original.Text())
	}
}

// pasteMsg is sent when paste content is available.
type pasteMsg string

// Paste returns a command that reads from the clipboard.
func Paste() tea.Msg {
	str, err := clipboard.ReadAll()
	if err != nil {
		return nil
	}
	return pasteMsg(str)
}

// SuggestFromHistory returns the most recent entry that extends text, for
// display as ghost text.
func SuggestFromHistory(entries []string, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, entry := range entries {
		if len(entry) > len(text) && strings.HasPrefix(entry, text) {
			return entry
		}
	}
	return ""
}
