// Package input provides the line editor for the gep prompt. It is a Bubble
// Tea component that handles text input, cursor movement, key bindings,
// history navigation and tab completion, and hands the terminal to the
// external fuzzy picker for reverse history search and completion.
package input

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ResultType indicates the type of result from the input component.
type ResultType int

const (
	// ResultNone indicates no result yet (still editing).
	ResultNone ResultType = iota
	// ResultSubmit indicates the user submitted the input (Enter).
	ResultSubmit
	// ResultInterrupt indicates the user interrupted (Ctrl+C).
	ResultInterrupt
	// ResultEOF indicates end of input (Ctrl+D on empty line).
	ResultEOF
)

func (t ResultType) String() string {
	switch t {
	case ResultNone:
		return "none"
	case ResultSubmit:
		return "submit"
	case ResultInterrupt:
		return "interrupt"
	case ResultEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Result contains the outcome of an input session.
type Result struct {
	Type ResultType
	// Value is the input text (empty for interrupt/EOF).
	Value string
}

// Model is the Bubble Tea model for the line editor.
type Model struct {
	ctx context.Context

	buffer  *Buffer
	keymap  *KeyMap
	focused bool
	prompt  string

	// History navigation. Index 0 is the line being edited, 1+ are entries
	// from history, most recent first.
	history             HistorySource
	historyValues       []string
	historyIndex        int
	savedCurrentInput   string
	hasNavigatedHistory bool

	completion         *CompletionState
	completionProvider CompletionProvider
	historySearch      *HistorySearchState

	// Fuzzy picker. A nil finder selects the in-editor fallbacks.
	finder         Finder
	completions    CompletionSource
	finderDisabled bool
	pickerSnapshot Snapshot

	suggestion string

	renderer    *Renderer
	width       int
	infoContent InfoPanelContent

	result Result
	logger *zap.Logger
}

// Config holds configuration for creating a new Model.
type Config struct {
	Prompt string

	// History supplies past commands for navigation, search and
	// suggestions.
	History HistorySource

	// CompletionProvider drives in-editor tab completion.
	CompletionProvider CompletionProvider

	// Finder and Completions enable fuzzy history search and completion.
	// Both may be nil.
	Finder      Finder
	Completions CompletionSource

	// KeyMap provides key bindings. If nil, DefaultKeyMap is used.
	KeyMap *KeyMap

	// RenderConfig provides styling. If nil, DefaultRenderConfig is used.
	RenderConfig *RenderConfig

	Width int

	// Context bounds picker runs and host lookups. Defaults to
	// context.Background.
	Context context.Context

	Logger *zap.Logger
}

// New creates a new input Model with the given configuration.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	keymap := cfg.KeyMap
	if keymap == nil {
		keymap = DefaultKeyMap()
	}

	renderConfig := DefaultRenderConfig()
	if cfg.RenderConfig != nil {
		renderConfig = *cfg.RenderConfig
	}

	width := cfg.Width
	if width <= 0 {
		width = 80
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var historyValues []string
	if cfg.History != nil {
		historyValues = cfg.History.GetRecentEntries(0)
	}

	renderer := NewRenderer(renderConfig)
	renderer.SetWidth(width)

	return Model{
		ctx:                ctx,
		buffer:             NewBuffer(),
		keymap:             keymap,
		focused:            true,
		prompt:             cfg.Prompt,
		history:            cfg.History,
		historyValues:      historyValues,
		completion:         NewCompletionState(),
		completionProvider: cfg.CompletionProvider,
		historySearch:      NewHistorySearchState(),
		finder:             cfg.Finder,
		completions:        cfg.Completions,
		renderer:           renderer,
		width:              width,
		result:             Result{Type: ResultNone},
		logger:             logger,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. It handles all input events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.renderer.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case pickerResultMsg:
		return m.handlePickerResult(msg)

	case pasteMsg:
		return m.handlePaste(string(msg))
	}

	return m, nil
}

// View implements tea.Model. It renders the input component.
func (m Model) View() string {
	if m.result.Type != ResultNone {
		// The REPL prints the final line itself so it persists in the
		// terminal scrollback.
		return ""
	}

	if m.historySearch.IsActive() {
		return m.renderer.RenderHistorySearchPrompt(m.historySearch, m.focused) + "\n" +
			m.renderer.RenderInputLine(m.prompt, m.buffer, "", m.focused)
	}

	return m.renderer.RenderFullView(
		m.prompt,
		m.buffer,
		m.suggestion,
		m.focused,
		m.completion,
		m.infoContent,
	)
}

// Result returns the current result. Check Type != ResultNone to see if complete.
func (m Model) Result() Result {
	return m.result
}

// Value returns the current input text.
func (m Model) Value() string {
	return m.buffer.Text()
}

// SetValue sets the input text and moves cursor to end.
func (m *Model) SetValue(text string) {
	m.buffer.SetText(text)
	m.historyIndex = 0
	m.hasNavigatedHistory = false
	m.suggestion = SuggestFromHistory(m.historyValues, text)
}

func (m *Model) Focus() {
	m.focused = true
}

func (m *Model) Blur() {
	m.focused = false
}

func (m Model) Focused() bool {
	return m.focused
}

func (m *Model) SetPrompt(prompt string) {
	m.prompt = prompt
}

func (m Model) Prompt() string {
	return m.prompt
}

// FinderDisabled reports whether the picker turned out to be unavailable
// during this session, so callers can stop offering it.
func (m Model) FinderDisabled() bool {
	return m.finderDisabled
}

// Suggestion returns the history entry currently offered as ghost text.
func (m Model) Suggestion() string {
	return m.suggestion
}

// Buffer returns the underlying buffer (for testing).
func (m Model) Buffer() *Buffer {
	return m.buffer
}

// Completion returns the completion state (for testing).
func (m Model) Completion() *CompletionState {
	return m.completion
}

// HistorySearch returns the in-editor search state (for testing).
func (m Model) HistorySearch() *HistorySearchState {
	return m.historySearch
}

// handleKeyMsg processes keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keymap.Lookup(msg)

	if m.historySearch.IsActive() {
		return m.handleHistorySearchKey(msg, action)
	}

	if m.completion.IsActive() {
		switch action {
		case ActionComplete, ActionCursorDown:
			return m.handleCompletionStep(m.completion.Next)
		case ActionCompleteBackward, ActionCursorUp:
			return m.handleCompletionStep(m.completion.Prev)
		case ActionCancel:
			m.buffer.Restore(m.completion.Cancel())
			m.infoContent = nil
			return m, nil
		case ActionSubmit:
			m.completion.Reset()
			m.infoContent = nil
			return m.handleSubmit()
		}
		// Any other key accepts the current completion.
		m.completion.Reset()
		m.infoContent = nil
	}

	switch action {
	case ActionSubmit:
		return m.handleSubmit()

	case ActionInterrupt:
		return m.handleInterrupt()

	case ActionDeleteCharacterForward:
		if m.buffer.Len() == 0 {
			return m.handleEOF()
		}
		return m.edit(func() { m.buffer.DeleteCharForward() })

	case ActionClearScreen:
		return m, tea.ClearScreen

	case ActionPaste:
		return m, Paste

	case ActionComplete:
		return m.handleComplete()

	case ActionCompleteBackward:
		return m, nil

	case ActionHistorySearch:
		return m.handleHistorySearch()

	case ActionCancel:
		m.infoContent = nil
		return m, nil

	case ActionCharacterForward:
		return m.handleCharacterForward()

	case ActionCharacterBackward:
		m.buffer.SetPos(m.buffer.Pos() - 1)
		return m, nil

	case ActionWordForward:
		m.buffer.WordForward()
		return m, nil

	case ActionWordBackward:
		m.buffer.WordBackward()
		return m, nil

	case ActionLineStart:
		m.buffer.CursorStart()
		return m, nil

	case ActionLineEnd:
		return m.handleLineEnd()

	case ActionDeleteCharacterBackward:
		return m.edit(func() { m.buffer.DeleteCharBackward() })

	case ActionDeleteWordBackward:
		return m.edit(m.buffer.DeleteWordBackward)

	case ActionDeleteWordForward:
		return m.edit(m.buffer.DeleteWordForward)

	case ActionDeleteBeforeCursor:
		return m.edit(m.buffer.DeleteBeforeCursor)

	case ActionDeleteAfterCursor:
		return m.edit(m.buffer.DeleteAfterCursor)

	case ActionCursorUp:
		return m.handleHistoryPrevious()

	case ActionCursorDown:
		return m.handleHistoryNext()

	default:
		if len(msg.Runes) > 0 {
			return m.handleInsertRunes(msg.Runes)
		}
	}

	return m, nil
}
