package input

import (
	"strings"
	"unicode"

	"github.com/muesli/reflow/wordwrap"
)

// InfoPanelContent is something shown below the input line.
type InfoPanelContent interface {
	// Render returns the panel body for the given inner width.
	Render(width int) string

	IsVisible() bool
}

// CompletionProvider supplies in-editor completions when no fuzzy picker is
// available. Suggestions replace the word ending at the cursor.
type CompletionProvider interface {
	GetCompletions(line string, pos int) []string

	// GetHelpInfo returns documentation for the command typed before pos,
	// or "".
	GetHelpInfo(line string, pos int) string
}

// CompletionState is the in-editor completion menu. Positions are rune
// indices into the line.
type CompletionState struct {
	active      bool
	suggestions []string
	selected    int

	// start is where the replaced word begins; end is where the current
	// suggestion ends.
	start int
	end   int

	original Snapshot
}

func NewCompletionState() *CompletionState {
	return &CompletionState{selected: -1}
}

func (cs *CompletionState) Reset() {
	*cs = CompletionState{selected: -1}
}

// Activate opens the menu over the word spanning [start, end).
func (cs *CompletionState) Activate(suggestions []string, start, end int, original Snapshot) {
	cs.active = true
	cs.suggestions = suggestions
	cs.selected = -1
	cs.start = start
	cs.end = end
	cs.original = original
}

func (cs *CompletionState) IsActive() bool {
	return cs.active
}

// IsVisible reports whether there is a menu worth drawing.
func (cs *CompletionState) IsVisible() bool {
	return cs.active && len(cs.suggestions) > 1
}

func (cs *CompletionState) Suggestions() []string {
	return cs.suggestions
}

func (cs *CompletionState) Selected() int {
	return cs.selected
}

// Current returns the highlighted suggestion, or "".
func (cs *CompletionState) Current() string {
	if cs.selected < 0 || cs.selected >= len(cs.suggestions) {
		return ""
	}
	return cs.suggestions[cs.selected]
}

// Next moves the highlight forward, wrapping around.
func (cs *CompletionState) Next() string {
	if len(cs.suggestions) == 0 {
		return ""
	}
	cs.selected = (cs.selected + 1) % len(cs.suggestions)
	return cs.suggestions[cs.selected]
}

// Prev moves the highlight backward, wrapping around.
func (cs *CompletionState) Prev() string {
	if len(cs.suggestions) == 0 {
		return ""
	}
	if cs.selected <= 0 {
		cs.selected = len(cs.suggestions) - 1
	} else {
		cs.selected--
	}
	return cs.suggestions[cs.selected]
}

// Apply writes suggestion over the replaced word.
func (cs *CompletionState) Apply(b *Buffer, suggestion string) {
	b.SetPos(cs.end)
	b.ReplaceBeforeCursor(cs.end-cs.start, suggestion)
	cs.end = b.Pos()
}

// Cancel closes the menu and returns the line as it was before completion.
func (cs *CompletionState) Cancel() Snapshot {
	original := cs.original
	cs.Reset()
	return original
}

// HelpContent is a passive panel of wrapped documentation.
type HelpContent struct {
	text string
}

func NewHelpContent(text string) *HelpContent {
	return &HelpContent{text: strings.TrimSpace(text)}
}

func (h *HelpContent) Render(width int) string {
	if width <= 0 {
		return h.text
	}
	return wordwrap.String(h.text, width)
}

func (h *HelpContent) IsVisible() bool {
	return h != nil && h.text != ""
}

func (h *HelpContent) Text() string {
	return h.text
}

// WordStart returns the rune index where the whitespace-delimited word
// ending at pos begins.
func WordStart(text string, pos int) int {
	runes := []rune(text)
	pos = clamp(pos, 0, len(runes))
	start := pos
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	return start
}
