package input

import (
	"slices"
	"unicode"
)

// Buffer is the pending input line: rune storage, a cursor, and an optional
// selection mark. All positions are rune indices.
type Buffer struct {
	runes []rune
	pos   int

	// mark is the other end of the selection, or -1.
	mark int
}

// Snapshot is a saved copy of a buffer's state.
type Snapshot struct {
	text string
	pos  int
	mark int
}

// Text returns the saved text.
func (s Snapshot) Text() string {
	return s.text
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{runes: []rune{}, mark: -1}
}

// NewBufferWithText creates a buffer holding text with the cursor at the end.
func NewBufferWithText(text string) *Buffer {
	b := NewBuffer()
	b.SetText(text)
	return b
}

func (b *Buffer) Text() string {
	return string(b.runes)
}

// Len returns the length of the text in runes.
func (b *Buffer) Len() int {
	return len(b.runes)
}

func (b *Buffer) Pos() int {
	return b.pos
}

// SetText replaces the content and moves the cursor to the end. The
// selection is cleared.
func (b *Buffer) SetText(text string) {
	b.runes = []rune(text)
	b.pos = len(b.runes)
	b.mark = -1
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.SetText("")
}

// SetPos moves the cursor, clamped to the text.
func (b *Buffer) SetPos(pos int) {
	b.pos = clamp(pos, 0, len(b.runes))
}

func (b *Buffer) CursorStart() {
	b.pos = 0
}

func (b *Buffer) CursorEnd() {
	b.pos = len(b.runes)
}

// Snapshot captures text, cursor and selection.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{text: b.Text(), pos: b.pos, mark: b.mark}
}

// Restore returns the buffer to a snapshot.
func (b *Buffer) Restore(s Snapshot) {
	b.runes = []rune(s.text)
	b.pos = clamp(s.pos, 0, len(b.runes))
	b.mark = s.mark
	if b.mark > len(b.runes) {
		b.mark = -1
	}
}

// SetMark starts a selection at the cursor.
func (b *Buffer) SetMark() {
	b.mark = b.pos
}

// ClearMark drops the selection.
func (b *Buffer) ClearMark() {
	b.mark = -1
}

// Selection returns the selected range, if any.
func (b *Buffer) Selection() (start, end int, ok bool) {
	if b.mark < 0 || b.mark == b.pos {
		return 0, 0, false
	}
	return min(b.mark, b.pos), max(b.mark, b.pos), true
}

// Insert inserts text at the cursor and moves the cursor past it.
func (b *Buffer) Insert(text string) {
	b.InsertRunes([]rune(text))
}

// InsertRunes inserts runes at the cursor and moves the cursor past them.
func (b *Buffer) InsertRunes(runes []rune) {
	if len(runes) == 0 {
		return
	}
	b.runes = slices.Insert(b.runes, b.pos, runes...)
	b.pos += len(runes)
	b.mark = -1
}

// ReplaceBeforeCursor deletes n runes before the cursor and inserts text in
// their place.
func (b *Buffer) ReplaceBeforeCursor(n int, text string) {
	n = clamp(n, 0, b.pos)
	b.deleteRange(b.pos-n, b.pos)
	b.Insert(text)
}

func (b *Buffer) deleteRange(start, end int) {
	if start >= end {
		return
	}
	b.runes = slices.Delete(b.runes, start, end)
	b.pos = start
	b.mark = -1
}

// DeleteCharBackward deletes the rune before the cursor.
func (b *Buffer) DeleteCharBackward() bool {
	if b.pos == 0 {
		return false
	}
	b.deleteRange(b.pos-1, b.pos)
	return true
}

// DeleteCharForward deletes the rune under the cursor.
func (b *Buffer) DeleteCharForward() bool {
	if b.pos >= len(b.runes) {
		return false
	}
	pos := b.pos
	b.deleteRange(pos, pos+1)
	return true
}

// DeleteBeforeCursor deletes from the start of the line to the cursor.
func (b *Buffer) DeleteBeforeCursor() {
	b.deleteRange(0, b.pos)
}

// DeleteAfterCursor deletes from the cursor to the end of the line.
func (b *Buffer) DeleteAfterCursor() {
	pos := b.pos
	b.deleteRange(pos, len(b.runes))
	b.pos = pos
}

// DeleteWordBackward deletes the word before the cursor.
func (b *Buffer) DeleteWordBackward() {
	end := b.pos
	b.deleteRange(b.wordStart(), end)
}

// DeleteWordForward deletes the word after the cursor.
func (b *Buffer) DeleteWordForward() {
	start := b.pos
	b.deleteRange(start, b.wordEnd())
	b.pos = start
}

// WordBackward moves to the start of the previous whitespace-delimited word.
func (b *Buffer) WordBackward() {
	b.pos = b.wordStart()
}

// WordForward moves past the end of the next whitespace-delimited word.
func (b *Buffer) WordForward() {
	b.pos = b.wordEnd()
}

func (b *Buffer) wordStart() int {
	i := b.pos
	for i > 0 && unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	return i
}

func (b *Buffer) wordEnd() int {
	i := b.pos
	for i < len(b.runes) && unicode.IsSpace(b.runes[i]) {
		i++
	}
	for i < len(b.runes) && !unicode.IsSpace(b.runes[i]) {
		i++
	}
	return i
}

// TextBeforeCursor returns the text left of the cursor.
func (b *Buffer) TextBeforeCursor() string {
	return string(b.runes[:b.pos])
}

// TextAfterCursor returns the text right of the cursor.
func (b *Buffer) TextAfterCursor() string {
	return string(b.runes[b.pos:])
}

func clamp(v, low, high int) int {
	return max(low, min(v, high))
}
