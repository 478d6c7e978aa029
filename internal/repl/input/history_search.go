package input

import (
	"github.com/sahilm/fuzzy"
)

// HistorySearchState is the in-editor reverse search used when no fuzzy
// picker is installed. Matches are ranked by fuzzy score, ties broken by
// recency.
type HistorySearchState struct {
	active     bool
	query      string
	entries    []string
	matches    []string
	matchIndex int
	original   Snapshot
}

func NewHistorySearchState() *HistorySearchState {
	return &HistorySearchState{}
}

func (s *HistorySearchState) IsActive() bool {
	return s.active
}

func (s *HistorySearchState) Query() string {
	return s.query
}

// Start begins a search over entries, most recent first.
func (s *HistorySearchState) Start(entries []string, original Snapshot) {
	*s = HistorySearchState{
		active:   true,
		entries:  entries,
		original: original,
	}
	s.refresh()
}

// CurrentMatch returns the highlighted match, or "".
func (s *HistorySearchState) CurrentMatch() string {
	if s.matchIndex < 0 || s.matchIndex >= len(s.matches) {
		return ""
	}
	return s.matches[s.matchIndex]
}

func (s *HistorySearchState) MatchIndex() int {
	return s.matchIndex
}

func (s *HistorySearchState) MatchCount() int {
	return len(s.matches)
}

// AddChar extends the query.
func (s *HistorySearchState) AddChar(r rune) {
	s.query += string(r)
	s.refresh()
}

// DeleteChar shortens the query by one rune.
func (s *HistorySearchState) DeleteChar() bool {
	runes := []rune(s.query)
	if len(runes) == 0 {
		return false
	}
	s.query = string(runes[:len(runes)-1])
	s.refresh()
	return true
}

// NextMatch moves to the next older match.
func (s *HistorySearchState) NextMatch() bool {
	if s.matchIndex >= len(s.matches)-1 {
		return false
	}
	s.matchIndex++
	return true
}

// PrevMatch moves to the next newer match.
func (s *HistorySearchState) PrevMatch() bool {
	if s.matchIndex <= 0 {
		return false
	}
	s.matchIndex--
	return true
}

// Accept ends the search, returning the highlighted match or, with no
// match, the original line.
func (s *HistorySearchState) Accept() string {
	result := s.CurrentMatch()
	if result == "" {
		result = s.original.Text()
	}
	s.Reset()
	return result
}

// Cancel ends the search and returns the line from before it started.
func (s *HistorySearchState) Cancel() Snapshot {
	original := s.original
	s.Reset()
	return original
}

func (s *HistorySearchState) Reset() {
	*s = HistorySearchState{}
}

func (s *HistorySearchState) refresh() {
	s.matchIndex = 0
	if s.query == "" {
		s.matches = s.entries
		return
	}

	found := fuzzy.Find(s.query, s.entries)
	s.matches = make([]string, len(found))
	for i, m := range found {
		s.matches[i] = m.Str
	}
}
