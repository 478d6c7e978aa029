package completion

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
)

var nonWord = regexp.MustCompile(`\W+`)

// CommonPrefix returns the longest common leading substring of items.
func CommonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}

	first := slices.Min(items)
	last := slices.Max(items)
	i := 0
	for i < len(first) && first[i] == last[i] {
		i++
	}
	for i > 0 && i < len(first) && !utf8.RuneStart(first[i]) {
		i--
	}
	return first[:i]
}

// LastWord returns the final word fragment of text, splitting on runs of
// non-word characters. Text ending in a separator yields "".
func LastWord(text string) string {
	parts := nonWord.Split(text, -1)
	return parts[len(parts)-1]
}

// RootToken returns the first word of a command line.
func RootToken(line string) string {
	return nonWord.Split(strings.TrimSpace(line), 2)[0]
}

// Plan describes one fuzzy tab completion: what to send to the picker and
// how to splice the selection back into the line.
type Plan struct {
	// Target is the text before the cursor without leading whitespace.
	Target string
	// Prefix is the common prefix of every candidate and Target.
	Prefix string
	// Query is the trailing word of Prefix, used as the picker query.
	Query string
	// Candidates are the raw completions, in host order.
	Candidates []string
	// Entries are the picker lines, index-aligned with Candidates.
	Entries []string
}

// NewPlan builds a completion plan. Candidates extending the typed text are
// preferred; when none do, all are kept. It returns false when there is
// nothing to complete.
func NewPlan(textBeforeCursor string, completions []string) (Plan, bool) {
	target := strings.TrimLeftFunc(textBeforeCursor, unicode.IsSpace)

	candidates := lo.Filter(completions, func(c string, _ int) bool {
		return strings.HasPrefix(c, target)
	})
	if len(candidates) == 0 {
		candidates = completions
	}
	if len(candidates) == 0 {
		return Plan{}, false
	}

	prefix := CommonPrefix([]string{CommonPrefix(candidates), target})
	query := LastWord(prefix)
	offset := len(prefix) - len(query)

	quoted := strings.HasSuffix(prefix, "'"+query)
	entries := make([]string, len(candidates))
	for i, candidate := range candidates {
		entry := candidate[offset:]
		if quoted && !strings.HasSuffix(candidate, "'") {
			entry += "'"
		}
		entries[i] = entry
	}

	return Plan{
		Target:     target,
		Prefix:     prefix,
		Query:      query,
		Candidates: candidates,
		Entries:    entries,
	}, true
}

// Splice converts a picker selection into an edit of the line: delete runes
// before the cursor, then insert text.
func (p Plan) Splice(selection string) (deleteRunes int, insert string) {
	selection = strings.TrimRightFunc(selection, unicode.IsSpace)
	if strings.HasPrefix(p.Target, p.Prefix+"'") &&
		!strings.HasPrefix(selection, "'") &&
		strings.HasSuffix(selection, "'") {
		selection = "'" + selection
	}

	deleteRunes = utf8.RuneCountInString(p.Target[len(p.Prefix):])
	if len(selection) >= len(p.Query) {
		insert = strings.TrimRightFunc(selection[len(p.Query):], unicode.IsSpace)
	}
	return deleteRunes, insert
}
