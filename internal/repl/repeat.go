package repl

import (
	"strings"

	"github.com/atinylittleshell/gep/internal/repl/completion"
)

// RepeatCommand returns the command an empty line runs, given the last
// history entry. Blocked commands resolve to "", stepping and memory
// examination drop their arguments, and list keeps only a trailing "-".
func (s *Session) RepeatCommand(last string) string {
	full := strings.TrimSpace(last)
	if full == "" {
		return ""
	}

	root := completion.RootToken(full)
	if _, ok := s.rootOnly[root]; ok {
		return root
	}
	if root == "list" || root == "l" {
		if strings.HasSuffix(full, "-") {
			return full
		}
		return root
	}
	if _, ok := s.dontRepeat[root]; ok {
		return ""
	}
	return full
}

// repeatLast resolves an empty line against the history log.
func (s *Session) repeatLast() string {
	last, ok := s.history.Last()
	if !ok {
		return ""
	}
	return s.RepeatCommand(last)
}
