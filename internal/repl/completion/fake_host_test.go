package completion

import (
	"context"
	"errors"
	"strings"
)

var errUnknownCommand = errors.New("undefined command")

// fakeHost answers completions by prefix match over a fixed list and help
// from a map. Names missing from help are unknown.
type fakeHost struct {
	commands    []string
	help        map[string]string
	calls       int
	helpCalls   int
	failListing bool
}

func (h *fakeHost) Completions(_ context.Context, prefix string, limit int) ([]string, error) {
	h.calls++
	if h.failListing {
		return nil, errors.New("host is busy")
	}
	var out []string
	for _, command := range h.commands {
		if strings.HasPrefix(command, prefix) {
			out = append(out, command)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *fakeHost) HelpText(_ context.Context, name string) (string, bool, error) {
	h.helpCalls++
	text, ok := h.help[name]
	if !ok {
		return "", false, errUnknownCommand
	}
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}
