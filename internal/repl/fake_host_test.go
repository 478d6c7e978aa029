package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atinylittleshell/gep/internal/repl/input"
)

// fakeHost records executed commands and answers settings from a map.
type fakeHost struct {
	params   map[string]string
	prompt   string
	executed []string
	prompts  []string

	// failures maps a command to the error Execute returns for it.
	failures map[string]error
	// panics makes Execute panic for the given command.
	panics string
	// exitOn marks the host exited once the command has run.
	exitOn string
	exited bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		params: map[string]string{
			"history save":              "off",
			"history filename":          "",
			"history remove-duplicates": "0",
			"max-completions":           "200",
		},
		prompt: "(gdb) ",
	}
}

func (h *fakeHost) Parameter(_ context.Context, name string) (string, error) {
	value, ok := h.params[name]
	if !ok {
		return "", fmt.Errorf("no parameter %q", name)
	}
	return value, nil
}

func (h *fakeHost) Execute(_ context.Context, command string, out io.Writer) error {
	h.executed = append(h.executed, command)
	if command == h.panics {
		panic("boom")
	}
	if command == h.exitOn || command == "quit" {
		h.exited = true
	}
	if err, ok := h.failures[command]; ok {
		return err
	}
	fmt.Fprintf(out, "ran %s\n", command)
	return nil
}

func (h *fakeHost) Completions(_ context.Context, prefix string, _ int) ([]string, error) {
	var out []string
	for _, command := range []string{"print", "printf", "ptype", "info frame", "info registers"} {
		if strings.HasPrefix(command, prefix) {
			out = append(out, command)
		}
	}
	return out, nil
}

func (h *fakeHost) HelpText(context.Context, string) (string, bool, error) {
	return "", false, errors.New("no help")
}

func (h *fakeHost) CurrentPrompt(context.Context) (string, error) {
	return h.prompt, nil
}

func (h *fakeHost) SetPrompt(_ context.Context, prompt string) error {
	h.prompts = append(h.prompts, prompt)
	h.prompt = prompt
	return nil
}

func (h *fakeHost) Exited() bool {
	return h.exited
}

// userCommands returns what was executed after session setup.
func (h *fakeHost) userCommands() []string {
	var out []string
	for _, command := range h.executed {
		if command != "set history save off" {
			out = append(out, command)
		}
	}
	return out
}

// scriptedReader replays results and records the prompt of each read.
// Running out of input reads as end of input.
type scriptedReader struct {
	results []input.Result
	prompts []string
	err     error
}

func lines(values ...string) *scriptedReader {
	r := &scriptedReader{}
	for _, value := range values {
		r.results = append(r.results, input.Result{Type: input.ResultSubmit, Value: value})
	}
	return r
}

func (r *scriptedReader) then(result input.Result) *scriptedReader {
	r.results = append(r.results, result)
	return r
}

func (r *scriptedReader) ReadLine(_ context.Context, prompt string) (input.Result, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.results) == 0 {
		if r.err != nil {
			return input.Result{}, r.err
		}
		return input.Result{Type: input.ResultEOF}, nil
	}
	result := r.results[0]
	r.results = r.results[1:]
	return result, nil
}
