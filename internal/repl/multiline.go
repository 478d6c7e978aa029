package repl

import (
	"fmt"
	"strings"

	"github.com/atinylittleshell/gep/internal/repl/completion"
)

// Block accumulates the lines of a multi-line command until every opened
// body has been closed with "end".
type Block struct {
	session *Session
	lines   []string
	depth   int
	python  bool
}

// OpensBlock reports whether line starts a command with a body. An inline
// script such as "py print(1)" is complete on its own.
func (s *Session) OpensBlock(line string) bool {
	root := completion.RootToken(line)
	if !s.isMultiLine(root) {
		return false
	}
	return !isInlineScript(root, line)
}

func isInlineScript(root, line string) bool {
	if root != "py" && root != "python" {
		return false
	}
	trimmed := strings.TrimSpace(line)
	return trimmed != "py" && trimmed != "python"
}

// NewBlock starts a block with its opening line.
func (s *Session) NewBlock(first string) *Block {
	root := completion.RootToken(first)
	return &Block{
		session: s,
		lines:   []string{first},
		depth:   1,
		python:  root == "py" || root == "python",
	}
}

// Add appends a body line and reports whether the block is complete.
// Nested openers are not counted inside a python body.
func (b *Block) Add(line string) bool {
	b.lines = append(b.lines, line)

	root := completion.RootToken(line)
	switch {
	case !b.python && b.session.OpensBlock(line):
		b.depth++
	case root == "end":
		b.depth--
	}
	return b.depth <= 0
}

// CloseInnermost ends the innermost open body, as end of input does, and
// reports whether the block is complete.
func (b *Block) CloseInnermost() bool {
	b.lines = append(b.lines, "end")
	b.depth--
	return b.depth <= 0
}

func (b *Block) Depth() int {
	return b.depth
}

// String returns the whole command, one line per body line.
func (b *Block) String() string {
	return strings.Join(b.lines, "\n")
}

// ContinuationPrompt returns ">" right-aligned to the nesting depth.
func ContinuationPrompt(depth int) string {
	return fmt.Sprintf("%*s", max(depth, 1), ">")
}
