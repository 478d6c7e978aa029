package input

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func plain(s string) string {
	return ansi.Strip(s)
}

func TestRenderInputLine(t *testing.T) {
	r := NewRenderer(DefaultRenderConfig())

	t.Run("cursor at end", func(t *testing.T) {
		out := plain(r.RenderInputLine("(gdb) ", NewBufferWithText("bt"), "", true))
		assert.Equal(t, "(gdb) bt ", out)
	})

	t.Run("ghost suggestion", func(t *testing.T) {
		out := plain(r.RenderInputLine("(gdb) ", NewBufferWithText("pri"), "print x", true))
		assert.Equal(t, "(gdb) print x", out)
	})

	t.Run("suggestion hidden when cursor is inside the line", func(t *testing.T) {
		b := NewBufferWithText("pri")
		b.SetPos(1)
		out := plain(r.RenderInputLine("(gdb) ", b, "print x", true))
		assert.Equal(t, "(gdb) pri", out)
	})

	t.Run("unfocused has no cursor cell", func(t *testing.T) {
		out := plain(r.RenderInputLine("(gdb) ", NewBufferWithText("bt"), "", false))
		assert.Equal(t, "(gdb) bt", out)
	})
}

func TestRenderInputLineWraps(t *testing.T) {
	r := NewRenderer(DefaultRenderConfig())
	r.SetWidth(10)

	out := plain(r.RenderInputLine("> ", NewBufferWithText("abcdefghijkl"), "", false))
	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{"> abcdefgh", "ijkl"}, lines)
}

func TestRenderCompletionMenu(t *testing.T) {
	r := NewRenderer(DefaultRenderConfig())
	cs := NewCompletionState()
	assert.Empty(t, r.RenderCompletionMenu(cs))

	cs.Activate([]string{"registers", "record"}, 0, 0, Snapshot{})
	cs.Next()
	out := plain(r.RenderCompletionMenu(cs))
	assert.Contains(t, out, "> registers")
	assert.Contains(t, out, "  record")
}

func TestRenderCompletionMenuScrolls(t *testing.T) {
	config := DefaultRenderConfig()
	config.MenuRows = 3
	r := NewRenderer(config)

	cs := NewCompletionState()
	cs.Activate([]string{"a1", "a2", "a3", "a4", "a5", "a6"}, 0, 0, Snapshot{})
	for range 5 {
		cs.Next()
	}

	out := plain(r.RenderCompletionMenu(cs))
	assert.Contains(t, out, "> a5")
	assert.NotContains(t, out, "a1")
	assert.Contains(t, out, "↑")
}

func TestRenderCompletionMenuMultiColumn(t *testing.T) {
	config := DefaultRenderConfig()
	config.SingleColumn = false
	r := NewRenderer(config)
	r.SetWidth(40)

	cs := NewCompletionState()
	cs.Activate([]string{"print", "printf", "ptype"}, 0, 0, Snapshot{})
	out := plain(r.RenderCompletionMenu(cs))
	assert.Contains(t, out, "print   printf  ptype")
}

func TestRenderInfoPanel(t *testing.T) {
	r := NewRenderer(DefaultRenderConfig())
	assert.Empty(t, r.RenderInfoPanel(nil))
	assert.Empty(t, r.RenderInfoPanel(NewHelpContent("")))
	assert.Contains(t, plain(r.RenderInfoPanel(NewHelpContent("Print value of expression EXP."))), "Print value")
}

func TestRenderHistorySearchPrompt(t *testing.T) {
	r := NewRenderer(DefaultRenderConfig())
	s := NewHistorySearchState()
	assert.Empty(t, r.RenderHistorySearchPrompt(s, true))

	s.Start([]string{"break main"}, Snapshot{})
	s.AddChar('b')
	assert.Equal(t, "(reverse-i-search)`b': break main", plain(r.RenderHistorySearchPrompt(s, false)))

	s.AddChar('z')
	assert.Contains(t, plain(r.RenderHistorySearchPrompt(s, false)), "[no match]")
}

func TestGhostSuffix(t *testing.T) {
	assert.Equal(t, "nt x", GhostSuffix("pri", "print x"))
	assert.Equal(t, "", GhostSuffix("print x", "print x"))
	assert.Equal(t, "", GhostSuffix("bt", "print x"))
}
