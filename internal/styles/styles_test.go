package styles

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestStylesKeepText(t *testing.T) {
	assert.Equal(t, "gep: gdb exited", ansi.Strip(ERROR("gep: gdb exited")))
	assert.Equal(t, "fzf not found", ansi.Strip(WARNING("fzf not found")))
}
