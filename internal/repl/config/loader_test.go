package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoadFromFileMissing(t *testing.T) {
	loader := NewLoader(zaptest.NewLogger(t))

	result, err := loader.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, DefaultConfig(), result.Config)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
prompt: "(dbg) "
log_level: debug
picker:
  command: "fzf --no-mouse"
  height: "60%"
keys:
  history_search: ctrl+s
completion:
  single_column: false
  per_candidate_help: true
repeat:
  dont_repeat: [finish, until]
  root_only: [up]
multi_line:
  commands: [alias-block]
history:
  file: /tmp/gdb_history
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loader := NewLoader(zaptest.NewLogger(t))
	result, err := loader.LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	cfg := result.Config
	assert.Equal(t, "(dbg) ", cfg.Prompt)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "fzf --no-mouse", cfg.Picker.Command)
	assert.Equal(t, "60%", cfg.Picker.Height)
	assert.Equal(t, "right:55%:wrap", cfg.Picker.PreviewWindow, "unset values keep defaults")
	assert.Equal(t, "ctrl+s", cfg.Keys.HistorySearch)
	assert.Equal(t, "tab", cfg.Keys.Complete)
	assert.False(t, cfg.Completion.SingleColumn)
	assert.True(t, cfg.Completion.PerCandidateHelp)
	assert.Equal(t, []string{"finish", "until"}, cfg.Repeat.DontRepeat)
	assert.Equal(t, []string{"up"}, cfg.Repeat.RootOnly)
	assert.Equal(t, []string{"alias-block"}, cfg.MultiLine.Commands)
	assert.Equal(t, "/tmp/gdb_history", cfg.History.File)
}

func TestLoadFromStringErrors(t *testing.T) {
	loader := NewLoader(zaptest.NewLogger(t))

	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, cfg *Config)
	}{
		{
			name:   "malformed yaml falls back to defaults",
			source: "picker: [unclosed",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name:   "bad log level is reset",
			source: "log_level: loud",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.LogLevel)
			},
		},
		{
			name:   "unbalanced quote in picker command is reset",
			source: "picker:\n  command: \"fzf '--height\"",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "fzf", cfg.Picker.Command)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := loader.LoadFromString(tt.source)
			require.NoError(t, err)
			assert.Len(t, result.Errors, 1)
			tt.check(t, result.Config)
		})
	}
}

func TestLoadFromStringEmpty(t *testing.T) {
	loader := NewLoader(nil)

	result, err := loader.LoadFromString("  \n")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, DefaultConfig(), result.Config)
}
