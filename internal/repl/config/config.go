// Package config provides configuration management for the gep REPL.
// Configuration lives in a YAML file under the gep data directory and is
// merged over built-in defaults.
package config

// Config holds all REPL configuration.
type Config struct {
	// Prompt overrides the debugger prompt when non-empty.
	Prompt string `yaml:"prompt"`

	// LogLevel controls logging verbosity.
	LogLevel string `yaml:"log_level"`

	Picker     PickerConfig     `yaml:"picker"`
	Keys       KeysConfig       `yaml:"keys"`
	Completion CompletionConfig `yaml:"completion"`
	Repeat     RepeatConfig     `yaml:"repeat"`
	MultiLine  MultiLineConfig  `yaml:"multi_line"`
	History    HistoryConfig    `yaml:"history"`
}

// PickerConfig configures the external fuzzy finder.
type PickerConfig struct {
	// Command is split with shell rules; the first field is the binary.
	Command       string `yaml:"command"`
	Height        string `yaml:"height"`
	PreviewWindow string `yaml:"preview_window"`
}

// KeysConfig holds the trigger key bindings, in bubbletea key notation.
type KeysConfig struct {
	HistorySearch string `yaml:"history_search"`
	Complete      string `yaml:"complete"`
}

type CompletionConfig struct {
	// SingleColumn lists in-editor completions one per line.
	SingleColumn bool `yaml:"single_column"`

	// PerCandidateHelp looks up help for every fuzzy completion candidate,
	// even when they appear to share their parent command's help.
	PerCandidateHelp bool `yaml:"per_candidate_help"`
}

// RepeatConfig extends the built-in repeat-on-empty tables.
type RepeatConfig struct {
	DontRepeat []string `yaml:"dont_repeat"`
	RootOnly   []string `yaml:"root_only"`
}

type MultiLineConfig struct {
	Commands []string `yaml:"commands"`
}

type HistoryConfig struct {
	// File overrides the debugger's history filename.
	File string `yaml:"file"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Picker: PickerConfig{
			Command:       "fzf",
			Height:        "40%",
			PreviewWindow: "right:55%:wrap",
		},
		Completion: CompletionConfig{
			SingleColumn: true,
		},
		Keys: KeysConfig{
			HistorySearch: "ctrl+r",
			Complete:      "tab",
		},
	}
}
