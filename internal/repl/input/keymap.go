package input

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is an editor operation triggered by a key binding.
type Action int

const (
	ActionNone Action = iota

	ActionCharacterForward
	ActionCharacterBackward
	ActionWordForward
	ActionWordBackward
	ActionLineStart
	ActionLineEnd

	ActionDeleteCharacterBackward
	ActionDeleteCharacterForward
	ActionDeleteWordBackward
	ActionDeleteWordForward
	ActionDeleteBeforeCursor
	ActionDeleteAfterCursor

	// Up and Down walk history, or the completion menu when it is open.
	ActionCursorUp
	ActionCursorDown

	ActionComplete
	ActionCompleteBackward
	ActionHistorySearch

	ActionSubmit
	ActionCancel
	ActionInterrupt
	ActionClearScreen
	ActionPaste
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionCharacterForward:
		return "CharacterForward"
	case ActionCharacterBackward:
		return "CharacterBackward"
	case ActionWordForward:
		return "WordForward"
	case ActionWordBackward:
		return "WordBackward"
	case ActionLineStart:
		return "LineStart"
	case ActionLineEnd:
		return "LineEnd"
	case ActionDeleteCharacterBackward:
		return "DeleteCharacterBackward"
	case ActionDeleteCharacterForward:
		return "DeleteCharacterForward"
	case ActionDeleteWordBackward:
		return "DeleteWordBackward"
	case ActionDeleteWordForward:
		return "DeleteWordForward"
	case ActionDeleteBeforeCursor:
		return "DeleteBeforeCursor"
	case ActionDeleteAfterCursor:
		return "DeleteAfterCursor"
	case ActionCursorUp:
		return "CursorUp"
	case ActionCursorDown:
		return "CursorDown"
	case ActionComplete:
		return "Complete"
	case ActionCompleteBackward:
		return "CompleteBackward"
	case ActionHistorySearch:
		return "HistorySearch"
	case ActionSubmit:
		return "Submit"
	case ActionCancel:
		return "Cancel"
	case ActionInterrupt:
		return "Interrupt"
	case ActionClearScreen:
		return "ClearScreen"
	case ActionPaste:
		return "Paste"
	default:
		return "Unknown"
	}
}

// KeyBinding maps a set of keys to an action.
type KeyBinding struct {
	Action  Action
	Binding key.Binding
}

// Bind builds a KeyBinding. The first key is used in help text.
func Bind(action Action, help string, keys ...string) KeyBinding {
	opts := []key.BindingOpt{key.WithKeys(keys...)}
	if len(keys) > 0 {
		opts = append(opts, key.WithHelp(keys[0], help))
	}
	return KeyBinding{Action: action, Binding: key.NewBinding(opts...)}
}

// KeyMap resolves key presses to actions through a flat lookup table.
type KeyMap struct {
	bindings []KeyBinding
	lookup   map[string]Action
}

// NewKeyMap creates a KeyMap. Later bindings win when keys collide.
func NewKeyMap(bindings []KeyBinding) *KeyMap {
	km := &KeyMap{bindings: bindings}
	km.rebuildLookup()
	return km
}

func (km *KeyMap) rebuildLookup() {
	km.lookup = make(map[string]Action)
	for _, b := range km.bindings {
		if !b.Binding.Enabled() {
			continue
		}
		for _, k := range b.Binding.Keys() {
			km.lookup[k] = b.Action
		}
	}
}

// DefaultKeyMap returns Emacs-style bindings.
func DefaultKeyMap() *KeyMap {
	return NewKeyMap([]KeyBinding{
		Bind(ActionCharacterForward, "forward / accept suggestion", "right", "ctrl+f"),
		Bind(ActionCharacterBackward, "backward", "left", "ctrl+b"),
		Bind(ActionWordForward, "next word", "alt+right", "ctrl+right", "alt+f"),
		Bind(ActionWordBackward, "previous word", "alt+left", "ctrl+left", "alt+b"),
		Bind(ActionLineStart, "line start", "home", "ctrl+a"),
		Bind(ActionLineEnd, "line end / accept suggestion", "end", "ctrl+e"),

		Bind(ActionDeleteCharacterBackward, "delete backward", "backspace", "ctrl+h"),
		Bind(ActionDeleteCharacterForward, "delete forward / exit", "delete", "ctrl+d"),
		Bind(ActionDeleteWordBackward, "delete word backward", "ctrl+w", "alt+backspace"),
		Bind(ActionDeleteWordForward, "delete word forward", "alt+d", "alt+delete"),
		Bind(ActionDeleteBeforeCursor, "delete to line start", "ctrl+u"),
		Bind(ActionDeleteAfterCursor, "delete to line end", "ctrl+k"),

		Bind(ActionCursorUp, "older history", "up", "ctrl+p"),
		Bind(ActionCursorDown, "newer history", "down", "ctrl+n"),

		Bind(ActionComplete, "complete", "tab"),
		Bind(ActionCompleteBackward, "previous completion", "shift+tab"),
		Bind(ActionHistorySearch, "search history", "ctrl+r"),

		Bind(ActionSubmit, "run", "enter"),
		Bind(ActionCancel, "cancel", "esc"),
		Bind(ActionInterrupt, "interrupt", "ctrl+c"),
		Bind(ActionClearScreen, "clear screen", "ctrl+l"),
		Bind(ActionPaste, "paste", "ctrl+v"),
	})
}

// Lookup returns the action bound to msg, or ActionNone.
func (km *KeyMap) Lookup(msg tea.KeyMsg) Action {
	if action, ok := km.lookup[msg.String()]; ok {
		return action
	}
	return ActionNone
}

// Rebind replaces the keys of action. An empty key list leaves the binding
// unchanged.
func (km *KeyMap) Rebind(action Action, keys ...string) {
	if len(keys) == 0 {
		return
	}
	for i := range km.bindings {
		if km.bindings[i].Action == action {
			km.bindings[i].Binding.SetKeys(keys...)
			help := km.bindings[i].Binding.Help()
			km.bindings[i].Binding.SetHelp(keys[0], help.Desc)
			km.rebuildLookup()
			return
		}
	}
	km.bindings = append(km.bindings, Bind(action, action.String(), keys...))
	km.rebuildLookup()
}

// Disable turns off every binding for action.
func (km *KeyMap) Disable(action Action) {
	for i := range km.bindings {
		if km.bindings[i].Action == action {
			km.bindings[i].Binding.SetEnabled(false)
		}
	}
	km.rebuildLookup()
}

// Help returns the binding for action, for rendering key hints.
func (km *KeyMap) Help(action Action) (key.Help, bool) {
	for _, b := range km.bindings {
		if b.Action == action && b.Binding.Enabled() {
			return b.Binding.Help(), true
		}
	}
	return key.Help{}, false
}
