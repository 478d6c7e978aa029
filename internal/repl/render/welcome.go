package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// WelcomeInfo contains information to display in the welcome screen.
type WelcomeInfo struct {
	// Version is the gep version string
	Version string
	// Debugger is the debugger's version, or "" if unknown
	Debugger string
	// Picker is the fuzzy finder in use, or "" when the built-in fallbacks
	// are used
	Picker string
	// HistoryFile is where accepted lines are saved, or "" for in-memory
	// history
	HistoryFile string
}

// tips is the list of tips to display in the welcome screen.
// A "tip of the day" is selected based on the current date.
var tips = []string{
	"press Ctrl+R to fuzzy search command history",
	"press Tab to fuzzy complete commands, with help in the preview pane",
	"press Enter on an empty line to repeat the last command",
	"press Right or Ctrl+E to accept the greyed-out history suggestion",
	"press Ctrl+D on an empty line to quit",
	"press Ctrl+C to interrupt a running program",
	"set history save on in ~/.gdbinit to keep history across sessions",
	"add commands to repeat.dont_repeat in ~/.gep/config.yaml",
	"set log_level: debug in ~/.gep/config.yaml for troubleshooting",
	"set picker.command to pass extra options to fzf",
	"multi-line commands like define and python continue until end",
}

var gepLogo = []string{
	"  __ _  ___ _ __  ",
	" / _` |/ _ \\ '_ \\ ",
	"| (_| |  __/ |_) |",
	" \\__, |\\___| .__/ ",
	" |___/     |_|    ",
}

// getTipOfTheDay returns a tip based on the current date.
func getTipOfTheDay(now time.Time) string {
	if len(tips) == 0 {
		return ""
	}
	return tips[now.YearDay()%len(tips)]
}

// RenderWelcome renders the welcome screen to the given writer.
// The logo is on the left and session info on the right.
func RenderWelcome(w io.Writer, info WelcomeInfo, termWidth int) {
	titleStyle := lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	logoStyle := lipgloss.NewStyle().Foreground(ColorYellow)
	labelStyle := lipgloss.NewStyle().Foreground(ColorGray)
	valueStyle := lipgloss.NewStyle().Foreground(ColorYellow)
	dimStyle := lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

	logoWidth := lipgloss.Width(gepLogo[0])
	minGap := 4
	maxInfoWidth := 44

	field := func(label, value, missing string) string {
		if value == "" {
			return labelStyle.Render(label) + dimStyle.Render(missing)
		}
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	version := info.Version
	if version == "dev" {
		version = ""
	}

	infoLines := []string{
		titleStyle.Render("GDB Enhanced Prompt"),
		"",
		field("version:  ", version, "development"),
		field("debugger: ", info.Debugger, "unknown"),
		field("picker:   ", info.Picker, "built-in"),
		field("history:  ", info.HistoryFile, "not saved"),
	}

	numLines := max(len(gepLogo), len(infoLines))
	infoWidth := min(termWidth-logoWidth-minGap, maxInfoWidth)
	tip := getTipOfTheDay(time.Now())

	var output strings.Builder
	if infoWidth < 20 {
		// Terminal too narrow, just show info without logo
		for _, line := range infoLines {
			output.WriteString(line + "\n")
		}
	} else {
		output.WriteString("\n")
		for i := 0; i < numLines; i++ {
			logoLine := strings.Repeat(" ", logoWidth)
			if i < len(gepLogo) {
				logoLine = logoStyle.Render(gepLogo[i])
			}
			var infoLine string
			if i < len(infoLines) {
				infoLine = infoLines[i]
			}
			output.WriteString(strings.TrimRight(logoLine+strings.Repeat(" ", minGap)+infoLine, " ") + "\n")
		}
	}

	output.WriteString("\n")
	if tip != "" {
		output.WriteString(dimStyle.Render("tip: "+tip) + "\n")
	}
	output.WriteString("\n")

	fmt.Fprint(w, output.String())
}
