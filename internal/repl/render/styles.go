// Package render holds the colors, styles and banner shared by the prompt.
package render

import (
	"github.com/charmbracelet/lipgloss"
)

// ANSI color codes
const (
	ColorCyan   = lipgloss.Color("12") // Selected entries
	ColorYellow = lipgloss.Color("11") // Borders, banner
	ColorGreen  = lipgloss.Color("10") // Default prompt
	ColorRed    = lipgloss.Color("9")  // Errors
	ColorGray   = lipgloss.Color("8")  // Suggestions, meta info
)

const (
	SymbolError   = "✗"
	SymbolWarning = "!"
	SymbolInfo    = "→"
)

var (
	// PromptStyle colors a configured prompt.
	PromptStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)

	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow)

	// DimStyle is used for secondary information.
	DimStyle = lipgloss.NewStyle().Foreground(ColorGray)
)

// StyledSymbol returns a symbol with appropriate styling applied
func StyledSymbol(symbol string) string {
	switch symbol {
	case SymbolError:
		return ErrorStyle.Render(symbol)
	case SymbolWarning:
		return WarningStyle.Render(symbol)
	case SymbolInfo:
		return DimStyle.Render(symbol)
	default:
		return symbol
	}
}

// ErrorLine formats a one-line error report.
func ErrorLine(msg string) string {
	return StyledSymbol(SymbolError) + " " + ErrorStyle.Render(msg)
}

// WarningLine formats a one-line warning.
func WarningLine(msg string) string {
	return StyledSymbol(SymbolWarning) + " " + WarningStyle.Render(msg)
}
