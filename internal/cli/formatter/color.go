// Package formatter renders terminal output for the jess commands.
package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusPill shows whether a record has been turned into a report.
func StatusPill(completed bool) string {
	if completed {
		return StyleGreen.Render("✔ Report")
	}
	return StyleYellow.Render("○ Draft")
}

// ModeBadge labels the chat response mode.
func ModeBadge(mode domain.ResponseMode) string {
	if mode == domain.ModeDual {
		return StylePurple.Render("◆ DUAL") + Dim(" (factual answer + engagement)")
	}
	return StyleBlue.Render("● SIMPLE") + Dim(" (single pass)")
}

// Header renders an uppercased section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}

// Error renders a one-line error message.
func Error(err error) string {
	return StyleRed.Render("✖ ") + StyleFg.Render(err.Error())
}
