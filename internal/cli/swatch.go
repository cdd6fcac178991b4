package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	nameStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// swatch renders a block of hex as its background color.
func swatch(hex string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ")
}

// swatchLine is one text-mode row: swatch, name, hex and a muted note.
func swatchLine(name, hex, note string) string {
	line := fmt.Sprintf("%s %-20s %s", swatch(hex), nameStyle.Render(name), hex)
	if note != "" {
		line += "  " + mutedStyle.Render(note)
	}
	return line
}
