package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/internal/scoring"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	emptyChipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	chipBase       = lipgloss.NewStyle().Bold(true).Width(4).Align(lipgloss.Center)
)

// Ring colors of a standard target face, keyed by scoring.ColorClass.
var chipStyles = map[string]lipgloss.Style{
	scoring.ColorGold:  chipBase.Background(lipgloss.Color("#F5C518")).Foreground(lipgloss.Color("#111111")),
	scoring.ColorRed:   chipBase.Background(lipgloss.Color("#E53935")).Foreground(lipgloss.Color("#FFFFFF")),
	scoring.ColorBlue:  chipBase.Background(lipgloss.Color("#1E88E5")).Foreground(lipgloss.Color("#FFFFFF")),
	scoring.ColorBlack: chipBase.Background(lipgloss.Color("#212121")).Foreground(lipgloss.Color("#FFFFFF")),
	scoring.ColorWhite: chipBase.Background(lipgloss.Color("#FAFAFA")).Foreground(lipgloss.Color("#111111")),
	scoring.ColorMiss:  chipBase.Background(lipgloss.Color("#616161")).Foreground(lipgloss.Color("#DDDDDD")),
}

func renderChip(score model.ArrowScore) string {
	style, ok := chipStyles[scoring.ColorClass(score)]
	if !ok {
		style = chipBase
	}
	return style.Render(string(score))
}

func labelFor(label string, focused bool) string {
	if focused {
		return activeStyle.Render("» " + label)
	}
	return labelStyle.Render("  " + label)
}

func optionLine(text string, selected bool) string {
	if selected {
		return activeStyle.Render("  > ") + text
	}
	return "    " + mutedStyle.Render(text)
}
