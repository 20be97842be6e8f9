package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/internal/stats"
)

const trendWindow = 5

var historyWidths = []int{16, 20, 12, 9, 7, 3, 4}

func buildHistoryTable(sessions []model.Session, width, height int) table.Model {
	columns := make([]table.Column, len(stats.HistoryHeaders))
	for i, title := range stats.HistoryHeaders {
		columns[i] = table.Column{Title: title, Width: historyWidths[i]}
	}
	cells := stats.HistoryRows(sessions)
	rows := make([]table.Row, len(cells))
	for i, r := range cells {
		rows[i] = table.Row(r)
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(1, height)),
		table.WithFocused(true),
	)
	if width > 0 {
		t.SetWidth(width)
	}
	t.SetStyles(historyTableStyles())
	return t
}

func historyTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// refreshHistory rebuilds the table from the controller, newest first.
func (m *Model) refreshHistory() {
	width, height := m.width, m.height-6
	if m.width == 0 || m.height == 0 {
		width, height = 80, 10
	}
	m.history = buildHistoryTable(m.ctrl.History(), width, height)
}

func (m *Model) renderHistory() string {
	report := stats.BuildReport(m.ctrl.Sessions(), model.HistoryConfig{CurveWindow: trendWindow})
	if len(report.Sessions) == 0 {
		return titleStyle.Render("History") + "\n\n" + mutedStyle.Render("No sessions found.")
	}
	summary := report.Summary
	trend := stats.Sparkline(report.Trend)
	lines := []string{
		titleStyle.Render("History"),
		m.history.View(),
		"",
		footerStyle.Render(fmt.Sprintf("Sessions %d · Avg %.1f · Best %d · Best avg/arrow %.2f",
			summary.TotalSessions, summary.AverageScore, summary.BestScore, summary.BestAverage)),
		mutedStyle.Render("Trend " + trend),
	}
	return strings.Join(lines, "\n")
}
