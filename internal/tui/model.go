// Package tui provides the Bubble Tea scoring interface.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/scorecard/internal/catalog"
	"github.com/verte-zerg/scorecard/internal/events"
	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/internal/scorecard"
	"github.com/verte-zerg/scorecard/internal/scoring"
	"github.com/verte-zerg/scorecard/pkg/logger"
)

type screen int

const (
	screenSetup screen = iota
	screenScoring
	screenHistory
)

type setupField int

const (
	fieldRound setupField = iota
	fieldBow
	fieldArrows
	fieldEnds
)

// Model implements the Bubble Tea scoring UI.
type Model struct {
	ctx  context.Context
	ctrl *scorecard.Controller
	log  logger.Logger

	rounds   []model.RoundType
	bows     []model.BowType
	roundIdx int
	bowIdx   int
	focus    setupField
	distance int
	faceSize int

	arrowsInput textinput.Model
	endsInput   textinput.Model
	entry       textinput.Model
	entryMode   bool

	history table.Model
	notice  string

	width  int
	height int
}

// NewModel constructs the scoring UI over an initialized controller.
// Defaults preselect the round, bow and overrides on the setup screen.
func NewModel(ctx context.Context, ctrl *scorecard.Controller, defaults model.Config, log logger.Logger) *Model {
	if log == nil {
		log = logger.Nop()
	}
	m := &Model{
		ctx:         ctx,
		ctrl:        ctrl,
		log:         log.Named("tui"),
		rounds:      catalog.Rounds(),
		bows:        catalog.Bows(),
		arrowsInput: newNumberInput("Arrows per end: "),
		endsInput:   newNumberInput("Total ends: "),
		entry:       newNumberInput("Score: "),
	}
	m.entry.Placeholder = "1-10, X, M"
	m.entry.CharLimit = 2
	m.applyDefaults(defaults)
	m.history = buildHistoryTable(nil, 0, 1)

	ctrl.Bus().Subscribe(events.SessionEnded, func(p any) {
		if s, ok := p.(model.Session); ok {
			m.notice = fmt.Sprintf("Session complete: %d/%d (%.1f%%)",
				s.Total(), s.RoundType.MaxScore, scoring.Percentage(s.Total(), s.RoundType.MaxScore))
		}
	})
	return m
}

func newNumberInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 2
	return input
}

func (m *Model) applyDefaults(cfg model.Config) {
	for i, rt := range m.rounds {
		if rt.ID == cfg.RoundID {
			m.roundIdx = i
		}
	}
	for i, b := range m.bows {
		if b.ID == cfg.BowID {
			m.bowIdx = i
		}
	}
	if cfg.ArrowsPerEnd > 0 {
		m.arrowsInput.SetValue(strconv.Itoa(cfg.ArrowsPerEnd))
	}
	if cfg.TotalEnds > 0 {
		m.endsInput.SetValue(strconv.Itoa(cfg.TotalEnds))
	}
	m.distance = cfg.Distance
	m.faceSize = cfg.FaceSize
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) screen() screen {
	if m.ctrl.View() == model.ViewHistory {
		return screenHistory
	}
	if _, ok := m.ctrl.Current(); ok {
		return screenScoring
	}
	return screenSetup
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.screen() == screenHistory {
			m.refreshHistory()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen() {
		case screenHistory:
			return m.updateHistory(msg)
		case screenScoring:
			return m.updateScoring(msg)
		default:
			return m.updateSetup(msg)
		}
	default:
		return m, nil
	}
}

func (m *Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "esc":
		return m, tea.Quit
	case "h":
		m.switchView(model.ViewHistory)
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "tab":
		return m, m.moveFocus(1)
	case "shift+tab":
		return m, m.moveFocus(-1)
	case "enter":
		m.start()
	default:
		if input := m.focusedInput(); input != nil && (key == "backspace" || isDigit(key)) {
			var cmd tea.Cmd
			*input, cmd = input.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) updateScoring(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entryMode {
		switch msg.String() {
		case "esc":
			m.closeEntry()
		case "enter":
			text := m.entry.Value()
			m.closeEntry()
			_, _ = m.ctrl.RecordArrowText(text)
		default:
			var cmd tea.Cmd
			m.entry, cmd = m.entry.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	switch key := msg.String(); key {
	case "q":
		return m, tea.Quit
	case "tab":
		m.switchView(model.ViewHistory)
	case "backspace":
		m.ctrl.UndoArrow()
	case "enter":
		_, _ = m.ctrl.CompleteEnd(m.ctx)
	case "c":
		m.ctrl.ClearEnd()
	case "esc":
		m.ctrl.DismissError()
	case "e":
		m.entryMode = true
		return m, m.entry.Focus()
	default:
		if score, ok := keyScore(key); ok {
			_, _ = m.ctrl.RecordArrow(score)
		}
	}
	return m, nil
}

func (m *Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "esc", "h":
		m.switchView(model.ViewScoring)
		return m, nil
	}
	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// keyScore maps a single key to an arrow score. 0 stands for 10.
func keyScore(key string) (model.ArrowScore, bool) {
	switch key {
	case "0":
		return "10", true
	case "x", "X":
		return model.InnerTen, true
	case "m", "M":
		return model.Miss, true
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return model.ArrowScore(key), true
	}
	return "", false
}

func isDigit(key string) bool {
	return len(key) == 1 && key[0] >= '0' && key[0] <= '9'
}

func (m *Model) closeEntry() {
	m.entryMode = false
	m.entry.Blur()
	m.entry.SetValue("")
}

func (m *Model) switchView(v model.View) {
	if err := m.ctrl.SwitchView(v); err != nil {
		return
	}
	if v == model.ViewHistory {
		m.refreshHistory()
	}
}

func (m *Model) selectedRound() model.RoundType {
	return m.rounds[m.roundIdx]
}

func (m *Model) moveSelection(delta int) {
	switch m.focus {
	case fieldRound:
		m.roundIdx = wrapIndex(m.roundIdx+delta, len(m.rounds))
	case fieldBow:
		m.bowIdx = wrapIndex(m.bowIdx+delta, len(m.bows))
	}
}

func wrapIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func (m *Model) fields() []setupField {
	if m.selectedRound().IsConfigurable() {
		return []setupField{fieldRound, fieldBow, fieldArrows, fieldEnds}
	}
	return []setupField{fieldRound, fieldBow}
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	fields := m.fields()
	pos := 0
	for i, f := range fields {
		if f == m.focus {
			pos = i
		}
	}
	m.focus = fields[wrapIndex(pos+delta, len(fields))]
	m.arrowsInput.Blur()
	m.endsInput.Blur()
	if input := m.focusedInput(); input != nil {
		return input.Focus()
	}
	return nil
}

func (m *Model) focusedInput() *textinput.Model {
	switch m.focus {
	case fieldArrows:
		return &m.arrowsInput
	case fieldEnds:
		return &m.endsInput
	default:
		return nil
	}
}

func (m *Model) start() {
	sel := scorecard.Selection{
		RoundID: m.selectedRound().ID,
		BowID:   m.bows[m.bowIdx].ID,
	}
	if m.selectedRound().IsConfigurable() {
		sel.ArrowsPerEnd, _ = strconv.Atoi(strings.TrimSpace(m.arrowsInput.Value()))
		sel.TotalEnds, _ = strconv.Atoi(strings.TrimSpace(m.endsInput.Value()))
		sel.Distance = m.distance
		sel.FaceSize = m.faceSize
	}
	session, err := m.ctrl.Start(m.ctx, sel)
	if err != nil {
		m.log.Debug(m.ctx, "start rejected", logger.Error(err))
		return
	}
	m.notice = ""
	m.focus = fieldRound
	m.arrowsInput.Blur()
	m.endsInput.Blur()
	m.log.Debug(m.ctx, "session started from setup", logger.String("session", session.ID))
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.screen() {
	case screenHistory:
		body = m.renderHistory()
	case screenScoring:
		body = m.renderScoring()
	default:
		body = m.renderSetup()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return body + "\n\n" + footer
	}
	footerHeight := lipgloss.Height(footer)
	bodyHeight := max(1, m.height-footerHeight)
	pos := lipgloss.Center
	if m.screen() == screenHistory {
		pos = lipgloss.Top
	}
	placed := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, pos, body)
	return placed + "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
}

func (m *Model) renderSetup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New session"))
	b.WriteString("\n\n")
	b.WriteString(labelFor("Round", m.focus == fieldRound))
	b.WriteString("\n")
	for i, rt := range m.rounds {
		line := fmt.Sprintf("%s  %dm · %dcm · %dx%d · max %d", rt.Name, rt.Distance, rt.TargetFace.Size, rt.TotalEnds, rt.ArrowsPerEnd, rt.MaxScore)
		if rt.IsConfigurable() {
			line += " · configurable"
		}
		b.WriteString(optionLine(line, i == m.roundIdx))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(labelFor("Bow", m.focus == fieldBow))
	b.WriteString("\n")
	for i, bow := range m.bows {
		b.WriteString(optionLine(bow.Name+"  "+mutedStyle.Render(bow.Description), i == m.bowIdx))
		b.WriteString("\n")
	}
	if rt := m.selectedRound(); rt.IsConfigurable() {
		b.WriteString("\n")
		m.arrowsInput.Placeholder = fmt.Sprintf("%d (%d-%d)", rt.ArrowsPerEnd, rt.Overrides.Arrows.Min, rt.Overrides.Arrows.Max)
		m.endsInput.Placeholder = fmt.Sprintf("%d (%d-%d)", rt.TotalEnds, rt.Overrides.Ends.Min, rt.Overrides.Ends.Max)
		b.WriteString(m.arrowsInput.View())
		b.WriteString("\n")
		b.WriteString(m.endsInput.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderScoring() string {
	session, _ := m.ctrl.Current()
	rt := session.RoundType
	bow := ""
	if session.Metadata.BowType != nil {
		bow = " · " + session.Metadata.BowType.Name
	}
	lines := []string{
		titleStyle.Render(rt.Name + bow),
		"",
		renderEnd(m.ctrl.Buffer(), rt.ArrowsPerEnd),
		"",
	}
	if m.entryMode {
		lines = append(lines, m.entry.View(), "")
	}
	ends := session.Ends
	const shown = 5
	if len(ends) > shown {
		ends = ends[len(ends)-shown:]
	}
	running := scoring.RunningTotal(session.Ends[:len(session.Ends)-len(ends)])
	for _, end := range ends {
		running += end.Total
		lines = append(lines, renderCompletedEnd(end, running))
	}
	return strings.Join(lines, "\n")
}

func renderEnd(arrows []model.Arrow, size int) string {
	chips := make([]string, 0, size)
	for _, a := range arrows {
		chips = append(chips, renderChip(a.Value))
	}
	for i := len(arrows); i < size; i++ {
		chips = append(chips, emptyChipStyle.Render(" · "))
	}
	return strings.Join(chips, " ")
}

func renderCompletedEnd(end model.End, running int) string {
	values := make([]string, len(end.Arrows))
	for i, a := range end.Arrows {
		values[i] = string(a.Value)
	}
	return mutedStyle.Render(fmt.Sprintf("End %2d  %-*s = %3d  (%d)", end.Number, 3*len(values), strings.Join(values, " "), end.Total, running))
}

func (m *Model) renderFooter() string {
	var segments []string
	var help string
	switch m.screen() {
	case screenScoring:
		session, _ := m.ctrl.Current()
		rt := session.RoundType
		segments = append(segments,
			fmt.Sprintf("End %d/%d", m.ctrl.EndNumber(), rt.TotalEnds),
			fmt.Sprintf("End total %d", m.ctrl.LiveEndTotal()),
			fmt.Sprintf("Total %d/%d", m.ctrl.RunningTotal(), rt.MaxScore),
			fmt.Sprintf("%.1f%%", m.ctrl.Percentage()),
		)
		help = "1-9 · 0=10 · x · m · backspace undo · enter end · c clear · e type · esc dismiss · tab history · q quit"
		if m.entryMode {
			help = "enter commit · esc cancel"
		}
	case screenHistory:
		help = "↑/↓ scroll · tab back · q quit"
	default:
		if m.notice != "" {
			segments = append(segments, m.notice)
		}
		help = "↑/↓ select · tab next field · enter start · h history · q quit"
	}
	lines := []string{}
	if len(segments) > 0 {
		lines = append(lines, footerStyle.Render(strings.Join(segments, "  ")))
	}
	if err := m.ctrl.LastError(); err != nil {
		lines = append(lines, errorStyle.Render(err.Error()))
	}
	lines = append(lines, helpStyle.Render(help))
	return strings.Join(lines, "\n")
}
