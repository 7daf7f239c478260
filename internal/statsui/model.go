// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/stats"
	"github.com/verte-zerg/tuiroute/internal/store"
)

type tab int

const (
	tabOverview tab = iota
	tabHistory
	tabRoutes
)

var tabNames = []string{"Overview", "History", "Routes"}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = activeNavStyle.
				Bold(false).
				Foreground(lipgloss.Color("#B0B0B0")).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	active   tab
	overview viewport.Model
	history  table.Model
	routes   table.Model

	width  int
	height int

	form *filterForm
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		overview: viewport.New(0, 0),
		history:  newTable(historyColumns()),
		routes:   newTable(routeColumns()),
	}
	m.reload()
	return m
}

func newTable(cols []table.Column) table.Model {
	t := table.New(table.WithColumns(cols), table.WithHeight(1))
	t.SetStyles(tableStyles())
	return t
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.form != nil {
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "left", "h":
		m.switchTab(-1)
		return tea.ClearScreen
	case "right", "l":
		m.switchTab(1)
		return tea.ClearScreen
	case "=":
		m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
		m.renderOverview()
		return nil
	case "-":
		m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
		m.renderOverview()
		return nil
	case "/":
		m.form = newFilterForm(m.cfg, m.width)
		return m.form.focusField(fieldRoute)
	case "g", "home":
		m.scrollToEdge(true)
		return nil
	case "G", "end":
		m.scrollToEdge(false)
		return nil
	}
	var cmd tea.Cmd
	switch m.active {
	case tabHistory:
		m.history, cmd = m.history.Update(msg)
	case tabRoutes:
		m.routes, cmd = m.routes.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.form = nil
		return nil
	case tea.KeyEnter:
		cfg, ok := m.form.config()
		if !ok {
			return nil
		}
		m.cfg = cfg
		m.form = nil
		m.reload()
		m.resize()
		return nil
	case tea.KeyTab:
		return m.form.focusField(m.form.focus + 1)
	case tea.KeyShiftTab:
		return m.form.focusField(m.form.focus - 1)
	}
	return m.form.update(msg)
}

func (m *Model) scrollToEdge(top bool) {
	switch m.active {
	case tabHistory:
		if top {
			m.history.GotoTop()
		} else {
			m.history.GotoBottom()
		}
	case tabRoutes:
		if top {
			m.routes.GotoTop()
		} else {
			m.routes.GotoBottom()
		}
	default:
		if top {
			m.overview.GotoTop()
		} else {
			m.overview.GotoBottom()
		}
	}
}

func (m *Model) switchTab(delta int) {
	n := len(tabNames)
	m.active = tab(((int(m.active)+delta)%n + n) % n)
	m.history.Blur()
	m.routes.Blur()
	switch m.active {
	case tabHistory:
		m.history.Focus()
	case tabRoutes:
		m.routes.Focus()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.heights()
	return strings.Join([]string{
		fitLines(m.header(), m.width, headerHeight),
		fitLines(m.body(), m.width, bodyHeight),
		fitLines(m.footer(), m.width, footerHeight),
	}, "\n")
}

func (m *Model) heights() (header, body, footer int) {
	header = lipgloss.Height(activeNavStyle.Render("X")) + 1
	footer = 1
	if m.form == nil && m.errMsg != "" {
		footer = 2
	}
	body = maxInt(1, m.height-header-footer)
	return header, body, footer
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.heights()
	m.overview.Width = m.width
	m.overview.Height = body
	for _, t := range []*table.Model{&m.history, &m.routes} {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, body-1))
	}
	if m.form != nil {
		m.form.resize(m.width)
	}
}

func (m *Model) header() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		style := inactiveNavStyle
		if tab(i) == m.active {
			style = activeNavStyle
		}
		parts[i] = style.Render(name)
	}
	nav := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return nav + "\n" + mutedStyle.Render(truncateLine(filterSummary(m.cfg), m.width))
}

func filterSummary(cfg model.StatsConfig) string {
	routeID, since, last := "any", "any", "all"
	if cfg.RouteID != "" {
		routeID = cfg.RouteID
	}
	if cfg.Since != nil {
		since = cfg.Since.Format("2006-01-02")
	}
	if cfg.Last > 0 {
		last = strconv.Itoa(cfg.Last)
	}
	return fmt.Sprintf("Settings: route=%s  since=%s  last=%s  window=%d", routeID, since, last, cfg.CurveWindow)
}

func (m *Model) footer() string {
	if m.form != nil {
		return mutedStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := mutedStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		help += "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) body() string {
	if m.form != nil {
		return m.form.view()
	}
	if m.active != tabOverview && len(m.report.Sessions) == 0 {
		return "No sessions found."
	}
	switch m.active {
	case tabHistory:
		return tableTextStyle.Render(m.history.View())
	case tabRoutes:
		return tableTextStyle.Render(m.routes.View())
	default:
		return m.overview.View()
	}
}

// reload rebuilds the report for the current filter and refreshes every tab.
func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{}
		m.overview.SetContent("Failed to load stats.")
		m.history.SetRows(nil)
		m.routes.SetRows(nil)
		return
	}
	m.errMsg = ""
	m.report = report
	m.history.SetRows(historyRows(report.Sessions))
	_, rows := stats.BestRows(report)
	m.routes.SetRows(toTableRows(rows))
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
}

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Sessions) == 0 {
		return "No sessions found."
	}
	var curves bytes.Buffer
	curveText := ""
	if err := stats.RenderCurves(&curves, report.Sessions, window, width); err != nil {
		curveText = fmt.Sprintf("Failed to render curves: %v", err)
	} else {
		curveText = strings.TrimRight(curves.String(), "\n")
	}
	sections := []string{summaryCards(report.Sessions, width), curveText}
	if len(report.Bests) > 0 {
		headers, rows := stats.BestRows(report)
		lines := stats.FormatTable(headers, rows, map[int]bool{1: true, 2: true})
		sections = append(sections, "Personal Bests\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func summaryCards(sessions []model.SessionAggregate, width int) string {
	var scoreSum, wpmSum, accSum float64
	best, combo := 0, 0
	for _, s := range sessions {
		wpm, acc := stats.SessionMetrics(s.Correct, s.Attempts, s.ElapsedMs)
		scoreSum += float64(s.Score)
		wpmSum += wpm
		accSum += acc
		best = maxInt(best, s.Score)
		combo = maxInt(combo, s.BestCombo)
	}
	n := float64(len(sessions))
	cards := []string{
		card("Rounds", strconv.Itoa(len(sessions))),
		card("Avg Score", fmt.Sprintf("%.1f", scoreSum/n)),
		card("Best Score", strconv.Itoa(best)),
		card("Avg WPM", fmt.Sprintf("%.1f", wpmSum/n)),
		card("Avg Acc", fmt.Sprintf("%.1f%%", accSum/n*100)),
		card("Best Combo", fmt.Sprintf("%dx", combo)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...),
		lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...),
	)
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func historyColumns() []table.Column {
	return []table.Column{
		{Title: "Ended", Width: 16},
		{Title: "Route", Width: 14},
		{Title: "Score", Width: 6},
		{Title: "WPM", Width: 6},
		{Title: "Accuracy", Width: 9},
		{Title: "Combo", Width: 6},
	}
}

func routeColumns() []table.Column {
	return []table.Column{
		{Title: "Route", Width: 14},
		{Title: "High Score", Width: 10},
		{Title: "Best WPM", Width: 9},
		{Title: "Recent", Width: 24},
	}
}

// historyRows lists sessions newest first.
func historyRows(sessions []model.SessionAggregate) []table.Row {
	_, rows := stats.HistoryRows(sessions)
	out := toTableRows(rows)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func toTableRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}
	return out
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1, 0, 0)
	s.Cell = s.Cell.Padding(0, 1, 0, 0)
	s.Selected = s.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
