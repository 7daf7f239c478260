// Package tui provides the Bubble Tea game interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/session"
	"github.com/verte-zerg/tuiroute/internal/store"
)

const errorFlash = 300 * time.Millisecond

// ResultStore persists finished rounds.
type ResultStore interface {
	RecordSession(ctx context.Context, rec model.SessionRecord, historyLimit int) (model.Best, error)
	LoadBest(ctx context.Context, routeID string) (model.Best, error)
}

// frameMsg drives one tick of the round started as generation gen.
type frameMsg struct {
	at  time.Time
	gen int
}

func frameCmd(fps, gen int) tea.Cmd {
	if fps <= 0 {
		fps = 30
	}
	interval := time.Second / time.Duration(fps)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg{at: t, gen: gen}
	})
}

// Model implements the Bubble Tea game UI. It owns rendering only; all game
// state lives in the session.
type Model struct {
	config model.Config
	route  *model.Route
	sess   *session.Session
	combo  session.Combo
	store  ResultStore
	log    zerolog.Logger
	now    func() time.Time

	input textinput.Model
	bar   progress.Model

	width  int
	height int

	gen        int
	snap       session.Snapshot
	startedAt  time.Time
	errorUntil time.Time
	notice     string

	best   model.Best
	result *session.Result
	wpm    int
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// NewModel constructs a game model. A nil route plays the default plan.
func NewModel(cfg model.Config, rt *model.Route, sess *session.Session, st ResultStore, logger zerolog.Logger) *Model {
	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 64
	input.Focus()

	return &Model{
		config: cfg,
		route:  rt,
		sess:   sess,
		store:  st,
		log:    logger,
		now:    time.Now,
		input:  input,
		bar:    progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage()),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.start())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = maxInt(10, int(float64(m.width)*0.5))
		m.input.Width = maxInt(10, int(float64(m.width)*0.3))
		return m, nil
	case frameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.handleFrame(msg.at)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	// Only r restarts so a late submit cannot start a new round.
	if m.sess.State() != session.Running {
		switch msg.String() {
		case "r":
			return m, m.start()
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.sess.Stop()
		m.notice = "Round stopped."
		return m, nil
	case tea.KeyCtrlR:
		return m, m.start()
	case tea.KeySpace, tea.KeyEnter:
		m.submit()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start begins a round and returns the frame driver, or nil when the restart
// policy refuses.
func (m *Model) start() tea.Cmd {
	if err := m.sess.Start(m.route); err != nil {
		if errors.Is(err, session.ErrRoundActive) {
			m.notice = "Round in progress: press esc to stop it first."
			return nil
		}
		m.log.Error().Err(err).Msg("failed to start round")
		m.notice = err.Error()
		return nil
	}
	plan := m.sess.Plan()
	for _, issue := range plan.Issues {
		m.log.Warn().Str("route", plan.RouteID).Int("segment", issue.Segment).Msg(issue.Reason)
	}
	m.gen++
	m.combo.Reset()
	m.result = nil
	m.notice = ""
	m.wpm = 0
	m.errorUntil = time.Time{}
	m.startedAt = m.now()
	m.input.Reset()
	m.snap = m.sess.Tick(m.startedAt)

	best, err := m.store.LoadBest(context.Background(), plan.RouteID)
	if err != nil {
		m.log.Warn().Err(err).Str("route", plan.RouteID).Msg("failed to load best")
	}
	m.best = best
	m.log.Debug().Str("route", plan.RouteID).Dur("total", plan.Total).Int("steps", len(plan.Steps)).Msg("round started")
	return frameCmd(m.config.FPS, m.gen)
}

func (m *Model) handleFrame(now time.Time) tea.Cmd {
	if m.sess.State() != session.Running {
		return nil
	}
	m.snap = m.sess.Tick(now)
	if m.snap.SegmentChanged {
		step := m.sess.ActiveStep()
		m.log.Debug().Int("segment", m.snap.SegmentIndex).Str("pool", step.PoolID).Msg("segment advanced")
	}
	if m.snap.Result != nil {
		m.finish(*m.snap.Result)
		return nil
	}
	return frameCmd(m.config.FPS, m.gen)
}

func (m *Model) submit() {
	outcome := m.sess.Submit(m.input.Value())
	m.combo.Observe(outcome)
	if outcome == session.Mismatch {
		m.errorUntil = m.now().Add(errorFlash)
	}
	m.input.Reset()
}

func (m *Model) finish(res session.Result) {
	m.result = &res
	m.wpm = m.combo.WPM(res.Elapsed)
	rec := model.SessionRecord{
		RouteID:   res.RouteID,
		StartedAt: m.startedAt,
		EndedAt:   m.startedAt.Add(res.Elapsed),
		Score:     res.Score,
		Attempts:  m.combo.Attempts,
		Correct:   m.combo.Correct,
		BestCombo: m.combo.Best,
		Elapsed:   res.Elapsed,
		WPM:       m.wpm,
	}
	best, err := m.store.RecordSession(context.Background(), rec, m.config.HistoryLimit)
	if err != nil {
		m.log.Error().Err(err).Str("route", res.RouteID).Msg("failed to save session")
		m.best = store.MergeBest(m.best, rec)
		return
	}
	m.best = best
	m.log.Info().Str("route", res.RouteID).Int("score", res.Score).Int("wpm", m.wpm).Msg("round finished")
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.sess.State() {
	case session.Running:
		body = m.renderRound()
	case session.Ended:
		body = m.renderResult()
	default:
		body = m.renderIdle()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	content := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	return content + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderRound() string {
	word := m.sess.CurrentWord()
	flash := m.now().Before(m.errorUntil)
	runes := buildStyledRunes([]rune(word), []rune(m.input.Value()), flash)
	wordLine := fitStyledRunes(runes, m.width-4)

	lines := []string{
		footerStyle.Render(m.renderSegment()),
		"",
		wordLine,
		"",
		m.input.View(),
		"",
		m.bar.ViewAs(m.snap.Progress),
	}
	if m.notice != "" {
		lines = append(lines, incorrectStyle.Render(m.notice))
	}
	width := lipgloss.Width(m.bar.ViewAs(0))
	for i, line := range lines {
		lines[i] = centerLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSegment() string {
	plan := m.sess.Plan()
	step := m.sess.ActiveStep()
	name := "Free run"
	if m.route != nil && m.route.Name != "" {
		name = m.route.Name
	}
	parts := []string{
		name,
		fmt.Sprintf("Segment %d/%d", m.snap.SegmentIndex+1, len(plan.Steps)),
		step.PoolID,
	}
	if step.SpeedHint != "" {
		parts = append(parts, step.SpeedHint)
	}
	return strings.Join(parts, " · ")
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return ""
	}
	lines := []string{
		titleStyle.Render("Time!"),
		"",
		fmt.Sprintf("Score %d", m.result.Score),
		fmt.Sprintf("%d WPM · %.0f%% accuracy · best combo %dx", m.wpm, m.combo.Accuracy()*100, m.combo.Best),
		fmt.Sprintf("High score %d · Best %d WPM", m.best.HighScore, m.best.BestWPM),
		"",
		footerStyle.Render("r: restart  q: quit"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderIdle() string {
	notice := m.notice
	if notice == "" {
		notice = "Ready."
	}
	return notice + "\n\n" + footerStyle.Render("r: start  q: quit")
}

func (m *Model) renderFooter() string {
	if m.sess.State() != session.Running {
		return ""
	}
	segments := []string{
		fmt.Sprintf("%ds", int(math.Ceil(m.snap.Remaining.Seconds()))),
		fmt.Sprintf("%d pts", m.sess.Score()),
		fmt.Sprintf("%dx", m.combo.Current),
		fmt.Sprintf("%.0f%%", m.combo.Accuracy()*100),
		fmt.Sprintf("HS:%d", m.best.HighScore),
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
