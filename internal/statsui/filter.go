package statsui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiroute/internal/model"
)

const (
	fieldRoute = iota
	fieldSince
	fieldLast
	fieldWindow
)

// filterForm edits a StatsConfig. It is only allocated while open.
type filterForm struct {
	fields []textinput.Model
	focus  int
	err    string
}

func newFilterForm(cfg model.StatsConfig, width int) *filterForm {
	f := &filterForm{fields: []textinput.Model{
		formField("Route: "),
		formField("Since (YYYY-MM-DD): "),
		formField("Last: "),
		formField("Curve window: "),
	}}
	f.fields[fieldRoute].SetValue(cfg.RouteID)
	if cfg.Since != nil {
		f.fields[fieldSince].SetValue(cfg.Since.Format("2006-01-02"))
	}
	if cfg.Last > 0 {
		f.fields[fieldLast].SetValue(strconv.Itoa(cfg.Last))
	}
	f.fields[fieldWindow].SetValue(strconv.Itoa(cfg.CurveWindow))
	f.resize(width)
	return f
}

func formField(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Cursor.SetMode(cursor.CursorBlink)
	return in
}

func (f *filterForm) resize(width int) {
	for i := range f.fields {
		f.fields[i].Width = maxInt(10, width-lipgloss.Width(f.fields[i].Prompt)-2)
	}
}

// focusField moves focus, wrapping at both ends.
func (f *filterForm) focusField(idx int) tea.Cmd {
	n := len(f.fields)
	f.focus = ((idx % n) + n) % n
	var cmd tea.Cmd
	for i := range f.fields {
		if i == f.focus {
			cmd = f.fields[i].Focus()
			continue
		}
		f.fields[i].Blur()
	}
	return cmd
}

func (f *filterForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return cmd
}

// config validates the form. On failure the message is kept for display.
func (f *filterForm) config() (model.StatsConfig, bool) {
	cfg, err := parseFilter(
		f.fields[fieldRoute].Value(),
		f.fields[fieldSince].Value(),
		f.fields[fieldLast].Value(),
		f.fields[fieldWindow].Value(),
	)
	if err != nil {
		f.err = err.Error()
		return model.StatsConfig{}, false
	}
	f.err = ""
	return cfg, true
}

func (f *filterForm) view() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, in := range f.fields {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

func parseFilter(routeInput, sinceInput, lastInput, windowInput string) (model.StatsConfig, error) {
	cfg := model.StatsConfig{RouteID: strings.TrimSpace(routeInput), CurveWindow: 1}
	if s := strings.TrimSpace(sinceInput); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}
	if s := strings.TrimSpace(lastInput); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return model.StatsConfig{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = n
	}
	if s := strings.TrimSpace(windowInput); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return model.StatsConfig{}, fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		cfg.CurveWindow = n
	}
	return cfg, nil
}

// nextCurveWindow and prevCurveWindow step the smoothing window in fives.
func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return n / 5 * 5
}
