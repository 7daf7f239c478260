package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/stats"
	"github.com/verte-zerg/tuiroute/internal/store"
)

func TestParseFilter(t *testing.T) {
	cfg, err := parseFilter(" sprint ", "2026-04-01", "10", "")
	require.NoError(t, err)
	assert.Equal(t, "sprint", cfg.RouteID)
	require.NotNil(t, cfg.Since)
	assert.Equal(t, "2026-04-01", cfg.Since.Format("2006-01-02"))
	assert.Equal(t, 10, cfg.Last)
	assert.Equal(t, 1, cfg.CurveWindow)

	_, err = parseFilter("", "04/01/2026", "", "")
	assert.Error(t, err)
	_, err = parseFilter("", "", "-1", "")
	assert.Error(t, err)
	_, err = parseFilter("", "", "", "0")
	assert.Error(t, err)
}

func TestFilterFormRejectsBadInput(t *testing.T) {
	f := newFilterForm(model.StatsConfig{CurveWindow: 5}, 80)
	f.focusField(fieldLast)
	f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	_, ok := f.config()
	assert.False(t, ok)
	assert.Contains(t, f.view(), "invalid last value")

	f.focusField(fieldWindow + 1)
	assert.Equal(t, fieldRoute, f.focus)
	f.focusField(-1)
	assert.Equal(t, fieldWindow, f.focus)
}

func TestTabsWrap(t *testing.T) {
	m := &Model{history: newTable(historyColumns()), routes: newTable(routeColumns())}
	m.switchTab(-1)
	assert.Equal(t, tabRoutes, m.active)
	m.switchTab(1)
	assert.Equal(t, tabOverview, m.active)
}

func TestCurveWindowSteps(t *testing.T) {
	assert.Equal(t, 5, nextCurveWindow(1))
	assert.Equal(t, 10, nextCurveWindow(5))
	assert.Equal(t, 10, nextCurveWindow(7))
	assert.Equal(t, 1, prevCurveWindow(5))
	assert.Equal(t, 5, prevCurveWindow(10))
	assert.Equal(t, 5, prevCurveWindow(7))
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "abc", truncateLine("abc", 5))
	assert.Equal(t, "ab...", truncateLine("abcdefgh", 5))
	assert.Equal(t, "ab", truncateLine("abcdefgh", 2))
}

func TestRenderOverviewEmpty(t *testing.T) {
	assert.Equal(t, "No sessions found.", renderOverview(stats.Report{}, 5, 80))
}

func TestHistoryRowsNewestFirst(t *testing.T) {
	sessions := []model.SessionAggregate{
		{RouteID: "a", EndedAt: time.Unix(60, 0), Score: 1, ElapsedMs: 60000},
		{RouteID: "b", EndedAt: time.Unix(120, 0), Score: 2, ElapsedMs: 60000},
	}
	rows := historyRows(sessions)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0][1])
	assert.Equal(t, "a", rows[1][1])
}

func TestModelFilterFlow(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "tuiroute.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()
	ended := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	for i, routeID := range []string{"sprint", "tokyo_kyoto", "sprint"} {
		_, err := st.RecordSession(ctx, model.SessionRecord{
			RouteID:  routeID,
			EndedAt:  ended.Add(time.Duration(i) * time.Hour),
			Score:    10 + i,
			Attempts: 10 + i,
			Correct:  10 + i,
			Elapsed:  time.Minute,
		}, store.DefaultHistoryLimit)
		require.NoError(t, err)
	}

	m := NewModel(st, model.StatsConfig{CurveWindow: 5})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	require.Len(t, m.report.Sessions, 3)
	assert.Contains(t, renderOverview(m.report, m.cfg.CurveWindow, m.width), "Personal Bests")
	assert.NotEmpty(t, m.View())

	assert.Len(t, m.routes.Rows(), 2)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	require.NotNil(t, m.form)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("sprint")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, m.form)
	assert.Equal(t, "sprint", m.cfg.RouteID)
	assert.Len(t, m.report.Sessions, 2)
	assert.True(t, strings.Contains(filterSummary(m.cfg), "route=sprint"))
	require.Len(t, m.routes.Rows(), 1)
	assert.Equal(t, "sprint", m.routes.Rows()[0][0])

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("=")})
	assert.Equal(t, 10, m.cfg.CurveWindow)
}
