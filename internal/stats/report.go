// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.SessionAggregate
	Bests    []model.Best
	// Recent holds each route's bounded history, newest first.
	Recent map[string][]model.RecentResult
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	report := Report{
		Sessions: sessions,
		Recent:   map[string][]model.RecentResult{},
	}
	for _, id := range routeIDs(sessions) {
		best, err := st.LoadBest(ctx, id)
		if err != nil {
			return Report{}, fmt.Errorf("failed to load best for %q: %w", id, err)
		}
		report.Bests = append(report.Bests, best)
		recent, err := st.RecentResults(ctx, id)
		if err != nil {
			return Report{}, fmt.Errorf("failed to load recent results for %q: %w", id, err)
		}
		report.Recent[id] = recent
	}
	return report, nil
}

func routeIDs(sessions []model.SessionAggregate) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, s := range sessions {
		if _, ok := seen[s.RouteID]; ok {
			continue
		}
		seen[s.RouteID] = struct{}{}
		ids = append(ids, s.RouteID)
	}
	sort.Strings(ids)
	return ids
}

// BestRows returns one row per route: high score, best WPM and the recent
// scores, newest first.
func BestRows(report Report) ([]string, [][]string) {
	headers := []string{"Route", "High Score", "Best WPM", "Recent"}
	rows := make([][]string, 0, len(report.Bests))
	for _, b := range report.Bests {
		recent := report.Recent[b.RouteID]
		scores := make([]string, 0, len(recent))
		for _, r := range recent {
			scores = append(scores, strconv.Itoa(r.Score))
		}
		rows = append(rows, []string{b.RouteID, strconv.Itoa(b.HighScore), strconv.Itoa(b.BestWPM), strings.Join(scores, " ")})
	}
	return headers, rows
}
