// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/tuiroute/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DefaultHistoryLimit bounds the recent results kept per route.
const DefaultHistoryLimit = 5

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for round results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			route_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			score INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			best_combo INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bests (
			route_id TEXT PRIMARY KEY,
			high_score,
			best_wpm,
			updated_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS recent (
			id INTEGER PRIMARY KEY,
			route_id TEXT NOT NULL,
			score,
			wpm,
			ended_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_recent_route ON recent(route_id, id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordSession logs a finished round, merges it into the stored best for its
// route and appends it to the recent history, trimmed to historyLimit entries.
func (s *Store) RecordSession(ctx context.Context, rec model.SessionRecord, historyLimit int) (best model.Best, err error) {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Best{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	endedAt := rec.EndedAt.UTC().Format(timeLayout)
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (route_id, started_at, ended_at, score, attempts, correct, best_combo, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RouteID,
		rec.StartedAt.UTC().Format(timeLayout),
		endedAt,
		rec.Score,
		rec.Attempts,
		rec.Correct,
		rec.BestCombo,
		rec.Elapsed.Milliseconds(),
	); err != nil {
		return model.Best{}, err
	}

	best, err = loadBest(ctx, tx, rec.RouteID)
	if err != nil {
		return model.Best{}, err
	}
	best = MergeBest(best, rec)
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bests (route_id, high_score, best_wpm, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(route_id) DO UPDATE SET high_score = excluded.high_score,
		 best_wpm = excluded.best_wpm, updated_at = excluded.updated_at`,
		best.RouteID, best.HighScore, best.BestWPM, endedAt,
	); err != nil {
		return model.Best{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO recent (route_id, score, wpm, ended_at) VALUES (?, ?, ?, ?)`,
		rec.RouteID, rec.Score, rec.WPM, endedAt,
	); err != nil {
		return model.Best{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM recent WHERE route_id = ? AND id NOT IN (
			SELECT id FROM recent WHERE route_id = ? ORDER BY id DESC LIMIT ?
		)`,
		rec.RouteID, rec.RouteID, historyLimit,
	); err != nil {
		return model.Best{}, err
	}

	if err = tx.Commit(); err != nil {
		return model.Best{}, err
	}
	return best, nil
}

// MergeBest keeps the larger of each stored value and the new record.
func MergeBest(best model.Best, rec model.SessionRecord) model.Best {
	best.RouteID = rec.RouteID
	if rec.Score > best.HighScore {
		best.HighScore = rec.Score
	}
	if rec.WPM > best.BestWPM {
		best.BestWPM = rec.WPM
	}
	return best
}

// LoadBest returns the stored best for a route. Missing or malformed values
// read as zero.
func (s *Store) LoadBest(ctx context.Context, routeID string) (model.Best, error) {
	return loadBest(ctx, s.db, routeID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadBest(ctx context.Context, q queryer, routeID string) (model.Best, error) {
	best := model.Best{RouteID: routeID}
	rows, err := q.QueryContext(ctx, `SELECT high_score, best_wpm FROM bests WHERE route_id = ?`, routeID)
	if err != nil {
		return best, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	if rows.Next() {
		var score, wpm any
		if err := rows.Scan(&score, &wpm); err != nil {
			return best, err
		}
		best.HighScore = lenientInt(score)
		best.BestWPM = lenientInt(wpm)
	}
	return best, rows.Err()
}

// RecentResults returns the bounded history for a route, newest first.
func (s *Store) RecentResults(ctx context.Context, routeID string) ([]model.RecentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score, wpm, ended_at FROM recent WHERE route_id = ? ORDER BY id DESC`, routeID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RecentResult
	for rows.Next() {
		var score, wpm any
		var endedAt sql.NullString
		if err := rows.Scan(&score, &wpm, &endedAt); err != nil {
			return nil, err
		}
		entry := model.RecentResult{Score: lenientInt(score), WPM: lenientInt(wpm)}
		if endedAt.Valid {
			if parsed, perr := time.Parse(timeLayout, endedAt.String); perr == nil {
				entry.EndedAt = parsed
			}
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSessions returns session aggregates filtered by stats config.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.RouteID != "" {
		clauses = append(clauses, "route_id = ?")
		args = append(args, cfg.RouteID)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, route_id, ended_at, score, attempts, correct, best_combo, elapsed_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.RouteID, &endedAt, &agg.Score, &agg.Attempts, &agg.Correct, &agg.BestCombo, &agg.ElapsedMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// lenientInt converts a dynamically typed column to a non-negative int.
// Anything that is not a number, or is above math.MaxInt32, reads as zero.
func lenientInt(v any) int {
	var n float64
	switch x := v.(type) {
	case int64:
		n = float64(x)
	case float64:
		n = x
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return 0
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}
