// Package model defines shared data structures.
package model

import (
	"math"
	"time"
)

// Segment is one timed portion of a route tied to a word pool.
type Segment struct {
	DurationSec float64 `toml:"duration"`
	WordPoolID  string  `toml:"pool"`
	SpeedHint   string  `toml:"speed"`
}

// Route is an ordered sequence of timed segments.
type Route struct {
	ID          string    `toml:"id"`
	Name        string    `toml:"name"`
	Description string    `toml:"description"`
	Segments    []Segment `toml:"segments"`
}

// TotalDuration sums the positive segment durations. Segments that do not
// fit in a time.Duration, or would overflow the sum, are left out.
func (r Route) TotalDuration() time.Duration {
	var total time.Duration
	for _, seg := range r.Segments {
		sec := seg.DurationSec
		if !(sec > 0) || math.IsInf(sec, 0) || sec >= float64(math.MaxInt64)/float64(time.Second) {
			continue
		}
		if d := SecondsToDuration(sec); total+d > total {
			total += d
		}
	}
	return total
}

// SecondsToDuration converts fractional seconds to a duration.
func SecondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// Config defines play settings.
type Config struct {
	RouteID       string
	RestartPolicy string
	FPS           int
	HistoryLimit  int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	RouteID     string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionRecord captures a finished round.
type SessionRecord struct {
	RouteID   string
	StartedAt time.Time
	EndedAt   time.Time
	Score     int
	Attempts  int
	Correct   int
	BestCombo int
	Elapsed   time.Duration
	WPM       int
}

// Best holds the merged best values stored per route.
type Best struct {
	RouteID   string
	HighScore int
	BestWPM   int
}

// RecentResult is one entry of the bounded per-route history.
type RecentResult struct {
	Score   int
	WPM     int
	EndedAt time.Time
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID int64
	RouteID   string
	EndedAt   time.Time
	Score     int
	Attempts  int
	Correct   int
	BestCombo int
	ElapsedMs int64
}
