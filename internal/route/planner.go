// Package route turns declarative routes into runtime schedules.
package route

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/wordpool"
)

// DefaultDuration is the length of the fallback plan.
const DefaultDuration = 60 * time.Second

// maxSegmentSeconds is the longest segment a time.Duration can hold.
const maxSegmentSeconds = float64(math.MaxInt64) / float64(time.Second)

// PoolSource resolves word pool ids.
type PoolSource interface {
	Lookup(id string) ([]string, bool)
	Default() []string
}

// Step is one resolved segment of a plan.
type Step struct {
	EndOffset time.Duration
	PoolID    string
	Words     []string
	SpeedHint string
}

// Issue records a lenient substitution made while planning.
type Issue struct {
	Segment int
	Reason  string
}

func (i Issue) String() string {
	return fmt.Sprintf("segment %d: %s", i.Segment, i.Reason)
}

// Plan is the runtime schedule of a route. It is never empty.
type Plan struct {
	RouteID string
	Steps   []Step
	Total   time.Duration
	Issues  []Issue
}

// BuildPlan computes cumulative end offsets and resolves pools. Unknown pools
// fall back to the default pool; a nil or empty route yields a single
// DefaultDuration step on the default pool.
func BuildPlan(r *model.Route, pools PoolSource) Plan {
	plan := Plan{}
	if r == nil {
		return defaultPlan(plan, pools)
	}
	plan.RouteID = r.ID
	var offset time.Duration
	for i, seg := range r.Segments {
		sec := seg.DurationSec
		if math.IsNaN(sec) || math.IsInf(sec, 0) || sec >= maxSegmentSeconds {
			plan.Issues = append(plan.Issues, Issue{Segment: i, Reason: fmt.Sprintf("duration %v out of range skipped", sec)})
			continue
		}
		d := model.SecondsToDuration(sec)
		if d <= 0 {
			plan.Issues = append(plan.Issues, Issue{Segment: i, Reason: fmt.Sprintf("non-positive duration %v skipped", sec)})
			continue
		}
		if offset+d <= offset {
			plan.Issues = append(plan.Issues, Issue{Segment: i, Reason: fmt.Sprintf("duration %v overflows route total, skipped", sec)})
			continue
		}
		poolID := seg.WordPoolID
		words, ok := pools.Lookup(poolID)
		if !ok || len(words) == 0 {
			plan.Issues = append(plan.Issues, Issue{Segment: i, Reason: fmt.Sprintf("unknown pool %q, using %q", poolID, wordpool.DefaultID)})
			poolID = wordpool.DefaultID
			words = pools.Default()
		}
		offset += d
		plan.Steps = append(plan.Steps, Step{
			EndOffset: offset,
			PoolID:    poolID,
			Words:     words,
			SpeedHint: seg.SpeedHint,
		})
	}
	if len(plan.Steps) == 0 {
		return defaultPlan(plan, pools)
	}
	plan.Total = offset
	return plan
}

func defaultPlan(plan Plan, pools PoolSource) Plan {
	plan.Steps = []Step{{
		EndOffset: DefaultDuration,
		PoolID:    wordpool.DefaultID,
		Words:     pools.Default(),
	}}
	plan.Total = DefaultDuration
	return plan
}

// ActiveIndexAt returns the smallest index whose end offset lies after
// elapsed, or the last index once the final boundary has passed.
func (p Plan) ActiveIndexAt(elapsed time.Duration) int {
	return p.SweepFrom(0, elapsed)
}

// SweepFrom scans forward from a previously active index. Elapsed time only
// grows within a round, so the result never moves backwards.
func (p Plan) SweepFrom(start int, elapsed time.Duration) int {
	if len(p.Steps) == 0 {
		return 0
	}
	if start < 0 {
		start = 0
	}
	last := len(p.Steps) - 1
	if start > last {
		return last
	}
	for i := start; i < last; i++ {
		if elapsed < p.Steps[i].EndOffset {
			return i
		}
	}
	return last
}

// ProgressFraction returns elapsed/total clamped to [0,1].
func (p Plan) ProgressFraction(elapsed time.Duration) float64 {
	if p.Total <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed >= p.Total {
		return 1
	}
	return float64(elapsed) / float64(p.Total)
}
