// Package session implements the frame-driven round state machine.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/route"
)

// ErrRoundActive is returned by Start under RestartReject while a round runs.
var ErrRoundActive = errors.New("round already running")

// State is the lifecycle stage of a session.
type State int

const (
	Idle State = iota
	Running
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RestartPolicy decides what Start does while a round is running.
type RestartPolicy string

const (
	// RestartDiscard abandons the running round without a result.
	RestartDiscard RestartPolicy = "discard"
	// RestartReject refuses to start until the running round ends or stops.
	RestartReject RestartPolicy = "reject"
)

// ParseRestartPolicy validates a policy name.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch RestartPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RestartDiscard:
		return RestartDiscard, nil
	case RestartReject:
		return RestartReject, nil
	default:
		return "", fmt.Errorf("unknown restart policy %q (want discard or reject)", s)
	}
}

// Picker draws the next target word from a pool.
type Picker interface {
	Pick(words []string) string
}

// Outcome classifies a submission.
type Outcome int

const (
	Ignored Outcome = iota
	Match
	Mismatch
)

func (o Outcome) String() string {
	switch o {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	default:
		return "ignored"
	}
}

// Result is emitted once when a round ends.
type Result struct {
	RouteID string
	Score   int
	Elapsed time.Duration
}

// Snapshot is what the host renders after a tick.
type Snapshot struct {
	State          State
	Remaining      time.Duration
	Progress       float64
	SegmentIndex   int
	SegmentChanged bool
	Result         *Result
}

// Session owns the state of at most one round.
type Session struct {
	pools  route.PoolSource
	picker Picker
	policy RestartPolicy

	state    State
	plan     route.Plan
	elapsed  time.Duration
	lastTick time.Time
	hasTick  bool
	active   int
	current  string
	score    int
}

// Option configures a Session.
type Option func(*Session)

// WithRestartPolicy sets the re-entrant Start behavior.
func WithRestartPolicy(p RestartPolicy) Option {
	return func(s *Session) { s.policy = p }
}

// New constructs an idle session.
func New(pools route.PoolSource, picker Picker, opts ...Option) *Session {
	s := &Session{pools: pools, picker: picker, policy: RestartDiscard}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a round on r, or on the default plan when r is nil.
func (s *Session) Start(r *model.Route) error {
	if s.state == Running && s.policy == RestartReject {
		return ErrRoundActive
	}
	s.plan = route.BuildPlan(r, s.pools)
	s.elapsed = 0
	s.lastTick = time.Time{}
	s.hasTick = false
	s.active = 0
	s.score = 0
	s.current = s.picker.Pick(s.plan.Steps[0].Words)
	s.state = Running
	return nil
}

// Stop abandons the current round without a result.
func (s *Session) Stop() {
	s.state = Idle
}

// Tick advances the clock to now. It does nothing unless the round is running.
func (s *Session) Tick(now time.Time) Snapshot {
	if s.state != Running {
		return s.snapshot()
	}
	if !s.hasTick {
		s.lastTick = now
		s.hasTick = true
	}
	if dt := now.Sub(s.lastTick); dt > 0 {
		s.elapsed += dt
		s.lastTick = now
	}

	if s.elapsed >= s.plan.Total {
		s.elapsed = s.plan.Total
		s.active = len(s.plan.Steps) - 1
		s.state = Ended
		snap := s.snapshot()
		snap.Result = &Result{RouteID: s.plan.RouteID, Score: s.score, Elapsed: s.elapsed}
		return snap
	}

	prev := s.active
	s.active = s.plan.SweepFrom(s.active, s.elapsed)
	snap := s.snapshot()
	snap.SegmentChanged = s.active != prev
	return snap
}

// Submit checks typed text against the current word.
func (s *Session) Submit(typed string) Outcome {
	if s.state != Running {
		return Ignored
	}
	if strings.TrimSpace(typed) != s.current {
		return Mismatch
	}
	s.score++
	s.current = s.picker.Pick(s.plan.Steps[s.active].Words)
	return Match
}

func (s *Session) snapshot() Snapshot {
	remaining := s.plan.Total - s.elapsed
	if remaining < 0 || s.state == Ended {
		remaining = 0
	}
	return Snapshot{
		State:        s.state,
		Remaining:    remaining,
		Progress:     s.plan.ProgressFraction(s.elapsed),
		SegmentIndex: s.active,
	}
}

// State returns the lifecycle stage.
func (s *Session) State() State { return s.state }

// CurrentWord returns the word the player must type.
func (s *Session) CurrentWord() string { return s.current }

// Score returns the number of correct submissions this round.
func (s *Session) Score() int { return s.score }

// Elapsed returns the time played this round.
func (s *Session) Elapsed() time.Duration { return s.elapsed }

// Plan returns the schedule of the current or last round.
func (s *Session) Plan() route.Plan { return s.plan }

// ActiveStep returns the step words are currently drawn from.
func (s *Session) ActiveStep() route.Step {
	if len(s.plan.Steps) == 0 {
		return route.Step{}
	}
	return s.plan.Steps[s.active]
}

// ActiveIndex returns the index of the active step.
func (s *Session) ActiveIndex() int { return s.active }
