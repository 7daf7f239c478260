package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/wordpool"
)

type firstPicker struct{}

func (firstPicker) Pick(words []string) string { return words[0] }

// cyclePicker walks each pool in order so successive words differ.
type cyclePicker struct{ n int }

func (c *cyclePicker) Pick(words []string) string {
	w := words[c.n%len(words)]
	c.n++
	return w
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func tokyoKyoto() *model.Route {
	return &model.Route{
		ID: "tokyo_kyoto",
		Segments: []model.Segment{
			{DurationSec: 20, WordPoolID: "kana"},
			{DurationSec: 20, WordPoolID: "mixed"},
			{DurationSec: 20, WordPoolID: "long"},
		},
	}
}

func at(sec float64) time.Time {
	return t0.Add(model.SecondsToDuration(sec))
}

func TestRouteAdvancesThroughSegments(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(tokyoKyoto()))
	s.Tick(at(0))

	snap := s.Tick(at(10))
	assert.Equal(t, Running, snap.State)
	assert.Equal(t, "kana", s.ActiveStep().PoolID)
	assert.False(t, snap.SegmentChanged)
	assert.Equal(t, 50*time.Second, snap.Remaining)

	snap = s.Tick(at(25))
	assert.Equal(t, "mixed", s.ActiveStep().PoolID)
	assert.True(t, snap.SegmentChanged)
	assert.Equal(t, 1, snap.SegmentIndex)

	snap = s.Tick(at(45))
	assert.Equal(t, "long", s.ActiveStep().PoolID)
	assert.InDelta(t, 0.75, snap.Progress, 1e-9)
	assert.Nil(t, snap.Result)

	snap = s.Tick(at(61))
	assert.Equal(t, Ended, snap.State)
	assert.Equal(t, time.Duration(0), snap.Remaining)
	assert.InDelta(t, 1.0, snap.Progress, 1e-9)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "tokyo_kyoto", snap.Result.RouteID)
	assert.Equal(t, 60*time.Second, snap.Result.Elapsed)
	assert.Equal(t, 60*time.Second, s.Elapsed())
	assert.Equal(t, 2, s.ActiveIndex())
}

func TestResultEmittedOnce(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(tokyoKyoto()))
	s.Tick(at(0))

	snap := s.Tick(at(100))
	require.NotNil(t, snap.Result)

	snap = s.Tick(at(101))
	assert.Nil(t, snap.Result)
	assert.Equal(t, Ended, snap.State)
}

func TestExactSubmissionsScore(t *testing.T) {
	s := New(wordpool.NewRegistry(), &cyclePicker{})
	require.NoError(t, s.Start(tokyoKyoto()))
	s.Tick(at(0))

	const k = 7
	for i := 0; i < k; i++ {
		assert.Equal(t, Match, s.Submit(s.CurrentWord()))
	}
	assert.Equal(t, k, s.Score())

	snap := s.Tick(at(60))
	require.NotNil(t, snap.Result)
	assert.Equal(t, k, snap.Result.Score)
}

func TestSubmitTrimsWhitespace(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(nil))

	assert.Equal(t, Match, s.Submit("  train \n"))
	assert.Equal(t, 1, s.Score())
}

func TestWrongSubmissionKeepsWord(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(nil))
	require.Equal(t, "train", s.CurrentWord())

	assert.Equal(t, Mismatch, s.Submit("wrong"))
	assert.Equal(t, 0, s.Score())
	assert.Equal(t, "train", s.CurrentWord())

	assert.Equal(t, Mismatch, s.Submit("Train"))
	assert.Equal(t, 0, s.Score())
}

func TestNewWordDrawnFromActiveSegment(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(tokyoKyoto()))
	s.Tick(at(0))
	assert.Equal(t, "ねこ", s.CurrentWord())

	s.Tick(at(30))
	assert.Equal(t, Match, s.Submit("ねこ"))
	assert.Equal(t, "sushi", s.CurrentWord())
}

func TestIdleSessionIgnoresInput(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})

	snap := s.Tick(at(5))
	assert.Equal(t, Idle, snap.State)
	assert.Nil(t, snap.Result)
	assert.Equal(t, Ignored, s.Submit("train"))
	assert.Equal(t, 0, s.Score())
}

func TestEndedSessionIgnoresInput(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(nil))
	s.Tick(at(0))
	s.Tick(at(60))
	require.Equal(t, Ended, s.State())

	assert.Equal(t, Ignored, s.Submit("train"))
	assert.Equal(t, 0, s.Score())
	elapsed := s.Elapsed()
	s.Tick(at(500))
	assert.Equal(t, elapsed, s.Elapsed())
}

func TestFirstTickSetsBaseline(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(nil))

	snap := s.Tick(at(1000))
	assert.Equal(t, time.Duration(0), s.Elapsed())
	assert.Equal(t, 60*time.Second, snap.Remaining)

	s.Tick(at(1001.5))
	assert.Equal(t, 1500*time.Millisecond, s.Elapsed())
}

func TestBackwardsTickAddsNothing(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(nil))
	s.Tick(at(10))
	s.Tick(at(12))
	s.Tick(at(11))
	assert.Equal(t, 2*time.Second, s.Elapsed())

	s.Tick(at(13))
	assert.Equal(t, 3*time.Second, s.Elapsed())
}

func TestRestartDiscardResetsRound(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(tokyoKyoto()))
	s.Tick(at(0))
	s.Tick(at(30))
	s.Submit(s.CurrentWord())
	require.Equal(t, 1, s.Score())

	require.NoError(t, s.Start(nil))
	assert.Equal(t, Running, s.State())
	assert.Equal(t, 0, s.Score())
	assert.Equal(t, time.Duration(0), s.Elapsed())
	assert.Equal(t, 0, s.ActiveIndex())
	assert.Equal(t, "", s.Plan().RouteID)

	// The new round needs its own baseline tick.
	s.Tick(at(90))
	assert.Equal(t, time.Duration(0), s.Elapsed())
}

func TestRestartRejectWhileRunning(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{}, WithRestartPolicy(RestartReject))
	require.NoError(t, s.Start(tokyoKyoto()))
	s.Tick(at(0))
	s.Tick(at(5))
	s.Submit(s.CurrentWord())

	assert.ErrorIs(t, s.Start(nil), ErrRoundActive)
	assert.Equal(t, 1, s.Score())
	assert.Equal(t, "tokyo_kyoto", s.Plan().RouteID)

	s.Stop()
	assert.NoError(t, s.Start(nil))
}

func TestRestartRejectAfterEnd(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{}, WithRestartPolicy(RestartReject))
	require.NoError(t, s.Start(nil))
	s.Tick(at(0))
	s.Tick(at(60))
	require.Equal(t, Ended, s.State())

	assert.NoError(t, s.Start(nil))
	assert.Equal(t, Running, s.State())
}

func TestStopAbandonsRound(t *testing.T) {
	s := New(wordpool.NewRegistry(), firstPicker{})
	require.NoError(t, s.Start(nil))
	s.Tick(at(0))

	s.Stop()
	assert.Equal(t, Idle, s.State())
	snap := s.Tick(at(120))
	assert.Nil(t, snap.Result)
	assert.Equal(t, Idle, snap.State)
}

func TestParseRestartPolicy(t *testing.T) {
	cases := map[string]RestartPolicy{
		"":         RestartDiscard,
		"discard":  RestartDiscard,
		" Reject ": RestartReject,
	}
	for in, want := range cases {
		got, err := ParseRestartPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRestartPolicy("queue")
	assert.Error(t, err)
}

func TestStateAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "ended", Ended.String())
	assert.Equal(t, "match", Match.String())
	assert.Equal(t, "mismatch", Mismatch.String())
	assert.Equal(t, "ignored", Ignored.String())
}
