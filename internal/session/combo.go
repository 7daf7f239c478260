package session

import (
	"math"
	"time"
)

// Combo layers streak and accuracy tracking over Submit outcomes.
// A miss resets the streak; ignored submissions are not counted.
type Combo struct {
	Current  int
	Best     int
	Attempts int
	Correct  int
}

// Observe records one outcome.
func (c *Combo) Observe(o Outcome) {
	switch o {
	case Match:
		c.Attempts++
		c.Correct++
		c.Current++
		if c.Current > c.Best {
			c.Best = c.Current
		}
	case Mismatch:
		c.Attempts++
		c.Current = 0
	}
}

// Reset clears all counters for a new round.
func (c *Combo) Reset() {
	*c = Combo{}
}

// Accuracy is correct/attempts, or 1 before the first attempt.
func (c Combo) Accuracy() float64 {
	if c.Attempts == 0 {
		return 1
	}
	return float64(c.Correct) / float64(c.Attempts)
}

// WPM is correct words per minute of elapsed time, rounded.
func (c Combo) WPM(elapsed time.Duration) int {
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(c.Correct) / minutes))
}
