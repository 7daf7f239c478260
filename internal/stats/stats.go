// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/tuiroute/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
	curveLabelWidth     = 10
)

// SessionMetrics computes words per minute and accuracy for a round. A round
// without attempts is fully accurate.
func SessionMetrics(correct, attempts int, elapsedMs int64) (wpm, accuracy float64) {
	accuracy = 1
	if attempts > 0 {
		accuracy = float64(correct) / float64(attempts)
	}
	if elapsedMs <= 0 {
		return 0, accuracy
	}
	minutes := float64(elapsedMs) / 60000.0
	wpm = float64(correct) / minutes
	return wpm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Tail keeps the last n values so a curve fits a given width.
func Tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// TerminalWidth returns the width of stdout, or a fallback when stdout is not
// a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderSummary prints a summary for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalScore, totalWPM, totalAcc float64
	bestScore := 0
	bestCombo := 0
	for _, s := range sessions {
		wpm, acc := SessionMetrics(s.Correct, s.Attempts, s.ElapsedMs)
		totalScore += float64(s.Score)
		totalWPM += wpm
		totalAcc += acc
		if s.Score > bestScore {
			bestScore = s.Score
		}
		if s.BestCombo > bestCombo {
			bestCombo = s.BestCombo
		}
	}
	count := float64(len(sessions))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg Score: %.2f", totalScore/count),
		fmt.Sprintf("Best Score: %d", bestScore),
		fmt.Sprintf("Avg WPM: %.2f", totalWPM/count),
		fmt.Sprintf("Avg Accuracy: %.2f%%", (totalAcc/count)*100),
		fmt.Sprintf("Best Combo: %d", bestCombo),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints score and WPM sparklines smoothed over window sessions.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth int) error {
	if len(sessions) == 0 {
		return nil
	}
	scores := make([]float64, len(sessions))
	wpms := make([]float64, len(sessions))
	for i, s := range sessions {
		wpm, _ := SessionMetrics(s.Correct, s.Attempts, s.ElapsedMs)
		scores[i] = float64(s.Score)
		wpms[i] = wpm
	}
	scores = MovingAverage(scores, window)
	wpms = MovingAverage(wpms, window)

	width := totalWidth - curveLabelWidth
	if width < 1 {
		width = 1
	}
	if _, err := fmt.Fprintln(w, "Learning Curves"); err != nil {
		return err
	}
	for _, c := range []struct {
		name   string
		values []float64
	}{
		{"Score", scores},
		{"WPM", wpms},
	} {
		values := Tail(c.values, width)
		if _, err := fmt.Fprintf(w, "%-*s%s\n", curveLabelWidth, c.name, Sparkline(values)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderHistory prints one row per session, newest last.
func RenderHistory(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	headers, rows := HistoryRows(sessions)
	for _, line := range FormatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// HistoryRows returns table headers and rows for sessions.
func HistoryRows(sessions []model.SessionAggregate) ([]string, [][]string) {
	headers := []string{"Ended", "Route", "Score", "WPM", "Accuracy", "Combo"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		wpm, acc := SessionMetrics(s.Correct, s.Attempts, s.ElapsedMs)
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.RouteID,
			fmt.Sprintf("%d", s.Score),
			fmt.Sprintf("%.1f", wpm),
			fmt.Sprintf("%.1f%%", acc*100),
			fmt.Sprintf("%d", s.BestCombo),
		})
	}
	return headers, rows
}

// RenderBests prints personal bests and recent scores per route.
func RenderBests(w io.Writer, report Report) error {
	if len(report.Bests) == 0 {
		return nil
	}
	headers, rows := BestRows(report)
	lines := append([]string{"Personal Bests"}, FormatTable(headers, rows, map[int]bool{1: true, 2: true})...)
	for _, line := range append(lines, "") {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
