package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s     string
	width int
}

// buildStyledRunes colors the target word against the text typed so far:
// matching prefix runes are correct, diverging ones incorrect, the rest pending.
// When flash is set every rune renders in the error style.
func buildStyledRunes(targetRunes, inputRunes []rune, flash bool) []styledRune {
	out := make([]styledRune, 0, len(targetRunes))
	for i, target := range targetRunes {
		style := currentWordStyle
		switch {
		case flash:
			style = incorrectStyle
		case i < len(inputRunes) && inputRunes[i] == target:
			style = correctStyle
		case i < len(inputRunes):
			style = incorrectStyle
		case i == len(inputRunes):
			style = currentWordStyle.Underline(true)
		}
		out = append(out, styledRune{
			s:     style.Render(string(target)),
			width: runewidth.RuneWidth(target),
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// fitStyledRunes keeps as many runes as fit in width, marking a cut with an
// ellipsis.
func fitStyledRunes(runes []styledRune, width int) string {
	if width <= 0 || lineWidthOf(runes) <= width {
		return renderStyledRunes(runes)
	}
	kept := runes[:0:0]
	used := 0
	for _, item := range runes {
		if used+item.width > width-1 {
			break
		}
		kept = append(kept, item)
		used += item.width
	}
	return renderStyledRunes(kept) + pendingStyle.Render("…")
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

// centerLine pads s so it sits in the middle of width cells.
func centerLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}
