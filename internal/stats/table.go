package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatTable lays out a header and rows in space-separated columns. Widths
// are measured in terminal cells, so kana count double. Columns listed in
// rightAlign are padded on the left. Trailing spaces are trimmed.
func FormatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	widths := columnWidths(headers, rows)
	if len(widths) == 0 {
		return nil
	}
	out := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		out = append(out, joinCells(headers, widths, rightAlign))
	}
	for _, row := range rows {
		out = append(out, joinCells(row, widths, rightAlign))
	}
	return out
}

func columnWidths(headers []string, rows [][]string) []int {
	var widths []int
	measure := func(cells []string) {
		for i, c := range cells {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}
	return widths
}

func joinCells(cells []string, widths []int, rightAlign map[int]bool) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		gap := strings.Repeat(" ", max(0, w-runewidth.StringWidth(cell)))
		if rightAlign[i] {
			parts[i] = gap + cell
		} else {
			parts[i] = cell + gap
		}
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}
