package cmd

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

// heatPalette runs from cold (low values) to hot (high values).
var heatPalette = []lipgloss.Color{
	"#2c7bb6", "#00a6ca", "#00ccbc", "#90eb9d", "#ffff8c",
	"#f9d057", "#f29e2e", "#e76818", "#d7191c",
}

var heatCell = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)

// formatCell renders a map value in its shortest exact form.
func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// heatIndex maps v onto the palette relative to the grid's range.
func heatIndex(v, lo, hi float64) int {
	if hi <= lo {
		return len(heatPalette) / 2
	}
	i := int((v - lo) / (hi - lo) * float64(len(heatPalette)-1))
	return max(0, min(i, len(heatPalette)-1))
}

// renderHeatmap renders the grid with each cell colored by its value.
// Colors degrade to plain text when the output is not a terminal.
func renderHeatmap(grid *ecumap.Grid) string {
	lo, hi := grid.Min(), grid.Max()

	width := 0
	for _, v := range grid.Values() {
		width = max(width, len(formatCell(v)))
	}
	cell := heatCell.Width(width + 2)

	var b strings.Builder
	for r := 0; r < grid.Rows(); r++ {
		row := grid.Row(r)
		cells := make([]string, len(row))
		for c, v := range row {
			color := heatPalette[heatIndex(v, lo, hi)]
			cells[c] = cell.Foreground(color).Render(formatCell(v))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteByte('\n')
	}
	return b.String()
}
