package dashboard

// chartPalette is the fixed set of series colors. Assets receive colors by
// insertion order, cycling once the palette is exhausted; collisions beyond
// the palette length are accepted.
var chartPalette = []string{
	"#2563eb", // blue
	"#f59e0b", // amber
	"#10b981", // emerald
	"#ef4444", // red
	"#8b5cf6", // violet
	"#14b8a6", // teal
	"#f97316", // orange
	"#ec4899", // pink
	"#84cc16", // lime
	"#6b7280", // gray
}

// colorForIndex returns the palette color for the nth inserted asset.
func colorForIndex(n int) string {
	if n < 0 {
		n = 0
	}
	return chartPalette[n%len(chartPalette)]
}
