package metrics

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

const (
	chartHeight = 8
	noDataText  = "waiting for metrics..."
)

// RenderCharts draws the tokens-per-second and active-requests series as ASCII line charts.
func RenderCharts(s Series, width int) string {
	var b strings.Builder
	b.WriteString(renderChart("Tokens/sec", s.TokensPerSecond, s.Timestamps, width))
	b.WriteString("\n\n")
	b.WriteString(renderChart("Active requests", s.ActiveRequests, s.Timestamps, width))
	return b.String()
}

func renderChart(title string, data []float64, timestamps []string, width int) string {
	if len(data) == 0 {
		return fmt.Sprintf("%s: %s", title, noDataText)
	}

	caption := title
	if len(timestamps) > 0 {
		caption = fmt.Sprintf("%s (%s - %s)", title, timestamps[0], timestamps[len(timestamps)-1])
	}

	opts := []asciigraph.Option{
		asciigraph.Height(chartHeight),
		asciigraph.LowerBound(0),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}

	return asciigraph.Plot(data, opts...)
}
