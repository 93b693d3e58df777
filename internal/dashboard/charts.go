package dashboard

import (
	"github.com/lan-dot-party/metroflow/internal/chart"
	"github.com/lan-dot-party/metroflow/internal/format"
	"github.com/lan-dot-party/metroflow/internal/upstream"
)

// TopLines is the number of ranked lines shown in the lines chart.
const TopLines = 10

const (
	tickColor    = "#8e8ea0"
	trendGridX   = "rgba(255,255,255,0.04)"
	gridY        = "rgba(255,255,255,0.06)"
	trendBorder  = "#ff9a44"
	trendPoint   = "#fc6076"
	linesFill    = "rgba(252, 96, 118, 0.8)"
	trendLabel   = "Usuarios Totales"
	linesLabel   = "Afluencia"
	gradientTop  = "rgba(255, 154, 68, 0.4)"
	gradientBase = "rgba(252, 96, 118, 0.0)"
)

// TrendConfig projects the trend series into a single-series area chart,
// preserving order.
func TrendConfig(points []upstream.TrendPoint) chart.Config {
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Date
		values[i] = p.Flow
	}

	return chart.Config{
		Kind:   chart.KindLine,
		Labels: labels,
		Datasets: []chart.Dataset{{
			Label:       trendLabel,
			Values:      values,
			BorderColor: trendBorder,
			BorderWidth: 2.5,
			Gradient: []chart.GradientStop{
				{Offset: 0, Color: gradientTop},
				{Offset: 1, Color: gradientBase},
			},
			Fill:        true,
			Tension:     0.3,
			PointRadius: 2,
			PointColor:  trendPoint,
		}},
		InteractionMode: chart.InteractionIndex,
		Intersect:       false,
		X:               chart.Axis{TickColor: tickColor, GridColor: trendGridX},
		Y:               chart.Axis{TickColor: tickColor, GridColor: gridY, Format: format.Number},
	}
}

// LinesConfig keeps the first TopLines entries in the order given and
// projects them into a bar chart. It never re-sorts.
func LinesConfig(lines []upstream.LineFlow) chart.Config {
	if len(lines) > TopLines {
		lines = lines[:TopLines]
	}
	labels := make([]string, len(lines))
	values := make([]float64, len(lines))
	for i, l := range lines {
		labels[i] = l.Line
		values[i] = l.Flow
	}

	return chart.Config{
		Kind:   chart.KindBar,
		Labels: labels,
		Datasets: []chart.Dataset{{
			Label:           linesLabel,
			Values:          values,
			BackgroundColor: linesFill,
			BorderRadius:    6,
		}},
		X: chart.Axis{TickColor: tickColor, FontSize: 10, HideGrid: true},
		Y: chart.Axis{TickColor: tickColor, GridColor: gridY, Format: format.Number},
	}
}
