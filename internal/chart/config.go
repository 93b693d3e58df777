// Package chart builds line and bar charts onto named drawing surfaces.
package chart

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned when a Config cannot be drawn.
var ErrInvalidConfig = errors.New("invalid chart config")

// MaxValue bounds the magnitude of plotted values. Larger values overflow
// once the axis is rounded up to a nice ceiling.
const MaxValue = 1e300

// Kind selects the chart type.
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// InteractionIndex shows one tooltip per index covering every dataset.
const InteractionIndex = "index"

// GradientStop is one colour stop of a vertical gradient (0 = top, 1 = bottom).
type GradientStop struct {
	Offset float64
	Color  string
}

// Dataset is one plotted series.
type Dataset struct {
	Label           string
	Values          []float64
	BorderColor     string
	BorderWidth     float64
	BackgroundColor string
	// Gradient, when set, replaces BackgroundColor as the fill.
	Gradient     []GradientStop
	Fill         bool
	Tension      float64
	PointRadius  float64
	PointColor   string
	BorderRadius float64
}

// Axis styles one chart axis.
type Axis struct {
	TickColor string
	FontSize  float64
	GridColor string
	HideGrid  bool
	// Format renders tick values; nil prints them plainly.
	Format func(float64) string
}

// Config describes a chart independent of the engine that draws it.
type Config struct {
	Kind     Kind
	Labels   []string
	Datasets []Dataset

	Legend          bool
	InteractionMode string
	Intersect       bool

	X Axis
	Y Axis
}

// Validate checks that labels and datasets line up and values are finite.
func (c Config) Validate() error {
	switch c.Kind {
	case KindLine, KindBar:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, c.Kind)
	}
	if len(c.Datasets) == 0 {
		return fmt.Errorf("%w: at least one dataset required", ErrInvalidConfig)
	}
	for i, ds := range c.Datasets {
		if len(ds.Values) != len(c.Labels) {
			return fmt.Errorf("%w: dataset %d has %d values for %d labels",
				ErrInvalidConfig, i, len(ds.Values), len(c.Labels))
		}
		for j, v := range ds.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: dataset %d value %d is not finite", ErrInvalidConfig, i, j)
			}
			if math.Abs(v) > MaxValue {
				return fmt.Errorf("%w: dataset %d value %d is out of range", ErrInvalidConfig, i, j)
			}
		}
	}
	return nil
}

func (a Axis) format(v float64) string {
	if a.Format != nil {
		return a.Format(v)
	}
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
