package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	defaultStroke = drawing.Color{R: 37, G: 99, B: 235, A: 255}
	defaultTick   = drawing.Color{R: 71, G: 85, B: 105, A: 255}
)

// PNGEngine renders charts as PNG images through go-chart. Gradients are
// approximated by their first stop and tooltips are not available.
type PNGEngine struct {
	canvas Canvas
	width  int
	height int
}

// NewPNGEngine creates a PNG engine painting onto canvas.
func NewPNGEngine(canvas Canvas, width, height int) *PNGEngine {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &PNGEngine{canvas: canvas, width: width, height: height}
}

// New implements Engine.
func (e *PNGEngine) New(surface string, cfg Config) (Instance, error) {
	return draw(e.canvas, surface, cfg, e.render)
}

func (e *PNGEngine) render(_ string, cfg Config) (Image, error) {
	if len(cfg.Labels) == 0 {
		return e.blank()
	}

	var buf bytes.Buffer
	var err error
	switch cfg.Kind {
	case KindBar:
		err = e.barChart(cfg).Render(gochart.PNG, &buf)
	default:
		err = e.lineChart(cfg).Render(gochart.PNG, &buf)
	}
	if err != nil {
		return Image{}, err
	}
	return Image{ContentType: ContentTypePNG, Data: buf.Bytes()}, nil
}

func (e *PNGEngine) lineChart(cfg Config) gochart.Chart {
	n := len(cfg.Labels)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	series := make([]gochart.Series, 0, len(cfg.Datasets))
	for _, ds := range cfg.Datasets {
		style := gochart.Style{
			StrokeColor: colorOr(ds.BorderColor, defaultStroke),
			StrokeWidth: ds.BorderWidth,
			DotWidth:    ds.PointRadius,
			DotColor:    colorOr(ds.PointColor, colorOr(ds.BorderColor, defaultStroke)),
		}
		if ds.Fill {
			fill := ds.BackgroundColor
			if len(ds.Gradient) > 0 {
				fill = ds.Gradient[0].Color
			}
			style.FillColor = colorOr(fill, drawing.ColorTransparent)
		}
		values := ds.Values
		seriesX := xs
		if n == 1 {
			// go-chart needs two points to draw a segment.
			seriesX = []float64{0, 1}
			values = []float64{ds.Values[0], ds.Values[0]}
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    datasetName(ds),
			XValues: seriesX,
			YValues: values,
			Style:   style,
		})
	}

	maxX := float64(n - 1)
	if maxX < 1 {
		maxX = 1
	}
	skip := labelSkip(n, float64(e.width))
	xTicks := make([]gochart.Tick, 0, n)
	for i, label := range cfg.Labels {
		if i%skip == 0 {
			xTicks = append(xTicks, gochart.Tick{Value: float64(i), Label: label})
		}
	}
	if len(xTicks) == 1 {
		xTicks = append(xTicks, gochart.Tick{Value: maxX, Label: ""})
	}

	ch := gochart.Chart{
		Width:  e.width,
		Height: e.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 16, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: gochart.XAxis{
			Style:          axisStyle(cfg.X),
			GridMajorStyle: gridStyle(cfg.X),
			Range:          &gochart.ContinuousRange{Min: 0, Max: maxX},
			Ticks:          xTicks,
		},
		YAxis:  e.yAxis(cfg),
		Series: series,
	}
	if cfg.Legend {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	return ch
}

func (e *PNGEngine) barChart(cfg Config) gochart.BarChart {
	ds := cfg.Datasets[0]
	bars := make([]gochart.Value, len(cfg.Labels))
	fill := colorOr(ds.BackgroundColor, defaultStroke)
	for i, label := range cfg.Labels {
		bars[i] = gochart.Value{
			Label: label,
			Value: ds.Values[i],
			Style: gochart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		}
	}

	slot := (e.width - 96) / len(bars)
	if slot < 2 {
		slot = 2
	}
	return gochart.BarChart{
		Width:      e.width,
		Height:     e.height,
		BarWidth:   slot * 7 / 10,
		BarSpacing: slot - slot*7/10,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 16, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: axisStyle(cfg.X),
		YAxis: e.yAxis(cfg),
		Bars:  bars,
	}
}

func (e *PNGEngine) yAxis(cfg Config) gochart.YAxis {
	lo, hi := valueRange(cfg.Datasets)
	ticks := make([]gochart.Tick, 0, DefaultTicks+1)
	for i := 0; i <= DefaultTicks; i++ {
		v := lo + (hi-lo)*float64(i)/DefaultTicks
		ticks = append(ticks, gochart.Tick{Value: v, Label: cfg.Y.format(v)})
	}
	return gochart.YAxis{
		Style:          axisStyle(cfg.Y),
		GridMajorStyle: gridStyle(cfg.Y),
		Range:          &gochart.ContinuousRange{Min: lo, Max: hi},
		Ticks:          ticks,
	}
}

func axisStyle(a Axis) gochart.Style {
	return gochart.Style{
		FontColor: colorOr(a.TickColor, defaultTick),
		FontSize:  fontSize(a),
	}
}

func gridStyle(a Axis) gochart.Style {
	if a.HideGrid {
		return gochart.Style{Hidden: true}
	}
	return gochart.Style{
		StrokeColor: colorOr(a.GridColor, drawing.Color{R: 203, G: 213, B: 225, A: 255}),
		StrokeWidth: 1,
	}
}

// blank is drawn for an empty chart, which go-chart refuses to render.
func (e *PNGEngine) blank() (Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Image{}, fmt.Errorf("encode blank chart: %w", err)
	}
	return Image{ContentType: ContentTypePNG, Data: buf.Bytes()}, nil
}
