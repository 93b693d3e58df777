package chart

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Defaults for the SVG engine.
const (
	DefaultWidth   = 720
	DefaultHeight  = 300
	DefaultPadding = 16.0
	DefaultTicks   = 5
)

const (
	yLabelGutter  = 56.0
	xLabelGutter  = 22.0
	legendGutter  = 20.0
	minLabelSpace = 56.0
	defaultFont   = 11.0
)

// SVGOptions sizes the SVG viewport.
type SVGOptions struct {
	Width     int
	Height    int
	Padding   float64
	TickCount int
}

// SVGEngine renders charts as inline SVG.
type SVGEngine struct {
	canvas Canvas
	opts   SVGOptions
}

// NewSVGEngine creates an SVG engine painting onto canvas.
func NewSVGEngine(canvas Canvas, opts SVGOptions) *SVGEngine {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	if opts.TickCount <= 0 {
		opts.TickCount = DefaultTicks
	}
	return &SVGEngine{canvas: canvas, opts: opts}
}

// New implements Engine.
func (e *SVGEngine) New(surface string, cfg Config) (Instance, error) {
	return draw(e.canvas, surface, cfg, e.render)
}

// Render draws cfg without painting it anywhere.
func (e *SVGEngine) Render(surface string, cfg Config) (Image, error) {
	if err := cfg.Validate(); err != nil {
		return Image{}, err
	}
	return e.render(surface, cfg)
}

// plot is the drawing area and value scale shared by line and bar rendering.
type plot struct {
	left, top, width, height float64
	min, max                 float64
}

func (p plot) y(v float64) float64 {
	return p.top + p.height - (v-p.min)/(p.max-p.min)*p.height
}

func (p plot) bottom() float64 { return p.top + p.height }

func (e *SVGEngine) render(surface string, cfg Config) (Image, error) {
	w, h := float64(e.opts.Width), float64(e.opts.Height)
	top := e.opts.Padding
	if cfg.Legend {
		top += legendGutter
	}
	p := plot{
		left:   e.opts.Padding + yLabelGutter,
		top:    top,
		width:  w - 2*e.opts.Padding - yLabelGutter,
		height: h - top - e.opts.Padding - xLabelGutter,
	}
	if p.width <= 0 || p.height <= 0 {
		return Image{}, fmt.Errorf("svg: viewport too small")
	}
	p.min, p.max = valueRange(cfg.Datasets)

	id := makeID(surface)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s-title" font-family="sans-serif">`,
		e.opts.Width, e.opts.Height, id)
	fmt.Fprintf(&b, `<title id="%s-title">%s</title>`, id, esc(chartTitle(cfg)))
	b.WriteString(`<style>.hit{fill:transparent}.hover .guide{opacity:0}.hover:hover .guide{opacity:1}</style>`)

	e.drawYAxis(&b, cfg, p)
	slots := slotCenters(cfg, p)
	drawXAxis(&b, cfg, p, slots)

	switch cfg.Kind {
	case KindLine:
		drawLines(&b, id, cfg, p, slots)
	case KindBar:
		drawBars(&b, cfg, p, slots)
	}
	if cfg.InteractionMode == InteractionIndex {
		drawIndexTooltips(&b, cfg, p, slots)
	}
	if cfg.Legend {
		drawLegend(&b, cfg, p)
	}

	b.WriteString("</svg>")
	return Image{ContentType: ContentTypeSVG, Data: []byte(b.String())}, nil
}

func (e *SVGEngine) drawYAxis(b *strings.Builder, cfg Config, p plot) {
	tickColor := fallback(cfg.Y.TickColor, "#475569")
	fontSize := fontSize(cfg.Y)
	for i := 0; i <= e.opts.TickCount; i++ {
		ratio := float64(i) / float64(e.opts.TickCount)
		value := p.min + (p.max-p.min)*ratio
		y := p.y(value)
		if !cfg.Y.HideGrid {
			fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" aria-hidden="true"></line>`,
				p.left, y, p.left+p.width, y, esc(fallback(cfg.Y.GridColor, "#cbd5e1")))
		}
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="%.0f" text-anchor="end">%s</text>`,
			p.left-6, y+4, esc(tickColor), fontSize, esc(cfg.Y.format(value)))
	}
}

func drawXAxis(b *strings.Builder, cfg Config, p plot, slots []float64) {
	tickColor := fallback(cfg.X.TickColor, "#475569")
	fontSize := fontSize(cfg.X)
	skip := labelSkip(len(slots), p.width)
	for i, x := range slots {
		if !cfg.X.HideGrid {
			fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" aria-hidden="true"></line>`,
				x, p.top, x, p.bottom(), esc(fallback(cfg.X.GridColor, "#e2e8f0")))
		}
		if i%skip != 0 {
			continue
		}
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="%.0f" text-anchor="middle">%s</text>`,
			x, p.bottom()+fontSize+6, esc(tickColor), fontSize, esc(cfg.Labels[i]))
	}
}

func drawLines(b *strings.Builder, id string, cfg Config, p plot, slots []float64) {
	for di, ds := range cfg.Datasets {
		if len(ds.Values) == 0 {
			continue
		}
		points := make([][2]float64, len(ds.Values))
		for i, v := range ds.Values {
			points[i] = [2]float64{slots[i], p.y(v)}
		}
		path := linePath(points, ds.Tension)

		if ds.Fill {
			fill := esc(fallback(ds.BackgroundColor, "none"))
			if len(ds.Gradient) > 0 {
				gradID := fmt.Sprintf("%s-fill-%d", id, di)
				writeGradient(b, gradID, ds.Gradient)
				fill = "url(#" + gradID + ")"
			}
			fmt.Fprintf(b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" stroke="none" aria-hidden="true"></path>`,
				path, points[len(points)-1][0], p.bottom(), points[0][0], p.bottom(), fill)
		}

		width := ds.BorderWidth
		if width <= 0 {
			width = 2
		}
		fmt.Fprintf(b, `<path d="%s" fill="none" stroke="%s" stroke-width="%.2f" stroke-linejoin="round" stroke-linecap="round"></path>`,
			path, esc(fallback(ds.BorderColor, "#2563eb")), width)

		if ds.PointRadius > 0 {
			dot := esc(fallback(ds.PointColor, fallback(ds.BorderColor, "#2563eb")))
			for i, pt := range points {
				fmt.Fprintf(b, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s">`, pt[0], pt[1], ds.PointRadius, dot)
				if cfg.InteractionMode != InteractionIndex {
					fmt.Fprintf(b, `<title>%s</title>`, esc(tooltipLine(cfg, ds, i)))
				}
				b.WriteString(`</circle>`)
			}
		}
	}
}

func drawBars(b *strings.Builder, cfg Config, p plot, slots []float64) {
	if len(slots) == 0 {
		return
	}
	group := p.width / float64(len(slots))
	barWidth := group * 0.8 * 0.9 / float64(len(cfg.Datasets))
	zero := p.y(0)
	for di, ds := range cfg.Datasets {
		fill := esc(fallback(ds.BackgroundColor, "#0ea5e9"))
		for i, v := range ds.Values {
			x := slots[i] - group*0.36 + float64(di)*barWidth
			y := p.y(v)
			fmt.Fprintf(b, `<path d="%s" fill="%s">`, barPath(x, y, barWidth, zero, ds.BorderRadius), fill)
			if cfg.InteractionMode != InteractionIndex {
				fmt.Fprintf(b, `<title>%s</title>`, esc(tooltipLine(cfg, ds, i)))
			}
			b.WriteString(`</path>`)
		}
	}
}

// drawIndexTooltips adds one hover band per label; its title lists the
// value of every dataset at that index.
func drawIndexTooltips(b *strings.Builder, cfg Config, p plot, slots []float64) {
	if len(slots) == 0 {
		return
	}
	for i, x := range slots {
		left := p.left
		if i > 0 {
			left = (slots[i-1] + x) / 2
		}
		right := p.left + p.width
		if i < len(slots)-1 {
			right = (x + slots[i+1]) / 2
		}

		lines := []string{cfg.Labels[i]}
		for _, ds := range cfg.Datasets {
			lines = append(lines, fmt.Sprintf("%s: %s", datasetName(ds), cfg.Y.format(ds.Values[i])))
		}

		fmt.Fprintf(b, `<g class="hover" data-index="%d">`, i)
		fmt.Fprintf(b, `<line class="guide" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"></line>`,
			x, p.top, x, p.bottom(), esc(fallback(cfg.X.TickColor, "#94a3b8")))
		fmt.Fprintf(b, `<rect class="hit" x="%.2f" y="%.2f" width="%.2f" height="%.2f"><title>%s</title></rect>`,
			left, p.top, math.Max(right-left, 1), p.height, esc(strings.Join(lines, "\n")))
		b.WriteString(`</g>`)
	}
}

func drawLegend(b *strings.Builder, cfg Config, p plot) {
	x := p.left
	y := p.top - legendGutter + 10
	for _, ds := range cfg.Datasets {
		color := fallback(ds.BorderColor, fallback(ds.BackgroundColor, "#2563eb"))
		fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, x, y-9, esc(color))
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="%.0f">%s</text>`,
			x+14, y, esc(fallback(cfg.X.TickColor, "#475569")), defaultFont, esc(datasetName(ds)))
		x += 28 + float64(len(datasetName(ds)))*6
	}
}

func writeGradient(b *strings.Builder, id string, stops []GradientStop) {
	fmt.Fprintf(b, `<defs><linearGradient id="%s" x1="0" y1="0" x2="0" y2="1">`, id)
	for _, stop := range stops {
		fmt.Fprintf(b, `<stop offset="%.2f" stop-color="%s"></stop>`, stop.Offset, esc(stop.Color))
	}
	b.WriteString(`</linearGradient></defs>`)
}

// linePath returns straight segments, or cubic curves through every point
// (Catmull-Rom) when tension > 0.
func linePath(points [][2]float64, tension float64) string {
	var path strings.Builder
	fmt.Fprintf(&path, "M%.2f %.2f", points[0][0], points[0][1])
	if tension <= 0 || len(points) < 3 {
		for _, pt := range points[1:] {
			fmt.Fprintf(&path, " L%.2f %.2f", pt[0], pt[1])
		}
		return path.String()
	}

	k := tension / 2
	for i := 0; i < len(points)-1; i++ {
		p0 := points[max(i-1, 0)]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[min(i+2, len(points)-1)]
		c1x := p1[0] + (p2[0]-p0[0])*k
		c1y := p1[1] + (p2[1]-p0[1])*k
		c2x := p2[0] - (p3[0]-p1[0])*k
		c2y := p2[1] - (p3[1]-p1[1])*k
		fmt.Fprintf(&path, " C%.2f %.2f %.2f %.2f %.2f %.2f", c1x, c1y, c2x, c2y, p2[0], p2[1])
	}
	return path.String()
}

// barPath draws a bar from the zero line to y with the far corners rounded.
func barPath(x, y, w, zero, radius float64) string {
	h := math.Abs(zero - y)
	r := math.Min(math.Max(radius, 0), math.Min(w/2, h))
	if r <= 0 {
		return fmt.Sprintf("M%.2f %.2f H%.2f V%.2f H%.2f Z", x, zero, x+w, y, x)
	}
	if y <= zero {
		return fmt.Sprintf("M%.2f %.2f V%.2f Q%.2f %.2f %.2f %.2f H%.2f Q%.2f %.2f %.2f %.2f V%.2f Z",
			x, zero, y+r, x, y, x+r, y, x+w-r, x+w, y, x+w, y+r, zero)
	}
	return fmt.Sprintf("M%.2f %.2f V%.2f Q%.2f %.2f %.2f %.2f H%.2f Q%.2f %.2f %.2f %.2f V%.2f Z",
		x, zero, y-r, x, y, x+r, y, x+w-r, x+w, y, x+w, y-r, zero)
}

// slotCenters returns the x position of each label. Lines span the full
// width edge to edge; bars sit in the middle of equal slots.
func slotCenters(cfg Config, p plot) []float64 {
	n := len(cfg.Labels)
	slots := make([]float64, n)
	for i := range slots {
		switch {
		case cfg.Kind == KindBar:
			slots[i] = p.left + (float64(i)+0.5)*p.width/float64(n)
		case n == 1:
			slots[i] = p.left + p.width/2
		default:
			slots[i] = p.left + float64(i)*p.width/float64(n-1)
		}
	}
	return slots
}

func labelSkip(n int, width float64) int {
	if n == 0 {
		return 1
	}
	fit := int(width / minLabelSpace)
	if fit < 1 {
		fit = 1
	}
	return int(math.Ceil(float64(n) / float64(fit)))
}

func valueRange(datasets []Dataset) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, ds := range datasets {
		for _, v := range ds.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi > 0 {
		hi = niceCeil(hi)
	}
	if lo < 0 {
		lo = -niceCeil(-lo)
	}
	if hi-lo < 1e-9 {
		hi = lo + 1
	}
	return lo, hi
}

// niceCeil rounds v up to 1, 2, 2.5 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, step := range []float64{1, 2, 2.5, 5, 10} {
		if v <= step*mag {
			return step * mag
		}
	}
	return 10 * mag
}

func tooltipLine(cfg Config, ds Dataset, i int) string {
	return fmt.Sprintf("%s\n%s: %s", cfg.Labels[i], datasetName(ds), cfg.Y.format(ds.Values[i]))
}

func datasetName(ds Dataset) string {
	return fallback(ds.Label, "Series")
}

func chartTitle(cfg Config) string {
	names := make([]string, 0, len(cfg.Datasets))
	for _, ds := range cfg.Datasets {
		names = append(names, datasetName(ds))
	}
	return strings.Join(names, ", ")
}

func fontSize(a Axis) float64 {
	if a.FontSize > 0 {
		return a.FontSize
	}
	return defaultFont
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func esc(s string) string {
	return template.HTMLEscapeString(s)
}

func makeID(base string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned
}
