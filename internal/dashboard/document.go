package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lan-dot-party/metroflow/internal/chart"
)

// Element identifiers of the dashboard page.
const (
	FieldTotal   = "kpi-total"
	FieldAverage = "kpi-avg"
	FieldStation = "kpi-station"
	FieldLine    = "kpi-line"

	SurfaceTrend = "chart-trend"
	SurfaceLines = "chart-lines"

	InputFrom = "date-from"
	InputTo   = "date-to"
)

// ErrUnknownElement is returned when an identifier is not part of the page.
var ErrUnknownElement = errors.New("unknown element")

// Document is the dashboard page: text fields, date inputs and chart
// surfaces, addressed by fixed identifiers. Every mutation bumps Revision.
// Document implements chart.Canvas.
type Document struct {
	mu       sync.RWMutex
	fields   map[string]string
	inputs   map[string]string
	surfaces map[string]*chart.Image
	revision uint64
}

// NewDocument creates the page with all elements present and empty.
func NewDocument() *Document {
	d := &Document{
		fields:   make(map[string]string),
		inputs:   make(map[string]string),
		surfaces: make(map[string]*chart.Image),
	}
	for _, id := range []string{FieldTotal, FieldAverage, FieldStation, FieldLine} {
		d.fields[id] = ""
	}
	d.inputs[InputFrom] = ""
	d.inputs[InputTo] = ""
	d.surfaces[SurfaceTrend] = nil
	d.surfaces[SurfaceLines] = nil
	return d
}

// Text returns the content of a text field.
func (d *Document) Text(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields[id]
}

// SetText replaces the content of a text field.
func (d *Document) SetText(id, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.fields[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	d.fields[id] = value
	d.revision++
	return nil
}

// Input returns the value of a date input.
func (d *Document) Input(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.inputs[id]
}

// SetInput sets the value of a date input.
func (d *Document) SetInput(id, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.inputs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	d.inputs[id] = value
	d.revision++
	return nil
}

// Surface returns the image currently painted on a chart surface.
func (d *Document) Surface(id string) (chart.Image, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	img := d.surfaces[id]
	if img == nil {
		return chart.Image{}, false
	}
	return *img, true
}

// Paint implements chart.Canvas.
func (d *Document) Paint(surface string, img chart.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.surfaces[surface]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, surface)
	}
	d.surfaces[surface] = &img
	d.revision++
	return nil
}

// Erase implements chart.Canvas.
func (d *Document) Erase(surface string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, ok := d.surfaces[surface]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, surface)
	}
	if img != nil {
		d.surfaces[surface] = nil
		d.revision++
	}
	return nil
}

// Revision counts mutations since the document was created.
func (d *Document) Revision() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revision
}

// Snapshot is a point-in-time copy of the page.
type Snapshot struct {
	Revision uint64            `json:"revision"`
	Fields   map[string]string `json:"fields"`
	Inputs   map[string]string `json:"inputs"`
	Charts   []string          `json:"charts"`
}

// Snapshot copies the page state. Charts lists the painted surfaces.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Snapshot{
		Revision: d.revision,
		Fields:   make(map[string]string, len(d.fields)),
		Inputs:   make(map[string]string, len(d.inputs)),
		Charts:   []string{},
	}
	for k, v := range d.fields {
		s.Fields[k] = v
	}
	for k, v := range d.inputs {
		s.Inputs[k] = v
	}
	for k, img := range d.surfaces {
		if img != nil {
			s.Charts = append(s.Charts, k)
		}
	}
	sort.Strings(s.Charts)
	return s
}
