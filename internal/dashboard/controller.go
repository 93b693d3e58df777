// Package dashboard runs the load cycle that keeps the dashboard page up to
// date: fetch the three datasets concurrently, then update the KPI fields
// and rebuild both charts.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lan-dot-party/metroflow/internal/chart"
	"github.com/lan-dot-party/metroflow/internal/format"
	"github.com/lan-dot-party/metroflow/internal/storage"
	"github.com/lan-dot-party/metroflow/internal/upstream"
)

// ErrSuperseded is returned by a cycle that a newer cycle replaced before it
// could render.
var ErrSuperseded = errors.New("load cycle superseded")

// Triggers recorded with each cycle.
const (
	TriggerLoad   = "load"
	TriggerApply  = "apply"
	TriggerReset  = "reset"
	TriggerReload = "reload"
)

// Source provides the three dashboard datasets. *upstream.Client implements it.
type Source interface {
	KPIs(ctx context.Context, query string) (*upstream.KPISummary, error)
	Trend(ctx context.Context, query string) ([]upstream.TrendPoint, error)
	Lines(ctx context.Context, query string) ([]upstream.LineFlow, error)
}

// Journal records finished cycles. storage.Storage implements it.
type Journal interface {
	SaveCycle(ctx context.Context, record *storage.CycleRecord) error
}

// Controller owns the load cycle and the two live chart instances.
type Controller struct {
	source  Source
	engine  chart.Engine
	doc     *Document
	logger  *zap.Logger
	journal Journal

	// cycleMu guards generation, cancel and last.
	cycleMu    sync.Mutex
	generation uint64
	cancel     context.CancelCauseFunc
	last       DateRange

	// renderMu serializes rendering and guards the chart handles.
	renderMu sync.Mutex
	trend    chart.Instance
	lines    chart.Instance
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithJournal records every finished cycle.
func WithJournal(j Journal) Option {
	return func(c *Controller) {
		c.journal = j
	}
}

// NewController creates a controller rendering onto doc with engine.
func NewController(source Source, engine chart.Engine, doc *Document, opts ...Option) *Controller {
	c := &Controller{
		source: source,
		engine: engine,
		doc:    doc,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Document returns the page the controller renders onto.
func (c *Controller) Document() *Document {
	return c.doc
}

// LastRange returns the range of the most recently started cycle.
func (c *Controller) LastRange() DateRange {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()
	return c.last
}

// Load runs one cycle for r. If any request fails nothing is rendered and the
// page keeps its previous state. Starting a newer cycle supersedes this one.
func (c *Controller) Load(ctx context.Context, r DateRange) error {
	return c.run(ctx, TriggerLoad, r)
}

// ApplyFilters loads with the current values of the date inputs.
func (c *Controller) ApplyFilters(ctx context.Context) error {
	r := DateRange{From: c.doc.Input(InputFrom), To: c.doc.Input(InputTo)}
	return c.run(ctx, TriggerApply, r)
}

// ResetFilters clears both date inputs and loads unbounded.
func (c *Controller) ResetFilters(ctx context.Context) error {
	if err := c.doc.SetInput(InputFrom, ""); err != nil {
		return err
	}
	if err := c.doc.SetInput(InputTo, ""); err != nil {
		return err
	}
	return c.run(ctx, TriggerReset, DateRange{})
}

// Reload repeats the last requested range.
func (c *Controller) Reload(ctx context.Context) error {
	return c.run(ctx, TriggerReload, c.LastRange())
}

// Close cancels any in-flight cycle and destroys both charts.
func (c *Controller) Close() {
	c.cycleMu.Lock()
	c.generation++
	if c.cancel != nil {
		c.cancel(ErrSuperseded)
		c.cancel = nil
	}
	c.cycleMu.Unlock()

	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if c.trend != nil {
		c.trend.Destroy()
		c.trend = nil
	}
	if c.lines != nil {
		c.lines.Destroy()
		c.lines = nil
	}
}

type payload struct {
	kpis  *upstream.KPISummary
	trend []upstream.TrendPoint
	lines []upstream.LineFlow
}

func (c *Controller) run(parent context.Context, trigger string, r DateRange) error {
	ctx, gen := c.begin(parent, r)
	defer c.end(gen)

	record := &storage.CycleRecord{
		ID:        uuid.New(),
		Trigger:   trigger,
		From:      r.From,
		To:        r.To,
		StartedAt: time.Now(),
	}
	log := c.logger.With(
		zap.String("cycle", record.ID.String()),
		zap.String("trigger", trigger),
		zap.String("from", r.From),
		zap.String("to", r.To),
	)

	data, err := c.fetch(ctx, r.QueryString())
	if err != nil && errors.Is(context.Cause(ctx), ErrSuperseded) {
		err = ErrSuperseded
	}
	if err == nil {
		err = c.render(gen, data, log)
	}

	c.finish(parent, record, err, log)
	return err
}

// begin supersedes the in-flight cycle, if any, and returns the context and
// generation of the new one.
func (c *Controller) begin(parent context.Context, r DateRange) (context.Context, uint64) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	if c.cancel != nil {
		c.cancel(ErrSuperseded)
	}
	ctx, cancel := context.WithCancelCause(parent)
	c.generation++
	c.cancel = cancel
	c.last = r
	return ctx, c.generation
}

func (c *Controller) end(gen uint64) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()
	if c.generation == gen && c.cancel != nil {
		c.cancel(context.Canceled)
		c.cancel = nil
	}
}

func (c *Controller) current(gen uint64) bool {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()
	return c.generation == gen
}

// fetch issues all three requests before waiting on any of them.
func (c *Controller) fetch(ctx context.Context, query string) (*payload, error) {
	var data payload
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		kpis, err := c.source.KPIs(gctx, query)
		if err != nil {
			return c.upstreamError(gctx, upstream.PathKPIs, err)
		}
		data.kpis = kpis
		return nil
	})
	g.Go(func() error {
		trend, err := c.source.Trend(gctx, query)
		if err != nil {
			return c.upstreamError(gctx, upstream.PathTrend, err)
		}
		data.trend = trend
		return nil
	})
	g.Go(func() error {
		lines, err := c.source.Lines(gctx, query)
		if err != nil {
			return c.upstreamError(gctx, upstream.PathLines, err)
		}
		data.lines = lines
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Controller) upstreamError(ctx context.Context, endpoint string, err error) error {
	// Siblings cancelled by the first failure are not counted.
	if ctx.Err() == nil || !errors.Is(err, context.Canceled) {
		upstreamErrors.WithLabelValues(endpoint).Inc()
	}
	return fmt.Errorf("%s: %w", endpoint, err)
}

// render updates KPIs, then the trend chart, then the lines chart. A failed
// step is logged and the remaining steps still run.
func (c *Controller) render(gen uint64, data *payload, log *zap.Logger) error {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	if !c.current(gen) {
		return ErrSuperseded
	}

	var errs []error
	if err := c.updateKPIs(data.kpis); err != nil {
		renderErrors.WithLabelValues("kpis").Inc()
		log.Error("Error updating KPIs", zap.Error(err))
		errs = append(errs, err)
	}
	if err := c.renderTrend(data.trend); err != nil {
		renderErrors.WithLabelValues(SurfaceTrend).Inc()
		log.Error("Error rendering chart", zap.String("surface", SurfaceTrend), zap.Error(err))
		errs = append(errs, err)
	}
	if err := c.renderLines(data.lines); err != nil {
		renderErrors.WithLabelValues(SurfaceLines).Inc()
		log.Error("Error rendering chart", zap.String("surface", SurfaceLines), zap.Error(err))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// updateKPIs leaves the fields untouched when the summary is absent or empty.
func (c *Controller) updateKPIs(k *upstream.KPISummary) error {
	if !k.Present() {
		return nil
	}
	updates := []struct {
		id    string
		value string
	}{
		{FieldTotal, format.Int(deref(k.TotalFlow))},
		{FieldAverage, format.Int(deref(k.DailyAverage))},
		{FieldStation, deref(k.TopStation)},
		{FieldLine, deref(k.TopLine)},
	}
	for _, u := range updates {
		if err := c.doc.SetText(u.id, u.value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) renderTrend(points []upstream.TrendPoint) error {
	if c.trend != nil {
		c.trend.Destroy()
		c.trend = nil
	}
	inst, err := c.engine.New(SurfaceTrend, TrendConfig(points))
	if err != nil {
		return err
	}
	c.trend = inst
	trendPoints.Set(float64(len(points)))
	return nil
}

func (c *Controller) renderLines(lines []upstream.LineFlow) error {
	if c.lines != nil {
		c.lines.Destroy()
		c.lines = nil
	}
	inst, err := c.engine.New(SurfaceLines, LinesConfig(lines))
	if err != nil {
		return err
	}
	c.lines = inst
	return nil
}

func (c *Controller) finish(parent context.Context, record *storage.CycleRecord, err error, log *zap.Logger) {
	elapsed := time.Since(record.StartedAt)
	record.DurationMs = float64(elapsed.Microseconds()) / 1000

	switch {
	case err == nil:
		record.Outcome = storage.OutcomeSuccess
		lastSuccess.Set(float64(time.Now().Unix()))
		log.Info("Dashboard updated", zap.Duration("duration", elapsed))
	case errors.Is(err, ErrSuperseded):
		record.Outcome = storage.OutcomeSuperseded
		record.Error = err.Error()
		log.Debug("Load cycle superseded by a newer one")
	default:
		record.Outcome = storage.OutcomeFailed
		record.Error = err.Error()
		log.Error("Error loading dashboard data", zap.Error(err))
	}

	cyclesTotal.WithLabelValues(record.Trigger, string(record.Outcome)).Inc()
	cycleDuration.WithLabelValues(string(record.Outcome)).Observe(elapsed.Seconds())

	if c.journal == nil {
		return
	}
	if jerr := c.journal.SaveCycle(context.WithoutCancel(parent), record); jerr != nil {
		log.Warn("Failed to journal load cycle", zap.Error(jerr))
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
