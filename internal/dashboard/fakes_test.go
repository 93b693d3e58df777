package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/lan-dot-party/metroflow/internal/chart"
	"github.com/lan-dot-party/metroflow/internal/storage"
	"github.com/lan-dot-party/metroflow/internal/upstream"
)

type fakeSource struct {
	kpis  *upstream.KPISummary
	trend []upstream.TrendPoint
	lines []upstream.LineFlow
	errs  map[string]error

	// gate, when set, holds every request until it is closed.
	gate      chan struct{}
	ignoreCtx bool
	started   chan string

	mu      sync.Mutex
	queries []string
}

func (f *fakeSource) wait(ctx context.Context, path, query string) error {
	f.mu.Lock()
	f.queries = append(f.queries, path+query)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- path
	}
	if f.gate != nil {
		if f.ignoreCtx {
			<-f.gate
		} else {
			select {
			case <-f.gate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return f.errs[path]
}

func (f *fakeSource) KPIs(ctx context.Context, query string) (*upstream.KPISummary, error) {
	if err := f.wait(ctx, upstream.PathKPIs, query); err != nil {
		return nil, err
	}
	return f.kpis, nil
}

func (f *fakeSource) Trend(ctx context.Context, query string) ([]upstream.TrendPoint, error) {
	if err := f.wait(ctx, upstream.PathTrend, query); err != nil {
		return nil, err
	}
	return f.trend, nil
}

func (f *fakeSource) Lines(ctx context.Context, query string) ([]upstream.LineFlow, error) {
	if err := f.wait(ctx, upstream.PathLines, query); err != nil {
		return nil, err
	}
	return f.lines, nil
}

func (f *fakeSource) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// routedSource picks a fakeSource by query string.
type routedSource map[string]*fakeSource

func (r routedSource) KPIs(ctx context.Context, query string) (*upstream.KPISummary, error) {
	return r[query].KPIs(ctx, query)
}

func (r routedSource) Trend(ctx context.Context, query string) ([]upstream.TrendPoint, error) {
	return r[query].Trend(ctx, query)
}

func (r routedSource) Lines(ctx context.Context, query string) ([]upstream.LineFlow, error) {
	return r[query].Lines(ctx, query)
}

type recordingEngine struct {
	canvas chart.Canvas
	fail   map[string]error

	mu      sync.Mutex
	seq     int
	events  []string
	configs map[string][]chart.Config
}

func newRecordingEngine(canvas chart.Canvas) *recordingEngine {
	return &recordingEngine{canvas: canvas, configs: make(map[string][]chart.Config)}
}

func (e *recordingEngine) New(surface string, cfg chart.Config) (chart.Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.fail[surface]; err != nil {
		return nil, err
	}
	e.seq++
	e.events = append(e.events, fmt.Sprintf("new %s#%d", surface, e.seq))
	e.configs[surface] = append(e.configs[surface], cfg)
	img := chart.Image{ContentType: "text/plain", Data: []byte(fmt.Sprint(e.seq))}
	if err := e.canvas.Paint(surface, img); err != nil {
		return nil, err
	}
	return &recordedInstance{engine: e, surface: surface, cfg: cfg, seq: e.seq}, nil
}

func (e *recordingEngine) Events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

func (e *recordingEngine) Last(surface string) chart.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfgs := e.configs[surface]
	return cfgs[len(cfgs)-1]
}

type recordedInstance struct {
	engine  *recordingEngine
	surface string
	cfg     chart.Config
	seq     int
	once    sync.Once
}

func (i *recordedInstance) Surface() string      { return i.surface }
func (i *recordedInstance) Config() chart.Config { return i.cfg }

func (i *recordedInstance) Destroy() {
	i.once.Do(func() {
		i.engine.mu.Lock()
		i.engine.events = append(i.engine.events, fmt.Sprintf("destroy %s#%d", i.surface, i.seq))
		i.engine.mu.Unlock()
		_ = i.engine.canvas.Erase(i.surface)
	})
}

type memJournal struct {
	mu      sync.Mutex
	records []storage.CycleRecord
	err     error
}

func (j *memJournal) SaveCycle(_ context.Context, r *storage.CycleRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, *r)
	return j.err
}

func (j *memJournal) Records() []storage.CycleRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]storage.CycleRecord(nil), j.records...)
}
