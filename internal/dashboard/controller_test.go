package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lan-dot-party/metroflow/internal/storage"
	"github.com/lan-dot-party/metroflow/internal/upstream"
)

func ptr[T any](v T) *T { return &v }

func sampleSource() *fakeSource {
	return &fakeSource{
		kpis: &upstream.KPISummary{
			TotalFlow:    ptr(int64(1234567)),
			DailyAverage: ptr(int64(4200)),
			TopStation:   ptr("Centro"),
			TopLine:      ptr("L2"),
		},
		trend: []upstream.TrendPoint{
			{Date: "2024-01-01", Flow: 100},
			{Date: "2024-01-02", Flow: 300},
			{Date: "2024-01-03", Flow: 200},
		},
		lines: []upstream.LineFlow{
			{Line: "L2", Flow: 900},
			{Line: "L1", Flow: 500},
		},
	}
}

type harness struct {
	ctrl    *Controller
	doc     *Document
	engine  *recordingEngine
	journal *memJournal
}

func newHarness(t *testing.T, src Source) *harness {
	t.Helper()
	doc := NewDocument()
	engine := newRecordingEngine(doc)
	journal := &memJournal{}
	ctrl := NewController(src, engine, doc, WithLogger(zaptest.NewLogger(t)), WithJournal(journal))
	return &harness{ctrl: ctrl, doc: doc, engine: engine, journal: journal}
}

func TestLoadRendersEverything(t *testing.T) {
	src := sampleSource()
	h := newHarness(t, src)

	require.NoError(t, h.ctrl.Load(context.Background(), DateRange{From: "2024-01-01"}))

	assert.Equal(t, "1,234,567", h.doc.Text(FieldTotal))
	assert.Equal(t, "4,200", h.doc.Text(FieldAverage))
	assert.Equal(t, "Centro", h.doc.Text(FieldStation))
	assert.Equal(t, "L2", h.doc.Text(FieldLine))

	_, ok := h.doc.Surface(SurfaceTrend)
	assert.True(t, ok)
	_, ok = h.doc.Surface(SurfaceLines)
	assert.True(t, ok)

	assert.ElementsMatch(t, []string{
		"/api/kpis?desde=2024-01-01",
		"/api/trend?desde=2024-01-01",
		"/api/lines?desde=2024-01-01",
	}, src.Queries())

	trend := h.engine.Last(SurfaceTrend)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, trend.Labels)
	assert.Equal(t, []float64{100, 300, 200}, trend.Datasets[0].Values)

	records := h.journal.Records()
	require.Len(t, records, 1)
	assert.Equal(t, storage.OutcomeSuccess, records[0].Outcome)
	assert.Equal(t, TriggerLoad, records[0].Trigger)
	assert.Equal(t, "2024-01-01", records[0].From)
	assert.Empty(t, records[0].Error)
}

func TestLoadIssuesRequestsConcurrently(t *testing.T) {
	src := sampleSource()
	src.gate = make(chan struct{})
	src.started = make(chan string, 3)
	h := newHarness(t, src)

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Load(context.Background(), DateRange{}) }()

	// All three must be in flight before any of them is answered.
	seen := map[string]bool{}
	for len(seen) < 3 {
		select {
		case path := <-src.started:
			seen[path] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d requests in flight", len(seen))
		}
	}
	close(src.gate)
	require.NoError(t, <-done)
}

func TestLoadFailureLeavesPageUntouched(t *testing.T) {
	for _, path := range []string{upstream.PathKPIs, upstream.PathTrend, upstream.PathLines} {
		t.Run(path, func(t *testing.T) {
			src := sampleSource()
			h := newHarness(t, src)
			require.NoError(t, h.ctrl.Load(context.Background(), DateRange{}))

			before := h.doc.Snapshot()
			events := h.engine.Events()

			src.errs = map[string]error{path: fmt.Errorf("%w: status 500", upstream.ErrUnexpectedStatus)}
			src.kpis.TopStation = ptr("Other")
			err := h.ctrl.Load(context.Background(), DateRange{From: "2024-02-01"})

			require.Error(t, err)
			assert.ErrorIs(t, err, upstream.ErrUnexpectedStatus)
			assert.Contains(t, err.Error(), path)
			assert.Equal(t, before, h.doc.Snapshot())
			assert.Equal(t, events, h.engine.Events(), "no chart was destroyed or built")

			records := h.journal.Records()
			require.Len(t, records, 2)
			assert.Equal(t, storage.OutcomeFailed, records[1].Outcome)
			assert.Contains(t, records[1].Error, "status 500")
		})
	}
}

func TestEmptyKPIsKeepPreviousValues(t *testing.T) {
	for name, kpis := range map[string]*upstream.KPISummary{
		"absent": nil,
		"empty":  {},
	} {
		t.Run(name, func(t *testing.T) {
			src := sampleSource()
			src.kpis = kpis
			h := newHarness(t, src)
			require.NoError(t, h.doc.SetText(FieldTotal, "999"))
			require.NoError(t, h.doc.SetText(FieldStation, "Previa"))

			require.NoError(t, h.ctrl.Load(context.Background(), DateRange{}))

			assert.Equal(t, "999", h.doc.Text(FieldTotal))
			assert.Equal(t, "", h.doc.Text(FieldAverage))
			assert.Equal(t, "Previa", h.doc.Text(FieldStation))
			_, ok := h.doc.Surface(SurfaceTrend)
			assert.True(t, ok, "charts still render")
		})
	}
}

func TestLinesChartKeepsFirstTen(t *testing.T) {
	src := sampleSource()
	src.lines = nil
	for i := 0; i < 15; i++ {
		src.lines = append(src.lines, upstream.LineFlow{Line: fmt.Sprintf("L%d", i+1), Flow: float64(1500 - i*100)})
	}
	h := newHarness(t, src)

	require.NoError(t, h.ctrl.Load(context.Background(), DateRange{}))

	cfg := h.engine.Last(SurfaceLines)
	require.Len(t, cfg.Labels, TopLines)
	for i := 0; i < TopLines; i++ {
		assert.Equal(t, src.lines[i].Line, cfg.Labels[i])
		assert.Equal(t, src.lines[i].Flow, cfg.Datasets[0].Values[i])
	}
}

func TestChartsAreDestroyedBeforeRebuild(t *testing.T) {
	h := newHarness(t, sampleSource())

	require.NoError(t, h.ctrl.Load(context.Background(), DateRange{}))
	require.NoError(t, h.ctrl.Load(context.Background(), DateRange{}))

	assert.Equal(t, []string{
		"new chart-trend#1",
		"new chart-lines#2",
		"destroy chart-trend#1",
		"new chart-trend#3",
		"destroy chart-lines#2",
		"new chart-lines#4",
	}, h.engine.Events())
}

func TestRenderFailureDoesNotBlockOtherSteps(t *testing.T) {
	h := newHarness(t, sampleSource())
	h.engine.fail = map[string]error{SurfaceTrend: errors.New("boom")}

	err := h.ctrl.Load(context.Background(), DateRange{})

	require.Error(t, err)
	assert.Equal(t, "1,234,567", h.doc.Text(FieldTotal))
	_, ok := h.doc.Surface(SurfaceLines)
	assert.True(t, ok)
	_, ok = h.doc.Surface(SurfaceTrend)
	assert.False(t, ok)
}

func TestNewerCycleSupersedesOlder(t *testing.T) {
	for _, ignoreCtx := range []bool{false, true} {
		t.Run(fmt.Sprintf("ignoreCtx=%v", ignoreCtx), func(t *testing.T) {
			older := sampleSource()
			older.kpis.TopStation = ptr("Older")
			older.gate = make(chan struct{})
			older.ignoreCtx = ignoreCtx
			older.started = make(chan string, 3)

			newer := sampleSource()
			newer.kpis.TopStation = ptr("Newer")

			h := newHarness(t, routedSource{
				"?desde=2024-01-01": older,
				"?desde=2024-02-01": newer,
			})

			done := make(chan error, 1)
			go func() { done <- h.ctrl.Load(context.Background(), DateRange{From: "2024-01-01"}) }()
			for i := 0; i < 3; i++ {
				<-older.started
			}

			require.NoError(t, h.ctrl.Load(context.Background(), DateRange{From: "2024-02-01"}))
			close(older.gate)

			assert.ErrorIs(t, <-done, ErrSuperseded)
			assert.Equal(t, "Newer", h.doc.Text(FieldStation))

			outcomes := map[storage.Outcome]int{}
			for _, r := range h.journal.Records() {
				outcomes[r.Outcome]++
			}
			assert.Equal(t, map[storage.Outcome]int{
				storage.OutcomeSuccess:    1,
				storage.OutcomeSuperseded: 1,
			}, outcomes)
		})
	}
}

func TestApplyAndResetFilters(t *testing.T) {
	src := sampleSource()
	h := newHarness(t, src)

	require.NoError(t, h.doc.SetInput(InputFrom, "2024-01-01"))
	require.NoError(t, h.doc.SetInput(InputTo, "2024-01-31"))
	require.NoError(t, h.ctrl.ApplyFilters(context.Background()))
	assert.Contains(t, src.Queries(), "/api/trend?desde=2024-01-01&hasta=2024-01-31")
	assert.Equal(t, DateRange{From: "2024-01-01", To: "2024-01-31"}, h.ctrl.LastRange())

	require.NoError(t, h.ctrl.Reload(context.Background()))
	queries := src.Queries()
	assert.Equal(t, "/api/lines?desde=2024-01-01&hasta=2024-01-31", lastWithPrefix(queries, upstream.PathLines))

	require.NoError(t, h.ctrl.ResetFilters(context.Background()))
	assert.Equal(t, "", h.doc.Input(InputFrom))
	assert.Equal(t, "", h.doc.Input(InputTo))
	assert.Equal(t, "/api/lines", lastWithPrefix(src.Queries(), upstream.PathLines))

	var triggers []string
	for _, r := range h.journal.Records() {
		triggers = append(triggers, r.Trigger)
	}
	assert.Equal(t, []string{TriggerApply, TriggerReload, TriggerReset}, triggers)
}

func TestJournalFailureDoesNotFailCycle(t *testing.T) {
	h := newHarness(t, sampleSource())
	h.journal.err = errors.New("disk full")

	assert.NoError(t, h.ctrl.Load(context.Background(), DateRange{}))
}

func TestCloseDestroysCharts(t *testing.T) {
	h := newHarness(t, sampleSource())
	require.NoError(t, h.ctrl.Load(context.Background(), DateRange{}))

	h.ctrl.Close()

	assert.Empty(t, h.doc.Snapshot().Charts)
}

func lastWithPrefix(queries []string, prefix string) string {
	for i := len(queries) - 1; i >= 0; i-- {
		if len(queries[i]) >= len(prefix) && queries[i][:len(prefix)] == prefix {
			return queries[i]
		}
	}
	return ""
}

func TestFailureIsLoggedWithFixedMessage(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	src := sampleSource()
	src.errs = map[string]error{upstream.PathLines: errors.New("connection refused")}
	doc := NewDocument()
	ctrl := NewController(src, newRecordingEngine(doc), doc, WithLogger(zap.New(core)))

	require.Error(t, ctrl.Load(context.Background(), DateRange{}))

	entries := logs.FilterMessage("Error loading dashboard data").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Contains(t, entries[0].ContextMap()["error"], "connection refused")
}
