package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lan-dot-party/metroflow/internal/chart"
	"github.com/lan-dot-party/metroflow/internal/config"
	"github.com/lan-dot-party/metroflow/internal/dashboard"
	"github.com/lan-dot-party/metroflow/internal/storage"
	"github.com/lan-dot-party/metroflow/internal/upstream"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefault()
	cfg.Upstream.BaseURL = "http://localhost:8000"
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "journal.db")
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestOpenJournal(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	store, err := openJournal(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	cfg.Storage.Type = config.StorageNone
	none, err := openJournal(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestNewEngine(t *testing.T) {
	cfg := testConfig(t)
	doc := dashboard.NewDocument()

	svg, err := newEngine(cfg, formatSVG, doc)
	require.NoError(t, err)
	assert.IsType(t, &chart.SVGEngine{}, svg)

	png, err := newEngine(cfg, formatPNG, doc)
	require.NoError(t, err)
	assert.IsType(t, &chart.PNGEngine{}, png)

	_, err = newEngine(cfg, "gif", doc)
	assert.ErrorContains(t, err, "unknown chart format")
}

func TestNewController(t *testing.T) {
	cfg := testConfig(t)

	ctrl, err := newController(cfg, formatSVG, nil)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	assert.NotNil(t, ctrl.Document())

	_, err = newController(cfg, "gif", nil)
	assert.Error(t, err)
}

func TestDescribeRange(t *testing.T) {
	assert.Equal(t, "all dates", describeRange(dashboard.DateRange{}))
	assert.Equal(t, "from 2024-01-01", describeRange(dashboard.DateRange{From: "2024-01-01"}))
	assert.Equal(t, "until 2024-01-31", describeRange(dashboard.DateRange{To: "2024-01-31"}))
	assert.Equal(t, "2024-01-01 to 2024-01-31", describeRange(dashboard.DateRange{From: "2024-01-01", To: "2024-01-31"}))
}

func TestCycleRange(t *testing.T) {
	assert.Equal(t, "all", cycleRange(storage.CycleRecord{}))
	assert.Equal(t, "2024-01-01..", cycleRange(storage.CycleRecord{From: "2024-01-01"}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestLoadRangeJournalsLoadTrigger(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case upstream.PathKPIs:
			_, _ = w.Write([]byte(`{"total_afluencia":1500,"promedio_diario":50,"estacion_top":"Centro","linea_top":"L1"}`))
		case upstream.PathTrend:
			_, _ = w.Write([]byte(`[{"fecha":"2024-01-01","afluencia":1500}]`))
		case upstream.PathLines:
			_, _ = w.Write([]byte(`[{"linea":"L1","afluencia":1500}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(up.Close)

	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Upstream.BaseURL = up.URL

	store, err := openJournal(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctrl, err := newController(cfg, formatSVG, store)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	r := dashboard.DateRange{From: "2024-01-01", To: "2024-01-31"}
	require.NoError(t, loadRange(ctx, ctrl, r))

	doc := ctrl.Document()
	assert.Equal(t, "2024-01-01", doc.Input(dashboard.InputFrom))
	assert.Equal(t, "1,500", doc.Text(dashboard.FieldTotal))

	cycles, err := store.GetCycles(ctx, storage.CycleFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, dashboard.TriggerLoad, cycles[0].Trigger)
	assert.Equal(t, "2024-01-01", cycles[0].From)
}
