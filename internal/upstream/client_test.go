package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ", nil)
	assert.Error(t, err)
}

func TestKPIsDecodesSummary(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK,
		`{"total_afluencia": 1234567, "promedio_diario": 4200, "estacion_top": "Centro", "linea_top": "L2", "extra": true}`)
	c, err := NewClient(srv.URL+"/", nil)
	require.NoError(t, err)

	kpis, err := c.KPIs(context.Background(), "?desde=2024-01-01")
	require.NoError(t, err)
	require.True(t, kpis.Present())
	assert.Equal(t, int64(1234567), *kpis.TotalFlow)
	assert.Equal(t, int64(4200), *kpis.DailyAverage)
	assert.Equal(t, "Centro", *kpis.TopStation)
	assert.Equal(t, "L2", *kpis.TopLine)
	assert.Equal(t, []string{"/api/kpis?desde=2024-01-01"}, *seen)
}

func TestKPIsEmptyObjectAndNull(t *testing.T) {
	for _, body := range []string{`{}`, `null`} {
		srv, _ := newTestServer(t, http.StatusOK, body)
		c, err := NewClient(srv.URL, nil)
		require.NoError(t, err)

		kpis, err := c.KPIs(context.Background(), "")
		require.NoError(t, err, body)
		assert.False(t, kpis.Present(), body)
	}
}

func TestKPIsPartialObjectIsMalformed(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"total_afluencia": 10}`)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.KPIs(context.Background(), "")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestTrendPreservesOrder(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK,
		`[{"fecha":"2024-01-02","afluencia":20},{"fecha":"2024-01-01","afluencia":10}]`)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	points, err := c.Trend(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2024-01-02", points[0].Date)
	assert.Equal(t, 10.0, points[1].Flow)
}

func TestLinesRejectsWrongShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object instead of array", `{"linea":"L1","afluencia":1}`},
		{"null", `null`},
		{"not json", `<html>oops</html>`},
		{"string flow", `[{"linea":"L1","afluencia":"many"}]`},
		{"missing label", `[{"afluencia":5}]`},
		{"negative flow", `[{"linea":"L1","afluencia":-1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, tt.body)
			c, err := NewClient(srv.URL, nil)
			require.NoError(t, err)

			_, err = c.Lines(context.Background(), "")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestNon2xxIsAnError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `[]`)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Trend(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestCancelledContext(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[]`)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Lines(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
