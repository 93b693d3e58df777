package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lan-dot-party/metroflow/internal/chart"
)

func TestQueryString(t *testing.T) {
	tests := []struct {
		name string
		r    DateRange
		want string
	}{
		{"unbounded", DateRange{}, ""},
		{"from only", DateRange{From: "2024-01-01"}, "?desde=2024-01-01"},
		{"to only", DateRange{To: "2024-12-31"}, "?hasta=2024-12-31"},
		{"both", DateRange{From: "2024-01-01", To: "2024-12-31"}, "?desde=2024-01-01&hasta=2024-12-31"},
		{"verbatim", DateRange{From: "ayer & hoy"}, "?desde=ayer+%26+hoy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.QueryString())
		})
	}
	assert.True(t, DateRange{}.IsZero())
	assert.False(t, DateRange{To: "x"}.IsZero())
}

func TestDocumentElements(t *testing.T) {
	doc := NewDocument()
	assert.Equal(t, uint64(0), doc.Revision())

	require.NoError(t, doc.SetText(FieldTotal, "1"))
	require.NoError(t, doc.SetInput(InputFrom, "2024-01-01"))
	assert.ErrorIs(t, doc.SetText("kpi-unknown", "x"), ErrUnknownElement)
	assert.ErrorIs(t, doc.SetInput(FieldTotal, "x"), ErrUnknownElement)
	assert.ErrorIs(t, doc.Paint("chart-other", chart.Image{}), ErrUnknownElement)
	assert.Equal(t, uint64(2), doc.Revision())

	require.NoError(t, doc.Paint(SurfaceTrend, chart.Image{ContentType: chart.ContentTypeSVG, Data: []byte("<svg/>")}))
	img, ok := doc.Surface(SurfaceTrend)
	require.True(t, ok)
	assert.Equal(t, "<svg/>", string(img.Data))

	snap := doc.Snapshot()
	assert.Equal(t, uint64(3), snap.Revision)
	assert.Equal(t, "1", snap.Fields[FieldTotal])
	assert.Equal(t, "2024-01-01", snap.Inputs[InputFrom])
	assert.Equal(t, []string{SurfaceTrend}, snap.Charts)

	require.NoError(t, doc.Erase(SurfaceTrend))
	require.NoError(t, doc.Erase(SurfaceTrend))
	assert.Equal(t, uint64(4), doc.Revision(), "erasing an empty surface is not a change")
	_, ok = doc.Surface(SurfaceTrend)
	assert.False(t, ok)
}

func TestLinesConfigShortInput(t *testing.T) {
	cfg := LinesConfig(nil)
	assert.Empty(t, cfg.Labels)
	require.NoError(t, cfg.Validate())

	cfg = TrendConfig(nil)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "1,000", cfg.Y.Format(1000))
}
