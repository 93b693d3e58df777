package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Kind:     KindLine,
		Labels:   []string{"a", "b"},
		Datasets: []Dataset{{Values: []float64{1, 2}}},
	}
	require.NoError(t, valid.Validate())

	empty := Config{Kind: KindBar, Datasets: []Dataset{{}}}
	assert.NoError(t, empty.Validate(), "an empty chart is still drawable")

	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown kind", Config{Kind: "pie", Datasets: valid.Datasets, Labels: valid.Labels}},
		{"no datasets", Config{Kind: KindLine, Labels: valid.Labels}},
		{"length mismatch", Config{Kind: KindLine, Labels: []string{"a"}, Datasets: valid.Datasets}},
		{"nan", Config{Kind: KindLine, Labels: []string{"a"}, Datasets: []Dataset{{Values: []float64{math.NaN()}}}}},
		{"inf", Config{Kind: KindBar, Labels: []string{"a"}, Datasets: []Dataset{{Values: []float64{math.Inf(1)}}}}},
		{"out of range", Config{Kind: KindLine, Labels: valid.Labels, Datasets: []Dataset{{Values: []float64{1, 1.7e308}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestAxisFormat(t *testing.T) {
	assert.Equal(t, "3", Axis{}.format(3))
	assert.Equal(t, "2.50", Axis{}.format(2.5))
	assert.Equal(t, "x", Axis{Format: func(float64) string { return "x" }}.format(1))
}

func TestParseColor(t *testing.T) {
	c, err := parseColor("#ff9a44")
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 154, 68, 255}, []uint8{c.R, c.G, c.B, c.A})

	c, err = parseColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), c.G)

	c, err = parseColor("rgba(252, 96, 118, 0.8)")
	require.NoError(t, err)
	assert.Equal(t, []uint8{252, 96, 118, 204}, []uint8{c.R, c.G, c.B, c.A})

	c, err = parseColor("rgb(1,2,3)")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), c.A)

	c, err = parseColor("Navy")
	require.NoError(t, err)
	assert.Equal(t, drawing.ColorNavy, c)

	for _, bad := range []string{"bogus", "#12", "#1234", "#ggg", "rgb(1,2)", "rgba(1,2)", "rgba(300,0,0,1)", "rgba(0,0,0,2)"} {
		_, err := parseColor(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, defaultTick, colorOr("bogus", defaultTick))
}
