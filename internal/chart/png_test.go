package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestPNGEngineLine(t *testing.T) {
	canvas := newMemCanvas()
	engine := NewPNGEngine(canvas, 640, 320)

	inst, err := engine.New("chart-trend", lineConfig())
	require.NoError(t, err)
	img := canvas.images[inst.Surface()]
	assert.Equal(t, ContentTypePNG, img.ContentType)
	assert.True(t, bytes.HasPrefix(img.Data, pngMagic))
}

func TestPNGEngineBar(t *testing.T) {
	canvas := newMemCanvas()
	engine := NewPNGEngine(canvas, 640, 320)
	cfg := Config{
		Kind:   KindBar,
		Labels: []string{"L1", "L2", "L3"},
		Datasets: []Dataset{{
			Label:           "Afluencia",
			Values:          []float64{900, 400, 100},
			BackgroundColor: "rgba(252, 96, 118, 0.8)",
		}},
	}

	_, err := engine.New("chart-lines", cfg)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(canvas.images["chart-lines"].Data, pngMagic))
}

func TestPNGEngineEmptyIsBlank(t *testing.T) {
	canvas := newMemCanvas()
	engine := NewPNGEngine(canvas, 64, 32)

	_, err := engine.New("chart-lines", Config{Kind: KindBar, Datasets: []Dataset{{}}})
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(canvas.images["chart-lines"].Data))
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
	assert.Equal(t, 32, decoded.Bounds().Dy())
}
