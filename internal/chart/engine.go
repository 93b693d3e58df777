package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Content types produced by the engines.
const (
	ContentTypeSVG = "image/svg+xml"
	ContentTypePNG = "image/png"
)

// Image is a rendered chart.
type Image struct {
	ContentType string
	Data        []byte
}

// Canvas stores rendered charts by surface id.
type Canvas interface {
	Paint(surface string, img Image) error
	Erase(surface string) error
}

// Engine draws a Config onto a surface and returns the live instance.
type Engine interface {
	New(surface string, cfg Config) (Instance, error)
}

// Instance is a live chart. Destroy releases its surface and is idempotent.
type Instance interface {
	Surface() string
	Config() Config
	Destroy()
}

type instance struct {
	surface string
	cfg     Config
	canvas  Canvas
	once    sync.Once
}

func (i *instance) Surface() string { return i.surface }
func (i *instance) Config() Config  { return i.cfg }

func (i *instance) Destroy() {
	i.once.Do(func() {
		_ = i.canvas.Erase(i.surface)
	})
}

// draw validates, renders and paints; shared by both engines.
func draw(canvas Canvas, surface string, cfg Config, render func(string, Config) (Image, error)) (Instance, error) {
	if canvas == nil {
		return nil, fmt.Errorf("chart: canvas is required")
	}
	if surface == "" {
		return nil, fmt.Errorf("chart: surface is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	img, err := render(surface, cfg)
	if err != nil {
		return nil, fmt.Errorf("chart: render %s: %w", surface, err)
	}
	if err := canvas.Paint(surface, img); err != nil {
		return nil, fmt.Errorf("chart: paint %s: %w", surface, err)
	}
	return &instance{surface: surface, cfg: cfg, canvas: canvas}, nil
}

// DirCanvas writes each surface to <Dir>/<surface>.<ext>.
type DirCanvas struct {
	Dir string

	mu    sync.Mutex
	files map[string]string
}

// NewDirCanvas creates the directory if needed.
func NewDirCanvas(dir string) (*DirCanvas, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirCanvas{Dir: dir, files: make(map[string]string)}, nil
}

// Paint implements Canvas.
func (d *DirCanvas) Paint(surface string, img Image) error {
	ext := ".png"
	if img.ContentType == ContentTypeSVG {
		ext = ".svg"
	}
	path := filepath.Join(d.Dir, surface+ext)
	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return err
	}

	d.mu.Lock()
	d.files[surface] = path
	d.mu.Unlock()
	return nil
}

// Erase implements Canvas.
func (d *DirCanvas) Erase(surface string) error {
	d.mu.Lock()
	path, ok := d.files[surface]
	delete(d.files, surface)
	d.mu.Unlock()

	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the file written for a surface, if any.
func (d *DirCanvas) Path(surface string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.files[surface]
	return path, ok
}
