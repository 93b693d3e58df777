package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lan-dot-party/metroflow/internal/chart"
	"github.com/lan-dot-party/metroflow/internal/config"
	"github.com/lan-dot-party/metroflow/internal/dashboard"
	"github.com/lan-dot-party/metroflow/internal/logger"
	"github.com/lan-dot-party/metroflow/internal/storage"
	"github.com/lan-dot-party/metroflow/internal/upstream"
)

// Chart output formats.
const (
	formatSVG = "svg"
	formatPNG = "png"
)

// openJournal opens the configured cycle journal. It returns nil without an
// error when journaling is disabled.
func openJournal(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	store, err := storage.NewStorage(cfg.Storage)
	if errors.Is(err, storage.ErrDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// newEngine returns the chart engine for format, painting onto canvas.
func newEngine(cfg *config.Config, format string, canvas chart.Canvas) (chart.Engine, error) {
	switch format {
	case formatSVG, "":
		return chart.NewSVGEngine(canvas, chart.SVGOptions{
			Width:  cfg.Charts.Width,
			Height: cfg.Charts.Height,
		}), nil
	case formatPNG:
		return chart.NewPNGEngine(canvas, cfg.Charts.Width, cfg.Charts.Height), nil
	default:
		return nil, fmt.Errorf("unknown chart format %q (want %s or %s)", format, formatSVG, formatPNG)
	}
}

// newController wires the upstream client, the chart engine and the
// optional journal into a dashboard controller rendering onto a new page.
func newController(cfg *config.Config, format string, store storage.Storage) (*dashboard.Controller, error) {
	var opts []upstream.Option
	if cfg.Upstream.Timeout > 0 {
		opts = append(opts, upstream.WithTimeout(cfg.Upstream.Timeout))
	}
	client, err := upstream.NewClient(cfg.Upstream.BaseURL, logger.Named("upstream"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	doc := dashboard.NewDocument()
	engine, err := newEngine(cfg, format, doc)
	if err != nil {
		return nil, err
	}

	ctrlOpts := []dashboard.Option{dashboard.WithLogger(logger.Named("dashboard"))}
	if store != nil {
		ctrlOpts = append(ctrlOpts, dashboard.WithJournal(store))
	}

	logger.Debug("Dashboard controller ready",
		zap.String("upstream", client.BaseURL()),
		zap.String("format", format),
		zap.Bool("journal", store != nil),
	)
	return dashboard.NewController(client, engine, doc, ctrlOpts...), nil
}
