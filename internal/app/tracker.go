package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/opennotify/internal/config"
	"github.com/samvad-hq/opennotify/internal/logger"
	"github.com/samvad-hq/opennotify/internal/metrics"
	"github.com/samvad-hq/opennotify/internal/storage"
	"github.com/samvad-hq/opennotify/internal/tracker"
	"github.com/samvad-hq/opennotify/pkg/locations"
	"github.com/samvad-hq/opennotify/pkg/publishers"
)

// Tracker is the ISS tracker runtime. It owns the poll loop and the
// lifecycle of the history store and publishers.
type Tracker struct {
	cfg          *config.Config
	locations    *locations.Registry
	fanout       *publishers.Fanout
	service      *tracker.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewTracker builds a tracker runtime from config files.
func NewTracker(ctx context.Context, cfg *config.Config, log logger.Logger) (*Tracker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := NewAPIClient(cfg, log)
	if err != nil {
		return nil, err
	}

	locReg, err := LoadLocations(cfg.LocationsFile)
	if err != nil {
		return nil, err
	}
	locList := locReg.All()
	locIDs := make([]string, 0, len(locList))
	for _, l := range locList {
		locIDs = append(locIDs, l.ID)
	}
	log.InfoObj("locations registry loaded", "locations_meta", map[string]any{
		"count": len(locIDs),
		"ids":   locIDs,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		SampleTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"sample_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Tracker{
		cfg:          cfg,
		locations:    locReg,
		fanout:       fanout,
		service:      tracker.NewService(client, store, fanout, log),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// buildFanout loads the publishers file; an empty path disables publishing.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		log.WarnObj("no publishers file configured; events will not be published", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	fanout, err := publishers.BuildAll(ctx, publishers.DefaultBuilders(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]any{
			"id":    pubCfg.ID,
			"type":  pubCfg.Type,
			"kinds": pubCfg.Kinds,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return fanout, nil
}

// Run performs an initial poll and then one per interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	if t == nil || t.service == nil {
		return fmt.Errorf("tracker is not initialized")
	}
	defer t.shutdown()

	if t.cfg.MetricsAddr != "" {
		stopMetrics := t.serveMetrics(t.cfg.MetricsAddr)
		defer stopMetrics()
	}

	locs := t.locations.All()
	t.log.InfoObj("tracker loop starting", "tracker_state", map[string]any{
		"locations_count":  len(locs),
		"publishers_count": t.fanout.Size(),
		"poll_interval":    t.pollInterval.String(),
	})

	if err := t.runOnce(ctx, locs); err != nil {
		t.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.log.InfoObj("tracker loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := t.runOnce(ctx, locs); err != nil {
				t.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

// Poll runs a single cycle and releases the store and publishers. It is the
// cron-style alternative to Run.
func (t *Tracker) Poll(ctx context.Context) error {
	if t == nil || t.service == nil {
		return fmt.Errorf("tracker is not initialized")
	}
	defer t.shutdown()
	return t.runOnce(ctx, t.locations.All())
}

func (t *Tracker) runOnce(ctx context.Context, locs []locations.Location) error {
	start := time.Now()
	t.log.InfoObj("poll started", "poll_meta", map[string]any{
		"locations_count": len(locs),
		"started_at":      start.UTC(),
	})
	err := t.service.RunOnce(ctx, locs)
	metrics.RecordPoll(time.Since(start), err)
	if err != nil {
		return err
	}
	t.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"locations_count": len(locs),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return nil
}

// serveMetrics exposes /metrics on addr until the returned stop func is called.
func (t *Tracker) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		t.log.InfoObj("metrics server listening", "metrics_addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.log.ErrorObj("metrics server failed", "error", err.Error())
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.log.WarnObj("metrics server shutdown failed", "error", err.Error())
		}
	}
}

// shutdown closes publishers and the store, logging any errors encountered.
func (t *Tracker) shutdown() {
	if t == nil {
		return
	}
	if err := t.fanout.Close(); err != nil {
		t.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if t.store == nil {
		return
	}
	if err := t.store.Close(); err != nil {
		t.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
