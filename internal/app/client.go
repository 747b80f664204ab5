package app

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/opennotify/internal/config"
	"github.com/samvad-hq/opennotify/internal/logger"
	"github.com/samvad-hq/opennotify/pkg/locations"
	"github.com/samvad-hq/opennotify/pkg/opennotify"
)

// NewAPIClient builds an open-notify client from config.
func NewAPIClient(cfg *config.Config, log logger.Logger) (*opennotify.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	opts := []opennotify.Option{
		opennotify.WithBaseURL(cfg.APIBaseURL),
		opennotify.WithTimeout(cfg.HTTPTimeout),
		opennotify.WithUserAgent(cfg.UserAgent),
	}
	if log != nil {
		opts = append(opts, opennotify.WithLogger(log))
	}
	if cfg.LenientCounts {
		opts = append(opts, opennotify.WithLenientCounts())
	}
	client, err := opennotify.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build open-notify client: %w", err)
	}
	return client, nil
}

// LoadLocations reads the locations file; an empty path yields an empty registry.
func LoadLocations(path string) (*locations.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return locations.NewRegistry()
	}
	reg, err := locations.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load locations registry: %w", err)
	}
	return reg, nil
}
