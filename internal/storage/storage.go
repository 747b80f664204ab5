// Package storage keeps a local history of ISS position samples.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/opennotify/internal/domain"
)

// Backend names accepted by NewStore.
const (
	BackendNone  = "none"
	BackendBBolt = "bbolt"
)

// ErrStoreBusy reports that another process, normally the running tracker,
// holds the history database open for writing.
var ErrStoreBusy = errors.New("position store is in use by the tracker")

// Store records position samples and returns the most recent ones.
type Store interface {
	// RecordPosition stores the sample and reports whether it was new; samples
	// are keyed by their timestamp.
	RecordPosition(sample domain.PositionSample) (bool, error)
	// RecentPositions returns up to limit samples, newest first.
	RecentPositions(limit int) ([]domain.PositionSample, error)
	Close() error
}

// Options sets retention. Zero fields take a week of history swept every six hours.
type Options struct {
	SampleTTL       time.Duration
	CleanupInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.SampleTTL <= 0 {
		o.SampleTTL = 7 * 24 * time.Hour
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 6 * time.Hour
	}
	return o
}

// NewStore opens the named backend. An empty name, "none" or "disabled"
// yields a store that accepts and forgets every sample.
func NewStore(backend, path string, opts Options) (Store, error) {
	switch b := strings.ToLower(strings.TrimSpace(backend)); b {
	case "", BackendNone, "disabled":
		return discardStore{}, nil
	case BackendBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, errors.New("bbolt storage requires a path")
		}
		return openBolt(path, opts.withDefaults())
	default:
		return nil, fmt.Errorf("unsupported storage type %q", b)
	}
}

// OpenReadOnly opens an existing history for reading. A missing bbolt file is
// an error rather than being created.
func OpenReadOnly(backend, path string) (Store, error) {
	switch b := strings.ToLower(strings.TrimSpace(backend)); b {
	case "", BackendNone, "disabled":
		return discardStore{}, nil
	case BackendBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, errors.New("bbolt storage requires a path")
		}
		return openBoltReadOnly(path)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", b)
	}
}

type discardStore struct{}

func (discardStore) RecordPosition(domain.PositionSample) (bool, error)    { return true, nil }
func (discardStore) RecentPositions(int) ([]domain.PositionSample, error) { return nil, nil }
func (discardStore) Close() error                                         { return nil }
