package locations

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/samvad-hq/opennotify/internal/fileconf"
	"github.com/samvad-hq/opennotify/pkg/opennotify"
)

// Package locations loads named ground observer locations (YAML/JSON/TOML) used for pass predictions.

// Location is a named point on the ground to predict ISS passes for.
type Location struct {
	ID        string   `json:"id" yaml:"id" toml:"id"`
	Name      string   `json:"name" yaml:"name" toml:"name"`
	Latitude  float64  `json:"latitude" yaml:"latitude" toml:"latitude"`
	Longitude float64  `json:"longitude" yaml:"longitude" toml:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty" yaml:"altitude,omitempty" toml:"altitude,omitempty"`
	Passes    int      `json:"passes,omitempty" yaml:"passes,omitempty" toml:"passes,omitempty"`
}

type fileRegistry struct {
	Locations []Location `json:"locations" yaml:"locations" toml:"locations"`
}

// Registry holds the loaded locations in file order.
type Registry struct {
	mu        sync.RWMutex
	locations []Location
	idx       map[string]Location
}

// LoadRegistry loads locations from a YAML, JSON or TOML file.
func LoadRegistry(path string) (*Registry, error) {
	var reg fileRegistry
	if err := fileconf.Load(path, &reg); err != nil {
		return nil, fmt.Errorf("load locations file: %w", err)
	}
	if len(reg.Locations) == 0 {
		return nil, errors.New("locations file contains no locations entries")
	}
	return NewRegistry(reg.Locations...)
}

// NewRegistry validates and indexes the given locations.
func NewRegistry(locs ...Location) (*Registry, error) {
	r := &Registry{
		locations: make([]Location, 0, len(locs)),
		idx:       make(map[string]Location, len(locs)),
	}
	for i, loc := range locs {
		loc = sanitizeLocation(loc)
		if err := validateLocation(loc); err != nil {
			return nil, fmt.Errorf("location[%d]: %w", i, err)
		}
		if _, exists := r.idx[loc.ID]; exists {
			return nil, fmt.Errorf("duplicate location id %q", loc.ID)
		}
		r.locations = append(r.locations, loc)
		r.idx[loc.ID] = loc
	}
	return r, nil
}

func sanitizeLocation(l Location) Location {
	l.ID = strings.ToLower(strings.TrimSpace(l.ID))
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		l.Name = l.ID
	}
	return l
}

func validateLocation(l Location) error {
	if l.ID == "" {
		return errors.New("id is required")
	}
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range for location %q", l.Latitude, l.ID)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range for location %q", l.Longitude, l.ID)
	}
	if l.Altitude != nil && (math.IsNaN(*l.Altitude) || *l.Altitude < 0 || *l.Altitude > 10000) {
		return fmt.Errorf("altitude %v out of range for location %q", *l.Altitude, l.ID)
	}
	if l.Passes < 0 || l.Passes > 100 {
		return fmt.Errorf("passes %d out of range for location %q", l.Passes, l.ID)
	}
	return nil
}

// All returns a copy of the locations in file order.
func (r *Registry) All() []Location {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Location, len(r.locations))
	copy(out, r.locations)
	return out
}

// ByID looks a location up by its (case-insensitive) id.
func (r *Registry) ByID(id string) (Location, bool) {
	if r == nil {
		return Location{}, false
	}
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return Location{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.idx[id]
	return loc, ok
}

// PassOptions converts the location's optional settings into query options.
func (l Location) PassOptions() []opennotify.PassOption {
	var opts []opennotify.PassOption
	if l.Altitude != nil {
		opts = append(opts, opennotify.WithAltitude(*l.Altitude))
	}
	if l.Passes > 0 {
		opts = append(opts, opennotify.WithPasses(l.Passes))
	}
	return opts
}
