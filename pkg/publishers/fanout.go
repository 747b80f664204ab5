package publishers

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

type route struct {
	pub   Publisher
	kinds []Kind
}

func (r route) accepts(k Kind) bool {
	return len(r.kinds) == 0 || slices.Contains(r.kinds, k)
}

// Fanout delivers each event to every publisher subscribed to its kind.
// Routes are set up before use; Publish may then be called concurrently.
type Fanout struct {
	routes []route
}

// NewFanout subscribes every non-nil publisher to all kinds.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		f.Add(p)
	}
	return f
}

// Add subscribes p to kinds, or to every kind when none are given.
func (f *Fanout) Add(p Publisher, kinds ...Kind) {
	if p == nil {
		return
	}
	f.routes = append(f.routes, route{pub: p, kinds: slices.Clone(kinds)})
}

// Publish sends evt to each subscribed publisher and reports how many
// accepted it. Failures do not stop delivery to the rest.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}
	var (
		delivered int
		errs      []error
	)
	for _, r := range f.routes {
		if !r.accepts(evt.Kind) {
			continue
		}
		if err := r.pub.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", r.pub.Type(), r.pub.ID(), err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Close closes every publisher once.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, r := range f.routes {
		if err := r.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", r.pub.Type(), r.pub.ID(), err))
		}
	}
	f.routes = nil
	return errors.Join(errs...)
}

// Size is the number of routed publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.routes)
}
