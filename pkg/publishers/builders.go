package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Builder creates a Publisher from a validated config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Builders maps a publisher type to the function that constructs it.
type Builders map[string]Builder

// DefaultBuilders knows every sink type a publishers file may declare.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	}
}

// Build constructs the publisher for one config entry.
func (b Builders) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	build, ok := b[cfg.Type]
	if !ok || build == nil {
		return nil, fmt.Errorf("publisher %q: no builder for type %q", cfg.ID, cfg.Type)
	}
	return build(ctx, cfg, ensureLogger(log))
}

// BuildAll constructs every config and routes it for its kinds. If one build
// fails, the publishers already created are closed and the error is returned.
func BuildAll(ctx context.Context, b Builders, cfgs []PublisherConfig, log Logger) (*Fanout, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	fanout := NewFanout(nil)
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(err, fanout.Close())
		}
		fanout.Add(pub, cfg.Kinds...)
	}
	return fanout, nil
}
