package publishers

import "context"

// Publisher sends events to one downstream sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

var (
	_ Publisher = (*httpPublisher)(nil)
	_ Publisher = (*awsPublisher)(nil)
	_ Publisher = (*gcpPubSubPublisher)(nil)
)
