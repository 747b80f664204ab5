package tracker

import (
	"context"

	"github.com/samvad-hq/opennotify/internal/domain"
	"github.com/samvad-hq/opennotify/pkg/publishers"
)

// PositionRecorder persists ISS position samples.
type PositionRecorder interface {
	RecordPosition(sample domain.PositionSample) (bool, error)
}

// EventPublisher publishes observations downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
