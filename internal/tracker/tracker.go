package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/opennotify/internal/domain"
	"github.com/samvad-hq/opennotify/internal/logger"
	"github.com/samvad-hq/opennotify/internal/metrics"
	"github.com/samvad-hq/opennotify/pkg/locations"
	"github.com/samvad-hq/opennotify/pkg/opennotify"
	"github.com/samvad-hq/opennotify/pkg/publishers"
)

// Service runs poll cycles against the open-notify API.
type Service struct {
	client    opennotify.API
	store     PositionRecorder
	publisher EventPublisher
	log       logger.Logger
	now       func() time.Time
}

// NewService wires a tracker with its API client, history store and publisher.
// store and publisher may be nil.
func NewService(client opennotify.API, store PositionRecorder, publisher EventPublisher, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		client:    client,
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// RunOnce executes one poll cycle: ISS position, crew, then pass times for
// each location. Step failures are logged and joined; a cancelled context
// stops the cycle before the next step.
func (s *Service) RunOnce(ctx context.Context, locs []locations.Location) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("tracker service is not initialized")
	}

	var errs []error
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{name: opennotify.EndpointIssNow, fn: s.trackPosition},
		{name: opennotify.EndpointAstros, fn: s.trackAstros},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := step.fn(ctx); err != nil {
			errs = append(errs, err)
			metrics.IncStepError(step.name)
			s.log.ErrorObj("tracker step failed", "tracker_error", map[string]any{
				"step":  step.name,
				"error": err.Error(),
			})
		}
	}

	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := s.trackPasses(ctx, loc); err != nil {
			errs = append(errs, err)
			metrics.IncStepError(opennotify.EndpointPassTimes)
			s.log.ErrorObj("tracker step failed", "tracker_error", map[string]any{
				"step":        opennotify.EndpointPassTimes,
				"location_id": loc.ID,
				"error":       err.Error(),
			})
		}
	}

	return errors.Join(errs...)
}

func (s *Service) trackPosition(ctx context.Context) error {
	resp, err := s.client.IssNow(ctx)
	if err != nil {
		return fmt.Errorf("fetch iss position: %w", err)
	}
	metrics.SetISSPosition(resp.Position.Latitude, resp.Position.Longitude)

	var errs []error
	if s.store != nil {
		created, err := s.store.RecordPosition(domain.PositionSample{
			Timestamp:  resp.Timestamp,
			Latitude:   resp.Position.Latitude,
			Longitude:  resp.Position.Longitude,
			RecordedAt: s.now().UTC(),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("record iss position: %w", err))
		} else if !created {
			s.log.DebugObj("iss position already recorded", "position_duplicate", map[string]any{
				"timestamp": resp.Timestamp,
			})
		}
	}

	if err := s.publish(ctx, publishers.NewEvent(publishers.KindISSPosition, opennotify.EndpointIssNow, resp)); err != nil {
		errs = append(errs, err)
	}

	s.log.InfoObj("iss position tracked", "position", map[string]any{
		"timestamp": resp.Timestamp,
		"latitude":  resp.Position.Latitude,
		"longitude": resp.Position.Longitude,
	})
	return errors.Join(errs...)
}

func (s *Service) trackAstros(ctx context.Context) error {
	resp, err := s.client.Astros(ctx)
	if err != nil {
		return fmt.Errorf("fetch astros: %w", err)
	}
	metrics.SetPeopleInSpace(resp.Number)
	if err := s.publish(ctx, publishers.NewEvent(publishers.KindAstros, opennotify.EndpointAstros, resp)); err != nil {
		return err
	}
	s.log.InfoObj("astros tracked", "astros", map[string]any{
		"number": resp.Number,
		"crafts": len(resp.ByCraft()),
	})
	return nil
}

func (s *Service) trackPasses(ctx context.Context, loc locations.Location) error {
	resp, err := s.client.PassTimes(ctx, loc.Latitude, loc.Longitude, loc.PassOptions()...)
	if err != nil {
		return fmt.Errorf("fetch pass times for %s: %w", loc.ID, err)
	}

	evt := publishers.NewEvent(publishers.KindPassTimes, opennotify.EndpointPassTimes, resp).WithLocation(loc.ID)
	if err := s.publish(ctx, evt); err != nil {
		return err
	}

	meta := map[string]any{
		"location_id": loc.ID,
		"passes":      len(resp.Passes),
	}
	if next, ok := resp.Next(s.now()); ok {
		meta["next_rise"] = next.RiseTime
	}
	s.log.InfoObj("pass times tracked", "passes", meta)
	return nil
}

func (s *Service) publish(ctx context.Context, evt publishers.Event) error {
	if s.publisher == nil {
		return nil
	}
	delivered, err := s.publisher.Publish(ctx, evt)
	metrics.AddEventsPublished(string(evt.Kind), delivered)
	if err != nil {
		return fmt.Errorf("publish %s event: %w", evt.Kind, err)
	}
	s.log.DebugObj("event published", "event_meta", map[string]any{
		"kind":        evt.Kind,
		"location_id": evt.LocationID,
		"delivered":   delivered,
	})
	return nil
}
