package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/opennotify/internal/domain"
	"github.com/samvad-hq/opennotify/pkg/locations"
	"github.com/samvad-hq/opennotify/pkg/opennotify"
	"github.com/samvad-hq/opennotify/pkg/publishers"
)

// fakeAPI returns preset responses or errors and records pass queries.
type fakeAPI struct {
	mu        sync.Mutex
	astros    *opennotify.AstroResponse
	astrosErr error
	now       *opennotify.IssNowResponse
	nowErr    error
	passErr   error
	passCalls []string
}

func (f *fakeAPI) Astros(context.Context) (*opennotify.AstroResponse, error) {
	if f.astrosErr != nil {
		return nil, f.astrosErr
	}
	return f.astros, nil
}

func (f *fakeAPI) IssNow(context.Context) (*opennotify.IssNowResponse, error) {
	if f.nowErr != nil {
		return nil, f.nowErr
	}
	return f.now, nil
}

func (f *fakeAPI) PassTimes(_ context.Context, lat, lon float64, _ ...opennotify.PassOption) (*opennotify.PassTimesResponse, error) {
	f.mu.Lock()
	f.passCalls = append(f.passCalls, opennotify.Position{Latitude: lat, Longitude: lon}.String())
	f.mu.Unlock()
	if f.passErr != nil {
		return nil, f.passErr
	}
	rise := time.Unix(1700000000, 0).UTC()
	return &opennotify.PassTimesResponse{
		Message: opennotify.MessageSuccess,
		Passes:  []opennotify.Pass{{RiseTime: rise, Duration: 10 * time.Minute}},
	}, nil
}

// fakeStore records samples and can inject errors.
type fakeStore struct {
	samples []domain.PositionSample
	err     error
}

func (f *fakeStore) RecordPosition(sample domain.PositionSample) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.samples = append(f.samples, sample)
	return true, nil
}

// fakePublisher records published events and can fail by kind.
type fakePublisher struct {
	mu       sync.Mutex
	events   []publishers.Event
	failKind publishers.Kind
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.Kind == f.failKind {
		return 0, errors.New("sink down")
	}
	return 1, nil
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		astros: &opennotify.AstroResponse{
			Message: opennotify.MessageSuccess,
			Number:  2,
			People:  []opennotify.Person{{Name: "A", Craft: "ISS"}, {Name: "B", Craft: "Tiangong"}},
		},
		now: &opennotify.IssNowResponse{
			Message:   opennotify.MessageSuccess,
			Timestamp: time.Unix(1700000000, 0).UTC(),
			Position:  opennotify.Position{Latitude: 12.5, Longitude: -45.25},
		},
	}
}

var testLocations = []locations.Location{
	{ID: "london", Latitude: 51.5, Longitude: -0.12},
	{ID: "tokyo", Latitude: 35.68, Longitude: 139.69},
}

func TestRunOncePublishesEveryObservation(t *testing.T) {
	api := newFakeAPI()
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewService(api, store, pub, nil)

	if err := svc.RunOnce(context.Background(), testLocations); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(store.samples) != 1 || store.samples[0].Latitude != 12.5 {
		t.Fatalf("expected one recorded sample, got %#v", store.samples)
	}
	if !store.samples[0].Timestamp.Equal(api.now.Timestamp) {
		t.Fatalf("sample timestamp = %v", store.samples[0].Timestamp)
	}

	kinds := make([]publishers.Kind, 0, len(pub.events))
	for _, evt := range pub.events {
		kinds = append(kinds, evt.Kind)
	}
	want := []publishers.Kind{publishers.KindISSPosition, publishers.KindAstros, publishers.KindPassTimes, publishers.KindPassTimes}
	if len(kinds) != len(want) {
		t.Fatalf("published kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("published kinds = %v, want %v", kinds, want)
		}
	}
	if pub.events[2].LocationID != "london" || pub.events[3].LocationID != "tokyo" {
		t.Fatalf("pass events not tagged with location ids: %#v", pub.events[2:])
	}
}

func TestRunOnceContinuesAfterStepFailure(t *testing.T) {
	api := newFakeAPI()
	api.nowErr = &opennotify.TransportError{Endpoint: opennotify.EndpointIssNow, Err: errors.New("dial failed")}
	pub := &fakePublisher{failKind: publishers.KindAstros}
	svc := NewService(api, nil, pub, nil)

	err := svc.RunOnce(context.Background(), testLocations[:1])
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if !errors.Is(err, opennotify.ErrTransport) {
		t.Fatalf("expected transport error in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "sink down") {
		t.Fatalf("expected publisher error in chain, got %v", err)
	}
	if len(api.passCalls) != 1 {
		t.Fatalf("pass times should still run after earlier failures, calls=%v", api.passCalls)
	}
}

func TestRunOnceReportsStoreError(t *testing.T) {
	api := newFakeAPI()
	pub := &fakePublisher{}
	svc := NewService(api, &fakeStore{err: errors.New("disk full")}, pub, nil)

	err := svc.RunOnce(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(pub.events) == 0 || pub.events[0].Kind != publishers.KindISSPosition {
		t.Fatalf("position should still be published when recording fails")
	}
}

func TestRunOnceStopsOnCancelledContext(t *testing.T) {
	api := newFakeAPI()
	pub := &fakePublisher{}
	svc := NewService(api, nil, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.RunOnce(ctx, testLocations)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(pub.events) != 0 || len(api.passCalls) != 0 {
		t.Fatalf("no work should happen after cancellation")
	}
}

func TestRunOnceRequiresClient(t *testing.T) {
	var svc *Service
	if err := svc.RunOnce(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
	if err := NewService(nil, nil, nil, nil).RunOnce(context.Background(), nil); err == nil {
		t.Fatalf("expected error for missing client")
	}
}
