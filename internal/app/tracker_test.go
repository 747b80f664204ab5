package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/opennotify/internal/config"
	"github.com/samvad-hq/opennotify/internal/storage"
	"github.com/samvad-hq/opennotify/pkg/publishers"
)

func newOpenNotifyServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/astros.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":"success","number":1,"people":[{"name":"A","craft":"ISS"}]}`))
	})
	mux.HandleFunc("/iss-now.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":"success","timestamp":1700000000,"iss_position":{"latitude":"10.5","longitude":"-20.25"}}`))
	})
	mux.HandleFunc("/iss-pass.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "" {
			t.Errorf("pass request missing lat: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"message":"success","request":{"latitude":51.5,"longitude":-0.12,"passes":1,"datetime":1700000000},"response":[{"risetime":1700003600,"duration":600}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		AppName:      "test",
		APIBaseURL:   apiURL,
		HTTPTimeout:  2 * time.Second,
		PollInterval: time.Hour,
		StorageType:  "none",
	}
}

func TestTrackerRunPublishesInitialPoll(t *testing.T) {
	api := newOpenNotifyServer(t)

	received := make(chan publishers.Event, 8)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		received <- evt
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	dir := t.TempDir()
	cfg := testConfig(api.URL)
	cfg.LocationsFile = writeFile(t, dir, "locations.yaml", `
locations:
  - id: london
    latitude: 51.5
    longitude: -0.12
    passes: 1
`)
	cfg.PublishersFile = writeFile(t, dir, "publishers.yaml", `
publishers:
  - id: sink
    type: http
    http:
      url: `+sink.URL+`
`)
	cfg.StorageType = "bbolt"
	cfg.BBoltPath = filepath.Join(dir, "positions.db")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr, err := NewTracker(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	kinds := map[publishers.Kind]int{}
	timeout := time.After(5 * time.Second)
	for len(kinds) < 3 {
		select {
		case evt := <-received:
			kinds[evt.Kind]++
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %v", kinds)
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not exit after cancel")
	}

	for _, k := range []publishers.Kind{publishers.KindISSPosition, publishers.KindAstros, publishers.KindPassTimes} {
		if kinds[k] != 1 {
			t.Fatalf("expected one %s event, got %v", k, kinds)
		}
	}
}

func TestTrackerPollRunsOneCycleAndRoutesKinds(t *testing.T) {
	api := newOpenNotifyServer(t)

	var (
		mu  sync.Mutex
		got []publishers.Kind
	)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, publishers.Kind(r.Header.Get("X-Event-Kind")))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer sink.Close()

	dir := t.TempDir()
	cfg := testConfig(api.URL)
	cfg.PublishersFile = writeFile(t, dir, "publishers.toml", `
[[publishers]]
id = "crew"
type = "http"
kinds = ["astros"]

[publishers.http]
url = "`+sink.URL+`"
`)
	cfg.StorageType = "bbolt"
	cfg.BBoltPath = filepath.Join(dir, "positions.db")

	tr, err := NewTracker(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	if err := tr.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != publishers.KindAstros {
		t.Fatalf("expected only the astros event, got %v", got)
	}

	store, err := storage.NewStore(storage.BackendBBolt, cfg.BBoltPath, storage.Options{})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	samples, err := store.RecentPositions(5)
	if err != nil || len(samples) != 1 {
		t.Fatalf("expected one recorded position, got %d (%v)", len(samples), err)
	}
	if samples[0].Latitude != 10.5 || samples[0].Longitude != -20.25 {
		t.Fatalf("unexpected sample %#v", samples[0])
	}
}

func TestNewTrackerWithoutPublishers(t *testing.T) {
	api := newOpenNotifyServer(t)
	cfg := testConfig(api.URL)

	tr, err := NewTracker(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	if tr.fanout.Size() != 0 {
		t.Fatalf("expected no publishers, got %d", tr.fanout.Size())
	}
	if len(tr.locations.All()) != 0 {
		t.Fatalf("expected empty locations registry")
	}
}

func TestNewTrackerRejectsBadLocations(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig("http://127.0.0.1:1")
	cfg.LocationsFile = writeFile(t, dir, "locations.yaml", `
locations:
  - id: nowhere
    latitude: 123
    longitude: 0
`)
	if _, err := NewTracker(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for out-of-range location")
	}
}

func TestNewAPIClientAppliesConfig(t *testing.T) {
	cfg := testConfig("mirror.example.com/api")
	client, err := NewAPIClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}
	if got := client.BaseURL(); got != "http://mirror.example.com/api" {
		t.Fatalf("BaseURL = %q", got)
	}

	cfg.HTTPTimeout = 0
	if _, err := NewAPIClient(cfg, nil); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}
