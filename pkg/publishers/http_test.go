package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	method string
	header http.Header
	event  Event
}

func recordingServer(t *testing.T, status int) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()
	reqs := make(chan recordedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt Event
		_ = json.NewDecoder(r.Body).Decode(&evt)
		reqs <- recordedRequest{method: r.Method, header: r.Header.Clone(), event: evt}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("  rejected by sink  "))
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func newTestWebhook(t *testing.T, hc HTTPPublisherConfig) Publisher {
	t.Helper()
	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{ID: "hook", Type: TypeHTTP, HTTP: &hc}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}
	return pub
}

func TestHTTPPublisherSendsEventWithHeaders(t *testing.T) {
	srv, reqs := recordingServer(t, http.StatusAccepted)
	pub := newTestWebhook(t, HTTPPublisherConfig{
		URL:     srv.URL,
		Method:  "put",
		Headers: map[string]string{"Authorization": "Bearer token"},
	})

	evt := NewEvent(KindPassTimes, "iss-pass", map[string]int{"passes": 2}).WithLocation("home")
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got := <-reqs
	if got.method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", got.method)
	}
	want := map[string]string{
		"Authorization":    "Bearer token",
		"Content-Type":     "application/json",
		"X-Event-Id":       evt.ID,
		"X-Event-Kind":     string(KindPassTimes),
		"X-Event-Location": "home",
	}
	for k, v := range want {
		if h := got.header.Get(k); h != v {
			t.Errorf("header %s = %q, want %q", k, h, v)
		}
	}
	if got.event.ID != evt.ID || got.event.LocationID != "home" {
		t.Fatalf("unexpected body: %#v", got.event)
	}
}

func TestHTTPPublisherOmitsLocationHeaderWithoutLocation(t *testing.T) {
	srv, reqs := recordingServer(t, http.StatusOK)
	pub := newTestWebhook(t, HTTPPublisherConfig{URL: srv.URL})

	if err := pub.Publish(context.Background(), NewEvent(KindAstros, "astros", nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got := <-reqs
	if got.method != http.MethodPost {
		t.Fatalf("default method = %s, want POST", got.method)
	}
	if _, ok := got.header["X-Event-Location"]; ok {
		t.Fatalf("X-Event-Location should be absent")
	}
}

func TestHTTPPublisherRejectsErrorStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusServiceUnavailable} {
		srv, _ := recordingServer(t, status)
		pub := newTestWebhook(t, HTTPPublisherConfig{URL: srv.URL, TimeoutSeconds: 1})

		err := pub.Publish(context.Background(), NewEvent(KindAstros, "astros", nil))
		if err == nil {
			t.Fatalf("status %d: expected error", status)
		}
		if !strings.HasSuffix(err.Error(), ": rejected by sink") {
			t.Fatalf("status %d: error should carry trimmed body, got %v", status, err)
		}
	}
}

func TestNewHTTPPublisherRequiresConfig(t *testing.T) {
	if _, err := newHTTPPublisher(context.Background(), PublisherConfig{ID: "hook", Type: TypeHTTP}, nil); err == nil {
		t.Fatalf("expected error for missing http block")
	}
}
