package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/opennotify/pkg/httpclient"
)

const maxErrorBody = 512

// eventHeaders maps event attributes onto webhook request headers.
var eventHeaders = map[string]string{
	"event_id":    "X-Event-Id",
	"kind":        "X-Event-Kind",
	"location_id": "X-Event-Location",
}

// httpPublisher delivers events as JSON webhooks.
type httpPublisher struct {
	id     string
	method string
	url    string
	client *resty.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	hc := cfg.HTTP.normalized()

	client := httpclient.NewRestyHTTPClient(time.Duration(hc.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(hc.Headers)

	return &httpPublisher{
		id:     cfg.ID,
		method: hc.Method,
		url:    hc.URL,
		client: client,
		log:    ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }
func (h *httpPublisher) Close() error { return nil }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := h.client.R().SetContext(ctx).SetBody(evt)
	for attr, value := range evt.attributes() {
		req.SetHeader(eventHeaders[attr], value)
	}

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), errorSnippet(resp.Body()))
	}
	h.log.DebugObj("webhook delivered", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"event_id":     evt.ID,
		"kind":         evt.Kind,
		"status":       resp.StatusCode(),
	})
	return nil
}

func errorSnippet(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
