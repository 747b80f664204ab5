// Package opennotify is a client for the open-notify.org HTTP API.
//
// Three read-only endpoints are exposed:
//
//   - Astros: people currently in space (/astros.json)
//   - IssNow: current ISS ground position (/iss-now.json)
//   - PassTimes: ISS overhead passes for a location (/iss-pass.json)
//
// Usage:
//
//	client, err := opennotify.New(opennotify.WithTimeout(5 * time.Second))
//	if err != nil {
//		return err
//	}
//	passes, err := client.PassTimes(ctx, 51.0, 13.5, opennotify.WithAltitude(440), opennotify.WithPasses(10))
//
// Every call is a single GET. There is no caching, retrying or rate limiting;
// callers own that policy. Failures are one of *TransportError, *ParseError,
// *APIError or *ValidationError, each matching the corresponding Err* sentinel
// with errors.Is.
//
// Latitude and longitude arrive as JSON strings from iss-now and as numbers from
// iss-pass; both decode to float64.
package opennotify
