package publishers

import "github.com/samvad-hq/opennotify/pkg/opennotify"

// Logger is the structured logging surface shared with the open-notify client.
type Logger = opennotify.Logger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return opennotify.NopLogger{}
	}
	return log
}
