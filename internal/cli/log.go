package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with short timestamps writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          appName,
	})
}

// objLogger adapts a charm logger to the InfoObj/DebugObj logging surface
// used by the client and publishers.
type objLogger struct {
	l *log.Logger
}

func (o objLogger) InfoObj(msg, key string, obj interface{})  { o.l.Info(msg, key, obj) }
func (o objLogger) DebugObj(msg, key string, obj interface{}) { o.l.Debug(msg, key, obj) }
func (o objLogger) WarnObj(msg, key string, obj interface{})  { o.l.Warn(msg, key, obj) }
func (o objLogger) ErrorObj(msg, key string, obj interface{}) { o.l.Error(msg, key, obj) }

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
