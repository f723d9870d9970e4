package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
)

// Sink receives subscriber faults caught during Publish. Report is called once
// per failed invocation and must not panic.
type Sink interface {
	Report(err error)
}

// SinkFunc adapts an ordinary function to a Sink.
type SinkFunc func(err error)

// Report calls f(err).
func (f SinkFunc) Report(err error) {
	f(err)
}

// LogSink writes faults to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs at error level. A nil logger falls back
// to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Report implements Sink.
func (s *LogSink) Report(err error) {
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		s.logger.Error("Subscriber failed during publish", "error", err)
		return
	}

	attrs := []any{
		"kind", dispatchErr.Kind,
		"subscriber", fmt.Sprintf("%T", dispatchErr.Subscriber),
		"error", err,
	}
	if dispatchErr.Recovered() {
		attrs = append(attrs, "stack", string(dispatchErr.Stack))
	}
	s.logger.Error("Subscriber failed during publish", attrs...)
}
