package metadata

import (
	"context"
	"log/slog"
	"time"
)

/*
Metadata Collected
- Pass warnings (name, phase, message)
- Image fetches (url, status, duration, retries)
- Persisted resources (id, mime type, size)
- Per-conversion summary

Metadata is write-only.
No component may read metadata to influence conversion decisions.
*/

// MetadataSink receives structured conversion events.
type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordPassWarning(passName string, phase string, details string)
	RecordImageFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
	)
	RecordResource(resourceID string, mimeType string, size int, attrs []Attribute)
	RecordConversionStats(stats ConversionStats)
}

var _ MetadataSink = (*Recorder)(nil)
var _ MetadataSink = (*NoopSink)(nil)

/*
Recorder writes every event to a slog.Logger.
It must not:
- perform I/O decisions
- affect control flow
Events are logged synchronously in the order received.
*/
type Recorder struct {
	logger *slog.Logger
}

// NewRecorder wraps logger; a nil logger falls back to slog.Default().
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	args := []slog.Attr{
		slog.Time("observed_at", observedAt),
		slog.String("package", packageName),
		slog.String("action", action),
		slog.String("cause", cause.String()),
		slog.String("details", details),
	}
	r.logger.LogAttrs(context.Background(), slog.LevelError, "error", append(args, toSlogAttrs(attrs)...)...)
}

func (r *Recorder) RecordPassWarning(passName string, phase string, details string) {
	r.logger.LogAttrs(context.Background(), slog.LevelWarn, "pass failed",
		slog.String(string(AttrPass), passName),
		slog.String(string(AttrPhase), phase),
		slog.String("details", details),
	)
}

func (r *Recorder) RecordImageFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "image fetched",
		slog.String(string(AttrURL), fetchUrl),
		slog.Int(string(AttrHTTPStatus), httpStatus),
		slog.Duration("duration", duration),
		slog.String("content_type", contentType),
		slog.Int("retry_count", retryCount),
	)
}

func (r *Recorder) RecordResource(resourceID string, mimeType string, size int, attrs []Attribute) {
	args := []slog.Attr{
		slog.String(string(AttrResourceID), resourceID),
		slog.String(string(AttrMimeType), mimeType),
		slog.Int("size", size),
	}
	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "resource created", append(args, toSlogAttrs(attrs)...)...)
}

func (r *Recorder) RecordConversionStats(stats ConversionStats) {
	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "conversion finished",
		slog.Int("images_attempted", stats.Attempted),
		slog.Int("resources_created", stats.ResourcesCreated),
		slog.Int("images_failed", stats.Failed),
		slog.Int("warnings", stats.Warnings),
		slog.Bool("degraded", stats.Degraded),
		slog.Int64("duration_ms", stats.Duration.Milliseconds()),
	)
}

func toSlogAttrs(attrs []Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.String(string(a.Key), a.Value))
	}
	return out
}

// NoopSink implements MetadataSink and drops everything.
// Callers (or tests) decide whether to inject Recorder or NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}

func (n *NoopSink) RecordPassWarning(string, string, string) {}

func (n *NoopSink) RecordImageFetch(string, int, time.Duration, string, int) {}

func (n *NoopSink) RecordResource(string, string, int, []Attribute) {}

func (n *NoopSink) RecordConversionStats(ConversionStats) {}
