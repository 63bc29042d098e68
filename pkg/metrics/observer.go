package metrics

import "time"

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

// Event names recorded by the broadcast engine.
const (
	EventSegmentGenerated  = "segment_generated"
	EventSegmentPlayed     = "segment_played"
	EventSoftFailure       = "soft_failure"
	EventSynthesis         = "synthesis"
	EventCacheHit          = "cache_hit"
	EventCacheMiss         = "cache_miss"
	EventFallbackExhausted = "fallback_exhausted"
	EventSessionClosed     = "session_closed"
)

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}

// Emit records a value under name with optional tags, stamping the time.
// Nil observers are tolerated so callers can leave metrics unwired.
func Emit(o Observer, name string, value float64, tags map[string]string) {
	if o == nil {
		return
	}
	o.RecordEvent(MetricsEvent{Name: name, Time: time.Now(), Value: value, Tags: tags})
}
