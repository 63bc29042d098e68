package player

import (
	"context"
	"log/slog"
)

// StreamSegment is one queued segment for an external transport.
type StreamSegment struct {
	PCM        []byte
	SampleRate int
}

// Stream is a bounded hand-off queue between the broadcast loop and
// whatever ships audio out (an icecast feed, an HTTP chunk writer).
// When the consumer falls behind, the oldest queued segment is dropped
// so live output never stalls on a slow listener.
type Stream struct {
	ch     chan StreamSegment
	logger *slog.Logger
}

func NewStream(capacity int, logger *slog.Logger) *Stream {
	if capacity <= 0 {
		capacity = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		ch:     make(chan StreamSegment, capacity),
		logger: logger,
	}
}

func (s *Stream) Name() string { return "stream" }

// Play enqueues the segment and returns immediately.
func (s *Stream) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return nil
	}
	seg := StreamSegment{PCM: pcm, SampleRate: sampleRate}
	for {
		select {
		case s.ch <- seg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// Queue full: drop the oldest and retry.
		select {
		case dropped := <-s.ch:
			s.logger.Warn("stream queue full, dropping oldest segment",
				slog.Int("bytes", len(dropped.PCM)))
		default:
		}
	}
}

// Next blocks until a segment is available or ctx is cancelled.
func (s *Stream) Next(ctx context.Context) (StreamSegment, error) {
	select {
	case seg := <-s.ch:
		return seg, nil
	case <-ctx.Done():
		return StreamSegment{}, ctx.Err()
	}
}

// Pending reports how many segments are queued.
func (s *Stream) Pending() int { return len(s.ch) }

var _ Sink = (*Stream)(nil)
