// Package replay re-broadcasts a stored session: each recorded segment
// is synthesized again (normally a straight cache hit) and played in
// its original order.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elunara/ondara/pkg/player"
	"github.com/elunara/ondara/pkg/session"
	"github.com/elunara/ondara/pkg/tts"
)

type Config struct {
	SampleRate int
	Delay      time.Duration
	Provider   tts.ProviderID
	Voice      tts.VoiceParams
}

type Replayer struct {
	cfg     Config
	history *session.History
	synth   *tts.Manager
	sink    player.Sink
	logger  *slog.Logger
}

func New(cfg Config, history *session.History, synth *tts.Manager, sink player.Sink, logger *slog.Logger) *Replayer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	if cfg.Provider == "" {
		cfg.Provider = tts.ProviderAuto
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Replayer{cfg: cfg, history: history, synth: synth, sink: sink, logger: logger}
}

// Play re-broadcasts sessionID. Segments whose audio cannot be produced
// are skipped with a warning; only a missing session is an error.
func (r *Replayer) Play(ctx context.Context, sessionID string) error {
	rec, err := r.history.Get(sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var texts []struct {
		label string
		text  string
	}
	if rec.Intro != nil {
		texts = append(texts, struct{ label, text string }{"intro", rec.Intro.Text})
	}
	for _, seg := range rec.Segments {
		texts = append(texts, struct{ label, text string }{fmt.Sprintf("segment %d", seg.Number), seg.Text})
	}

	for i, item := range texts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pcm, used := r.synth.Synthesize(ctx, item.text, r.cfg.Provider, r.cfg.Voice)
		if used == tts.ProviderNone {
			r.logger.Warn("replay segment skipped, no audio",
				slog.String("session_id", sessionID),
				slog.String("segment", item.label))
			continue
		}
		if err := r.sink.Play(ctx, pcm, r.cfg.SampleRate); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("replay playback failed",
				slog.String("segment", item.label),
				slog.String("error", err.Error()))
			continue
		}
		if i < len(texts)-1 && r.cfg.Delay > 0 {
			select {
			case <-time.After(r.cfg.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
