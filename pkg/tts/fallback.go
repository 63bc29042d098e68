package tts

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elunara/ondara/pkg/metrics"
	"github.com/elunara/ondara/pkg/resilience"
)

// FallbackConfig tunes the provider chain.
type FallbackConfig struct {
	// MinViableBytes rejects synthesized buffers too small to be speech.
	MinViableBytes int
	// Timeout bounds each backend call.
	Timeout time.Duration
	// BreakerThreshold / BreakerCooldown configure the per-provider breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func (c FallbackConfig) withDefaults() FallbackConfig {
	if c.MinViableBytes <= 0 {
		c.MinViableBytes = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = time.Minute
	}
	return c
}

// Fallback walks an ordered chain of backends until one produces viable
// audio. It never returns an error: when every backend fails the caller
// gets (nil, ProviderNone).
type Fallback struct {
	cfg      FallbackConfig
	chain    []Synthesizer
	logger   *slog.Logger
	observer metrics.Observer

	availOnce sync.Once
	available map[ProviderID]bool

	breakers map[ProviderID]*resilience.CircuitBreaker
}

func NewFallback(chain []Synthesizer, cfg FallbackConfig, logger *slog.Logger, observer metrics.Observer) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fallback{
		cfg:       cfg.withDefaults(),
		chain:     chain,
		logger:    logger,
		observer:  observer,
		available: make(map[ProviderID]bool),
		breakers:  make(map[ProviderID]*resilience.CircuitBreaker),
	}
	for _, s := range chain {
		f.breakers[s.ID()] = resilience.NewCircuitBreaker(f.cfg.BreakerThreshold, f.cfg.BreakerCooldown).CountAllErrors()
	}
	return f
}

// Candidates returns the chain reordered so requested comes first.
// ProviderAuto (or empty) keeps the configured order.
func (f *Fallback) Candidates(requested ProviderID) []Synthesizer {
	if requested == "" || requested == ProviderAuto {
		return f.chain
	}
	out := make([]Synthesizer, 0, len(f.chain))
	for _, s := range f.chain {
		if s.ID() == requested {
			out = append(out, s)
		}
	}
	for _, s := range f.chain {
		if s.ID() != requested {
			out = append(out, s)
		}
	}
	return out
}

// Synthesize tries each candidate in order and returns the first viable
// result together with the backend that produced it. Blank text yields
// (nil, ProviderNone) without touching any backend; the rejection must
// not count against a provider's breaker.
func (f *Fallback) Synthesize(ctx context.Context, text string, requested ProviderID, params VoiceParams) ([]byte, ProviderID) {
	if strings.TrimSpace(text) == "" {
		return nil, ProviderNone
	}
	f.ensureAvailability(ctx)

	for _, s := range f.Candidates(requested) {
		id := s.ID()
		if !f.available[id] {
			continue
		}
		breaker := f.breakers[id]
		if breaker != nil && !breaker.Allow() {
			f.logger.Debug("provider in cooldown", slog.String("provider", string(id)))
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		audio, err := s.Synthesize(callCtx, text, params)
		cancel()

		switch {
		case err != nil:
			if breaker != nil {
				breaker.OnError(err)
			}
			f.logger.Warn("synthesis failed, trying next provider",
				slog.String("provider", string(id)),
				slog.String("error", err.Error()))
		case len(audio) <= f.cfg.MinViableBytes:
			if breaker != nil {
				breaker.OnError(errTooSmall)
			}
			f.logger.Warn("synthesis output below viability threshold",
				slog.String("provider", string(id)),
				slog.Int("bytes", len(audio)))
		default:
			if breaker != nil {
				breaker.OnSuccess()
			}
			metrics.Emit(f.observer, metrics.EventSynthesis, float64(len(audio)),
				map[string]string{"provider": string(id)})
			return audio, id
		}

		if ctx.Err() != nil {
			break
		}
	}

	metrics.Emit(f.observer, metrics.EventFallbackExhausted, 1, nil)
	f.logger.Error("all synthesis providers failed", slog.String("requested", string(requested)))
	return nil, ProviderNone
}

// AvailableProviders reports which chain members passed the one-time
// availability probe, in chain order.
func (f *Fallback) AvailableProviders(ctx context.Context) []ProviderID {
	f.ensureAvailability(ctx)
	out := make([]ProviderID, 0, len(f.chain))
	for _, s := range f.chain {
		if f.available[s.ID()] {
			out = append(out, s.ID())
		}
	}
	return out
}

func (f *Fallback) ensureAvailability(ctx context.Context) {
	f.availOnce.Do(func() {
		for _, s := range f.chain {
			ok := s.Available(ctx)
			f.available[s.ID()] = ok
			f.logger.Info("provider availability",
				slog.String("provider", string(s.ID())),
				slog.Bool("available", ok))
		}
	})
}

type tooSmallError struct{}

func (tooSmallError) Error() string { return "output below viability threshold" }

var errTooSmall = tooSmallError{}
