package mock

import (
	"context"
	"sync"

	"github.com/elunara/ondara/pkg/tts"
)

// SynthConfig controls the deterministic test synthesizer.
type SynthConfig struct {
	// AudioBytes sizes the silent PCM buffer returned per request.
	AudioBytes int
	// FailFirst makes the first N calls fail before succeeding.
	FailFirst int
	// Unavailable makes the availability probe report false.
	Unavailable bool
}

// Synth is a deterministic in-memory backend for tests and dry runs.
type Synth struct {
	cfg SynthConfig

	mu    sync.Mutex
	calls int
}

func NewSynth(cfg SynthConfig) *Synth {
	if cfg.AudioBytes == 0 {
		cfg.AudioBytes = 4000
	}
	return &Synth{cfg: cfg}
}

func (s *Synth) ID() tts.ProviderID { return tts.ProviderMock }

func (s *Synth) Available(context.Context) bool { return !s.cfg.Unavailable }

func (s *Synth) Synthesize(_ context.Context, text string, _ tts.VoiceParams) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if n <= s.cfg.FailFirst {
		return nil, errSimulated
	}
	if text == "" {
		return nil, errSimulated
	}
	// Silent audio sized by config: enough for viability checks.
	return make([]byte, s.cfg.AudioBytes), nil
}

// Calls reports how many synthesis attempts were made.
func (s *Synth) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type simulatedError struct{}

func (simulatedError) Error() string { return "simulated failure" }

var errSimulated = simulatedError{}

var _ tts.Synthesizer = (*Synth)(nil)
