package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elunara/ondara/pkg/cache"
)

type stubSynth struct {
	id         ProviderID
	available  bool
	audio      []byte
	err        error
	calls      int
	availCalls int
}

func (s *stubSynth) ID() ProviderID { return s.id }

func (s *stubSynth) Available(context.Context) bool {
	s.availCalls++
	return s.available
}

func (s *stubSynth) Synthesize(context.Context, string, VoiceParams) ([]byte, error) {
	s.calls++
	return s.audio, s.err
}

func viable(n int) []byte { return make([]byte, n) }

func TestFallbackOrdering(t *testing.T) {
	a := &stubSynth{id: ProviderEdge, available: true, err: errors.New("down")}
	b := &stubSynth{id: ProviderPiper, available: true, audio: viable(4000)}
	c := &stubSynth{id: ProviderGoogle, available: true, audio: viable(4000)}
	f := NewFallback([]Synthesizer{a, b, c}, FallbackConfig{}, nil, nil)

	pcm, used := f.Synthesize(context.Background(), "hola", ProviderAuto, VoiceParams{})
	if used != ProviderPiper {
		t.Fatalf("used = %s, want piper", used)
	}
	if len(pcm) != 4000 {
		t.Fatalf("audio len = %d", len(pcm))
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("calls a=%d b=%d, want 1/1", a.calls, b.calls)
	}
	if c.calls != 0 {
		t.Fatalf("later provider invoked %d times after success", c.calls)
	}
}

func TestFallbackRequestedFirst(t *testing.T) {
	a := &stubSynth{id: ProviderEdge, available: true, audio: viable(4000)}
	b := &stubSynth{id: ProviderPiper, available: true, audio: viable(4000)}
	f := NewFallback([]Synthesizer{a, b}, FallbackConfig{}, nil, nil)

	_, used := f.Synthesize(context.Background(), "hola", ProviderPiper, VoiceParams{})
	if used != ProviderPiper {
		t.Fatalf("used = %s, want requested provider", used)
	}
	if a.calls != 0 {
		t.Fatalf("chain head called despite requested provider succeeding")
	}
}

func TestFallbackExhaustedReturnsNone(t *testing.T) {
	a := &stubSynth{id: ProviderEdge, available: true, err: errors.New("down")}
	b := &stubSynth{id: ProviderPiper, available: false}
	f := NewFallback([]Synthesizer{a, b}, FallbackConfig{}, nil, nil)

	pcm, used := f.Synthesize(context.Background(), "hola", ProviderAuto, VoiceParams{})
	if used != ProviderNone || pcm != nil {
		t.Fatalf("got (%d bytes, %s), want (nil, none)", len(pcm), used)
	}
	if b.calls != 0 {
		t.Fatalf("unavailable provider was invoked")
	}
}

func TestFallbackViabilityThreshold(t *testing.T) {
	tiny := &stubSynth{id: ProviderEdge, available: true, audio: viable(10)}
	ok := &stubSynth{id: ProviderPiper, available: true, audio: viable(4000)}
	f := NewFallback([]Synthesizer{tiny, ok}, FallbackConfig{MinViableBytes: 100}, nil, nil)

	_, used := f.Synthesize(context.Background(), "hola", ProviderAuto, VoiceParams{})
	if used != ProviderPiper {
		t.Fatalf("tiny output accepted, used = %s", used)
	}
}

func TestFallbackBlankTextSkipsBackends(t *testing.T) {
	a := &stubSynth{id: ProviderEdge, available: true, audio: viable(4000)}
	f := NewFallback([]Synthesizer{a}, FallbackConfig{BreakerThreshold: 2, BreakerCooldown: time.Minute}, nil, nil)

	for _, text := range []string{"", "   \n\t "} {
		pcm, used := f.Synthesize(context.Background(), text, ProviderAuto, VoiceParams{})
		if pcm != nil || used != ProviderNone {
			t.Fatalf("blank %q got (%d bytes, %s), want (nil, none)", text, len(pcm), used)
		}
	}
	if a.calls != 0 {
		t.Fatalf("backend attempted %d times for blank input, want 0", a.calls)
	}
	if a.availCalls != 0 {
		t.Fatalf("availability probed for blank input")
	}

	// Blank rejections must not have fed the breaker: a real request
	// right after still reaches the provider.
	_, used := f.Synthesize(context.Background(), "hola", ProviderAuto, VoiceParams{})
	if used != ProviderEdge {
		t.Fatalf("healthy provider skipped after blank inputs, used = %s", used)
	}
}

func TestManagerBlankTextReturnsNone(t *testing.T) {
	a := &stubSynth{id: ProviderEdge, available: true, audio: viable(4000)}
	f := NewFallback([]Synthesizer{a}, FallbackConfig{}, nil, nil)
	store := cache.NewStore(t.TempDir(), time.Hour, nil)
	m := NewManager(f, store, nil, nil, nil)

	pcm, used := m.Synthesize(context.Background(), "  \n ", ProviderAuto, VoiceParams{})
	if pcm != nil || used != ProviderNone {
		t.Fatalf("got (%d bytes, %s), want (nil, none)", len(pcm), used)
	}
	if a.calls != 0 {
		t.Fatalf("backend attempted for blank input")
	}
	st := m.Stats()
	if st.Requests != 0 || st.Misses != 0 || st.Failures != 0 {
		t.Fatalf("blank input counted in stats: %+v", st)
	}
}

func TestAvailabilityCheckedOnce(t *testing.T) {
	a := &stubSynth{id: ProviderEdge, available: true, audio: viable(4000)}
	f := NewFallback([]Synthesizer{a}, FallbackConfig{}, nil, nil)

	for i := 0; i < 3; i++ {
		f.Synthesize(context.Background(), "hola", ProviderAuto, VoiceParams{})
	}
	if a.availCalls != 1 {
		t.Fatalf("availability probed %d times, want 1", a.availCalls)
	}
}

func TestCircuitBreakerSkipsFailingProvider(t *testing.T) {
	failing := &stubSynth{id: ProviderEdge, available: true, err: errors.New("down")}
	backup := &stubSynth{id: ProviderPiper, available: true, audio: viable(4000)}
	f := NewFallback([]Synthesizer{failing, backup}, FallbackConfig{
		BreakerThreshold: 2,
		BreakerCooldown:  time.Minute,
	}, nil, nil)

	for i := 0; i < 4; i++ {
		_, used := f.Synthesize(context.Background(), "hola", ProviderAuto, VoiceParams{})
		if used != ProviderPiper {
			t.Fatalf("iteration %d used %s", i, used)
		}
	}
	// Two failures trip the breaker; later rounds must not touch it.
	if failing.calls != 2 {
		t.Fatalf("failing provider called %d times, want 2", failing.calls)
	}
}

func TestManagerCachesByUsedProvider(t *testing.T) {
	failing := &stubSynth{id: ProviderEdge, available: true, err: errors.New("down")}
	working := &stubSynth{id: ProviderPiper, available: true, audio: viable(4000)}
	f := NewFallback([]Synthesizer{failing, working}, FallbackConfig{}, nil, nil)
	store := cache.NewStore(t.TempDir(), time.Hour, nil)
	m := NewManager(f, store, nil, nil, nil)

	_, used := m.Synthesize(context.Background(), "hola mundo", ProviderAuto, VoiceParams{Voice: "es"})
	if used != ProviderPiper {
		t.Fatalf("first synthesis used %s", used)
	}

	// Second request must hit the cache without another backend call.
	_, used = m.Synthesize(context.Background(), "hola mundo", ProviderAuto, VoiceParams{Voice: "es"})
	if used != ProviderPiper {
		t.Fatalf("cache hit attributed to %s", used)
	}
	if working.calls != 1 {
		t.Fatalf("backend called %d times, want 1", working.calls)
	}

	st := m.Stats()
	if st.Requests != 2 || st.CacheHits != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestManagerNoneOnTotalFailure(t *testing.T) {
	failing := &stubSynth{id: ProviderEdge, available: true, err: errors.New("down")}
	f := NewFallback([]Synthesizer{failing}, FallbackConfig{}, nil, nil)
	m := NewManager(f, nil, nil, nil, nil)

	pcm, used := m.Synthesize(context.Background(), "hola", ProviderAuto, VoiceParams{})
	if pcm != nil || used != ProviderNone {
		t.Fatalf("got (%v, %s)", pcm, used)
	}
	if m.Stats().Failures != 1 {
		t.Fatalf("failure not counted: %+v", m.Stats())
	}
}
