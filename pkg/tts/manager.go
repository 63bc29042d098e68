package tts

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/elunara/ondara/pkg/audio"
	"github.com/elunara/ondara/pkg/cache"
	"github.com/elunara/ondara/pkg/metrics"
)

// ManagerStats counts synthesis outcomes since process start.
type ManagerStats struct {
	Requests   int            `json:"requests"`
	CacheHits  int            `json:"cache_hits"`
	Misses     int            `json:"cache_misses"`
	Failures   int            `json:"failures"`
	ByProvider map[string]int `json:"by_provider"`
}

// Manager is the synthesis front door: cache lookup, provider fallback,
// post-processing, cache store. Like the chain it never returns an
// error; callers check for ProviderNone.
type Manager struct {
	fallback  *Fallback
	store     *cache.Store
	processor *audio.Processor
	logger    *slog.Logger
	observer  metrics.Observer

	mu    sync.Mutex
	stats ManagerStats
}

func NewManager(fallback *Fallback, store *cache.Store, processor *audio.Processor, logger *slog.Logger, observer metrics.Observer) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		fallback:  fallback,
		store:     store,
		processor: processor,
		logger:    logger,
		observer:  observer,
		stats:     ManagerStats{ByProvider: make(map[string]int)},
	}
}

// Synthesize returns processed PCM for text and the provider that
// produced it. Cache keys always name the provider the audio actually
// came from, so lookup probes each candidate's key in chain order
// before any backend is called.
func (m *Manager) Synthesize(ctx context.Context, text string, requested ProviderID, params VoiceParams) ([]byte, ProviderID) {
	if strings.TrimSpace(text) == "" {
		return nil, ProviderNone
	}
	m.mu.Lock()
	m.stats.Requests++
	m.mu.Unlock()

	if m.store != nil {
		for _, s := range m.fallback.Candidates(requested) {
			key := cache.NewKeyParams(text, string(s.ID()), params.Voice, params.Extra)
			if pcm, ok := m.store.Get(key); ok {
				m.recordResult(s.ID(), true)
				metrics.Emit(m.observer, metrics.EventCacheHit, 1,
					map[string]string{"provider": string(s.ID())})
				return pcm, s.ID()
			}
		}
		metrics.Emit(m.observer, metrics.EventCacheMiss, 1, nil)
		m.mu.Lock()
		m.stats.Misses++
		m.mu.Unlock()
	}

	pcm, used := m.fallback.Synthesize(ctx, text, requested, params)
	if used == ProviderNone {
		m.mu.Lock()
		m.stats.Failures++
		m.mu.Unlock()
		return nil, ProviderNone
	}

	if m.processor != nil {
		pcm = m.processor.Process(pcm)
	}
	if m.store != nil {
		m.store.Put(cache.NewKeyParams(text, string(used), params.Voice, params.Extra), pcm)
	}
	m.recordResult(used, false)
	return pcm, used
}

// Stats returns a copy of the counters.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.stats
	out.ByProvider = make(map[string]int, len(m.stats.ByProvider))
	for k, v := range m.stats.ByProvider {
		out.ByProvider[k] = v
	}
	return out
}

func (m *Manager) recordResult(id ProviderID, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.ByProvider[string(id)]++
	if hit {
		m.stats.CacheHits++
	}
}
