package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/elunara/ondara/pkg/audio"
	"github.com/elunara/ondara/pkg/cache"
	"github.com/elunara/ondara/pkg/config"
	"github.com/elunara/ondara/pkg/configutil"
	"github.com/elunara/ondara/pkg/llm"
	"github.com/elunara/ondara/pkg/logging"
	"github.com/elunara/ondara/pkg/metrics"
	"github.com/elunara/ondara/pkg/player"
	"github.com/elunara/ondara/pkg/providers/edge"
	"github.com/elunara/ondara/pkg/providers/google"
	"github.com/elunara/ondara/pkg/providers/mock"
	"github.com/elunara/ondara/pkg/providers/piper"
	"github.com/elunara/ondara/pkg/session"
	"github.com/elunara/ondara/pkg/tts"
)

// engine holds everything a command needs, wired once from config.
type engine struct {
	cfg       config.Config
	logger    *slog.Logger
	observer  metrics.Observer
	asyncObs  *metrics.AsyncObserver
	metricsF  *os.File
	store     *cache.Store
	processor *audio.Processor
	synth     *tts.Manager
	generator llm.Generator
	sink      player.Sink
	history   *session.History
	active    *session.ActiveStore
	sched     *cron.Cron
}

func newEngine(cfg config.Config, logger *slog.Logger) (*engine, error) {
	e := &engine{cfg: cfg, logger: logger}

	e.buildObserver()

	if cfg.Cache.Enabled {
		e.store = cache.NewStore(cfg.Cache.Dir,
			time.Duration(cfg.Cache.MaxAgeDays)*24*time.Hour,
			logging.NewComponentLogger(logger, "cache"))
	}
	e.processor = audio.NewProcessor(audio.ProcessorConfig{
		SampleRate:        cfg.Audio.SampleRate,
		TargetDB:          cfg.Audio.TargetDB,
		HighpassCutoffHz:  cfg.Audio.HighpassCutoffHz,
		CompressThreshold: cfg.Audio.CompressThreshold,
		CompressRatio:     cfg.Audio.CompressRatio,
		SilenceThreshold:  cfg.Audio.SilenceThreshold,
		MinSilence:        time.Duration(cfg.Audio.MinSilenceMS) * time.Millisecond,
		TrimSilence:       cfg.Audio.TrimSilence,
	}, logging.NewComponentLogger(logger, "audio"))

	chain, err := e.buildSynthChain()
	if err != nil {
		return nil, err
	}
	fallback := tts.NewFallback(chain, tts.FallbackConfig{
		MinViableBytes: cfg.TTS.MinViableBytes,
		Timeout:        time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
	}, logging.NewComponentLogger(logger, "tts"), e.observer)
	e.synth = tts.NewManager(fallback, e.store, e.processor,
		logging.NewComponentLogger(logger, "tts.manager"), e.observer)

	if e.generator, err = e.buildGenerator(); err != nil {
		return nil, err
	}
	if e.sink, err = e.buildSink(); err != nil {
		return nil, err
	}

	e.history = session.NewHistory(cfg.Session.Dir, logging.NewComponentLogger(logger, "history"))
	e.active = session.NewActiveStore(cfg.Session.Dir,
		time.Duration(cfg.Session.TimeoutHours)*time.Hour,
		cfg.Session.MaxHistory,
		logging.NewComponentLogger(logger, "session"))

	e.buildScheduler()
	return e, nil
}

func (e *engine) buildObserver() {
	var base metrics.Observer = metrics.NoopObserver{}
	if path := e.cfg.Observability.MetricsPath; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			e.logger.Warn("metrics file unavailable", slog.String("error", err.Error()))
		} else {
			e.metricsF = f
			base = metrics.NewJSONLObserver(f)
		}
	}
	if rate := e.cfg.Observability.SampleRate; rate > 0 && rate < 1 {
		base = metrics.NewSamplingObserver(base, rate)
	}
	e.asyncObs = metrics.NewAsyncObserver(base, e.cfg.Observability.AsyncBuffer)
	e.observer = e.asyncObs
}

func (e *engine) buildSynthChain() ([]tts.Synthesizer, error) {
	requested := tts.ProviderID(e.cfg.TTS.Provider)
	names := e.cfg.TTS.Chain
	if requested != tts.ProviderAuto && requested != "" {
		// A pinned provider still gets the rest of the chain as backup.
		names = append([]string{string(requested)}, names...)
	}

	var chain []tts.Synthesizer
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		settings := e.cfg.TTS.Providers[name]
		switch tts.ProviderID(name) {
		case tts.ProviderEdge:
			var pc edge.Config
			if err := configutil.DecodeSettings(settings, &pc); err != nil {
				return nil, fmt.Errorf("tts.providers.edge: %w", err)
			}
			if pc.SampleRate == 0 {
				pc.SampleRate = e.cfg.Audio.SampleRate
			}
			chain = append(chain, edge.New(pc, logging.NewComponentLogger(e.logger, "tts.edge")))
		case tts.ProviderPiper:
			var pc piper.Config
			if err := configutil.DecodeSettings(settings, &pc); err != nil {
				return nil, fmt.Errorf("tts.providers.piper: %w", err)
			}
			chain = append(chain, piper.New(pc, logging.NewComponentLogger(e.logger, "tts.piper")))
		case tts.ProviderGoogle:
			var pc google.Config
			if err := configutil.DecodeSettings(settings, &pc); err != nil {
				return nil, fmt.Errorf("tts.providers.google: %w", err)
			}
			if pc.SampleRate == 0 {
				pc.SampleRate = e.cfg.Audio.SampleRate
			}
			chain = append(chain, google.New(pc, logging.NewComponentLogger(e.logger, "tts.google")))
		case tts.ProviderMock:
			chain = append(chain, mock.NewSynth(mock.SynthConfig{}))
		default:
			e.logger.Warn("unknown tts provider skipped", slog.String("provider", name))
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no usable tts providers configured")
	}
	return chain, nil
}

func (e *engine) buildGenerator() (llm.Generator, error) {
	settings := e.cfg.LLM.Settings
	switch e.cfg.LLM.Provider {
	case "openai", "groq":
		var gc llm.OpenAIConfig
		if err := configutil.DecodeSettings(settings, &gc); err != nil {
			return nil, fmt.Errorf("llm.settings: %w", err)
		}
		if e.cfg.LLM.Provider == "groq" && gc.BaseURL == "" {
			gc.BaseURL = "https://api.groq.com/openai/v1"
		}
		return llm.NewOpenAIGenerator(gc, logging.NewComponentLogger(e.logger, "llm")), nil
	case "ollama":
		var gc llm.OllamaConfig
		if err := configutil.DecodeSettings(settings, &gc); err != nil {
			return nil, fmt.Errorf("llm.settings: %w", err)
		}
		return llm.NewOllamaGenerator(gc, logging.NewComponentLogger(e.logger, "llm")), nil
	case "mock":
		return mock.NewGenerator(mock.GeneratorConfig{}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", e.cfg.LLM.Provider)
	}
}

func (e *engine) buildSink() (player.Sink, error) {
	logger := logging.NewComponentLogger(e.logger, "player")
	switch e.cfg.Player.Sink {
	case "ffplay", "":
		return player.NewFFPlay(e.cfg.Player.FFPlayCommand, logger), nil
	case "stream":
		return player.NewStream(e.cfg.Player.QueueCapacity, logger), nil
	case "wav":
		dir := e.cfg.Player.WAVDir
		if dir == "" {
			dir = "broadcast_out"
		}
		return player.NewWAVDir(dir, "segment", logger)
	default:
		return nil, fmt.Errorf("unknown player sink %q", e.cfg.Player.Sink)
	}
}

// buildScheduler runs the periodic maintenance: cache sweep and old
// session cleanup.
func (e *engine) buildScheduler() {
	e.sched = cron.New()
	schedule := e.cfg.Cache.SweepSchedule
	if schedule == "" {
		schedule = "@every 6h"
	}
	_, err := e.sched.AddFunc(schedule, func() {
		if e.store != nil {
			e.store.Sweep()
		}
		e.history.DeleteOld(e.cfg.Session.KeepLast)
	})
	if err != nil {
		e.logger.Warn("maintenance schedule invalid", slog.String("error", err.Error()))
	}
}

// Drain satisfies runner.Drainer: flush metrics and stop maintenance.
func (e *engine) Drain() error {
	if e.sched != nil {
		e.sched.Stop()
	}
	if e.asyncObs != nil {
		e.asyncObs.Close()
	}
	if e.metricsF != nil {
		_ = e.metricsF.Close()
	}
	st := e.synth.Stats()
	e.logger.Info("synthesis stats",
		slog.Int("requests", st.Requests),
		slog.Int("cache_hits", st.CacheHits),
		slog.Int("failures", st.Failures))
	if e.store != nil {
		cs := e.store.Stats()
		e.logger.Info("cache stats",
			slog.Int("entries", cs.Entries),
			slog.Int64("size_bytes", cs.SizeBytes),
			slog.Float64("hit_rate_percent", cs.HitRatePercent))
	}
	return nil
}
