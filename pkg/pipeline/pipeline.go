// Package pipeline runs the broadcast loop: while one segment plays,
// the next is already being generated, so the stream never waits on a
// model unless generation is slower than speech.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/elunara/ondara/pkg/audio"
	"github.com/elunara/ondara/pkg/llm"
	"github.com/elunara/ondara/pkg/metrics"
	"github.com/elunara/ondara/pkg/player"
	"github.com/elunara/ondara/pkg/prompt"
	"github.com/elunara/ondara/pkg/session"
	"github.com/elunara/ondara/pkg/topics"
	"github.com/elunara/ondara/pkg/tts"
)

// Mode selects how segment text is sourced.
type Mode string

const (
	// ModeTopics generates standalone segments from a rotating topic pool.
	ModeTopics Mode = "topics"
	// ModeMonologue develops one theme across segments with continuity.
	ModeMonologue Mode = "monologue"
	// ModeReader speaks pre-split chunks of a document and then stops.
	ModeReader Mode = "reader"
)

// ErrBudgetExhausted ends a run after too many consecutive failed
// iterations.
var ErrBudgetExhausted = errors.New("consecutive failure budget exhausted")

// monologueTailRunes is how much of the previous segment the next
// prompt quotes for continuity.
const monologueTailRunes = 300

// minSegmentRunes rejects degenerate completions regardless of which
// generator produced them.
const minSegmentRunes = 10

type Config struct {
	Mode            Mode
	Theme           string
	SegmentDuration int
	Delay           time.Duration
	MaxSegments     int
	MaxRetries      int
	SkipIntro       bool
	ForceNewSession bool
	SampleRate      int
	Provider        tts.ProviderID
	Voice           tts.VoiceParams
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeTopics
	}
	if c.SegmentDuration <= 0 {
		c.SegmentDuration = 60
	}
	if c.Delay <= 0 {
		c.Delay = 2 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 22050
	}
	if c.Provider == "" {
		c.Provider = tts.ProviderAuto
	}
	return c
}

// Deps are the collaborators a Pipeline drives. Everything is handed in
// explicitly; the pipeline owns no global state.
type Deps struct {
	Generator llm.Generator
	Synth     *tts.Manager
	Sink      player.Sink
	Prompts   prompt.Builder
	Topics    *topics.Pool
	Chunks    []string
	History   *session.History
	Active    *session.ActiveStore
	Observer  metrics.Observer
	Logger    *slog.Logger
}

// RunStats summarizes a finished run.
type RunStats struct {
	SessionID    string
	Iterations   int
	Played       int
	SoftFailures int
}

type Pipeline struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	runID  string

	controls Controls
	stats    RunStats
}

func New(cfg Config, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Topics == nil {
		deps.Topics = topics.NewPool(nil)
	}
	return &Pipeline{
		cfg:    cfg.withDefaults(),
		deps:   deps,
		logger: logger,
		runID:  uuid.NewString(),
	}
}

// Controls returns the shared pause/stop handle for this pipeline.
func (p *Pipeline) Controls() *Controls { return &p.controls }

// Stats is valid after Run returns.
func (p *Pipeline) Stats() RunStats { return p.stats }

// segment is one unit of generated content, ready to play.
type segment struct {
	index     int
	topic     string
	text      string
	pcm       []byte
	provider  tts.ProviderID
	exhausted bool
}

func (s segment) viable() bool {
	return utf8.RuneCountInString(strings.TrimSpace(s.text)) >= minSegmentRunes && len(s.pcm) > 0
}

// pending holds the single allowed in-flight background generation.
type pending struct {
	ch     chan segment
	cancel context.CancelFunc
}

// Run broadcasts until stopped, the segment budget is reached, reader
// content runs out, or too many consecutive iterations fail.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx = p.controls.bind(ctx)
	defer p.controls.release()

	sessionID, continuing, _ := p.deps.Active.GetOrCreate(p.cfg.ForceNewSession)
	p.stats.SessionID = sessionID
	p.deps.History.Start(sessionID)
	defer p.finish()

	p.logger.Info("broadcast starting",
		slog.String("run_id", p.runID),
		slog.String("session_id", sessionID),
		slog.String("mode", string(p.cfg.Mode)),
		slog.Bool("continuing", continuing))

	if !p.cfg.SkipIntro && !continuing {
		p.playIntro(ctx)
	}

	var (
		inFlight    *pending
		consecutive int
		index       int
		prevText    string
	)
	defer func() {
		// A stop mid-run must not leave a generation goroutine behind.
		if inFlight != nil {
			inFlight.cancel()
			<-inFlight.ch
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if !p.waitWhilePaused(ctx) {
			return nil
		}
		if p.cfg.MaxSegments > 0 && p.stats.Played >= p.cfg.MaxSegments {
			p.logger.Info("segment budget reached", slog.Int("played", p.stats.Played))
			return nil
		}
		p.stats.Iterations++

		var seg segment
		if inFlight != nil {
			seg = <-inFlight.ch
			inFlight = nil
		} else {
			seg = p.generate(ctx, index, prevText)
		}
		if seg.exhausted {
			p.playOutro(ctx)
			p.logger.Info("content exhausted, closing broadcast")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		if !seg.viable() {
			consecutive++
			p.stats.SoftFailures++
			metrics.Emit(p.deps.Observer, metrics.EventSoftFailure, 1, p.tags())
			p.logger.Warn("segment not viable, retrying",
				slog.Int("index", seg.index),
				slog.Int("consecutive_failures", consecutive))
			if consecutive >= p.cfg.MaxRetries {
				p.logger.Error("failure budget exhausted", slog.Int("failures", consecutive))
				return ErrBudgetExhausted
			}
			if !sleepCtx(ctx, 2*p.cfg.Delay) {
				return nil
			}
			continue
		}
		consecutive = 0

		// Kick off the next segment before this one starts playing.
		last := p.cfg.MaxSegments > 0 && p.stats.Played+1 >= p.cfg.MaxSegments
		if !last && ctx.Err() == nil {
			inFlight = p.startGeneration(ctx, index+1, seg.text)
		}

		if err := p.deps.Sink.Play(ctx, seg.pcm, p.cfg.SampleRate); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			consecutive++
			p.stats.SoftFailures++
			p.logger.Warn("playback failed",
				slog.Int("index", seg.index),
				slog.String("error", err.Error()))
			if consecutive >= p.cfg.MaxRetries {
				return ErrBudgetExhausted
			}
			// The queued lookahead is for the next index; this index
			// will be regenerated, so the lookahead must go.
			if inFlight != nil {
				inFlight.cancel()
				<-inFlight.ch
				inFlight = nil
			}
			if !sleepCtx(ctx, 2*p.cfg.Delay) {
				return nil
			}
			continue
		}

		p.record(seg)
		prevText = seg.text
		p.stats.Played++
		index = seg.index + 1

		metrics.Emit(p.deps.Observer, metrics.EventSegmentPlayed,
			audio.Duration(seg.pcm, p.cfg.SampleRate), p.tags())

		if !sleepCtx(ctx, p.cfg.Delay) {
			return nil
		}
	}
}

func (p *Pipeline) startGeneration(ctx context.Context, index int, prevText string) *pending {
	genCtx, cancel := context.WithCancel(ctx)
	pd := &pending{ch: make(chan segment, 1), cancel: cancel}
	go func() {
		defer cancel()
		pd.ch <- p.generate(genCtx, index, prevText)
	}()
	return pd
}

// generate produces one complete segment: text by mode, then audio.
func (p *Pipeline) generate(ctx context.Context, index int, prevText string) segment {
	seg := segment{index: index}

	switch p.cfg.Mode {
	case ModeReader:
		if index >= len(p.deps.Chunks) {
			seg.exhausted = true
			return seg
		}
		seg.text = p.deps.Chunks[index]
		seg.topic = "lectura"
	case ModeMonologue:
		// The previous segment may not be in the store yet when this
		// runs as a lookahead, so it is folded in explicitly.
		covered := p.deps.Active.Recent(p.stats.SessionID)
		if prevText != "" {
			covered = append(covered, prevText)
		}
		hint := session.AntiRepetitionHint(covered)
		pr := p.deps.Prompts.Monologue(p.cfg.Theme, tail(prevText, monologueTailRunes), hint, p.cfg.SegmentDuration)
		seg.text = p.deps.Generator.Generate(ctx, pr)
		seg.topic = p.cfg.Theme
	default:
		seg.topic = p.deps.Topics.Random()
		seg.text = p.deps.Generator.Generate(ctx, p.deps.Prompts.Topic(seg.topic, p.cfg.SegmentDuration))
	}

	if ctx.Err() != nil || utf8.RuneCountInString(strings.TrimSpace(seg.text)) < minSegmentRunes {
		return seg
	}
	metrics.Emit(p.deps.Observer, metrics.EventSegmentGenerated, float64(len(seg.text)), p.tags())

	seg.pcm, seg.provider = p.deps.Synth.Synthesize(ctx, seg.text, p.cfg.Provider, p.cfg.Voice)
	return seg
}

func (p *Pipeline) playIntro(ctx context.Context) {
	text := p.deps.Generator.Generate(ctx, p.deps.Prompts.Intro())
	if text == "" {
		p.logger.Warn("intro generation failed, skipping")
		return
	}
	pcm, provider := p.deps.Synth.Synthesize(ctx, text, p.cfg.Provider, p.cfg.Voice)
	if len(pcm) == 0 {
		p.logger.Warn("intro synthesis failed, skipping")
		return
	}
	if err := p.deps.Sink.Play(ctx, pcm, p.cfg.SampleRate); err != nil {
		p.logger.Warn("intro playback failed", slog.String("error", err.Error()))
		return
	}
	p.deps.History.AddIntro(session.SegmentRecord{
		Text:     text,
		Voice:    p.cfg.Voice.Voice,
		Provider: string(provider),
		Duration: audio.Duration(pcm, p.cfg.SampleRate),
	})
}

// playOutro closes a finite broadcast; only reader mode reaches it.
func (p *Pipeline) playOutro(ctx context.Context) {
	if p.cfg.SkipIntro || ctx.Err() != nil {
		return
	}
	text := p.deps.Generator.Generate(ctx, p.deps.Prompts.Outro())
	if text == "" {
		return
	}
	pcm, _ := p.deps.Synth.Synthesize(ctx, text, p.cfg.Provider, p.cfg.Voice)
	if len(pcm) == 0 {
		return
	}
	_ = p.deps.Sink.Play(ctx, pcm, p.cfg.SampleRate)
}

func (p *Pipeline) record(seg segment) {
	p.deps.History.AddSegment(session.SegmentRecord{
		Topic:    seg.topic,
		Text:     seg.text,
		Voice:    p.cfg.Voice.Voice,
		Provider: string(seg.provider),
		Duration: audio.Duration(seg.pcm, p.cfg.SampleRate),
	})
	// Only monologue mode feeds the anti-repetition window; topic
	// segments are standalone and reader text is fixed anyway.
	if p.cfg.Mode == ModeMonologue {
		p.deps.Active.AddContent(p.stats.SessionID, seg.text)
	}
}

func (p *Pipeline) finish() {
	p.deps.History.End()
	metrics.Emit(p.deps.Observer, metrics.EventSessionClosed, float64(p.stats.Played), p.tags())
	p.logger.Info("broadcast finished",
		slog.String("session_id", p.stats.SessionID),
		slog.Int("iterations", p.stats.Iterations),
		slog.Int("played", p.stats.Played),
		slog.Int("soft_failures", p.stats.SoftFailures))
}

func (p *Pipeline) waitWhilePaused(ctx context.Context) bool {
	for p.controls.Paused() {
		if !sleepCtx(ctx, 100*time.Millisecond) {
			return false
		}
	}
	return true
}

func (p *Pipeline) tags() map[string]string {
	return map[string]string{
		"run_id":     p.runID,
		"session_id": p.stats.SessionID,
		"mode":       string(p.cfg.Mode),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
