package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/elunara/ondara/pkg/config"
	"github.com/elunara/ondara/pkg/logging"
	"github.com/elunara/ondara/pkg/pipeline"
	"github.com/elunara/ondara/pkg/player"
	"github.com/elunara/ondara/pkg/prompt"
	"github.com/elunara/ondara/pkg/reader"
	"github.com/elunara/ondara/pkg/redact"
	"github.com/elunara/ondara/pkg/replay"
	"github.com/elunara/ondara/pkg/runner"
	"github.com/elunara/ondara/pkg/topics"
	"github.com/elunara/ondara/pkg/tts"
)

const usage = `ondara - unending AI radio

Usage:
  ondara [flags]                 start the live broadcast
  ondara [flags] sessions        list recorded sessions
  ondara [flags] show <id>       print a session transcript
  ondara [flags] replay <id>     replay a recorded session

Flags:
`

func main() {
	_ = godotenv.Load()

	var (
		configPath  = pflag.String("config", "", "path to config file (yaml)")
		mode        = pflag.String("mode", "", "broadcast mode: topics, monologue or reader")
		theme       = pflag.String("theme", "", "monologue theme")
		readerFile  = pflag.String("reader-file", "", "text file for reader mode")
		maxSegments = pflag.Int("max-segments", 0, "stop after N segments (0 = unending)")
		skipIntro   = pflag.Bool("skip-intro", false, "start without the welcome segment")
		noDelay     = pflag.Bool("no-delay", false, "no pause between segments")
		newSession  = pflag.Bool("new-session", false, "ignore any resumable session")
		provider    = pflag.String("provider", "", "pin a tts provider: edge, piper, google")
		voice       = pflag.String("voice", "", "tts voice override")
		sinkName    = pflag.String("sink", "", "audio sink: ffplay, stream or wav")
		logLevel    = pflag.String("log-level", "", "debug, info, warn or error")
	)
	pflag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(&cfg, *mode, *theme, *readerFile, *provider, *voice, *sinkName, *logLevel, *maxSegments, *skipIntro, *noDelay)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.InitLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	redact.SetEnabled(cfg.Observability.RedactPII)

	args := pflag.Args()
	command := "live"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "live":
		err = runLive(cfg, logger, *newSession)
	case "sessions":
		err = listSessions(cfg, logger)
	case "show":
		if len(args) < 2 {
			err = errors.New("show needs a session id")
		} else {
			err = showSession(cfg, logger, args[1])
		}
	case "replay":
		if len(args) < 2 {
			err = errors.New("replay needs a session id")
		} else {
			err = runReplay(cfg, logger, args[1])
		}
	default:
		pflag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", slog.String("command", command), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

func applyOverrides(cfg *config.Config, mode, theme, readerFile, provider, voice, sink, logLevel string, maxSegments int, skipIntro, noDelay bool) {
	if mode != "" {
		cfg.Radio.Mode = mode
	}
	if theme != "" {
		cfg.Radio.Theme = theme
	}
	if readerFile != "" {
		cfg.Radio.ReaderFile = readerFile
	}
	if provider != "" {
		cfg.TTS.Provider = provider
	}
	if voice != "" {
		cfg.Radio.Voice = voice
	}
	if sink != "" {
		cfg.Player.Sink = sink
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if maxSegments > 0 {
		cfg.Radio.MaxSegments = maxSegments
	}
	if skipIntro {
		cfg.Radio.SkipIntro = true
	}
	if noDelay {
		cfg.Radio.DelaySeconds = 0
	}
}

func runLive(cfg config.Config, logger *slog.Logger, forceNewSession bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Generator: eng.generator,
		Synth:     eng.synth,
		Sink:      eng.sink,
		Prompts:   prompt.Builder{Energy: cfg.Radio.Energy, Style: cfg.Radio.Style},
		Topics:    topics.NewPool(cfg.Radio.Topics),
		History:   eng.history,
		Active:    eng.active,
		Observer:  eng.observer,
		Logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
	if cfg.Radio.Mode == string(pipeline.ModeReader) {
		chunks, err := reader.Load(cfg.Radio.ReaderFile, cfg.Radio.SegmentDuration)
		if err != nil {
			return err
		}
		deps.Chunks = chunks
	}

	p := pipeline.New(pipeline.Config{
		Mode:            pipeline.Mode(cfg.Radio.Mode),
		Theme:           cfg.Radio.Theme,
		SegmentDuration: cfg.Radio.SegmentDuration,
		Delay:           time.Duration(cfg.Radio.DelaySeconds) * time.Second,
		MaxSegments:     cfg.Radio.MaxSegments,
		MaxRetries:      cfg.Radio.MaxRetries,
		SkipIntro:       cfg.Radio.SkipIntro,
		ForceNewSession: forceNewSession,
		SampleRate:      cfg.Audio.SampleRate,
		Provider:        tts.ProviderID(cfg.TTS.Provider),
		Voice:           tts.VoiceParams{Voice: cfg.Radio.Voice},
	}, deps)

	if stream, ok := eng.sink.(*player.Stream); ok {
		go drainStream(ctx, stream, logger)
	}

	var runErr error
	done := make(chan struct{})
	var lr *runner.LifecycleRunner
	lr = runner.NewLifecycleRunner(eng, runner.Hooks{
		OnStart: func() {
			eng.sched.Start()
			go func() {
				defer close(done)
				runErr = p.Run(lr.Context())
				_ = lr.Stop()
			}()
		},
	}, 15*time.Second)
	lifecycleErr := lr.Run(ctx)
	<-done
	if runErr == nil {
		runErr = lifecycleErr
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	st := p.Stats()
	logger.Info("broadcast finished",
		slog.Int("segments_played", st.Played),
		slog.Int("soft_failures", st.SoftFailures))
	return runErr
}

// drainStream ships queued segments to stdout as raw s16le so the
// broadcast can be piped into ffmpeg, icecast source clients and the
// like.
func drainStream(ctx context.Context, stream *player.Stream, logger *slog.Logger) {
	for {
		seg, err := stream.Next(ctx)
		if err != nil {
			return
		}
		if _, err := os.Stdout.Write(seg.PCM); err != nil {
			logger.Warn("stdout write failed", slog.String("error", err.Error()))
			return
		}
	}
}

func listSessions(cfg config.Config, logger *slog.Logger) error {
	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Drain() }()
	ids, err := eng.history.List(0)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no recorded sessions")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func showSession(cfg config.Config, logger *slog.Logger, id string) error {
	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Drain() }()
	text, err := eng.history.RenderText(id)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func runReplay(cfg config.Config, logger *slog.Logger, id string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Drain() }()

	if stream, ok := eng.sink.(*player.Stream); ok {
		go drainStream(ctx, stream, logger)
	}

	r := replay.New(replay.Config{
		SampleRate: cfg.Audio.SampleRate,
		Delay:      time.Duration(cfg.Radio.DelaySeconds) * time.Second,
		Provider:   tts.ProviderID(cfg.TTS.Provider),
		Voice:      tts.VoiceParams{Voice: cfg.Radio.Voice},
	}, eng.history, eng.synth, eng.sink, logging.NewComponentLogger(logger, "replay"))
	err = r.Play(ctx, id)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
