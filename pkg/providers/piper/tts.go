package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/elunara/ondara/pkg/errorsx"
	"github.com/elunara/ondara/pkg/tts"
)

// Config selects the local piper binary and voice model.
type Config struct {
	Command     string  `mapstructure:"command"`
	ModelPath   string  `mapstructure:"model_path"`
	Speaker     int     `mapstructure:"speaker"`
	LengthScale float64 `mapstructure:"length_scale"`
	NoiseScale  float64 `mapstructure:"noise_scale"`
	NoiseW      float64 `mapstructure:"noise_w"`
}

// Synth runs piper as a subprocess: text on stdin, raw s16le PCM on
// stdout. Voice characteristics come from the model file, so the chain
// can run fully offline.
type Synth struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Synth {
	if cfg.Command == "" {
		cfg.Command = "piper"
	}
	if cfg.NoiseScale == 0 {
		cfg.NoiseScale = 0.667
	}
	if cfg.NoiseW == 0 {
		cfg.NoiseW = 0.8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synth{cfg: cfg, logger: logger}
}

func (s *Synth) ID() tts.ProviderID { return tts.ProviderPiper }

func (s *Synth) Available(ctx context.Context) bool {
	args, err := shellwords.Parse(s.cfg.Command)
	if err != nil || len(args) == 0 {
		return false
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return false
	}
	if s.cfg.ModelPath == "" {
		return false
	}
	if _, err := os.Stat(s.cfg.ModelPath); err != nil {
		return false
	}
	return true
}

func (s *Synth) Synthesize(ctx context.Context, text string, params tts.VoiceParams) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errorsx.Wrap(errors.New("empty text"), errorsx.ReasonTTSSynthesize)
	}
	base, err := shellwords.Parse(s.cfg.Command)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("parse command: %w", err), errorsx.ReasonTTSSynthesize)
	}

	args := append(base[1:],
		"--model", s.cfg.ModelPath,
		"--output_raw",
	)
	if s.cfg.Speaker > 0 {
		args = append(args, "--speaker", strconv.Itoa(s.cfg.Speaker))
	}
	if s.cfg.LengthScale > 0 {
		args = append(args,
			"--length_scale", strconv.FormatFloat(s.cfg.LengthScale, 'f', -1, 64),
			"--noise_scale", strconv.FormatFloat(s.cfg.NoiseScale, 'f', -1, 64),
			"--noise_w", strconv.FormatFloat(s.cfg.NoiseW, 'f', -1, 64),
		)
	}

	cmd := exec.CommandContext(ctx, base[0], args...)
	cmd.Stdin = strings.NewReader(text)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger.Warn("piper failed",
			slog.String("error", err.Error()),
			slog.String("stderr", strings.TrimSpace(stderr.String())))
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	return out.Bytes(), nil
}

var _ tts.Synthesizer = (*Synth)(nil)
