package player

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/elunara/ondara/pkg/audio"
	"github.com/elunara/ondara/pkg/errorsx"
)

// WAVDir writes each segment as a numbered WAV file. Useful for
// headless runs and for exporting a replay.
type WAVDir struct {
	dir    string
	prefix string
	logger *slog.Logger

	mu  sync.Mutex
	seq int
}

func NewWAVDir(dir, prefix string, logger *slog.Logger) (*WAVDir, error) {
	if prefix == "" {
		prefix = "segment"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("create wav dir: %w", err), errorsx.ReasonPlayback)
	}
	return &WAVDir{dir: dir, prefix: prefix, logger: logger}, nil
}

func (w *WAVDir) Name() string { return "wav" }

func (w *WAVDir) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(pcm) == 0 {
		return nil
	}
	w.mu.Lock()
	w.seq++
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%04d.wav", w.prefix, w.seq))
	w.mu.Unlock()

	if err := audio.WriteWAVFile(path, pcm, sampleRate); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonPlayback)
	}
	w.logger.Debug("segment written", slog.String("path", path), slog.Int("bytes", len(pcm)))
	return nil
}

var _ Sink = (*WAVDir)(nil)
