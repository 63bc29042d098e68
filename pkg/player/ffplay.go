package player

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/elunara/ondara/pkg/errorsx"
)

// DefaultFFPlayCommand plays raw PCM from stdin and exits at EOF.
// {rate} is replaced with the segment's sample rate.
const DefaultFFPlayCommand = "ffplay -autoexit -nodisp -loglevel quiet -f s16le -ar {rate} -ac 1 -i -"

// FFPlay plays segments through a local ffplay subprocess. Cancelling
// the context kills playback immediately, which is how a stop request
// cuts a segment short.
type FFPlay struct {
	command string
	logger  *slog.Logger
}

func NewFFPlay(command string, logger *slog.Logger) *FFPlay {
	if command == "" {
		command = DefaultFFPlayCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFPlay{command: command, logger: logger}
}

func (f *FFPlay) Name() string { return "ffplay" }

func (f *FFPlay) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return nil
	}
	command := strings.ReplaceAll(f.command, "{rate}", strconv.Itoa(sampleRate))
	args, err := shellwords.Parse(command)
	if err != nil {
		return errorsx.Wrap(fmt.Errorf("parse player command: %w", err), errorsx.ReasonPlayback)
	}
	if len(args) == 0 {
		return errorsx.Wrap(fmt.Errorf("empty player command"), errorsx.ReasonPlayback)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(pcm)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// Killed by stop request, not a playback fault.
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			f.logger.Warn("player stderr", slog.String("output", msg))
		}
		return errorsx.Wrap(err, errorsx.ReasonPlayback)
	}
	return nil
}

var _ Sink = (*FFPlay)(nil)
