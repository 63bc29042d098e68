package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// DefaultDecodeCommand converts any compressed audio on stdin to s16le
// mono PCM on stdout. {rate} is replaced with the target sample rate.
const DefaultDecodeCommand = "ffmpeg -hide_banner -loglevel error -i - -f s16le -acodec pcm_s16le -ar {rate} -ac 1 -"

// DecodeToPCM pipes data through the given decode command. Backends
// that receive MP3 from their vendor use this to hand PCM to the
// processing chain.
func DecodeToPCM(ctx context.Context, data []byte, sampleRate int, command string) ([]byte, error) {
	if command == "" {
		command = DefaultDecodeCommand
	}
	command = strings.ReplaceAll(command, "{rate}", strconv.Itoa(sampleRate))
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse decode command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty decode command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("decode: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out.Bytes(), nil
}
