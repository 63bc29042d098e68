// Package player delivers finished segments to an audio destination:
// local speakers, a streaming queue, or WAV files on disk.
package player

import "context"

// Sink plays one segment of s16le mono PCM. Play blocks until the
// segment has been delivered or ctx is cancelled.
type Sink interface {
	Name() string
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}
