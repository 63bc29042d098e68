package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/elunara/ondara/pkg/audio"
	"github.com/elunara/ondara/pkg/errorsx"
	"github.com/elunara/ondara/pkg/resilience"
	"github.com/elunara/ondara/pkg/tts"
)

const endpoint = "https://translate.google.com/translate_tts"

// maxChunkRunes is the longest text the endpoint accepts per request.
const maxChunkRunes = 200

// Config tunes the Google Translate speech backend. It is the chain's
// last resort: robotic but nearly always reachable.
type Config struct {
	Language      string `mapstructure:"language"`
	SampleRate    int    `mapstructure:"sample_rate"`
	DecodeCommand string `mapstructure:"decode_command"`
}

type Synth struct {
	cfg    Config
	client *http.Client
	retry  resilience.RetryPolicy
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Synth {
	if cfg.Language == "" {
		cfg.Language = "es"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synth{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		retry:  resilience.NewRetryPolicy(2, 500*time.Millisecond),
		logger: logger,
	}
}

func (s *Synth) ID() tts.ProviderID { return tts.ProviderGoogle }

func (s *Synth) Available(ctx context.Context) bool {
	args, err := shellwords.Parse(s.decodeCommand())
	if err != nil || len(args) == 0 {
		return false
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (s *Synth) Synthesize(ctx context.Context, text string, params tts.VoiceParams) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errorsx.Wrap(errors.New("empty text"), errorsx.ReasonTTSSynthesize)
	}

	var mp3 []byte
	for _, chunk := range splitChunks(text, maxChunkRunes) {
		var part []byte
		err := s.retry.DoCtx(ctx, func(ctx context.Context) error {
			var fetchErr error
			part, fetchErr = s.fetchChunk(ctx, chunk)
			return fetchErr
		})
		if err != nil {
			return nil, err
		}
		mp3 = append(mp3, part...)
	}

	pcm, err := audio.DecodeToPCM(ctx, mp3, s.cfg.SampleRate, s.decodeCommand())
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSDecode)
	}
	return pcm, nil
}

func (s *Synth) fetchChunk(ctx context.Context, chunk string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", s.cfg.Language)
	q.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.RateLimitError{Provider: "google", Message: resp.Status}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorsx.Wrap(fmt.Errorf("status %s", resp.Status), errorsx.ReasonTTSSynthesize)
	}
	return io.ReadAll(resp.Body)
}

func (s *Synth) decodeCommand() string {
	if s.cfg.DecodeCommand != "" {
		return s.cfg.DecodeCommand
	}
	return audio.DefaultDecodeCommand
}

// splitChunks cuts text at sentence and word boundaries so no chunk
// exceeds the endpoint limit.
func splitChunks(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}
	var chunks []string
	var current strings.Builder
	currentLen := 0
	for _, word := range strings.Fields(text) {
		wordLen := len([]rune(word))
		if currentLen > 0 && currentLen+1+wordLen > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

var _ tts.Synthesizer = (*Synth)(nil)
