package edge

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	shellwords "github.com/mattn/go-shellwords"

	"github.com/elunara/ondara/pkg/audio"
	"github.com/elunara/ondara/pkg/errorsx"
	"github.com/elunara/ondara/pkg/resilience"
	"github.com/elunara/ondara/pkg/tts"
)

const (
	endpoint     = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	trustedToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	outputFormat = "audio-24khz-48kbitrate-mono-mp3"
)

// Config tunes the Edge read-aloud backend.
type Config struct {
	Voice         string `mapstructure:"voice"`
	Language      string `mapstructure:"language"`
	Rate          string `mapstructure:"rate"`
	SampleRate    int    `mapstructure:"sample_rate"`
	DecodeCommand string `mapstructure:"decode_command"`
}

// Synth speaks through Microsoft's Edge read-aloud neural voices. The
// service returns MP3, which is decoded to PCM before handing back.
type Synth struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Synth {
	if cfg.Voice == "" {
		cfg.Voice = "es-ES-ElviraNeural"
	}
	if cfg.Language == "" {
		cfg.Language = "es-ES"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synth{cfg: cfg, logger: logger}
}

func (s *Synth) ID() tts.ProviderID { return tts.ProviderEdge }

// Available needs both network reachability and a local decoder.
func (s *Synth) Available(ctx context.Context) bool {
	args, err := shellwords.Parse(s.decodeCommand())
	if err != nil || len(args) == 0 {
		return false
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		s.logger.Debug("edge decoder missing", slog.String("command", args[0]))
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	conn, _, err := s.dial(probeCtx)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (s *Synth) Synthesize(ctx context.Context, text string, params tts.VoiceParams) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errorsx.Wrap(errors.New("empty text"), errorsx.ReasonTTSSynthesize)
	}
	voice := s.cfg.Voice
	if params.Voice != "" {
		voice = params.Voice
	}

	conn, resp, err := s.dial(ctx)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return nil, resilience.RateLimitError{Provider: "edge", Message: resp.Status}
		}
		return nil, errorsx.Wrap(fmt.Errorf("dial: %w", err), errorsx.ReasonTTSSynthesize)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := conn.WriteMessage(websocket.TextMessage, speechConfig()); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("send config: %w", err), errorsx.ReasonTTSSynthesize)
	}
	if err := conn.WriteMessage(websocket.TextMessage, ssmlMessage(requestID, s.cfg.Language, voice, s.cfg.Rate, text)); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("send ssml: %w", err), errorsx.ReasonTTSSynthesize)
	}

	mp3, err := collectAudio(ctx, conn)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	pcm, err := audio.DecodeToPCM(ctx, mp3, s.cfg.SampleRate, s.decodeCommand())
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSDecode)
	}
	return pcm, nil
}

func (s *Synth) decodeCommand() string {
	if s.cfg.DecodeCommand != "" {
		return s.cfg.DecodeCommand
	}
	return audio.DefaultDecodeCommand
}

func (s *Synth) dial(ctx context.Context) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{Proxy: http.ProxyFromEnvironment}
	header := http.Header{
		"Origin":     []string{"chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"},
		"User-Agent": []string{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)"},
	}
	url := endpoint + "?TrustedClientToken=" + trustedToken
	return dialer.DialContext(ctx, url, header)
}

// collectAudio reads frames until the service marks the turn finished.
// Binary frames carry a big-endian header length followed by headers and
// MP3 payload.
func collectAudio(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	var mp3 bytes.Buffer
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				return mp3.Bytes(), nil
			}
		case websocket.BinaryMessage:
			if len(data) < 2 {
				continue
			}
			headerLen := int(binary.BigEndian.Uint16(data[:2]))
			if len(data) < 2+headerLen {
				continue
			}
			header := string(data[2 : 2+headerLen])
			if strings.Contains(header, "Path:audio") {
				mp3.Write(data[2+headerLen:])
			}
		}
	}
}

func speechConfig() []byte {
	payload := `{"context":{"synthesis":{"audio":{"metadataoptions":{` +
		`"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},` +
		`"outputFormat":"` + outputFormat + `"}}}}`
	return []byte("X-Timestamp:" + timestamp() + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" + payload)
}

func ssmlMessage(requestID, language, voice, rate, text string) []byte {
	prosodyOpen, prosodyClose := "", ""
	if rate != "" {
		prosodyOpen = "<prosody rate='" + rate + "'>"
		prosodyClose = "</prosody>"
	}
	ssml := "<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='" + language + "'>" +
		"<voice name='" + voice + "'>" + prosodyOpen + escapeXML(text) + prosodyClose + "</voice></speak>"
	return []byte("X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + timestamp() + "\r\n" +
		"Path:ssml\r\n\r\n" + ssml)
}

func timestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

var _ tts.Synthesizer = (*Synth)(nil)
