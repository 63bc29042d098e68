package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonLLMGenerate  ReasonCode = "llm_generate"
	ReasonLLMRateLimit ReasonCode = "llm_rate_limit"

	ReasonTTSSynthesize  ReasonCode = "tts_synthesize"
	ReasonTTSUnavailable ReasonCode = "tts_unavailable"
	ReasonTTSExhausted   ReasonCode = "tts_exhausted"
	ReasonTTSRateLimit   ReasonCode = "tts_rate_limit"
	ReasonTTSDecode      ReasonCode = "tts_decode"

	ReasonCacheRead  ReasonCode = "cache_read"
	ReasonCacheWrite ReasonCode = "cache_write"

	ReasonSessionIO ReasonCode = "session_io"

	ReasonPlayback        ReasonCode = "playback"
	ReasonReaderExhausted ReasonCode = "reader_exhausted"
)
