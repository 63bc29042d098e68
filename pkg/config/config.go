package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	LogFormat     string              `mapstructure:"log_format"`
	Radio         RadioConfig         `mapstructure:"radio"`
	LLM           VendorConfig        `mapstructure:"llm"`
	TTS           TTSConfig           `mapstructure:"tts"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Player        PlayerConfig        `mapstructure:"player"`
	Session       SessionConfig       `mapstructure:"session"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// VendorConfig selects a provider and carries its free-form settings.
type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type RadioConfig struct {
	Mode            string   `mapstructure:"mode"`
	Theme           string   `mapstructure:"theme"`
	Topics          []string `mapstructure:"topics"`
	SegmentDuration int      `mapstructure:"segment_duration_seconds"`
	DelaySeconds    int      `mapstructure:"delay_seconds"`
	MaxSegments     int      `mapstructure:"max_segments"`
	MaxRetries      int      `mapstructure:"max_retries"`
	SkipIntro       bool     `mapstructure:"skip_intro"`
	Voice           string   `mapstructure:"voice"`
	Energy          string   `mapstructure:"energy"`
	Style           string   `mapstructure:"style"`
	ReaderFile      string   `mapstructure:"reader_file"`
}

type TTSConfig struct {
	Provider       string                    `mapstructure:"provider"`
	Chain          []string                  `mapstructure:"chain"`
	MinViableBytes int                       `mapstructure:"min_viable_bytes"`
	TimeoutSeconds int                       `mapstructure:"timeout_seconds"`
	Providers      map[string]map[string]any `mapstructure:"providers"`
}

type CacheConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Dir           string `mapstructure:"dir"`
	MaxAgeDays    int    `mapstructure:"max_age_days"`
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

type AudioConfig struct {
	SampleRate        int     `mapstructure:"sample_rate"`
	TargetDB          float64 `mapstructure:"target_db"`
	HighpassCutoffHz  float64 `mapstructure:"highpass_cutoff_hz"`
	CompressThreshold float64 `mapstructure:"compress_threshold"`
	CompressRatio     float64 `mapstructure:"compress_ratio"`
	SilenceThreshold  float64 `mapstructure:"silence_threshold"`
	MinSilenceMS      int     `mapstructure:"min_silence_ms"`
	TrimSilence       bool    `mapstructure:"trim_silence"`
}

type PlayerConfig struct {
	Sink          string `mapstructure:"sink"`
	FFPlayCommand string `mapstructure:"ffplay_command"`
	WAVDir        string `mapstructure:"wav_dir"`
	QueueCapacity int    `mapstructure:"queue_capacity"`
}

type SessionConfig struct {
	Dir          string `mapstructure:"dir"`
	TimeoutHours int    `mapstructure:"timeout_hours"`
	MaxHistory   int    `mapstructure:"max_history"`
	KeepLast     int    `mapstructure:"keep_last"`
}

type ObservabilityConfig struct {
	MetricsPath string  `mapstructure:"metrics_path"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	AsyncBuffer int     `mapstructure:"async_buffer"`
	RedactPII   bool    `mapstructure:"redact_pii"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("radio.mode", "topics")
	v.SetDefault("radio.segment_duration_seconds", 60)
	v.SetDefault("radio.delay_seconds", 2)
	v.SetDefault("radio.max_segments", 0)
	v.SetDefault("radio.max_retries", 3)
	v.SetDefault("radio.skip_intro", false)
	v.SetDefault("radio.energy", "media")
	v.SetDefault("radio.style", "tecnologia_casual")
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("tts.provider", "auto")
	v.SetDefault("tts.chain", []string{"edge", "piper", "google"})
	v.SetDefault("tts.min_viable_bytes", 100)
	v.SetDefault("tts.timeout_seconds", 30)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", "audio_cache")
	v.SetDefault("cache.max_age_days", 7)
	v.SetDefault("cache.sweep_schedule", "@every 6h")
	v.SetDefault("audio.sample_rate", 22050)
	v.SetDefault("audio.target_db", -20.0)
	v.SetDefault("audio.highpass_cutoff_hz", 80.0)
	v.SetDefault("audio.compress_threshold", 0.7)
	v.SetDefault("audio.compress_ratio", 2.0)
	v.SetDefault("audio.silence_threshold", 0.01)
	v.SetDefault("audio.min_silence_ms", 500)
	v.SetDefault("audio.trim_silence", true)
	v.SetDefault("player.sink", "ffplay")
	v.SetDefault("player.queue_capacity", 10)
	v.SetDefault("session.dir", "radio_sessions")
	v.SetDefault("session.timeout_hours", 24)
	v.SetDefault("session.max_history", 5)
	v.SetDefault("session.keep_last", 20)
	v.SetDefault("observability.sample_rate", 1.0)
	v.SetDefault("observability.async_buffer", 256)
	v.SetDefault("observability.redact_pii", false)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.Provider) == "" {
		return fmt.Errorf("llm.provider is required")
	}
	switch c.Radio.Mode {
	case "topics", "monologue", "reader":
	default:
		return fmt.Errorf("radio.mode %q is not one of topics, monologue, reader", c.Radio.Mode)
	}
	if c.Radio.Mode == "monologue" && strings.TrimSpace(c.Radio.Theme) == "" {
		return fmt.Errorf("radio.theme is required in monologue mode")
	}
	if c.Radio.Mode == "reader" && strings.TrimSpace(c.Radio.ReaderFile) == "" {
		return fmt.Errorf("radio.reader_file is required in reader mode")
	}
	if c.TTS.Provider != "auto" && len(c.TTS.Chain) == 0 && strings.TrimSpace(c.TTS.Provider) == "" {
		return fmt.Errorf("tts.provider or tts.chain is required")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.LLM.Settings = expandSettings(cfg.LLM.Settings)
	for name, settings := range cfg.TTS.Providers {
		cfg.TTS.Providers[name] = expandSettings(settings)
	}
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && v.Type().Elem().Kind() == reflect.String {
			for _, key := range v.MapKeys() {
				val := v.MapIndex(key)
				expanded := os.ExpandEnv(val.String())
				v.SetMapIndex(key, reflect.ValueOf(expanded))
			}
		}
	}
}
