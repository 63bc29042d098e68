package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Radio.Mode != "topics" {
		t.Fatalf("mode = %q", cfg.Radio.Mode)
	}
	if got := cfg.TTS.Chain; len(got) != 3 || got[0] != "edge" {
		t.Fatalf("chain = %v", got)
	}
	if cfg.TTS.MinViableBytes != 100 {
		t.Fatalf("min_viable_bytes = %d", cfg.TTS.MinViableBytes)
	}
	if cfg.Session.TimeoutHours != 24 || cfg.Session.MaxHistory != 5 {
		t.Fatalf("session defaults = %+v", cfg.Session)
	}
	if cfg.Audio.TargetDB != -20.0 {
		t.Fatalf("target_db = %v", cfg.Audio.TargetDB)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "gsk_from_env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
radio:
  mode: monologue
  theme: historia de la radio
llm:
  provider: groq
  settings:
    api_key: ${TEST_GROQ_KEY}
    model: llama-3.1-8b-instant
tts:
  chain: [piper]
  providers:
    piper:
      model_path: /voices/es.onnx
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Radio.Theme != "historia de la radio" {
		t.Fatalf("theme = %q", cfg.Radio.Theme)
	}
	if got := cfg.LLM.Settings["api_key"]; got != "gsk_from_env" {
		t.Fatalf("api_key = %v, env not expanded", got)
	}
	if got := cfg.TTS.Providers["piper"]["model_path"]; got != "/voices/es.onnx" {
		t.Fatalf("model_path = %v", got)
	}
	// File values override defaults, untouched defaults remain.
	if len(cfg.TTS.Chain) != 1 || cfg.TTS.Chain[0] != "piper" {
		t.Fatalf("chain = %v", cfg.TTS.Chain)
	}
	if cfg.Audio.SampleRate != 22050 {
		t.Fatalf("sample_rate = %d", cfg.Audio.SampleRate)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Default()
	cfg.Radio.Mode = "karaoke"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "radio.mode") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateMonologueNeedsTheme(t *testing.T) {
	cfg := Default()
	cfg.Radio.Mode = "monologue"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing theme")
	}
	cfg.Radio.Theme = "viajes"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateReaderNeedsFile(t *testing.T) {
	cfg := Default()
	cfg.Radio.Mode = "reader"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing reader_file")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
