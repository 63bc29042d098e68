package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/elunara/ondara/pkg/audio"
	"github.com/elunara/ondara/pkg/cache"
	"github.com/elunara/ondara/pkg/logging"
	"github.com/elunara/ondara/pkg/metrics"
	"github.com/elunara/ondara/pkg/providers/piper"
	"github.com/elunara/ondara/pkg/tts"
)

// Pre-synthesizes a list of stock lines (intros, transitions, the
// on-air apology) into the cache so a fresh broadcast starts without
// waiting on the synthesizer. One line of text per input line, blank
// lines and # comments skipped.
func main() {
	textFile := flag.String("file", "", "text file, one line per cached phrase")
	cacheDir := flag.String("cache", "tts_cache", "cache directory")
	model := flag.String("model", "", "piper voice model path")
	sampleRate := flag.Int("rate", 22050, "output sample rate")
	flag.Parse()
	if *textFile == "" || *model == "" {
		fmt.Println("usage: prewarm_cache -file=lines.txt -model=voice.onnx [-cache=tts_cache]")
		os.Exit(1)
	}

	logger := logging.InitLogger(slog.LevelInfo, "text")
	store := cache.NewStore(*cacheDir, 0, logger)
	processor := audio.NewProcessor(audio.ProcessorConfig{SampleRate: *sampleRate}, logger)
	synth := piper.New(piper.Config{ModelPath: *model}, logger)
	fallback := tts.NewFallback([]tts.Synthesizer{synth}, tts.FallbackConfig{}, logger, metrics.NoopObserver{})
	manager := tts.NewManager(fallback, store, processor, logger, metrics.NoopObserver{})

	f, err := os.Open(*textFile)
	if err != nil {
		fmt.Println("open:", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := context.Background()
	warmed := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		start := time.Now()
		pcm, provider := manager.Synthesize(ctx, line, tts.ProviderPiper, tts.VoiceParams{})
		if provider == tts.ProviderNone {
			fmt.Printf("FAILED  %.40s\n", line)
			continue
		}
		warmed++
		fmt.Printf("cached  %-40.40s  %6d bytes  %s\n", line, len(pcm), time.Since(start).Round(time.Millisecond))
	}
	if err := scanner.Err(); err != nil {
		fmt.Println("read:", err)
		os.Exit(1)
	}
	st := store.Stats()
	fmt.Printf("done: %d phrases, cache now %d entries / %d bytes\n", warmed, st.Entries, st.SizeBytes)
}
