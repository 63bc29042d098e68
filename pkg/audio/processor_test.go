package audio

import (
	"math"
	"testing"
	"time"
)

func sine(amplitude float64, seconds float64, rate int) []float64 {
	n := int(seconds * float64(rate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
	return out
}

func testProcessor() *Processor {
	return NewProcessor(ProcessorConfig{
		SampleRate:  22050,
		TargetDB:    -20,
		TrimSilence: true,
		MinSilence:  100 * time.Millisecond,
	}, nil)
}

func TestProcessNeverFails(t *testing.T) {
	p := testProcessor()
	for _, raw := range [][]byte{nil, {}, {0x01}, {0x01, 0x02, 0x03}} {
		got := p.Process(raw)
		if len(raw) < 2 && len(got) != len(raw) {
			t.Fatalf("short input changed: in=%d out=%d", len(raw), len(got))
		}
	}
}

func TestProcessSilenceUnchangedLength(t *testing.T) {
	p := testProcessor()
	raw := make([]byte, 2*22050)
	got := p.Process(raw)
	// Pure silence must not be amplified into noise or trimmed to nothing.
	if len(got) == 0 {
		t.Fatalf("silence trimmed to nothing")
	}
	for _, s := range BytesToSamples(got) {
		if math.Abs(s) > 0.01 {
			t.Fatalf("silence gained energy: %v", s)
		}
	}
}

func TestNormalizeReachesTarget(t *testing.T) {
	p := testProcessor()
	raw := SamplesToBytes(sine(0.05, 1.0, 22050))
	q := p.Analyze(p.Process(raw))
	if math.Abs(q.RMSDB-(-20)) > 3 {
		t.Fatalf("rms after processing = %.1f dB, want near -20", q.RMSDB)
	}
}

func TestProcessIsStable(t *testing.T) {
	p := testProcessor()
	once := p.Process(SamplesToBytes(sine(0.3, 1.0, 22050)))
	twice := p.Process(once)
	q1 := p.Analyze(once)
	q2 := p.Analyze(twice)
	if math.Abs(q1.RMSDB-q2.RMSDB) > 1.5 {
		t.Fatalf("reprocessing moved rms from %.1f to %.1f dB", q1.RMSDB, q2.RMSDB)
	}
}

func TestTrimSilenceKeepsMargin(t *testing.T) {
	p := testProcessor()
	rate := 22050
	lead := make([]float64, rate) // 1s of silence
	voice := sine(0.5, 0.5, rate)
	samples := append(append(lead, voice...), make([]float64, rate)...)
	trimmed := p.trimSilence(samples)
	if len(trimmed) >= len(samples) {
		t.Fatalf("nothing trimmed")
	}
	// Margin is 100ms on each side, so the result is voice plus up to
	// 200ms of padding.
	maxLen := len(voice) + 2*rate/10 + 1
	if len(trimmed) > maxLen {
		t.Fatalf("trimmed length %d exceeds %d", len(trimmed), maxLen)
	}
}

func TestCompressorOnlyAboveThreshold(t *testing.T) {
	p := testProcessor()
	out := p.compress([]float64{0.5, -0.5, 0.9, -0.9})
	if out[0] != 0.5 || out[1] != -0.5 {
		t.Fatalf("below-threshold samples changed: %v", out)
	}
	want := 0.7 + (0.9-0.7)/2.0
	if math.Abs(out[2]-want) > 1e-9 || math.Abs(out[3]+want) > 1e-9 {
		t.Fatalf("compressed samples = %v, want ±%v", out[2:], want)
	}
}

func TestAnalyze(t *testing.T) {
	p := testProcessor()
	raw := SamplesToBytes(sine(0.5, 2.0, 22050))
	q := p.Analyze(raw)
	if math.Abs(q.DurationSeconds-2.0) > 0.01 {
		t.Fatalf("duration = %v", q.DurationSeconds)
	}
	if q.PeakDB <= q.RMSDB {
		t.Fatalf("peak %.1f should exceed rms %.1f", q.PeakDB, q.RMSDB)
	}
	if q.ClippingPercent != 0 {
		t.Fatalf("unexpected clipping: %v", q.ClippingPercent)
	}
	if q.CrestFactor < 1.3 || q.CrestFactor > 1.5 {
		t.Fatalf("crest factor of a sine = %v, want ~1.41", q.CrestFactor)
	}
}

func TestPCMRoundTrip(t *testing.T) {
	in := []float64{0, 0.25, -0.25, 0.999}
	out := BytesToSamples(SamplesToBytes(in))
	for i := range in {
		if math.Abs(in[i]-out[i]) > 1e-3 {
			t.Fatalf("sample %d: %v != %v", i, in[i], out[i])
		}
	}
}
