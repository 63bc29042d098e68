package audio

import (
	"errors"
	"log/slog"
	"math"
	"time"
)

// ProcessorConfig tunes the post-processing chain. Zero values are
// replaced by the defaults the chain was calibrated with.
type ProcessorConfig struct {
	SampleRate        int
	TargetDB          float64
	HighpassCutoffHz  float64
	CompressThreshold float64
	CompressRatio     float64
	SilenceThreshold  float64
	MinSilence        time.Duration
	TrimSilence       bool
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = 22050
	}
	if c.TargetDB == 0 {
		c.TargetDB = -20
	}
	if c.HighpassCutoffHz <= 0 {
		c.HighpassCutoffHz = 80
	}
	if c.CompressThreshold <= 0 {
		c.CompressThreshold = 0.7
	}
	if c.CompressRatio <= 0 {
		c.CompressRatio = 2.0
	}
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = 0.01
	}
	if c.MinSilence <= 0 {
		c.MinSilence = 500 * time.Millisecond
	}
	return c
}

// Processor cleans up synthesized speech: rumble removal, edge silence
// trimming, gentle compression and loudness normalization, in that order.
type Processor struct {
	cfg    ProcessorConfig
	logger *slog.Logger
}

func NewProcessor(cfg ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{cfg: cfg.withDefaults(), logger: logger}
}

// Process runs the full chain over raw s16le mono PCM. It never fails:
// if any stage cannot be applied the original bytes are returned.
func (p *Processor) Process(raw []byte) []byte {
	if len(raw) < 2 {
		return raw
	}
	samples := BytesToSamples(raw)

	filtered, err := p.highpass(samples)
	if err != nil {
		p.logger.Warn("highpass skipped", slog.String("error", err.Error()))
	} else {
		samples = filtered
	}
	if p.cfg.TrimSilence {
		samples = p.trimSilence(samples)
	}
	samples = p.compress(samples)
	samples = p.normalize(samples)

	if len(samples) == 0 {
		return raw
	}
	return SamplesToBytes(samples)
}

// highpass applies a 2nd-order Butterworth high-pass biquad.
func (p *Processor) highpass(samples []float64) ([]float64, error) {
	nyquist := float64(p.cfg.SampleRate) / 2
	if p.cfg.HighpassCutoffHz >= nyquist {
		return nil, errors.New("cutoff at or above nyquist")
	}
	w0 := 2 * math.Pi * p.cfg.HighpassCutoffHz / float64(p.cfg.SampleRate)
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * math.Sqrt2 / 2)

	b0 := (1 + cosw) / 2
	b1 := -(1 + cosw)
	b2 := (1 + cosw) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw
	a2 := 1 - alpha

	b0, b1, b2 = b0/a0, b1/a0, b2/a0
	a1, a2 = a1/a0, a2/a0

	out := make([]float64, len(samples))
	var x1, x2, y1, y2 float64
	for i, x := range samples {
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2
		out[i] = y
		x2, x1 = x1, x
		y2, y1 = y1, y
	}
	return out, nil
}

// trimSilence removes leading and trailing stretches below the silence
// threshold, keeping a margin of one minimum-silence window on each side.
func (p *Processor) trimSilence(samples []float64) []float64 {
	margin := int(p.cfg.MinSilence.Seconds() * float64(p.cfg.SampleRate))
	first, last := -1, -1
	for i, s := range samples {
		if math.Abs(s) > p.cfg.SilenceThreshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		// All silence: leave untouched rather than returning nothing.
		return samples
	}
	start := first - margin
	if start < 0 {
		start = 0
	}
	end := last + margin
	if end >= len(samples) {
		end = len(samples) - 1
	}
	return samples[start : end+1]
}

// compress attenuates only the portion of each sample above the
// threshold, preserving sign.
func (p *Processor) compress(samples []float64) []float64 {
	th := p.cfg.CompressThreshold
	ratio := p.cfg.CompressRatio
	out := make([]float64, len(samples))
	for i, s := range samples {
		abs := math.Abs(s)
		if abs <= th {
			out[i] = s
			continue
		}
		compressed := th + (abs-th)/ratio
		if s < 0 {
			compressed = -compressed
		}
		out[i] = compressed
	}
	return out
}

// normalize scales the signal so its RMS level matches the target dB,
// with the gain clamped to [0.1, 10] and a final hard clip.
func (p *Processor) normalize(samples []float64) []float64 {
	rms := rmsOf(samples)
	if rms < 1e-6 {
		return samples
	}
	currentDB := 20 * math.Log10(rms)
	gain := math.Pow(10, (p.cfg.TargetDB-currentDB)/20)
	if gain < 0.1 {
		gain = 0.1
	} else if gain > 10 {
		gain = 10
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		v := s * gain
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = v
	}
	return out
}

func rmsOf(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
