package audio

import "math"

// Quality summarizes level and clipping characteristics of a PCM buffer.
type Quality struct {
	RMSDB           float64 `json:"rms_db"`
	PeakDB          float64 `json:"peak_db"`
	CrestFactor     float64 `json:"crest_factor"`
	DurationSeconds float64 `json:"duration_seconds"`
	ClippingPercent float64 `json:"clipping_percent"`
	SampleRate      int     `json:"sample_rate"`
	Samples         int     `json:"samples"`
}

// Analyze measures raw s16le mono PCM without modifying it.
func (p *Processor) Analyze(raw []byte) Quality {
	samples := BytesToSamples(raw)
	q := Quality{SampleRate: p.cfg.SampleRate, Samples: len(samples)}
	if len(samples) == 0 {
		return q
	}

	var peak float64
	clipped := 0
	for _, s := range samples {
		abs := math.Abs(s)
		if abs > peak {
			peak = abs
		}
		if abs > 0.99 {
			clipped++
		}
	}
	rms := rmsOf(samples)

	q.RMSDB = 20 * math.Log10(rms+1e-10)
	q.PeakDB = 20 * math.Log10(peak+1e-10)
	q.CrestFactor = peak / (rms + 1e-10)
	q.DurationSeconds = float64(len(samples)) / float64(p.cfg.SampleRate)
	q.ClippingPercent = 100 * float64(clipped) / float64(len(samples))
	return q
}
