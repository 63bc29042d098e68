package audio

import "encoding/binary"

// BytesToSamples decodes little-endian signed 16-bit mono PCM into
// float64 samples in [-1, 1). A trailing odd byte is ignored.
func BytesToSamples(raw []byte) []float64 {
	n := len(raw) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float64(v) / 32768.0
	}
	return samples
}

// SamplesToBytes encodes float64 samples into little-endian signed
// 16-bit mono PCM, clipping out-of-range values.
func SamplesToBytes(samples []float64) []byte {
	raw := make([]byte, 2*len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		v := int16(s * 32767.0)
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(v))
	}
	return raw
}

// Duration returns the playback length in seconds of raw s16le PCM.
func Duration(raw []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(raw)/2) / float64(sampleRate)
}
