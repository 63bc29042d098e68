package tts

import "context"

// ProviderID names a synthesis backend.
type ProviderID string

const (
	ProviderAuto   ProviderID = "auto"
	ProviderEdge   ProviderID = "edge"
	ProviderPiper  ProviderID = "piper"
	ProviderGoogle ProviderID = "google"
	ProviderMock   ProviderID = "mock"

	// ProviderNone marks audio that no backend produced.
	ProviderNone ProviderID = "none"
)

// VoiceParams carries per-request synthesis options. Extra is passed
// through to the backend and folded into cache keys.
type VoiceParams struct {
	Voice string
	Extra map[string]string
}

// Synthesizer is the contract for any synthesis backend.
type Synthesizer interface {
	// ID returns the backend identity for logging, metrics and cache keys.
	ID() ProviderID
	// Available reports whether the backend can be used right now.
	// Called once per process; the result is cached by the chain.
	Available(ctx context.Context) bool
	// Synthesize converts text to s16le mono PCM.
	Synthesize(ctx context.Context, text string, params VoiceParams) ([]byte, error)
}
