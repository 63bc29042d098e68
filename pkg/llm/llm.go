package llm

import (
	"context"
	"regexp"
	"strings"
)

// Apology is spoken when generation fails. The show must keep talking,
// so generators never surface errors to the loop.
const Apology = "La locutora está tomando una breve pausa, volvemos enseguida."

// minValidRunes rejects degenerate completions (bare punctuation,
// single words) that would make unusable segments.
const minValidRunes = 10

// Generator produces announcer text. Generate is total: on any failure
// it returns the apology line instead of an error.
type Generator interface {
	// Name identifies the backend for logging and metrics.
	Name() string
	// Available reports whether the backend answers right now.
	Available(ctx context.Context) bool
	// Generate returns cleaned announcer text for the prompt.
	Generate(ctx context.Context, prompt string) string
}

var (
	rolePrefix   = regexp.MustCompile(`(?im)^\s*(locutora?|assistant|ai|respuesta)\s*:\s*`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// CleanOutput normalizes raw model output into speakable text. Too-short
// results come back as the apology so the loop always has something to say.
func CleanOutput(raw string) string {
	text := controlChars.ReplaceAllString(raw, "")
	text = rolePrefix.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minValidRunes {
		return Apology
	}
	return text
}
