// Package redact scrubs personal details from text before it reaches
// logs or on-disk metadata. Generated segments rarely contain PII, but
// reader mode broadcasts arbitrary documents and their excerpts end up
// in cache previews and session transcripts.
package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe = regexp.MustCompile(`\b\+?\d[\d\s\-]{7,}\d\b`)
	keyRe   = regexp.MustCompile(`\b(?:sk|gsk|pk)[-_][A-Za-z0-9_\-]{16,}\b`)
)

// SetEnabled toggles redaction process-wide.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when redaction is active.
func Enabled() bool {
	return enabled.Load()
}

// Text redacts emails, phone numbers and API key shapes when enabled.
func Text(in string) string {
	if !enabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := emailRe.ReplaceAllString(in, "[REDACTED_EMAIL]")
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	out = keyRe.ReplaceAllString(out, "[REDACTED_KEY]")
	return out
}

// Preview redacts and then truncates to at most n runes, for log lines
// and stored excerpts that only need the opening of a segment.
func Preview(in string, n int) string {
	out := Text(in)
	runes := []rune(out)
	if len(runes) <= n {
		return out
	}
	return string(runes[:n]) + "..."
}
