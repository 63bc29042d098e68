// Package reader splits a long text into segments sized for speech, so
// reader mode can broadcast a document chunk by chunk.
package reader

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// wordsPerMinute is the speaking pace segment budgets are computed with.
const wordsPerMinute = 150

var sentenceEnd = regexp.MustCompile(`([.!?]+)\s+`)

// EstimateSeconds predicts how long text takes to read aloud.
func EstimateSeconds(text string) float64 {
	words := len(strings.Fields(text))
	return float64(words) / wordsPerMinute * 60
}

// Load reads a file and splits it into chunks of at most maxSeconds of
// estimated speech each.
func Load(path string, maxSeconds int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	chunks := Split(string(data), maxSeconds)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no readable content in %s", path)
	}
	return chunks, nil
}

// Split cuts text at paragraph boundaries, then sentence boundaries for
// oversized paragraphs, and packs the pieces into duration-bounded chunks.
func Split(text string, maxSeconds int) []string {
	if maxSeconds <= 0 {
		maxSeconds = 60
	}
	var pieces []string
	for _, para := range paragraphs(text) {
		if EstimateSeconds(para) <= float64(maxSeconds) {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, sentences(para)...)
	}

	var chunks []string
	var current strings.Builder
	currentSec := 0.0
	for _, piece := range pieces {
		sec := EstimateSeconds(piece)
		if current.Len() > 0 && currentSec+sec > float64(maxSeconds) {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentSec = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(piece)
		currentSec += sec
	}
	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func paragraphs(text string) []string {
	seps := []string{"\n\n", "\n"}
	parts := []string{text}
	for _, sep := range seps {
		if len(parts) > 1 {
			break
		}
		parts = strings.Split(text, sep)
	}
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sentences(text string) []string {
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
