package reader

import (
	"strings"
	"testing"
)

func TestEstimateSeconds(t *testing.T) {
	// 150 words at 150 wpm is one minute.
	text := strings.Repeat("palabra ", 150)
	got := EstimateSeconds(text)
	if got < 59 || got > 61 {
		t.Fatalf("estimate = %v, want ~60", got)
	}
}

func TestSplitRespectsBudget(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		sb.WriteString(strings.Repeat("palabra ", 50))
		sb.WriteString("\n\n")
	}
	chunks := Split(sb.String(), 60)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if sec := EstimateSeconds(c); sec > 61 {
			t.Fatalf("chunk %d estimates %v seconds", i, sec)
		}
	}
}

func TestSplitOversizedParagraphBySentences(t *testing.T) {
	sentence := strings.Repeat("palabra ", 100) + "fin. "
	para := strings.Repeat(sentence, 4) // single paragraph, way over budget
	chunks := Split(para, 60)
	if len(chunks) < 2 {
		t.Fatalf("oversized paragraph not split: %d chunks", len(chunks))
	}
}

func TestSplitEmpty(t *testing.T) {
	if chunks := Split("   \n\n  ", 60); len(chunks) != 0 {
		t.Fatalf("got %d chunks from blank input", len(chunks))
	}
}
