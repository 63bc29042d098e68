package session

import (
	"strings"
	"testing"
	"time"
)

func TestExtractConcepts(t *testing.T) {
	text := "La cerveza artesanal es una bebida muy popular. La bebida popular se sirve fría en verano."
	got := ExtractConcepts(text, 3)
	if len(got) == 0 {
		t.Fatalf("no concepts extracted")
	}
	// "bebida" and "popular" appear twice each and must rank first.
	if got[0] != "bebida" && got[0] != "popular" {
		t.Fatalf("top concept = %q", got[0])
	}
}

func TestExtractConceptsFilters(t *testing.T) {
	got := ExtractConcepts("esto es solo un texto sobre cosas que siempre pasan ahora", 5)
	for _, c := range got {
		if _, stop := stopWords[c]; stop {
			t.Fatalf("stop word leaked: %q", c)
		}
		if len([]rune(c)) <= 4 {
			t.Fatalf("short word leaked: %q", c)
		}
	}
}

func TestAntiRepetitionHint(t *testing.T) {
	recent := []string{
		"La cerveza es una bebida muy popular en España, una bebida popular de verdad.",
		"Los monasterios medievales elaboraban cerveza artesanal.",
	}
	hint := AntiRepetitionHint(recent)
	if !strings.HasPrefix(hint, "CONTENIDO YA CUBIERTO") {
		t.Fatalf("hint = %q", hint)
	}
	if !strings.Contains(hint, "bebida") || !strings.Contains(hint, "popular") {
		t.Fatalf("hint missing expected concepts: %q", hint)
	}
}

func TestAntiRepetitionHintEmpty(t *testing.T) {
	if hint := AntiRepetitionHint(nil); hint != "" {
		t.Fatalf("hint for empty history = %q", hint)
	}
	if hint := AntiRepetitionHint([]string{"y el un de"}); hint != "" {
		t.Fatalf("hint for contentless history = %q", hint)
	}
}

func TestAntiRepetitionHintCapAndDedupe(t *testing.T) {
	var recent []string
	for i := 0; i < 8; i++ {
		recent = append(recent, "palabras distintas "+strings.Repeat("concepto", 1)+
			" candidatas mercados jardines camiones montañas")
	}
	hint := AntiRepetitionHint(recent)
	listed := strings.Split(strings.TrimPrefix(hint, "CONTENIDO YA CUBIERTO (evitar repetir estos conceptos): "), ", ")
	if len(listed) > 10 {
		t.Fatalf("hint lists %d concepts, cap is 10", len(listed))
	}
	seen := map[string]bool{}
	for _, c := range listed {
		if seen[c] {
			t.Fatalf("duplicate concept %q", c)
		}
		seen[c] = true
	}
}

func TestActiveStoreContinuityWindow(t *testing.T) {
	dir := t.TempDir()
	a := NewActiveStore(dir, 24*time.Hour, 5, nil)

	id1, continuing, _ := a.GetOrCreate(false)
	if continuing {
		t.Fatalf("first call should create")
	}
	a.AddContent(id1, "hablamos de la cerveza artesanal")

	// Within the window: same session, content carried over.
	id2, continuing, recent := a.GetOrCreate(false)
	if !continuing || id2 != id1 {
		t.Fatalf("expected continuation of %s, got %s (continuing=%v)", id1, id2, continuing)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %v", recent)
	}

	// Past the window: a new session.
	base := time.Now()
	a.now = func() time.Time { return base.Add(25 * time.Hour) }
	id3, continuing, recent := a.GetOrCreate(false)
	if continuing || id3 == id1 {
		t.Fatalf("expected fresh session, got %s (continuing=%v)", id3, continuing)
	}
	if recent != nil {
		t.Fatalf("fresh session carried content: %v", recent)
	}
}

func TestActiveStoreForceNew(t *testing.T) {
	a := NewActiveStore(t.TempDir(), 24*time.Hour, 5, nil)
	id1, _, _ := a.GetOrCreate(false)
	a.now = func() time.Time { return time.Now().Add(time.Second) }
	id2, continuing, _ := a.GetOrCreate(true)
	if continuing || id1 == id2 {
		t.Fatalf("force_new reused session %s", id2)
	}
}

func TestActiveStoreHistoryTrim(t *testing.T) {
	a := NewActiveStore(t.TempDir(), 24*time.Hour, 2, nil)
	id, _, _ := a.GetOrCreate(false)
	a.AddContent(id, "uno")
	a.AddContent(id, "dos")
	a.AddContent(id, "tres")
	recent := a.Recent(id)
	if len(recent) != 2 || recent[0] != "dos" || recent[1] != "tres" {
		t.Fatalf("recent = %v, want last two", recent)
	}
}

func TestActiveStoreMismatchedID(t *testing.T) {
	a := NewActiveStore(t.TempDir(), 24*time.Hour, 5, nil)
	id, _, _ := a.GetOrCreate(false)
	a.AddContent("otra_sesion", "no debería guardarse")
	if got := a.Recent(id); len(got) != 0 {
		t.Fatalf("mismatched write recorded: %v", got)
	}
}

func TestHistoryLifecycle(t *testing.T) {
	h := NewHistory(t.TempDir(), nil)
	h.Start("20260830_120000")
	h.AddIntro(SegmentRecord{Text: "Bienvenidos a la emisión.", Duration: 5})
	h.AddSegment(SegmentRecord{Topic: "cerveza", Text: "Primer segmento.", Duration: 30, Provider: "piper"})
	h.AddSegment(SegmentRecord{Topic: "pan", Text: "Segundo segmento.", Duration: 40, Provider: "edge"})
	h.End()

	rec, err := h.Get("20260830_120000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.TotalSegments != 2 || rec.TotalDuration != 75 {
		t.Fatalf("totals: %d segments, %.0f s", rec.TotalSegments, rec.TotalDuration)
	}
	if rec.EndTime == nil || rec.Intro == nil {
		t.Fatalf("record incomplete: %+v", rec)
	}
	if rec.Segments[1].Number != 2 {
		t.Fatalf("segment numbering: %+v", rec.Segments[1])
	}

	text, err := h.RenderText("20260830_120000")
	if err != nil || !strings.Contains(text, "Primer segmento.") {
		t.Fatalf("transcript: %v %q", err, text)
	}
}

func TestHistoryListAndDeleteOld(t *testing.T) {
	h := NewHistory(t.TempDir(), nil)
	for _, id := range []string{"20260830_100000", "20260830_110000", "20260830_120000"} {
		h.Start(id)
		h.End()
	}
	ids, err := h.List(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "20260830_120000" {
		t.Fatalf("list = %v", ids)
	}
	if removed := h.DeleteOld(1); removed != 2 {
		t.Fatalf("removed %d, want 2", removed)
	}
}
