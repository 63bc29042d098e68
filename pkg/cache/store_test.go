package cache

import (
	"testing"
	"time"
)

func TestKeyDeterministic(t *testing.T) {
	a := NewKeyParams("Hola Mundo", "piper", "es_ES", nil)
	b := NewKeyParams("  hola mundo  ", "piper", "es_ES", nil)
	if a.Hash() != b.Hash() {
		t.Fatalf("normalized texts should share a key")
	}
	c := NewKeyParams("hola mundo", "edge", "es_ES", nil)
	if a.Hash() == c.Hash() {
		t.Fatalf("different providers should not share a key")
	}
	d := NewKeyParams("hola mundo", "piper", "es_MX", nil)
	if a.Hash() == d.Hash() {
		t.Fatalf("different voices should not share a key")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir(), 24*time.Hour, nil)
	params := NewKeyParams("buenos días", "piper", "es_ES", nil)
	audio := []byte("pcm-bytes-here")

	if _, ok := s.Get(params); ok {
		t.Fatalf("unexpected hit on empty store")
	}
	s.Put(params, audio)
	got, ok := s.Get(params)
	if !ok {
		t.Fatalf("expected hit")
	}
	if string(got) != string(audio) {
		t.Fatalf("payload mismatch: %q", got)
	}

	st := s.Stats()
	if st.Entries != 1 || st.TotalHits != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.ByProvider["piper"] != 1 {
		t.Fatalf("by_provider = %v", st.ByProvider)
	}
}

func TestStoreSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	params := NewKeyParams("noche de radio", "edge", "es-ES-ElviraNeural", nil)

	s1 := NewStore(dir, 24*time.Hour, nil)
	s1.Put(params, []byte("audio"))

	s2 := NewStore(dir, 24*time.Hour, nil)
	got, ok := s2.Get(params)
	if !ok || string(got) != "audio" {
		t.Fatalf("reloaded store missed: ok=%v got=%q", ok, got)
	}
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(t.TempDir(), 24*time.Hour, nil)
	params := NewKeyParams("tema viejo", "piper", "es_ES", nil)
	s.Put(params, []byte("audio"))

	// Move the clock a day and a bit forward.
	base := time.Now()
	s.now = func() time.Time { return base.Add(25 * time.Hour) }

	if _, ok := s.Get(params); ok {
		t.Fatalf("expired entry should miss")
	}
	if st := s.Stats(); st.Entries != 0 {
		t.Fatalf("expired entry still indexed: %+v", st)
	}
	// The miss must not be sticky: a fresh put works again.
	s.Put(params, []byte("audio2"))
	if _, ok := s.Get(params); !ok {
		t.Fatalf("expected hit after re-put")
	}
}

func TestStoreSweep(t *testing.T) {
	s := NewStore(t.TempDir(), time.Hour, nil)
	old := NewKeyParams("viejo", "piper", "v", nil)
	fresh := NewKeyParams("nuevo", "piper", "v", nil)
	s.Put(old, []byte("a"))

	base := time.Now()
	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	s.Put(fresh, []byte("b"))

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("sweep removed %d, want 1", removed)
	}
	if _, ok := s.Get(fresh); !ok {
		t.Fatalf("fresh entry swept")
	}
}

func TestStoreUnwritableDirDegrades(t *testing.T) {
	s := NewStore("/proc/definitely-not-writable/cache", time.Hour, nil)
	params := NewKeyParams("texto", "piper", "v", nil)
	s.Put(params, []byte("audio"))
	if _, ok := s.Get(params); ok {
		t.Fatalf("write to unwritable dir should degrade to miss")
	}
}
