package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCleanOutput(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"strips role prefix", "Locutora: Bienvenidos a la emisión de hoy.", "Bienvenidos a la emisión de hoy."},
		{"collapses blank runs", "Hola a todos.\n\n\n\nSeguimos con más.", "Hola a todos.\n\nSeguimos con más."},
		{"too short becomes apology", "ok", Apology},
		{"empty becomes apology", "   ", Apology},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanOutput(tc.in); got != tc.want {
				t.Fatalf("CleanOutput(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestOllamaGenerateTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"response": "Buenas noches, esto es radio en directo desde el estudio."}`))
	}))
	defer srv.Close()

	g := NewOllamaGenerator(OllamaConfig{BaseURL: srv.URL}, nil)
	got := g.Generate(context.Background(), "habla")
	if !strings.Contains(got, "radio en directo") {
		t.Fatalf("got %q", got)
	}
}

func TestOllamaFailureReturnsApology(t *testing.T) {
	g := NewOllamaGenerator(OllamaConfig{BaseURL: "http://127.0.0.1:1", TimeoutSecs: 1}, nil)
	if got := g.Generate(context.Background(), "habla"); got != Apology {
		t.Fatalf("got %q, want apology", got)
	}
}

func TestOllamaAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	g := NewOllamaGenerator(OllamaConfig{BaseURL: srv.URL}, nil)
	if !g.Available(context.Background()) {
		t.Fatalf("expected available")
	}
	down := NewOllamaGenerator(OllamaConfig{BaseURL: "http://127.0.0.1:1"}, nil)
	if down.Available(context.Background()) {
		t.Fatalf("expected unavailable")
	}
}
