package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/elunara/ondara/pkg/llm"
)

// GeneratorConfig controls the scripted test generator.
type GeneratorConfig struct {
	// Responses are returned in order; after they run out a numbered
	// filler line is produced so unbounded loops keep moving.
	Responses []string
	// EmptyAfter makes every call past N return empty text.
	EmptyAfter int
	// AlwaysEmpty makes every call return empty text.
	AlwaysEmpty bool
	// Unavailable makes the availability probe report false.
	Unavailable bool
}

// Generator is a scripted llm.Generator for tests.
type Generator struct {
	cfg GeneratorConfig

	mu    sync.Mutex
	calls int
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	return &Generator{cfg: cfg}
}

func (g *Generator) Name() string { return "mock" }

func (g *Generator) Available(context.Context) bool { return !g.cfg.Unavailable }

func (g *Generator) Generate(_ context.Context, prompt string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.cfg.AlwaysEmpty {
		return ""
	}
	if g.cfg.EmptyAfter > 0 && g.calls > g.cfg.EmptyAfter {
		return ""
	}
	if g.calls <= len(g.cfg.Responses) {
		return g.cfg.Responses[g.calls-1]
	}
	return fmt.Sprintf("Locución de prueba número %d, seguimos en el aire con más contenido.", g.calls)
}

// Calls reports how many generations were requested.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var _ llm.Generator = (*Generator)(nil)
