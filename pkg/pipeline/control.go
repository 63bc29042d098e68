package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
)

// Controls is the pause/stop handle shared between the loop and
// whatever drives it (signal handler, API). Stop cancels the run
// context, which also reaches any in-flight background generation.
type Controls struct {
	paused atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// bind derives the run context this Controls will cancel on Stop.
func (c *Controls) bind(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return ctx
}

func (c *Controls) release() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// Stop ends the run. Safe to call at any time, from any goroutine.
func (c *Controls) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Pause holds the loop before the next segment; playback of the current
// one continues.
func (c *Controls) Pause() { c.paused.Store(true) }

// Resume lifts a pause.
func (c *Controls) Resume() { c.paused.Store(false) }

func (c *Controls) Paused() bool { return c.paused.Load() }
