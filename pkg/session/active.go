package session

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const activeFile = "active_session.json"

// idFormat makes session IDs sortable timestamps.
const idFormat = "20060102_150405"

type activeState struct {
	SessionID     string    `json:"session_id"`
	Created       time.Time `json:"created"`
	LastUsed      time.Time `json:"last_used"`
	RecentContent []string  `json:"recent_content"`
	TotalSegments int       `json:"total_segments"`
}

// ActiveStore persists which broadcast session is current, so a restart
// within the timeout window continues the show instead of opening a new
// one. All storage failures degrade to "start fresh".
type ActiveStore struct {
	path       string
	timeout    time.Duration
	maxHistory int
	logger     *slog.Logger
	now        func() time.Time
}

func NewActiveStore(dir string, timeout time.Duration, maxHistory int, logger *slog.Logger) *ActiveStore {
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	if maxHistory <= 0 {
		maxHistory = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("session dir unavailable", slog.String("dir", dir), slog.String("error", err.Error()))
	}
	return &ActiveStore{
		path:       filepath.Join(dir, activeFile),
		timeout:    timeout,
		maxHistory: maxHistory,
		logger:     logger,
		now:        time.Now,
	}
}

// GetOrCreate returns the session to broadcast under. When the stored
// session is younger than the timeout (and forceNew is false) it is
// continued: last_used is refreshed and its recent content returned for
// anti-repetition. Otherwise a fresh session starts.
func (a *ActiveStore) GetOrCreate(forceNew bool) (id string, continuing bool, recent []string) {
	if !forceNew {
		if state, ok := a.load(); ok {
			if a.now().Sub(state.LastUsed) < a.timeout {
				state.LastUsed = a.now()
				a.save(state)
				a.logger.Info("continuing session",
					slog.String("session_id", state.SessionID),
					slog.Int("recent_items", len(state.RecentContent)))
				return state.SessionID, true, state.RecentContent
			}
			a.logger.Info("previous session timed out", slog.String("session_id", state.SessionID))
		}
	}

	now := a.now()
	state := activeState{
		SessionID: now.Format(idFormat),
		Created:   now,
		LastUsed:  now,
	}
	a.save(state)
	return state.SessionID, false, nil
}

// AddContent records a played segment's text under the session's recent
// history, trimming to the configured window. A mismatched session ID
// means another process rotated the session; the write is skipped.
func (a *ActiveStore) AddContent(sessionID, text string) {
	state, ok := a.load()
	if !ok {
		return
	}
	if state.SessionID != sessionID {
		a.logger.Warn("active session changed, content not recorded",
			slog.String("want", sessionID), slog.String("have", state.SessionID))
		return
	}
	state.RecentContent = append(state.RecentContent, text)
	if len(state.RecentContent) > a.maxHistory {
		state.RecentContent = state.RecentContent[len(state.RecentContent)-a.maxHistory:]
	}
	state.TotalSegments++
	state.LastUsed = a.now()
	a.save(state)
}

// Recent returns the stored recent content for sessionID, if current.
func (a *ActiveStore) Recent(sessionID string) []string {
	state, ok := a.load()
	if !ok || state.SessionID != sessionID {
		return nil
	}
	return state.RecentContent
}

// Clear forgets the active session.
func (a *ActiveStore) Clear() {
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("active session remove failed", slog.String("error", err.Error()))
	}
}

func (a *ActiveStore) load() (activeState, bool) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warn("active session unreadable", slog.String("error", err.Error()))
		}
		return activeState{}, false
	}
	var state activeState
	if err := json.Unmarshal(data, &state); err != nil {
		a.logger.Warn("active session corrupt", slog.String("error", err.Error()))
		return activeState{}, false
	}
	return state, true
}

func (a *ActiveStore) save(state activeState) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(a.path, data, 0o644); err != nil {
		a.logger.Warn("active session save failed", slog.String("error", err.Error()))
	}
}
