package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SegmentRecord is one played segment in a session log.
type SegmentRecord struct {
	Number    int       `json:"number"`
	Topic     string    `json:"topic,omitempty"`
	Text      string    `json:"text"`
	Voice     string    `json:"voice,omitempty"`
	Duration  float64   `json:"duration"`
	Provider  string    `json:"tts_provider,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the persisted transcript of one session.
type Record struct {
	SessionID     string          `json:"session_id"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       *time.Time      `json:"end_time,omitempty"`
	Intro         *SegmentRecord  `json:"intro,omitempty"`
	Segments      []SegmentRecord `json:"segments"`
	TotalDuration float64         `json:"total_duration"`
	TotalSegments int             `json:"total_segments"`
}

// History writes one JSON file per session. Append operations never
// fail the broadcast: IO errors are logged and the segment simply goes
// unrecorded.
type History struct {
	dir    string
	logger *slog.Logger

	current *Record
}

func NewHistory(dir string, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("history dir unavailable", slog.String("dir", dir), slog.String("error", err.Error()))
	}
	return &History{dir: dir, logger: logger}
}

// Start opens the log for sessionID. If a log already exists (a
// continued session) it is reloaded so new segments append to it.
func (h *History) Start(sessionID string) {
	if rec, err := h.Get(sessionID); err == nil {
		rec.EndTime = nil
		h.current = rec
		return
	}
	h.current = &Record{
		SessionID: sessionID,
		StartTime: time.Now(),
		Segments:  []SegmentRecord{},
	}
	h.persist()
}

// AddIntro records the opening segment.
func (h *History) AddIntro(rec SegmentRecord) {
	if h.current == nil {
		return
	}
	rec.Timestamp = time.Now()
	h.current.Intro = &rec
	h.persist()
}

// AddSegment appends a played segment.
func (h *History) AddSegment(rec SegmentRecord) {
	if h.current == nil {
		return
	}
	rec.Number = len(h.current.Segments) + 1
	rec.Timestamp = time.Now()
	h.current.Segments = append(h.current.Segments, rec)
	h.persist()
}

// End closes the log, fixing the totals.
func (h *History) End() {
	if h.current == nil {
		return
	}
	now := time.Now()
	h.current.EndTime = &now
	h.current.TotalSegments = len(h.current.Segments)
	total := 0.0
	if h.current.Intro != nil {
		total += h.current.Intro.Duration
	}
	for _, s := range h.current.Segments {
		total += s.Duration
	}
	h.current.TotalDuration = total
	h.persist()
	h.current = nil
}

// Get loads a session log by ID.
func (h *History) Get(sessionID string) (*Record, error) {
	data, err := os.ReadFile(h.path(sessionID))
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// List returns the newest session IDs, most recent first.
func (h *History) List(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := h.allIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// DeleteOld removes all but the newest keepLast session logs.
func (h *History) DeleteOld(keepLast int) int {
	if keepLast <= 0 {
		keepLast = 20
	}
	ids, err := h.allIDs()
	if err != nil || len(ids) <= keepLast {
		return 0
	}
	removed := 0
	for _, id := range ids[keepLast:] {
		if err := os.Remove(h.path(id)); err == nil {
			removed++
		}
	}
	if removed > 0 {
		h.logger.Info("old sessions deleted", slog.Int("removed", removed))
	}
	return removed
}

// RenderText formats a session as a readable transcript.
func (h *History) RenderText(sessionID string) (string, error) {
	rec, err := h.Get(sessionID)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sesión %s - %s\n", rec.SessionID, rec.StartTime.Format("2006-01-02 15:04"))
	if rec.Intro != nil {
		fmt.Fprintf(&sb, "\n[Intro]\n%s\n", rec.Intro.Text)
	}
	for _, s := range rec.Segments {
		fmt.Fprintf(&sb, "\n[Segmento %d", s.Number)
		if s.Topic != "" {
			fmt.Fprintf(&sb, " - %s", s.Topic)
		}
		fmt.Fprintf(&sb, "]\n%s\n", s.Text)
	}
	if rec.EndTime != nil {
		fmt.Fprintf(&sb, "\nDuración total: %.0f s en %d segmentos\n", rec.TotalDuration, rec.TotalSegments)
	}
	return sb.String(), nil
}

func (h *History) path(sessionID string) string {
	return filepath.Join(h.dir, "session_"+sessionID+".json")
}

func (h *History) allIDs() ([]string, error) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return nil, fmt.Errorf("read history dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "session_") && strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, "session_"), ".json"))
		}
	}
	// IDs are timestamps, so lexical order is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

func (h *History) persist() {
	data, err := json.MarshalIndent(h.current, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(h.path(h.current.SessionID), data, 0o644); err != nil {
		h.logger.Warn("session save failed",
			slog.String("session_id", h.current.SessionID),
			slog.String("error", err.Error()))
	}
}
