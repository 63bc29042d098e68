package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/elunara/ondara/pkg/redact"
)

const indexFile = "cache_index.json"

// Entry is the index record kept beside each compressed audio blob.
type Entry struct {
	TextPreview  string    `json:"text_preview"`
	Provider     string    `json:"provider"`
	Voice        string    `json:"voice"`
	SizeBytes    int64     `json:"size_bytes"`
	RawBytes     int64     `json:"raw_bytes"`
	Timestamp    time.Time `json:"timestamp"`
	Hits         int       `json:"hits"`
	LastAccessed time.Time `json:"last_accessed"`
	Params       KeyParams `json:"params"`
}

// Stats is a point-in-time view of the cache, computed from the index
// without touching the blobs.
type Stats struct {
	Entries        int            `json:"entries"`
	SizeBytes      int64          `json:"size_bytes"`
	TotalHits      int            `json:"total_hits"`
	HitRatePercent float64        `json:"hit_rate_percent"`
	ByProvider     map[string]int `json:"by_provider"`
}

// Store is a content-addressed cache of synthesized audio. Payloads are
// gzip-compressed files named by key hash; a JSON index carries the
// metadata. Read and write failures degrade to misses and no-ops.
type Store struct {
	dir    string
	maxAge time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	index  map[string]*Entry
	hits   int
	misses int

	now func() time.Time
}

func NewStore(dir string, maxAge time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		dir:    dir,
		maxAge: maxAge,
		logger: logger,
		index:  make(map[string]*Entry),
		now:    time.Now,
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("cache dir unavailable, running without persistence",
			slog.String("dir", dir), slog.String("error", err.Error()))
		return s
	}
	s.loadIndex()
	return s
}

// Get returns cached audio for params, or (nil, false) on miss. Entries
// older than the configured max age are removed on access.
func (s *Store) Get(params KeyParams) ([]byte, bool) {
	key := params.Hash()
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index[key]
	if !ok {
		s.misses++
		return nil, false
	}
	if s.maxAge > 0 && s.now().Sub(entry.Timestamp) > s.maxAge {
		s.deleteLocked(key)
		s.misses++
		s.logger.Debug("cache entry expired", slog.String("key", key))
		return nil, false
	}

	raw, err := s.readBlob(key)
	if err != nil {
		// Blob lost or corrupt: drop the index entry and treat as miss.
		s.deleteLocked(key)
		s.misses++
		s.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}

	entry.Hits++
	entry.LastAccessed = s.now()
	s.hits++
	s.saveIndexLocked()
	return raw, true
}

// Put stores audio under params. Failures are logged and swallowed.
func (s *Store) Put(params KeyParams, audio []byte) {
	if len(audio) == 0 {
		return
	}
	key := params.Hash()
	s.mu.Lock()
	defer s.mu.Unlock()

	compressed, err := s.writeBlob(key, audio)
	if err != nil {
		s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	// Reader texts can carry personal details; the index lives on disk.
	preview := redact.Preview(params.Text, 100)
	now := s.now()
	s.index[key] = &Entry{
		TextPreview:  preview,
		Provider:     params.Provider,
		Voice:        params.Voice,
		SizeBytes:    compressed,
		RawBytes:     int64(len(audio)),
		Timestamp:    now,
		LastAccessed: now,
		Params:       params,
	}
	s.saveIndexLocked()
}

// Sweep removes every expired entry and returns how many were dropped.
func (s *Store) Sweep() int {
	if s.maxAge <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	cutoff := s.now().Add(-s.maxAge)
	for key, entry := range s.index {
		if entry.Timestamp.Before(cutoff) {
			s.deleteLocked(key)
			removed++
		}
	}
	if removed > 0 {
		s.saveIndexLocked()
		s.logger.Info("cache sweep", slog.Int("removed", removed))
	}
	return removed
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{ByProvider: make(map[string]int)}
	for _, entry := range s.index {
		st.Entries++
		st.SizeBytes += entry.SizeBytes
		st.TotalHits += entry.Hits
		st.ByProvider[entry.Provider]++
	}
	if total := s.hits + s.misses; total > 0 {
		st.HitRatePercent = 100 * float64(s.hits) / float64(total)
	}
	return st
}

func (s *Store) blobPath(key string) string {
	return filepath.Join(s.dir, key+".raw.gz")
}

func (s *Store) readBlob(key string) ([]byte, error) {
	f, err := os.Open(s.blobPath(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func (s *Store) writeBlob(key string, audio []byte) (int64, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, 6)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(audio); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	if err := os.WriteFile(s.blobPath(key), buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

func (s *Store) deleteLocked(key string) {
	delete(s.index, key)
	if err := os.Remove(s.blobPath(key)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("cache blob remove failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (s *Store) loadIndex() {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache index unreadable, starting empty", slog.String("error", err.Error()))
		}
		return
	}
	index := make(map[string]*Entry)
	if err := json.Unmarshal(data, &index); err != nil {
		s.logger.Warn("cache index corrupt, starting empty", slog.String("error", err.Error()))
		return
	}
	// Reconcile: entries whose blob vanished are dropped up front.
	for key := range index {
		if _, err := os.Stat(s.blobPath(key)); err != nil {
			delete(index, key)
		}
	}
	s.index = index
}

func (s *Store) saveIndexLocked() {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, indexFile), data, 0o644); err != nil {
		s.logger.Warn("cache index save failed", slog.String("error", err.Error()))
	}
}
