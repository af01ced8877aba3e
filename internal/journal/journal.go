// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bstardust/photo-metadata/internal/logger"
)

// DefaultName is the journal file name used when no path is configured
const DefaultName = ".photo-metadata-journal.json"

// Journal records which sidecars were published so a run can resume
type Journal struct {
	mu           sync.Mutex
	path         string
	entries      map[string]Entry
	lastSaveTime time.Time
	saveInterval time.Duration
	batchCount   int
	batchSize    int
	cancelSave   context.CancelFunc
}

// Entry is one published sidecar
type Entry struct {
	Key       string    `json:"key"`
	Source    string    `json:"source"`
	Published bool      `json:"published"`
	HasGPS    bool      `json:"hasGps"`
	Timestamp time.Time `json:"timestamp"`
}

type document struct {
	Entries map[string]Entry `json:"entries"`
}

// New creates a journal at path, defaulting to the user's home directory
func New(path string) *Journal {
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, DefaultName)
		} else {
			path = DefaultName
		}
	}

	logger.Debug("Using journal at %s", path)

	return &Journal{
		path:         path,
		entries:      make(map[string]Entry),
		saveInterval: 30 * time.Second,
		batchSize:    100,
	}
}

// Path returns the journal file location
func (j *Journal) Path() string {
	return j.path
}

// Load reads the journal from disk. A missing file starts an empty journal.
func (j *Journal) Load() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		logger.Info("No journal file found at %s, starting fresh", j.path)
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Entries != nil {
		j.entries = doc.Entries
	}
	logger.Info("Loaded journal with %d entries from %s", len(j.entries), j.path)
	return nil
}

// StartPeriodicSave flushes the journal every interval until ctx is done or
// StopPeriodicSave is called.
func (j *Journal) StartPeriodicSave(ctx context.Context, interval time.Duration) {
	saveCtx, cancel := context.WithCancel(ctx)
	j.mu.Lock()
	j.cancelSave = cancel
	j.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := j.Flush(); err != nil {
					logger.Error("Failed to perform periodic journal save: %v", err)
				}
			case <-saveCtx.Done():
				logger.Debug("Stopping periodic journal save")
				return
			}
		}
	}()
}

// StopPeriodicSave stops the background saver
func (j *Journal) StopPeriodicSave() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancelSave != nil {
		j.cancelSave()
		j.cancelSave = nil
	}
}

// Save writes the journal unless it was written within the save interval
func (j *Journal) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if time.Since(j.lastSaveTime) < j.saveInterval && len(j.entries) > 0 {
		return nil
	}
	return j.write()
}

// Flush writes the journal unconditionally
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.write()
}

func (j *Journal) write() error {
	j.lastSaveTime = time.Now()

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("Failed to create journal directory: %v", err)
		return err
	}

	data, err := json.MarshalIndent(document{Entries: j.entries}, "", "  ")
	if err != nil {
		return err
	}

	// replace atomically
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		logger.Error("Failed to write journal file: %v", err)
		return err
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return err
	}

	logger.Debug("Saved journal with %d entries to %s", len(j.entries), j.path)
	return nil
}

// MarkPublished records a published sidecar and flushes every batch
func (j *Journal) MarkPublished(key, source string, hasGPS bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[key] = Entry{
		Key:       key,
		Source:    source,
		Published: true,
		HasGPS:    hasGPS,
		Timestamp: time.Now().UTC(),
	}

	j.batchCount++
	if j.batchCount >= j.batchSize {
		j.batchCount = 0
		if err := j.write(); err != nil {
			logger.Error("Failed to save journal batch: %v", err)
		}
	}
}

// IsPublished reports whether key was already published
func (j *Journal) IsPublished(key string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, exists := j.entries[key]
	return exists && entry.Published
}

// Clear drops all entries and writes the empty journal
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = make(map[string]Entry)
	return j.write()
}

// Stats returns the number of entries and how many carry a GPS fix
func (j *Journal) Stats() (total int, withGPS int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	total = len(j.entries)
	for _, entry := range j.entries {
		if entry.HasGPS {
			withGPS++
		}
	}
	return total, withGPS
}

// ListPublished returns the published keys in sorted order
func (j *Journal) ListPublished() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	var keys []string
	for key, entry := range j.entries {
		if entry.Published {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
