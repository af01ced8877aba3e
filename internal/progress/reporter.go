// internal/progress/reporter.go
package progress

import (
	"sync"
	"time"

	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/dustin/go-humanize"
)

// Summary is a snapshot of the counters
type Summary struct {
	Total     int
	Completed int
	WithGPS   int
	Skipped   int
	Errors    int
	Bytes     uint64
	Elapsed   time.Duration
}

// Processed counts every file that reached a terminal state
func (s Summary) Processed() int {
	return s.Completed + s.Skipped + s.Errors
}

// Reporter tracks progress over a batch of files
type Reporter struct {
	mu             sync.Mutex
	label          string
	total          int
	completed      int
	withGPS        int
	skipped        int
	errors         int
	bytes          uint64
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
	now            func() time.Time
}

// New creates a progress reporter. label names the work in log lines, e.g.
// "inspection" or "publish".
func New(label string) *Reporter {
	return &Reporter{
		label:          label,
		updateInterval: 2 * time.Second,
		now:            time.Now,
	}
}

// Start resets the counters for a batch of total files
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.completed = 0
	r.withGPS = 0
	r.skipped = 0
	r.errors = 0
	r.bytes = 0
	r.startTime = r.now()
	r.lastUpdateTime = r.startTime

	logger.Info("Starting %s of %d files", r.label, total)
}

// Complete records a processed file of size bytes
func (r *Reporter) Complete(path string, size int64, hasGPS bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	if hasGPS {
		r.withGPS++
	}
	if size > 0 {
		r.bytes += uint64(size)
	}
	logger.Debug("Processed %s (%s)", path, humanize.Bytes(uint64(max(size, 0))))
	r.updateProgress()
}

// Skip marks a file as skipped
func (r *Reporter) Skip(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.skipped++
	logger.Debug("Skipped %s", path)
	r.updateProgress()
}

// Error marks a file as failed
func (r *Reporter) Error(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors++
	logger.Warn("Failed %s: %v", path, err)
	r.updateProgress()
}

// Summary returns the current counters
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary()
}

func (r *Reporter) summary() Summary {
	return Summary{
		Total:     r.total,
		Completed: r.completed,
		WithGPS:   r.withGPS,
		Skipped:   r.skipped,
		Errors:    r.errors,
		Bytes:     r.bytes,
		Elapsed:   r.now().Sub(r.startTime),
	}
}

// Finish logs the final tally and returns it
func (r *Reporter) Finish() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.summary()
	logger.Info("Finished %s: %s/%s files, %s with GPS, %d skipped, %d errors, %s read in %s",
		r.label, humanize.Comma(int64(s.Completed)), humanize.Comma(int64(s.Total)),
		humanize.Comma(int64(s.WithGPS)), s.Skipped, s.Errors,
		humanize.Bytes(s.Bytes), s.Elapsed.Round(time.Millisecond))
	return s
}

// updateProgress logs at most once per update interval
func (r *Reporter) updateProgress() {
	now := r.now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	duration := now.Sub(r.startTime)
	processed := r.completed + r.skipped + r.errors

	if processed == 0 || r.total == 0 {
		return
	}

	percentage := float64(processed) / float64(r.total) * 100

	eta := "unknown"
	if r.completed > 0 {
		timePerFile := duration / time.Duration(processed)
		remaining := timePerFile * time.Duration(r.total-processed)
		eta = humanize.RelTime(now, now.Add(remaining), "ago", "from now")
	}

	logger.Info("Progress: %.1f%% (%d/%d, %d with GPS, %d skipped, %d errors, %s) ETA: %s",
		percentage, processed, r.total, r.withGPS, r.skipped, r.errors, humanize.Bytes(r.bytes), eta)
}
