package progress

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestReporter_Counts(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.Init()

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := New("inspection")
	r.now = func() time.Time { return clock }

	r.Start(4)
	r.Complete("a.jpg", 2048, true)
	r.Complete("b.jpg", 1024, false)
	r.Skip("c.txt")
	clock = clock.Add(3 * time.Second)
	r.Error("d.jpg", errors.New("boom"))

	s := r.Finish()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 1, s.WithGPS)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 4, s.Processed())
	assert.Equal(t, uint64(3072), s.Bytes)
	assert.Equal(t, 3*time.Second, s.Elapsed)

	out := buf.String()
	assert.Contains(t, out, "Starting inspection of 4 files")
	assert.Contains(t, out, "Progress: 100.0%")
	assert.Contains(t, out, "Finished inspection")
	assert.Contains(t, out, "3.1 kB")
}
