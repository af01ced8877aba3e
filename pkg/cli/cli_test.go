package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bstardust/photo-metadata/internal/exif/exiftest"
	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writePhotos(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gps.jpg"), exiftest.JPEG(4, 4, exiftest.TIFF(
		[]exiftest.Entry{
			exiftest.ASCII(0x010F, "TestCam"),
			exiftest.ASCII(0x0132, "2024:01:01 12:00:00"),
		},
		exiftest.GPS("S", 10, 30, "W", 20, 15),
	)), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.png"), exiftest.PNG(2, 2, nil), 0644))
	return dir
}

// chdir keeps stray .env and config files out of the run
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	defer logger.SetOutput(os.Stderr)

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInspectCommand(t *testing.T) {
	dir := writePhotos(t)

	out, err := run(t, "inspect", filepath.Join(dir, "gps.jpg"), filepath.Join(dir, "plain.png"))
	require.NoError(t, err)

	assert.Contains(t, out, "Make: TestCam")
	assert.Contains(t, out, "  GPSInfo:\n    GPSLatitude: (10/1, 30/1, 0/1)\n")
	assert.Contains(t, out, "Location: -10.500000, -20.250000")
	assert.Contains(t, out, "openstreetmap.org")
	assert.Contains(t, out, "no EXIF metadata")
}

func TestInspectCommand_JSON(t *testing.T) {
	dir := writePhotos(t)

	out, err := run(t, "inspect", "--json", filepath.Join(dir, "gps.jpg"))
	require.NoError(t, err)

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	fix := rep["gps"].(map[string]any)
	assert.InDelta(t, -10.5, fix["latitude"], 1e-9)
}

func TestInspectCommand_MissingFile(t *testing.T) {
	_, err := run(t, "inspect", filepath.Join(t.TempDir(), "nope.jpg"))
	assert.ErrorContains(t, err, "Inspect Error: open")
}

func TestScanCommand(t *testing.T) {
	dir := writePhotos(t)

	out, err := run(t, "scan", "--workers", "2", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "gps.jpg")
	assert.Contains(t, out, "-10.500000, -20.250000")
	assert.Contains(t, out, "2 images, 1 with GPS, 0 errors")

	out, err = run(t, "scan", "--json", dir)
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Base(dir)+"/gps.jpg", entries[0]["key"])
}

func TestScanCommand_InvalidWorkers(t *testing.T) {
	_, err := run(t, "scan", "--workers", "0", t.TempDir())
	assert.ErrorContains(t, err, "workers")
}

func TestPublishCommand_RequiresS3(t *testing.T) {
	_, err := run(t, "publish", "--dry-run", writePhotos(t))
	assert.ErrorContains(t, err, "S3 endpoint is required")
}

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListObjects(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]minio.ObjectInfo), args.Error(1)
}

func (m *mockLister) GetBucketName() string { return "photos" }

func TestListSidecars(t *testing.T) {
	client := new(mockLister)
	client.On("ListObjects", mock.Anything, "trip").Return([]minio.ObjectInfo{
		{Key: "trip/a.jpg.exif.json", Size: 2048, LastModified: time.Now()},
		{Key: "trip/a.jpg", Size: 1 << 20, LastModified: time.Now()},
		{Key: "trip/b.jpg.exif.json", Size: 1024, LastModified: time.Now()},
	}, nil)

	var out bytes.Buffer
	require.NoError(t, listSidecars(context.Background(), &out, client, "trip"))
	assert.Contains(t, out.String(), "trip/a.jpg.exif.json")
	assert.NotContains(t, out.String(), "1.0 MB")
	assert.Contains(t, out.String(), "2 sidecars (3.1 kB) in s3://photos")
}
