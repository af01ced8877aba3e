package scanner

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bstardust/photo-metadata/internal/exif/exiftest"
	"github.com/bstardust/photo-metadata/internal/fshelper"
	"github.com/bstardust/photo-metadata/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gpsJPEG() []byte {
	return exiftest.JPEG(4, 4, exiftest.TIFF(
		[]exiftest.Entry{exiftest.ASCII(0x010F, "TestCam")},
		exiftest.GPS("S", 33, 52, "E", 151, 12),
	))
}

func setup(t *testing.T) []fshelper.NameFS {
	t.Helper()
	dir := t.TempDir()

	photos := filepath.Join(dir, "photos")
	require.NoError(t, os.MkdirAll(filepath.Join(photos, "trip"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "trip", "gps.jpg"), gpsJPEG(), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "plain.png"), exiftest.PNG(2, 2, nil), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "broken.jpg"), []byte("not a jpeg"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "anim.gif"), []byte("GIF89a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "gps.jpg.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "notes.txt"), []byte("hi"), 0644))

	zf, err := os.Create(filepath.Join(dir, "takeout.zip"))
	require.NoError(t, err)
	zw := zip.NewWriter(zf)
	w, err := zw.Create("Photos/zipped.jpg")
	require.NoError(t, err)
	_, err = w.Write(gpsJPEG())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	sources, err := fshelper.ParsePath([]string{photos, filepath.Join(dir, "takeout.zip")})
	require.NoError(t, err)
	t.Cleanup(func() { fshelper.Close(sources) })
	return sources
}

func TestScanner_List(t *testing.T) {
	sources := setup(t)
	s := New(Options{})

	files, err := s.List(context.Background(), sources[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"broken.jpg", "plain.png", "trip/gps.jpg"}, files)

	s = New(Options{AllImages: true})
	files, err = s.List(context.Background(), sources[0])
	require.NoError(t, err)
	assert.Contains(t, files, "anim.gif")
}

func TestScanner_Scan(t *testing.T) {
	sources := setup(t)
	s := New(Options{Workers: 2, Reporter: progress.New("test")})

	items, err := s.Scan(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, items, 4)

	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key()
	}
	assert.Equal(t, []string{
		"photos/broken.jpg",
		"photos/plain.png",
		"photos/trip/gps.jpg",
		"takeout.zip/Photos/zipped.jpg",
	}, keys)

	broken := items[0]
	require.NoError(t, broken.Err)
	assert.NotEmpty(t, broken.Report.Warnings)
	assert.False(t, broken.Report.HasExif())

	assert.Nil(t, items[1].Report.GPS)

	for _, it := range items[2:] {
		require.NotNil(t, it.Report.GPS, it.Key())
		assert.InDelta(t, -(33 + 52.0/60), it.Report.GPS.Latitude, 1e-9)
		assert.InDelta(t, 151+12.0/60, it.Report.GPS.Longitude, 1e-9)
	}

	sum := s.Summary()
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 4, sum.Completed)
	assert.Equal(t, 2, sum.WithGPS)
}

func TestScanner_MaxFileSize(t *testing.T) {
	sources := setup(t)
	s := New(Options{MaxFileSize: 16})

	items, err := s.Scan(context.Background(), sources[1:])
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.ErrorIs(t, items[0].Err, fshelper.ErrTooLarge)
	assert.Equal(t, 1, s.Summary().Errors)
}

func TestScanner_Cancelled(t *testing.T) {
	sources := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Scan(ctx, sources)
	assert.ErrorIs(t, err, context.Canceled)
}
