package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bstardust/photo-metadata/internal/config"
	"github.com/bstardust/photo-metadata/internal/exif/exiftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return New(config.New().Server)
}

func upload(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/metadata", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetadata(t *testing.T) {
	img := exiftest.JPEG(8, 6, exiftest.TIFF(
		[]exiftest.Entry{
			exiftest.ASCII(0x010F, "TestCam"),
			exiftest.ASCII(0x0132, "2024:01:01 12:00:00"),
		},
		exiftest.GPS("N", 10, 0, "E", 20, 0),
	))

	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, upload(t, "file", "IMG_0001.jpg", img))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	out := decode(t, rec)
	assert.Equal(t, "IMG_0001.jpg", out["name"])
	assert.Equal(t, float64(8), out["width"])

	md := out["metadata"].(map[string]any)
	assert.Equal(t, "2024:01:01 12:00:00", md["DateTime"])
	assert.Contains(t, md, "GPSInfo")

	fix := out["gps"].(map[string]any)
	assert.InDelta(t, 10.0, fix["latitude"], 1e-9)
	assert.InDelta(t, 20.0, fix["longitude"], 1e-9)
}

func TestMetadata_NoExif(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, upload(t, "file", "plain.png", exiftest.PNG(2, 2, nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Empty(t, out["metadata"])
	assert.NotContains(t, out, "gps")
}

func TestMetadata_MissingField(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, upload(t, "image", "a.jpg", []byte("x")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "missing form field")
}

func TestMetadata_TooLarge(t *testing.T) {
	cfg := config.New().Server
	cfg.MaxUploadSize = 512
	s := New(cfg)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, upload(t, "file", "big.jpg", make([]byte, 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetadata_WrongMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metadata", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"latitude": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "failed to encode response", decode(t, rec)["error"])
}

func TestTag(t *testing.T) {
	tests := []struct {
		path   string
		status int
		name   string
		known  bool
	}{
		{"/api/v1/tags/exif/306", http.StatusOK, "DateTime", true},
		{"/api/v1/tags/gps/2", http.StatusOK, "GPSLatitude", true},
		{"/api/v1/tags/exif/30583", http.StatusOK, "30583", false},
		{"/api/v1/tags/exif/70000", http.StatusBadRequest, "", false},
		{"/api/v1/tags/iptc/1", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}
			out := decode(t, rec)
			assert.Equal(t, tt.name, out["name"])
			assert.Equal(t, tt.known, out["known"])
		})
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := config.New().Server
	cfg.Addr = addr
	s := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
