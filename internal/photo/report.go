package photo

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bstardust/photo-metadata/internal/fileinfo"
	"github.com/bstardust/photo-metadata/internal/gps"
	"github.com/bstardust/photo-metadata/internal/metadata"
	"github.com/google/uuid"
)

// Report is everything extracted from one image
type Report struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Size        int64             `json:"size"`
	ContentType string            `json:"contentType"`
	Format      string            `json:"format,omitempty"`
	Width       int               `json:"width,omitempty"`
	Height      int               `json:"height,omitempty"`
	Metadata    metadata.Metadata `json:"metadata"`
	GPS         *gps.Fix          `json:"gps,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// Inspect runs the full pipeline over one image: container header, raw EXIF
// tags, name resolution and GPS resolution. It never fails; every problem
// degrades to less information plus a warning.
func Inspect(name string, r io.ReadSeeker, size int64) *Report {
	rep := &Report{
		ID:          uuid.NewString(),
		Name:        name,
		Size:        size,
		ContentType: fileinfo.DetectContentType(name),
		Metadata:    metadata.Metadata{},
	}

	img, err := Open(r)
	if err != nil {
		rep.Warnings = append(rep.Warnings, err.Error())
		return rep
	}
	rep.Format = img.Format
	rep.Width = img.Width
	rep.Height = img.Height

	raw, ok := img.RawTags()
	if !ok {
		return rep
	}

	res := metadata.Extract(raw)
	rep.Metadata = res.Metadata
	for _, w := range res.Warnings {
		rep.Warnings = append(rep.Warnings, w.Error())
	}

	if fix, ok := gps.Resolve(res.Metadata); ok {
		rep.GPS = &fix
	}
	return rep
}

// HasExif reports whether any EXIF tags were found
func (r *Report) HasExif() bool {
	return len(r.Metadata) > 0
}

// Dimensions renders the size as "W x H"
func (r *Report) Dimensions() string {
	if r.Width == 0 && r.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%d x %d", r.Width, r.Height)
}

// ToMap converts the report to a map for S3 object metadata
func (r *Report) ToMap() map[string]string {
	result := make(map[string]string)

	result["original-filename"] = headerSafe(filepath.Base(r.Name))
	if r.Format != "" {
		result["image-format"] = r.Format
	}
	if dims := r.Dimensions(); dims != "" {
		result["image-dimensions"] = dims
	}
	if v, ok := r.Metadata.Text("DateTimeOriginal"); ok && v != "" {
		result["date-time-original"] = headerSafe(v)
	}
	if v, ok := r.Metadata.Text("DateTime"); ok && v != "" {
		result["date-time"] = headerSafe(v)
	}
	if v, ok := r.Metadata.Text("Make"); ok && v != "" {
		result["camera-make"] = headerSafe(v)
	}
	if v, ok := r.Metadata.Text("Model"); ok && v != "" {
		result["camera-model"] = headerSafe(v)
	}
	if r.GPS != nil {
		result["gps-latitude"] = fmt.Sprintf("%f", r.GPS.Latitude)
		result["gps-longitude"] = fmt.Sprintf("%f", r.GPS.Longitude)
		if r.GPS.Altitude != nil {
			result["gps-altitude"] = fmt.Sprintf("%f", *r.GPS.Altitude)
		}
	}
	if len(r.Warnings) > 0 {
		result["warnings"] = fmt.Sprintf("%d", len(r.Warnings))
	}

	return result
}

// headerSafe keeps printable ASCII so the value can travel as an HTTP header
func headerSafe(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, s))
}
