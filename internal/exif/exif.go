// internal/exif/exif.go
package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/bstardust/photo-metadata/internal/tags"
	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoExif is returned when the input carries no decodable EXIF block
var ErrNoExif = errors.New("exif: no EXIF data")

// Decode reads the EXIF block from a JPEG or TIFF stream and returns the raw
// tag table. Tags of the Exif sub-IFD are merged into the top level; the GPS
// IFD is nested under tags.GPSInfoID.
func Decode(r io.Reader) (RawTags, error) {
	x, err := goexif.Decode(r)
	if x == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoExif, err)
	}
	if err != nil {
		if goexif.IsCriticalError(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoExif, err)
		}
		logger.Debug("Non-critical EXIF decode error: %v", err)
	}
	if x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return nil, ErrNoExif
	}

	raw := make(RawTags)
	addDir(raw, x.Tiff.Dirs[0], x.Tiff.Order)

	// Exif sub-IFD shares the top-level namespace
	if dir, err := subDir(x, goexif.ExifIFDPointer); err == nil {
		addDir(raw, dir, x.Tiff.Order)
	} else if !goexif.IsTagNotPresentError(err) {
		logger.Debug("Skipping Exif sub-IFD: %v", err)
	}

	if dir, err := subDir(x, goexif.GPSInfoIFDPointer); err == nil {
		gps := make(RawTags, len(dir.Tags))
		addDir(gps, dir, x.Tiff.Order)
		raw[tags.GPSInfoID] = gps
	} else if !goexif.IsTagNotPresentError(err) {
		logger.Debug("Skipping GPS IFD: %v", err)
	}

	return raw, nil
}

// subDir decodes the IFD referenced by a pointer tag
func subDir(x *goexif.Exif, ptr goexif.FieldName) (*tiff.Dir, error) {
	tag, err := x.Get(ptr)
	if err != nil {
		return nil, err
	}

	offset, err := tag.Int64(0)
	if err != nil {
		return nil, fmt.Errorf("invalid %s offset: %w", ptr, err)
	}
	if offset <= 0 || offset >= int64(len(x.Raw)) {
		return nil, fmt.Errorf("%s offset %d out of range", ptr, offset)
	}

	br := bytes.NewReader(x.Raw)
	if _, err := br.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	dir, _, err := tiff.DecodeDir(br, x.Tiff.Order)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s directory: %w", ptr, err)
	}
	return dir, nil
}

func addDir(dst RawTags, dir *tiff.Dir, order binary.ByteOrder) {
	for _, tag := range dir.Tags {
		if v, ok := tagValue(tag, order); ok {
			dst[tag.Id] = v
		}
	}
}

// tagValue converts a TIFF tag into its raw Go value. Single-element numeric
// tags collapse to a scalar. UNICODE text gets a byte order mark for order.
func tagValue(tag *tiff.Tag, order binary.ByteOrder) (any, bool) {
	n := int(tag.Count)

	switch tag.Type {
	case tiff.DTAscii:
		s, err := tag.StringVal()
		if err != nil {
			return nil, false
		}
		return strings.TrimRight(s, "\x00"), true

	case tiff.DTUndefined:
		b := make([]byte, len(tag.Val))
		copy(b, tag.Val)
		return markOrder(b, order), true

	case tiff.DTByte, tiff.DTSByte, tiff.DTShort, tiff.DTSShort, tiff.DTLong, tiff.DTSLong:
		vals := make([]int64, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Int64(i)
			if err != nil {
				return nil, false
			}
			vals = append(vals, v)
		}
		if len(vals) == 1 {
			return vals[0], true
		}
		return vals, true

	case tiff.DTRational, tiff.DTSRational:
		// Rat2 rather than Rat: Rat panics on a zero denominator
		vals := make([]Rational, 0, n)
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return nil, false
			}
			vals = append(vals, Rational{Num: num, Den: den})
		}
		if len(vals) == 1 {
			return vals[0], true
		}
		return vals, true

	case tiff.DTFloat, tiff.DTDouble:
		vals := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Float(i)
			if err != nil {
				return nil, false
			}
			vals = append(vals, v)
		}
		if len(vals) == 1 {
			return vals[0], true
		}
		return vals, true
	}

	return nil, false
}
