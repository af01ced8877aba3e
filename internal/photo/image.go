package photo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/bstardust/photo-metadata/internal/exif"
	"github.com/bstardust/photo-metadata/internal/logger"
)

// ErrUnsupportedFormat is returned when the image container is not recognised
var ErrUnsupportedFormat = errors.New("unsupported image format")

// maxPNGChunk bounds the eXIf chunk read from a PNG
const maxPNGChunk = 16 << 20

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Image is a decoded image handle: dimensions, container format and access
// to the embedded EXIF block.
type Image struct {
	Width  int
	Height int
	Format string

	r io.ReadSeeker
}

// Open reads the image header from r. The reader must stay open for RawTags.
func Open(r io.ReadSeeker) (*Image, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return &Image{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		r:      r,
	}, nil
}

// RawTags returns the raw EXIF tag table. ok is false when the image has no
// EXIF block or the block cannot be decoded.
func (img *Image) RawTags() (exif.RawTags, bool) {
	if _, err := img.r.Seek(0, io.SeekStart); err != nil {
		logger.Debug("Failed to rewind image: %v", err)
		return nil, false
	}

	var src io.Reader = img.r
	if img.Format == "png" {
		chunk, err := pngExifChunk(img.r)
		if err != nil {
			logger.Debug("No eXIf chunk: %v", err)
			return nil, false
		}
		src = bytes.NewReader(chunk)
	}

	raw, err := exif.Decode(src)
	if err != nil {
		logger.Debug("No EXIF block in %s image: %v", img.Format, err)
		return nil, false
	}
	return raw, true
}

// pngExifChunk returns the payload of the PNG eXIf chunk, which holds a bare
// TIFF structure.
func pngExifChunk(r io.Reader) ([]byte, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil || !bytes.Equal(sig, pngSignature) {
		return nil, errors.New("not a PNG stream")
	}

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, err
		}
		length := binary.BigEndian.Uint32(hdr[:4])
		typ := string(hdr[4:8])

		switch typ {
		case "eXIf":
			if length > maxPNGChunk {
				return nil, fmt.Errorf("eXIf chunk too large: %d bytes", length)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, err
			}
			return data, nil
		case "IDAT", "IEND":
			// eXIf must precede the image data
			return nil, exif.ErrNoExif
		}

		// skip data and CRC
		if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
			return nil, err
		}
	}
}
