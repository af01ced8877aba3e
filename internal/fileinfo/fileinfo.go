package fileinfo

import (
	"mime"
	"path/filepath"
	"strings"
)

// Common MIME types for image and sidecar extensions
var commonMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".bmp":  "image/bmp",
	".heic": "image/heic",
	".heif": "image/heif",
	".json": "application/json",
}

// DetectContentType determines the content type of a file based on its extension
func DetectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	// Check our common types first
	if mimeType, ok := commonMimeTypes[ext]; ok {
		return mimeType
	}

	// Fall back to the standard library
	mimeType := mime.TypeByExtension(ext)
	if mimeType != "" {
		return mimeType
	}

	// Default to binary data
	return "application/octet-stream"
}

// IsImageFile checks if a file is an image based on its extension
func IsImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".jpe", ".png", ".gif", ".webp", ".tiff", ".tif", ".bmp", ".heic", ".heif":
		return true
	default:
		return false
	}
}

// MayCarryExif reports whether the container format can embed an EXIF block
// that the decoder understands.
func MayCarryExif(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".jpe", ".tiff", ".tif", ".png":
		return true
	default:
		return false
	}
}

// IsSidecar reports whether the file is a metadata sidecar rather than media
func IsSidecar(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}
