// Package gps derives a decimal-degree coordinate from extracted EXIF metadata.
package gps

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bstardust/photo-metadata/internal/exif"
	"github.com/bstardust/photo-metadata/internal/metadata"
	"github.com/bstardust/photo-metadata/internal/tags"
)

// Hemisphere references that keep a coordinate positive
const (
	North = "N"
	East  = "E"
)

// ErrMalformedTriplet is returned for a degrees/minutes/seconds value that
// does not have exactly three numeric components.
var ErrMalformedTriplet = errors.New("gps: malformed degrees/minutes/seconds value")

// Fix is a position in signed decimal degrees. Positive is North/East.
type Fix struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// String renders the fix as "lat, lon"
func (f Fix) String() string {
	return fmt.Sprintf("%.6f, %.6f", f.Latitude, f.Longitude)
}

// MapsURL returns a link that shows the fix on OpenStreetMap
func (f Fix) MapsURL() string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=15/%.6f/%.6f",
		f.Latitude, f.Longitude, f.Latitude, f.Longitude)
}

// Resolve returns the GPS fix recorded in md. ok is false when the GPS
// sub-structure or any of its four coordinate fields is missing, or when a
// coordinate cannot be converted.
//
// An empty reference counts as missing. Any other latitude reference than
// "N" is treated as South, and any other longitude reference than "E" as West.
func Resolve(md metadata.Metadata) (fix Fix, ok bool) {
	info, found := md.Nested(tags.GPSInfo)
	if !found {
		return Fix{}, false
	}

	lat, hasLat := info.Get(tags.GPSLatitude)
	latRef, hasLatRef := info.Get(tags.GPSLatitudeRef)
	lon, hasLon := info.Get(tags.GPSLongitude)
	lonRef, hasLonRef := info.Get(tags.GPSLongitudeRef)
	if !hasLat || !hasLatRef || !hasLon || !hasLonRef {
		return Fix{}, false
	}
	// cameras without a fix write empty references
	if isEmptyRef(latRef) || isEmptyRef(lonRef) {
		return Fix{}, false
	}

	latDeg, err := Degrees(lat)
	if err != nil {
		return Fix{}, false
	}
	lonDeg, err := Degrees(lon)
	if err != nil {
		return Fix{}, false
	}

	if refText(latRef) != North {
		latDeg = -latDeg
	}
	if refText(lonRef) != East {
		lonDeg = -lonDeg
	}

	fix = Fix{Latitude: latDeg, Longitude: lonDeg}
	if alt, ok := altitude(info); ok {
		fix.Altitude = &alt
	}
	return fix, true
}

// Degrees converts a degrees/minutes/seconds value into decimal degrees
func Degrees(v metadata.Value) (float64, error) {
	if v.Len() != 3 {
		return 0, fmt.Errorf("%w: %d components", ErrMalformedTriplet, v.Len())
	}
	parts, err := v.Float64s()
	if err != nil {
		return 0, err
	}
	deg := DMS(parts[0], parts[1], parts[2])
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, fmt.Errorf("%w: not a finite value", ErrMalformedTriplet)
	}
	return deg, nil
}

// ToDecimal converts a rational degrees/minutes/seconds triplet into decimal
// degrees.
func ToDecimal(dms [3]exif.Rational) (float64, error) {
	var parts [3]float64
	for i, r := range dms {
		f, err := r.Float64()
		if err != nil {
			return 0, err
		}
		parts[i] = f
	}
	return DMS(parts[0], parts[1], parts[2]), nil
}

// DMS converts degrees, minutes and seconds to decimal degrees
func DMS(degrees, minutes, seconds float64) float64 {
	return degrees + minutes/60 + seconds/3600
}

func isEmptyRef(v metadata.Value) bool {
	return v.Kind == metadata.KindText && strings.TrimRight(v.Text, "\x00 ") == ""
}

// refText returns the reference code. Non-text references never match a
// hemisphere code, so they fall into the negative hemisphere.
func refText(v metadata.Value) string {
	if v.Kind != metadata.KindText {
		return ""
	}
	return v.Text
}

// altitude returns the altitude in metres, negative below sea level
func altitude(info metadata.Metadata) (float64, bool) {
	v, ok := info.Get(tags.GPSAltitude)
	if !ok || v.Len() != 1 {
		return 0, false
	}
	vals, err := v.Float64s()
	if err != nil {
		return 0, false
	}
	alt := vals[0]

	if ref, ok := info.Get(tags.GPSAltitudeRef); ok {
		if r, err := ref.Float64s(); err == nil && len(r) == 1 && r[0] == 1 {
			alt = -alt
		}
	}
	return alt, true
}
