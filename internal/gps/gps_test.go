package gps

import (
	"math"
	"testing"

	"github.com/bstardust/photo-metadata/internal/exif"
	"github.com/bstardust/photo-metadata/internal/metadata"
	"github.com/bstardust/photo-metadata/internal/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func rat(num, den int64) exif.Rational { return exif.NewRational(num, den) }

func triplet(d, m, s int64) metadata.Value {
	return metadata.RationalValue(rat(d, 1), rat(m, 1), rat(s, 1))
}

// fixture returns metadata with latitude 10.5 and longitude 20.25
func fixture(latRef, lonRef string) metadata.Metadata {
	return metadata.Metadata{
		"DateTime": metadata.TextValue("2024:01:01 12:00:00"),
		tags.GPSInfo: metadata.NestedValue(metadata.Metadata{
			tags.GPSLatitude:     triplet(10, 30, 0),
			tags.GPSLatitudeRef:  metadata.TextValue(latRef),
			tags.GPSLongitude:    triplet(20, 15, 0),
			tags.GPSLongitudeRef: metadata.TextValue(lonRef),
		}),
	}
}

func TestToDecimal(t *testing.T) {
	got, err := ToDecimal([3]exif.Rational{rat(10, 1), rat(30, 1), rat(0, 1)})
	require.NoError(t, err)
	assert.InDelta(t, 10.5, got, tolerance)

	got, err = ToDecimal([3]exif.Rational{rat(51, 1), rat(3045, 100), rat(0, 1)})
	require.NoError(t, err)
	assert.InDelta(t, 51.5075, got, tolerance)

	_, err = ToDecimal([3]exif.Rational{rat(10, 1), rat(30, 0), rat(0, 1)})
	assert.ErrorIs(t, err, exif.ErrZeroDenominator)
}

func TestResolve_HemisphereSign(t *testing.T) {
	tests := []struct {
		latRef, lonRef string
		lat, lon       float64
	}{
		{"N", "E", 10.5, 20.25},
		{"S", "E", -10.5, 20.25},
		{"N", "W", 10.5, -20.25},
		{"S", "W", -10.5, -20.25},
	}

	for _, tt := range tests {
		t.Run(tt.latRef+tt.lonRef, func(t *testing.T) {
			fix, ok := Resolve(fixture(tt.latRef, tt.lonRef))
			require.True(t, ok)
			assert.InDelta(t, tt.lat, fix.Latitude, tolerance)
			assert.InDelta(t, tt.lon, fix.Longitude, tolerance)
			assert.Nil(t, fix.Altitude)
		})
	}
}

// Unexpected reference codes are documented behaviour: anything that is not
// exactly "N" or "E" counts as the negative hemisphere.
func TestResolve_UnexpectedReferenceIsNegative(t *testing.T) {
	for _, ref := range []string{"n", "e", "X", "North", " N"} {
		fix, ok := Resolve(fixture(ref, ref))
		require.True(t, ok, "ref %q", ref)
		assert.InDelta(t, -10.5, fix.Latitude, tolerance, "ref %q", ref)
		assert.InDelta(t, -20.25, fix.Longitude, tolerance, "ref %q", ref)
	}

	md := fixture("N", "E")
	md[tags.GPSInfo].Nested[tags.GPSLatitudeRef] = metadata.IntValue(78)
	fix, ok := Resolve(md)
	require.True(t, ok)
	assert.InDelta(t, -10.5, fix.Latitude, tolerance)
}

func TestResolve_EmptyReferenceIsMissing(t *testing.T) {
	for _, refs := range [][2]string{{"", "E"}, {"N", ""}, {"", ""}, {"\x00", "E"}} {
		_, ok := Resolve(fixture(refs[0], refs[1]))
		assert.False(t, ok, "refs %q", refs)
	}

	// cameras without a fix write empty references and zero coordinates
	res := metadata.Extract(exif.RawTags{
		34853: exif.RawTags{
			1: "",
			2: []exif.Rational{rat(0, 1), rat(0, 1), rat(0, 1)},
			3: "",
			4: []exif.Rational{rat(0, 1), rat(0, 1), rat(0, 1)},
		},
	})
	_, ok := Resolve(res.Metadata)
	assert.False(t, ok)
}

func TestResolve_EmptyTriplet(t *testing.T) {
	md := fixture("N", "E")
	md[tags.GPSInfo].Nested[tags.GPSLatitude] = metadata.RationalValue()
	_, ok := Resolve(md)
	assert.False(t, ok)
}

func TestResolve_NonFiniteTriplet(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		md := fixture("N", "E")
		md[tags.GPSInfo].Nested[tags.GPSLongitude] = metadata.FloatValue(v, 0, 0)
		_, ok := Resolve(md)
		assert.False(t, ok, "%v", v)
	}

	_, err := Degrees(metadata.FloatValue(1, math.NaN(), 0))
	assert.ErrorIs(t, err, ErrMalformedTriplet)
}

func TestResolve_MissingField(t *testing.T) {
	for _, field := range []string{tags.GPSLatitude, tags.GPSLatitudeRef, tags.GPSLongitude, tags.GPSLongitudeRef} {
		t.Run(field, func(t *testing.T) {
			md := fixture("N", "E")
			delete(md[tags.GPSInfo].Nested, field)

			_, ok := Resolve(md)
			assert.False(t, ok)
		})
	}
}

func TestResolve_NoGPSInfo(t *testing.T) {
	_, ok := Resolve(metadata.Metadata{"Make": metadata.TextValue("Canon")})
	assert.False(t, ok)

	_, ok = Resolve(metadata.Metadata{})
	assert.False(t, ok)

	_, ok = Resolve(nil)
	assert.False(t, ok)

	// GPSInfo present but not nested
	_, ok = Resolve(metadata.Metadata{tags.GPSInfo: metadata.IntValue(1024)})
	assert.False(t, ok)
}

func TestResolve_ZeroDenominator(t *testing.T) {
	for i := 0; i < 3; i++ {
		for _, field := range []string{tags.GPSLatitude, tags.GPSLongitude} {
			md := fixture("N", "E")
			parts := []exif.Rational{rat(10, 1), rat(30, 1), rat(0, 1)}
			parts[i] = rat(5, 0)
			md[tags.GPSInfo].Nested[field] = metadata.RationalValue(parts...)

			_, ok := Resolve(md)
			assert.False(t, ok, "%s component %d", field, i)
		}
	}
}

func TestResolve_MalformedTriplet(t *testing.T) {
	md := fixture("N", "E")
	md[tags.GPSInfo].Nested[tags.GPSLatitude] = metadata.RationalValue(rat(10, 1), rat(30, 1))
	_, ok := Resolve(md)
	assert.False(t, ok)

	md = fixture("N", "E")
	md[tags.GPSInfo].Nested[tags.GPSLongitude] = metadata.TextValue("20 15 0")
	_, ok = Resolve(md)
	assert.False(t, ok)
}

func TestResolve_IntegerAndFloatTriplets(t *testing.T) {
	md := fixture("N", "W")
	md[tags.GPSInfo].Nested[tags.GPSLatitude] = metadata.IntValue(10, 30, 0)
	md[tags.GPSInfo].Nested[tags.GPSLongitude] = metadata.FloatValue(20, 15, 0)

	fix, ok := Resolve(md)
	require.True(t, ok)
	assert.InDelta(t, 10.5, fix.Latitude, tolerance)
	assert.InDelta(t, -20.25, fix.Longitude, tolerance)
}

func TestResolve_Altitude(t *testing.T) {
	md := fixture("N", "E")
	md[tags.GPSInfo].Nested[tags.GPSAltitude] = metadata.RationalValue(rat(1505, 10))
	fix, ok := Resolve(md)
	require.True(t, ok)
	require.NotNil(t, fix.Altitude)
	assert.InDelta(t, 150.5, *fix.Altitude, tolerance)

	md[tags.GPSInfo].Nested[tags.GPSAltitudeRef] = metadata.IntValue(1)
	fix, ok = Resolve(md)
	require.True(t, ok)
	require.NotNil(t, fix.Altitude)
	assert.InDelta(t, -150.5, *fix.Altitude, tolerance)

	// a broken altitude never suppresses the fix
	md[tags.GPSInfo].Nested[tags.GPSAltitude] = metadata.RationalValue(rat(1, 0))
	fix, ok = Resolve(md)
	require.True(t, ok)
	assert.Nil(t, fix.Altitude)
}

func TestExtractThenResolve(t *testing.T) {
	raw := exif.RawTags{
		306: "2024:01:01 12:00:00",
		34853: exif.RawTags{
			1: "N",
			2: []exif.Rational{rat(10, 1), rat(0, 1), rat(0, 1)},
			3: "E",
			4: []exif.Rational{rat(20, 1), rat(0, 1), rat(0, 1)},
		},
	}

	res := metadata.Extract(raw)
	_, hasDate := res.Metadata.Get("DateTime")
	assert.True(t, hasDate)
	_, hasGPS := res.Metadata.Nested("GPSInfo")
	assert.True(t, hasGPS)

	fix, ok := Resolve(res.Metadata)
	require.True(t, ok)
	assert.InDelta(t, 10.0, fix.Latitude, tolerance)
	assert.InDelta(t, 20.0, fix.Longitude, tolerance)
	assert.Equal(t, "10.000000, 20.000000", fix.String())
}
