package metadata

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/bstardust/photo-metadata/internal/exif"
	"github.com/bstardust/photo-metadata/internal/tags"
	"go.uber.org/multierr"
)

var (
	// ErrUnsupportedValue marks a raw value of a type the extractor does not
	// know; it is stored as its fmt text.
	ErrUnsupportedValue = errors.New("unsupported raw value type")
	// ErrNotNested marks a GPSInfo entry that is not a tag mapping.
	ErrNotNested = errors.New("GPSInfo is not a tag mapping")
)

// ValueError is a non-fatal problem with a single tag value
type ValueError struct {
	Tag string
	Err error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tag %s: %v", e.Tag, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one extraction pass
type Result struct {
	Metadata Metadata
	Warnings []error
}

// Err combines the warnings into a single error, nil when there are none
func (r *Result) Err() error {
	return multierr.Combine(r.Warnings...)
}

// Extract resolves a raw tag table into canonical names. It never fails:
// values that cannot be decoded cleanly are kept in a best-effort form and
// reported in Result.Warnings.
func Extract(raw exif.RawTags) *Result {
	res := &Result{Metadata: make(Metadata, len(raw))}
	for id, v := range raw {
		name := tags.Resolve(tags.NamespaceExif, id)

		if name == tags.GPSInfo {
			if sub, ok := asRawTags(v); ok {
				res.Metadata[name] = NestedValue(res.extractNamespace(sub, tags.NamespaceGPS, name+"."))
				continue
			}
			res.warn(name, ErrNotNested)
		}

		res.Metadata[name] = res.convert(name, v)
	}
	return res
}

func (r *Result) extractNamespace(raw exif.RawTags, ns tags.Namespace, prefix string) Metadata {
	m := make(Metadata, len(raw))
	for id, v := range raw {
		name := tags.Resolve(ns, id)
		m[name] = r.convert(prefix+name, v)
	}
	return m
}

func (r *Result) warn(tag string, err error) {
	r.Warnings = append(r.Warnings, &ValueError{Tag: tag, Err: err})
}

func asRawTags(v any) (exif.RawTags, bool) {
	switch t := v.(type) {
	case exif.RawTags:
		return t, true
	case map[uint16]any:
		return exif.RawTags(t), true
	}
	return nil, false
}

// convert maps one raw value onto the Value variant
func (r *Result) convert(tag string, v any) Value {
	switch t := v.(type) {
	case string:
		return TextValue(t)
	case []byte:
		s, err := exif.DecodeText(t)
		if err != nil {
			r.warn(tag, err)
		}
		return TextValue(s)

	case exif.Rational:
		return RationalValue(t)
	case []exif.Rational:
		return RationalValue(t...)

	case int:
		return IntValue(int64(t))
	case int8:
		return IntValue(int64(t))
	case int16:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint:
		return unsigned(uint64(t))
	case uint8:
		return IntValue(int64(t))
	case uint16:
		return IntValue(int64(t))
	case uint32:
		return IntValue(int64(t))
	case uint64:
		return unsigned(t)
	case []int:
		return IntValue(widen(t)...)
	case []int16:
		return IntValue(widen(t)...)
	case []int32:
		return IntValue(widen(t)...)
	case []int64:
		return IntValue(t...)
	case []uint16:
		return IntValue(widen(t)...)
	case []uint32:
		return IntValue(widen(t)...)

	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case []float32:
		out := make([]float64, len(t))
		for i, f := range t {
			out[i] = float64(f)
		}
		return FloatValue(out...)
	case []float64:
		return FloatValue(t...)

	case exif.RawTags, map[uint16]any:
		sub, _ := asRawTags(t)
		return NestedValue(r.extractNamespace(sub, tags.NamespaceExif, tag+"."))

	case nil:
		r.warn(tag, fmt.Errorf("%w: nil", ErrUnsupportedValue))
		return TextValue("")
	}

	r.warn(tag, fmt.Errorf("%w: %T", ErrUnsupportedValue, v))
	return TextValue(fmt.Sprint(v))
}

// unsigned keeps values beyond the int64 range as their decimal text
func unsigned(v uint64) Value {
	if v > math.MaxInt64 {
		return TextValue(strconv.FormatUint(v, 10))
	}
	return IntValue(int64(v))
}

func widen[T int | int16 | int32 | uint16 | uint32](vals []T) []int64 {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return out
}
