package exif

import (
	"errors"
	"fmt"
)

// ErrZeroDenominator is returned when a rational with a zero denominator
// is converted to a float.
var ErrZeroDenominator = errors.New("exif: rational has zero denominator")

// Rational represents an EXIF RATIONAL or SRATIONAL value
type Rational struct {
	Num int64
	Den int64
}

// NewRational creates a rational value
func NewRational(num, den int64) Rational {
	return Rational{Num: num, Den: den}
}

// Float64 converts the rational to a float
func (r Rational) Float64() (float64, error) {
	if r.Den == 0 {
		return 0, fmt.Errorf("%w: %d/0", ErrZeroDenominator, r.Num)
	}
	return float64(r.Num) / float64(r.Den), nil
}

// String renders the rational as num/den
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// RawTags is the tag table of one IFD as produced by the decoder, keyed by
// numeric tag id.
//
// Values are one of: int64, []int64 (and the other integer kinds), Rational,
// []Rational, float64, []float64, string, []byte, or a nested RawTags for the
// GPS IFD pointer.
type RawTags map[uint16]any

// Sub returns the nested tag table stored under id, if any.
func (t RawTags) Sub(id uint16) (RawTags, bool) {
	sub, ok := t[id].(RawTags)
	return sub, ok
}
