// Package exiftest builds small images carrying EXIF blocks for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// TIFF field types
const (
	TypeASCII     = 2
	TypeShort     = 3
	TypeLong      = 4
	TypeRational  = 5
	TypeUndefined = 7
)

// Entry is one IFD entry
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Data  []byte
}

func ASCII(tag uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(b)), Data: b}
}

func Short(tag uint16, v uint16) Entry {
	return Entry{Tag: tag, Type: TypeShort, Count: 1, Data: binary.LittleEndian.AppendUint16(nil, v)}
}

// Rational takes numerator/denominator pairs
func Rational(tag uint16, vals ...[2]uint32) Entry {
	var b []byte
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, v[0])
		b = binary.LittleEndian.AppendUint32(b, v[1])
	}
	return Entry{Tag: tag, Type: TypeRational, Count: uint32(len(vals)), Data: b}
}

func Undefined(tag uint16, b []byte) Entry {
	return Entry{Tag: tag, Type: TypeUndefined, Count: uint32(len(b)), Data: b}
}

// GPS returns the four coordinate entries for whole-number degrees/minutes
func GPS(latRef string, latDeg, latMin uint32, lonRef string, lonDeg, lonMin uint32) []Entry {
	return []Entry{
		ASCII(0x0001, latRef),
		Rational(0x0002, [2]uint32{latDeg, 1}, [2]uint32{latMin, 1}, [2]uint32{0, 1}),
		ASCII(0x0003, lonRef),
		Rational(0x0004, [2]uint32{lonDeg, 1}, [2]uint32{lonMin, 1}, [2]uint32{0, 1}),
	}
}

// TIFF lays out a little-endian TIFF with IFD0 and, when gps is non-nil, a
// GPS IFD linked from IFD0.
func TIFF(ifd0, gps []Entry) []byte {
	le := binary.LittleEndian
	ifdSize := func(n int) int { return 2 + 12*n + 4 }

	n0 := len(ifd0)
	if gps != nil {
		n0++
	}
	gpsOff := 8 + ifdSize(n0)
	dataOff := gpsOff
	if gps != nil {
		dataOff += ifdSize(len(gps))
	}

	var data []byte
	writeIFD := func(buf []byte, entries []Entry) []byte {
		buf = le.AppendUint16(buf, uint16(len(entries)))
		for _, e := range entries {
			buf = le.AppendUint16(buf, e.Tag)
			buf = le.AppendUint16(buf, e.Type)
			buf = le.AppendUint32(buf, e.Count)
			if len(e.Data) <= 4 {
				var v [4]byte
				copy(v[:], e.Data)
				buf = append(buf, v[:]...)
				continue
			}
			buf = le.AppendUint32(buf, uint32(dataOff+len(data)))
			data = append(data, e.Data...)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
		}
		return le.AppendUint32(buf, 0)
	}

	entries := append([]Entry{}, ifd0...)
	if gps != nil {
		entries = append(entries, Entry{Tag: 0x8825, Type: TypeLong, Count: 1, Data: le.AppendUint32(nil, uint32(gpsOff))})
	}

	buf := []byte{'I', 'I'}
	buf = le.AppendUint16(buf, 42)
	buf = le.AppendUint32(buf, 8)
	buf = writeIFD(buf, entries)
	if gps != nil {
		buf = writeIFD(buf, gps)
	}
	return append(buf, data...)
}

func canvas(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

// JPEG encodes a w x h JPEG. A non-nil tiff is embedded as an APP1 Exif
// segment right after SOI.
func JPEG(w, h int, tiff []byte) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas(w, h), nil); err != nil {
		panic(err)
	}
	out := buf.Bytes()
	if tiff == nil {
		return out
	}

	payload := append([]byte("Exif\x00\x00"), tiff...)
	seg := []byte{0xFF, 0xE1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	seg = append(seg, payload...)

	res := append([]byte{}, out[:2]...)
	res = append(res, seg...)
	return append(res, out[2:]...)
}

// PNG encodes a w x h PNG. A non-nil tiff is stored in an eXIf chunk right
// after IHDR.
func PNG(w, h int, tiff []byte) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas(w, h)); err != nil {
		panic(err)
	}
	out := buf.Bytes()
	if tiff == nil {
		return out
	}

	// signature (8) + IHDR chunk (4 + 4 + 13 + 4)
	const ihdrEnd = 8 + 25

	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(tiff)))
	body := append([]byte("eXIf"), tiff...)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(body))

	res := append([]byte{}, out[:ihdrEnd]...)
	res = append(res, chunk...)
	return append(res, out[ihdrEnd:]...)
}
