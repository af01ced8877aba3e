package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// ErrInvalidText is returned when a byte value is not valid text in its
// declared encoding. The accompanying string is still usable.
var ErrInvalidText = errors.New("exif: invalid text encoding")

// Character code prefixes used by UserComment-style UNDEFINED fields
var (
	codeASCII     = []byte("ASCII\x00\x00\x00")
	codeUnicode   = []byte("UNICODE\x00")
	codeJIS       = []byte("JIS\x00\x00\x00\x00\x00")
	codeUndefined = []byte("\x00\x00\x00\x00\x00\x00\x00\x00")
)

// DecodeText converts an EXIF byte value into a string. Undecodable bytes
// are replaced with U+FFFD and ErrInvalidText is returned alongside the
// lossy result. UNICODE text without a byte order mark is read big-endian.
func DecodeText(b []byte) (string, error) {
	return DecodeTextOrder(b, binary.BigEndian)
}

// DecodeTextOrder is DecodeText for a value read from a TIFF stream with the
// given byte order. UNICODE text follows the stream's order unless it
// starts with a byte order mark.
func DecodeTextOrder(b []byte, order binary.ByteOrder) (string, error) {
	if len(b) >= 8 {
		prefix, body := b[:8], b[8:]
		switch {
		case bytes.Equal(prefix, codeASCII), bytes.Equal(prefix, codeUndefined):
			return decodeUTF8(body)
		case bytes.Equal(prefix, codeUnicode):
			return decodeWith(unicode.UTF16(endianness(order), unicode.UseBOM), body)
		case bytes.Equal(prefix, codeJIS):
			return decodeWith(japanese.ISO2022JP, body)
		}
	}
	return decodeUTF8(b)
}

func endianness(order binary.ByteOrder) unicode.Endianness {
	if order == binary.LittleEndian {
		return unicode.LittleEndian
	}
	return unicode.BigEndian
}

// markOrder puts the byte order mark for order in front of UNICODE text that
// has none, so the value still decodes once detached from its stream.
func markOrder(b []byte, order binary.ByteOrder) []byte {
	if len(b) < 8 || !bytes.Equal(b[:8], codeUnicode) {
		return b
	}
	body := b[8:]
	if len(body) >= 2 && ((body[0] == 0xFE && body[1] == 0xFF) || (body[0] == 0xFF && body[1] == 0xFE)) {
		return b
	}
	bom := []byte{0xFE, 0xFF}
	if endianness(order) == unicode.LittleEndian {
		bom = []byte{0xFF, 0xFE}
	}
	out := make([]byte, 0, len(b)+2)
	out = append(out, codeUnicode...)
	out = append(out, bom...)
	return append(out, body...)
}

func decodeUTF8(b []byte) (string, error) {
	b = bytes.TrimRight(b, "\x00")
	if utf8.Valid(b) {
		return string(b), nil
	}
	// The x/text UTF-8 decoder substitutes U+FFFD for invalid sequences
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte(string(utf8.RuneError)))), ErrInvalidText
	}
	return string(out), ErrInvalidText
}

func decodeWith(enc encoding.Encoding, b []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return decodeUTF8(b)
	}
	out = bytes.TrimRight(out, "\x00")
	if bytes.ContainsRune(out, utf8.RuneError) {
		return string(out), ErrInvalidText
	}
	return string(out), nil
}
