package at

import (
	"errors"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidUTF16 is returned when a byte sequence is not well-formed UTF-16BE.
var ErrInvalidUTF16 = errors.New("invalid UTF-16BE sequence")

// Codec decodes raw serial bytes into text. Decode must fail rather than
// substitute replacement characters, so that the next candidate gets a chance.
type Codec struct {
	Name   string
	Decode func([]byte) (string, error)
}

var (
	UTF8    = Codec{Name: "utf-8", Decode: decodeUTF8}
	Latin1  = Codec{Name: "latin-1", Decode: decodeLatin1}
	UTF16BE = Codec{Name: "utf-16-be", Decode: DecodeUTF16BE}
)

// DefaultCodecs is the candidate order used when none is configured.
var DefaultCodecs = []Codec{UTF8, Latin1, UTF16BE}

// Decode tries each codec in order and returns the text produced by the first
// one that succeeds together with its name. ok is false only when every
// candidate failed.
func Decode(chunk []byte, codecs []Codec) (text string, codec string, ok bool) {
	for _, c := range codecs {
		s, err := c.Decode(chunk)
		if err != nil {
			continue
		}
		return s, c.Name, true
	}
	return "", "", false
}

func decodeUTF8(b []byte) (string, error) {
	out, _, err := transform.Bytes(encoding.UTF8Validator, b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecodeUTF16BE decodes big-endian UTF-16. Odd lengths and unpaired
// surrogates are rejected.
func DecodeUTF16BE(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", ErrInvalidUTF16
	}
	for i := 0; i < len(b); i += 2 {
		u := rune(b[i])<<8 | rune(b[i+1])
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+3 >= len(b) {
				return "", ErrInvalidUTF16
			}
			next := rune(b[i+2])<<8 | rune(b[i+3])
			if utf16.DecodeRune(u, next) == 0xFFFD {
				return "", ErrInvalidUTF16
			}
			i += 2
		case u >= 0xDC00 && u < 0xE000:
			return "", ErrInvalidUTF16
		}
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
