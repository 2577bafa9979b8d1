package at_test

import (
	"errors"
	"testing"

	"i4.energy/across/smswatch/at"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		codecs []at.Codec
		text   string
		codec  string
		ok     bool
	}{
		{name: "ASCII is UTF-8", input: []byte("OK\r\n"), codecs: at.DefaultCodecs, text: "OK\r\n", codec: "utf-8", ok: true},
		{name: "UTF-8 multibyte", input: []byte("Grüße\r\n"), codecs: at.DefaultCodecs, text: "Grüße\r\n", codec: "utf-8", ok: true},
		{name: "Invalid UTF-8 falls back to Latin-1", input: []byte{'n', 0xe9, '\r', '\n'}, codecs: at.DefaultCodecs, text: "né\r\n", codec: "latin-1", ok: true},
		{name: "UTF-16BE after UTF-8 fails", input: []byte{0x00, 0x48, 0xd8, 0x3d, 0xde, 0x00}, codecs: []at.Codec{at.UTF8, at.UTF16BE}, text: "H😀", codec: "utf-16-be", ok: true},
		{name: "Every candidate fails", input: []byte{0xff}, codecs: []at.Codec{at.UTF8, at.UTF16BE}, ok: false},
		{name: "No candidates", input: []byte("OK"), codecs: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, codec, ok := at.Decode(tt.input, tt.codecs)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if text != tt.text {
				t.Errorf("expected text %q, got %q", tt.text, text)
			}
			if codec != tt.codec {
				t.Errorf("expected codec %q, got %q", tt.codec, codec)
			}
		})
	}
}

func TestDecodeUTF16BE(t *testing.T) {
	t.Run("Basic plane", func(t *testing.T) {
		s, err := at.DecodeUTF16BE([]byte{0x00, 0x48, 0x00, 0x69})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != "Hi" {
			t.Errorf("expected Hi, got %q", s)
		}
	})

	t.Run("Surrogate pair", func(t *testing.T) {
		s, err := at.DecodeUTF16BE([]byte{0xd8, 0x3d, 0xde, 0x00})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != "😀" {
			t.Errorf("expected emoji, got %q", s)
		}
	})

	invalid := []struct {
		name  string
		input []byte
	}{
		{name: "Odd length", input: []byte{0x00, 0x48, 0x00}},
		{name: "Dangling high surrogate", input: []byte{0x00, 0x48, 0xd8, 0x3d}},
		{name: "High surrogate without low", input: []byte{0xd8, 0x3d, 0x00, 0x41}},
		{name: "Lone low surrogate", input: []byte{0xde, 0x00, 0x00, 0x41}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := at.DecodeUTF16BE(tt.input)
			if !errors.Is(err, at.ErrInvalidUTF16) {
				t.Errorf("expected ErrInvalidUTF16, got: %v", err)
			}
		})
	}
}
