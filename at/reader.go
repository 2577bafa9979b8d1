package at

import (
	"bytes"
	"io"
)

// LineReader turns a serial byte stream into decoded response lines.
//
// Raw bytes are cut into chunks the way a serial readline does: at each '\n',
// or at a read timeout with whatever arrived so far. A Read returning 0 bytes
// and a nil error is treated as a read timeout, which is how go.bug.st/serial
// reports an expired read deadline. Each chunk is decoded with the configured
// codecs and fed to an Assembler.
type LineReader struct {
	r       io.Reader
	codecs  []Codec
	asm     Assembler
	pending []byte
	buf     []byte
	lines   []string

	// OnUndecodable, when set, receives chunks no codec could decode.
	OnUndecodable func(chunk []byte)
	// OnPartial, when set, is called when a chunk left a line unfinished.
	OnPartial func(pending string)
}

// NewLineReader returns a LineReader over r. A nil codecs slice selects
// DefaultCodecs.
func NewLineReader(r io.Reader, codecs []Codec) *LineReader {
	if codecs == nil {
		codecs = DefaultCodecs
	}
	return &LineReader{
		r:      r,
		codecs: codecs,
		buf:    make([]byte, 256),
	}
}

// Next returns the next complete line. ok is false when the current
// iteration produced no line: a read timeout, a partial line or an
// undecodable chunk. Callers are expected to loop.
func (lr *LineReader) Next() (line string, ok bool, err error) {
	if line, ok := lr.pop(); ok {
		return line, true, nil
	}

	chunk, err := lr.readChunk()
	if err != nil {
		return "", false, err
	}
	if len(chunk) == 0 {
		return "", false, nil
	}

	text, _, decoded := Decode(chunk, lr.codecs)
	if !decoded {
		if lr.OnUndecodable != nil {
			lr.OnUndecodable(chunk)
		}
		return "", false, nil
	}

	lr.lines = append(lr.lines, lr.asm.Feed(text)...)
	if line, ok := lr.pop(); ok {
		return line, true, nil
	}
	if lr.OnPartial != nil {
		lr.OnPartial(lr.asm.Pending())
	}
	return "", false, nil
}

func (lr *LineReader) pop() (string, bool) {
	if len(lr.lines) == 0 {
		return "", false
	}
	line := lr.lines[0]
	lr.lines = lr.lines[1:]
	return line, true
}

func (lr *LineReader) readChunk() ([]byte, error) {
	for {
		if i := bytes.IndexByte(lr.pending, '\n'); i >= 0 {
			chunk := bytes.Clone(lr.pending[:i+1])
			lr.pending = lr.pending[i+1:]
			return chunk, nil
		}

		n, err := lr.r.Read(lr.buf)
		lr.pending = append(lr.pending, lr.buf[:n]...)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			chunk := lr.pending
			lr.pending = nil
			return chunk, nil
		}
	}
}
