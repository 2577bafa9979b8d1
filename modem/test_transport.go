package modem

import (
	"context"
	"io"
	"sync"
	"time"
)

// TestTransport is a test helper that behaves like a serial port with a read
// timeout: Read blocks until data is queued or ReadTimeout expires, in which
// case it returns 0 bytes and no error. Writes are recorded.
type TestTransport struct {
	ReadTimeout time.Duration

	mu       sync.Mutex
	readChan chan []byte
	writes   []string
	closed   bool
	done     chan struct{}
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		ReadTimeout: 10 * time.Millisecond,
		readChan:    make(chan []byte, 10),
		done:        make(chan struct{}),
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	t.writes = append(t.writes, string(p))
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	timer := time.NewTimer(t.ReadTimeout)
	defer timer.Stop()
	select {
	case data := <-t.readChan:
		return copy(p, data), nil
	case <-t.done:
		return 0, io.EOF
	case <-timer.C:
		return 0, nil
	}
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Writes returns everything written so far, one entry per Write call.
func (t *TestTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

// Closed reports whether Close was called.
func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// TestDialer hands out a fixed Transport.
type TestDialer struct {
	Transport Transport
	Err       error
}

func (d TestDialer) Dial(ctx context.Context) (Transport, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Transport, nil
}
