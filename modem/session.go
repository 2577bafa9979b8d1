package modem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"i4.energy/across/smswatch/at"
)

// Session owns an open transport for the duration of one exchange with the
// modem. A Session is only handed out after the AT handshake succeeded and
// must be closed by its user. It is not safe for concurrent use: commands
// run strictly one after the other.
type Session struct {
	// transport is the dialed connection, closed by Close
	transport Transport
	// reader turns transport bytes into decoded lines
	reader *at.LineReader
	// config contains the timings of the owning Modem
	config Config
	logger *zap.Logger
	// closed indicates if Close has been called
	closed bool
}

// Open dials the modem, waits for it to settle and performs the AT
// handshake. The transport is closed again on every failure path.
// Open does not take the Modem lock; a caller holding a long-lived session
// owns the device until it closes it.
//
// Open returns an error wrapping ErrInitialization when the modem rejects
// the handshake, or ErrTimeout when it does not answer in time.
func (m *Modem) Open(ctx context.Context) (*Session, error) {
	transport, err := m.config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("open transport: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	s := newSession(transport, m.config)

	if err := sleep(ctx, m.config.SettleDelay); err != nil {
		transport.Close()
		return nil, err
	}

	if err := s.handshake(ctx); err != nil {
		transport.Close()
		return nil, fmt.Errorf("initialize modem: %w", err)
	}

	return s, nil
}

func newSession(transport Transport, config Config) *Session {
	logger := config.Logger
	reader := at.NewLineReader(transport, config.Codecs)
	reader.OnUndecodable = func(chunk []byte) {
		logger.Debug("Could not decode bytes from serial", zap.Binary("bytes", chunk))
	}
	reader.OnPartial = func(pending string) {
		logger.Debug("Still constructing output, waiting for line terminator", zap.String("pending", pending))
	}
	return &Session{
		transport: transport,
		reader:    reader,
		config:    config,
		logger:    logger,
	}
}

// handshake sends the bare AT probe and waits for the modem to answer.
func (s *Session) handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.InitTimeout)
	defer cancel()

	if err := s.write(at.CmdAt); err != nil {
		return err
	}
	s.logger.Debug("Sent command for initial handshake with module, awaiting reply")

	if err := sleep(ctx, s.config.ReadDelay); err != nil {
		return deadlineError(err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return deadlineError(err)
		}

		line, ok, err := s.reader.Next()
		if err != nil {
			return fmt.Errorf("read handshake reply: %w", err)
		}
		if !ok {
			continue
		}

		switch line {
		case at.OK:
			s.logger.Debug("Initialized communication with GSM module")
			return nil
		case at.ERROR:
			return ErrInitialization
		}
	}
}

// Exec sends one command and collects the reply until the modem answers OK
// or ERROR. A modem ERROR is a normal Result, not a Go error: errors are
// reserved for I/O failures, cancellation and ErrTimeout.
//
// When ctx carries no deadline, the command is bounded by the configured
// ATTimeout.
func (s *Session) Exec(ctx context.Context, cmd string) (*Result, error) {
	if s.closed {
		return nil, ErrAlreadyClosed
	}
	if s.transport == nil {
		return nil, ErrNotInitialized
	}

	if _, ok := ctx.Deadline(); !ok && s.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ATTimeout)
		defer cancel()
	}

	if err := s.write(cmd); err != nil {
		return nil, err
	}
	s.logger.Debug("TX", zap.String("command", strings.TrimSpace(cmd)))

	if err := sleep(ctx, s.config.ReadDelay); err != nil {
		return nil, fmt.Errorf("command %q: %w", strings.TrimSpace(cmd), deadlineError(err))
	}

	result := &Result{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("command %q: %w", strings.TrimSpace(cmd), deadlineError(err))
		}

		line, ok, err := s.reader.Next()
		if err != nil {
			return nil, fmt.Errorf("read reply to %q: %w", strings.TrimSpace(cmd), err)
		}
		if !ok {
			continue
		}

		s.logger.Debug("RX", zap.String("line", line))
		result.addLine(line)

		switch line {
		case at.OK:
			result.setStatus(StatusOK)
			return result, nil
		case at.ERROR:
			result.setStatus(StatusError)
			return result, nil
		}
	}
}

// Close releases the transport.
func (s *Session) Close() error {
	if s.closed {
		return ErrAlreadyClosed
	}
	s.closed = true
	if s.transport != nil {
		return s.transport.Close()
	}
	return nil
}

func (s *Session) write(cmd string) error {
	if !strings.HasSuffix(cmd, at.CRLF) {
		cmd += at.CRLF
	}
	if _, err := s.transport.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("write command %q: %w", strings.TrimSpace(cmd), err)
	}
	return nil
}

// deadlineError maps an expired deadline to ErrTimeout and passes plain
// cancellation through.
func deadlineError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
