package modem

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// open a session with the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when a Dialer produced no transport, or
	// when a command is attempted on a Session that was never opened.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Session that has
	// already been closed, or when a closed Session is used.
	ErrAlreadyClosed = errors.New("session already closed")

	// ErrInitialization is returned when the modem answers the AT handshake
	// with ERROR. The session is unusable and the caller must abort.
	ErrInitialization = errors.New("modem rejected initialization")

	// ErrTimeout is returned when no terminal reply (OK or ERROR) arrives
	// within the handshake or command window.
	ErrTimeout = errors.New("timed out waiting for modem reply")

	// ErrCommand is the sentinel wrapped by CommandError.
	ErrCommand = errors.New("modem command failed")

	// ErrNoResetPin is returned by Reset when no reset line was configured.
	ErrNoResetPin = errors.New("no reset pin configured")

	// ErrResetDeclined is returned by Reset when the confirmation was refused.
	ErrResetDeclined = errors.New("reset not confirmed")
)

// CommandError reports a command that had to succeed but was answered with
// a non-OK status. It carries the full result for diagnostics.
type CommandError struct {
	Command string
	Result  *Result
}

func (e *CommandError) Error() string {
	if e.Result == nil {
		return fmt.Sprintf("%s: %s", ErrCommand, e.Command)
	}
	return fmt.Sprintf("%s: %s: %q", ErrCommand, e.Command, e.Result.Text())
}

func (e *CommandError) Unwrap() error {
	return ErrCommand
}
