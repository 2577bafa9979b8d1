package modem

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"i4.energy/across/smswatch/at"
)

// Modem is the high-level entry point to a GSM modem driven by AT commands.
//
// The serial device is an exclusive resource: every operation opens its own
// Session (dial, settle, handshake), runs its commands strictly in order and
// closes the session again before returning. Operations on one Modem are
// serialized, so the device is never shared between two exchanges.
type Modem struct {
	// config contains the validated modem configuration, defaults applied
	config Config
	// logger is config.Logger, never nil
	logger *zap.Logger

	// mu guards the device: one session or reset pulse at a time.
	mu sync.Mutex
}

// New creates a Modem from config. No connection is made until an
// operation needs one.
func New(config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	return &Modem{
		config: config,
		logger: config.Logger,
	}, nil
}

// ListMessages selects the message format, lists the stored messages
// matching filter and parses them. Like any plain list command, it marks
// the listed REC UNREAD messages as read on the modem.
//
// If the modem refuses the format selection, ListMessages returns a
// *CommandError (errors.Is(err, ErrCommand)). The list command itself is
// not escalated: an ERROR reply there yields no messages.
func (m *Modem) ListMessages(ctx context.Context, filter Filter, mode Mode) ([]SMS, error) {
	return m.listMessages(ctx, filter, mode, false)
}

// PeekMessages is ListMessages without changing the status of the listed
// messages, for inspection next to a poller that relies on REC UNREAD.
func (m *Modem) PeekMessages(ctx context.Context, filter Filter, mode Mode) ([]SMS, error) {
	return m.listMessages(ctx, filter, mode, true)
}

func (m *Modem) listMessages(ctx context.Context, filter Filter, mode Mode, peek bool) ([]SMS, error) {
	if !filter.valid() {
		return nil, fmt.Errorf("invalid message filter %d", int(filter))
	}
	if !mode.valid() {
		return nil, fmt.Errorf("invalid message mode %d", int(mode))
	}

	var messages []SMS
	err := m.withSession(ctx, func(s *Session) error {
		setMode := fmt.Sprintf(at.CmdSetMode, mode.CMGF())
		m.logger.Debug("Setting SMS mode", zap.String("command", setMode))
		res, err := s.Exec(ctx, setMode)
		if err != nil {
			return err
		}
		if !res.OK() {
			m.logger.Debug("Error while setting the SMS mode", zap.String("reply", res.Text()))
			return &CommandError{Command: setMode, Result: res}
		}

		list := listCommand(filter, mode, peek)
		m.logger.Debug("Retrieving messages", zap.String("command", list))
		res, err = s.Exec(ctx, list)
		if err != nil {
			return err
		}

		if mode == ModePDU {
			messages = ParseMessageListPDU(res.Lines(), m.logger)
		} else {
			messages = ParseMessageList(res.Lines(), m.logger)
		}
		m.logger.Debug("Finished parsing messages", zap.Int("count", len(messages)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func listCommand(filter Filter, mode Mode, peek bool) string {
	switch {
	case mode == ModePDU && peek:
		return fmt.Sprintf(at.CmdPeekPDU, filter.PDU())
	case mode == ModePDU:
		return fmt.Sprintf(at.CmdListPDU, filter.PDU())
	case peek:
		return fmt.Sprintf(at.CmdPeekText, filter.String())
	}
	return fmt.Sprintf(at.CmdListText, filter.String())
}

// AnswerCall accepts an incoming call with ATA. The result is returned for
// callers that care; a modem ERROR is not reported as a Go error.
func (m *Modem) AnswerCall(ctx context.Context) (*Result, error) {
	return m.Exec(ctx, at.CmdAnswerCall)
}

// Exec runs a single command in its own session.
func (m *Modem) Exec(ctx context.Context, cmd string) (*Result, error) {
	var res *Result
	err := m.withSession(ctx, func(s *Session) error {
		var err error
		res, err = s.Exec(ctx, cmd)
		return err
	})
	return res, err
}

// withSession runs fn on a freshly opened session and always closes it.
func (m *Modem) withSession(ctx context.Context, fn func(*Session) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close session: %w", cerr))
		}
	}()

	return fn(s)
}
