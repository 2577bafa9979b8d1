package modem

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warthog618/sms"
	"github.com/warthog618/sms/encoding/pdumode"
	"github.com/warthog618/sms/encoding/tpdu"
	"go.uber.org/zap"

	"i4.energy/across/smswatch/at"
)

// ParseMessageListPDU parses the lines of a PDU-mode AT+CMGL reply, where
// each "+CMGL: <index>,<stat>,[<alpha>],<length>" header is followed by the
// message as a hex encoded PDU.
//
// A PDU that cannot be decoded is kept: the message carries the raw hex as
// its text.
func ParseMessageListPDU(lines []string, logger *zap.Logger) []SMS {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		messages []SMS
		current  *SMS
		stat     int
		consumed bool
	)
	for _, line := range lines {
		if strings.HasPrefix(line, at.ListPrefix) {
			if current != nil {
				messages = append(messages, *current)
			}
			fields := strings.Split(strings.TrimPrefix(line, at.ListPrefix), ",")
			current = &SMS{Index: strings.TrimSpace(fields[0])}
			stat = -1
			consumed = false
			if len(fields) > 1 {
				if n, err := strconv.Atoi(strings.TrimSpace(fields[1])); err == nil {
					stat = n
					current.Status = Filter(n).String()
				} else {
					current.Status = unquote(fields[1])
				}
			}
			continue
		}
		if at.IsFinal(line) || line == "" {
			continue
		}
		if current == nil || consumed {
			logger.Debug("Unhandled line found", zap.String("line", line))
			continue
		}

		consumed = true
		if err := decodePDU(current, line, stat); err != nil {
			logger.Warn("Failed to decode PDU", zap.String("index", current.Index), zap.Error(err))
			current.Text = line
		}
	}
	if current != nil {
		messages = append(messages, *current)
	}
	return messages
}

// decodePDU fills sender, time and text of msg from a hex PDU that starts
// with the SMSC address, as modems list it. Stored outgoing messages are
// SMS-SUBMIT and are decoded in the mobile-originated direction.
func decodePDU(msg *SMS, pduHex string, stat int) error {
	raw, err := hex.DecodeString(strings.TrimSpace(pduHex))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	p, err := pdumode.UnmarshalBinary(raw)
	if err != nil {
		return fmt.Errorf("unmarshal pdu: %w", err)
	}

	direction := sms.AsMT
	if Filter(stat) == FilterSent || Filter(stat) == FilterUnsent {
		direction = sms.AsMO
	}
	t, err := sms.Unmarshal(p.TPDU, direction)
	if err != nil {
		return fmt.Errorf("unmarshal tpdu: %w", err)
	}

	switch t.SmsType() {
	case tpdu.SmsDeliver:
		msg.Sender = t.OA.Number()
		msg.Time = t.SCTS.Time.Format(time.RFC3339)
	case tpdu.SmsSubmit:
		msg.Sender = t.DA.Number()
	}

	alphabet, err := t.DCS.Alphabet()
	if err != nil {
		return fmt.Errorf("alphabet: %w", err)
	}
	text, err := tpdu.DecodeUserData(t.UD, t.UDH, alphabet)
	if err != nil {
		return fmt.Errorf("decode user data: %w", err)
	}
	msg.Text = string(text)
	return nil
}
