package modem

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"i4.energy/across/smswatch/at"
)

// SMS represents a text message stored on the modem.
type SMS struct {
	Index  string `json:"index"`
	Status string `json:"status"` // "REC UNREAD", "REC READ", "STO UNSENT", "STO SENT"
	Sender string `json:"sender"`
	Time   string `json:"time"`
	Text   string `json:"text"`
}

// Filter selects which stored messages a list command returns.
type Filter int

const (
	FilterUnread Filter = iota
	FilterRead
	FilterUnsent
	FilterSent
	FilterAll
)

var filterNames = [...]string{
	FilterUnread: "REC UNREAD",
	FilterRead:   "REC READ",
	FilterUnsent: "STO UNSENT",
	FilterSent:   "STO SENT",
	FilterAll:    "ALL",
}

// String returns the text-mode name of the filter, as the modem expects it
// in AT+CMGL.
func (f Filter) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterNames[f]
}

// PDU returns the numeric stat value used by AT+CMGL in PDU mode.
func (f Filter) PDU() int {
	return int(f)
}

func (f Filter) valid() bool {
	return f >= FilterUnread && f <= FilterAll
}

// ParseFilter accepts the text-mode names as well as the short forms
// all, read, unread, sent and unsent, case-insensitively.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UNREAD", "REC UNREAD":
		return FilterUnread, nil
	case "READ", "REC READ":
		return FilterRead, nil
	case "UNSENT", "STO UNSENT":
		return FilterUnsent, nil
	case "SENT", "STO SENT":
		return FilterSent, nil
	case "ALL":
		return FilterAll, nil
	}
	return 0, fmt.Errorf("unknown message filter %q", s)
}

// Mode is the SMS message format selected with AT+CMGF.
type Mode int

const (
	ModeText Mode = iota
	ModePDU
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModePDU:
		return "pdu"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// CMGF returns the AT+CMGF argument selecting the mode.
func (m Mode) CMGF() int {
	if m == ModePDU {
		return 0
	}
	return 1
}

func (m Mode) valid() bool {
	return m == ModeText || m == ModePDU
}

// ParseMode accepts "text" and "pdu".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return ModeText, nil
	case "pdu":
		return ModePDU, nil
	}
	return 0, fmt.Errorf("unknown message mode %q", s)
}

// hexBody matches bodies the modem sent as hex-encoded UTF-16BE.
var hexBody = regexp.MustCompile(`^(?P<content>(?:[0-9A-F]{2})+)(?:\r\n)?$`)

// ParseMessageList parses the lines of a text-mode AT+CMGL reply.
//
// Every "+CMGL: " header opens a message; the lines up to the next header
// form its body. OK and ERROR lines are ignored, and lines appearing before
// any header are dropped. Messages are returned in the order the modem
// listed them.
func ParseMessageList(lines []string, logger *zap.Logger) []SMS {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		messages []SMS
		current  *SMS
		body     []string
	)
	emit := func() {
		if current == nil {
			return
		}
		for len(body) > 0 && body[len(body)-1] == "" {
			body = body[:len(body)-1]
		}
		current.Text = strings.Join(body, "\n")
		messages = append(messages, *current)
		current, body = nil, nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, at.ListPrefix) {
			emit()
			sms := parseHeader(line)
			current = &sms
			continue
		}
		if at.IsFinal(line) {
			continue
		}
		if current == nil {
			if line != "" {
				logger.Debug("Unhandled line found", zap.String("line", line))
			}
			continue
		}
		body = append(body, line)
	}
	emit()

	for i := range messages {
		messages[i].Text = decodeBody(messages[i].Text)
	}
	return messages
}

// parseHeader splits +CMGL: <idx>,<status>,<sender>,...,<date>,<time> on
// commas. The layout is rigid: commas inside quoted fields shift positions.
func parseHeader(line string) SMS {
	fields := strings.Split(line, ",")

	var sms SMS
	sms.Index = strings.TrimSpace(strings.TrimPrefix(fields[0], strings.TrimSpace(at.ListPrefix)))
	if len(fields) > 1 {
		sms.Status = unquote(fields[1])
	}
	if len(fields) > 2 {
		sms.Sender = unquote(fields[2])
	}
	if len(fields) > 3 {
		date, clock := fields[len(fields)-2], fields[len(fields)-1]
		ts := date + "T" + clock
		ts = strings.ReplaceAll(ts, "/", "-")
		sms.Time = strings.ReplaceAll(ts, `"`, "")
	}
	return sms
}

func unquote(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "")
}

// decodeBody decodes a body consisting solely of hex digit pairs as
// UTF-16BE. Anything that does not decode cleanly is returned unchanged.
func decodeBody(text string) string {
	m := hexBody.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	raw, err := hex.DecodeString(m[hexBody.SubexpIndex("content")])
	if err != nil {
		return text
	}
	decoded, err := at.DecodeUTF16BE(raw)
	if err != nil {
		return text
	}
	return decoded
}
