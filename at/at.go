package at

const (
	// Terminal Control
	CRLF = "\r\n"

	// Response Codes
	OK    = "OK"
	ERROR = "ERROR"

	// Commands
	CmdAt         = "AT"
	CmdAnswerCall = "ATA"
	CmdSetMode    = "AT+CMGF=%d"
	CmdListText   = `AT+CMGL="%s"`
	CmdListPDU    = "AT+CMGL=%d"
	// The trailing 1 asks the modem to leave REC UNREAD messages unread.
	CmdPeekText = `AT+CMGL="%s",1`
	CmdPeekPDU  = "AT+CMGL=%d,1"

	// ListPrefix introduces one record in a +CMGL reply.
	ListPrefix = "+CMGL: "
)

// IsFinal reports whether line terminates a command response.
func IsFinal(line string) bool {
	return line == OK || line == ERROR
}
