package modem_test

import (
	"slices"
	"strings"
	"testing"

	"i4.energy/across/smswatch/modem"
)

func TestParseMessageList(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected []modem.SMS
	}{
		{
			name: "Single message",
			lines: []string{
				`+CMGL: 3,"REC UNREAD","+1555",,,"23/01/05","10:20:33"`,
				"Hello",
				"OK",
			},
			expected: []modem.SMS{
				{Index: "3", Status: "REC UNREAD", Sender: "+1555", Time: "23-01-05T10:20:33", Text: "Hello"},
			},
		},
		{
			name: "Combined date and time field",
			lines: []string{
				`+CMGL: 1,"REC READ","+31628870634","","23/11/02,18:07:21+04"`,
				"Ping",
				"",
				"OK",
			},
			expected: []modem.SMS{
				{Index: "1", Status: "REC READ", Sender: "+31628870634", Time: "23-11-02T18:07:21+04", Text: "Ping"},
			},
		},
		{
			name: "Multi-line body and trailing blank lines",
			lines: []string{
				`+CMGL: 4,"REC READ","+1555",,,"23/01/05","10:20:33"`,
				"first",
				"",
				"third",
				"",
				"",
				"OK",
			},
			expected: []modem.SMS{
				{Index: "4", Status: "REC READ", Sender: "+1555", Time: "23-01-05T10:20:33", Text: "first\n\nthird"},
			},
		},
		{
			name: "Lines before the first header are dropped",
			lines: []string{
				`AT+CMGL="ALL"`,
				"+CMTI: \"SM\",2",
				`+CMGL: 2,"STO SENT","+1666",,,"23/02/01","00:00:01"`,
				"Sent text",
				"OK",
			},
			expected: []modem.SMS{
				{Index: "2", Status: "STO SENT", Sender: "+1666", Time: "23-02-01T00:00:01", Text: "Sent text"},
			},
		},
		{
			name: "Hex body decoded as UTF-16BE",
			lines: []string{
				`+CMGL: 5,"REC UNREAD","+1555",,,"23/01/05","10:20:33"`,
				"00480069",
				"OK",
			},
			expected: []modem.SMS{
				{Index: "5", Status: "REC UNREAD", Sender: "+1555", Time: "23-01-05T10:20:33", Text: "Hi"},
			},
		},
		{
			name: "Lowercase hex is left alone",
			lines: []string{
				`+CMGL: 6,"REC UNREAD","+1555",,,"23/01/05","10:20:33"`,
				"00480069ab",
				"OK",
			},
			expected: []modem.SMS{
				{Index: "6", Status: "REC UNREAD", Sender: "+1555", Time: "23-01-05T10:20:33", Text: "00480069ab"},
			},
		},
		{
			name: "Unpaired surrogate is left alone",
			lines: []string{
				`+CMGL: 7,"REC UNREAD","+1555",,,"23/01/05","10:20:33"`,
				"D800",
				"OK",
			},
			expected: []modem.SMS{
				{Index: "7", Status: "REC UNREAD", Sender: "+1555", Time: "23-01-05T10:20:33", Text: "D800"},
			},
		},
		{
			name: "Header without timestamp",
			lines: []string{
				`+CMGL: 8,"STO UNSENT","+1777"`,
				"Draft",
			},
			expected: []modem.SMS{
				{Index: "8", Status: "STO UNSENT", Sender: "+1777", Text: "Draft"},
			},
		},
		{
			name:     "Empty input",
			lines:    nil,
			expected: nil,
		},
		{
			name:     "Only a terminator",
			lines:    []string{"OK"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := modem.ParseMessageList(tt.lines, nil)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestParseMessageListProperties(t *testing.T) {
	lines := []string{
		"noise",
		`+CMGL: 1,"REC UNREAD","+1",,,"23/01/01","01:00:00"`,
		"one",
		"OK",
		`+CMGL: 2,"REC UNREAD","+2",,,"23/01/02","02:00:00"`,
		"ERROR",
		"two",
		`+CMGL: 3,"REC READ","+3",,,"23/01/03","03:00:00"`,
		`+CMGL: 4,"REC READ","+4",,,"23/01/04","04:00:00"`,
		"four",
		"OK",
	}

	got := modem.ParseMessageList(lines, nil)

	headers := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "+CMGL: ") {
			headers++
		}
	}
	if len(got) != headers {
		t.Fatalf("expected %d messages, got %d", headers, len(got))
	}

	for i, sms := range got {
		for _, l := range strings.Split(sms.Text, "\n") {
			if l == "OK" || l == "ERROR" {
				t.Errorf("message %d carries terminal line in body %q", i, sms.Text)
			}
		}
	}

	indexes := make([]string, len(got))
	for i, sms := range got {
		indexes[i] = sms.Index
	}
	if !slices.Equal(indexes, []string{"1", "2", "3", "4"}) {
		t.Errorf("messages out of order: %v", indexes)
	}
	if got[2].Text != "" {
		t.Errorf("expected empty body for message 3, got %q", got[2].Text)
	}
}

func TestParseMessageListIdempotentOnUndecodable(t *testing.T) {
	for _, body := range []string{"D800", "ZZ", "ABC", "hello"} {
		lines := []string{`+CMGL: 1,"REC UNREAD","+1",,,"23/01/01","01:00:00"`, body}

		first := modem.ParseMessageList(lines, nil)
		lines[1] = first[0].Text
		second := modem.ParseMessageList(lines, nil)

		if first[0].Text != body || second[0].Text != body {
			t.Errorf("body %q changed: %q then %q", body, first[0].Text, second[0].Text)
		}
	}
}

func TestParseMessageListPDU(t *testing.T) {
	lines := []string{
		"+CMGL: 1,0,,24",
		"07911326040000F0040B911346610089F60000208062917314080CC8F71D14969741F977FD07",
		"+CMGL: 2,1,,3",
		"NOTAPDU",
		"",
		"OK",
	}

	got := modem.ParseMessageListPDU(lines, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}

	if got[0].Index != "1" || got[0].Status != "REC UNREAD" {
		t.Errorf("unexpected header fields %+v", got[0])
	}
	if got[0].Text != "How are you?" {
		t.Errorf("unexpected text %q", got[0].Text)
	}
	if !strings.HasSuffix(got[0].Sender, "31641600986") {
		t.Errorf("unexpected sender %q", got[0].Sender)
	}

	if got[1].Status != "REC READ" || got[1].Text != "NOTAPDU" {
		t.Errorf("undecodable PDU should keep its raw text, got %+v", got[1])
	}
}

func TestParseMessageListPDUEmptyUserData(t *testing.T) {
	lines := []string{
		"+CMGL: 1,0,,19",
		"00040B911346610089F600002080629173140800",
		"07911326040000F0040B911346610089F60000208062917314080CC8F71D14969741F977FD07",
		"OK",
	}

	got := modem.ParseMessageListPDU(lines, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Text == "How are you?" {
		t.Error("a line after the PDU was decoded into the same message")
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want modem.Filter
	}{
		{"unread", modem.FilterUnread},
		{"REC UNREAD", modem.FilterUnread},
		{"read", modem.FilterRead},
		{"Rec Read", modem.FilterRead},
		{"unsent", modem.FilterUnsent},
		{"STO SENT", modem.FilterSent},
		{" all ", modem.FilterAll},
	}
	for _, tt := range tests {
		got, err := modem.ParseFilter(tt.in)
		if err != nil {
			t.Errorf("ParseFilter(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := modem.ParseFilter("inbox"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestFilterNames(t *testing.T) {
	tests := []struct {
		filter modem.Filter
		text   string
		pdu    int
	}{
		{modem.FilterUnread, "REC UNREAD", 0},
		{modem.FilterRead, "REC READ", 1},
		{modem.FilterUnsent, "STO UNSENT", 2},
		{modem.FilterSent, "STO SENT", 3},
		{modem.FilterAll, "ALL", 4},
	}
	for _, tt := range tests {
		if tt.filter.String() != tt.text {
			t.Errorf("expected %q, got %q", tt.text, tt.filter.String())
		}
		if tt.filter.PDU() != tt.pdu {
			t.Errorf("%s: expected stat %d, got %d", tt.text, tt.pdu, tt.filter.PDU())
		}
	}
}

func TestModeCMGF(t *testing.T) {
	var zero modem.Mode
	if zero != modem.ModeText {
		t.Errorf("zero Mode is %v, want text", zero)
	}
	if modem.ModeText.CMGF() != 1 || modem.ModePDU.CMGF() != 0 {
		t.Errorf("unexpected CMGF values text=%d pdu=%d", modem.ModeText.CMGF(), modem.ModePDU.CMGF())
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]modem.Mode{"": modem.ModeText, "text": modem.ModeText, "PDU": modem.ModePDU} {
		got, err := modem.ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := modem.ParseMode("binary"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
