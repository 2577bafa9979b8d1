package modem_test

import (
	"fmt"
	"testing"
	"time"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/smswatch/modem"
)

// readSize matches the buffer the line reader hands to Transport.Read.
const readSize = 256

type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// Exchange expects cmd to be written and answers with resp, split over as
// many reads as needed.
func (b *MockSequenceBuilder) Exchange(cmd, resp string) *MockSequenceBuilder {
	wire := cmd + "\r\n"
	b.calls = append(b.calls, b.transport.EXPECT().Write([]byte(wire)).Return(len(wire), nil))
	for len(resp) > 0 {
		n := min(readSize, len(resp))
		chunk := resp[:n]
		resp = resp[n:]
		b.calls = append(b.calls,
			b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
				return copy(p, chunk), nil
			}),
		)
	}
	return b
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.Exchange("AT", "AT\r\nOK\r\n")
}

func (b *MockSequenceBuilder) ATRejected() *MockSequenceBuilder {
	return b.Exchange("AT", "AT\r\nERROR\r\n")
}

func (b *MockSequenceBuilder) SMSMode(mode modem.Mode) *MockSequenceBuilder {
	cmd := fmt.Sprintf("AT+CMGF=%d", mode.CMGF())
	return b.Exchange(cmd, cmd+"\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SMSModeRejected(mode modem.Mode) *MockSequenceBuilder {
	cmd := fmt.Sprintf("AT+CMGF=%d", mode.CMGF())
	return b.Exchange(cmd, cmd+"\r\nERROR\r\n")
}

func (b *MockSequenceBuilder) ListText(filter modem.Filter, body string) *MockSequenceBuilder {
	cmd := fmt.Sprintf(`AT+CMGL="%s"`, filter)
	return b.Exchange(cmd, cmd+"\r\n"+body)
}

func (b *MockSequenceBuilder) ListPDU(filter modem.Filter, body string) *MockSequenceBuilder {
	cmd := fmt.Sprintf("AT+CMGL=%d", filter.PDU())
	return b.Exchange(cmd, cmd+"\r\n"+body)
}

func (b *MockSequenceBuilder) PeekText(filter modem.Filter, body string) *MockSequenceBuilder {
	cmd := fmt.Sprintf(`AT+CMGL="%s",1`, filter)
	return b.Exchange(cmd, cmd+"\r\n"+body)
}

func (b *MockSequenceBuilder) PeekPDU(filter modem.Filter, body string) *MockSequenceBuilder {
	cmd := fmt.Sprintf("AT+CMGL=%d,1", filter.PDU())
	return b.Exchange(cmd, cmd+"\r\n"+body)
}

func (b *MockSequenceBuilder) Close(err error) *MockSequenceBuilder {
	b.calls = append(b.calls, b.transport.EXPECT().Close().Return(err))
	return b
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

// testConfig returns a config with no settle or read delays.
func testConfig(t *testing.T, dialer modem.Dialer) *modem.ConfigBuilder {
	t.Helper()
	return modem.NewConfigBuilder().
		WithDialer(dialer).
		WithSettleDelay(0).
		WithReadDelay(0).
		WithInitTimeout(time.Second).
		WithATTimeout(time.Second)
}

func newTestModem(t *testing.T, b *modem.ConfigBuilder) *modem.Modem {
	t.Helper()
	config, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}
	m, err := modem.New(config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	return m
}
