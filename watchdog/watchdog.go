// Package watchdog polls the modem for stored messages and forwards them to
// the operator.
package watchdog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"i4.energy/across/smswatch/modem"
	"i4.energy/across/smswatch/notify"
)

//go:generate go tool mockgen -source=watchdog.go -destination=mock_watchdog.go -package=watchdog

// Lister lists messages stored on the modem. *modem.Modem satisfies it.
type Lister interface {
	ListMessages(ctx context.Context, filter modem.Filter, mode modem.Mode) ([]modem.SMS, error)
}

// Archive stores reported messages. *archive.Store satisfies it.
type Archive interface {
	Save(ctx context.Context, messages []modem.SMS) error
}

const (
	MailMessage  = "You've got mail!"
	errorHeading = "Error while checking for new sms messages."
)

// Watchdog runs poll cycles: list, notify, archive.
type Watchdog struct {
	Modem    Lister
	Notifier notify.Notifier
	// Archive is optional.
	Archive Archive
	Logger  *zap.Logger

	Filter modem.Filter
	Mode   modem.Mode
}

// RunOnce performs one poll cycle. A failed listing is reported to the
// notifier and returned. Notification and archive failures are logged only,
// so that one broken channel does not hide new messages from the others.
func (w *Watchdog) RunOnce(ctx context.Context) ([]modem.SMS, error) {
	logger := w.logger()

	messages, err := w.Modem.ListMessages(ctx, w.Filter, w.Mode)
	if err != nil {
		logger.Error("Error while checking for new SMS", zap.Error(err))
		if nerr := w.Notifier.Notify(ctx, FormatError(err)); nerr != nil {
			logger.Error("Failed to send error notification", zap.Error(nerr))
		}
		return nil, err
	}

	if len(messages) == 0 {
		logger.Info("No messages found.")
		return nil, nil
	}

	w.notify(ctx, MailMessage)
	logger.Info(fmt.Sprintf("Found %d message/s.", len(messages)))
	for _, sms := range messages {
		w.notify(ctx, FormatSMS(sms))
	}

	if w.Archive != nil {
		if err := w.Archive.Save(ctx, messages); err != nil {
			logger.Error("Failed to archive messages", zap.Error(err))
		}
	}
	return messages, nil
}

// Run performs a cycle immediately and then every interval until ctx ends.
// Cycle errors are already reported by RunOnce and do not stop the loop.
// With interval <= 0 a single cycle is run and its error returned.
func (w *Watchdog) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		_, err := w.RunOnce(ctx)
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watchdog) notify(ctx context.Context, text string) {
	if err := w.Notifier.Notify(ctx, text); err != nil {
		w.logger().Error("Failed to send notification", zap.Error(err))
	}
}

func (w *Watchdog) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

// FormatSMS renders a message for a Markdown chat.
func FormatSMS(sms modem.SMS) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```Timestamp:   ```%s\n", sms.Time)
	fmt.Fprintf(&b, "```Status:      ```%s\n", sms.Status)
	fmt.Fprintf(&b, "```Index:       ```%s\n", sms.Index)
	fmt.Fprintf(&b, "```From:        ```%s\n", sms.Sender)
	fmt.Fprintf(&b, "```SMS Content:```\n%s", sms.Text)
	return b.String()
}

// FormatError renders a failed poll for a Markdown chat.
func FormatError(err error) string {
	return strings.Join([]string{errorHeading, "**Error message**:", err.Error()}, "\n\n")
}
