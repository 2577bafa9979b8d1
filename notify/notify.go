// Package notify delivers operator notifications about the modem: new
// messages and failed polls.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

//go:generate go tool mockgen -source=notify.go -destination=mock_notifier.go -package=notify

// Notifier delivers a Markdown formatted text to an operator channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Multi sends every notification to all of its notifiers. A failing
// notifier does not stop the others; their errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes notifications to a logger. It is the channel of last resort
// when nothing else is configured.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(_ context.Context, text string) error {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Notification", zap.String("text", text))
	return nil
}
