package modem

import (
	"context"
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

//go:generate go tool mockgen -source=reset.go -destination=mock_reset.go -package=modem

// ResetPin is the digital output wired to the modem's RST input. It idles
// high; pulling it low resets the modem. Any periph.io gpio.PinOut
// satisfies it.
type ResetPin interface {
	Out(l gpio.Level) error
}

// OpenResetPin initializes the host GPIO drivers, looks up the named pin
// (for example "GPIO17") and drives it high. It is meant to be called once
// by the process owning the hardware; the returned pin is then passed to the
// Modem through its Config.
func OpenResetPin(name string) (gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init gpio host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("set %s high: %w", name, err)
	}
	return pin, nil
}

// Reset pulses the reset line: low for ResetPulse, then high, then waits
// ResetRecovery for the modem to come back. confirm is asked first and the
// reset only happens if it returns true, since any exchange in progress on
// the modem is lost.
//
// Reset holds the modem lock, so no session can run during the pulse.
func (m *Modem) Reset(ctx context.Context, confirm func() bool) error {
	if m.config.ResetPin == nil {
		return ErrNoResetPin
	}
	if confirm == nil || !confirm() {
		return ErrResetDeclined
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pin := m.config.ResetPin
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("pull reset line low: %w", err)
	}
	if err := sleep(ctx, m.config.ResetPulse); err != nil {
		// Never leave the modem held in reset.
		if herr := pin.Out(gpio.High); herr != nil {
			return errors.Join(err, fmt.Errorf("release reset line: %w", herr))
		}
		return err
	}
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("release reset line: %w", err)
	}
	if err := sleep(ctx, m.config.ResetRecovery); err != nil {
		return err
	}

	m.logger.Info("Sent pulse for resetting module")
	return nil
}
