package modem

import (
	"time"

	"go.uber.org/zap"

	"i4.energy/across/smswatch/at"
)

const (
	DefaultBaudRate      = 9600
	DefaultReadTimeout   = 5 * time.Second
	DefaultSettleDelay   = 2 * time.Second
	DefaultReadDelay     = 50 * time.Millisecond
	DefaultInitTimeout   = 5 * time.Second
	DefaultATTimeout     = 30 * time.Second
	DefaultResetPulse    = 150 * time.Millisecond
	DefaultResetRecovery = 800 * time.Millisecond
)

// Config holds the settings of a Modem. Use NewConfigBuilder to get one
// populated with the defaults above.
type Config struct {
	Dialer   Dialer
	ResetPin ResetPin
	Logger   *zap.Logger
	// Codecs are tried in order on every chunk read from the modem.
	Codecs []at.Codec

	// SettleDelay is waited after the transport is opened, before the handshake.
	SettleDelay time.Duration
	// ReadDelay is waited after each write, before reading the reply.
	ReadDelay time.Duration
	// InitTimeout bounds the AT handshake.
	InitTimeout time.Duration
	// ATTimeout bounds each command when the caller's context has no deadline.
	ATTimeout time.Duration

	ResetPulse    time.Duration
	ResetRecovery time.Duration
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

// setDefaults fills the fields for which a zero value is never meaningful.
// Delays are left alone: zero is a valid delay.
func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Codecs == nil {
		c.Codecs = at.DefaultCodecs
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = DefaultInitTimeout
	}
	if c.ATTimeout == 0 {
		c.ATTimeout = DefaultATTimeout
	}
}

// ConfigBuilder builds a validated Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder preloaded with the default timings.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: Config{
			Codecs:        at.DefaultCodecs,
			SettleDelay:   DefaultSettleDelay,
			ReadDelay:     DefaultReadDelay,
			InitTimeout:   DefaultInitTimeout,
			ATTimeout:     DefaultATTimeout,
			ResetPulse:    DefaultResetPulse,
			ResetRecovery: DefaultResetRecovery,
		},
	}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithResetPin(p ResetPin) *ConfigBuilder {
	b.config.ResetPin = p
	return b
}

func (b *ConfigBuilder) WithLogger(l *zap.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithCodecs(codecs ...at.Codec) *ConfigBuilder {
	b.config.Codecs = codecs
	return b
}

func (b *ConfigBuilder) WithSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.SettleDelay = d
	return b
}

func (b *ConfigBuilder) WithReadDelay(d time.Duration) *ConfigBuilder {
	b.config.ReadDelay = d
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

// WithResetTiming sets how long the reset line is held low and how long the
// modem is given to recover afterwards.
func (b *ConfigBuilder) WithResetTiming(pulse, recovery time.Duration) *ConfigBuilder {
	b.config.ResetPulse = pulse
	b.config.ResetRecovery = recovery
	return b
}

// Build validates the configuration and returns it.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
