package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the modem's serial port (e.g. "/dev/serial0")
	SerialPort string `mapstructure:"serial_port"`
	// BaudRate is the baud rate for serial communication with the modem
	BaudRate int `mapstructure:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `mapstructure:"log_level"`
	// LogFile additionally writes JSON logs to this file when set
	LogFile string `mapstructure:"log_file"`
	// PollInterval is the time between two watchdog cycles; 0 runs a single cycle
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// SMSStatus selects the listed messages (unread, read, sent, unsent, all)
	SMSStatus string `mapstructure:"sms_status"`
	// SMSMode is the message format, text or pdu
	SMSMode string `mapstructure:"sms_mode"`
	// ResetPin names the GPIO wired to the modem's RST input
	ResetPin string `mapstructure:"reset_pin"`

	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID string `mapstructure:"telegram_chat_id"`

	MQTTBroker   string `mapstructure:"mqtt_broker"`
	MQTTTopic    string `mapstructure:"mqtt_topic"`
	MQTTClientID string `mapstructure:"mqtt_client_id"`
	MQTTUsername string `mapstructure:"mqtt_username"`
	MQTTPassword string `mapstructure:"mqtt_password"`

	// ArchiveDSN is the SQLite database messages are archived to; empty disables the archive
	ArchiveDSN string `mapstructure:"archive_dsn"`
	// BindAddress is the address the inspection server listens on (e.g. "127.0.0.1:8080")
	BindAddress string `mapstructure:"bind_address"`
}

// settings returns the current values keyed like the mapstructure tags.
func (c *Config) settings() map[string]any {
	return map[string]any{
		"serial_port":      c.SerialPort,
		"baud_rate":        c.BaudRate,
		"log_level":        c.LogLevel,
		"log_file":         c.LogFile,
		"poll_interval":    c.PollInterval,
		"sms_status":       c.SMSStatus,
		"sms_mode":         c.SMSMode,
		"reset_pin":        c.ResetPin,
		"telegram_token":   c.TelegramToken,
		"telegram_chat_id": c.TelegramChatID,
		"mqtt_broker":      c.MQTTBroker,
		"mqtt_topic":       c.MQTTTopic,
		"mqtt_client_id":   c.MQTTClientID,
		"mqtt_username":    c.MQTTUsername,
		"mqtt_password":    c.MQTTPassword,
		"archive_dsn":      c.ArchiveDSN,
		"bind_address":     c.BindAddress,
	}
}

// overlay returns a viper instance that falls back to the current values,
// so that an option only changes what its source actually sets.
func (c *Config) overlay() *viper.Viper {
	v := viper.New()
	for key, value := range c.settings() {
		v.SetDefault(key, value)
	}
	return v
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/serial0"
		c.BaudRate = 9600
		c.LogLevel = "info"
		c.PollInterval = 15 * time.Minute
		c.SMSStatus = "unread"
		c.SMSMode = "text"
		c.ResetPin = "GPIO17"
		c.MQTTTopic = "smswatch/messages"
		c.MQTTClientID = "smswatch"
		c.BindAddress = "127.0.0.1:8080"
		return nil
	}
}

// WithEnv loads configuration from a dotenv file, if one exists at path,
// and then from environment variables, which take precedence.
func WithEnv(path string) ConfigOption {
	return func(c *Config) error {
		if path != "" {
			file := c.overlay()
			file.SetConfigFile(path)
			file.SetConfigType("env")
			err := file.ReadInConfig()
			switch {
			case err == nil:
				if err := file.Unmarshal(c); err != nil {
					return fmt.Errorf("decode %s: %w", path, err)
				}
			case !errors.Is(err, fs.ErrNotExist):
				return fmt.Errorf("read %s: %w", path, err)
			}
		}

		env := c.overlay()
		env.AutomaticEnv()
		if err := env.Unmarshal(c); err != nil {
			return fmt.Errorf("decode environment: %w", err)
		}
		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
// explicitly. Flag names use dashes where the keys use underscores.
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		v := c.overlay()
		var bindErr error
		fSet.Visit(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := c.settings()[key]; !known {
				return
			}
			if err := v.BindPFlag(key, f); err != nil {
				bindErr = errors.Join(bindErr, err)
			}
		})
		if bindErr != nil {
			return bindErr
		}
		if err := v.Unmarshal(c); err != nil {
			return fmt.Errorf("decode flags: %w", err)
		}
		return nil
	}
}

// registerFlags declares the command-line flags understood by WithFlags.
func registerFlags(fSet *pflag.FlagSet) {
	fSet.String("serial-port", "/dev/serial0", "Serial port to connect to the modem")
	fSet.Int("baud-rate", 9600, "Baud rate for serial communication")
	fSet.String("log-level", "info", "Log level (debug, info, warn, error)")
	fSet.String("log-file", "", "Also write JSON logs to this file")
	fSet.Duration("poll-interval", 15*time.Minute, "Time between two checks for new messages, 0 checks once")
	fSet.String("sms-status", "unread", "Messages to list (unread, read, sent, unsent, all)")
	fSet.String("sms-mode", "text", "Message format (text, pdu)")
	fSet.String("reset-pin", "GPIO17", "GPIO wired to the modem's reset input")
	fSet.String("archive-dsn", "", "SQLite database to archive reported messages to")
	fSet.String("bind-address", "127.0.0.1:8080", "Bind address for the HTTP server")
}
