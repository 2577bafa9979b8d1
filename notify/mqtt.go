package notify

import (
	"context"
	"errors"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Publisher is the part of mqtt.Client the MQTT notifier uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// MQTT publishes notifications to a topic with QoS 1.
type MQTT struct {
	Client Publisher
	Topic  string

	disconnect func()
}

// ConnectMQTT connects to the broker and returns a notifier publishing to
// config.Topic. The client reconnects on its own after a lost connection.
func ConnectMQTT(ctx context.Context, config MQTTConfig, logger *zap.Logger) (*MQTT, error) {
	if config.Broker == "" || config.Topic == "" {
		return nil, errors.New("mqtt broker and topic are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("MQTT connected", zap.String("broker", config.Broker))
	})

	cli := mqtt.NewClient(opts)
	if err := wait(ctx, cli.Connect()); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", config.Broker, err)
	}

	return &MQTT{
		Client:     cli,
		Topic:      config.Topic,
		disconnect: func() { cli.Disconnect(500) },
	}, nil
}

func (m *MQTT) Notify(ctx context.Context, text string) error {
	if err := wait(ctx, m.Client.Publish(m.Topic, 1, false, text)); err != nil {
		return fmt.Errorf("publish to %s: %w", m.Topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	if m.disconnect != nil {
		m.disconnect()
	}
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
