package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"i4.energy/across/smswatch/archive"
	"i4.energy/across/smswatch/modem"
	"i4.energy/across/smswatch/notify"
	"i4.energy/across/smswatch/watchdog"
)

const usage = `Usage: smswatch [flags] [command]

Commands:
  watch    check for new messages and notify (default)
  list     print the stored messages
  answer   answer an incoming call
  reset    pulse the modem's reset line
  term     interactive AT command terminal
  serve    run the HTTP inspection server next to the watchdog

Flags:
`

func main() {
	fSet := pflag.NewFlagSet("smswatch", pflag.ExitOnError)
	registerFlags(fSet)
	envFile := fSet.String("env-file", ".env", "Dotenv file to read configuration from")
	fSet.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fSet.PrintDefaults()
	}
	fSet.Parse(os.Args[1:])

	config, err := LoadConfig(WithDefaults(), WithEnv(*envFile), WithFlags(fSet))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(config.LogLevel, config.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := "watch"
	if fSet.NArg() > 0 {
		command = fSet.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, config, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, config *Config, logger *zap.Logger) error {
	filter, err := modem.ParseFilter(config.SMSStatus)
	if err != nil {
		return err
	}
	mode, err := modem.ParseMode(config.SMSMode)
	if err != nil {
		return err
	}

	builder := modem.NewConfigBuilder().
		WithLogger(logger.With(zap.String("component", "modem"))).
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			Mode: &serial.Mode{
				BaudRate: config.BaudRate,
				Parity:   serial.NoParity,
				DataBits: 8,
				StopBits: serial.OneStopBit,
			},
		})
	if command == "reset" {
		pin, err := modem.OpenResetPin(config.ResetPin)
		if err != nil {
			return err
		}
		builder.WithResetPin(pin)
	}
	modemConfig, err := builder.Build()
	if err != nil {
		return fmt.Errorf("create modem config: %w", err)
	}
	m, err := modem.New(modemConfig)
	if err != nil {
		return fmt.Errorf("create modem: %w", err)
	}

	switch command {
	case "watch":
		w, closeFn, err := newWatchdog(ctx, config, m, filter, mode, logger)
		if err != nil {
			return err
		}
		defer closeFn()
		logger.Info("Starting SMS watchdog", zap.String("port", config.SerialPort), zap.Duration("interval", config.PollInterval))
		return w.Run(ctx, config.PollInterval)

	case "list":
		messages, err := m.ListMessages(ctx, filter, mode)
		if err != nil {
			return err
		}
		printMessages(messages)
		return nil

	case "answer":
		res, err := m.AnswerCall(ctx)
		if err != nil {
			return err
		}
		fmt.Println(res.Text())
		return nil

	case "reset":
		return m.Reset(ctx, confirmFrom(os.Stdin, os.Stdout, "Resetting drops any exchange in progress. Reset the modem?"))

	case "term":
		return runTerminal(ctx, m, os.Stdin, os.Stdout)

	case "serve":
		return serve(ctx, config, m, filter, mode, logger)
	}
	return fmt.Errorf("unknown command %q", command)
}

// newWatchdog wires the configured notification channels and archive. The
// returned function releases them.
func newWatchdog(ctx context.Context, config *Config, m *modem.Modem, filter modem.Filter, mode modem.Mode, logger *zap.Logger) (*watchdog.Watchdog, func(), error) {
	var (
		notifiers notify.Multi
		closers   []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if config.TelegramToken != "" {
		tg, err := notify.NewTelegram(config.TelegramToken, config.TelegramChatID)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, tg)
	}
	if config.MQTTBroker != "" {
		mq, err := notify.ConnectMQTT(ctx, notify.MQTTConfig{
			Broker:   config.MQTTBroker,
			ClientID: config.MQTTClientID,
			Username: config.MQTTUsername,
			Password: config.MQTTPassword,
			Topic:    config.MQTTTopic,
		}, logger.With(zap.String("component", "mqtt")))
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, mq)
		closers = append(closers, mq.Close)
	}
	if len(notifiers) == 0 {
		logger.Warn("No notification channel configured, notifications are only logged")
		notifiers = append(notifiers, notify.Log{Logger: logger.With(zap.String("component", "notify"))})
	}

	w := &watchdog.Watchdog{
		Modem:    m,
		Notifier: notifiers,
		Logger:   logger.With(zap.String("component", "watchdog")),
		Filter:   filter,
		Mode:     mode,
	}

	if config.ArchiveDSN != "" {
		store, err := archive.Open(config.ArchiveDSN)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		w.Archive = store
		closers = append(closers, func() { store.Close() })
	}

	return w, closeAll, nil
}

func serve(ctx context.Context, config *Config, m *modem.Modem, filter modem.Filter, mode modem.Mode, logger *zap.Logger) error {
	w, closeFn, err := newWatchdog(ctx, config, m, filter, mode, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	srv := &Server{
		Logger: logger.With(zap.String("component", "server")),
		Modem:  m,
	}
	if store, ok := w.Archive.(*archive.Store); ok {
		srv.Archive = store
	}

	httpServer := &http.Server{
		Addr:    config.BindAddress,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if config.PollInterval > 0 {
		// Runs before closeFn releases the notifiers and the archive.
		defer startWatchdog(ctx, w, config.PollInterval)()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// startWatchdog runs w in the background. The returned stop function
// cancels it and waits for the running cycle to finish.
func startWatchdog(ctx context.Context, w *watchdog.Watchdog, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, interval)
	}()
	return func() {
		cancel()
		<-done
	}
}

func printMessages(messages []modem.SMS) {
	fmt.Printf("Found %d message/s.\n", len(messages))
	for _, msg := range messages {
		fmt.Println("----------------------------------------------------")
		fmt.Printf("Timestamp:   %s\n", msg.Time)
		fmt.Printf("Status:      %s\n", msg.Status)
		fmt.Printf("Index:       %s\n", msg.Index)
		fmt.Printf("From:        %s\n", msg.Sender)
		fmt.Printf("SMS Content:\n%s\n", msg.Text)
	}
	if len(messages) > 0 {
		fmt.Println("----------------------------------------------------")
	}
}
