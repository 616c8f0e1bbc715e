// Package cli provides the initialization shared by cmd/fintrack and
// cmd/fintrack-cli.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// SetupLogger builds the process logger at level and installs it as the
// slog default. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	lvl, _ := config.ParseLevel(level)
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Ledger bundles what OpenLedger builds.
type Ledger struct {
	Store   *ledger.Store
	Backend *backend.BackendResult
}

// OpenLedger creates the configured backend and loads the persisted
// sequence from it.
func OpenLedger(ctx context.Context, logger *log.Logger, cfg *config.Config) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	store := ledger.NewStore(res.Store, cfg.StorageKey)
	txs, err := store.Load(ctx)
	if err != nil {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
		return nil, fmt.Errorf("load ledger from %s backend: %w", bcfg.Type, err)
	}
	logger.WithComponent(log.ComponentLedger).Info("Ledger loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldBackend, res.Type,
		log.FieldStorageKey, store.Key(),
		log.FieldCount, len(txs))

	return &Ledger{Store: store, Backend: res}, nil
}

// NewPublisher connects to RabbitMQ when AMQP_URL is set. A connection
// failure is logged and yields no publisher: events are best effort.
func NewPublisher(logger *log.Logger, cfg *config.Config) (services.Publisher, func() error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	amqpLogger := logger.WithComponent(log.ComponentAMQP)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		amqpLogger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil, nil
	}
	amqpLogger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client.Close
}

// NewService wires the ledger, the optional publisher and the cleanup of
// both into a TransactionService.
func NewService(logger *log.Logger, l *Ledger, publisher services.Publisher, closePublisher func() error) *services.TransactionService {
	return services.NewTransactionService(l.Store, publisher, logger, closePublisher, l.Backend.Cleanup)
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
