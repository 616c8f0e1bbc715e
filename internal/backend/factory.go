package backend

import (
	"context"
	"fmt"

	"fintrack/internal/kv"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = f.createMemoryBackend()
	case FileBackend:
		result, err = f.createFileBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLBackend(config.Type, func() (*storage.SQLRepository, error) {
			return storage.NewSQLiteRepository(config.SQLiteDBPath)
		})
	case PostgresBackend:
		result, err = f.createSQLBackend(config.Type, func() (*storage.SQLRepository, error) {
			return storage.NewPostgresRepository(config.DatabaseURL)
		})
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result.Type = config.Type
	if result.Ping == nil {
		store := result.Store
		result.Ping = func(ctx context.Context) error {
			_, _, err := store.Get(ctx, "healthcheck")
			return err
		}
	}
	if result.Cleanup == nil {
		result.Cleanup = func() error { return nil }
	}
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend; data is lost on exit", log.FieldBackend, MemoryBackend)
	return &BackendResult{Store: kv.NewMemoryStore()}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store, err := kv.NewFileStore(config.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	f.logger.Info("Initialized file backend", log.FieldBackend, FileBackend, "path", store.Path())
	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createSQLBackend(bt BackendType, open func() (*storage.SQLRepository, error)) (*BackendResult, error) {
	repo, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", bt, err)
	}

	f.logger.Info("Initialized SQL backend", log.FieldBackend, bt, "dialect", repo.Dialect())
	return &BackendResult{
		Store:   repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", log.FieldBackend, SheetsBackend)
	return &BackendResult{Store: cli}, nil
}
