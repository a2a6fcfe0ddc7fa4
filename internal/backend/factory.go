package backend

import (
	"context"
	"fmt"
	"time"

	"giftwallet/internal/amqp"
	"giftwallet/internal/log"
	"giftwallet/internal/memory"
	"giftwallet/internal/services"
	"giftwallet/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed, err := memory.LoadSeed(config.SeedFile)
	if err != nil {
		return nil, err
	}

	var repo services.Repository
	var closeRepo func() error

	switch config.Type {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		if err := sqliteRepo.SeedIfEmpty(ctx, seed); err != nil {
			sqliteRepo.Close()
			return nil, fmt.Errorf("seed SQLite repository: %w", err)
		}
		repo, closeRepo = sqliteRepo, sqliteRepo.Close
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store, err := memory.NewSeeded(seed)
		if err != nil {
			return nil, fmt.Errorf("seed memory backend: %w", err)
		}
		repo = store
		f.logger.Info("Initialized memory backend", log.FieldCount, len(seed))
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	// AMQP is optional; a broker that is down at startup only disables events
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	opts := services.Options{
		ListCacheTTL: config.ListCacheTTL,
		Logger:       f.logger,
	}
	var outbox *services.OutboxProcessor
	if amqpClient != nil {
		outbox = services.NewOutboxProcessor(amqpClient, services.DefaultOutboxConfig(), f.logger)
		if err := outbox.Start(ctx); err != nil {
			amqpClient.Close()
			if closeRepo != nil {
				closeRepo()
			}
			return nil, fmt.Errorf("start event outbox: %w", err)
		}
		opts.Outbox = outbox
	}

	svc := services.NewCardService(repo, publisher, opts)
	if outbox != nil {
		svc.OnClose(func() error {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return outbox.Stop(stopCtx)
		})
		svc.OnClose(amqpClient.Close)
	}
	if closeRepo != nil {
		svc.OnClose(closeRepo)
	}

	return &BackendResult{
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}
