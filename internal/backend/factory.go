package backend

import (
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/memory"
	"expenses/internal/services"
	"expenses/internal/storage"
)

// Interface conformance for both concrete stores.
var (
	_ Backend = (*services.ExpenseService)(nil)
	_ Backend = (*memory.Store)(nil)
)

// Factory creates backends based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateBackend builds the configured backend with its cleanup function.
func (f *Factory) CreateBackend(config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *Factory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewRepository(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	// AMQP is optional: without it the service is a plain CRUD server and
	// the sheets export pipeline stays idle.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("initialize AMQP client: %w", err)
		}
		f.logger.Info("AMQP event publishing enabled", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
	} else {
		f.logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	service := services.NewExpenseService(repo, amqpClient)
	return &Result{
		Backend: service,
		Cleanup: service.Close,
	}, nil
}

func (f *Factory) createMemoryBackend() (*Result, error) {
	f.logger.Info("Using in-memory backend - data is not persisted")
	return &Result{
		Backend: memory.New(),
		Cleanup: func() error { return nil },
	}, nil
}
