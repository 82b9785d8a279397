package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sqlagent/sqlagent/internal/database"
	"github.com/sqlagent/sqlagent/internal/llm"
	"github.com/sqlagent/sqlagent/internal/observability"
)

type BuildFunc func(ctx context.Context) (*Executor, error)

// Initializer holds the process-wide agent. Concurrent first callers block on
// the same construction and observe the same instance. Failures are returned
// to the caller and not cached. Ready never waits on a build in progress.
type Initializer struct {
	build  BuildFunc
	logger *slog.Logger

	mu    sync.Mutex
	agent atomic.Pointer[Executor]
}

func NewInitializer(build BuildFunc, logger *slog.Logger) *Initializer {
	return &Initializer{build: build, logger: observability.Component(logger, "agent")}
}

func (i *Initializer) Get(ctx context.Context) (*Executor, error) {
	if agent := i.agent.Load(); agent != nil {
		return agent, nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	if agent := i.agent.Load(); agent != nil {
		return agent, nil
	}
	i.logger.InfoContext(ctx, "initializing sql agent")
	agent, err := i.build(ctx)
	observability.ObserveAgentInitialization(err)
	if err != nil {
		i.logger.ErrorContext(ctx, "failed to initialize sql agent", slog.Any("error", err))
		return nil, err
	}
	i.agent.Store(agent)
	i.logger.InfoContext(ctx, "sql agent initialized")
	return agent, nil
}

func (i *Initializer) Ready() bool {
	return i.agent.Load() != nil
}

type DatabaseProvider interface {
	Handle(ctx context.Context) (*database.Handle, error)
	SchemaInfo(ctx context.Context) (string, error)
}

type ModelFactory func() (llm.Model, error)

type BuilderConfig struct {
	MaxIterations int
	TopK          int
	Verbose       bool
	Logger        *slog.Logger
}

func OpenAIModelFactory(cfg llm.OpenAIConfig) ModelFactory {
	return func() (llm.Model, error) {
		client, err := llm.NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// NewBuilder returns the construction used by Initializer: model client,
// database handle, schema-aware prompt, toolkit and executor.
func NewBuilder(cfg BuilderConfig, db DatabaseProvider, newModel ModelFactory) BuildFunc {
	return func(ctx context.Context) (*Executor, error) {
		model, err := newModel()
		if err != nil {
			return nil, fmt.Errorf("create model client: %w", err)
		}
		handle, err := db.Handle(ctx)
		if err != nil {
			return nil, err
		}
		schemaInfo, err := db.SchemaInfo(ctx)
		if err != nil {
			return nil, err
		}
		dialect := string(handle.Dialect())
		prompt := RenderSystemPrompt(dialect, schemaInfo, cfg.TopK)
		return NewExecutor(model, NewToolkit(handle, model), prompt, ExecutorOptions{
			MaxIterations: cfg.MaxIterations,
			Verbose:       cfg.Verbose,
			Dialect:       dialect,
			Logger:        cfg.Logger,
		}), nil
	}
}
