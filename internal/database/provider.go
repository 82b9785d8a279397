package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sqlagent/sqlagent/internal/observability"
)

type OpenFunc func(ctx context.Context, cfg Config) (*Handle, error)

// Provider owns the process-wide database handle. The handle is built on the
// first call to Handle and reused afterwards. A failed build is not cached.
type Provider struct {
	cfg    Config
	open   OpenFunc
	logger *slog.Logger

	mu     sync.Mutex
	handle *Handle
}

func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	return &Provider{
		cfg:    cfg,
		open:   Open,
		logger: observability.Component(logger, "database"),
	}
}

func (p *Provider) Handle(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != nil {
		return p.handle, nil
	}
	if strings.TrimSpace(p.cfg.URL) == "" {
		p.logger.ErrorContext(ctx, "database url is not configured")
		return nil, ErrMissingURL
	}

	handle, err := p.open(ctx, p.cfg)
	if err != nil {
		p.logger.ErrorContext(ctx, "connect database", slog.String("url", redact(p.cfg.URL)), slog.Any("error", err))
		return nil, fmt.Errorf("connect database: %w", err)
	}
	p.logger.InfoContext(ctx, "database connected", slog.String("dialect", string(handle.Dialect())))
	p.handle = handle
	return handle, nil
}

func (p *Provider) SchemaInfo(ctx context.Context) (string, error) {
	handle, err := p.Handle(ctx)
	if err != nil {
		return "", err
	}
	info, err := handle.TableInfo(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("load schema info: %w", err)
	}
	return info, nil
}

// Connected reports whether a handle has been built, without building one.
func (p *Provider) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle != nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == nil {
		return nil
	}
	err := p.handle.Close()
	p.handle = nil
	return err
}
