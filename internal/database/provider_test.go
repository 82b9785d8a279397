package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
)

func TestProviderRequiresURL(t *testing.T) {
	provider := NewProvider(Config{}, testLogger())
	_, err := provider.Handle(context.Background())
	if !errors.Is(err, ErrMissingURL) {
		t.Fatalf("Handle() error = %v, want ErrMissingURL", err)
	}
	if _, err := provider.SchemaInfo(context.Background()); !errors.Is(err, ErrMissingURL) {
		t.Fatalf("SchemaInfo() error = %v, want ErrMissingURL", err)
	}
	if provider.Connected() {
		t.Fatal("Connected() = true after failed build")
	}
}

func TestProviderBuildsHandleOnceUnderConcurrency(t *testing.T) {
	var opens atomic.Int32
	shared := &Handle{dialect: DialectSQLite}
	provider := NewProvider(Config{URL: "sqlite://"}, testLogger())
	provider.open = func(ctx context.Context, cfg Config) (*Handle, error) {
		opens.Add(1)
		return shared, nil
	}

	const callers = 32
	handles := make([]*Handle, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handle, err := provider.Handle(context.Background())
			if err != nil {
				t.Errorf("Handle() error = %v", err)
				return
			}
			handles[i] = handle
		}(i)
	}
	wg.Wait()

	if got := opens.Load(); got != 1 {
		t.Fatalf("open called %d times, want 1", got)
	}
	for i, handle := range handles {
		if handle != shared {
			t.Fatalf("handles[%d] = %p, want %p", i, handle, shared)
		}
	}
}

func TestProviderDoesNotCacheFailures(t *testing.T) {
	calls := 0
	provider := NewProvider(Config{URL: "sqlite://"}, testLogger())
	provider.open = func(ctx context.Context, cfg Config) (*Handle, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return &Handle{dialect: DialectSQLite}, nil
	}

	if _, err := provider.Handle(context.Background()); err == nil {
		t.Fatal("Handle() expected error on first call")
	}
	if _, err := provider.Handle(context.Background()); err != nil {
		t.Fatalf("Handle() retry error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("open calls = %d, want 2", calls)
	}
}

func TestProviderOpensSQLiteAndLoadsSchemaInfo(t *testing.T) {
	provider := NewProvider(Config{URL: "sqlite://", SampleRows: 3}, testLogger())
	t.Cleanup(func() { _ = provider.Close() })

	handle, err := provider.Handle(context.Background())
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if handle.Dialect() != DialectSQLite {
		t.Fatalf("Dialect() = %q", handle.Dialect())
	}
	if _, err := handle.DB().Exec(testSchema); err != nil {
		t.Fatalf("seed schema: %v", err)
	}

	info, err := provider.SchemaInfo(context.Background())
	if err != nil {
		t.Fatalf("SchemaInfo() error = %v", err)
	}
	if info == "" {
		t.Fatal("SchemaInfo() returned empty text")
	}
	if err := provider.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if provider.Connected() {
		t.Fatal("Connected() = true after Close()")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
