// Package archive persists answered questions as single-row parquet objects so
// past exchanges can be scanned later with DuckDB or any parquet reader.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/sqlagent/sqlagent/internal/storage"
)

const ContentType = "application/vnd.apache.parquet"

type Exchange struct {
	ID         string
	Question   string
	Answer     string
	Status     string
	Error      string
	Dialect    string
	Model      string
	Steps      int
	Stopped    bool
	StartedAt  time.Time
	DurationMs int64
}

type parquetExchange struct {
	ExchangeID      string `parquet:"exchange_id"`
	Question        string `parquet:"question"`
	Answer          string `parquet:"answer"`
	Status          string `parquet:"status"`
	Error           string `parquet:"error"`
	Dialect         string `parquet:"dialect"`
	Model           string `parquet:"model"`
	Steps           int32  `parquet:"steps"`
	Stopped         bool   `parquet:"stopped"`
	StartedAtUnixMs int64  `parquet:"started_at_unix_ms"`
	DurationMs      int64  `parquet:"duration_ms"`
}

func EncodeExchange(exchange Exchange) ([]byte, error) {
	if exchange.ID == "" {
		return nil, fmt.Errorf("exchange id is required")
	}
	row := parquetExchange{
		ExchangeID:      exchange.ID,
		Question:        exchange.Question,
		Answer:          exchange.Answer,
		Status:          exchange.Status,
		Error:           exchange.Error,
		Dialect:         exchange.Dialect,
		Model:           exchange.Model,
		Steps:           int32(exchange.Steps),
		Stopped:         exchange.Stopped,
		StartedAtUnixMs: exchange.StartedAt.UnixMilli(),
		DurationMs:      exchange.DurationMs,
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetExchange](buf)
	if _, err := writer.Write([]parquetExchange{row}); err != nil {
		return nil, fmt.Errorf("write parquet row: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

type Archiver struct {
	store storage.ObjectStore
}

func New(store storage.ObjectStore) (*Archiver, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	return &Archiver{store: store}, nil
}

func (a *Archiver) Record(ctx context.Context, exchange Exchange) error {
	key, err := storage.BuildExchangePath(exchange.ID, exchange.StartedAt)
	if err != nil {
		return err
	}
	data, err := EncodeExchange(exchange)
	if err != nil {
		return err
	}
	if _, err := a.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: ContentType}); err != nil {
		return fmt.Errorf("archive exchange %s: %w", exchange.ID, err)
	}
	return nil
}
