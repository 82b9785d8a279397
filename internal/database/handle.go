package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	defaultSampleRows  = 3
	defaultMaxRows     = 200
	maxSampleValueSize = 100
)

type HandleOptions struct {
	SampleRows int
	MaxRows    int
}

// Handle is the shared database connection used by the agent toolkit.
type Handle struct {
	db         *sql.DB
	dialect    Dialect
	schema     introspector
	sampleRows int
	maxRows    int
}

type Result struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated,omitempty"`
}

func NewHandle(db *sql.DB, dialect Dialect, opts HandleOptions) *Handle {
	sampleRows := opts.SampleRows
	if sampleRows < 0 {
		sampleRows = defaultSampleRows
	}
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Handle{
		db:         db,
		dialect:    dialect,
		schema:     introspectorFor(dialect),
		sampleRows: sampleRows,
		maxRows:    maxRows,
	}
}

func (h *Handle) Dialect() Dialect {
	return h.dialect
}

func (h *Handle) DB() *sql.DB {
	return h.db
}

func (h *Handle) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func (h *Handle) Close() error {
	return h.db.Close()
}

func (h *Handle) TableNames(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, h.schema.tablesSQL())
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

// TableInfo renders a CREATE TABLE statement plus sample rows for each of the
// named tables. An empty list means every table.
func (h *Handle) TableInfo(ctx context.Context, names []string) (string, error) {
	available, err := h.TableNames(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		names = available
	} else {
		known := make(map[string]struct{}, len(available))
		for _, name := range available {
			known[name] = struct{}{}
		}
		missing := make([]string, 0)
		for _, name := range names {
			if _, ok := known[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return "", fmt.Errorf("%w: %s", ErrUnknownTable, strings.Join(missing, ", "))
		}
	}

	blocks := make([]string, 0, len(names))
	for _, name := range names {
		table, err := h.schema.describe(ctx, h.db, name)
		if err != nil {
			return "", fmt.Errorf("describe table %q: %w", name, err)
		}
		block := table.createStatement()
		if h.sampleRows > 0 {
			samples, err := h.sampleBlock(ctx, name)
			if err != nil {
				return "", err
			}
			block += "\n\n" + samples
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// Query executes sqlText as given. Rows past the handle's limit are dropped
// and reported through Result.Truncated.
func (h *Handle) Query(ctx context.Context, sqlText string) (Result, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return Result{}, fmt.Errorf("sql is required")
	}
	return h.query(ctx, sqlText, h.maxRows)
}

func (h *Handle) query(ctx context.Context, sqlText string, limit int) (Result, error) {
	rows, err := h.db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	result := Result{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		if len(result.Rows) >= limit {
			result.Truncated = true
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func (h *Handle) sampleBlock(ctx context.Context, table string) (string, error) {
	sqlText := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), h.sampleRows)
	result, err := h.query(ctx, sqlText, h.sampleRows)
	if err != nil {
		return "", fmt.Errorf("sample rows from %q: %w", table, err)
	}

	var b strings.Builder
	b.WriteString("/*\n")
	fmt.Fprintf(&b, "%d rows from %s table:\n", h.sampleRows, table)
	b.WriteString(strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, value := range row {
			cells[i] = sampleValue(value)
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(cells, "\t"))
	}
	b.WriteString("\n*/")
	return b.String(), nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case time.Time:
			normalized[i] = formatTime(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func formatTime(value time.Time) string {
	if value.Hour() == 0 && value.Minute() == 0 && value.Second() == 0 && value.Nanosecond() == 0 {
		return value.Format(time.DateOnly)
	}
	return value.Format(time.RFC3339)
}

func sampleValue(value any) string {
	if value == nil {
		return "NULL"
	}
	text := fmt.Sprint(value)
	if len(text) > maxSampleValueSize {
		text = text[:maxSampleValueSize]
	}
	return text
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
