package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Column struct {
	Name    string
	Type    string
	NotNull bool
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

type TableSchema struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

func (t TableSchema) createStatement() string {
	lines := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	for _, column := range t.Columns {
		line := "\t" + column.Name + " " + column.Type
		if column.NotNull {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}
	if len(t.PrimaryKey) > 0 {
		lines = append(lines, "\tPRIMARY KEY ("+strings.Join(t.PrimaryKey, ", ")+")")
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, fmt.Sprintf("\tFOREIGN KEY(%s) REFERENCES %s (%s)", fk.Column, fk.RefTable, fk.RefColumn))
	}
	return "CREATE TABLE " + t.Name + " (\n" + strings.Join(lines, ", \n") + "\n)"
}

type introspector interface {
	tablesSQL() string
	describe(ctx context.Context, db *sql.DB, table string) (TableSchema, error)
}

func introspectorFor(dialect Dialect) introspector {
	switch dialect {
	case DialectSQLite:
		return sqliteIntrospector{}
	case DialectDuckDB:
		return informationSchemaIntrospector{foreignKeys: false}
	default:
		return informationSchemaIntrospector{foreignKeys: true}
	}
}

type sqliteIntrospector struct{}

func (sqliteIntrospector) tablesSQL() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
}

func (sqliteIntrospector) describe(ctx context.Context, db *sql.DB, table string) (TableSchema, error) {
	schema := TableSchema{Name: table}

	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return TableSchema{}, fmt.Errorf("table info: %w", err)
	}
	type pkColumn struct {
		name     string
		position int
	}
	primary := make([]pkColumn, 0)
	for rows.Next() {
		var (
			cid          int
			name         string
			columnType   string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &name, &columnType, &notNull, &defaultValue, &pk); err != nil {
			_ = rows.Close()
			return TableSchema{}, fmt.Errorf("scan table info: %w", err)
		}
		schema.Columns = append(schema.Columns, Column{Name: name, Type: columnType, NotNull: notNull != 0})
		if pk > 0 {
			primary = append(primary, pkColumn{name: name, position: pk})
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return TableSchema{}, fmt.Errorf("iterate table info: %w", err)
	}
	_ = rows.Close()
	for position := 1; position <= len(primary); position++ {
		for _, column := range primary {
			if column.position == position {
				schema.PrimaryKey = append(schema.PrimaryKey, column.name)
			}
		}
	}

	fkRows, err := db.QueryContext(ctx, "PRAGMA foreign_key_list("+quoteIdent(table)+")")
	if err != nil {
		return TableSchema{}, fmt.Errorf("foreign key list: %w", err)
	}
	defer func() { _ = fkRows.Close() }()
	for fkRows.Next() {
		var (
			id, seq                   int
			refTable, from            string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return TableSchema{}, fmt.Errorf("scan foreign key: %w", err)
		}
		schema.ForeignKeys = append(schema.ForeignKeys, ForeignKey{Column: from, RefTable: refTable, RefColumn: to.String})
	}
	if err := fkRows.Err(); err != nil {
		return TableSchema{}, fmt.Errorf("iterate foreign keys: %w", err)
	}
	return schema, nil
}

// informationSchemaIntrospector serves PostgreSQL and DuckDB, which both expose
// information_schema and current_schema().
type informationSchemaIntrospector struct {
	foreignKeys bool
}

func (informationSchemaIntrospector) tablesSQL() string {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`
}

const columnsSQL = `SELECT column_name, data_type, is_nullable FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`

const primaryKeySQL = `SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
 AND tc.table_name = kcu.table_name
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = current_schema()
  AND tc.table_name = $1
ORDER BY kcu.ordinal_position`

const foreignKeySQL = `SELECT kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name
 AND ccu.constraint_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_schema = current_schema()
  AND tc.table_name = $1
ORDER BY kcu.ordinal_position`

func (i informationSchemaIntrospector) describe(ctx context.Context, db *sql.DB, table string) (TableSchema, error) {
	schema := TableSchema{Name: table}

	rows, err := db.QueryContext(ctx, columnsSQL, table)
	if err != nil {
		return TableSchema{}, fmt.Errorf("columns: %w", err)
	}
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			_ = rows.Close()
			return TableSchema{}, fmt.Errorf("scan column: %w", err)
		}
		schema.Columns = append(schema.Columns, Column{
			Name:    name,
			Type:    strings.ToUpper(dataType),
			NotNull: strings.EqualFold(nullable, "NO"),
		})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return TableSchema{}, fmt.Errorf("iterate columns: %w", err)
	}
	_ = rows.Close()

	schema.PrimaryKey, err = scanStrings(ctx, db, primaryKeySQL, table)
	if err != nil {
		return TableSchema{}, fmt.Errorf("primary key: %w", err)
	}
	if !i.foreignKeys {
		return schema, nil
	}

	fkRows, err := db.QueryContext(ctx, foreignKeySQL, table)
	if err != nil {
		return TableSchema{}, fmt.Errorf("foreign keys: %w", err)
	}
	defer func() { _ = fkRows.Close() }()
	for fkRows.Next() {
		var fk ForeignKey
		if err := fkRows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return TableSchema{}, fmt.Errorf("scan foreign key: %w", err)
		}
		schema.ForeignKeys = append(schema.ForeignKeys, fk)
	}
	if err := fkRows.Err(); err != nil {
		return TableSchema{}, fmt.Errorf("iterate foreign keys: %w", err)
	}
	return schema, nil
}

func scanStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}
