package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sqlagent/sqlagent/internal/database"
	"github.com/sqlagent/sqlagent/internal/llm"
)

const (
	ToolListTables   = "sql_db_list_tables"
	ToolSchema       = "sql_db_schema"
	ToolQueryChecker = "sql_db_query_checker"
	ToolQuery        = "sql_db_query"
)

var errUnknownTool = errors.New("unknown tool")

// Database is the part of database.Handle the toolkit needs.
type Database interface {
	Dialect() database.Dialect
	TableNames(ctx context.Context) ([]string, error)
	TableInfo(ctx context.Context, names []string) (string, error)
	Query(ctx context.Context, sqlText string) (database.Result, error)
}

type toolFunc func(ctx context.Context, args map[string]string) (string, error)

type Toolkit struct {
	db    Database
	model llm.Model
	defs  []llm.Tool
	funcs map[string]toolFunc
}

func NewToolkit(db Database, model llm.Model) *Toolkit {
	t := &Toolkit{db: db, model: model, funcs: map[string]toolFunc{}}
	t.register(llm.Tool{
		Name:        ToolQuery,
		Description: "Input to this tool is a detailed and correct SQL query, output is a result from the database. If the query is not correct, an error message will be returned. If an error is returned, rewrite the query, check the query, and try again. If you encounter an issue with Unknown column 'xxxx' in 'field list', use sql_db_schema to query the correct table fields.",
		Parameters:  stringParams("query", "A detailed and correct SQL query.", true),
	}, t.runQuery)
	t.register(llm.Tool{
		Name:        ToolSchema,
		Description: "Input to this tool is a comma-separated list of tables, output is the schema and sample rows for those tables. Be sure that the tables actually exist by calling sql_db_list_tables first! Example Input: table1, table2, table3",
		Parameters:  stringParams("table_names", "A comma-separated list of the table names for which to return the schema.", true),
	}, t.schema)
	t.register(llm.Tool{
		Name:        ToolListTables,
		Description: "Input is an empty string, output is a comma-separated list of tables in the database.",
		Parameters:  stringParams("tool_input", "An empty string.", false),
	}, t.listTables)
	if model != nil {
		t.register(llm.Tool{
			Name:        ToolQueryChecker,
			Description: "Use this tool to double check if your query is correct before executing it. Always use this tool before executing a query with sql_db_query!",
			Parameters:  stringParams("query", "A detailed and SQL query to be checked.", true),
		}, t.checkQuery)
	}
	return t
}

func (t *Toolkit) register(def llm.Tool, fn toolFunc) {
	t.defs = append(t.defs, def)
	t.funcs[def.Name] = fn
}

func (t *Toolkit) Definitions() []llm.Tool {
	return append([]llm.Tool(nil), t.defs...)
}

func (t *Toolkit) Names() []string {
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named tool. arguments is the raw JSON object sent by the
// model; an empty string is treated as no arguments.
func (t *Toolkit) Call(ctx context.Context, name, arguments string) (string, error) {
	fn, ok := t.funcs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s is not a valid tool, try one of [%s]", errUnknownTool, name, strings.Join(t.Names(), ", "))
	}
	args, err := decodeArguments(arguments)
	if err != nil {
		return "", err
	}
	return fn(ctx, args)
}

func (t *Toolkit) runQuery(ctx context.Context, args map[string]string) (string, error) {
	query := strings.TrimSpace(args["query"])
	if query == "" {
		return "", fmt.Errorf("query argument is required")
	}
	result, err := t.db.Query(ctx, query)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode query result: %w", err)
	}
	return string(encoded), nil
}

func (t *Toolkit) schema(ctx context.Context, args map[string]string) (string, error) {
	names := splitTableNames(args["table_names"])
	if len(names) == 0 {
		return "", fmt.Errorf("table_names argument is required")
	}
	return t.db.TableInfo(ctx, names)
}

func (t *Toolkit) listTables(ctx context.Context, _ map[string]string) (string, error) {
	names, err := t.db.TableNames(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(names, ", "), nil
}

func (t *Toolkit) checkQuery(ctx context.Context, args map[string]string) (string, error) {
	query := strings.TrimSpace(args["query"])
	if query == "" {
		return "", fmt.Errorf("query argument is required")
	}
	reply, err := t.model.Chat(ctx, []llm.Message{llm.UserMessage(renderQueryChecker(string(t.db.Dialect()), query))}, nil)
	if err != nil {
		return "", fmt.Errorf("check query: %w", err)
	}
	checked := stripMarkdownSQL(reply.Content)
	if checked == "" {
		return query, nil
	}
	return checked, nil
}

func decodeArguments(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]string{}, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	args := make(map[string]string, len(decoded))
	for key, value := range decoded {
		switch typed := value.(type) {
		case string:
			args[key] = typed
		case nil:
		default:
			args[key] = fmt.Sprint(typed)
		}
	}
	return args, nil
}

func splitTableNames(raw string) []string {
	names := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}

func stringParams(name, description string, required bool) json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			name: map[string]any{"type": "string", "description": description},
		},
	}
	if required {
		schema["required"] = []string{name}
	}
	encoded, _ := json.Marshal(schema)
	return encoded
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
