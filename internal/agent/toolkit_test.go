package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sqlagent/sqlagent/internal/database"
	"github.com/sqlagent/sqlagent/internal/llm"
)

func TestToolkitDefinitions(t *testing.T) {
	withChecker := NewToolkit(&fakeDatabase{}, &scriptedModel{})
	if got := strings.Join(withChecker.Names(), ","); got != "sql_db_list_tables,sql_db_query,sql_db_query_checker,sql_db_schema" {
		t.Fatalf("Names() = %s", got)
	}
	if len(withChecker.Definitions()) != 4 {
		t.Fatalf("Definitions() = %d", len(withChecker.Definitions()))
	}
	withoutChecker := NewToolkit(&fakeDatabase{}, nil)
	if len(withoutChecker.Definitions()) != 3 {
		t.Fatalf("Definitions() without model = %d", len(withoutChecker.Definitions()))
	}
}

func TestToolkitListTables(t *testing.T) {
	toolkit := NewToolkit(&fakeDatabase{tables: []string{"departments", "employees", "projects"}}, nil)
	got, err := toolkit.Call(context.Background(), ToolListTables, "")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "departments, employees, projects" {
		t.Fatalf("Call() = %q", got)
	}
}

func TestToolkitSchemaSplitsTableNames(t *testing.T) {
	db := &fakeDatabase{info: "CREATE TABLE employees ()"}
	toolkit := NewToolkit(db, nil)
	got, err := toolkit.Call(context.Background(), ToolSchema, `{"table_names":" employees, departments ,"}`)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != db.info {
		t.Fatalf("Call() = %q", got)
	}
	if strings.Join(db.infoArgs, "|") != "employees|departments" {
		t.Fatalf("TableInfo args = %#v", db.infoArgs)
	}
	if _, err := toolkit.Call(context.Background(), ToolSchema, `{"table_names":""}`); err == nil {
		t.Fatal("Call() expected error for empty table_names")
	}
}

func TestToolkitQueryEncodesResult(t *testing.T) {
	db := &fakeDatabase{result: database.Result{Columns: []string{"count"}, Rows: [][]any{{6}}}}
	toolkit := NewToolkit(db, nil)
	got, err := toolkit.Call(context.Background(), ToolQuery, `{"query":"SELECT COUNT(*) FROM employees"}`)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != `{"columns":["count"],"rows":[[6]]}` {
		t.Fatalf("Call() = %s", got)
	}
	if len(db.queries) != 1 || db.queries[0] != "SELECT COUNT(*) FROM employees" {
		t.Fatalf("queries = %#v", db.queries)
	}
}

func TestToolkitQueryReturnsDatabaseError(t *testing.T) {
	toolkit := NewToolkit(&fakeDatabase{queryErr: errors.New("no such column: salaryy")}, nil)
	_, err := toolkit.Call(context.Background(), ToolQuery, `{"query":"SELECT salaryy FROM employees"}`)
	if err == nil || !strings.Contains(err.Error(), "salaryy") {
		t.Fatalf("Call() error = %v", err)
	}
}

func TestToolkitRejectsUnknownToolAndBadArguments(t *testing.T) {
	toolkit := NewToolkit(&fakeDatabase{}, nil)
	_, err := toolkit.Call(context.Background(), "drop_everything", "{}")
	if !errors.Is(err, errUnknownTool) || !strings.Contains(err.Error(), "sql_db_query") {
		t.Fatalf("Call(unknown) error = %v", err)
	}
	if _, err := toolkit.Call(context.Background(), ToolQuery, `{"query":`); err == nil {
		t.Fatal("Call() expected error for malformed arguments")
	}
}

func TestToolkitQueryCheckerUsesModel(t *testing.T) {
	model := &scriptedModel{replies: []llm.Message{answer("```sql\nSELECT COUNT(employee_id) FROM employees;\n```")}}
	toolkit := NewToolkit(&fakeDatabase{}, model)
	got, err := toolkit.Call(context.Background(), ToolQueryChecker, `{"query":"SELECT COUNT(employee_id) FROM employees"}`)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "SELECT COUNT(employee_id) FROM employees;" {
		t.Fatalf("Call() = %q", got)
	}
	if len(model.calls) != 1 || !strings.Contains(model.calls[0][0].Content, "Double check the sqlite query above") {
		t.Fatalf("checker prompt = %#v", model.calls)
	}
}
