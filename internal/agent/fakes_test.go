package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/sqlagent/sqlagent/internal/database"
	"github.com/sqlagent/sqlagent/internal/llm"
)

type scriptedModel struct {
	mu      sync.Mutex
	replies []llm.Message
	err     error
	calls   [][]llm.Message
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]llm.Message(nil), messages...))
	if m.err != nil {
		return llm.Message{}, m.err
	}
	if len(m.replies) == 0 {
		return llm.Message{}, errors.New("no scripted reply")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

type loopingModel struct{ calls int }

func (m *loopingModel) Name() string { return "looping" }

func (m *loopingModel) Chat(context.Context, []llm.Message, []llm.Tool) (llm.Message, error) {
	m.calls++
	return toolCall("call", ToolListTables, ""), nil
}

type fakeDatabase struct {
	tables   []string
	info     string
	infoArgs []string
	result   database.Result
	queryErr error
	queries  []string
}

func (d *fakeDatabase) Dialect() database.Dialect { return database.DialectSQLite }

func (d *fakeDatabase) TableNames(context.Context) ([]string, error) { return d.tables, nil }

func (d *fakeDatabase) TableInfo(_ context.Context, names []string) (string, error) {
	d.infoArgs = names
	return d.info, nil
}

func (d *fakeDatabase) Query(_ context.Context, sqlText string) (database.Result, error) {
	d.queries = append(d.queries, sqlText)
	if d.queryErr != nil {
		return database.Result{}, d.queryErr
	}
	return d.result, nil
}

func toolCall(id, name, arguments string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: arguments}}}
}

func answer(content string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: content}
}
