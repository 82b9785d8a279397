// Package gateway forwards user questions to the SQL agent and folds every
// invocation outcome into an Answer.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sqlagent/sqlagent/internal/agent"
	"github.com/sqlagent/sqlagent/internal/archive"
	"github.com/sqlagent/sqlagent/internal/observability"
)

const (
	NoOutputAnswer    = "No direct output from agent."
	errorAnswerPrefix = "An error occurred while processing your request: "
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type Agent interface {
	Invoke(ctx context.Context, input string) (agent.Result, error)
}

// AgentSource returns the shared agent, constructing it on first use.
type AgentSource func(ctx context.Context) (Agent, error)

type Recorder interface {
	Record(ctx context.Context, exchange archive.Exchange) error
}

type Answer struct {
	ID       string
	Text     string
	Status   Status
	Err      error
	Steps    int
	Duration time.Duration
}

type Options struct {
	Recorder      Recorder
	RecordTimeout time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

type Gateway struct {
	agents        AgentSource
	recorder      Recorder
	recordTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func New(agents AgentSource, opts Options) *Gateway {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	recordTimeout := opts.RecordTimeout
	if recordTimeout <= 0 {
		recordTimeout = 5 * time.Second
	}
	return &Gateway{
		agents:        agents,
		recorder:      opts.Recorder,
		recordTimeout: recordTimeout,
		logger:        observability.Component(opts.Logger, "gateway"),
		now:           now,
	}
}

// Ask answers question. The returned error is reserved for agent construction
// failures; invocation failures come back as an Answer with StatusError.
func (g *Gateway) Ask(ctx context.Context, question string) (Answer, error) {
	sqlAgent, err := g.agents(ctx)
	if err != nil {
		return Answer{}, fmt.Errorf("initialize sql agent: %w", err)
	}

	started := g.now()
	answer := Answer{ID: uuid.NewString()}
	g.logger.InfoContext(ctx, "received query for sql agent",
		slog.String("exchange_id", answer.ID),
		slog.String("question", question),
	)

	result, err := invoke(ctx, sqlAgent, question)
	answer.Duration = g.now().Sub(started)
	answer.Steps = len(result.Steps)
	if err != nil {
		answer.Status = StatusError
		answer.Err = err
		answer.Text = errorAnswerPrefix + err.Error()
		g.logger.ErrorContext(ctx, "error querying sql agent",
			slog.String("exchange_id", answer.ID),
			slog.String("question", question),
			slog.Any("error", err),
		)
	} else {
		answer.Status = StatusSuccess
		answer.Text = result.Output
		if strings.TrimSpace(answer.Text) == "" {
			answer.Text = NoOutputAnswer
		}
		g.logger.InfoContext(ctx, "agent response",
			slog.String("exchange_id", answer.ID),
			slog.String("question", question),
			slog.String("answer", answer.Text),
			slog.Int("steps", answer.Steps),
			slog.Bool("stopped", result.Stopped),
		)
	}
	observability.ObserveAgentInvocation(string(answer.Status), answer.Duration)

	g.record(ctx, question, answer, result, started)
	return answer, nil
}

func invoke(ctx context.Context, sqlAgent Agent, question string) (result agent.Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("agent panic: %v", recovered)
		}
	}()
	return sqlAgent.Invoke(ctx, question)
}

func (g *Gateway) record(ctx context.Context, question string, answer Answer, result agent.Result, started time.Time) {
	if g.recorder == nil {
		return
	}
	exchange := archive.Exchange{
		ID:         answer.ID,
		Question:   question,
		Answer:     answer.Text,
		Status:     string(answer.Status),
		Dialect:    result.Dialect,
		Model:      result.Model,
		Steps:      answer.Steps,
		Stopped:    result.Stopped,
		StartedAt:  started.UTC(),
		DurationMs: answer.Duration.Milliseconds(),
	}
	if answer.Err != nil {
		exchange.Error = answer.Err.Error()
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.recordTimeout)
	defer cancel()
	err := g.recorder.Record(recordCtx, exchange)
	observability.ObserveArchiveWrite(err)
	if err != nil {
		g.logger.WarnContext(ctx, "archive exchange", slog.String("exchange_id", answer.ID), slog.Any("error", err))
	}
}
