package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sqlagent/sqlagent/internal/llm"
	"github.com/sqlagent/sqlagent/internal/observability"
)

// StoppedOutput is returned when a run exhausts its iteration budget.
const StoppedOutput = "Agent stopped due to iteration limit or time limit."

const maxObservationSize = 16000

type ExecutorOptions struct {
	MaxIterations int
	Verbose       bool
	Dialect       string
	Logger        *slog.Logger
}

type Step struct {
	Tool        string `json:"tool"`
	Input       string `json:"input"`
	Observation string `json:"observation"`
	Failed      bool   `json:"failed,omitempty"`
}

type Result struct {
	Output  string
	Steps   []Step
	Stopped bool
	Model   string
	Dialect string
}

// Executor runs the tool-calling loop: the model either answers or requests
// tools, tool observations are fed back, and the loop repeats until an answer
// or the iteration limit.
type Executor struct {
	model         llm.Model
	toolkit       *Toolkit
	systemPrompt  string
	dialect       string
	maxIterations int
	verbose       bool
	logger        *slog.Logger
}

func NewExecutor(model llm.Model, toolkit *Toolkit, systemPrompt string, opts ExecutorOptions) *Executor {
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 15
	}
	return &Executor{
		model:         model,
		toolkit:       toolkit,
		systemPrompt:  systemPrompt,
		dialect:       opts.Dialect,
		maxIterations: maxIterations,
		verbose:       opts.Verbose,
		logger:        observability.Component(opts.Logger, "agent"),
	}
}

func (e *Executor) Invoke(ctx context.Context, input string) (Result, error) {
	result := Result{Model: e.model.Name(), Dialect: e.dialect}
	messages := []llm.Message{
		llm.SystemMessage(e.systemPrompt),
		llm.UserMessage(input),
	}
	tools := e.toolkit.Definitions()

	for iteration := 1; iteration <= e.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		reply, err := e.model.Chat(ctx, messages, tools)
		if err != nil {
			return result, fmt.Errorf("model call %d: %w", iteration, err)
		}
		messages = append(messages, reply)

		if len(reply.ToolCalls) == 0 {
			result.Output = strings.TrimSpace(reply.Content)
			e.trace(ctx, "agent finished", slog.Int("iteration", iteration), slog.Int("steps", len(result.Steps)))
			return result, nil
		}

		for _, call := range reply.ToolCalls {
			step := e.runTool(ctx, iteration, call)
			result.Steps = append(result.Steps, step)
			messages = append(messages, llm.ToolResultMessage(call.ID, step.Observation))
		}
	}

	observability.IncrementIterationLimit()
	e.logger.WarnContext(ctx, "agent stopped at iteration limit", slog.Int("max_iterations", e.maxIterations))
	result.Output = StoppedOutput
	result.Stopped = true
	return result, nil
}

func (e *Executor) runTool(ctx context.Context, iteration int, call llm.ToolCall) Step {
	step := Step{Tool: call.Name, Input: call.Arguments}
	e.trace(ctx, "invoking tool",
		slog.Int("iteration", iteration),
		slog.String("tool", call.Name),
		slog.String("input", call.Arguments),
	)

	observation, err := e.toolkit.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		step.Failed = true
		observation = "Error: " + err.Error()
	}
	step.Observation = truncateObservation(observation)
	observability.ObserveToolCall(call.Name, step.Failed)

	e.trace(ctx, "tool observation",
		slog.Int("iteration", iteration),
		slog.String("tool", call.Name),
		slog.Bool("failed", step.Failed),
		slog.String("observation", step.Observation),
	)
	return step
}

// truncateObservation cuts at a rune boundary at or below maxObservationSize.
func truncateObservation(observation string) string {
	if len(observation) <= maxObservationSize {
		return observation
	}
	cut := maxObservationSize
	for cut > 0 && !utf8.RuneStart(observation[cut]) {
		cut--
	}
	return observation[:cut] + "\n... (truncated)"
}

func (e *Executor) trace(ctx context.Context, msg string, attrs ...slog.Attr) {
	level := slog.LevelDebug
	if e.verbose {
		level = slog.LevelInfo
	}
	e.logger.LogAttrs(ctx, level, msg, attrs...)
}
