package sqlagentctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqlagent/sqlagent/internal/bootstrap"
	"github.com/sqlagent/sqlagent/internal/database"
)

const DefaultDatabaseURL = "sqlite:///company.db"

type Options struct {
	BaseURL     string
	APIKey      string
	DatabaseURL string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Stdout      io.Writer
	Stderr      io.Writer
}

// commandError marks failures that happened after argument parsing succeeded.
type commandError struct {
	err error
}

func (e *commandError) Error() string { return e.err.Error() }

func (e *commandError) Unwrap() error { return e.err }

func failed(format string, args ...any) error {
	return &commandError{err: fmt.Errorf(format, args...)}
}

// Run executes one sqlagentctl command and returns the process exit code:
// 0 on success, 1 when the command fails, 2 on usage errors.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	root := newRootCommand(defaults)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		return 1
	}
	_, _ = fmt.Fprintln(stderr, "")
	_, _ = fmt.Fprint(stderr, root.UsageString())
	return 2
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newRootCommand(defaults Options) *cobra.Command {
	var (
		baseURL string
		apiKey  string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:           "sqlagentctl",
		Short:         "Operate the SQL agent API and its demo database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8000"), "SQL agent API base URL")
	root.PersistentFlags().StringVar(&apiKey, "api-key", defaults.APIKey, "API key for authenticated requests")
	root.PersistentFlags().DurationVar(&timeout, "timeout", durationOr(defaults.Timeout, 120*time.Second), "HTTP timeout (e.g. 30s)")

	newClient := func() client {
		httpClient := defaults.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: timeout}
		}
		return client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: strings.TrimSpace(apiKey), http: httpClient}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "health",
			Short: "GET /api/v1/health",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return newClient().print(cmd, http.MethodGet, "/api/v1/health", nil)
			},
		},
		&cobra.Command{
			Use:   "ready",
			Short: "GET /api/v1/ready",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return newClient().print(cmd, http.MethodGet, "/api/v1/ready", nil)
			},
		},
		&cobra.Command{
			Use:   "ask <question...>",
			Short: "POST /api/v1/sql-agent/ask",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return newClient().ask(cmd, strings.Join(args, " "))
			},
		},
		newBootstrapCommand(defaults),
	)
	return root
}

func newBootstrapCommand(defaults Options) *cobra.Command {
	var databaseURL string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Drop, create and seed the departments, employees and projects tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := database.ParseURL(databaseURL)
			if err != nil {
				return failed("parse database url: %w", err)
			}
			db, err := database.OpenDB(cmd.Context(), target, database.Config{})
			if err != nil {
				return failed("%w", err)
			}
			defer func() { _ = db.Close() }()

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			summary, err := bootstrap.Run(cmd.Context(), db, logger)
			if err != nil {
				return failed("%w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Database schema created and populated successfully (%s).\n", target.Dialect)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "departments=%d employees=%d projects=%d\n", summary.Departments, summary.Employees, summary.Projects)
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", firstNonEmpty(defaults.DatabaseURL, DefaultDatabaseURL), "database connection URL")
	return cmd
}

func (c client) print(cmd *cobra.Command, method, path string, body any) error {
	code, responseBody, err := c.do(cmd.Context(), method, path, body)
	if err != nil {
		return failed("request failed: %w", err)
	}
	if code >= 400 {
		return failed("http %d: %s", code, strings.TrimSpace(string(responseBody)))
	}
	writeBody(cmd.OutOrStdout(), responseBody)
	return nil
}

func (c client) ask(cmd *cobra.Command, question string) error {
	code, responseBody, err := c.do(cmd.Context(), http.MethodPost, "/api/v1/sql-agent/ask", map[string]string{"question": question})
	if err != nil {
		return failed("request failed: %w", err)
	}
	if code >= 400 {
		return failed("http %d: %s", code, strings.TrimSpace(string(responseBody)))
	}
	var response struct {
		Answer string `json:"answer"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return failed("decode answer: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), response.Answer)
	if response.Status != "success" {
		return failed("agent reported status %q", response.Status)
	}
	return nil
}

func (c client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func writeBody(w io.Writer, raw []byte) {
	if pretty, ok := prettyJSON(raw); ok {
		_, _ = fmt.Fprintln(w, pretty)
		return
	}
	if len(raw) > 0 {
		_, _ = fmt.Fprintln(w, string(raw))
	}
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
