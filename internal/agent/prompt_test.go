package agent

import (
	"strings"
	"testing"
)

func TestRenderSystemPromptSubstitutesPlaceholders(t *testing.T) {
	prompt := RenderSystemPrompt("sqlite", "\nCREATE TABLE employees (\n\temployee_id INTEGER\n)\n", 5)
	for _, want := range []string{
		"You are connected to a sqlite database.",
		"Schema:\nCREATE TABLE employees (",
		"at most 5 results",
		"Only generate SELECT queries.",
		"SELECT COUNT(employee_id) FROM employees;",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	for _, placeholder := range []string{"{dialect}", "{table_info}", "{top_k}"} {
		if strings.Contains(prompt, placeholder) {
			t.Fatalf("prompt still contains %s", placeholder)
		}
	}
}

func TestRenderSystemPromptDefaultsTopK(t *testing.T) {
	if prompt := RenderSystemPrompt("postgresql", "", 0); !strings.Contains(prompt, "at most 10 results") {
		t.Fatalf("prompt = %s", prompt)
	}
}

func TestRenderQueryChecker(t *testing.T) {
	got := renderQueryChecker("duckdb", " SELECT 1 ")
	if !strings.HasPrefix(got, "SELECT 1\nDouble check the duckdb query above") {
		t.Fatalf("renderQueryChecker() = %q", got)
	}
}
