package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m4xw311/sleuth/config"
)

// setupWorkspace creates an isolated home and working directory holding the
// prompt templates.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	files := map[string]string{
		config.DefaultPromptTemplate: "${tools}\nQuestion: ${question}\nThought:",
		config.DefaultMergeTemplate:  "${history}\nFollow up: ${question}\nStandalone question:",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestRootCmdAnswersWithMockBackend(t *testing.T) {
	setupWorkspace(t)

	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader("hello\n/exit\n"), &out)
	cmd.SetArgs([]string{"--llm", "mock", "--log-level", "error"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out.String(), "you said") {
		t.Errorf("expected mock answer in output, got %q", out.String())
	}
}

func TestRootCmdMissingTemplateIsFatal(t *testing.T) {
	dir := setupWorkspace(t)
	if err := os.Remove(filepath.Join(dir, config.DefaultMergeTemplate)); err != nil {
		t.Fatalf("Failed to remove template: %v", err)
	}

	cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{})
	cmd.SetArgs([]string{"--llm", "mock", "--log-level", "error"})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a missing template")
	}
}

func TestRootCmdRejectsInvalidTemperature(t *testing.T) {
	setupWorkspace(t)

	cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{})
	cmd.SetArgs([]string{"--llm", "mock", "--temperature", "1.5"})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for temperature out of range")
	}
}

func TestApplyFlagsOnlyOverridesChangedFlags(t *testing.T) {
	cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{})
	if err := cmd.Flags().Set("model", "mistral"); err != nil {
		t.Fatalf("Failed to set flag: %v", err)
	}
	if err := cmd.Flags().Set("max-turns", "3"); err != nil {
		t.Fatalf("Failed to set flag: %v", err)
	}

	f := &cliFlags{model: "mistral", maxTurns: 3}
	cfg := config.Default()
	if err := applyFlags(cmd, f, cfg); err != nil {
		t.Fatalf("applyFlags failed: %v", err)
	}
	if cfg.Model != "mistral" || cfg.MaxTurns != 3 {
		t.Errorf("expected flag overrides, got model=%q max_turns=%d", cfg.Model, cfg.MaxTurns)
	}
	if cfg.Temperature != 0.5 || cfg.LLMClient != "ollama" {
		t.Errorf("unchanged flags must keep config values, got temperature=%v llm=%q", cfg.Temperature, cfg.LLMClient)
	}
}

func TestBuildRegistryAppliesToolset(t *testing.T) {
	cfg := config.Default()
	cfg.Toolsets = append(cfg.Toolsets, config.Toolset{Name: "math", Tools: []string{"calc*"}})

	testCases := []struct {
		toolset string
		want    []string
	}{
		{"default", []string{"search", "calculator"}},
		{"math", []string{"calculator"}},
		{"missing", []string{"search", "calculator"}},
	}

	for _, tc := range testCases {
		t.Run(tc.toolset, func(t *testing.T) {
			registry, clients, err := buildRegistry(context.Background(), cfg, tc.toolset)
			if err != nil {
				t.Fatalf("buildRegistry failed: %v", err)
			}
			if len(clients) != 0 {
				t.Errorf("expected no MCP clients, got %d", len(clients))
			}
			got := registry.Names()
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Errorf("expected tools %v, got %v", tc.want, got)
			}
		})
	}
}

func TestConfigureLogging(t *testing.T) {
	if err := configureLogging("debug"); err != nil {
		t.Errorf("configureLogging(debug) failed: %v", err)
	}
	if err := configureLogging("info"); err != nil {
		t.Errorf("configureLogging(info) failed: %v", err)
	}
	if err := configureLogging("chatty"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestRootCmdDoesNotRepeatErrors(t *testing.T) {
	setupWorkspace(t)

	var cobraErr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{})
	cmd.SetArgs([]string{"--llm", "mock", "--temperature", "1.5"})
	cmd.SetErr(&cobraErr)
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for temperature out of range")
	}
	if cobraErr.Len() != 0 {
		t.Errorf("expected the command itself to report errors once, cobra also printed %q", cobraErr.String())
	}
}

func TestRootCmdCancelledWhileIdleExitsCleanly(t *testing.T) {
	setupWorkspace(t)

	pr, pw := io.Pipe()
	defer pw.Close()
	cmd := newRootCmd(pr, &bytes.Buffer{})
	cmd.SetArgs([]string{"--llm", "mock", "--log-level", "error"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	// Wait for the console to start reading before cancelling.
	if _, err := io.WriteString(pw, "\n"); err != nil {
		t.Fatalf("Failed to write to console: %v", err)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected a clean exit after cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command did not return after the context was cancelled")
	}
}
