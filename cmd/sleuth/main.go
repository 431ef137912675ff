package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/m4xw311/sleuth/agent"
	"github.com/m4xw311/sleuth/agent/terminal"
	"github.com/m4xw311/sleuth/config"
	"github.com/m4xw311/sleuth/errors"
	"github.com/m4xw311/sleuth/llm"
	"github.com/m4xw311/sleuth/prompt"
	"github.com/m4xw311/sleuth/session"
	"github.com/m4xw311/sleuth/tools"
	"github.com/m4xw311/sleuth/tools/mcp"
	"github.com/spf13/cobra"
)

type cliFlags struct {
	configPath  string
	llm         string
	model       string
	temperature float64
	maxTurns    int
	toolset     string
	verbosity   string
	logLevel    string
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   "sleuth [question]",
		Short: "Answer questions with a language model that can search the web and calculate",
		Long: `Sleuth reads questions from the console and answers them by letting a
language model reason step by step and call tools (search, calculator and any
configured MCP servers) until it reaches a final answer.

Examples:
  sleuth                                  # Interactive console
  sleuth "What is 2 + 3 * 4?"             # Ask a first question, then continue
  sleuth --llm openai --model gpt-4o-mini # Use another backend`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(f.configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
				return err
			}
			if err := applyFlags(cmd, &f, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid flags: %+v\n", err)
				return err
			}
			if err := configureLogging(cfg.LogLevel); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid log level: %+v\n", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// After the first signal a second one terminates the process.
			context.AfterFunc(ctx, stop)

			err = run(ctx, cfg, f.toolset, strings.Join(args, " "), in, out)
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				log.Info("interrupted, shutting down")
				return nil
			}
			if err != nil {
				log.Error("sleuth stopped", "op", "run", "err", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "path to an extra config file applied over user and project config")
	cmd.Flags().StringVar(&f.llm, "llm", "", "model backend: ollama, openai, anthropic, gemini, bedrock or mock")
	cmd.Flags().StringVar(&f.model, "model", "", "model name")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0, "sampling temperature in [0,1]")
	cmd.Flags().IntVar(&f.maxTurns, "max-turns", 0, "maximum model calls per question (0 means unbounded)")
	cmd.Flags().StringVar(&f.toolset, "toolset", "default", "toolset to enable")
	cmd.Flags().StringVar(&f.verbosity, "verbosity", "", "tool verbosity: none, info or all")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")

	return cmd
}

// applyFlags overrides configuration values with the flags the user set explicitly.
func applyFlags(cmd *cobra.Command, f *cliFlags, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("llm") {
		cfg.LLMClient = f.llm
	}
	if flags.Changed("model") {
		cfg.Model = f.model
	}
	if flags.Changed("temperature") {
		cfg.Temperature = f.temperature
	}
	if flags.Changed("max-turns") {
		cfg.MaxTurns = f.maxTurns
	}
	if flags.Changed("verbosity") {
		cfg.Verbosity = f.verbosity
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg.Validate()
}

func configureLogging(level string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetReportCaller(lvl == log.DebugLevel)

	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERROR").Bold(true).Foreground(lipgloss.Color("204"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WARN").Bold(true).Foreground(lipgloss.Color("192"))
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	styles.Values["err"] = lipgloss.NewStyle().Bold(true)
	log.SetStyles(styles)
	return nil
}

// run wires the configured components together and hands control to the console.
func run(ctx context.Context, cfg *config.Config, toolset, initialQuestion string, in io.Reader, out io.Writer) error {
	renderer, err := prompt.Load(cfg.Templates.Prompt, cfg.Templates.Merge)
	if err != nil {
		return err
	}

	registry, clients, err := buildRegistry(ctx, cfg, toolset)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range clients {
			if err := c.Stop(); err != nil {
				log.Warn("failed to stop MCP server", "server", c.Name, "err", err)
			}
		}
	}()

	client, err := llm.NewClient(ctx, cfg.LLMClient, cfg.OllamaURL)
	if err != nil {
		return err
	}
	log.Info("sleuth is ready", "llm", cfg.LLMClient, "model", cfg.Model, "tools", strings.Join(registry.Names(), ","))

	a := agent.New(client, registry, renderer, agent.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTurns:    cfg.MaxTurns,
	}, agent.ToolVerbosity(cfg.Verbosity))
	if a.Verbosity == "" {
		a.Verbosity = agent.ToolVerbosityNone
	}

	term := terminal.New(a, session.New(), in, out, cfg.ExitOnError)
	return term.Run(ctx, initialQuestion)
}

// buildRegistry registers the built-in tools and the tools of every configured
// MCP server, then narrows them down to the selected toolset. The returned
// clients must be stopped by the caller.
func buildRegistry(ctx context.Context, cfg *config.Config, toolsetName string) (*tools.ToolRegistry, []*mcp.MCPClient, error) {
	registry := tools.NewToolRegistry()
	builtins := []tools.Tool{
		tools.NewSearchTool(tools.SearchOptions{
			Endpoint:          cfg.Search.Endpoint,
			Engine:            cfg.Search.Engine,
			APIKeyEnv:         cfg.Search.APIKeyEnv,
			RequestsPerMinute: cfg.Search.RequestsPerMinute,
			CacheSize:         cfg.Search.CacheSize,
		}),
		&tools.CalculatorTool{},
	}
	for _, t := range builtins {
		if err := registry.Register(t); err != nil {
			return nil, nil, err
		}
	}

	clients, err := mcp.ConnectAll(ctx, cfg.MCPServers)
	if err != nil {
		return nil, nil, err
	}
	stopAll := func() {
		for _, c := range clients {
			c.Stop()
		}
	}
	for _, c := range clients {
		for _, t := range c.Tools() {
			if err := registry.Register(t); err != nil {
				stopAll()
				return nil, nil, errors.Wrapf(err, "failed to register MCP tool")
			}
		}
	}

	ts, err := cfg.GetToolset(toolsetName)
	if err != nil {
		stopAll()
		return nil, nil, err
	}
	filtered, err := registry.Filter(ts.Tools)
	if err != nil {
		stopAll()
		return nil, nil, err
	}
	return filtered, clients, nil
}
