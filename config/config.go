package config

import (
	"os"
	"path/filepath"

	"github.com/m4xw311/sleuth/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPromptTemplate = "prompt_template.txt"
	DefaultMergeTemplate  = "merge_template.txt"
	DefaultSearchKeyEnv   = "SERPAPI_API_KEY"
	DefaultSearchEndpoint = "https://serpapi.com/search.json"
)

type Templates struct {
	Prompt string `yaml:"prompt"`
	Merge  string `yaml:"merge"`
}

type Search struct {
	APIKeyEnv         string `yaml:"api_key_env"`
	Endpoint          string `yaml:"endpoint"`
	Engine            string `yaml:"engine"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	CacheSize         int    `yaml:"cache_size"`
}

type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type Toolset struct {
	Name  string   `yaml:"name"`
	Tools []string `yaml:"tools"`
}

type Config struct {
	LLMClient   string      `yaml:"llm"`
	Model       string      `yaml:"model"`
	Temperature float64     `yaml:"temperature"`
	MaxTurns    int         `yaml:"max_turns"`
	OllamaURL   string      `yaml:"ollama_url"`
	Templates   Templates   `yaml:"templates"`
	Search      Search      `yaml:"search"`
	Toolsets    []Toolset   `yaml:"toolsets"`
	MCPServers  []MCPServer `yaml:"mcp_servers"`
	ExitOnError bool        `yaml:"exit_on_error"`
	Verbosity   string      `yaml:"verbosity"`
	LogLevel    string      `yaml:"log_level"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		LLMClient:   "ollama",
		Model:       "llama3",
		Temperature: 0.5,
		MaxTurns:    15,
		Templates: Templates{
			Prompt: DefaultPromptTemplate,
			Merge:  DefaultMergeTemplate,
		},
		Search: Search{
			APIKeyEnv:         DefaultSearchKeyEnv,
			Endpoint:          DefaultSearchEndpoint,
			Engine:            "google",
			RequestsPerMinute: 30,
			CacheSize:         128,
		},
		Toolsets: []Toolset{
			{Name: "default", Tools: []string{"*"}},
		},
		Verbosity: "none",
		LogLevel:  "info",
	}
}

// LoadConfig loads configuration from the user's home directory, the current
// working directory and finally the explicit path (if any), later files taking
// precedence.
func LoadConfig(explicitPath string) (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".sleuth", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".sleuth", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	if explicitPath != "" {
		if err := loadFromFile(explicitPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading config %s", explicitPath)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal only overwrites fields present in the YAML, so each file
	// layers on top of the previous one.
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the values that the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Temperature < 0 || c.Temperature > 1 {
		return errors.New("temperature must be within [0,1], got %v", c.Temperature)
	}
	if c.MaxTurns < 0 {
		return errors.New("max_turns must not be negative, got %d", c.MaxTurns)
	}
	if c.Model == "" {
		return errors.New("model must be set")
	}
	switch c.Verbosity {
	case "", "none", "info", "all":
	default:
		return errors.New("invalid verbosity '%s'. Must be 'none', 'info', or 'all'", c.Verbosity)
	}
	return nil
}

// GetToolset finds a toolset by name. Returns the "default" toolset if the
// named one is not found or if an empty name is provided.
func (c *Config) GetToolset(name string) (*Toolset, error) {
	if name == "" {
		name = "default"
	}
	for _, ts := range c.Toolsets {
		if ts.Name == name {
			return &ts, nil
		}
	}
	if name == "default" {
		return nil, errors.New("mandatory 'default' toolset not found in configuration")
	}
	return c.GetToolset("default")
}
