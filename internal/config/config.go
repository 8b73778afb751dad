package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Wiki       Wiki       `yaml:"wiki"`
	Risk       Risk       `yaml:"risk"`
	Labeling   Labeling   `yaml:"labeling"`
	Extraction Extraction `yaml:"extraction"`
	Training   Training   `yaml:"training"`
	Discovery  Discovery  `yaml:"discovery"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Wiki configures the MediaWiki API client.
type Wiki struct {
	// BaseURL is the wiki's script path, e.g. https://en.wikipedia.org/w.
	// api.php and index.php live directly under it.
	BaseURL          string  `yaml:"base_url"`
	Language         string  `yaml:"language"`
	UserAgent        string  `yaml:"user_agent"`
	RatePerSecond    float64 `yaml:"rate_per_second"`
	MaxAttempts      int     `yaml:"max_attempts"`
	RetryWaitSeconds int     `yaml:"retry_wait_seconds"`
	// FetchAllDiffs fetches diff text for every revision in a history
	// instead of only the newest one. Expensive; off by default.
	FetchAllDiffs bool `yaml:"fetch_all_diffs"`
}

// Risk configures the revert-risk model endpoint.
type Risk struct {
	URL string `yaml:"url"`
	// Key selects which identifier is sent to the model: "user" reproduces
	// the historical call contract (user id), "revision" sends the revision
	// id instead.
	Key              string `yaml:"key"`
	MaxAttempts      int    `yaml:"max_attempts"`
	RetryWaitSeconds int    `yaml:"retry_wait_seconds"`
}

// Labeling configures the LLM provider used for NPOV labeling.
type Labeling struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// Extraction configures the feature-extraction runner.
type Extraction struct {
	BatchSize int `yaml:"batch_size"`
}

// Training configures the decision-tree trainer.
type Training struct {
	MaxDepth        int     `yaml:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split"`
	TestFraction    float64 `yaml:"test_fraction"`
	Seed            int64   `yaml:"seed"`
}

// Discovery configures article sampling sources.
type Discovery struct {
	Feeds       []Feed `yaml:"feeds"`
	RandomCount int    `yaml:"random_count"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

const (
	RiskKeyUser     = "user"
	RiskKeyRevision = "revision"
)

// ConfigDir returns the XDG config directory for npovscan.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "npovscan")
}

// DataDir returns the XDG data directory for npovscan.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "npovscan")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/npovscan/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'npovscan init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Wiki: Wiki{
			BaseURL:          "https://en.wikipedia.org/w",
			Language:         "en",
			UserAgent:        "npovscan/1.0 (NPOV edit research tool)",
			RatePerSecond:    2,
			MaxAttempts:      3,
			RetryWaitSeconds: 10,
		},
		Risk: Risk{
			URL:              "https://api.wikimedia.org/service/lw/inference/v1/models/revertrisk-language-agnostic:predict",
			Key:              RiskKeyUser,
			MaxAttempts:      3,
			RetryWaitSeconds: 10,
		},
		Labeling: Labeling{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   16,
		},
		Extraction: Extraction{BatchSize: 5},
		Training: Training{
			MaxDepth:        6,
			MinSamplesSplit: 4,
			TestFraction:    0.2,
			Seed:            42,
		},
		Discovery: Discovery{RandomCount: 10},
		Server:    Server{Port: 8000},
		Logging:   Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Risk.Key != RiskKeyUser && cfg.Risk.Key != RiskKeyRevision {
		return nil, fmt.Errorf("risk.key must be %q or %q, got %q", RiskKeyUser, RiskKeyRevision, cfg.Risk.Key)
	}
	if cfg.Extraction.BatchSize < 1 {
		cfg.Extraction.BatchSize = 5
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
