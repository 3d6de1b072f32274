package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
)

const envPrefix = "SUBDIFF_"

var defaultConfig = Config{
	LogLevel: "info",
	Candidate: Service{
		BaseURL: "http://localhost:25500",
	},
	Reference: Service{
		BaseURL: "http://localhost:25501",
	},
	MockBase:         "http://mock-server:8080",
	Timeout:          30 * time.Second,
	RateLimit:        0,
	Concurrency:      4,
	ResultsDir:       "tests/results",
	ResultsFile:      "tests/results/comparison_summary.json",
	ReloadOnScenario: true,
	Progress:         true,
	Metrics: Metrics{
		Enabled: false,
		Bind:    "0.0.0.0:9001",
	},
}

// Config is the harness configuration. Endpoints and tokens only ever reach
// the fetch layer.
type Config struct {
	LogLevel    string  `koanf:"log_level"`
	Candidate   Service `koanf:"candidate"`
	Reference   Service `koanf:"reference"`
	MockBase    string  `koanf:"mock_base"`
	Concurrency int     `koanf:"concurrency"`

	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"` // requests per second per service, 0 disables

	ResultsDir       string `koanf:"results_dir"`
	ResultsFile      string `koanf:"results_file"`
	ReloadOnScenario bool   `koanf:"reload_on_scenario"`
	Progress         bool   `koanf:"progress"`

	Metrics Metrics `koanf:"metrics"`
}

type Service struct {
	BaseURL string `koanf:"base_url"`
	Token   string `koanf:"token"`
}

type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Bind    string `koanf:"bind"`
}

func Default() Config {
	return defaultConfig
}

// Load layers the defaults, the optional YAML file at path and SUBDIFF_
// environment variables, in that order. SUBDIFF_CANDIDATE__BASE_URL sets
// candidate.base_url.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("error in loading the default config: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error in loading the config file: %w", err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error in loading the environment: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("error in unmarshalling the config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if c.Candidate.BaseURL == "" {
		return fmt.Errorf("candidate.base_url is required")
	}

	if c.Reference.BaseURL == "" {
		return fmt.Errorf("reference.base_url is required")
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}

	return nil
}
