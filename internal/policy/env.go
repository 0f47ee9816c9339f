package policy

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvOverrides are the environment variables that take precedence over the config file.
type EnvOverrides struct {
	ConfigPath  string `env:"BRAINSTORM_CONFIG"`
	HTTPPort    *int   `env:"BRAINSTORM_HTTP_PORT"` // nil when unset; 0 is a valid override
	LogLevel    string `env:"BRAINSTORM_LOG_LEVEL"`
	LogFile     string `env:"BRAINSTORM_LOG_FILE"`
	StoreDriver string `env:"BRAINSTORM_STORE_DRIVER"`
	StorePath   string `env:"BRAINSTORM_STORE_PATH"`
	StoreDSN    string `env:"BRAINSTORM_STORE_DSN"`
	APIKey      string `env:"BRAINSTORM_GENAI_API_KEY"`
	GeminiKey   string `env:"GEMINI_API_KEY"`
	Model       string `env:"BRAINSTORM_GENAI_MODEL"`
	BaseURL     string `env:"BRAINSTORM_GENAI_BASE_URL"`
}

// ParseEnv reads EnvOverrides from the process environment.
func ParseEnv() (EnvOverrides, error) {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return o, nil
}

// ApplyEnv copies every set override onto c and re-validates.
// BRAINSTORM_GENAI_API_KEY wins over GEMINI_API_KEY.
func (c *Config) ApplyEnv(o EnvOverrides) error {
	if o.HTTPPort != nil {
		c.HTTPPort = *o.HTTPPort
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	if o.StoreDriver != "" {
		c.Store.Driver = o.StoreDriver
	}
	if o.StorePath != "" {
		c.Store.Path = o.StorePath
	}
	if o.StoreDSN != "" {
		c.Store.DSN = o.StoreDSN
	}
	switch {
	case o.APIKey != "":
		c.GenAI.APIKey = o.APIKey
	case o.GeminiKey != "":
		c.GenAI.APIKey = o.GeminiKey
	}
	if o.Model != "" {
		c.GenAI.Model = o.Model
	}
	if o.BaseURL != "" {
		c.GenAI.BaseURL = o.BaseURL
	}
	return c.Validate()
}

// Load resolves the configuration: the file named by BRAINSTORM_CONFIG (or path when
// non-empty) if any, defaults otherwise, then environment overrides.
func Load(path string) (*Config, error) {
	o, err := ParseEnv()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = o.ConfigPath
	}
	cfg := DefaultConfig()
	if path != "" {
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(o); err != nil {
		return nil, err
	}
	return cfg, nil
}
