// Package policy loads and validates the service configuration.
//
// Configuration is a YAML document decoded strictly: unknown keys, wrong value
// types and extra documents are rejected rather than ignored. Environment
// variables override file values. Credentials are kept in memory only and are
// never written back to disk.
package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration failure. It blocks start-up.
var ErrInvalidConfig = errors.New("invalid configuration")

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	defaultHTTPPort     = 8787
	defaultModel        = "gemini-2.0-flash"
	defaultPollInterval = 10
)

// GlobalStateDir returns the default state directory (~/.config/brainstorm).
func GlobalStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "brainstorm")
}

// StoreConfig selects the collection store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres, memory
	Path   string `yaml:"path"`   // sqlite file; default ~/.config/brainstorm/catalog.sqlite
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// GenAIConfig configures the generative text endpoint. Generation is disabled without an API key.
type GenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WatchConfig controls cross-process reconciliation through the signal file.
type WatchConfig struct {
	Enabled             bool `yaml:"enabled"`
	PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
}

// Config holds service configuration.
type Config struct {
	HTTPPort   int    `yaml:"http_port"`
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
	SignalFile string `yaml:"signal_file"`

	Store StoreConfig `yaml:"store"`
	GenAI GenAIConfig `yaml:"genai"`
	Watch WatchConfig `yaml:"watch"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		HTTPPort: defaultHTTPPort,
		LogLevel: "info",
		Store:    StoreConfig{Driver: DriverSQLite},
		GenAI:    GenAIConfig{Model: defaultModel, TimeoutSeconds: 60},
		Watch:    WatchConfig{Enabled: true, PollIntervalSeconds: defaultPollInterval},
	}
}

// LoadConfig reads and strictly parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config: %v", ErrInvalidConfig, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a single YAML document over the defaults and validates it.
// store.driver is required and has no default when a document is supplied.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Store.Driver = ""

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: parse config: %v", ErrInvalidConfig, err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: config must contain exactly one document", ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	var problems []string
	switch c.Store.Driver {
	case "":
		problems = append(problems, "store.driver is required")
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			problems = append(problems, "store.dsn is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not one of sqlite, postgres, memory", c.Store.Driver))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("http_port %d out of range", c.HTTPPort))
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			problems = append(problems, fmt.Sprintf("log_level %q is not a valid level", c.LogLevel))
		}
	}
	if c.GenAI.TimeoutSeconds < 0 {
		problems = append(problems, "genai.timeout_seconds must not be negative")
	}
	if c.Watch.PollIntervalSeconds < 0 {
		problems = append(problems, "watch.poll_interval_seconds must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Policy exposes resolved configuration values. It is safe for concurrent use.
type Policy struct {
	config *Config
	mu     sync.RWMutex
}

// New wraps cfg.
func New(cfg *Config) *Policy {
	return &Policy{config: cfg}
}

// Config returns a copy of the underlying configuration.
func (p *Policy) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return *p.config
}

// StoreDriver returns the configured store driver.
func (p *Policy) StoreDriver() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.config.Store.Driver == "" {
		return DriverSQLite
	}
	return p.config.Store.Driver
}

// StorePath returns the SQLite file path, defaulting to the global state directory.
func (p *Policy) StorePath() string {
	p.mu.RLock()
	sp := p.config.Store.Path
	p.mu.RUnlock()
	if sp == "" {
		return filepath.Join(GlobalStateDir(), "catalog.sqlite")
	}
	return sp
}

// StoreDSN returns the postgres connection string.
func (p *Policy) StoreDSN() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Store.DSN
}

// SignalFilePath returns the cross-process change signal file. For SQLite it lives
// next to the database so every process sharing the file sees the same signal.
func (p *Policy) SignalFilePath() string {
	p.mu.RLock()
	sf := p.config.SignalFile
	p.mu.RUnlock()
	if sf != "" {
		return sf
	}
	if p.StoreDriver() == DriverSQLite {
		return filepath.Join(filepath.Dir(p.StorePath()), ".brainstorm-notify")
	}
	return filepath.Join(GlobalStateDir(), ".brainstorm-notify")
}

// LogFile returns the log file path. "none" or "off" disables file logging.
func (p *Policy) LogFile() string {
	p.mu.RLock()
	lf := p.config.LogFile
	p.mu.RUnlock()
	if lf == "" {
		return filepath.Join(GlobalStateDir(), "brainstorm.log")
	}
	return lf
}

// LogLevel returns the parsed log level, info when unset.
func (p *Policy) LogLevel() zapcore.Level {
	p.mu.RLock()
	defer p.mu.RUnlock()
	lvl, err := zapcore.ParseLevel(p.config.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// HTTPPort returns the listen port. 0 picks a free port.
func (p *Policy) HTTPPort() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.HTTPPort
}

// GenAI returns the generative endpoint settings.
func (p *Policy) GenAI() GenAIConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.GenAI
}

// GenerationEnabled reports whether an API key is available.
func (p *Policy) GenerationEnabled() bool {
	return strings.TrimSpace(p.GenAI().APIKey) != ""
}

// GenAITimeout returns the per-request timeout for generation; 0 means none.
func (p *Policy) GenAITimeout() time.Duration {
	return time.Duration(p.GenAI().TimeoutSeconds) * time.Second
}

// WatchEnabled reports whether the signal-file watcher should run.
func (p *Policy) WatchEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Watch.Enabled
}

// WatchPollInterval returns the fallback poll interval for the watcher.
func (p *Policy) WatchPollInterval() time.Duration {
	p.mu.RLock()
	secs := p.config.Watch.PollIntervalSeconds
	p.mu.RUnlock()
	if secs <= 0 {
		secs = defaultPollInterval
	}
	return time.Duration(secs) * time.Second
}

// SetAPIKey replaces the generation API key for the rest of the session.
func (p *Policy) SetAPIKey(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.GenAI.APIKey = key
}

// SetHTTPPort overrides the listen port for the rest of the session.
func (p *Policy) SetHTTPPort(port int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.HTTPPort = port
}

// PIDFile is where a running server records "pid:port" for the status command.
func (p *Policy) PIDFile() string {
	return filepath.Join(filepath.Dir(p.SignalFilePath()), "brainstorm.pid")
}
