package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BRAINSTORM_CONFIG", "BRAINSTORM_HTTP_PORT", "BRAINSTORM_LOG_LEVEL", "BRAINSTORM_LOG_FILE", "BRAINSTORM_STORE_DRIVER",
		"BRAINSTORM_STORE_PATH", "BRAINSTORM_STORE_DSN", "BRAINSTORM_GENAI_API_KEY",
		"GEMINI_API_KEY", "BRAINSTORM_GENAI_MODEL", "BRAINSTORM_GENAI_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8787, cfg.HTTPPort)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "gemini-2.0-flash", cfg.GenAI.Model)
	assert.Empty(t, cfg.GenAI.APIKey)
	assert.True(t, cfg.Watch.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
http_port: 9000
log_level: debug
store:
  driver: sqlite
  path: /tmp/catalog.sqlite
genai:
  model: gemini-pro
  timeout_seconds: 15
watch:
  enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "/tmp/catalog.sqlite", cfg.Store.Path)
	assert.Equal(t, "gemini-pro", cfg.GenAI.Model)
	assert.Equal(t, 15, cfg.GenAI.TimeoutSeconds)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 10, cfg.Watch.PollIntervalSeconds, "unset keys keep defaults")
}

func TestParseConfigRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty document", doc: ""},
		{name: "missing store driver", doc: "http_port: 9000\n"},
		{name: "unknown key", doc: "store:\n  driver: sqlite\nworkspace_root: /x\n"},
		{name: "unknown nested key", doc: "store:\n  driver: sqlite\n  bucket: x\n"},
		{name: "wrong type", doc: "http_port: eighty\nstore:\n  driver: sqlite\n"},
		{name: "unsupported driver", doc: "store:\n  driver: firestore\n"},
		{name: "postgres without dsn", doc: "store:\n  driver: postgres\n"},
		{name: "port out of range", doc: "http_port: 70000\nstore:\n  driver: memory\n"},
		{name: "bad log level", doc: "log_level: loud\nstore:\n  driver: memory\n"},
		{name: "two documents", doc: "store:\n  driver: memory\n---\nhttp_port: 1\n"},
		{name: "code instead of data", doc: "({ store: { driver: 'sqlite' } })"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\n  dsn: postgres://localhost/brainstorm\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: sqlite\ngenai:\n  api_key: from-file\n"), 0o644))

	t.Setenv("BRAINSTORM_CONFIG", path)
	t.Setenv("BRAINSTORM_HTTP_PORT", "9100")
	t.Setenv("BRAINSTORM_STORE_DRIVER", "memory")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "gemini-key", cfg.GenAI.APIKey)

	t.Setenv("BRAINSTORM_GENAI_API_KEY", "explicit-key")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "explicit-key", cfg.GenAI.APIKey)
}

func TestLoadEnvPortZeroOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_port: 9000\nstore:\n  driver: memory\n"), 0o644))
	t.Setenv("BRAINSTORM_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTPPort)

	t.Setenv("BRAINSTORM_HTTP_PORT", "0")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.HTTPPort)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRAINSTORM_HTTP_PORT", "not-a-port")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPolicyPaths(t *testing.T) {
	dir := t.TempDir()
	pol := New(&Config{Store: StoreConfig{Driver: DriverSQLite, Path: filepath.Join(dir, "db", "catalog.sqlite")}})

	assert.Equal(t, filepath.Join(dir, "db", ".brainstorm-notify"), pol.SignalFilePath())
	assert.Equal(t, filepath.Join(GlobalStateDir(), "brainstorm.log"), pol.LogFile())

	pol = New(&Config{Store: StoreConfig{Driver: DriverPostgres, DSN: "postgres://x"}})
	assert.Equal(t, filepath.Join(GlobalStateDir(), ".brainstorm-notify"), pol.SignalFilePath())
	assert.Equal(t, filepath.Join(GlobalStateDir(), "catalog.sqlite"), pol.StorePath())

	pol = New(&Config{SignalFile: "/tmp/custom-signal"})
	assert.Equal(t, "/tmp/custom-signal", pol.SignalFilePath())
}

func TestPolicyAccessors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	cfg.Watch.PollIntervalSeconds = 0
	pol := New(cfg)

	assert.Equal(t, zapcore.WarnLevel, pol.LogLevel())
	assert.Equal(t, 10*time.Second, pol.WatchPollInterval())
	assert.Equal(t, time.Minute, pol.GenAITimeout())
	assert.False(t, pol.GenerationEnabled())

	pol.SetAPIKey("session-key")
	assert.True(t, pol.GenerationEnabled())
	assert.Equal(t, "session-key", pol.GenAI().APIKey)

	pol.SetHTTPPort(0)
	assert.Equal(t, 0, pol.HTTPPort())
}
