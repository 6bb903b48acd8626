package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Addr string `koanf:"addr"`
		} `koanf:"http"`
	} `koanf:"server"`
	Relay struct {
		MaxRetries      int `koanf:"max_retries"`
		CooldownSeconds int `koanf:"cooldown_seconds"`
	} `koanf:"relay"`
	Storage struct {
		ReportTTL time.Duration `koanf:"report_ttl"`
	} `koanf:"storage"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
	)
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: "0.0.0.0:5080"
relay:
  max_retries: 5
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if addr := l.GetString("server.http.addr"); addr != "0.0.0.0:5080" {
		t.Errorf("server.http.addr = %q, want %q", addr, "0.0.0.0:5080")
	}
	if n := l.GetInt("relay.max_retries"); n != 5 {
		t.Errorf("relay.max_retries = %d, want 5", n)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv_LevelSeparator(t *testing.T) {
	t.Setenv("TOKRELAY_RELAY__MAX_RETRIES", "7")
	t.Setenv("TOKRELAY_SERVER__HTTP__ADDR", "127.0.0.1:8080")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if addr := l.GetString("server.http.addr"); addr != "127.0.0.1:8080" {
		t.Errorf("server.http.addr = %q, want %q", addr, "127.0.0.1:8080")
	}
	if got := l.GetString("relay.max_retries"); got != "7" {
		t.Errorf("relay.max_retries = %q, want %q", got, "7")
	}
	if got := l.Get("relay.max.retries"); got != nil {
		t.Errorf("single underscore should not split keys, got relay.max.retries = %v", got)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER__PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if port := l.GetString("server.port"); port != "9090" {
		t.Errorf("server.port = %q, want %q", port, "9090")
	}
}

func TestLoader_LoadMap_DottedKeys(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{
		"server.http.addr":  "localhost:3000",
		"relay.max_retries": 2,
	}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Server.HTTP.Addr != "localhost:3000" {
		t.Errorf("Addr = %q, want %q", cfg.Server.HTTP.Addr, "localhost:3000")
	}
	if cfg.Relay.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.Relay.MaxRetries)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: "from-file:5080"
relay:
  max_retries: 4
`)
	t.Setenv("TOKRELAY_SERVER__HTTP__ADDR", "from-env:8080")

	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "from-env:8080" {
		t.Errorf("Addr = %q, want %q (env should override file)", cfg.Server.HTTP.Addr, "from-env:8080")
	}
	if cfg.Relay.MaxRetries != 4 {
		t.Errorf("MaxRetries = %d, want 4", cfg.Relay.MaxRetries)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
relay:
  max_retries: 9
storage:
  report_ttl: 90m
`)
	t.Setenv("TOKRELAY_RELAY__COOLDOWN_SECONDS", "30")

	var cfg testConfig
	cfg.Server.HTTP.Addr = "default:5080"
	cfg.Relay.CooldownSeconds = 10

	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "default:5080" {
		t.Errorf("Addr = %q, want default to survive", cfg.Server.HTTP.Addr)
	}
	if cfg.Relay.MaxRetries != 9 {
		t.Errorf("MaxRetries = %d, want 9", cfg.Relay.MaxRetries)
	}
	if cfg.Relay.CooldownSeconds != 30 {
		t.Errorf("CooldownSeconds = %d, want 30 from env", cfg.Relay.CooldownSeconds)
	}
	if cfg.Storage.ReportTTL != 90*time.Minute {
		t.Errorf("ReportTTL = %v, want 90m", cfg.Storage.ReportTTL)
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()
	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"key1": "value1", "key2": "value2"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if keys := l.Keys(); len(keys) < 2 {
		t.Errorf("Keys() returned %d keys, want at least 2", len(keys))
	}
}
