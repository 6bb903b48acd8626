package command

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/tokrelay-go/internal/cli/config"
	"github.com/yndnr/tokrelay-go/internal/cli/output"
)

func TestApp(t *testing.T) {
	app := App()

	if app.Name != "tokrelay-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "tokrelay-cli")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"token", "system", "config"} {
		if !commandNames[name] {
			t.Errorf("missing command: %s", name)
		}
	}

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}
	for _, name := range []string{"server", "api-key", "profile", "config", "output", "wide"} {
		if !flagNames[name] {
			t.Errorf("missing flag: %s", name)
		}
	}
}

func TestGlobalFlags_ProfileResolution(t *testing.T) {
	profileServer := newMockServer(t)
	profileServer.handle("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "profile-key" {
			t.Errorf("X-API-Key = %q, want profile key", r.Header.Get("X-API-Key"))
		}
		dataResponse(w, http.StatusOK, map[string]any{"status": "healthy"})
	})

	path := filepath.Join(t.TempDir(), "cli.yaml")
	cfg := config.Default()
	cfg.Current = "prod"
	cfg.Profiles["prod"] = config.Profile{Server: profileServer.URL, APIKey: "profile-key"}
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	out, err := runCLIWithConfig(t, path, nil, "system", "health")
	if err != nil {
		t.Fatalf("health via profile: %v\n%s", err, out)
	}
	if !strings.Contains(out, profileServer.URL) {
		t.Errorf("output should name the profile server:\n%s", out)
	}
}

func TestGlobalFlags_FlagOverridesProfile(t *testing.T) {
	flagServer := newMockServer(t)
	flagServer.handle("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "flag-key" {
			t.Errorf("X-API-Key = %q, want flag key", r.Header.Get("X-API-Key"))
		}
		dataResponse(w, http.StatusOK, map[string]any{"status": "healthy"})
	})

	path := filepath.Join(t.TempDir(), "cli.yaml")
	cfg := config.Default()
	cfg.Current = "prod"
	cfg.Profiles["prod"] = config.Profile{Server: "127.0.0.1:1", APIKey: "profile-key"}
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	out, err := runCLIWithConfig(t, path, flagServer, "--api-key", "flag-key", "system", "health")
	if err != nil {
		t.Fatalf("health: %v\n%s", err, out)
	}
}

func TestGlobalFlags_UnknownProfile(t *testing.T) {
	server := newMockServer(t)
	_, err := runCLI(t, server, "--profile", "nope", "system", "health")
	if err == nil || !strings.Contains(err.Error(), `profile "nope" not found`) {
		t.Errorf("err = %v", err)
	}
}

func TestGlobalFlags_BadOutput(t *testing.T) {
	server := newMockServer(t)
	_, err := runCLI(t, server, "--output", "xml", "system", "health")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("err = %v", err)
	}
}

func TestGlobalFlags_OutputFromConfig(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /health", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusOK, map[string]any{"status": "healthy", "queue_depth": 2})
	})

	path := filepath.Join(t.TempDir(), "cli.yaml")
	cfg := config.Default()
	cfg.Output = string(output.FormatYAML)
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	out, err := runCLIWithConfig(t, path, server, "system", "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out, "status: healthy") || !strings.Contains(out, "queue_depth: 2") {
		t.Errorf("expected YAML output, got:\n%s", out)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("profiles: [broken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLIWithConfig(t, path, nil, "system", "version"); err == nil {
		t.Error("expected error for invalid config file")
	}
}
