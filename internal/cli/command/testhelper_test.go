package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// mockServer is a fake TokRelay admin API.
type mockServer struct {
	*httptest.Server
	mux *http.ServeMux
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{mux: http.NewServeMux()}
	m.Server = httptest.NewServer(m.mux)
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for a ServeMux pattern such as
// "GET /admin/v1/tokens".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mux.HandleFunc(pattern, handler)
}

// dataResponse writes a success envelope.
func dataResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "success",
		"request_id": "req-test",
		"data":       data,
	})
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"status":     "error",
		"code":       code,
		"message":    message,
		"request_id": "req-test",
	})
}

// runCLI runs the app against server with an isolated config file and
// returns stdout.
func runCLI(t *testing.T, server *mockServer, args ...string) (string, error) {
	t.Helper()
	return runCLIWithConfig(t, filepath.Join(t.TempDir(), "cli.yaml"), server, args...)
}

func runCLIWithConfig(t *testing.T, configPath string, server *mockServer, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &out

	full := []string{"tokrelay-cli", "--config", configPath}
	if server != nil {
		full = append(full, "--server", server.URL)
	}
	full = append(full, args...)

	err := app.Run(full)
	return out.String(), err
}

func sampleToken() map[string]any {
	return map[string]any{
		"id":          "trk_AbCdEfGhIjKlMnOpQrStUv",
		"owner_id":    4242,
		"label":       "laptop",
		"active":      true,
		"usage_count": 3,
		"created_at":  int64(1767225600000),
	}
}
