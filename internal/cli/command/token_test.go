package command

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/yndnr/tokrelay-go/internal/cli/connection"
)

func TestTokenCommand(t *testing.T) {
	cmd := TokenCommand()
	if cmd.Name != "token" {
		t.Errorf("Name = %q", cmd.Name)
	}

	subs := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subs[sub.Name] = true
		if sub.Action == nil {
			t.Errorf("%s has no action", sub.Name)
		}
	}
	for _, name := range []string{"create", "list", "get", "revoke"} {
		if !subs[name] {
			t.Errorf("missing subcommand %s", name)
		}
	}
}

func TestTokenCreate(t *testing.T) {
	server := newMockServer(t)
	server.handle("POST /admin/v1/tokens", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "admin" {
			errorResponse(w, http.StatusUnauthorized, "TR-AUTH-4010", "invalid api key")
			return
		}
		var body struct {
			OwnerID int64  `json:"owner_id"`
			Label   string `json:"label"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.OwnerID != 4242 || body.Label != "laptop" {
			t.Errorf("body = %+v", body)
		}
		dataResponse(w, http.StatusCreated, sampleToken())
	})

	out, err := runCLI(t, server, "--api-key", "admin", "token", "create", "--owner", "4242", "--label", "laptop")
	if err != nil {
		t.Fatalf("create: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Token created: trk_AbCdEfGhIjKlMnOpQrStUv") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, server.URL+"/collect/trk_AbCdEfGhIjKlMnOpQrStUv") {
		t.Errorf("output should include collect URL: %q", out)
	}
}

func TestTokenCreate_JSON(t *testing.T) {
	server := newMockServer(t)
	server.handle("POST /admin/v1/tokens", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusCreated, sampleToken())
	})

	out, err := runCLI(t, server, "-o", "json", "token", "create", "--owner", "4242")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var got tokenView
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.ID != "trk_AbCdEfGhIjKlMnOpQrStUv" || got.OwnerID != 4242 || got.UsageCount != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestTokenCreate_Unauthorized(t *testing.T) {
	server := newMockServer(t)
	server.handle("POST /admin/v1/tokens", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusUnauthorized, "TR-AUTH-4010", "invalid api key")
	})

	_, err := runCLI(t, server, "token", "create", "--owner", "1")
	var apiErr *connection.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != "TR-AUTH-4010" || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestTokenCreate_Validation(t *testing.T) {
	server := newMockServer(t)

	if _, err := runCLI(t, server, "token", "create"); err == nil {
		t.Error("missing --owner should fail")
	}
	if _, err := runCLI(t, server, "token", "create", "--owner", "0"); err == nil {
		t.Error("zero --owner should fail")
	}
}

func TestTokenList(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /admin/v1/tokens", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("owner_id"); got != "4242" {
			t.Errorf("owner_id = %q", got)
		}
		if got := r.URL.Query().Get("include_revoked"); got != "true" {
			t.Errorf("include_revoked = %q", got)
		}
		second := sampleToken()
		second["id"] = "trk_WxYz0123456789abcdEfGh"
		second["active"] = false
		second["revoked_at"] = int64(1767229200000)
		dataResponse(w, http.StatusOK, map[string]any{
			"tokens": []any{sampleToken(), second},
			"total":  2,
		})
	})

	out, err := runCLI(t, server, "token", "list", "--owner", "4242", "--include-revoked")
	if err != nil {
		t.Fatalf("list: %v\n%s", err, out)
	}
	for _, want := range []string{"ID", "OWNER_ID", "trk_AbCdEfGhIjKlMnOpQrStUv", "trk_WxYz0123456789abcdEfGh", "Total: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "REVOKED_AT") {
		t.Error("revoked_at is a wide column")
	}
}

func TestTokenList_Empty(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /admin/v1/tokens", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("include_revoked") {
			t.Error("include_revoked should be omitted by default")
		}
		dataResponse(w, http.StatusOK, map[string]any{"tokens": []any{}, "total": 0})
	})

	out, err := runCLI(t, server, "token", "ls", "--owner", "7")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No tokens found.") {
		t.Errorf("output = %q", out)
	}
}

func TestTokenGet(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /admin/v1/tokens/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "trk_AbCdEfGhIjKlMnOpQrStUv" {
			errorResponse(w, http.StatusNotFound, "TR-TOKN-4040", "token not found")
			return
		}
		dataResponse(w, http.StatusOK, sampleToken())
	})

	out, err := runCLI(t, server, "-o", "yaml", "token", "get", "trk_AbCdEfGhIjKlMnOpQrStUv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, "owner_id: 4242") || !strings.Contains(out, "label: laptop") {
		t.Errorf("output = %q", out)
	}

	_, err = runCLI(t, server, "token", "get", "missing")
	if err == nil || !strings.Contains(err.Error(), "TR-TOKN-4040") {
		t.Errorf("err = %v", err)
	}
}

func TestTokenGet_RequiresID(t *testing.T) {
	server := newMockServer(t)
	if _, err := runCLI(t, server, "token", "get"); err == nil {
		t.Error("expected error without token ID")
	}
	if _, err := runCLI(t, server, "token", "revoke", "a", "b"); err == nil {
		t.Error("expected error with two token IDs")
	}
}

func TestTokenRevoke(t *testing.T) {
	server := newMockServer(t)
	revoked := false
	server.handle("POST /admin/v1/tokens/{id}/revoke", func(w http.ResponseWriter, r *http.Request) {
		revoked = true
		tok := sampleToken()
		tok["active"] = false
		dataResponse(w, http.StatusOK, tok)
	})

	out, err := runCLI(t, server, "token", "revoke", "trk_AbCdEfGhIjKlMnOpQrStUv")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !revoked {
		t.Error("revoke endpoint not called")
	}
	if !strings.Contains(out, "Token revoked: trk_AbCdEfGhIjKlMnOpQrStUv") {
		t.Errorf("output = %q", out)
	}
}
