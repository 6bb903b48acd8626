package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// maxAdminBody bounds admin request bodies.
const maxAdminBody = 64 << 10

// handleCreateToken handles POST /admin/v1/tokens.
func (h *Handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req CreateTokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody)).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body")
		return
	}

	tok, err := h.tokens.Create(r.Context(), req.OwnerID, req.Label)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.events.TokenIssued()

	h.logger.InfoContext(r.Context(), "token issued",
		"token", tok.ID,
		"owner_id", tok.OwnerID,
	)
	h.writeData(w, r, http.StatusCreated, toTokenResponse(tok))
}

// handleListTokens handles GET /admin/v1/tokens?owner_id=N[&include_revoked=true].
func (h *Handler) handleListTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ownerID, err := strconv.ParseInt(q.Get("owner_id"), 10, 64)
	if err != nil || ownerID == 0 {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "owner_id must be a non-zero integer")
		return
	}

	includeRevoked := false
	if v := q.Get("include_revoked"); v != "" {
		includeRevoked, err = strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "include_revoked must be a boolean")
			return
		}
	}

	tokens, err := h.tokens.ListByOwner(r.Context(), ownerID, includeRevoked)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := ListTokensResponse{Tokens: make([]TokenResponse, 0, len(tokens)), Total: len(tokens)}
	for _, t := range tokens {
		resp.Tokens = append(resp.Tokens, toTokenResponse(t))
	}
	h.writeData(w, r, http.StatusOK, resp)
}

// handleGetToken handles GET /admin/v1/tokens/{id}.
func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	tok, err := h.tokens.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeData(w, r, http.StatusOK, toTokenResponse(tok))
}

// handleRevokeToken handles POST /admin/v1/tokens/{id}/revoke.
func (h *Handler) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	tok, changed, err := h.tokens.Revoke(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if changed {
		h.events.TokenRevoked()
		h.logger.InfoContext(r.Context(), "token revoked",
			"token", tok.ID,
			"owner_id", tok.OwnerID,
		)
	}
	h.writeData(w, r, http.StatusOK, toTokenResponse(tok))
}
