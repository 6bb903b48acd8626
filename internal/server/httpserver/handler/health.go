package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/tokrelay-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health. It only reports that the process is up.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, r, http.StatusOK, h.healthPayload("healthy"))
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			resp := h.healthPayload("unavailable")
			resp.Error = err.Error()
			h.writeJSON(w, http.StatusServiceUnavailable, &Response{
				Status:    StatusError,
				Code:      "TR-SYS-5030",
				Message:   "not ready",
				RequestID: getRequestID(r),
				Data:      resp,
			})
			return
		}
	}
	h.writeData(w, r, http.StatusOK, h.healthPayload("ready"))
}

func (h *Handler) healthPayload(status string) HealthResponse {
	resp := HealthResponse{
		Status:  status,
		Version: buildinfo.Get().Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if h.queueDepth != nil {
		resp.QueueDepth = h.queueDepth()
	}
	return resp
}
