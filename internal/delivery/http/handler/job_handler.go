package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/recipe-service/internal/delivery/http/response"
	"github.com/user/recipe-service/internal/repository"
	"github.com/user/recipe-service/pkg/utils"
)

// HandleGetJobStatus lets a client that lost its stream reattach by URL.
func (h *Handler) HandleGetJobStatus(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}
	if !utils.IsHTTPURL(rawURL) {
		h.writeJSONError(w, "Invalid URL format in query parameter", http.StatusBadRequest)
		return
	}

	status, err := h.jobs.GetStatus(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, response.JobStatusResponse{Exists: false})
			return
		}
		slog.Error("Failed to get extraction job", "url", rawURL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewJobStatusResponse(status.Job, status.Events))
}
