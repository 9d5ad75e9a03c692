package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sse"

	"github.com/user/recipe-service/internal/delivery/http/request"
	"github.com/user/recipe-service/internal/delivery/http/response"
	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/usecase"
	"github.com/user/recipe-service/pkg/utils"
)

const (
	eventProgress = "progress"
	eventComplete = "complete"
	eventError    = "error"

	inProgressError   = "Recipe already being processed"
	inProgressMessage = "This URL is currently being processed. Please wait."
	failedError       = "Extraction failed"
)

func (h *Handler) decodeExtractRequest(w http.ResponseWriter, r *http.Request) (usecase.ExtractionRequest, bool) {
	var req request.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return usecase.ExtractionRequest{}, false
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.writeJSONError(w, "Missing url", http.StatusBadRequest)
		return usecase.ExtractionRequest{}, false
	}
	if !utils.IsHTTPURL(req.URL) {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return usecase.ExtractionRequest{}, false
	}

	return usecase.ExtractionRequest{
		URL:    req.URL,
		Notes:  strings.TrimSpace(req.Notes),
		Locale: req.CostLocale(),
	}, true
}

// HandleExtractStream starts an extraction and streams its progress as
// server-sent events. A client that disconnects does not stop the pipeline.
func (h *Handler) HandleExtractStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeExtractRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.extractions.Start(r.Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrExtractionInProgress) {
			setSSEHeaders(w)
			w.WriteHeader(http.StatusConflict)
			h.writeEvent(w, "", response.ErrorResponse{Error: inProgressError, Message: inProgressMessage})
			return
		}
		slog.Error("Failed to start extraction", "url", req.URL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if sub.Existing != nil {
		h.writeJSON(w, http.StatusOK, response.ExtractionResponse{
			ID:         sub.Existing.ID,
			Recipe:     sub.Existing.Extracted,
			IsExisting: true,
		})
		return
	}

	rc := clearWriteDeadline(w)
	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			h.writeEvent(w, eventProgress, response.NewProgressResponse(ev))
			switch {
			case ev.Result != nil:
				h.writeEvent(w, eventComplete, response.ExtractionResponse{
					ID:       ev.Result.RecipeID,
					Recipe:   ev.Result.Recipe,
					Complete: true,
				})
			case ev.Failure != nil:
				h.writeEvent(w, eventError, failureResponse(ev.Failure))
			}
			if err := rc.Flush(); err != nil {
				slog.Debug("Failed to flush event stream", "url", req.URL, "error", err)
			}
		case <-r.Context().Done():
			slog.Info("Client detached from extraction stream", "url", req.URL)
			return
		}
	}
}

// HandleExtract runs an extraction and responds once it has finished.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeExtractRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.extractions.Start(r.Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrExtractionInProgress) {
			h.writeJSON(w, http.StatusConflict, response.ErrorResponse{Error: inProgressError, Message: inProgressMessage})
			return
		}
		slog.Error("Failed to start extraction", "url", req.URL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if sub.Existing != nil {
		h.writeJSON(w, http.StatusOK, response.ExtractionResponse{
			ID:         sub.Existing.ID,
			Recipe:     sub.Existing.Extracted,
			IsExisting: true,
		})
		return
	}

	clearWriteDeadline(w)
	var last entity.ProgressEvent
	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				h.writeResult(w, req.URL, last)
				return
			}
			last = ev
		case <-r.Context().Done():
			slog.Info("Client detached from extraction", "url", req.URL)
			return
		}
	}
}

func (h *Handler) writeResult(w http.ResponseWriter, url string, last entity.ProgressEvent) {
	switch {
	case last.Result != nil:
		h.writeJSON(w, http.StatusCreated, response.ExtractionResponse{
			ID:       last.Result.RecipeID,
			Recipe:   last.Result.Recipe,
			Complete: true,
		})
	case last.Failure != nil:
		h.writeJSON(w, http.StatusBadGateway, failureResponse(last.Failure))
	default:
		slog.Error("Extraction ended without a result", "url", url)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func failureResponse(f *entity.ExtractionFailure) response.ErrorResponse {
	return response.ErrorResponse{Error: failedError, ErrorKind: f.ErrorKind, Message: f.Message}
}

// clearWriteDeadline lets a long-running response outlive the server's
// write timeout.
func clearWriteDeadline(w http.ResponseWriter) *http.ResponseController {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Debug("Failed to clear write deadline", "error", err)
	}
	return rc
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func (h *Handler) writeEvent(w http.ResponseWriter, event string, data any) {
	if err := sse.Encode(w, sse.Event{Event: event, Data: data}); err != nil {
		slog.Error("Failed to write SSE event", "event", event, "error", err)
	}
}
