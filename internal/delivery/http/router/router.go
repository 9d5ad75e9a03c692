package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/recipe-service/internal/delivery/http/handler"
	"github.com/user/recipe-service/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.HandleHealthCheck)
	mux.HandleFunc("POST /api/extract-stream", h.HandleExtractStream)
	mux.HandleFunc("POST /api/extract", h.HandleExtract)
	mux.HandleFunc("GET /api/jobs", h.HandleGetJobStatus)
	mux.HandleFunc("GET /api/recipes", h.HandleListRecipes)
	mux.HandleFunc("GET /api/recipes/{id}", h.HandleGetRecipe)
	mux.HandleFunc("DELETE /api/recipes/{id}", h.HandleDeleteRecipe)

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middlewares
	var chainedHandler http.Handler = mux
	chainedHandler = middleware.Metrics(chainedHandler)
	chainedHandler = middleware.Logging(chainedHandler)

	return chainedHandler
}
