// Package api exposes the plant collection and the identification workflow
// over a local HTTP API and an MCP stdio server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/media"
	"github.com/kalambet/botanic/internal/news"
	"github.com/kalambet/botanic/internal/workflow"
)

// Collection is the record store the API reads and writes.
type Collection interface {
	ListPlants(ctx context.Context) ([]collection.Plant, error)
	ListImageURIs(ctx context.Context) ([]string, error)
	AppendImageURI(ctx context.Context, uri string) error
	SavePlant(ctx context.Context, c collection.Candidate) (collection.Plant, error)
	DeletePlant(ctx context.Context, id string) error
}

// NewsSource returns recent articles from the configured feeds.
type NewsSource interface {
	Latest(ctx context.Context, urls []string, limit int) ([]news.Item, error)
}

type AppDeps struct {
	Store       Collection
	Pipeline    workflow.Runner
	Permissions media.Permissions // nil denies every image source
	News        NewsSource        // optional; if nil, /news returns 503
	Feeds       []string
	DataDir     string
	Token       string
}

// NewHandler returns the HTTP API. /health is open; every other route
// requires the bearer token.
func NewHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/plants", handleListPlants(deps))
		r.Get("/plants/{id}", handleGetPlant(deps))
		r.Delete("/plants/{id}", handleDeletePlant(deps))
		r.Get("/images", handleListImages(deps))
		r.Post("/identify", handleIdentify(deps))
		r.Get("/news", handleNews(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
