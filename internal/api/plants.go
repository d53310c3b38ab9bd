package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/botanic/internal/collection"
)

func handleListPlants(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plants, err := deps.Store.ListPlants(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list plants: %v", err)
			return
		}
		if plants == nil {
			plants = []collection.Plant{}
		}
		writeJSON(w, http.StatusOK, plants)
	}
}

func handleGetPlant(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		plants, err := deps.Store.ListPlants(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list plants: %v", err)
			return
		}
		for _, p := range plants {
			if p.ID == id {
				writeJSON(w, http.StatusOK, p)
				return
			}
		}
		httpError(w, http.StatusNotFound, "not_found", "plant not found")
	}
}

// handleDeletePlant succeeds for unknown ids; deleting nothing is a no-op.
func handleDeletePlant(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := deps.Store.DeletePlant(r.Context(), id); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete plant: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleListImages(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uris, err := deps.Store.ListImageURIs(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list images: %v", err)
			return
		}
		if uris == nil {
			uris = []string{}
		}
		writeJSON(w, http.StatusOK, uris)
	}
}

func handleNews(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.News == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "news is not configured")
			return
		}
		limit := parseIntParam(r, "limit", 20, 100)

		items, err := deps.News.Latest(r.Context(), deps.Feeds, limit)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to fetch news: %v", err)
			return
		}
		type newsItem struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Published   string `json:"published,omitempty"`
			Description string `json:"description"`
		}
		out := make([]newsItem, len(items))
		for i, it := range items {
			out[i] = newsItem{Title: it.Title, Link: it.Link, Description: it.Summary()}
			if !it.Published.IsZero() {
				out[i].Published = it.Published.Format(time.RFC3339)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
