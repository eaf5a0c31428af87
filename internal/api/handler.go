// Package api provides HTTP handlers for the analytics chat API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/insightlab/datachat/internal/agent"
	"github.com/insightlab/datachat/internal/dataset"
	"github.com/insightlab/datachat/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	svc       *agent.Service
	repo      store.Repository
	registry  *dataset.Registry
	staticDir string
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(svc *agent.Service, repo store.Repository, registry *dataset.Registry, staticDir string) *Handler {
	return &Handler{
		svc:       svc,
		repo:      repo,
		registry:  registry,
		staticDir: staticDir,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
