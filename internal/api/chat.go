package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/insightlab/datachat/internal/domain"
)

// defaultPartition is the conversation partition used when the client does
// not name one.
const defaultPartition = "admin"

// ChatHandler handles the conversational endpoints.
type ChatHandler struct {
	*Handler
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(base *Handler) *ChatHandler {
	return &ChatHandler{Handler: base}
}

// RegisterRoutes registers the chat and history routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.Chat)
	r.Get("/history/{role}", h.GetHistory)
	r.Delete("/history/{role}", h.DeleteHistory)
}

type chatRequest struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

// Chat runs one conversational turn and returns the typed response envelope.
// Upstream model failures never surface as HTTP errors; they are already
// converted to user-safe text envelopes by the orchestrator.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}
	partition := req.Role
	if partition == "" {
		partition = defaultPartition
	}

	envelope, err := h.svc.HandleTurn(r.Context(), partition, req.Message)
	if err != nil {
		slog.Error("Chat turn failed", "error", err, "partition", partition)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	JSON(w, http.StatusOK, envelope)
}

// GetHistory returns the conversation history for a partition in
// chronological order.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	partition := chi.URLParam(r, "role")

	messages, err := h.repo.History(r.Context(), partition)
	if err != nil {
		slog.Error("Failed to load history", "error", err, "partition", partition)
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	entries := make([]domain.HistoryEntry, 0, len(messages))
	for i := range messages {
		entries = append(entries, messages[i].ToHistoryEntry())
	}
	JSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// DeleteHistory removes every stored message for a partition.
func (h *ChatHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	partition := chi.URLParam(r, "role")

	deleted, err := h.repo.DeleteHistory(r.Context(), partition)
	if err != nil {
		slog.Error("Failed to delete history", "error", err, "partition", partition)
		Error(w, http.StatusInternalServerError, "failed to delete history")
		return
	}

	slog.Info("History cleared", "partition", partition, "deleted", deleted)
	JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "cleared",
		"deleted": deleted,
	})
}
