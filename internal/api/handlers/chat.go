package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brandpulse-ai/brandpulse/internal/api"
	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/service"
)

type ChatProvider interface {
	Chat(ctx context.Context, input service.ChatInput) (*service.ChatOutput, error)
}

type ChatHandler struct {
	chat ChatProvider
}

func NewChatHandler(chat ChatProvider) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type ChatRequest struct {
	SessionID  string `json:"session_id"`
	CampaignID string `json:"campaign_id"`
	Query      string `json:"query"`
}

type ChatResponse struct {
	Answer         string   `json:"answer"`
	Blocked        bool     `json:"blocked"`
	Crisis         bool     `json:"crisis"`
	VerdictSummary string   `json:"verdict_summary,omitempty"`
	ContextIDs     []string `json:"context_ids,omitempty"`
}

// Chat answers a question about a campaign's insights. Guardrail
// refusals come back as normal 200 responses with Blocked set; only
// infrastructure failures surface as errors.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	if req.CampaignID == "" {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "campaign_id is required")
		return
	}

	out, err := h.chat.Chat(r.Context(), service.ChatInput{
		SessionID:  req.SessionID,
		CampaignID: req.CampaignID,
		Query:      req.Query,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Answer:         out.Answer,
		Blocked:        out.Blocked,
		Crisis:         out.Crisis,
		VerdictSummary: out.VerdictSummary,
		ContextIDs:     out.ContextIDs,
	})
}
