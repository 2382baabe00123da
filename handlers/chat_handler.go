package handlers

import (
	"context"
	"encoding/json"
	"gynergyAPI/internal/chat"
	"gynergyAPI/middleware"
	"gynergyAPI/services"
	"log"
	"net/http"
	"time"
)

// defaultTokenBudget bounds the conversation history when the client does
// not ask for a specific budget.
const defaultTokenBudget = 2000

type ChatHandler struct {
	journalService *services.JournalService
}

func NewChatHandler(journalService *services.JournalService) *ChatHandler {
	return &ChatHandler{journalService: journalService}
}

// BuildContext assembles the companion prompt material for the authenticated
// user: the rendered context string plus the conversation history trimmed to
// the token budget. The client forwards both to the LLM provider verbatim.
func (h *ChatHandler) BuildContext(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req chat.BuildContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TokenBudget <= 0 {
		req.TokenBudget = defaultTokenBudget
	}

	uc, err := h.journalService.BuildUserContext(ctx, clerkID)
	if err != nil {
		log.Printf("BuildContext Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to build user context")
		return
	}

	systemContext := services.BuildUserContextString(uc)
	trimmed := services.TrimConversationHistory(req.Messages, req.TokenBudget)

	estimated := services.EstimateTokens(systemContext)
	for _, m := range trimmed {
		estimated += services.EstimateTokens(m.Content)
	}

	respondWithJSON(w, http.StatusOK, chat.BuildContextResponse{
		SystemContext:   systemContext,
		Messages:        trimmed,
		EstimatedTokens: estimated,
	})
}
