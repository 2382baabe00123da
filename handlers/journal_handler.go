package handlers

import (
	"context"
	"encoding/json"
	"gynergyAPI/internal/badge"
	"gynergyAPI/internal/journal"
	"gynergyAPI/middleware"
	"gynergyAPI/services"
	"log"
	"net/http"
	"strconv"
	"time"
)

type JournalHandler struct {
	journalService *services.JournalService
	badgeService   *services.BadgeService
}

func NewJournalHandler(journalService *services.JournalService, badgeService *services.BadgeService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
		badgeService:   badgeService,
	}
}

// SubmitEntry stores a morning or evening journal entry and runs the badge
// check against the updated streaks. The response carries the entry plus any
// badges the submission unlocked so the client can play celebrations.
func (h *JournalHandler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req journal.SubmitEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.journalService.SubmitEntry(ctx, clerkID, &req)
	if err != nil {
		log.Printf("SubmitEntry Handler: Service error: %v", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.runBadgeCheck(ctx, clerkID)

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"entry":       entry,
		"badge_check": result,
	})
}

func (h *JournalHandler) SubmitGratitude(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req journal.SubmitGratitudeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	action, err := h.journalService.SubmitGratitudeAction(ctx, clerkID, &req)
	if err != nil {
		log.Printf("SubmitGratitude Handler: Service error: %v", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.runBadgeCheck(ctx, clerkID)

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"action":      action,
		"badge_check": result,
	})
}

func (h *JournalHandler) GetRecentEntries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = parsed
	}

	entries, err := h.journalService.GetRecentEntries(ctx, clerkID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

// CheckBadges re-runs the badge evaluation without a submission. Clients call
// this on app open so time-window and comeback badges are not missed.
func (h *JournalHandler) CheckBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.runBadgeCheck(ctx, clerkID))
}

// runBadgeCheck never fails the surrounding request: a submission that went
// through should not 500 because the award pass hit a snag.
func (h *JournalHandler) runBadgeCheck(ctx context.Context, clerkID string) *badge.CheckResult {
	chk, err := h.journalService.BuildCheckContext(ctx, clerkID)
	if err != nil {
		log.Printf("Badge check: failed to build context for %s: %v", clerkID, err)
		return &badge.CheckResult{
			NewBadges:         []*badge.Badge{},
			CelebrationEvents: []badge.CelebrationEvent{},
		}
	}

	return h.badgeService.CheckAndAwardBadges(ctx, chk)
}
