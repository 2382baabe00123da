package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"gynergyAPI/middleware"
	"gynergyAPI/services"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type BadgeHandler struct {
	badgeService *services.BadgeService
	userService  *services.UserService
}

func NewBadgeHandler(badgeService *services.BadgeService, userService *services.UserService) *BadgeHandler {
	return &BadgeHandler{
		badgeService: badgeService,
		userService:  userService,
	}
}

func (h *BadgeHandler) GetBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userID, sessionID, err := h.userService.ResolveIdentity(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	badges, err := h.badgeService.GetBadges(ctx, userID, sessionID)
	if err != nil {
		log.Printf("GetBadges Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load badges")
		return
	}

	respondWithJSON(w, http.StatusOK, badges)
}

// ToggleShowcase flips a badge's showcase flag. The response always carries a
// success flag; a hit on the 3-badge cap or a badge the user has not earned
// comes back as success=false with the reason rather than a plain error.
func (h *BadgeHandler) ToggleShowcase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		BadgeID   string `json:"badge_id"`
		Showcased bool   `json:"showcased"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	badgeID, err := uuid.Parse(req.BadgeID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "badge_id must be a valid id")
		return
	}

	userID, sessionID, err := h.userService.ResolveIdentity(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	ub, err := h.badgeService.ToggleBadgeShowcase(ctx, userID, badgeID, sessionID, req.Showcased)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrShowcaseLimit):
			respondWithJSON(w, http.StatusOK, map[string]interface{}{
				"success": false,
				"error":   "You can only showcase up to 3 badges",
			})
		case errors.Is(err, services.ErrBadgeNotEarned):
			respondWithJSON(w, http.StatusOK, map[string]interface{}{
				"success": false,
				"error":   "Badge not earned",
			})
		default:
			log.Printf("ToggleShowcase Handler: Service error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to update showcase")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"badge":   ub,
	})
}

func (h *BadgeHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userID, sessionID, err := h.userService.ResolveIdentity(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.badgeService.MarkBadgesSeen(ctx, userID, sessionID); err != nil {
		log.Printf("MarkSeen Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to mark badges seen")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Badges marked as seen"})
}
