package controllers

import (
	"encoding/json"
	"net/http"

	"lymbo_server/apperrors"
	"lymbo_server/services"

	"github.com/rs/zerolog/log"
)

// MatchController handles HTTP requests for likes and matches.
type MatchController struct {
	MatchService *services.MatchService
}

// NewMatchController creates a new MatchController instance.
func NewMatchController(matchService *services.MatchService) *MatchController {
	return &MatchController{MatchService: matchService}
}

// Like records a like and reports whether it completed a match.
func (mc *MatchController) Like(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FromUserID  string `json:"fromUserId"`
		ToUserID    string `json:"toUserId"`
		IsSuperLike bool   `json:"isSuperLike"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	result, err := mc.MatchService.Like(r.Context(), payload.FromUserID, payload.ToUserID, payload.IsSuperLike)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// GetMatches returns the user's active matches.
func (mc *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	matches, err := mc.MatchService.FetchMatches(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"matches": matches,
	})
}

// GetReceivedLikes returns likes the user has received, newest first.
func (mc *MatchController) GetReceivedLikes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	likes, err := mc.MatchService.FetchReceivedLikes(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"likes": likes,
	})
}

// GetSentLikes returns likes the user has sent, newest first.
func (mc *MatchController) GetSentLikes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	likes, err := mc.MatchService.FetchSentLikes(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"likes": likes,
	})
}

// Unmatch deactivates a match. The likes behind it are kept.
func (mc *MatchController) Unmatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MatchID string `json:"matchId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := mc.MatchService.Unmatch(r.Context(), payload.MatchID); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Unmatched"})
}

// writeError maps service errors onto HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	http.Error(w, err.Error(), status)
}
