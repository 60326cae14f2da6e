// Package api exposes prism over HTTP (chi) and MCP (stdio). The HTTP
// surface answers questions with community perspectives and manages stored
// interactions, feedback, and the consistency cache.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pluralign/prism/internal/cache"
	"github.com/pluralign/prism/internal/pipeline"
	"github.com/pluralign/prism/internal/selection"
	"github.com/pluralign/prism/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AskRequest answers a question for a user. Either user_id (resolved against
// the loaded profiles) or an inline profile must be given.
type AskRequest struct {
	UserID   string      `json:"user_id,omitempty"`
	Profile  *AskProfile `json:"profile,omitempty"`
	Question string      `json:"question"`
}

// AskProfile is an inline user profile for callers without a dataset user.
type AskProfile struct {
	PrimaryCommunityType   string `json:"primary_community_type"`
	PrimaryCommunity       string `json:"primary_community"`
	SecondaryCommunityType string `json:"secondary_community_type,omitempty"`
	SecondaryCommunity     string `json:"secondary_community,omitempty"`
	TertiaryCommunityType  string `json:"tertiary_community_type,omitempty"`
	TertiaryCommunity      string `json:"tertiary_community,omitempty"`
}

// FeedbackRequest rates a stored interaction.
type FeedbackRequest struct {
	UserCommunity            string `json:"user_community"`
	AccuracyOwnCommunity     int    `json:"accuracy_own_community"`
	AccuracyOtherCommunities int    `json:"accuracy_other_communities"`
	Usefulness               int    `json:"usefulness"`
	PreferMultiple           string `json:"prefer_multiple_perspectives"`
	MissingPerspectives      string `json:"missing_perspectives"`
	Comments                 string `json:"comments"`
}

// AppDeps holds dependencies for the HTTP API.
type AppDeps struct {
	Pipeline *pipeline.Service
	Cache    *cache.Cache
	Store    *storage.Store
	// Profiles resolves user_id in ask requests; typically the dataset's
	// unique user profiles.
	Profiles []selection.UserProfile
	Token    string // empty disables authentication
}

// NewAppHandler builds the HTTP API router.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Post("/ask", handleAsk(deps))
		r.Get("/interactions", handleListInteractions(deps))
		r.Get("/interactions/{id}", handleGetInteraction(deps))
		r.Post("/interactions/{id}/feedback", handlePostFeedback(deps))
		r.Get("/cache/stats", handleCacheStats(deps))
		r.Post("/cache/sweep", handleCacheSweep(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleAsk(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		user, err := resolveUser(deps.Profiles, req)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		resp, err := deps.Pipeline.Answer(r.Context(), user, req.Question)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to answer: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func resolveUser(profiles []selection.UserProfile, req AskRequest) (selection.UserProfile, error) {
	if req.UserID != "" {
		for _, p := range profiles {
			if p.UserID == req.UserID {
				return p, nil
			}
		}
		return selection.UserProfile{}, fmt.Errorf("unknown user_id %q", req.UserID)
	}
	if req.Profile == nil || req.Profile.PrimaryCommunity == "" {
		return selection.UserProfile{}, errors.New("user_id or profile.primary_community is required")
	}
	return selection.UserProfile{
		UserID:                 "anonymous",
		PrimaryCommunityType:   req.Profile.PrimaryCommunityType,
		PrimaryCommunity:       req.Profile.PrimaryCommunity,
		SecondaryCommunityType: req.Profile.SecondaryCommunityType,
		SecondaryCommunity:     req.Profile.SecondaryCommunity,
		TertiaryCommunityType:  req.Profile.TertiaryCommunityType,
		TertiaryCommunity:      req.Profile.TertiaryCommunity,
	}, nil
}

func handleListInteractions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		userID := r.URL.Query().Get("user_id")

		interactions, err := deps.Store.ListInteractions(limit, userID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list interactions: %v", err)
			return
		}

		if interactions == nil {
			interactions = []storage.Interaction{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interactions)
	}
}

func handleGetInteraction(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		interaction, err := deps.Store.GetInteraction(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get interaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interaction)
	}
}

func handlePostFeedback(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req FeedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		err := deps.Pipeline.RecordFeedback(storage.Feedback{
			InteractionID:            id,
			UserCommunity:            req.UserCommunity,
			AccuracyOwnCommunity:     req.AccuracyOwnCommunity,
			AccuracyOtherCommunities: req.AccuracyOtherCommunities,
			Usefulness:               req.Usefulness,
			PreferMultiple:           req.PreferMultiple,
			MissingPerspectives:      req.MissingPerspectives,
			Comments:                 req.Comments,
			CreatedAt:                time.Now().UTC(),
		})
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save feedback: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "recorded"})
	}
}

func handleCacheStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Cache.Stats()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to gather cache stats: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

func handleCacheSweep(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := deps.Cache.SweepExpired()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to sweep cache: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"removed": removed})
	}
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
