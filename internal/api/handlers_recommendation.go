package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leaflove/care-service/internal/api/respond"
	"github.com/leaflove/care-service/internal/api/validate"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/services"
)

// RecommendationHandler serves the AutoRecommendation feed and its lifecycle.
type RecommendationHandler struct {
	svc *services.RecommendationService
}

func NewRecommendationHandler(svc *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

// ListFeed GET /api/users/{userId}/recommendations
func (h *RecommendationHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(r, "page")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	out, err := h.svc.ListFeed(r.Context(), mux.Vars(r)["userId"], services.ListFeedRequest{
		Type:     model.RecommendationType(q.Get("type")),
		Status:   model.RecommendationStatus(q.Get("status")),
		Priority: model.Priority(q.Get("priority")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Dashboard GET /api/users/{userId}/recommendations/dashboard
func (h *RecommendationHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.DashboardSummary(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Acknowledge POST /api/users/{userId}/recommendations/{recommendationId}/acknowledge
func (h *RecommendationHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.svc.Acknowledge)
}

// Dismiss POST /api/users/{userId}/recommendations/{recommendationId}/dismiss
func (h *RecommendationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.svc.Dismiss)
}

type actionFunc func(ctx context.Context, userID, recommendationID, notes string) (*model.AutoRecommendation, error)

func (h *RecommendationHandler) act(w http.ResponseWriter, r *http.Request, fn actionFunc) {
	var req validate.RecommendationAction
	if err := decode(r, &req, true); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	vars := mux.Vars(r)
	out, err := fn(r.Context(), vars["userId"], vars["recommendationId"], req.Notes)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Generate POST /api/users/{userId}/recommendations/generate
func (h *RecommendationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Generate(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"result": out, "persisted": out.Persisted()})
}

// GenerateAll POST /api/recommendations/generate-all
func (h *RecommendationHandler) GenerateAll(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GenerateAll(r.Context())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Feed GET /api/users/{userId}/feed
func (h *RecommendationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	eval, err := evalOptions(r)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	page, err := intParam(r, "page")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	items, err := h.svc.BuildFeed(r.Context(), mux.Vars(r)["userId"], services.FeedOptions{EvalOptions: eval, Page: page, Limit: limit})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items, "count": len(items)})
}

// Reminders GET /api/users/{userId}/reminders
func (h *RecommendationHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	eval, err := evalOptions(r)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	out, err := h.svc.ListReminders(r.Context(), mux.Vars(r)["userId"], eval)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"reminders": out, "count": len(out)})
}

// Inbox GET /api/users/{userId}/inbox
func (h *RecommendationHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Inbox(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": out, "count": len(out)})
}

func evalOptions(r *http.Request) (services.EvalOptions, error) {
	w, err := boolParam(r, "includeWeather", true)
	if err != nil {
		return services.EvalOptions{}, err
	}
	s, err := boolParam(r, "includeSeasonal", true)
	if err != nil {
		return services.EvalOptions{}, err
	}
	return services.EvalOptions{IncludeWeather: w, IncludeSeasonal: s}, nil
}
