package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leaflove/care-service/internal/api/respond"
	"github.com/leaflove/care-service/internal/api/validate"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/services"
)

// SupervisorHandler serves supervisor recommendations and plant observations.
type SupervisorHandler struct {
	sup *services.SupervisorService
	obs *services.ObservationService
}

func NewSupervisorHandler(sup *services.SupervisorService, obs *services.ObservationService) *SupervisorHandler {
	return &SupervisorHandler{sup: sup, obs: obs}
}

// CreateRecommendation POST /api/supervisors/{supervisorId}/recommendations
func (h *SupervisorHandler) CreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req validate.CreateSupervisorRecommendation
	if err := decode(r, &req, false); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	out, err := h.sup.CreateRecommendation(r.Context(), &model.Recommendation{
		SupervisorID: mux.Vars(r)["supervisorId"],
		UserID:       req.UserID,
		UserPlantID:  req.UserPlantID,
		Type:         req.Type,
		Title:        req.Title,
		Message:      req.Message,
		Priority:     model.Priority(req.Priority),
		FollowUp:     req.FollowUp,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListForUser GET /api/users/{userId}/supervisor-recommendations
func (h *SupervisorHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	out, err := h.sup.ListForUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if out == nil {
		out = []*model.Recommendation{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"recommendations": out, "count": len(out)})
}

// Respond POST /api/users/{userId}/supervisor-recommendations/{recommendationId}/respond
func (h *SupervisorHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req validate.RespondSupervisor
	if err := decode(r, &req, false); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	vars := mux.Vars(r)
	out, err := h.sup.Respond(r.Context(), vars["userId"], vars["recommendationId"], model.SupervisorStatus(req.Status), req.Response)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// RecordObservation POST /api/users/{userId}/observations
func (h *SupervisorHandler) RecordObservation(w http.ResponseWriter, r *http.Request) {
	var req validate.RecordObservation
	if err := decode(r, &req, false); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	o := &model.Observation{
		UserID: mux.Vars(r)["userId"],
		Owner:  model.OwnerRef{Kind: model.OwnerKind(req.OwnerKind), OwnerID: req.OwnerID, PlantRef: req.PlantRef},
		Note:   req.Note,
		Health: req.Health,
	}
	if req.ObservedAt != nil {
		o.ObservedAt = req.ObservedAt.UTC()
	}
	out, err := h.obs.Record(r.Context(), o)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListObservations GET /api/users/{userId}/observations?ownerKind=&ownerId=&plantRef=
func (h *SupervisorHandler) ListObservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner := model.OwnerRef{Kind: model.OwnerKind(q.Get("ownerKind")), OwnerID: q.Get("ownerId"), PlantRef: q.Get("plantRef")}
	out, err := h.obs.List(r.Context(), mux.Vars(r)["userId"], owner)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"observations": out, "count": len(out)})
}
