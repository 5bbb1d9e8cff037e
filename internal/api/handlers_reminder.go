package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leaflove/care-service/internal/api/respond"
	"github.com/leaflove/care-service/internal/api/validate"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/services"
)

type ReminderHandler struct {
	svc *services.ReminderService
}

func NewReminderHandler(svc *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

// CreateReminder POST /api/users/{userId}/plants/{userPlantId}/reminders
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req validate.CreateReminder
	if err := decode(r, &req, false); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	vars := mux.Vars(r)
	out, err := h.svc.CreateReminder(r.Context(), vars["userId"], vars["userPlantId"], services.CreateReminderRequest{
		Type:              model.ReminderType(req.Type),
		Title:             req.Title,
		Description:       req.Description,
		DueDate:           *req.DueDate,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: req.RecurringInterval,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListPlantReminders GET /api/users/{userId}/plants/{userPlantId}/reminders
func (h *ReminderHandler) ListPlantReminders(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	out, err := h.svc.ListPlantReminders(r.Context(), vars["userId"], vars["userPlantId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if out == nil {
		out = []model.Reminder{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"reminders": out, "count": len(out)})
}

// ListOpenReminders GET /api/users/{userId}/reminders/open
func (h *ReminderHandler) ListOpenReminders(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListOpenReminders(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if out == nil {
		out = []model.Reminder{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"reminders": out, "count": len(out)})
}

// CompleteReminder POST /api/users/{userId}/reminders/{reminderId}/complete
func (h *ReminderHandler) CompleteReminder(w http.ResponseWriter, r *http.Request) {
	var req validate.CompleteReminder
	if err := decode(r, &req, true); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	vars := mux.Vars(r)
	out, err := h.svc.CompleteReminder(r.Context(), vars["userId"], vars["reminderId"], req.Notes)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
