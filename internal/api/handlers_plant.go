package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leaflove/care-service/internal/api/respond"
	"github.com/leaflove/care-service/internal/api/validate"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/services"
)

// PlantHandler covers users, the catalog and user plants.
type PlantHandler struct {
	svc *services.PlantService
}

func NewPlantHandler(svc *services.PlantService) *PlantHandler { return &PlantHandler{svc: svc} }

// CreateUser POST /api/users
func (h *PlantHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req validate.CreateUser
	if err := decode(r, &req, false); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	out, err := h.svc.CreateUser(r.Context(), &model.User{UserID: req.UserID, Location: req.Location, Hemisphere: req.Hemisphere})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// GetUser GET /api/users/{userId}
func (h *PlantHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// PutCareProfile PUT /api/catalog/{plantId}
func (h *PlantHandler) PutCareProfile(w http.ResponseWriter, r *http.Request) {
	var req validate.PutCareProfile
	if err := decode(r, &req, false); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	p := &model.PlantCareProfile{
		PlantID:          mux.Vars(r)["plantId"],
		CommonName:       req.CommonName,
		ScientificName:   req.ScientificName,
		Watering:         model.CareItem(req.Watering),
		Fertilizing:      model.CareItem(req.Fertilizing),
		Pruning:          model.CareItem(req.Pruning),
		LightRequirement: req.LightRequirement,
		SeasonalNotes:    req.SeasonalNotes,
		PlantingMonths:   req.PlantingMonths,
		HarvestMonths:    req.HarvestMonths,
	}
	if err := h.svc.PutCareProfile(r.Context(), p); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// GetCareProfile GET /api/catalog/{plantId}
func (h *PlantHandler) GetCareProfile(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetCareProfile(r.Context(), mux.Vars(r)["plantId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// AddPlant POST /api/users/{userId}/plants
func (h *PlantHandler) AddPlant(w http.ResponseWriter, r *http.Request) {
	var req validate.AddPlant
	if err := decode(r, &req, false); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	up := &model.UserPlant{
		UserID:     mux.Vars(r)["userId"],
		PlantID:    req.PlantID,
		GardenID:   req.GardenID,
		CustomName: req.CustomName,
		Location:   req.Location,
	}
	if req.PlantedDate != nil {
		up.PlantedDate = req.PlantedDate.UTC()
	}
	if len(req.Care) > 0 {
		up.Care = make(map[model.CareType]model.CareOverride, len(req.Care))
		for k, ov := range req.Care {
			up.Care[model.CareType(k)] = model.CareOverride{Frequency: ov.Frequency, LastPerformed: ov.LastPerformed}
		}
	}
	out, err := h.svc.AddPlant(r.Context(), up)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// GetPlant GET /api/users/{userId}/plants/{userPlantId}
func (h *PlantHandler) GetPlant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	out, err := h.svc.GetPlant(r.Context(), vars["userId"], vars["userPlantId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// CareHistory GET /api/users/{userId}/plants/{userPlantId}/history
func (h *PlantHandler) CareHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	vars := mux.Vars(r)
	out, err := h.svc.CareHistory(r.Context(), vars["userId"], vars["userPlantId"], limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if out == nil {
		out = []model.CareEvent{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": out, "count": len(out)})
}
