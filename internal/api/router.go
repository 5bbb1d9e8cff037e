package api

import (
	"github.com/gorilla/mux"

	"github.com/leaflove/care-service/internal/api/recovery"
	"github.com/leaflove/care-service/internal/services"
)

// Services bundles what the router needs.
type Services struct {
	Recommendations *services.RecommendationService
	Reminders       *services.ReminderService
	Plants          *services.PlantService
	Supervisors     *services.SupervisorService
	Observations    *services.ObservationService
	Health          HealthReporter
}

// NewRouter wires HTTP routes to handlers.
func NewRouter(s Services) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Health
	healthHandler := NewHealthHandler(s.Health)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Users, catalog, plants
	plants := NewPlantHandler(s.Plants)
	root.HandleFunc("/api/users", plants.CreateUser).Methods("POST")
	root.HandleFunc("/api/users/{userId}", plants.GetUser).Methods("GET")
	root.HandleFunc("/api/catalog/{plantId}", plants.PutCareProfile).Methods("PUT")
	root.HandleFunc("/api/catalog/{plantId}", plants.GetCareProfile).Methods("GET")
	root.HandleFunc("/api/users/{userId}/plants", plants.AddPlant).Methods("POST")
	root.HandleFunc("/api/users/{userId}/plants/{userPlantId}", plants.GetPlant).Methods("GET")
	root.HandleFunc("/api/users/{userId}/plants/{userPlantId}/history", plants.CareHistory).Methods("GET")

	// Reminders
	reminders := NewReminderHandler(s.Reminders)
	root.HandleFunc("/api/users/{userId}/plants/{userPlantId}/reminders", reminders.CreateReminder).Methods("POST")
	root.HandleFunc("/api/users/{userId}/plants/{userPlantId}/reminders", reminders.ListPlantReminders).Methods("GET")
	root.HandleFunc("/api/users/{userId}/reminders/open", reminders.ListOpenReminders).Methods("GET")
	root.HandleFunc("/api/users/{userId}/reminders/{reminderId}/complete", reminders.CompleteReminder).Methods("POST")

	// Recommendations
	recs := NewRecommendationHandler(s.Recommendations)
	root.HandleFunc("/api/users/{userId}/reminders", recs.Reminders).Methods("GET")
	root.HandleFunc("/api/users/{userId}/feed", recs.Feed).Methods("GET")
	root.HandleFunc("/api/users/{userId}/inbox", recs.Inbox).Methods("GET")
	root.HandleFunc("/api/users/{userId}/recommendations", recs.ListFeed).Methods("GET")
	root.HandleFunc("/api/users/{userId}/recommendations/dashboard", recs.Dashboard).Methods("GET")
	root.HandleFunc("/api/users/{userId}/recommendations/generate", recs.Generate).Methods("POST")
	root.HandleFunc("/api/users/{userId}/recommendations/{recommendationId}/acknowledge", recs.Acknowledge).Methods("POST")
	root.HandleFunc("/api/users/{userId}/recommendations/{recommendationId}/dismiss", recs.Dismiss).Methods("POST")
	root.HandleFunc("/api/recommendations/generate-all", recs.GenerateAll).Methods("POST")

	// Supervisor recommendations and observations
	sup := NewSupervisorHandler(s.Supervisors, s.Observations)
	root.HandleFunc("/api/supervisors/{supervisorId}/recommendations", sup.CreateRecommendation).Methods("POST")
	root.HandleFunc("/api/users/{userId}/supervisor-recommendations", sup.ListForUser).Methods("GET")
	root.HandleFunc("/api/users/{userId}/supervisor-recommendations/{recommendationId}/respond", sup.Respond).Methods("POST")
	root.HandleFunc("/api/users/{userId}/observations", sup.RecordObservation).Methods("POST")
	root.HandleFunc("/api/users/{userId}/observations", sup.ListObservations).Methods("GET")

	return root
}
