package model

import "time"

// Priority orders care work from least to most pressing.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns the ordinal used for sorting. Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool { return p.Rank() > 0 }

// CareType names the catalog-driven care activities.
type CareType string

const (
	CareWatering    CareType = "watering"
	CareFertilizing CareType = "fertilizing"
	CarePruning     CareType = "pruning"
)

// CareTypes lists the care activities evaluated by the schedule rules, in evaluation order.
var CareTypes = []CareType{CareWatering, CareFertilizing, CarePruning}

// ReminderType classifies a Reminder.
type ReminderType string

const (
	ReminderWatering    ReminderType = "watering"
	ReminderFertilizing ReminderType = "fertilizing"
	ReminderPruning     ReminderType = "pruning"
	ReminderHarvesting  ReminderType = "harvesting"
	ReminderCustom      ReminderType = "custom"
)

// RecommendationType is one of the eight AutoRecommendation kinds.
type RecommendationType string

const (
	RecWatering     RecommendationType = "watering"
	RecFertilizing  RecommendationType = "fertilizing"
	RecPruning      RecommendationType = "pruning"
	RecPestControl  RecommendationType = "pest_control"
	RecWeatherAlert RecommendationType = "weather_alert"
	RecSeasonalCare RecommendationType = "seasonal_care"
	RecHarvest      RecommendationType = "harvest"
	RecGeneral      RecommendationType = "general"
)

// RecommendationTypes lists every AutoRecommendation kind.
var RecommendationTypes = []RecommendationType{
	RecWatering, RecFertilizing, RecPruning, RecPestControl,
	RecWeatherAlert, RecSeasonalCare, RecHarvest, RecGeneral,
}

// RecommendationStatus is the stored lifecycle state of an AutoRecommendation.
type RecommendationStatus string

const (
	StatusActive       RecommendationStatus = "active"
	StatusAcknowledged RecommendationStatus = "acknowledged"
	StatusDismissed    RecommendationStatus = "dismissed"
	StatusExpired      RecommendationStatus = "expired"
)

// CareItem is the catalog default for one care activity.
type CareItem struct {
	Frequency    string `json:"frequency"`
	Instructions string `json:"instructions"`
}

// PlantCareProfile is the read-only catalog metadata for a plant species.
type PlantCareProfile struct {
	PlantID          string   `json:"plantId"`
	CommonName       string   `json:"commonName"`
	ScientificName   string   `json:"scientificName,omitempty"`
	Watering         CareItem `json:"watering"`
	Fertilizing      CareItem `json:"fertilizing"`
	Pruning          CareItem `json:"pruning"`
	LightRequirement string   `json:"lightRequirement,omitempty"`
	SeasonalNotes    string   `json:"seasonalNotes,omitempty"`
	// Months are 1-12.
	PlantingMonths []int `json:"plantingMonths,omitempty"`
	HarvestMonths  []int `json:"harvestMonths,omitempty"`
}

// Care returns the catalog default for a care type.
func (p *PlantCareProfile) Care(t CareType) CareItem {
	switch t {
	case CareWatering:
		return p.Watering
	case CareFertilizing:
		return p.Fertilizing
	case CarePruning:
		return p.Pruning
	}
	return CareItem{}
}

// CareOverride holds a user's per-plant adjustments for one care type.
type CareOverride struct {
	Frequency     string     `json:"frequency,omitempty"`
	LastPerformed *time.Time `json:"lastPerformed,omitempty"`
	NextDue       *time.Time `json:"nextDue,omitempty"`
}

// User is the minimal user record the engine needs.
type User struct {
	UserID     string    `json:"userId"`
	Location   string    `json:"location,omitempty"`
	Hemisphere string    `json:"hemisphere,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserPlant is a user's instance of a catalog plant.
type UserPlant struct {
	UserPlantID string                    `json:"userPlantId"`
	UserID      string                    `json:"userId"`
	PlantID     string                    `json:"plantId"`
	GardenID    string                    `json:"gardenId,omitempty"`
	CustomName  string                    `json:"customName"`
	Location    string                    `json:"location,omitempty"`
	PlantedDate time.Time                 `json:"plantedDate"`
	IsActive    bool                      `json:"isActive"`
	Care        map[CareType]CareOverride `json:"care,omitempty"`
	Reminders   []Reminder                `json:"reminders,omitempty"`
	CareHistory []CareEvent               `json:"careHistory,omitempty"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

// Override returns the user's override for t, or the zero value.
func (up *UserPlant) Override(t CareType) CareOverride {
	if up.Care == nil {
		return CareOverride{}
	}
	return up.Care[t]
}

// DisplayName prefers the user's custom name.
func (up *UserPlant) DisplayName(profile *PlantCareProfile) string {
	if up.CustomName != "" {
		return up.CustomName
	}
	if profile != nil && profile.CommonName != "" {
		return profile.CommonName
	}
	return "your plant"
}

// Reminder is a scheduled care task owned by a UserPlant. Reminders are stored as
// independent records referencing their owner by id.
type Reminder struct {
	ReminderID        string       `json:"reminderId"`
	UserPlantID       string       `json:"userPlantId"`
	UserID            string       `json:"userId"`
	Type              ReminderType `json:"type"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	DueDate           time.Time    `json:"dueDate"`
	IsCompleted       bool         `json:"isCompleted"`
	CompletedDate     *time.Time   `json:"completedDate,omitempty"`
	IsRecurring       bool         `json:"isRecurring"`
	RecurringInterval string       `json:"recurringInterval,omitempty"`
	PreviousID        string       `json:"previousId,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// CareEvent is one append-only entry in a UserPlant's care history.
type CareEvent struct {
	EventID     string    `json:"eventId"`
	UserPlantID string    `json:"userPlantId"`
	Action      string    `json:"action"`
	Notes       string    `json:"notes,omitempty"`
	ReminderID  string    `json:"reminderId,omitempty"`
	PerformedAt time.Time `json:"performedAt"`
}

// WeatherSnapshot is one observation for a location query. It is never persisted on its own.
type WeatherSnapshot struct {
	Location    string          `json:"location,omitempty"`
	Temperature float64         `json:"temperature"`
	Humidity    float64         `json:"humidity"`
	WindSpeed   float64         `json:"windSpeed"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
	Forecast    []ForecastPoint `json:"forecast,omitempty"`
}

// ForecastPoint is one step of a multi-day forecast.
type ForecastPoint struct {
	At          time.Time `json:"at"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Description string    `json:"description,omitempty"`
}

// AutoRecommendation is a system-generated advisory with its own lifecycle.
type AutoRecommendation struct {
	RecommendationID string               `json:"recommendationId"`
	UserID           string               `json:"userId"`
	UserPlantID      string               `json:"userPlantId,omitempty"`
	PlantID          string               `json:"plantId,omitempty"`
	GardenID         string               `json:"gardenId,omitempty"`
	Type             RecommendationType   `json:"type"`
	Tag              string               `json:"tag"`
	Title            string               `json:"title"`
	Message          string               `json:"message"`
	Priority         Priority             `json:"priority"`
	Status           RecommendationStatus `json:"status"`
	DueDate          time.Time            `json:"dueDate"`
	ScheduledFor     time.Time            `json:"scheduledFor"`
	ExpiresAt        time.Time            `json:"expiresAt"`
	WeatherData      *WeatherSnapshot     `json:"weatherData,omitempty"`
	IsRecurring      bool                 `json:"isRecurring"`
	RecurringPattern string               `json:"recurringPattern,omitempty"`
	ActionTaken      bool                 `json:"actionTaken"`
	ActionDate       *time.Time           `json:"actionDate,omitempty"`
	UserNotes        string               `json:"userNotes,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// Visible reports whether the recommendation is active at now:
// status=active and scheduledFor <= now < expiresAt.
func (r *AutoRecommendation) Visible(now time.Time) bool {
	return r.Status == StatusActive && !r.ScheduledFor.After(now) && now.Before(r.ExpiresAt)
}

// SortDate is the date used for tie-breaking in rankings.
func (r *AutoRecommendation) SortDate() time.Time {
	if !r.DueDate.IsZero() {
		return r.DueDate
	}
	return r.ScheduledFor
}

// SupervisorStatus is the lifecycle state of a human-authored Recommendation.
type SupervisorStatus string

const (
	SupervisorPending     SupervisorStatus = "pending"
	SupervisorViewed      SupervisorStatus = "viewed"
	SupervisorImplemented SupervisorStatus = "implemented"
	SupervisorDismissed   SupervisorStatus = "dismissed"
)

// Recommendation is authored by a supervisor for a user's plant.
type Recommendation struct {
	RecommendationID string           `json:"recommendationId"`
	SupervisorID     string           `json:"supervisorId"`
	UserID           string           `json:"userId"`
	UserPlantID      string           `json:"userPlantId,omitempty"`
	Type             string           `json:"type"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	Priority         Priority         `json:"priority"`
	Status           SupervisorStatus `json:"status"`
	UserResponse     string           `json:"userResponse,omitempty"`
	FollowUp         *time.Time       `json:"followUp,omitempty"`
	RespondedAt      *time.Time       `json:"respondedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// OwnerKind distinguishes the aggregate a plant observation hangs off.
type OwnerKind string

const (
	OwnerUserPlant OwnerKind = "user_plant"
	OwnerGarden    OwnerKind = "garden"
)

// OwnerRef addresses a plant regardless of whether it is owned directly by a user
// or embedded inside a garden.
type OwnerRef struct {
	Kind     OwnerKind `json:"ownerKind"`
	OwnerID  string    `json:"ownerId"`
	PlantRef string    `json:"plantRef"`
}

// Observation is a user note about a plant's condition.
type Observation struct {
	ObservationID string    `json:"observationId"`
	UserID        string    `json:"userId"`
	Owner         OwnerRef  `json:"owner"`
	Note          string    `json:"note"`
	Health        string    `json:"health,omitempty"`
	ObservedAt    time.Time `json:"observedAt"`
}

// AutoRecommendationFilter captures list filters for stored AutoRecommendations.
type AutoRecommendationFilter struct {
	UserID   string
	Type     RecommendationType
	Status   RecommendationStatus
	Priority Priority
	// VisibleAt restricts results to rows visible at that instant.
	VisibleAt *time.Time
	// NotExpiredAt drops rows whose expiresAt <= that instant regardless of status.
	NotExpiredAt *time.Time
	Offset       int
	Limit        int
}
