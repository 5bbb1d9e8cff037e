// Package rules turns plant metadata, per-plant user state and weather into
// unpersisted care candidates. Every evaluator here is a pure function of its inputs.
package rules

import (
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// Source identifies the evaluator that produced a candidate.
type Source string

const (
	SourceWeather  Source = "weather"
	SourceSeasonal Source = "seasonal"
	SourceLocation Source = "location"
	SourceCare     Source = "care"
)

// Rule tags. A tag identifies the rule that fired and, together with the owning
// plant and type, is the dedup key for persisted recommendations.
const (
	TagColdProtection     = "cold-protection"
	TagHeatStress         = "heat-stress-prevention"
	TagLowHumidity        = "low-humidity"
	TagRainProtection     = "rain-protection"
	TagDelayWatering      = "delay-watering"
	TagWindProtection     = "wind-protection"
	TagFrostWarning       = "frost-warning"
	TagWeatherUnavailable = "weather-unavailable"
	TagHarvestWindow      = "harvest-window"
)

// ReminderSpec carries the reminder bookkeeping for care-schedule candidates.
type ReminderSpec struct {
	Type              model.ReminderType `json:"type"`
	IsRecurring       bool               `json:"isRecurring"`
	RecurringInterval string             `json:"recurringInterval,omitempty"`
	Frequency         string             `json:"frequency,omitempty"`
	DaysSince         int                `json:"daysSince"`

	// WindowStart is set for once-per-window reminders. A reminder of this type
	// completed at or after it suppresses a new one.
	WindowStart *time.Time `json:"windowStart,omitempty"`
}

// Candidate is an ephemeral recommendation or reminder prior to ranking and persistence.
// UserPlantID and PlantID are carried from creation so ownership never has to be
// re-derived from text.
type Candidate struct {
	Type        model.RecommendationType `json:"type"`
	Tag         string                   `json:"tag"`
	Title       string                   `json:"title"`
	Message     string                   `json:"message"`
	Priority    model.Priority           `json:"priority"`
	DueDate     time.Time                `json:"dueDate"`
	Source      Source                   `json:"source"`
	UserPlantID string                   `json:"userPlantId,omitempty"`
	PlantID     string                   `json:"plantId,omitempty"`
	GardenID    string                   `json:"gardenId,omitempty"`
	Reminder    *ReminderSpec            `json:"reminder,omitempty"`
	Weather     *model.WeatherSnapshot   `json:"weather,omitempty"`
}

// Key identifies equivalent candidates: same plant, same type, same rule.
func (c Candidate) Key() string {
	return DedupKey(c.UserPlantID, c.Type, c.Tag)
}

// DedupKey builds the key shared by candidates and stored recommendations.
func DedupKey(userPlantID string, t model.RecommendationType, tag string) string {
	return userPlantID + "|" + string(t) + "|" + tag
}

func forPlant(c Candidate, up *model.UserPlant) Candidate {
	if up == nil {
		return c
	}
	c.UserPlantID = up.UserPlantID
	c.PlantID = up.PlantID
	c.GardenID = up.GardenID
	return c
}

func (c Candidate) RankPriority() model.Priority { return c.Priority }
func (c Candidate) RankDate() time.Time          { return c.DueDate }
