// Package validate holds the request shapes accepted by the HTTP API and checks
// them with struct tags. Failures are reported as model.ValidationError naming the
// offending JSON field.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/leaflove/care-service/internal/model"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return v
}

// Struct validates s and returns the first failure as a model.ValidationError.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.NewValidationError("body", err.Error())
	}
	fe := verrs[0]
	return model.NewValidationError(fieldPath(fe), message(fe))
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// -------- Request shapes ----------

type CreateUser struct {
	UserID     string `json:"userId" validate:"required,max=64"`
	Location   string `json:"location" validate:"max=200"`
	Hemisphere string `json:"hemisphere" validate:"omitempty,oneof=north south"`
}

type CareItem struct {
	Frequency    string `json:"frequency" validate:"max=32"`
	Instructions string `json:"instructions" validate:"max=2000"`
}

type PutCareProfile struct {
	CommonName       string   `json:"commonName" validate:"required,max=100"`
	ScientificName   string   `json:"scientificName" validate:"max=200"`
	Watering         CareItem `json:"watering"`
	Fertilizing      CareItem `json:"fertilizing"`
	Pruning          CareItem `json:"pruning"`
	LightRequirement string   `json:"lightRequirement" validate:"max=100"`
	SeasonalNotes    string   `json:"seasonalNotes" validate:"max=2000"`
	PlantingMonths   []int    `json:"plantingMonths" validate:"max=12,dive,gte=1,lte=12"`
	HarvestMonths    []int    `json:"harvestMonths" validate:"max=12,dive,gte=1,lte=12"`
}

type CareOverride struct {
	Frequency     string     `json:"frequency" validate:"omitempty,oneof=daily every-2-days weekly bi-weekly monthly seasonal annually"`
	LastPerformed *time.Time `json:"lastPerformed"`
}

type AddPlant struct {
	PlantID     string                  `json:"plantId" validate:"required,max=64"`
	GardenID    string                  `json:"gardenId" validate:"max=64"`
	CustomName  string                  `json:"customName" validate:"max=100"`
	Location    string                  `json:"location" validate:"max=200"`
	PlantedDate *time.Time              `json:"plantedDate"`
	Care        map[string]CareOverride `json:"care" validate:"omitempty,dive,keys,oneof=watering fertilizing pruning,endkeys"`
}

type CreateReminder struct {
	Type              string     `json:"type" validate:"required,oneof=watering fertilizing pruning harvesting custom"`
	Title             string     `json:"title" validate:"required,max=200"`
	Description       string     `json:"description" validate:"max=1000"`
	DueDate           *time.Time `json:"dueDate" validate:"required"`
	IsRecurring       bool       `json:"isRecurring"`
	RecurringInterval string     `json:"recurringInterval" validate:"omitempty,oneof=daily weekly bi-weekly monthly seasonal annually"`
}

type CompleteReminder struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type RecommendationAction struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type CreateSupervisorRecommendation struct {
	UserID      string     `json:"userId" validate:"required,max=64"`
	UserPlantID string     `json:"userPlantId" validate:"max=64"`
	Type        string     `json:"type" validate:"max=50"`
	Title       string     `json:"title" validate:"required,max=200"`
	Message     string     `json:"message" validate:"required,max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	FollowUp    *time.Time `json:"followUp"`
}

type RespondSupervisor struct {
	Status   string `json:"status" validate:"required,oneof=viewed implemented dismissed"`
	Response string `json:"response" validate:"max=1000"`
}

type RecordObservation struct {
	OwnerKind  string     `json:"ownerKind" validate:"required,oneof=user_plant garden"`
	OwnerID    string     `json:"ownerId" validate:"required,max=64"`
	PlantRef   string     `json:"plantRef" validate:"required,max=64"`
	Note       string     `json:"note" validate:"required,max=2000"`
	Health     string     `json:"health" validate:"max=50"`
	ObservedAt *time.Time `json:"observedAt"`
}
