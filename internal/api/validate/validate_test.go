package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

func TestCreateReminder(t *testing.T) {
	due := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		req   CreateReminder
		field string
	}{
		{name: "valid", req: CreateReminder{Type: "watering", Title: "Water", DueDate: &due, IsRecurring: true, RecurringInterval: "weekly"}},
		{name: "missing type", req: CreateReminder{Title: "Water", DueDate: &due}, field: "type"},
		{name: "unknown type", req: CreateReminder{Type: "misting", Title: "Water", DueDate: &due}, field: "type"},
		{name: "missing title", req: CreateReminder{Type: "custom", DueDate: &due}, field: "title"},
		{name: "long title", req: CreateReminder{Type: "custom", Title: strings.Repeat("a", 201), DueDate: &due}, field: "title"},
		{name: "missing due date", req: CreateReminder{Type: "custom", Title: "x"}, field: "dueDate"},
		{name: "bad interval", req: CreateReminder{Type: "custom", Title: "x", DueDate: &due, RecurringInterval: "hourly"}, field: "recurringInterval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve model.ValidationError
			if !asValidation(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("expected field %q, got %q (%s)", tt.field, ve.Field, ve.Message)
			}
		})
	}
}

func TestNestedFieldPaths(t *testing.T) {
	err := Struct(PutCareProfile{CommonName: "Basil", HarvestMonths: []int{6, 13}})
	var ve model.ValidationError
	if !asValidation(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "harvestMonths[1]" {
		t.Fatalf("unexpected field %q", ve.Field)
	}

	err = Struct(AddPlant{PlantID: "basil", Care: map[string]CareOverride{"misting": {}}})
	if !model.IsValidationError(err) {
		t.Fatalf("expected unknown care key to fail, got %v", err)
	}
	err = Struct(AddPlant{PlantID: "basil", Care: map[string]CareOverride{"watering": {Frequency: "hourly"}}})
	if !model.IsValidationError(err) {
		t.Fatalf("expected unknown frequency to fail, got %v", err)
	}
}

func TestEnumerations(t *testing.T) {
	if err := Struct(CreateUser{UserID: "u1", Hemisphere: "east"}); !model.IsValidationError(err) {
		t.Fatalf("expected hemisphere error, got %v", err)
	}
	if err := Struct(RespondSupervisor{Status: "pending"}); !model.IsValidationError(err) {
		t.Fatalf("pending is not a response, got %v", err)
	}
	if err := Struct(RecordObservation{OwnerKind: "garden", OwnerID: "g", PlantRef: "p", Note: "ok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func asValidation(err error, out *model.ValidationError) bool {
	ve, ok := err.(model.ValidationError)
	if ok {
		*out = ve
	}
	return ok
}
