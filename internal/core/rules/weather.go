package rules

import (
	"fmt"
	"regexp"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// Weather thresholds. Temperatures are °C, humidity is percent.
const (
	ColdThreshold     = 5.0
	HeatThreshold     = 35.0
	LowHumidity       = 30.0
	WindThreshold     = 20.0
	FrostThreshold    = 0.0
	FrostLookahead    = 72 * time.Hour
	DelayWateringDays = 2
)

var wetRx = regexp.MustCompile(`(?i)rain|storm|drizzle|shower`)

// Weather evaluates the weather rules for one plant. A nil snapshot means the
// provider failed; the result is then exactly one low-priority sentinel.
func Weather(profile *model.PlantCareProfile, up *model.UserPlant, snap *model.WeatherSnapshot, now time.Time) []Candidate {
	if snap == nil {
		return []Candidate{WeatherUnavailable(now)}
	}
	name := up.DisplayName(profile)
	var out []Candidate
	add := func(c Candidate) {
		c.Type = model.RecWeatherAlert
		c.Source = SourceWeather
		c.Weather = snap
		if c.DueDate.IsZero() {
			c.DueDate = now
		}
		out = append(out, forPlant(c, up))
	}

	if snap.Temperature < ColdThreshold {
		add(Candidate{
			Tag:      TagColdProtection,
			Title:    "Cold protection for " + name,
			Message:  fmt.Sprintf("It is %.1f°C. Move %s indoors or cover it overnight.", snap.Temperature, name),
			Priority: model.PriorityHigh,
		})
	}
	if snap.Temperature > HeatThreshold {
		add(Candidate{
			Tag:      TagHeatStress,
			Title:    "Heat stress prevention for " + name,
			Message:  fmt.Sprintf("It is %.1f°C. Give %s afternoon shade and check soil moisture twice today.", snap.Temperature, name),
			Priority: model.PriorityHigh,
		})
	}
	if snap.Humidity < LowHumidity {
		add(Candidate{
			Tag:      TagLowHumidity,
			Title:    "Low humidity alert",
			Message:  fmt.Sprintf("Humidity is %.0f%%. Mist %s or group it with other plants.", snap.Humidity, name),
			Priority: model.PriorityMedium,
		})
	}
	if wetRx.MatchString(snap.Description) {
		add(Candidate{
			Tag:      TagRainProtection,
			Title:    "Rain protection for " + name,
			Message:  fmt.Sprintf("Expect %s. Make sure %s drains freely and is sheltered from heavy rain.", snap.Description, name),
			Priority: model.PriorityMedium,
		})
		add(Candidate{
			Tag:      TagDelayWatering,
			Title:    "Delay watering " + name,
			Message:  fmt.Sprintf("Rain is on the way, skip watering %s for the next %d days.", name, DelayWateringDays),
			Priority: model.PriorityLow,
			DueDate:  now.AddDate(0, 0, DelayWateringDays),
		})
	}
	if snap.WindSpeed > WindThreshold {
		add(Candidate{
			Tag:      TagWindProtection,
			Title:    "Wind protection for " + name,
			Message:  fmt.Sprintf("Wind at %.0f. Stake %s or move it out of exposed spots.", snap.WindSpeed, name),
			Priority: model.PriorityMedium,
		})
	}
	if at, ok := frostAhead(snap.Forecast, now); ok {
		add(Candidate{
			Tag:      TagFrostWarning,
			Title:    "Frost expected",
			Message:  fmt.Sprintf("Frost is forecast on %s. Cover %s the evening before.", at.Format("Mon Jan 2"), name),
			Priority: model.PriorityHigh,
			DueDate:  at,
		})
	}
	return out
}

// WeatherUnavailable is the sentinel emitted when weather could not be fetched.
func WeatherUnavailable(now time.Time) Candidate {
	return Candidate{
		Type:     model.RecWeatherAlert,
		Tag:      TagWeatherUnavailable,
		Title:    "Weather data unavailable",
		Message:  "Current weather could not be retrieved. Check conditions locally before outdoor care.",
		Priority: model.PriorityLow,
		DueDate:  now,
		Source:   SourceWeather,
	}
}

func frostAhead(points []model.ForecastPoint, now time.Time) (time.Time, bool) {
	limit := now.Add(FrostLookahead)
	for _, p := range points {
		if p.At.After(now) && !p.At.After(limit) && p.TempMin < FrostThreshold {
			return p.At, true
		}
	}
	return time.Time{}, false
}
