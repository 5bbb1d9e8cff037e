package rules

import (
	"strings"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// Season of the year.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
	Winter Season = "winter"
)

// Hemisphere values accepted by SeasonFor.
const (
	North = "north"
	South = "south"
)

// SeasonFor derives the season from the month. March-May is spring, June-August
// summer, September-November fall and the rest winter. The southern hemisphere
// is shifted by six months.
func SeasonFor(now time.Time, hemisphere string) Season {
	idx := int(now.Month()) - 1
	if strings.EqualFold(hemisphere, South) {
		idx = (idx + 6) % 12
	}
	switch {
	case idx >= 2 && idx <= 4:
		return Spring
	case idx >= 5 && idx <= 7:
		return Summer
	case idx >= 8 && idx <= 10:
		return Fall
	default:
		return Winter
	}
}

var seasonalCare = map[Season]Candidate{
	Spring: {
		Title:    "Start fertilizing",
		Message:  "Spring growth is starting. Resume feeding with a balanced fertilizer every few weeks.",
		Priority: model.PriorityMedium,
	},
	Summer: {
		Title:    "Monitor soil moisture",
		Message:  "Summer heat dries soil quickly. Check moisture daily and water deeply in the morning.",
		Priority: model.PriorityHigh,
	},
	Fall: {
		Title:    "Reduce watering",
		Message:  "Growth is slowing down. Water less often and stop fertilizing until spring.",
		Priority: model.PriorityMedium,
	},
	Winter: {
		Title:    "Protect from cold drafts",
		Message:  "Keep plants away from drafty windows and doors, and away from heaters.",
		Priority: model.PriorityMedium,
	},
}

// Seasonal returns the single seasonal-care candidate for now.
func Seasonal(now time.Time, hemisphere string) []Candidate {
	s := SeasonFor(now, hemisphere)
	c := seasonalCare[s]
	c.Type = model.RecSeasonalCare
	c.Tag = "season-" + string(s)
	c.DueDate = now
	c.Source = SourceSeasonal
	return []Candidate{c}
}

// Climate is a coarse classification of a location.
type Climate string

const (
	Tropical  Climate = "tropical"
	Arid      Climate = "arid"
	Temperate Climate = "temperate"
)

var climateKeywords = []struct {
	climate  Climate
	keywords []string
}{
	{Tropical, []string{
		"singapore", "bangkok", "manila", "jakarta", "kuala lumpur", "ho chi minh", "mumbai",
		"chennai", "lagos", "accra", "miami", "honolulu", "hawaii", "rio de janeiro", "belem",
		"caribbean", "puerto rico", "panama", "costa rica", "thailand", "indonesia", "philippines",
		"malaysia", "vietnam", "brazil",
	}},
	{Arid, []string{
		"phoenix", "tucson", "las vegas", "el paso", "dubai", "abu dhabi", "riyadh", "doha",
		"cairo", "marrakech", "alice springs", "lima", "arizona", "nevada", "saudi arabia",
		"egypt", "uae", "qatar", "kuwait", "oman",
	}},
}

// ClassifyClimate matches location against a small keyword table, defaulting to temperate.
func ClassifyClimate(location string) Climate {
	loc := strings.ToLower(location)
	for _, group := range climateKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(loc, kw) {
				return group.climate
			}
		}
	}
	return Temperate
}

var climateCare = map[Climate]Candidate{
	Tropical: {
		Title:    "Tropical climate care",
		Message:  "High heat and humidity favour fungal problems. Improve airflow and avoid wetting leaves in the evening.",
		Priority: model.PriorityMedium,
	},
	Arid: {
		Title:    "Arid climate care",
		Message:  "Dry air and strong sun. Water deeply but less often, mulch the soil and provide midday shade.",
		Priority: model.PriorityMedium,
	},
	Temperate: {
		Title:    "Temperate climate care",
		Message:  "Follow the seasonal rhythm: feed in spring, water more in summer, protect from frost in winter.",
		Priority: model.PriorityLow,
	},
}

// Location returns one location-flavoured candidate, or none when location is empty.
func Location(location string, now time.Time) []Candidate {
	if strings.TrimSpace(location) == "" {
		return nil
	}
	cl := ClassifyClimate(location)
	c := climateCare[cl]
	c.Type = model.RecGeneral
	c.Tag = "climate-" + string(cl)
	c.DueDate = now
	c.Source = SourceLocation
	return []Candidate{c}
}
