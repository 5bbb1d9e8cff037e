package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/model"
)

var (
	errNotConfigured = errors.New("weather provider not configured")
	errNoLocation    = errors.New("no location and no default location configured")
)

// DefaultBaseURL is the public OpenWeatherMap API.
const DefaultBaseURL = "https://api.openweathermap.org"

// Config configures the OpenWeatherMap client.
type Config struct {
	BaseURL         string
	APIKey          string
	DefaultLocation string
	Timeout         time.Duration
}

// OpenWeatherMap calls the /data/2.5 current weather and forecast endpoints.
type OpenWeatherMap struct {
	client          *resty.Client
	apiKey          string
	defaultLocation string
	log             zerolog.Logger
}

// NewOpenWeatherMap builds a client. Timeout defaults to 5s.
func NewOpenWeatherMap(cfg Config, log zerolog.Logger) *OpenWeatherMap {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	to := cfg.Timeout
	if to <= 0 {
		to = 5 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(to)

	return &OpenWeatherMap{
		client:          c,
		apiKey:          cfg.APIKey,
		defaultLocation: cfg.DefaultLocation,
		log:             log.With().Str("component", "openweathermap").Logger(),
	}
}

type owmCurrent struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type owmForecast struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// Current fetches current conditions and, best effort, the 5 day / 3 hour forecast.
// Wind speed is converted from m/s to km/h.
func (p *OpenWeatherMap) Current(ctx context.Context, location string) (*model.WeatherSnapshot, error) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		loc = p.defaultLocation
	}
	if loc == "" {
		return nil, unavailable(errNoLocation)
	}

	var cur owmCurrent
	if err := p.get(ctx, "/data/2.5/weather", loc, &cur); err != nil {
		return nil, unavailable(err)
	}
	snap := &model.WeatherSnapshot{
		Location:    loc,
		Temperature: cur.Main.Temp,
		Humidity:    cur.Main.Humidity,
		WindSpeed:   cur.Wind.Speed * 3.6,
		Timestamp:   time.Unix(cur.Dt, 0).UTC(),
	}
	if len(cur.Weather) > 0 {
		snap.Description = cur.Weather[0].Description
	}

	var fc owmForecast
	if err := p.get(ctx, "/data/2.5/forecast", loc, &fc); err != nil {
		p.log.Warn().Err(err).Str("location", loc).Msg("forecast unavailable; using current conditions only")
		return snap, nil
	}
	for _, it := range fc.List {
		pt := model.ForecastPoint{
			At:      time.Unix(it.Dt, 0).UTC(),
			TempMin: it.Main.TempMin,
			TempMax: it.Main.TempMax,
		}
		if len(it.Weather) > 0 {
			pt.Description = it.Weather[0].Description
		}
		snap.Forecast = append(snap.Forecast, pt)
	}
	return snap, nil
}

func (p *OpenWeatherMap) get(ctx context.Context, path, loc string, out any) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"q": loc, "units": "metric", "appid": p.apiKey}).
		Get(path)
	if err != nil {
		return errors.Wrapf(err, "openweathermap %s", path)
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.Errorf("openweathermap %s status %d: %s", path, resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrap(err, "decode openweathermap response")
	}
	return nil
}

// HealthPing checks the upstream answers for the default location.
func (p *OpenWeatherMap) HealthPing(ctx context.Context) error {
	if p.defaultLocation == "" {
		return nil
	}
	var cur owmCurrent
	return p.get(ctx, "/data/2.5/weather", p.defaultLocation, &cur)
}

func unavailable(err error) error {
	return model.UpstreamUnavailableError{Upstream: "weather", Err: err}
}
