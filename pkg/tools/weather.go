package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WeatherConfig configures the OpenWeatherMap-backed weather tool.
type WeatherConfig struct {
	// APIKey authenticates against OpenWeatherMap.
	APIKey string
	// GeocodeURL overrides the geocoding endpoint (tests).
	GeocodeURL string
	// OneCallURL overrides the weather endpoint (tests).
	OneCallURL string
	// Timeout bounds each HTTP call (default 15s).
	Timeout time.Duration
}

const (
	defaultGeocodeURL = "http://api.openweathermap.org/geo/1.0/direct"
	defaultOneCallURL = "https://api.openweathermap.org/data/3.0/onecall/timemachine"
)

// Weather returns the weather tool definition. The lookup is two-stage:
// city name to coordinates, then coordinates to weather at the current
// timestamp. Any network or parsing failure collapses to a single
// descriptive error string; the reasoning loop never sees a raw error.
func Weather(cfg WeatherConfig) Definition {
	if cfg.GeocodeURL == "" {
		cfg.GeocodeURL = defaultGeocodeURL
	}
	if cfg.OneCallURL == "" {
		cfg.OneCallURL = defaultOneCallURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	w := &weatherTool{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
	return Definition{
		Name:        "getWeather",
		Description: "returns current weather for a city, e.g. getWeather(Beijing)",
		Params:      []Param{{Name: "city", Type: "string", Description: "city name"}},
		Exec:        w.lookup,
	}
}

type weatherTool struct {
	cfg    WeatherConfig
	client *http.Client
}

type geoLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type oneCallResponse struct {
	TimezoneOffset int `json:"timezone_offset"`
	Data           []struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		UVI       float64 `json:"uvi"`
		Weather   []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"data"`
}

func (w *weatherTool) lookup(ctx context.Context, args string) (string, error) {
	city := strings.Trim(strings.TrimSpace(args), `"'`)
	if city == "" {
		return "weather service error: no city given", nil
	}

	loc, err := w.geocode(ctx, city)
	if err != nil {
		return fmt.Sprintf("weather service error: %v", err), nil
	}

	report, err := w.weatherAt(ctx, loc)
	if err != nil {
		return fmt.Sprintf("weather service error: %v", err), nil
	}
	if len(report.Data) == 0 || len(report.Data[0].Weather) == 0 {
		return fmt.Sprintf("weather service error: no data for %s", city), nil
	}

	local := time.Now().UTC().Add(time.Duration(report.TimezoneOffset) * time.Second)
	d := report.Data[0]
	return fmt.Sprintf(
		"weather in %s: %s, temperature %.1f C (feels like %.1f C), humidity %.0f%%, UV index %.1f; local time %s (%s); coordinates %.4f, %.4f",
		city, d.Weather[0].Description, d.Temp, d.FeelsLike, d.Humidity, d.UVI,
		local.Format("2006-01-02 15:04"), local.Weekday(), loc.Lat, loc.Lon), nil
}

func (w *weatherTool) geocode(ctx context.Context, city string) (geoLocation, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("limit", "1")
	q.Set("appid", w.cfg.APIKey)

	var locations []geoLocation
	if err := w.getJSON(ctx, w.cfg.GeocodeURL+"?"+q.Encode(), &locations); err != nil {
		return geoLocation{}, err
	}
	if len(locations) == 0 {
		return geoLocation{}, fmt.Errorf("could not resolve coordinates for %q", city)
	}
	return locations[0], nil
}

func (w *weatherTool) weatherAt(ctx context.Context, loc geoLocation) (*oneCallResponse, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%f", loc.Lon))
	q.Set("dt", fmt.Sprintf("%d", time.Now().Unix()))
	q.Set("units", "metric")
	q.Set("appid", w.cfg.APIKey)

	var resp oneCallResponse
	if err := w.getJSON(ctx, w.cfg.OneCallURL+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (w *weatherTool) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
