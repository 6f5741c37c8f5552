package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/baygut/faq-chat-bot/internal/log"
)

// WeatherToolsetName is the toolset identifier constant.
const WeatherToolsetName = "weather"

// maxWeatherResponseSize caps the forecast body read, the upstream response
// is a few KB in practice.
const maxWeatherResponseSize = 1 << 20

// GetWeatherInput defines input for the getWeather tool.
type GetWeatherInput struct {
	Latitude  float64 `json:"latitude" jsonschema_description:"Latitude of the location"`
	Longitude float64 `json:"longitude" jsonschema_description:"Longitude of the location"`
}

// Forecast mirrors the fields of the Open-Meteo forecast response the
// assistant presents to users.
type Forecast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Current   struct {
		Time          string  `json:"time"`
		Temperature2M float64 `json:"temperature_2m"`
	} `json:"current"`
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2M []float64 `json:"temperature_2m"`
	} `json:"hourly"`
	Daily struct {
		Time    []string `json:"time"`
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

// WeatherToolset provides the current-weather lookup tool backed by the
// Open-Meteo forecast API.
type WeatherToolset struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// NewWeatherToolset creates a WeatherToolset. baseURL points at the
// Open-Meteo API root; tests point it at a local server.
func NewWeatherToolset(baseURL string, logger log.Logger) (*WeatherToolset, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("weather base URL is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &WeatherToolset{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}, nil
}

// Name returns the toolset identifier.
func (wt *WeatherToolset) Name() string {
	return WeatherToolsetName
}

// Tools returns all tools provided by this toolset.
func (wt *WeatherToolset) Tools() []*Tool {
	return []*Tool{
		NewTool(
			"getWeather",
			"Get the current weather at a location. "+
				"Takes latitude and longitude coordinates and returns the current temperature, "+
				"an hourly temperature forecast, and daily sunrise/sunset times.",
			wt.getWeather,
		),
	}
}

func (wt *WeatherToolset) getWeather(tc *ai.ToolContext, in GetWeatherInput) (Result, error) {
	if in.Latitude < -90 || in.Latitude > 90 {
		return Failed(fmt.Sprintf("latitude %v is out of range [-90, 90]", in.Latitude)), nil
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return Failed(fmt.Sprintf("longitude %v is out of range [-180, 180]", in.Longitude)), nil
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%v", in.Latitude))
	q.Set("longitude", fmt.Sprintf("%v", in.Longitude))
	q.Set("current", "temperature_2m")
	q.Set("hourly", "temperature_2m")
	q.Set("daily", "sunrise,sunset")
	q.Set("timezone", "auto")
	reqURL := wt.baseURL + "/v1/forecast?" + q.Encode()

	req, err := http.NewRequestWithContext(tc.Context, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := wt.client.Do(req)
	if err != nil {
		wt.logger.Warn("weather request failed", "error", err)
		return Failed("weather service is unreachable"), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		wt.logger.Warn("weather request rejected", "status", resp.StatusCode)
		return Failed(fmt.Sprintf("weather service returned status %d", resp.StatusCode)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWeatherResponseSize))
	if err != nil {
		return Result{}, fmt.Errorf("read weather response: %w", err)
	}

	var forecast Forecast
	if err := json.Unmarshal(body, &forecast); err != nil {
		return Result{}, fmt.Errorf("decode weather response: %w", err)
	}

	return Success("", forecast), nil
}
