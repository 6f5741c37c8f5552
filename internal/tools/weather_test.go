package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/baygut/faq-chat-bot/internal/log"
)

func TestGetWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Errorf("path = %q, want /v1/forecast", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("latitude") != "52.52" || q.Get("longitude") != "13.41" {
			t.Errorf("coordinates = %s,%s", q.Get("latitude"), q.Get("longitude"))
		}
		if q.Get("current") != "temperature_2m" || q.Get("daily") != "sunrise,sunset" || q.Get("timezone") != "auto" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"latitude": 52.52,
			"longitude": 13.41,
			"timezone": "Europe/Berlin",
			"current": {"time": "2024-01-15T12:00", "temperature_2m": 3.4},
			"hourly": {"time": ["2024-01-15T12:00"], "temperature_2m": [3.4]},
			"daily": {"time": ["2024-01-15"], "sunrise": ["2024-01-15T08:12"], "sunset": ["2024-01-15T16:31"]}
		}`))
	}))
	defer srv.Close()

	wt, err := NewWeatherToolset(srv.URL, log.NewNop())
	if err != nil {
		t.Fatalf("NewWeatherToolset() = %v", err)
	}

	r := NewRegistry(wt.Tools()...)
	out, err := r.Execute(context.Background(), "getWeather",
		map[string]any{"latitude": 52.52, "longitude": 13.41})
	if err != nil {
		t.Fatalf("Execute(getWeather) = %v", err)
	}

	res := out.(Result)
	if res.Status != StatusSuccess {
		t.Fatalf("Status = %q, error = %q", res.Status, res.Error)
	}
	forecast := res.Data.(Forecast)
	if forecast.Current.Temperature2M != 3.4 {
		t.Errorf("current temperature = %v, want 3.4", forecast.Current.Temperature2M)
	}
	if forecast.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q", forecast.Timezone)
	}
}

func TestGetWeather_OutOfRangeCoordinates(t *testing.T) {
	wt, err := NewWeatherToolset("http://example.invalid", log.NewNop())
	if err != nil {
		t.Fatalf("NewWeatherToolset() = %v", err)
	}
	r := NewRegistry(wt.Tools()...)

	out, err := r.Execute(context.Background(), "getWeather",
		map[string]any{"latitude": 120.0, "longitude": 0.0})
	if err != nil {
		t.Fatalf("Execute(getWeather) = %v", err)
	}
	if res := out.(Result); res.Status != StatusFailed {
		t.Errorf("Status = %q, want failed for latitude 120", res.Status)
	}
}

func TestGetWeather_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wt, err := NewWeatherToolset(srv.URL, log.NewNop())
	if err != nil {
		t.Fatalf("NewWeatherToolset() = %v", err)
	}
	r := NewRegistry(wt.Tools()...)

	out, err := r.Execute(context.Background(), "getWeather",
		map[string]any{"latitude": 0.0, "longitude": 0.0})
	if err != nil {
		t.Fatalf("Execute(getWeather) = %v", err)
	}
	res := out.(Result)
	if res.Status != StatusFailed {
		t.Errorf("Status = %q, want failed for upstream 503", res.Status)
	}
}
