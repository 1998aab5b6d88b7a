package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/model"
)

const defaultWeatherBaseURL = "https://api.weatherapi.com/v1"

// Weather fetches multi-day forecasts from an external forecast service.
type Weather interface {
	Forecast(ctx context.Context, location string, days int) (*Forecast, error)
}

// Forecast mirrors the parts of the WeatherAPI forecast.json payload the
// weather tool summarizes.
type Forecast struct {
	Location struct {
		Name   string `json:"name"`
		Region string `json:"region"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []ForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type ForecastDay struct {
	Date string `json:"date"`
	Day  struct {
		MaxTempC     float64 `json:"maxtemp_c"`
		MinTempC     float64 `json:"mintemp_c"`
		AvgTempC     float64 `json:"avgtemp_c"`
		ChanceOfRain int     `json:"daily_chance_of_rain"`
		Condition    struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"day"`
}

type weatherAPIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type WeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type WeatherOption func(*WeatherClient)

// WithWeatherBaseURL overrides the service endpoint, mainly for tests.
func WithWeatherBaseURL(baseURL string) WeatherOption {
	return func(w *WeatherClient) {
		w.baseURL = baseURL
	}
}

func NewWeather(apiKey string, opts ...WeatherOption) *WeatherClient {
	w := &WeatherClient{
		apiKey:  apiKey,
		baseURL: defaultWeatherBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Forecast fetches the forecast for the given location and day count.
// Transport failures and non-success statuses are returned as external
// errors carrying the service's reported message.
func (w *WeatherClient) Forecast(ctx context.Context, location string, days int) (*Forecast, error) {
	q := url.Values{}
	q.Set("key", w.apiKey)
	q.Set("q", location)
	q.Set("days", strconv.Itoa(days))
	q.Set("aqi", "no")
	q.Set("alerts", "no")

	req, err := http.NewRequestWithContext(ctx, "GET", w.baseURL+"/forecast.json?"+q.Encode(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create forecast request")
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reach forecast service",
			goerr.T(model.TagExternal))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr weatherAPIError
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := "unknown error"
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return nil, goerr.New("forecast service returned error",
			goerr.T(model.TagExternal),
			goerr.V("status", resp.StatusCode),
			goerr.V("message", msg))
	}

	var forecast Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, goerr.Wrap(err, "failed to decode forecast response",
			goerr.T(model.TagExternal))
	}

	return &forecast, nil
}
