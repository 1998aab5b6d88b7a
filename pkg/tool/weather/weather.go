package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/adapter"
	"github.com/m-otsuka/wren/pkg/index"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const (
	minForecastDays = 1
	maxForecastDays = 10
)

type weatherInput struct {
	Location *string `json:"location"`
	Days     *int    `json:"days"`
	Query    string  `json:"query"`
}

type lookup struct {
	apiKey  string
	weather adapter.Weather
	client  *tool.Client
}

type Option func(*lookup)

// WithForecastClient injects a forecast client, bypassing the API key flag.
func WithForecastClient(w adapter.Weather) Option {
	return func(x *lookup) {
		x.weather = w
	}
}

// New creates the weather lookup tool
func New(opts ...Option) *lookup {
	x := &lookup{}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *lookup) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "weather-api-key",
			Sources:     cli.EnvVars("WREN_WEATHER_API_KEY"),
			Usage:       "WeatherAPI key",
			Destination: &x.apiKey,
		},
	}
}

func (x *lookup) Init(ctx context.Context, client *tool.Client) (bool, error) {
	x.client = client
	if x.weather != nil {
		return true, nil
	}

	// Only enable if API key is provided
	if x.apiKey == "" {
		return false, nil
	}
	x.weather = adapter.NewWeather(x.apiKey)
	return true, nil
}

func (x *lookup) Prompt(ctx context.Context) string {
	return `When the user asks about the weather, call lookup_weather. Do not answer weather questions from its raw output: if an observation contains both "PATH=" and "QUESTION=" lines, immediately call retrieval_qa with that exact text as the input field. If the tool reports that the location or the day count is missing, ask the user for exactly that and make the request your final answer.`
}

func (x *lookup) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: "lookup_weather",
				Description: "Fetch a multi-day weather forecast for a location. " +
					"'query' is required and must carry the user's original question verbatim. " +
					"'location' and 'days' are optional: pass them when the user provided them and omit them otherwise. " +
					"Never guess a location or day count the user did not state.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"location": {
							Type:        genai.TypeString,
							Description: "City or place name. Omit if the user did not provide it.",
						},
						"days": {
							Type:        genai.TypeInteger,
							Description: "Number of forecast days (1-10). Omit if the user did not provide it.",
						},
						"query": {
							Type:        genai.TypeString,
							Description: "The user's original weather question, verbatim.",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

func (x *lookup) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input weatherInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters",
			goerr.T(model.TagValidation))
	}

	if input.Location == nil || strings.TrimSpace(*input.Location) == "" {
		return result(fc, "The location is missing. Please ask the user which location they want the forecast for."), nil
	}
	if input.Days == nil {
		return result(fc, "The number of forecast days is missing. Please ask the user how many days they want."), nil
	}

	location := strings.TrimSpace(*input.Location)
	days := *input.Days
	if days < minForecastDays || days > maxForecastDays {
		return nil, goerr.New("forecast day count out of range",
			goerr.T(model.TagValidation),
			goerr.V("days", days))
	}

	forecast, err := x.weather.Forecast(ctx, location, days)
	if err != nil {
		return nil, goerr.Wrap(err, "weather lookup failed")
	}

	summary := formatForecast(location, days, forecast)
	scope := fmt.Sprintf("%s_%d", slugify(location), days)

	handle, err := x.client.Index.Ingest(ctx, index.IngestInput{
		Documents: []model.Document{
			{Source: "weather/" + scope, Content: summary},
		},
		StorageRoot:  path.Join(x.client.StorageRoot, "weather", scope),
		ChunkSize:    x.client.ChunkSize,
		ChunkOverlap: x.client.ChunkOverlap,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to index forecast summary")
	}

	query := input.Query
	if strings.TrimSpace(query) == "" {
		query = fmt.Sprintf("weather in %s for next %d days", location, days)
	}

	obs := model.ChainedObservation{Path: handle.Path, Question: query}
	return result(fc, obs.String()), nil
}

// formatForecast renders the compact per-day summary that gets indexed for
// retrieval: condition, high/low, average temperature and rain chance.
func formatForecast(location string, days int, forecast *adapter.Forecast) string {
	resolved := forecast.Location.Name
	if resolved == "" {
		resolved = location
	}
	if region := strings.TrimSpace(forecast.Location.Region); region != "" {
		resolved += ", " + region
	}

	forecastDays := forecast.Forecast.ForecastDay
	if len(forecastDays) > days {
		forecastDays = forecastDays[:days]
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Weather for %s (%d day(s)):", resolved, len(forecastDays)))

	if cond := strings.TrimSpace(forecast.Current.Condition.Text); cond != "" {
		lines = append(lines, "Current:")
		lines = append(lines, fmt.Sprintf("- Condition: %s", cond))
		lines = append(lines, fmt.Sprintf("- Temp: %.1f°C", forecast.Current.TempC))
	}

	lines = append(lines, "Forecast:")
	for _, d := range forecastDays {
		lines = append(lines, fmt.Sprintf("- %s:", d.Date))
		if cond := strings.TrimSpace(d.Day.Condition.Text); cond != "" {
			lines = append(lines, fmt.Sprintf("  Condition: %s", cond))
		}
		lines = append(lines, fmt.Sprintf("  High/Low: %.1f°C / %.1f°C", d.Day.MaxTempC, d.Day.MinTempC))
		lines = append(lines, fmt.Sprintf("  Avg: %.1f°C", d.Day.AvgTempC))
		lines = append(lines, fmt.Sprintf("  Rain chance: %d%%", d.Day.ChanceOfRain))
	}

	return strings.Join(lines, "\n")
}

func slugify(location string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(location)), " ", "_")
}

func result(fc genai.FunctionCall, text string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": text},
	}
}
