package weather_test

import (
	"context"
	"errors"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-otsuka/wren/pkg/adapter"
	"github.com/m-otsuka/wren/pkg/index"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/m-otsuka/wren/pkg/tool/weather"
	"google.golang.org/genai"
)

const forecastPayload = `{
  "location": {"name": "San Francisco", "region": "California"},
  "current": {"temp_c": 17.0, "condition": {"text": "Foggy"}},
  "forecast": {
    "forecastday": [
      {
        "date": "2025-06-15",
        "day": {
          "maxtemp_c": 20.0,
          "mintemp_c": 13.0,
          "avgtemp_c": 16.5,
          "daily_chance_of_rain": 10,
          "condition": {"text": "Overcast"}
        }
      },
      {
        "date": "2025-06-16",
        "day": {
          "maxtemp_c": 21.0,
          "mintemp_c": 14.0,
          "avgtemp_c": 17.0,
          "daily_chance_of_rain": 65,
          "condition": {"text": "Light rain"}
        }
      }
    ]
  }
}`

type fakeEmbedder struct{}

func (m *fakeEmbedder) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *fakeEmbedder) Embedding(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 32)
		for _, token := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(token))
			vec[h.Sum32()%32]++
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (m *fakeEmbedder) EmbeddingModel() string {
	return "fake-embedding-001"
}

func newLookup(t *testing.T, baseURL string) (*tool.Client, tool.Tool) {
	t.Helper()

	idx := index.New(&fakeEmbedder{}, adapter.NewFileStorage())
	client := &tool.Client{
		Index:        idx,
		StorageRoot:  t.TempDir(),
		ChunkSize:    500,
		ChunkOverlap: 50,
	}

	forecast := adapter.NewWeather("test-key", adapter.WithWeatherBaseURL(baseURL))
	lookup := weather.New(weather.WithForecastClient(forecast))

	ok, err := lookup.Init(context.Background(), client)
	gt.NoError(t, err)
	gt.V(t, ok).Equal(true)

	return client, lookup
}

func call(args map[string]any) genai.FunctionCall {
	return genai.FunctionCall{Name: "lookup_weather", Args: args}
}

func TestLookupWeather(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastPayload))
	}))
	defer srv.Close()

	t.Run("indexes the forecast and hands over a chained observation", func(t *testing.T) {
		client, lookup := newLookup(t, srv.URL)

		resp, err := lookup.Execute(ctx, call(map[string]any{
			"location": "San Francisco",
			"days":     2,
			"query":    "will it rain in San Francisco?",
		}))
		gt.NoError(t, err)

		obsText, _ := resp.Response["result"].(string)
		obs, ok := model.ParseChained(obsText)
		gt.V(t, ok).Equal(true)
		gt.V(t, obs.Question).Equal("will it rain in San Francisco?")
		gt.S(t, obs.Path).Contains("san_francisco_2")

		// The handed-over path must be independently queryable.
		chunks, err := client.Index.Query(ctx, obs.Path, "rain chance forecast", 4)
		gt.NoError(t, err)
		gt.V(t, len(chunks) > 0).Equal(true)
		gt.S(t, chunks[0].Text).Contains("Rain chance")
		gt.S(t, chunks[0].Text).Contains("San Francisco, California")
	})

	t.Run("falls back to a synthesized question", func(t *testing.T) {
		_, lookup := newLookup(t, srv.URL)

		resp, err := lookup.Execute(ctx, call(map[string]any{
			"location": "San Francisco",
			"days":     2,
		}))
		gt.NoError(t, err)

		obsText, _ := resp.Response["result"].(string)
		obs, ok := model.ParseChained(obsText)
		gt.V(t, ok).Equal(true)
		gt.V(t, obs.Question).Equal("weather in San Francisco for next 2 days")
	})
}

func TestLookupWeatherMissingInputs(t *testing.T) {
	ctx := context.Background()
	_, lookup := newLookup(t, "http://unused.invalid")

	t.Run("missing location", func(t *testing.T) {
		resp, err := lookup.Execute(ctx, call(map[string]any{
			"days":  3,
			"query": "weather?",
		}))
		gt.NoError(t, err)

		result, _ := resp.Response["result"].(string)
		gt.S(t, result).Contains("location is missing")
	})

	t.Run("missing days", func(t *testing.T) {
		resp, err := lookup.Execute(ctx, call(map[string]any{
			"location": "Tokyo",
			"query":    "weather?",
		}))
		gt.NoError(t, err)

		result, _ := resp.Response["result"].(string)
		gt.S(t, result).Contains("number of forecast days is missing")
	})

	t.Run("day count out of range", func(t *testing.T) {
		_, err := lookup.Execute(ctx, call(map[string]any{
			"location": "Tokyo",
			"days":     11,
			"query":    "weather?",
		}))
		gt.Error(t, err)
		gt.V(t, model.IsValidation(err)).Equal(true)
	})
}

func TestLookupWeatherServiceFailure(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 1006, "message": "No matching location found."}}`))
	}))
	defer srv.Close()

	_, lookup := newLookup(t, srv.URL)
	_, err := lookup.Execute(ctx, call(map[string]any{
		"location": "Nowhereville",
		"days":     1,
		"query":    "weather?",
	}))
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("weather lookup failed")
}

func TestLookupWeatherInit(t *testing.T) {
	t.Run("disabled without an API key", func(t *testing.T) {
		lookup := weather.New()
		ok, err := lookup.Init(context.Background(), &tool.Client{})
		gt.NoError(t, err)
		gt.V(t, ok).Equal(false)
	})
}
