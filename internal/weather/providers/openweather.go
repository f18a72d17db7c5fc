package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-cli/internal/weather"
)

// DefaultOpenWeatherBaseURL is the public OpenWeatherMap API host.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

const (
	currentWeatherPath = "/data/2.5/weather"
	maxBodyBytes       = 1 << 20
)

var validate = newValidator()

// newValidator reports fields by their JSON names so decode errors read
// like the response body, not like Go.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// OpenWeatherConfig configures the OpenWeatherMap provider.
type OpenWeatherConfig struct {
	APIKey  string
	BaseURL string
	Breaker BreakerConfig
}

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	endpoint string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	log      *slog.Logger
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig, log *slog.Logger) *OpenWeatherProvider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultOpenWeatherBaseURL
	}
	if log == nil {
		log = slog.Default()
	}

	return &OpenWeatherProvider{
		name:     "openweathermap",
		apiKey:   cfg.APIKey,
		endpoint: base + currentWeatherPath,
		client:   client,
		circuit:  newCircuitBreaker("openweather", cfg.Breaker),
		log:      log,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Fetch requests the current weather for city and decodes it into a Record.
// A single attempt is made.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, city string) (weather.Record, error) {
	if p.apiKey == "" {
		return weather.Record{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return weather.Record{}, err
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	p.log.Debug("openweather request", "request_id", requestID, "city", city)

	resp, err := doRequest(p.client, p.circuit, req)
	if err != nil {
		p.log.Debug("openweather request failed", "request_id", requestID, "err", err)
		return weather.Record{}, err
	}
	defer resp.Body.Close()

	rec, err := decodeCurrentWeather(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		p.log.Debug("openweather decode failed", "request_id", requestID, "err", err)
		return weather.Record{}, err
	}

	p.log.Debug("openweather response", "request_id", requestID, "status", resp.StatusCode, "name", rec.Name)
	return rec, nil
}

// currentWeatherPayload mirrors the subset of the response we rely on.
// Pointer fields let the validator tell a missing value from a zero one.
type currentWeatherPayload struct {
	Main *struct {
		Temp      *float64 `json:"temp" validate:"required"`
		FeelsLike *float64 `json:"feels_like" validate:"required"`
		Humidity  *uint    `json:"humidity" validate:"required"`
		Pressure  *uint    `json:"pressure" validate:"required"`
	} `json:"main" validate:"required"`
	Weather []struct {
		Main        *string `json:"main" validate:"required"`
		Description *string `json:"description" validate:"required"`
	} `json:"weather" validate:"required,min=1,dive"`
	Wind *struct {
		Speed *float64 `json:"speed" validate:"required"`
	} `json:"wind" validate:"required"`
	Visibility *uint   `json:"visibility" validate:"required"`
	Name       *string `json:"name" validate:"required"`
	Sys        *struct {
		Country *string `json:"country" validate:"required"`
	} `json:"sys" validate:"required"`
}

// decodeCurrentWeather parses and validates a current-weather body. It never
// returns a partially populated record.
func decodeCurrentWeather(r io.Reader) (weather.Record, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return weather.Record{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Unmarshal, unlike a streaming Decoder, rejects anything after the value.
	var payload currentWeatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Record{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := validate.Struct(payload); err != nil {
		return weather.Record{}, fmt.Errorf("%w: %s", ErrDecode, validationMessage(err))
	}

	conditions := make([]weather.Condition, 0, len(payload.Weather))
	for _, w := range payload.Weather {
		conditions = append(conditions, weather.Condition{
			Main:        *w.Main,
			Description: *w.Description,
		})
	}

	return weather.Record{
		Name:         *payload.Name,
		Country:      *payload.Sys.Country,
		TemperatureC: *payload.Main.Temp,
		FeelsLikeC:   *payload.Main.FeelsLike,
		HumidityPct:  *payload.Main.Humidity,
		PressureHpa:  *payload.Main.Pressure,
		WindSpeedMS:  *payload.Wind.Speed,
		VisibilityM:  *payload.Visibility,
		Conditions:   conditions,
	}, nil
}

// validationMessage lists failing fields by their path in the response,
// e.g. "missing or invalid fields: main.feels_like (required)".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields = append(fields, fmt.Sprintf("%s (%s)", path, rule))
	}
	return "missing or invalid fields: " + strings.Join(fields, ", ")
}
