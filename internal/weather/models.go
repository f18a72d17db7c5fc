package weather

import "errors"

// Condition is one entry of the provider's condition list, e.g. {"Clouds", "broken clouds"}.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// Record is the decoded current-weather report for a single place.
// Values are metric as returned by the provider; no conversion is applied.
// Conditions is non-empty for every Record produced by a provider.
type Record struct {
	Name    string `json:"name"`
	Country string `json:"country"`

	TemperatureC float64 `json:"temperatureC"`
	FeelsLikeC   float64 `json:"feelsLikeC"`
	HumidityPct  uint    `json:"humidityPercent"`
	PressureHpa  uint    `json:"pressureHpa"`
	WindSpeedMS  float64 `json:"windSpeed"`
	VisibilityM  uint    `json:"visibilityMeters"`

	Conditions []Condition `json:"conditions"`
}

// Primary returns the first reported condition.
func (r Record) Primary() (Condition, bool) {
	if len(r.Conditions) == 0 {
		return Condition{}, false
	}
	return r.Conditions[0], true
}

// Outcome is the result of a single lookup: either a Record or a failure message.
// The zero value is not a valid Outcome; build one with Success or Failure.
type Outcome struct {
	record Record
	err    error
}

// Success wraps a decoded record.
func Success(r Record) Outcome {
	return Outcome{record: r}
}

// Failure wraps a failed lookup. The message is what gets shown to the user.
func Failure(msg string) Outcome {
	if msg == "" {
		msg = "unknown error"
	}
	return Outcome{err: errors.New(msg)}
}

// Result unpacks the outcome. Exactly one of the returned values is meaningful.
func (o Outcome) Result() (Record, error) {
	if o.err != nil {
		return Record{}, o.err
	}
	return o.record, nil
}

// OK reports whether the outcome holds a record.
func (o Outcome) OK() bool {
	return o.err == nil
}
