package weather

import "context"

// Provider abstracts the current-weather source (OpenWeatherMap).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, city string) (Record, error)
}
