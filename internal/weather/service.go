package weather

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Service turns provider calls into Outcomes for the presentation adapters.
type Service struct {
	provider Provider
	log      *slog.Logger
}

// NewService creates a new Service.
func NewService(provider Provider, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		provider: provider,
		log:      log,
	}
}

// Lookup performs a single fetch for city. It never retries; the caller
// decides whether to ask again.
func (s *Service) Lookup(ctx context.Context, city string) Outcome {
	city = strings.TrimSpace(city)
	if city == "" {
		return Failure("city name is required")
	}

	start := time.Now()
	rec, err := s.provider.Fetch(ctx, city)
	if err != nil {
		s.log.Warn("weather lookup failed",
			"provider", s.provider.Name(),
			"city", city,
			"elapsed", time.Since(start),
			"err", err,
		)
		return Failure(err.Error())
	}

	s.log.Debug("weather lookup completed",
		"provider", s.provider.Name(),
		"city", city,
		"location", rec.Name+","+rec.Country,
		"elapsed", time.Since(start),
	)
	return Success(rec)
}
