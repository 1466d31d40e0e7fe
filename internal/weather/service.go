package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/swelljoe/wthr-widget/internal/db"
	"go.uber.org/zap"
)

const (
	suggestionCount = 5
	defaultLabel    = "Your Location"
)

// Store is the persistence the service uses for caching and recents.
type Store interface {
	GetCachedWeather(lat, lon float64) (*db.CachedWeather, error)
	SetCachedWeather(lat, lon float64, data string, ttl time.Duration) error
	RecordPlace(p db.Place) error
	RecentPlaces(limit int) ([]db.Place, error)
}

// Upstream is the subset of Client the service depends on.
type Upstream interface {
	Geocode(ctx context.Context, query string, count int) ([]Place, error)
	Forecast(ctx context.Context, lat, lon float64) (*Forecast, error)
}

// Service handles lookups, optional caching and formatting.
type Service struct {
	client    Upstream
	store     Store
	formatter Formatter
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithStore enables the forecast cache (when ttl > 0) and recent places.
func WithStore(store Store, ttl time.Duration) Option {
	return func(s *Service) {
		s.store = store
		s.cacheTTL = ttl
	}
}

// WithFormatter replaces the default remote-icon formatter.
func WithFormatter(f Formatter) Option {
	return func(s *Service) { s.formatter = f }
}

// NewService creates a new weather service
func NewService(client Upstream, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{client: client, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns up to five candidates for an autocomplete query.
func (s *Service) Suggest(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.client.Geocode(ctx, query, suggestionCount)
}

// Search resolves a city name to its best match.
func (s *Service) Search(ctx context.Context, query string) (*Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	places, err := s.client.Geocode(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	p := places[0]
	if s.store != nil {
		err := s.store.RecordPlace(db.Place{
			Name:      p.Name,
			Admin1:    p.AdminRegion,
			Country:   p.Country,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		})
		if err != nil {
			s.logger.Warn("failed to record place", zap.String("place", p.Label()), zap.Error(err))
		}
	}
	return &p, nil
}

// Forecast returns the raw forecast bundle, from cache when enabled.
func (s *Service) Forecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 || math.IsNaN(lat) || math.IsNaN(lon) {
		return nil, fmt.Errorf("%w: %f,%f", ErrInvalidCoordinates, lat, lon)
	}

	caching := s.store != nil && s.cacheTTL > 0
	// Two decimals is roughly 1.1km, close enough to share a forecast.
	const precision = 100.0
	rLat := math.Round(lat*precision) / precision
	rLon := math.Round(lon*precision) / precision

	if caching {
		if fc := s.cachedForecast(rLat, rLon); fc != nil {
			return fc, nil
		}
	}

	fc, err := s.client.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if caching {
		data, err := json.Marshal(fc)
		if err == nil {
			err = s.store.SetCachedWeather(rLat, rLon, string(data), s.cacheTTL)
		}
		if err != nil {
			s.logger.Warn("failed to update cache", zap.Error(err))
		}
	}
	return fc, nil
}

// cachedForecast returns the stored bundle for a rounded coordinate, or nil
// on a miss. Read and decode failures count as misses.
func (s *Service) cachedForecast(lat, lon float64) *Forecast {
	cached, err := s.store.GetCachedWeather(lat, lon)
	if err != nil {
		s.logger.Warn("cache read failed", zap.Error(err))
		return nil
	}
	if cached == nil {
		return nil
	}

	var fc Forecast
	if err := json.Unmarshal([]byte(cached.Data), &fc); err != nil {
		s.logger.Warn("cache unmarshal failed", zap.Error(err))
		return nil
	}
	s.logger.Debug("forecast cache hit",
		zap.Float64("lat", lat), zap.Float64("lon", lon),
		zap.Duration("age", time.Since(cached.CreatedAt)))
	return &fc
}

// Report fetches a forecast and formats it. If now is zero the forecast
// location's current time is used to pick the current hour.
func (s *Service) Report(ctx context.Context, lat, lon float64, label string, now time.Time) (*Report, error) {
	fc, err := s.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(label) == "" {
		label = defaultLabel
	}
	if now.IsZero() {
		now = time.Now().In(fc.Location())
	}
	return s.formatter.Format(fc, label, now), nil
}

// RecentPlaces lists recent successful searches. Without a store it
// returns an empty list.
func (s *Service) RecentPlaces(limit int) ([]Place, error) {
	if s.store == nil {
		return []Place{}, nil
	}
	rows, err := s.store.RecentPlaces(limit)
	if err != nil {
		return nil, err
	}
	places := make([]Place, 0, len(rows))
	for _, r := range rows {
		places = append(places, Place{
			Name:        r.Name,
			AdminRegion: r.Admin1,
			Country:     r.Country,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}
	return places, nil
}
