package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/swelljoe/wthr-widget/internal/config"
	"github.com/swelljoe/wthr-widget/internal/db"
	"github.com/swelljoe/wthr-widget/internal/weather"
)

// warmer is the part of weather.Service the cache warmer drives.
type warmer interface {
	Search(ctx context.Context, query string) (*weather.Place, error)
	Forecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

func main() {
	input := flag.String("places", "-", "Place list: one per line, `name` or `name<TAB>lat<TAB>lon` (- for stdin)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, *input); err != nil {
		logger.Fatal("cache warm failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, input string) error {
	if cfg.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be set to warm the forecast cache")
	}

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("failed to open place list: %w", err)
		}
		defer f.Close()
		r = f
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer database.Close()

	if n, err := database.PurgeExpired(); err != nil {
		logger.Warn("failed to purge expired forecasts", zap.Error(err))
	} else {
		logger.Info("purged expired forecasts", zap.Int64("rows", n))
	}

	client := weather.NewClient(cfg.ClientOptions())
	svc := weather.NewService(client, logger.Named("weather"), weather.WithStore(database, cfg.CacheTTL))

	count, err := warm(ctx, svc, r, logger)
	logger.Info("finished warming forecasts", zap.Int("places", count))
	return err
}

// warm reads the place list and fetches a forecast for each entry. Bad rows
// and failed lookups are logged and skipped.
func warm(ctx context.Context, svc warmer, r io.Reader, logger *zap.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed line", zap.Error(err))
			continue
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}

		var lat, lon float64
		if len(record) >= 3 {
			lat, lon, err = parseAndValidateCoordinates(strings.TrimSpace(record[1]), strings.TrimSpace(record[2]))
			if err != nil {
				logger.Warn("bad coordinates", zap.String("place", name), zap.Error(err))
				continue
			}
		} else {
			place, err := svc.Search(ctx, name)
			if err != nil {
				logger.Warn("lookup failed", zap.String("place", name), zap.Error(err))
				continue
			}
			lat, lon = place.Latitude, place.Longitude
		}

		if _, err := svc.Forecast(ctx, lat, lon); err != nil {
			logger.Warn("forecast failed", zap.String("place", name), zap.Error(err))
			continue
		}
		count++
		logger.Debug("warmed", zap.String("place", name), zap.Float64("lat", lat), zap.Float64("lon", lon))
	}
	return count, nil
}

// parseAndValidateCoordinates parses and validates latitude and longitude strings
func parseAndValidateCoordinates(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude out of range: %f", lat)
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("longitude out of range: %f", lon)
	}

	return lat, lon, nil
}
