package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/swelljoe/wthr-widget/internal/suggest"
	"github.com/swelljoe/wthr-widget/internal/weather"
)

const requestTimeout = 30 * time.Second

// WeatherService is the part of weather.Service the terminal client uses.
type WeatherService interface {
	Suggest(ctx context.Context, query string) ([]weather.Place, error)
	Search(ctx context.Context, query string) (*weather.Place, error)
	Report(ctx context.Context, lat, lon float64, label string, now time.Time) (*weather.Report, error)
}

// debounce waits for d and then reports the edit it was scheduled for.
func debounce(d time.Duration, edit uint64, text string) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{edit: edit, text: text}
	})
}

// fetchSuggestions runs suggestion query q.
func fetchSuggestions(svc WeatherService, q suggest.Query) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		places, err := svc.Suggest(ctx, q.Text)
		return suggestionsMsg{seq: q.Seq, places: places, err: err}
	}
}

// searchCity geocodes a free-text city and loads its report.
func searchCity(svc WeatherService, city string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		place, err := svc.Search(ctx, city)
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return reportMsg{message: weather.MsgCityNotFound, err: err}
			}
			return reportMsg{message: weather.MsgGeocodeFailed, err: err}
		}
		return report(ctx, svc, place.Latitude, place.Longitude, place.Label())
	}
}

// loadPlace loads the report for a chosen suggestion by its coordinates.
func loadPlace(svc WeatherService, p weather.Place) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return report(ctx, svc, p.Latitude, p.Longitude, p.Label())
	}
}

func report(ctx context.Context, svc WeatherService, lat, lon float64, label string) reportMsg {
	r, err := svc.Report(ctx, lat, lon, label, time.Time{})
	switch {
	case err == nil:
		return reportMsg{report: r}
	case errors.Is(err, weather.ErrInvalidCoordinates):
		return reportMsg{message: weather.MsgInvalidLocation, err: err}
	default:
		return reportMsg{message: weather.MsgForecastFailed + ". " + weather.MsgForecastHint, err: err}
	}
}
