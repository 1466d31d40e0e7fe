package handlers

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/swelljoe/wthr-widget/internal/middleware"
	"github.com/swelljoe/wthr-widget/internal/suggest"
	"github.com/swelljoe/wthr-widget/internal/weather"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageTTL       = 30 * time.Minute
	seqHeader     = "X-Suggest-Seq"
	recentLimit   = 10
	requestBudget = 30 * time.Second
)

// Database defines the interface for database operations needed by handlers
type Database interface {
	Ping() error
}

// WeatherService is the part of weather.Service the handlers call.
type WeatherService interface {
	Suggest(ctx context.Context, query string) ([]weather.Place, error)
	Search(ctx context.Context, query string) (*weather.Place, error)
	Report(ctx context.Context, lat, lon float64, label string, now time.Time) (*weather.Report, error)
	RecentPlaces(limit int) ([]weather.Place, error)
}

// Handlers holds dependencies for HTTP handlers
type Handlers struct {
	db        Database
	weather   WeatherService
	tracker   *suggest.Tracker
	templates *template.Template
	logger    *zap.Logger
	now       func() time.Time
}

type suggestionsView struct {
	Message string
	Places  []weather.Place
}

var forecastFailure = struct{ Title, Hint string }{weather.MsgForecastFailed, weather.MsgForecastHint}

type iconView struct {
	URL   string
	Alt   string
	Glyph string
	Class string
}

// New creates a new Handlers instance. database may be nil when the server
// runs without storage.
func New(database Database, svc WeatherService, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcs := template.FuncMap{
		"icon": func(url, alt, glyph, class string) iconView {
			return iconView{URL: url, Alt: alt, Glyph: glyph, Class: class}
		},
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

	return &Handlers{
		db:        database,
		weather:   svc,
		tracker:   suggest.NewTracker(pageTTL),
		templates: tmpl,
		logger:    logger,
		now:       time.Now,
	}
}

// Router wires the handlers, middleware and static assets. An empty
// staticDir disables /static/.
func (h *Handlers) Router(staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestBudget))

	r.Get("/", h.HandleIndex)
	r.Get("/health", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/suggest", h.HandleSuggest)
		r.Get("/weather", h.HandleWeather)
		r.Get("/recent", h.HandleRecent)
	})

	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
	}
	return r
}

// HandleIndex handles the main page
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := struct{ Now string }{
		Now: h.now().Format("Monday, January 2, 2006 at 03:04 PM"),
	}
	h.render(w, http.StatusOK, "index.html", data)
}

// HandleHealth handles health check endpoint
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ok"
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			h.logger.Warn("database ping failed", zap.Error(err))
			status = "degraded"
		}
	} else {
		status = "no_database"
	}

	w.Write([]byte(`{"status":"` + status + `"}`))
}

// HandleSuggest returns the autocomplete fragment for q. Requests carrying a
// seq older than one already seen for the same page (sid) get 204 No Content.
func (h *Handlers) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	id, seq, tracked := suggestSequence(r)
	if tracked {
		if !h.tracker.Begin(id, seq) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set(seqHeader, strconv.FormatUint(seq, 10))
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return
	}

	places, err := h.weather.Suggest(r.Context(), query)

	if tracked && !h.tracker.Current(id, seq) {
		h.logger.Debug("dropping superseded suggestions",
			zap.String("query", query), zap.Uint64("seq", seq))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	view := suggestionsView{Places: places}
	switch {
	case err != nil:
		h.logger.Warn("suggestion lookup failed", zap.String("query", query), zap.Error(err))
		view = suggestionsView{Message: suggest.MsgError}
	case len(places) == 0:
		view.Message = suggest.MsgNoResults
	}
	h.render(w, http.StatusOK, "suggestions", view)
}

// suggestSequence reads the page id (sid) and seq parameters. Requests
// missing either are served untracked.
func suggestSequence(r *http.Request) (string, uint64, bool) {
	q := r.URL.Query()
	seq, err := strconv.ParseUint(q.Get("seq"), 10, 64)
	if err != nil || seq == 0 {
		return "", 0, false
	}
	id := q.Get("sid")
	if !suggest.ValidPageID(id) {
		return "", 0, false
	}
	return id, seq, true
}

// HandleWeather renders the weather card for ?city= or ?lat=&lon=[&label=].
func (h *Handlers) HandleWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city := strings.TrimSpace(q.Get("city"))
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	label := q.Get("label")

	var lat, lon float64
	switch {
	case city != "":
		place, err := h.weather.Search(r.Context(), city)
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				h.renderError(w, http.StatusNotFound, weather.MsgCityNotFound)
				return
			}
			h.logger.Error("geocoding failed", zap.String("city", city), zap.Error(err))
			h.renderError(w, http.StatusBadGateway, weather.MsgGeocodeFailed)
			return
		}
		lat, lon, label = place.Latitude, place.Longitude, place.Label()

	case latStr != "" && lonStr != "":
		var err error
		if lat, err = strconv.ParseFloat(latStr, 64); err != nil {
			h.renderError(w, http.StatusBadRequest, "Invalid latitude")
			return
		}
		if lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
			h.renderError(w, http.StatusBadRequest, "Invalid longitude")
			return
		}

	default:
		h.renderError(w, http.StatusBadRequest, weather.MsgMissingCity)
		return
	}

	report, err := h.weather.Report(r.Context(), lat, lon, label, time.Time{})
	if err != nil {
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			h.renderError(w, http.StatusBadRequest, weather.MsgInvalidLocation)
			return
		}
		h.logger.Error("forecast failed",
			zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		h.render(w, http.StatusBadGateway, "weather_error", forecastFailure)
		return
	}

	h.render(w, http.StatusOK, "weather", report)
}

// HandleRecent lists recently searched places as JSON.
func (h *Handlers) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := recentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	places, err := h.weather.RecentPlaces(limit)
	if err != nil {
		h.logger.Error("recent places failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if places == nil {
		places = []weather.Place{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(places); err != nil {
		h.logger.Error("encoding recent places", zap.Error(err))
	}
}

func (h *Handlers) renderError(w http.ResponseWriter, status int, msg string) {
	h.render(w, status, "error", msg)
}

// render executes into a buffer so a template failure never leaves a
// half-written fragment behind.
func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template execution failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
