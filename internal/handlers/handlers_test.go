package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/swelljoe/wthr-widget/internal/suggest"
	"github.com/swelljoe/wthr-widget/internal/weather"
)

type fakeDB struct{ err error }

func (f fakeDB) Ping() error { return f.err }

type fakeWeather struct {
	places     []weather.Place
	suggestErr error
	onSuggest  func()

	searchErr error

	report    *weather.Report
	reportErr error
	lastLat   float64
	lastLon   float64
	lastLabel string

	recent    []weather.Place
	recentErr error

	suggestCalls int
}

func (f *fakeWeather) Suggest(_ context.Context, query string) ([]weather.Place, error) {
	f.suggestCalls++
	if f.onSuggest != nil {
		f.onSuggest()
	}
	return f.places, f.suggestErr
}

func (f *fakeWeather) Search(_ context.Context, query string) (*weather.Place, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.places) == 0 {
		return nil, fmt.Errorf("%w: %q", weather.ErrNotFound, query)
	}
	p := f.places[0]
	return &p, nil
}

func (f *fakeWeather) Report(_ context.Context, lat, lon float64, label string, _ time.Time) (*weather.Report, error) {
	f.lastLat, f.lastLon, f.lastLabel = lat, lon, label
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, weather.ErrInvalidCoordinates
	}
	r := *f.report
	r.Location = label
	return &r, nil
}

func (f *fakeWeather) RecentPlaces(limit int) ([]weather.Place, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

var parisPlaces = []weather.Place{
	{Name: "Paris", AdminRegion: "Île-de-France", Country: "France", Latitude: 48.85341, Longitude: 2.3488},
	{Name: "Paris", AdminRegion: "Texas", Country: "United States", Latitude: 33.66094, Longitude: -95.55551},
}

func sampleReport() *weather.Report {
	return &weather.Report{
		UpdatedAt: "2:00 PM",
		Current: weather.CurrentView{
			Code:        61,
			Description: "Slight rain",
			Icon:        "🌧️",
			IconURL:     weather.IconURL(61),
			Temperature: 8,
			WindSpeed:   10,
			Wind:        weather.ClassifyWind(10),
		},
		Summary: "Currently slight rain with gentle breeze winds at 10 km/h",
		Details: weather.Details{Humidity: "64%", Visibility: "24 km", UVIndex: "1", Sunrise: "08:41", Sunset: "17:19"},
		Hourly: []weather.HourSlot{
			{Label: "14:00", Code: 3, Description: "Overcast", Icon: "☁️", Temperature: 6, PrecipChance: 20, WindSpeed: 12},
		},
		Daily: []weather.DaySlot{
			{Label: "Today", Code: 61, Description: "Slight rain", Icon: "🌧️", High: 10, Low: 2, PrecipChance: 80, WindSpeed: 21},
		},
	}
}

func newTestHandlers(t *testing.T, svc *fakeWeather) *Handlers {
	t.Helper()
	h := New(fakeDB{}, svc, zaptest.NewLogger(t))
	h.now = func() time.Time { return time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC) }
	return h
}

func get(h http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name string
		db   Database
		want string
	}{
		{"ok", fakeDB{}, "ok"},
		{"degraded", fakeDB{err: errors.New("disk I/O error")}, "degraded"},
		{"no database", nil, "no_database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.db, &fakeWeather{}, zaptest.NewLogger(t))

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()

			h.HandleHealth(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status OK, got %v", resp.StatusCode)
			}

			contentType := resp.Header.Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("expected Content-Type application/json, got %v", contentType)
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tt.want {
				t.Errorf("status = %q, want %q", body["status"], tt.want)
			}
		})
	}
}

func TestHandleIndex(t *testing.T) {
	h := newTestHandlers(t, &fakeWeather{})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	h.HandleIndex(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status OK, got %v", resp.StatusCode)
	}
	body := w.Body.String()
	for _, want := range []string{`id="cityInput"`, `id="suggestions"`, `id="weatherDisplay"`, "/static/app.js",
		"Monday, January 15, 2024 at 02:30 PM"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestHandleIndexNotFound(t *testing.T) {
	h := newTestHandlers(t, &fakeWeather{})

	req := httptest.NewRequest("GET", "/notfound", nil)
	w := httptest.NewRecorder()

	h.HandleIndex(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status NotFound, got %v", resp.StatusCode)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestHandlers(t, &fakeWeather{}).Router("")
	if w := get(router, "/nope"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestHandleSuggest_EmptyQuery(t *testing.T) {
	svc := &fakeWeather{places: parisPlaces}
	router := newTestHandlers(t, svc).Router("")

	w := get(router, "/api/suggest?q=%20%20&seq=1&sid="+uuid.NewString())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "" {
		t.Errorf("expected empty fragment, got %q", w.Body.String())
	}
	if svc.suggestCalls != 0 {
		t.Errorf("blank query reached the service")
	}
}

func TestHandleSuggest_Results(t *testing.T) {
	router := newTestHandlers(t, &fakeWeather{places: parisPlaces}).Router("")

	w := get(router, "/api/suggest?q=Par&seq=7&sid="+uuid.NewString())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Suggest-Seq"); got != "7" {
		t.Errorf("X-Suggest-Seq = %q, want 7", got)
	}

	body := w.Body.String()
	if n := strings.Count(body, `class="suggestion-item"`); n != 2 {
		t.Errorf("expected 2 suggestion items, got %d", n)
	}
	for _, want := range []string{
		`data-lat="48.85341"`,
		`data-label="Paris, Île-de-France, France"`,
		"Texas, United States",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("fragment missing %q:\n%s", want, body)
		}
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("suggest should not set cookies")
	}
}

func TestHandleSuggest_Untracked(t *testing.T) {
	svc := &fakeWeather{places: parisPlaces}
	router := newTestHandlers(t, svc).Router("")

	for _, target := range []string{
		"/api/suggest?q=Par",
		"/api/suggest?q=Par&seq=3",
		"/api/suggest?q=Par&seq=3&sid=tab-a",
		"/api/suggest?q=Par&seq=2&sid=tab-a",
	} {
		w := get(router, target)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", target, w.Code)
		}
		if got := w.Header().Get("X-Suggest-Seq"); got != "" {
			t.Errorf("%s: untracked request echoed seq %q", target, got)
		}
	}
	if svc.suggestCalls != 4 {
		t.Errorf("expected 4 lookups, got %d", svc.suggestCalls)
	}
}

func TestHandleSuggest_EscapesNames(t *testing.T) {
	svc := &fakeWeather{places: []weather.Place{{Name: `<script>alert(1)</script>`, Country: "Nowhere"}}}
	router := newTestHandlers(t, svc).Router("")

	body := get(router, "/api/suggest?q=x").Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("place name was not escaped:\n%s", body)
	}
}

func TestHandleSuggest_NoResults(t *testing.T) {
	router := newTestHandlers(t, &fakeWeather{}).Router("")

	w := get(router, "/api/suggest?q=Xyzzy")
	if !strings.Contains(w.Body.String(), suggest.MsgNoResults) {
		t.Errorf("expected %q, got %s", suggest.MsgNoResults, w.Body.String())
	}
}

func TestHandleSuggest_Error(t *testing.T) {
	svc := &fakeWeather{suggestErr: &weather.NetworkError{Op: "geocode", Err: errors.New("connection refused")}}
	router := newTestHandlers(t, svc).Router("")

	w := get(router, "/api/suggest?q=Par")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), suggest.MsgError) {
		t.Errorf("expected %q, got %s", suggest.MsgError, w.Body.String())
	}
}

func TestHandleSuggest_StaleSequence(t *testing.T) {
	svc := &fakeWeather{places: parisPlaces}
	router := newTestHandlers(t, svc).Router("")
	sid := uuid.NewString()

	first := get(router, "/api/suggest?q=Pari&seq=2&sid="+sid)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	stale := get(router, "/api/suggest?q=Par&seq=1&sid="+sid)
	if stale.Code != http.StatusNoContent {
		t.Errorf("older seq: expected 204, got %d", stale.Code)
	}
	if svc.suggestCalls != 1 {
		t.Errorf("stale request reached the service (%d calls)", svc.suggestCalls)
	}

	fresh := get(router, "/api/suggest?q=Paris&seq=3&sid="+sid)
	if fresh.Code != http.StatusOK {
		t.Errorf("newer seq: expected 200, got %d", fresh.Code)
	}
}

// Two tabs of one browser share cookies but each page load has its own sid,
// so a tab opened later with a higher starting seq must not starve the
// older tab.
func TestHandleSuggest_TabsSharingCookie(t *testing.T) {
	svc := &fakeWeather{places: parisPlaces}
	router := newTestHandlers(t, svc).Router("")
	cookie := &http.Cookie{Name: "wthr_sid", Value: uuid.NewString()}
	tabA, tabB := uuid.NewString(), uuid.NewString()

	steps := []struct {
		sid  string
		seq  uint64
		want int
	}{
		{tabA, 1700000000001, http.StatusOK},
		{tabB, 1700000060001, http.StatusOK},
		{tabA, 1700000000002, http.StatusOK},
		{tabB, 1700000060002, http.StatusOK},
		{tabA, 1700000000003, http.StatusOK},
		{tabA, 1700000000004, http.StatusOK},
		{tabA, 1700000000003, http.StatusNoContent},
		{tabB, 1700000060001, http.StatusNoContent},
	}
	for i, st := range steps {
		target := fmt.Sprintf("/api/suggest?q=Par&seq=%d&sid=%s", st.seq, st.sid)
		w := get(router, target, cookie)
		if w.Code != st.want {
			t.Errorf("step %d (seq %d): expected %d, got %d", i, st.seq, st.want, w.Code)
		}
	}
}

func TestHandleSuggest_SupersededDuringLookup(t *testing.T) {
	svc := &fakeWeather{places: parisPlaces}
	h := newTestHandlers(t, svc)
	router := h.Router("")

	sid := uuid.NewString()
	// A newer keystroke arrives while the upstream call is in flight.
	svc.onSuggest = func() { h.tracker.Begin(sid, 6) }

	w := get(router, "/api/suggest?q=Par&seq=5&sid="+sid)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for superseded query, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected no body, got %q", w.Body.String())
	}
}

func TestHandleWeather_City(t *testing.T) {
	svc := &fakeWeather{places: parisPlaces, report: sampleReport()}
	router := newTestHandlers(t, svc).Router("")

	w := get(router, "/api/weather?city=Paris")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastLat != 48.85341 || svc.lastLon != 2.3488 {
		t.Errorf("report requested for %v,%v", svc.lastLat, svc.lastLon)
	}

	body := w.Body.String()
	for _, want := range []string{
		"Paris, Île-de-France, France",
		"8°C",
		"Slight rain",
		"Currently slight rain with gentle breeze winds at 10 km/h",
		"64%",
		"24-Hour Forecast",
		"5-Day Forecast",
		"Today",
		"☂ 80%",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("weather card missing %q", want)
		}
	}
}

func TestHandleWeather_Coordinates(t *testing.T) {
	svc := &fakeWeather{report: sampleReport()}
	router := newTestHandlers(t, svc).Router("")

	w := get(router, "/api/weather?lat=51.5&lon=-0.12&label=London%2C+England")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.lastLat != 51.5 || svc.lastLon != -0.12 || svc.lastLabel != "London, England" {
		t.Errorf("got %v,%v %q", svc.lastLat, svc.lastLon, svc.lastLabel)
	}
}

func TestHandleWeather_Errors(t *testing.T) {
	geocodeErr := &weather.NetworkError{Op: "geocode", Err: &weather.APIError{StatusCode: 500}}
	forecastErr := &weather.NetworkError{Op: "forecast", Err: errors.New("timeout")}

	tests := []struct {
		name   string
		svc    *fakeWeather
		target string
		status int
		want   string
	}{
		{"missing input", &fakeWeather{}, "/api/weather", http.StatusBadRequest, weather.MsgMissingCity},
		{"blank city", &fakeWeather{}, "/api/weather?city=+", http.StatusBadRequest, weather.MsgMissingCity},
		{"bad latitude", &fakeWeather{}, "/api/weather?lat=north&lon=2", http.StatusBadRequest, "Invalid latitude"},
		{"bad longitude", &fakeWeather{}, "/api/weather?lat=2&lon=east", http.StatusBadRequest, "Invalid longitude"},
		{"out of range", &fakeWeather{report: sampleReport()}, "/api/weather?lat=95&lon=2", http.StatusBadRequest, weather.MsgInvalidLocation},
		{"not found", &fakeWeather{}, "/api/weather?city=Xyzzy", http.StatusNotFound, weather.MsgCityNotFound},
		{"geocode failure", &fakeWeather{searchErr: geocodeErr}, "/api/weather?city=Paris", http.StatusBadGateway, weather.MsgGeocodeFailed},
		{"forecast failure", &fakeWeather{places: parisPlaces, reportErr: forecastErr}, "/api/weather?city=Paris",
			http.StatusBadGateway, weather.MsgForecastFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestHandlers(t, tt.svc).Router("")
			w := get(router, tt.target)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body %q missing %q", w.Body.String(), tt.want)
			}
		})
	}
}

func TestHandleRecent(t *testing.T) {
	svc := &fakeWeather{recent: parisPlaces}
	router := newTestHandlers(t, svc).Router("")

	w := get(router, "/api/recent?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got []weather.Place
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Label() != "Paris, Île-de-France, France" {
		t.Errorf("unexpected recent places %+v", got)
	}

	if w := get(router, "/api/recent?limit=zero"); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", w.Code)
	}
}

func TestHandleRecent_Empty(t *testing.T) {
	router := newTestHandlers(t, &fakeWeather{}).Router("")

	w := get(router, "/api/recent")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", w.Body.String())
	}
}
