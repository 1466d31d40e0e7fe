package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultUserAgent    = "wthr-widget/1.0"

	hourlyVariables = "temperature_2m,weathercode,precipitation_probability,windspeed_10m,relative_humidity_2m,visibility,uv_index"
	dailyVariables  = "temperature_2m_max,temperature_2m_min,weathercode,precipitation_probability_max,windspeed_10m_max,sunrise,sunset,uv_index_max"
	forecastDays    = 5
)

// ClientOptions configures a Client. Zero values fall back to the public
// Open-Meteo endpoints, a 10s timeout and no rate limit.
type ClientOptions struct {
	GeocodingURL string
	ForecastURL  string
	UserAgent    string
	Timeout      time.Duration
	RPS          float64
	Burst        int
}

// Client handles Open-Meteo geocoding and forecast requests.
type Client struct {
	GeocodingURL string
	ForecastURL  string
	UserAgent    string
	HTTPClient   *http.Client

	limiter *rate.Limiter
}

// NewClient creates a new Open-Meteo client
func NewClient(opts ClientOptions) *Client {
	c := &Client{
		GeocodingURL: opts.GeocodingURL,
		ForecastURL:  opts.ForecastURL,
		UserAgent:    opts.UserAgent,
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
	if c.GeocodingURL == "" {
		c.GeocodingURL = DefaultGeocodingURL
	}
	if c.ForecastURL == "" {
		c.ForecastURL = DefaultForecastURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.HTTPClient.Timeout == 0 {
		c.HTTPClient.Timeout = 10 * time.Second
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return c
}

func (c *Client) get(ctx context.Context, op, requestURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Op: op, Err: fmt.Errorf("rate limit wait canceled: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error  bool   `json:"error"`
			Reason string `json:"reason"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error {
			apiErr.Reason = body.Reason
		}
		return nil, &NetworkError{Op: op, Err: apiErr}
	}

	return data, nil
}

// geocodeResponse is the Open-Meteo search payload. The results key is
// omitted entirely when nothing matches.
type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// Geocode returns up to count candidates for query, in provider order.
func (c *Client) Geocode(ctx context.Context, query string, count int) ([]Place, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("language", "en")
	params.Set("format", "json")

	data, err := c.get(ctx, "geocode", c.GeocodingURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp geocodeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &NetworkError{Op: "geocode", Err: fmt.Errorf("decoding response: %w", err)}
	}

	places := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(places) == count {
			break
		}
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

// Forecast fetches the current conditions, hourly detail and 5-day summary
// for a coordinate pair.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current_weather", "true")
	params.Set("hourly", hourlyVariables)
	params.Set("daily", dailyVariables)
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(forecastDays))

	data, err := c.get(ctx, "forecast", c.ForecastURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var fc Forecast
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, &NetworkError{Op: "forecast", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if err := fc.validate(); err != nil {
		return nil, &NetworkError{Op: "forecast", Err: err}
	}
	return &fc, nil
}
