package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a geocoding query is blank. Callers are
	// expected to guard against it before reaching the network.
	ErrEmptyQuery = errors.New("empty query")

	// ErrNotFound is returned when geocoding yields no candidates.
	ErrNotFound = errors.New("location not found")

	// ErrInvalidCoordinates is returned for latitudes or longitudes out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// NetworkError reports a failed upstream call: transport error, bad status
// or a body that could not be decoded.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is the provider's own error body ({"error":true,"reason":...}).
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("open-meteo API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("open-meteo API error: %d %s", e.StatusCode, e.Reason)
}

// Messages shown to the user for the failures above.
const (
	MsgMissingCity     = "Please enter a city name"
	MsgInvalidLocation = "Invalid coordinates"
	MsgCityNotFound    = "City not found. Please check the spelling and try again."
	MsgGeocodeFailed   = "Error finding city. Please try again."
	MsgForecastFailed  = "Unable to load weather data"
	MsgForecastHint    = "Please check your internet connection and try again."
)
