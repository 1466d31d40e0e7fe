package weather

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Place is a geocoding candidate.
type Place struct {
	Name        string  `json:"name"`
	AdminRegion string  `json:"admin1,omitempty"`
	Country     string  `json:"country"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Label is the display name used as the weather card heading,
// e.g. "Paris, Île-de-France, France".
func (p Place) Label() string {
	parts := []string{p.Name}
	if p.AdminRegion != "" {
		parts = append(parts, p.AdminRegion)
	}
	if p.Country != "" {
		parts = append(parts, p.Country)
	}
	return strings.Join(parts, ", ")
}

// Details is the secondary suggestion line ("Île-de-France, France").
func (p Place) Details() string {
	if p.AdminRegion != "" {
		return p.AdminRegion + ", " + p.Country
	}
	return p.Country
}

// LocalTime is a wall-clock timestamp as returned with timezone=auto:
// no offset, either "2006-01-02T15:04" or "2006-01-02". The value is held
// in UTC and only its clock fields are meaningful.
type LocalTime struct {
	time.Time
}

var localTimeLayouts = []string{"2006-01-02T15:04", "2006-01-02", time.RFC3339}

func ParseLocalTime(s string) (LocalTime, error) {
	for _, layout := range localTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return LocalTime{t}, nil
		}
	}
	return LocalTime{}, fmt.Errorf("unrecognized time %q", s)
}

func (t *LocalTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = LocalTime{}
		return nil
	}
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04"))
}

// CurrentConditions is the current_weather block.
type CurrentConditions struct {
	Time        LocalTime `json:"time"`
	Temperature float64   `json:"temperature"`
	WindSpeed   float64   `json:"windspeed"`
	WeatherCode int       `json:"weathercode"`
}

// HourlySeries holds parallel arrays indexed by hour offset from local
// midnight of the first forecast day. Pointer elements may be null.
type HourlySeries struct {
	Time                     []LocalTime `json:"time"`
	Temperature              []float64   `json:"temperature_2m"`
	WeatherCode              []int       `json:"weathercode"`
	PrecipitationProbability []*float64  `json:"precipitation_probability,omitempty"`
	WindSpeed                []float64   `json:"windspeed_10m"`
	RelativeHumidity         []*float64  `json:"relative_humidity_2m,omitempty"`
	Visibility               []*float64  `json:"visibility,omitempty"`
	UVIndex                  []*float64  `json:"uv_index,omitempty"`
}

// DailySeries holds parallel arrays indexed by day offset, 0 being today.
type DailySeries struct {
	Time                        []LocalTime `json:"time"`
	TemperatureMax              []float64   `json:"temperature_2m_max"`
	TemperatureMin              []float64   `json:"temperature_2m_min"`
	WeatherCode                 []int       `json:"weathercode"`
	PrecipitationProbabilityMax []*float64  `json:"precipitation_probability_max,omitempty"`
	WindSpeedMax                []float64   `json:"windspeed_10m_max"`
	Sunrise                     []LocalTime `json:"sunrise"`
	Sunset                      []LocalTime `json:"sunset"`
	UVIndexMax                  []*float64  `json:"uv_index_max,omitempty"`
}

// Forecast is the decoded forecast bundle.
type Forecast struct {
	Latitude         float64           `json:"latitude"`
	Longitude        float64           `json:"longitude"`
	Timezone         string            `json:"timezone"`
	UTCOffsetSeconds int               `json:"utc_offset_seconds"`
	Current          CurrentConditions `json:"current_weather"`
	Hourly           HourlySeries      `json:"hourly"`
	Daily            DailySeries       `json:"daily"`
}

// Location returns a fixed zone matching the forecast's UTC offset.
func (f *Forecast) Location() *time.Location {
	name := f.Timezone
	if name == "" {
		name = "UTC"
	}
	return time.FixedZone(name, f.UTCOffsetSeconds)
}

// validate checks that the required series line up with their time axis.
func (f *Forecast) validate() error {
	h := f.Hourly
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.WeatherCode) != n || len(h.WindSpeed) != n {
		return fmt.Errorf("hourly series misaligned: time=%d temperature=%d weathercode=%d windspeed=%d",
			n, len(h.Temperature), len(h.WeatherCode), len(h.WindSpeed))
	}
	d := f.Daily
	n = len(d.Time)
	if len(d.TemperatureMax) != n || len(d.TemperatureMin) != n || len(d.WeatherCode) != n ||
		len(d.WindSpeedMax) != n || len(d.Sunrise) != n || len(d.Sunset) != n {
		return fmt.Errorf("daily series misaligned: time=%d max=%d min=%d weathercode=%d wind=%d sunrise=%d sunset=%d",
			n, len(d.TemperatureMax), len(d.TemperatureMin), len(d.WeatherCode),
			len(d.WindSpeedMax), len(d.Sunrise), len(d.Sunset))
	}
	return nil
}

// Report is the display-ready view model of a forecast.
type Report struct {
	Location  string      `json:"location"`
	UpdatedAt string      `json:"updated_at"`
	Current   CurrentView `json:"current"`
	Summary   string      `json:"summary"`
	Details   Details     `json:"details"`
	Hourly    []HourSlot  `json:"hourly"`
	Daily     []DaySlot   `json:"daily"`
}

type CurrentView struct {
	Code        int     `json:"code"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	IconURL     string  `json:"icon_url"`
	Temperature int     `json:"temperature"`
	RawTemp     float64 `json:"raw_temperature"`
	WindSpeed   float64 `json:"wind_speed"`
	Wind        Bucket  `json:"wind"`
}

// Details carries the values the current_weather block lacks. Each is
// already formatted, with Placeholder for missing data.
type Details struct {
	Humidity   string `json:"humidity"`
	Visibility string `json:"visibility"`
	UVIndex    string `json:"uv_index"`
	Sunrise    string `json:"sunrise"`
	Sunset     string `json:"sunset"`
}

type HourSlot struct {
	Label        string `json:"label"`
	Code         int    `json:"code"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	IconURL      string `json:"icon_url"`
	Temperature  int    `json:"temperature"`
	PrecipChance int    `json:"precip_chance"`
	WindSpeed    int    `json:"wind_speed"`
}

type DaySlot struct {
	Label        string `json:"label"`
	Code         int    `json:"code"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	IconURL      string `json:"icon_url"`
	High         int    `json:"high"`
	Low          int    `json:"low"`
	PrecipChance int    `json:"precip_chance"`
	WindSpeed    int    `json:"wind_speed"`
}
