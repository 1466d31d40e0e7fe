package weather

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"
)

// Placeholder stands in for values the provider did not return.
const Placeholder = "N/A"

const (
	hourlySlots = 24
	dailySlots  = 5
)

// Formatter turns a Forecast into a Report. The zero value links the
// provider's remote SVG icons.
type Formatter struct {
	// LocalIconBase, when set, is the URL prefix of the bundled bitmaps
	// (e.g. "/static/icons"). Codes without a bitmap get no image.
	LocalIconBase string
}

func (f Formatter) iconURL(code int) string {
	if f.LocalIconBase == "" {
		return IconURL(code)
	}
	file := IconFile(code)
	if file == "" {
		return ""
	}
	return path.Join(f.LocalIconBase, file)
}

// Format builds the view model. now locates the current hour and day in the
// series and must be expressed in the forecast's local clock. A bundle
// fetched on an earlier day is read from today's entries onwards.
func (f Formatter) Format(fc *Forecast, label string, now time.Time) *Report {
	cur := fc.Current
	info := LookupCode(cur.WeatherCode)
	wind := ClassifyWind(cur.WindSpeed)

	r := &Report{
		Location: label,
		Current: CurrentView{
			Code:        cur.WeatherCode,
			Description: info.Description,
			Icon:        info.Icon,
			IconURL:     f.iconURL(cur.WeatherCode),
			Temperature: round(cur.Temperature),
			RawTemp:     cur.Temperature,
			WindSpeed:   cur.WindSpeed,
			Wind:        wind,
		},
		Summary: fmt.Sprintf("Currently %s with %s winds at %s km/h",
			strings.ToLower(info.Description),
			strings.ToLower(wind.Description),
			strconv.FormatFloat(cur.WindSpeed, 'f', -1, 64)),
	}
	if !cur.Time.IsZero() {
		r.UpdatedAt = cur.Time.Format("3:04 PM")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	hour := offset(fc.Hourly.Time, today.Add(time.Duration(now.Hour())*time.Hour), time.Hour, now.Hour())
	day := offset(fc.Daily.Time, today, 24*time.Hour, 0)
	r.Details = Details{
		Humidity:   formatValue(at(fc.Hourly.RelativeHumidity, hour), "%d%%", 1),
		Visibility: formatValue(at(fc.Hourly.Visibility, hour), "%d km", 1000),
		UVIndex:    formatValue(at(fc.Hourly.UVIndex, hour), "%d", 1),
		Sunrise:    clock(fc.Daily.Sunrise, day),
		Sunset:     clock(fc.Daily.Sunset, day),
	}

	r.Hourly = f.hourly(fc.Hourly, hour-now.Hour())
	r.Daily = f.daily(fc.Daily, day)
	return r
}

// offset counts whole steps from the first entry of times to t, a wall
// clock held in UTC like LocalTime. Without times it returns fallback.
func offset(times []LocalTime, t time.Time, step time.Duration, fallback int) int {
	if len(times) == 0 || times[0].IsZero() {
		return fallback
	}
	return int(t.Sub(times[0].Time) / step)
}

// window bounds up to slots entries from start within a series of n.
func window(start, n, slots int) (int, int) {
	start = min(max(start, 0), n)
	return start, min(n, start+slots)
}

func (f Formatter) hourly(h HourlySeries, start int) []HourSlot {
	start, end := window(start, len(h.Time), hourlySlots)
	slots := make([]HourSlot, 0, end-start)
	for i := start; i < end; i++ {
		code := h.WeatherCode[i]
		info := LookupCode(code)
		slots = append(slots, HourSlot{
			Label:        fmt.Sprintf("%d:00", h.Time[i].Hour()),
			Code:         code,
			Description:  info.Description,
			Icon:         info.Icon,
			IconURL:      f.iconURL(code),
			Temperature:  round(h.Temperature[i]),
			PrecipChance: percent(at(h.PrecipitationProbability, i)),
			WindSpeed:    round(h.WindSpeed[i]),
		})
	}
	return slots
}

func (f Formatter) daily(d DailySeries, start int) []DaySlot {
	start, end := window(start, len(d.Time), dailySlots)
	slots := make([]DaySlot, 0, end-start)
	for i := start; i < end; i++ {
		code := d.WeatherCode[i]
		info := LookupCode(code)
		label := "Today"
		if i > start {
			label = d.Time[i].Format("Mon")
		}
		slots = append(slots, DaySlot{
			Label:        label,
			Code:         code,
			Description:  info.Description,
			Icon:         info.Icon,
			IconURL:      f.iconURL(code),
			High:         round(d.TemperatureMax[i]),
			Low:          round(d.TemperatureMin[i]),
			PrecipChance: percent(at(d.PrecipitationProbabilityMax, i)),
			WindSpeed:    round(d.WindSpeedMax[i]),
		})
	}
	return slots
}

// at returns the i-th element of an optional series, nil when absent.
func at(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	v := values[i]
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	return v
}

func formatValue(v *float64, format string, divisor float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf(format, round(*v/divisor))
}

func percent(v *float64) int {
	if v == nil {
		return 0
	}
	return round(*v)
}

func clock(times []LocalTime, i int) string {
	if i < 0 || i >= len(times) || times[i].IsZero() {
		return Placeholder
	}
	return times[i].Format("15:04")
}

func round(v float64) int {
	return int(math.Round(v))
}
