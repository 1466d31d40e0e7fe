package weather

import "fmt"

// CodeInfo is the human readable form of a WMO weather code.
type CodeInfo struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// UnknownCode is returned for codes missing from the table.
var UnknownCode = CodeInfo{Description: "Unknown", Icon: "❓"}

const remoteIconURL = "https://open-meteo.com/images/weathericons/%d.svg"

var weatherCodes = map[int]CodeInfo{
	0:  {"Clear sky", "☀️"},
	1:  {"Mainly clear", "🌤️"},
	2:  {"Partly cloudy", "⛅"},
	3:  {"Overcast", "☁️"},
	45: {"Foggy", "🌫️"},
	48: {"Depositing rime fog", "🌫️"},
	51: {"Light drizzle", "🌦️"},
	53: {"Moderate drizzle", "🌦️"},
	55: {"Dense drizzle", "🌧️"},
	56: {"Light freezing drizzle", "🌨️"},
	57: {"Dense freezing drizzle", "🌨️"},
	61: {"Slight rain", "🌦️"},
	63: {"Moderate rain", "🌧️"},
	65: {"Heavy rain", "🌧️"},
	66: {"Light freezing rain", "🌨️"},
	67: {"Heavy freezing rain", "🌨️"},
	71: {"Slight snow fall", "❄️"},
	73: {"Moderate snow fall", "❄️"},
	75: {"Heavy snow fall", "❄️"},
	77: {"Snow grains", "❄️"},
	80: {"Slight rain showers", "🌦️"},
	81: {"Moderate rain showers", "🌧️"},
	82: {"Violent rain showers", "⛈️"},
	85: {"Slight snow showers", "🌨️"},
	86: {"Heavy snow showers", "🌨️"},
	95: {"Thunderstorm", "⛈️"},
	96: {"Thunderstorm with slight hail", "⛈️"},
	99: {"Thunderstorm with heavy hail", "⛈️"},
}

// iconFiles maps codes onto the bitmaps shipped under static/icons.
// Several codes share an image.
var iconFiles = map[int]string{
	0:  "clear.png",
	1:  "mostly-clear.png",
	2:  "partly-cloudy.png",
	3:  "overcast.png",
	45: "fog.png",
	48: "fog.png",
	51: "drizzle.png",
	53: "drizzle.png",
	55: "drizzle.png",
	56: "freezing-drizzle.png",
	57: "freezing-drizzle.png",
	61: "rain.png",
	63: "rain.png",
	65: "heavy-rain.png",
	66: "freezing-rain.png",
	67: "freezing-rain.png",
	71: "snow.png",
	73: "snow.png",
	75: "heavy-snow.png",
	77: "snow.png",
	80: "showers.png",
	81: "showers.png",
	82: "heavy-rain.png",
	85: "snow-showers.png",
	86: "snow-showers.png",
	95: "thunderstorm.png",
	96: "thunderstorm.png",
	99: "thunderstorm.png",
}

// LookupCode returns the description and glyph for a weather code, or
// UnknownCode when the code is not recognized.
func LookupCode(code int) CodeInfo {
	if info, ok := weatherCodes[code]; ok {
		return info
	}
	return UnknownCode
}

// IconURL returns the remote SVG for a code. The provider has no image for
// unknown codes; the emoji fallback covers that case in the page.
func IconURL(code int) string {
	return fmt.Sprintf(remoteIconURL, code)
}

// IconFile returns the local bitmap name for a code, or "" if there is none.
func IconFile(code int) string {
	return iconFiles[code]
}
