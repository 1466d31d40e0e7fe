package weather

// Bucket is one band of the Beaufort scale, in km/h.
type Bucket struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

var beaufortScale = []Bucket{
	{0, 1, "Calm", "🌀"},
	{1, 5, "Light air", "🌀"},
	{6, 11, "Gentle breeze", "🌬️"},
	{12, 19, "Moderate breeze", "🌬️"},
	{20, 28, "Fresh breeze", "🌬️"},
	{29, 38, "Strong breeze", "💨"},
	{39, 49, "High wind", "💨"},
	{50, 61, "Gale", "💨"},
	{62, 74, "Strong gale", "🌪️"},
	{75, 88, "Storm", "🌪️"},
	{89, 102, "Violent storm", "🌪️"},
	{103, 200, "Hurricane", "🌪️"},
}

// ClassifyWind returns the first bucket containing speed. The table uses
// whole km/h bounds, so a fractional speed between two buckets (5.4) goes to
// the upper one. Anything past the table is a hurricane.
func ClassifyWind(speed float64) Bucket {
	for i, b := range beaufortScale {
		if speed >= b.Min && speed <= b.Max {
			return b
		}
		if i+1 < len(beaufortScale) && speed > b.Max && speed < beaufortScale[i+1].Min {
			return beaufortScale[i+1]
		}
	}
	if speed < 0 {
		return beaufortScale[0]
	}
	return beaufortScale[len(beaufortScale)-1]
}
