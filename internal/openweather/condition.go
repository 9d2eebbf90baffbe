package openweather

// Condition is a coarse weather classification, one per organiser icon.
type Condition int

const (
	ConditionUnknown Condition = iota
	ClearDay
	ClearNight
	PartlyCloudyDay
	PartlyCloudyNight
	Cloudy
	Fog
	Rain
	Snow
	Thunderstorm
)

func (c Condition) String() string {
	switch c {
	case ClearDay:
		return "clear-day"
	case ClearNight:
		return "clear-night"
	case PartlyCloudyDay:
		return "partly-cloudy-day"
	case PartlyCloudyNight:
		return "partly-cloudy-night"
	case Cloudy:
		return "cloudy"
	case Fog:
		return "fog"
	case Rain:
		return "rain"
	case Snow:
		return "snow"
	case Thunderstorm:
		return "thunderstorm"
	}
	return "unknown"
}

// iconConditions maps the API's icon codes to conditions. The day/night
// distinction only matters for clear and partly cloudy skies.
var iconConditions = map[string]Condition{
	"01d": ClearDay,
	"01n": ClearNight,
	"02d": PartlyCloudyDay,
	"02n": PartlyCloudyNight,
	"03d": Cloudy,
	"03n": Cloudy,
	"04d": Cloudy,
	"04n": Cloudy,
	"09d": Rain,
	"09n": Rain,
	"10d": Rain,
	"10n": Rain,
	"11d": Thunderstorm,
	"11n": Thunderstorm,
	"13d": Snow,
	"13n": Snow,
	"50d": Fog,
	"50n": Fog,
}
