package recommend

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Daylight describes the sun at the time recommendations are generated,
// used to steer outdoor suggestions.
type Daylight struct {
	SunAltitude float64       `json:"sun_altitude"` // degrees
	IsDaytime   bool          `json:"is_daytime"`
	Sunrise     time.Time     `json:"sunrise,omitempty"`
	Sunset      time.Time     `json:"sunset,omitempty"`
	Remaining   time.Duration `json:"remaining"`
}

// OutdoorFriendly reports whether there is enough light left for a walk
func (d Daylight) OutdoorFriendly() bool {
	return d.IsDaytime && d.Remaining >= 30*time.Minute
}

// CalculateDaylight reads sunrise and sunset for the local day of t. During
// polar day or night those times do not exist and are left zero.
func CalculateDaylight(t time.Time, lat, lon float64) Daylight {
	altitude := altitudeDegrees(t, lat, lon)
	d := Daylight{
		SunAltitude: altitude,
		IsDaytime:   altitude > 0,
	}

	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	times := suncalc.GetTimes(dayStart.Add(12*time.Hour), lat, lon)
	if sunrise, ok := sunTime(times, suncalc.Sunrise, dayStart); ok {
		d.Sunrise = sunrise.In(t.Location())
	}
	if sunset, ok := sunTime(times, suncalc.Sunset, dayStart); ok {
		d.Sunset = sunset.In(t.Location())
	}

	switch {
	case !d.IsDaytime:
	case d.Sunset.After(t):
		d.Remaining = d.Sunset.Sub(t)
	case d.Sunset.IsZero():
		// Sun does not set today
		d.Remaining = dayEnd.Sub(t)
	}

	return d
}

// sunTime returns a named time when suncalc could compute it. At high
// latitudes the hour angle is undefined and the value lands far from the day.
func sunTime(times map[suncalc.DayTimeName]suncalc.DayTime, name suncalc.DayTimeName, dayStart time.Time) (time.Time, bool) {
	v, ok := times[name]
	if !ok || v.Value.IsZero() {
		return time.Time{}, false
	}
	if v.Value.Before(dayStart.Add(-12*time.Hour)) || v.Value.After(dayStart.Add(36*time.Hour)) {
		return time.Time{}, false
	}
	return v.Value, true
}

func altitudeDegrees(t time.Time, lat, lon float64) float64 {
	position := suncalc.GetPosition(t, lat, lon)
	return position.Altitude * (180.0 / math.Pi)
}
