package astro

import (
	"math"
	"time"
)

// SimClock is a simulated calendar date plus wall-clock hours.
// TimeOfDayHours may leave [0,24) after Advance until Normalize is called.
type SimClock struct {
	Year           int        `json:"year" yaml:"year"`
	Month          time.Month `json:"month" yaml:"month"`
	Day            int        `json:"day" yaml:"day"`
	TimeOfDayHours float64    `json:"time_of_day_hours" yaml:"time_of_day_hours"`
}

// ClockFromTime builds a clock showing the local wall time of t at the given offset
func ClockFromTime(t time.Time, utcOffsetHours int) SimClock {
	local := t.UTC().Add(time.Duration(utcOffsetHours) * time.Hour)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return SimClock{
		Year:           local.Year(),
		Month:          local.Month(),
		Day:            local.Day(),
		TimeOfDayHours: local.Sub(midnight).Hours(),
	}
}

// Date returns midnight of the calendar date in UTC
func (c SimClock) Date() time.Time {
	return time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, time.UTC)
}

// UTC returns the instant: date @ 00:00 UTC + time-of-day - offset
func (c SimClock) UTC(utcOffsetHours int) time.Time {
	return c.Date().Add(hoursToDuration(c.TimeOfDayHours - float64(utcOffsetHours)))
}

// Local returns the wall-clock time as a UTC-zoned value, used for naming
func (c SimClock) Local() time.Time {
	return c.Date().Add(hoursToDuration(c.TimeOfDayHours))
}

// Advance adds simulated hours without normalizing
func (c SimClock) Advance(hours float64) SimClock {
	c.TimeOfDayHours += hours
	return c
}

// Normalize folds TimeOfDayHours into [0,24), rolling the date as needed
func (c SimClock) Normalize() SimClock {
	if c.TimeOfDayHours >= 0 && c.TimeOfDayHours < 24 {
		return c
	}
	days := math.Floor(c.TimeOfDayHours / 24)
	hours := c.TimeOfDayHours - days*24
	if hours >= 24 {
		hours = 0
		days++
	}
	date := c.Date().AddDate(0, 0, int(days))
	return SimClock{
		Year:           date.Year(),
		Month:          date.Month(),
		Day:            date.Day(),
		TimeOfDayHours: hours,
	}
}

// WithTimeOfDay returns a copy set to the given hours on the same date
func (c SimClock) WithTimeOfDay(hours float64) SimClock {
	c.TimeOfDayHours = hours
	return c
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(math.Round(hours * float64(time.Hour)))
}
