package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of a day in minutes.
const MinutesPerDay = 24 * 60

// ErrInvalidClock is returned for unparseable times of day.
var ErrInvalidClock = errors.New("invalid time of day")

// Clock is a time of day in minutes since midnight.
type Clock int

var clockPattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

// At builds a Clock from hours and minutes.
func At(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock reads "HH:MM", "H:MM", "7am" or "7:30 pm".
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "":
		if m[2] == "" {
			// A bare number such as "7" is too ambiguous to schedule.
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return At(hour, minute), nil
}

// Wrap folds c into a single day.
func (c Clock) Wrap() Clock {
	v := int(c) % MinutesPerDay
	if v < 0 {
		v += MinutesPerDay
	}
	return Clock(v)
}

// Add returns c shifted by minutes, wrapped into a single day.
func (c Clock) Add(minutes int) Clock {
	return (c + Clock(minutes)).Wrap()
}

func (c Clock) String() string {
	w := c.Wrap()
	return fmt.Sprintf("%02d:%02d", int(w)/60, int(w)%60)
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
