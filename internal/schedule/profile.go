package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/config"
)

// Energy marks when the user feels most productive.
type Energy string

// Peak energy markers.
const (
	EnergyMorning   Energy = "morning"
	EnergyAfternoon Energy = "afternoon"
	EnergyEvening   Energy = "evening"
)

// Latest time personal sessions are pushed to before wrapping to the
// morning.
var latestPersonal = At(22, 0)

// Weekdays is a weekday list encoded as lower-case names.
type Weekdays []time.Weekday

// MarshalJSON encodes day names.
func (w Weekdays) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(w))
	for _, d := range w {
		names = append(names, strings.ToLower(d.String()))
	}
	return json.Marshal(names)
}

// UnmarshalJSON accepts day names, abbreviations or ISO numbers
// (1 = Monday ... 7 = Sunday).
func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding weekdays: %w", err)
	}
	out := make(Weekdays, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			d, ok := cadence.ParseWeekday(v)
			if !ok {
				return fmt.Errorf("decoding weekdays: unknown day %q", v)
			}
			out = append(out, d)
		case float64:
			if v < 0 || v > 7 {
				return fmt.Errorf("decoding weekdays: day %v out of range", v)
			}
			out = append(out, time.Weekday(int(v)%7))
		default:
			return fmt.Errorf("decoding weekdays: unsupported value %v", v)
		}
	}
	*w = out
	return nil
}

// Profile is a user's availability.
type Profile struct {
	WorkDays       Weekdays `json:"work_days"`
	WorkStart      Clock    `json:"work_start"`
	WorkEnd        Clock    `json:"work_end"`
	PeakEnergy     Energy   `json:"peak_energy"`
	StrictWorkMode bool     `json:"strict_work_mode"`
}

// DefaultProfile is Monday to Friday, 09:00 to 17:00, with a morning peak.
func DefaultProfile() Profile {
	return Profile{
		WorkDays:   Weekdays{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		WorkStart:  At(9, 0),
		WorkEnd:    At(17, 0),
		PeakEnergy: EnergyMorning,
	}
}

// WithDefaults fills unset or inconsistent fields from DefaultProfile.
func (p Profile) WithDefaults() Profile {
	def := DefaultProfile()
	if len(p.WorkDays) == 0 {
		p.WorkDays = def.WorkDays
	}
	if p.WorkEnd <= p.WorkStart {
		p.WorkStart, p.WorkEnd = def.WorkStart, def.WorkEnd
	}
	switch p.PeakEnergy {
	case EnergyMorning, EnergyAfternoon, EnergyEvening:
	default:
		p.PeakEnergy = def.PeakEnergy
	}
	return p
}

// ProfileFromSettings converts the configured default availability. Empty
// fields take DefaultProfile values.
func ProfileFromSettings(s config.AvailabilityConfig) (Profile, error) {
	p := Profile{StrictWorkMode: s.StrictWorkMode, PeakEnergy: Energy(strings.ToLower(s.PeakEnergy))}
	for _, name := range s.WorkDays {
		d, ok := cadence.ParseWeekday(name)
		if !ok {
			return Profile{}, fmt.Errorf("availability: unknown work day %q", name)
		}
		p.WorkDays = append(p.WorkDays, d)
	}
	var err error
	if s.WorkStart != "" {
		if p.WorkStart, err = ParseClock(s.WorkStart); err != nil {
			return Profile{}, fmt.Errorf("availability work_start: %w", err)
		}
	}
	if s.WorkEnd != "" {
		if p.WorkEnd, err = ParseClock(s.WorkEnd); err != nil {
			return Profile{}, fmt.Errorf("availability work_end: %w", err)
		}
	}
	if p.PeakEnergy != "" && p.PeakEnergy != EnergyMorning && p.PeakEnergy != EnergyAfternoon && p.PeakEnergy != EnergyEvening {
		return Profile{}, fmt.Errorf("availability: unknown peak energy %q", s.PeakEnergy)
	}
	if s.WorkStart == "" || s.WorkEnd == "" {
		def := DefaultProfile()
		if s.WorkStart == "" {
			p.WorkStart = def.WorkStart
		}
		if s.WorkEnd == "" {
			p.WorkEnd = def.WorkEnd
		}
	}
	if p.WorkEnd <= p.WorkStart {
		return Profile{}, fmt.Errorf("availability: work_end %s is not after work_start %s", p.WorkEnd, p.WorkStart)
	}
	return p.WithDefaults(), nil
}

// IsWorkDay reports whether d is one of the declared working weekdays.
func (p Profile) IsWorkDay(d time.Weekday) bool {
	for _, w := range p.WorkDays {
		if w == d {
			return true
		}
	}
	return false
}

// InWorkHours reports whether c falls inside [WorkStart, WorkEnd).
func (p Profile) InWorkHours(c Clock) bool {
	return c >= p.WorkStart && c < p.WorkEnd
}

// AfterWork returns the first personal slot once work ends, wrapping to an
// hour before work starts when that would run past 22:00.
func (p Profile) AfterWork() Clock {
	c := p.WorkEnd + 60
	if c > latestPersonal {
		return (p.WorkStart - 60).Wrap()
	}
	return c
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
