// Package cadence models how often a task recurs within a week.
//
// Proposers describe recurrence in many shapes: free strings ("twice per
// week", "3x", "weekdays"), maps with inconsistent keys ({"type":
// "x_per_week", "times_per_week": 3}) or synonyms such as "2x_per_week".
// All of them are funnelled through Normalize into a single tagged union,
// Spec, which the evaluator and scheduler consume.
package cadence

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind is the variant tag of a Spec.
type Kind string

// Cadence kinds.
const (
	Daily        Kind = "daily"
	XPerWeek     Kind = "x_per_week"
	SpecificDays Kind = "specific_days"
	Once         Kind = "once"
	Flex         Kind = "flex"
)

// MaxCount is the largest number of occurrences a week can hold.
const MaxCount = 7

// Spec is the canonical recurrence descriptor.
//
// Count is only meaningful for XPerWeek and Days only for SpecificDays.
// Specs built through Normalize or the constructors always carry a Count in
// [1, MaxCount] and a de-duplicated, Monday-first ordered Days list.
type Spec struct {
	Kind  Kind
	Count int
	Days  []time.Weekday
}

// NewDaily returns a daily cadence.
func NewDaily() Spec { return Spec{Kind: Daily} }

// NewOnce returns a one-off cadence.
func NewOnce() Spec { return Spec{Kind: Once} }

// NewFlex returns an unconstrained cadence.
func NewFlex() Spec { return Spec{Kind: Flex} }

// NewPerWeek returns an n-times-per-week cadence. Counts below one are
// unusable and resolve to flex; counts above seven are clamped.
func NewPerWeek(n int) Spec {
	if n < 1 {
		return NewFlex()
	}
	return Spec{Kind: XPerWeek, Count: clampCount(n)}
}

// NewDays returns a specific-days cadence. An empty day list resolves to flex.
func NewDays(days ...time.Weekday) Spec {
	ordered := orderDays(days)
	if len(ordered) == 0 {
		return NewFlex()
	}
	return Spec{Kind: SpecificDays, Days: ordered}
}

// IsZero reports whether s was never set.
func (s Spec) IsZero() bool {
	return s.Kind == ""
}

// Occurrences returns how many times the cadence fires in one week.
func (s Spec) Occurrences() int {
	switch s.Kind {
	case Daily:
		return 7
	case XPerWeek:
		return clampCount(s.Count)
	case SpecificDays:
		if len(s.Days) == 0 {
			return 1
		}
		return len(s.Days)
	default:
		return 1
	}
}

// IsRepeating reports whether the cadence forms a practice loop: daily, or at
// least five occurrences per week.
func (s Spec) IsRepeating() bool {
	switch s.Kind {
	case Daily:
		return true
	case XPerWeek:
		return s.Count >= 5
	case SpecificDays:
		return len(s.Days) >= 5
	default:
		return false
	}
}

// String renders the cadence the way it is shown to users.
func (s Spec) String() string {
	switch s.Kind {
	case Daily:
		return "daily"
	case XPerWeek:
		return fmt.Sprintf("%dx per week", clampCount(s.Count))
	case SpecificDays:
		names := make([]string, 0, len(s.Days))
		for _, d := range s.Days {
			names = append(names, d.String())
		}
		return "Specific days: " + strings.Join(names, ", ")
	case Once:
		return "once"
	default:
		return "flexible"
	}
}

// Equal reports whether two specs describe the same recurrence.
func (s Spec) Equal(o Spec) bool {
	if s.Kind != o.Kind || s.Count != o.Count || len(s.Days) != len(o.Days) {
		return false
	}
	for i := range s.Days {
		if s.Days[i] != o.Days[i] {
			return false
		}
	}
	return true
}

type specJSON struct {
	Type  Kind     `json:"type"`
	Count int      `json:"count,omitempty"`
	Days  []string `json:"days,omitempty"`
	Label string   `json:"label,omitempty"`
}

// MarshalJSON encodes the canonical form plus the rendered label.
func (s Spec) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		s = NewFlex()
	}
	out := specJSON{Type: s.Kind, Label: s.String()}
	if s.Kind == XPerWeek {
		out.Count = s.Count
	}
	for _, d := range s.Days {
		out.Days = append(out.Days, strings.ToLower(d.String()))
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any raw form Normalize understands.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding cadence: %w", err)
	}
	*s = Normalize(raw)
	return nil
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

// mondayIndex maps a weekday onto a Monday-first index.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func orderDays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return mondayIndex(out[i]) < mondayIndex(out[j])
	})
	return out
}
