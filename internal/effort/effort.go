// Package effort holds the static effort band budget table.
//
// A band bounds how much time a plan may ask of a user: minutes per day,
// minutes per week and how many tasks may land on a single day. Lookups never
// fail; unknown band names resolve to Medium so the rest of the pipeline
// always has a budget to work against.
package effort

import "strings"

// Band is a named effort tier.
type Band string

// Known effort bands.
const (
	Light   Band = "light"
	Medium  Band = "medium"
	Intense Band = "intense"
)

// Range is an inclusive integer range.
type Range struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Lo && v <= r.Hi
}

// Budget describes the time budget of a band.
type Budget struct {
	MinutesPerDay Range `json:"minutes_per_day"`
	WeeklyMinutes int   `json:"weekly_minutes"`
	TasksPerDay   Range `json:"tasks_per_day"`
}

// budgets is read-only after package init.
var budgets = map[Band]Budget{
	Light: {
		MinutesPerDay: Range{Lo: 10, Hi: 30},
		WeeklyMinutes: 150,
		TasksPerDay:   Range{Lo: 1, Hi: 2},
	},
	Medium: {
		MinutesPerDay: Range{Lo: 20, Hi: 60},
		WeeklyMinutes: 300,
		TasksPerDay:   Range{Lo: 1, Hi: 3},
	},
	Intense: {
		MinutesPerDay: Range{Lo: 45, Hi: 120},
		WeeklyMinutes: 600,
		TasksPerDay:   Range{Lo: 2, Hi: 4},
	},
}

var rationales = map[Band]string{
	Light:   "Light effort keeps sessions short so the plan fits around a busy week.",
	Medium:  "Medium effort balances steady progress with room for rest days.",
	Intense: "Intense effort front-loads practice time for fast progress; watch recovery.",
}

// Parse normalises a band name. Unknown names resolve to Medium.
func Parse(name string) Band {
	b := Band(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := budgets[b]; ok {
		return b
	}
	return Medium
}

// BudgetFor returns the resolved band and its budget.
func BudgetFor(name string) (Band, Budget) {
	b := Parse(name)
	return b, budgets[b]
}

// Rationale returns the human-readable explanation attached to a plan.
func Rationale(b Band) string {
	return rationales[Parse(string(b))]
}

// Bands lists the known bands from lightest to heaviest.
func Bands() []Band {
	return []Band{Light, Medium, Intense}
}
