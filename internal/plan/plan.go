// Package plan defines the multi-week plan model shared by the generator,
// the evaluator and the scheduler, plus tolerant decoding of proposer output.
package plan

import (
	"time"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
)

// Limits on plan duration in weeks.
const (
	MinWeeks     = 1
	MaxWeeks     = 12
	DefaultWeeks = 4
)

// DefaultDurationMin is assigned to tasks that arrive without a duration.
const DefaultDurationMin = 30

// DateLayout and TimeLayout format scheduled days and times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Confidence is the proposer's self-reported confidence in a task.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Source records which generation stage produced a plan.
type Source string

// Plan sources.
const (
	SourcePropose    Source = "propose"
	SourceRepair     Source = "repair"
	SourceRegenerate Source = "regenerate"
	SourceFallback   Source = "fallback"
	SourceCached     Source = "cached"
)

// Task is one proposed or templated task.
type Task struct {
	Title       string       `json:"title"`
	Intent      string       `json:"intent,omitempty"`
	DurationMin int          `json:"duration_min"`
	Cadence     cadence.Spec `json:"cadence"`
	// RawCadence keeps the cadence exactly as the proposer supplied it.
	RawCadence string     `json:"raw_cadence,omitempty"`
	DayHint    string     `json:"day_hint,omitempty"`
	TimeHint   string     `json:"time_hint,omitempty"`
	Day        string     `json:"day,omitempty"`
	Time       string     `json:"time,omitempty"`
	Confidence Confidence `json:"confidence,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// Scheduled reports whether the task has a resolved day, and a resolved time
// unless its cadence is flex.
func (t Task) Scheduled() bool {
	if t.Day == "" {
		return false
	}
	return t.Cadence.Kind == cadence.Flex || t.Time != ""
}

// Date parses Day in loc. The zero time is returned when Day is unset or
// malformed.
func (t Task) Date(loc *time.Location) time.Time {
	if t.Day == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, t.Day, loc)
	if err != nil {
		return time.Time{}
	}
	return d
}

// WeekSection groups the tasks of one plan week.
type WeekSection struct {
	Week  int    `json:"week"`
	Focus string `json:"focus"`
	Tasks []Task `json:"tasks"`
}

// Milestone is the focus and success criteria for one week.
type Milestone struct {
	Week            int      `json:"week"`
	Focus           string   `json:"focus"`
	SuccessCriteria []string `json:"success_criteria"`
}

// EvaluationSummary is the observability projection of an evaluation.
type EvaluationSummary struct {
	Score            int    `json:"score"`
	Band             string `json:"band"`
	Passed           bool   `json:"passed"`
	BudgetViolations int    `json:"budget_violations"`
	VaguenessFlags   int    `json:"vagueness_flags"`
	CadenceIssues    int    `json:"cadence_issues"`
	OverloadWarnings int    `json:"overload_warnings"`
	WeeklyMinutes    []int  `json:"weekly_minutes,omitempty"`
}

// Slot is one scheduled occurrence of a week-one task.
type Slot struct {
	TaskIndex   int    `json:"task_index"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Weekday     string `json:"weekday"`
	Time        string `json:"time"`
	DurationMin int    `json:"duration_min"`
	// Forced is set when no slot satisfied the load rules and the original
	// target was kept.
	Forced bool `json:"forced,omitempty"`
}

// Plan is a multi-week plan for one goal.
type Plan struct {
	ID             string             `json:"id,omitempty"`
	Title          string             `json:"title"`
	Rationale      string             `json:"rationale,omitempty"`
	DurationWeeks  int                `json:"duration_weeks"`
	Milestones     []Milestone        `json:"milestones"`
	Week1Tasks     []Task             `json:"week_1_tasks"`
	Weeks          []WeekSection      `json:"weeks"`
	Band           string             `json:"band,omitempty"`
	BandRationale  string             `json:"band_rationale,omitempty"`
	ResolutionType string             `json:"resolution_type,omitempty"`
	Evaluation     *EvaluationSummary `json:"evaluation,omitempty"`
	Schedule       []Slot             `json:"schedule,omitempty"`
	Source         Source             `json:"source,omitempty"`
}

// HasWeekOneTasks reports whether the plan carries concrete first-week tasks.
func (p *Plan) HasWeekOneTasks() bool {
	return p != nil && len(p.Week1Tasks) > 0
}

// TasksForWeek returns the tasks of the given 1-based week. Week one always
// reads Week1Tasks.
func (p *Plan) TasksForWeek(week int) []Task {
	if week == 1 {
		return p.Week1Tasks
	}
	for _, w := range p.Weeks {
		if w.Week == week {
			return w.Tasks
		}
	}
	return nil
}

// SyncWeekOne copies Week1Tasks into the week-one section.
func (p *Plan) SyncWeekOne() {
	tasks := cloneTasks(p.Week1Tasks)
	for i := range p.Weeks {
		if p.Weeks[i].Week == 1 {
			p.Weeks[i].Tasks = tasks
			return
		}
	}
	p.Weeks = append([]WeekSection{{Week: 1, Focus: p.milestoneFocus(1), Tasks: tasks}}, p.Weeks...)
}

func (p *Plan) milestoneFocus(week int) string {
	for _, m := range p.Milestones {
		if m.Week == week {
			return m.Focus
		}
	}
	return ""
}

// Clone returns a deep copy.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p
	out.Milestones = make([]Milestone, len(p.Milestones))
	for i, m := range p.Milestones {
		m.SuccessCriteria = append([]string(nil), m.SuccessCriteria...)
		out.Milestones[i] = m
	}
	out.Week1Tasks = cloneTasks(p.Week1Tasks)
	out.Weeks = make([]WeekSection, len(p.Weeks))
	for i, w := range p.Weeks {
		w.Tasks = cloneTasks(w.Tasks)
		out.Weeks[i] = w
	}
	if p.Evaluation != nil {
		ev := *p.Evaluation
		ev.WeeklyMinutes = append([]int(nil), p.Evaluation.WeeklyMinutes...)
		out.Evaluation = &ev
	}
	out.Schedule = append([]Slot(nil), p.Schedule...)
	return &out
}

func cloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		t.Cadence.Days = append([]time.Weekday(nil), t.Cadence.Days...)
		out[i] = t
	}
	return out
}
