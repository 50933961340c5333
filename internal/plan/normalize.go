package plan

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
)

// MilestoneSource supplies a milestone for a week the proposer left out.
type MilestoneSource interface {
	Milestone(week int) Milestone
}

// MilestoneFunc adapts a function to MilestoneSource.
type MilestoneFunc func(week int) Milestone

// Milestone implements MilestoneSource.
func (f MilestoneFunc) Milestone(week int) Milestone { return f(week) }

// ClampWeeks bounds a week count to [MinWeeks, MaxWeeks]; unset counts
// resolve to DefaultWeeks.
func ClampWeeks(n int) int {
	switch {
	case n <= 0:
		return DefaultWeeks
	case n > MaxWeeks:
		return MaxWeeks
	default:
		return n
	}
}

// Normalize fills defaults so the plan satisfies the model invariants:
// a duration of 1 to 12 weeks, exactly one milestone and one section per
// week, and fully defaulted week-one tasks. title is used when the plan has
// none; src fills missing milestones and may be nil.
func (p *Plan) Normalize(title string, src MilestoneSource) {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = title
	}
	if p.DurationWeeks <= 0 {
		p.DurationWeeks = max(len(p.Milestones), len(p.Weeks))
	}
	p.DurationWeeks = ClampWeeks(p.DurationWeeks)

	p.Milestones = normalizeMilestones(p.Milestones, p.DurationWeeks, src)

	for i := range p.Week1Tasks {
		normalizeTask(&p.Week1Tasks[i])
	}
	p.Weeks = normalizeWeeks(p.Weeks, p.Milestones, p.DurationWeeks)
	for w := range p.Weeks {
		for i := range p.Weeks[w].Tasks {
			normalizeTask(&p.Weeks[w].Tasks[i])
		}
	}
	p.SyncWeekOne()
}

func normalizeMilestones(in []Milestone, weeks int, src MilestoneSource) []Milestone {
	byWeek := make(map[int]Milestone, len(in))
	for _, m := range in {
		if m.Week < 1 || m.Week > weeks {
			continue
		}
		if _, dup := byWeek[m.Week]; dup {
			continue
		}
		byWeek[m.Week] = m
	}

	out := make([]Milestone, 0, weeks)
	for week := 1; week <= weeks; week++ {
		m, ok := byWeek[week]
		if !ok || strings.TrimSpace(m.Focus) == "" {
			m = defaultMilestone(week, src, m)
		}
		m.Week = week
		if len(m.SuccessCriteria) == 0 {
			m.SuccessCriteria = []string{fmt.Sprintf("Complete the planned week %d sessions", week)}
		}
		out = append(out, m)
	}
	return out
}

func defaultMilestone(week int, src MilestoneSource, partial Milestone) Milestone {
	var m Milestone
	if src != nil {
		m = src.Milestone(week)
	}
	if strings.TrimSpace(m.Focus) == "" {
		m.Focus = fmt.Sprintf("Week %d: keep momentum", week)
	}
	if len(partial.SuccessCriteria) > 0 {
		m.SuccessCriteria = partial.SuccessCriteria
	}
	return m
}

func normalizeWeeks(in []WeekSection, milestones []Milestone, weeks int) []WeekSection {
	byWeek := make(map[int]WeekSection, len(in))
	for _, w := range in {
		if w.Week < 1 || w.Week > weeks {
			continue
		}
		if _, dup := byWeek[w.Week]; dup {
			continue
		}
		byWeek[w.Week] = w
	}
	out := make([]WeekSection, 0, weeks)
	for week := 1; week <= weeks; week++ {
		w := byWeek[week]
		w.Week = week
		if strings.TrimSpace(w.Focus) == "" {
			w.Focus = milestones[week-1].Focus
		}
		out = append(out, w)
	}
	return out
}

func normalizeTask(t *Task) {
	t.Title = strings.TrimSpace(t.Title)
	t.Intent = strings.TrimSpace(t.Intent)
	if t.DurationMin <= 0 {
		t.DurationMin = DefaultDurationMin
	}
	if t.Cadence.IsZero() {
		t.Cadence = cadence.Normalize(t.RawCadence)
	}
	if t.Confidence == "" {
		t.Confidence = ConfidenceMedium
	}
}
