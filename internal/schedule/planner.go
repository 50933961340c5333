package schedule

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

// Planner turns week-one tasks into scheduled slots.
type Planner struct {
	scheduler *Scheduler
	enforcer  *Enforcer
}

// NewPlanner returns a planner for the profile. A nil logger discards output.
func NewPlanner(profile Profile, logger *logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNop()
	}
	named := logger.Named("schedule")
	return &Planner{
		scheduler: NewScheduler(profile, named),
		enforcer:  NewEnforcer(profile, named),
	}
}

// PlanWeek expands each task's cadence over the week starting at weekStart,
// assigns every occurrence a day and time, applies availability rules and
// writes each task's first slot back to its Day and Time. The returned slots
// are ordered by date, time and task.
func (p *Planner) PlanWeek(ctx context.Context, tasks []plan.Task, weekStart time.Time) []plan.Slot {
	start := cadence.Midnight(weekStart)
	occurrences := Occurrences(tasks, start)
	assigned := p.enforcer.Apply(ctx, p.scheduler.Assign(ctx, occurrences))

	sort.SliceStable(assigned, func(i, j int) bool {
		a, b := assigned[i], assigned[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.TaskIndex < b.TaskIndex
	})

	slots := make([]plan.Slot, 0, len(assigned))
	written := make(map[int]bool, len(tasks))
	for _, a := range assigned {
		slot := plan.Slot{
			TaskIndex:   a.TaskIndex,
			Title:       a.Title,
			Date:        a.Date.Format(plan.DateLayout),
			Weekday:     a.Date.Weekday().String(),
			Time:        a.Time.String(),
			DurationMin: a.DurationMin,
			Forced:      a.Forced || a.TimeForced,
		}
		slots = append(slots, slot)
		if !written[a.TaskIndex] {
			tasks[a.TaskIndex].Day = slot.Date
			tasks[a.TaskIndex].Time = slot.Time
			written[a.TaskIndex] = true
		}
	}
	return slots
}

// Occurrences expands tasks into scheduler input. Tasks longer than an hour
// never repeat on consecutive days, so their daily cadence expands as three
// sessions a week. A weekday hint on a one-off or flex task pins its target.
// Long occurrences are ordered first so they claim spaced days before short
// ones fill in, and flex occurrences go last within each group.
func Occurrences(tasks []plan.Task, weekStart time.Time) []Occurrence {
	var out []Occurrence
	for i, t := range tasks {
		minutes := t.DurationMin
		if minutes <= 0 {
			minutes = plan.DefaultDurationMin
		}
		spec := t.Cadence
		if spec.IsZero() {
			spec = cadence.Normalize(t.RawCadence)
		}
		category := Classify(t)
		text := strings.Join([]string{t.Title, t.Intent, t.Note}, " ")
		flex := spec.Kind == cadence.Flex

		dates := cadence.Expand(spec, weekStart, minutes <= LongTaskMin)
		if spec.Kind == cadence.Flex || spec.Kind == cadence.Once {
			if d, ok := cadence.ParseWeekday(t.DayHint); ok {
				offset := (int(d) - int(weekStart.Weekday()) + 7) % 7
				dates = []time.Time{weekStart.AddDate(0, 0, offset)}
				flex = false
			}
		}

		for _, d := range dates {
			out = append(out, Occurrence{
				TaskIndex:   i,
				Title:       t.Title,
				DurationMin: minutes,
				Target:      d,
				Category:    category,
				TimeHint:    t.TimeHint,
				Text:        text,
				Flex:        flex,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Long() != out[j].Long() {
			return out[i].Long()
		}
		if out[i].Flex != out[j].Flex {
			return !out[i].Flex
		}
		if !out[i].Target.Equal(out[j].Target) {
			return out[i].Target.Before(out[j].Target)
		}
		return out[i].DurationMin > out[j].DurationMin
	})
	return out
}
