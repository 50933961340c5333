package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowplan/internal/logging"
)

// Enforcer corrects assignments that violate the availability profile.
// Assignments that already respect the profile are left untouched, and a
// correction that would break the load rules is skipped.
type Enforcer struct {
	profile Profile
	logger  *logging.Logger
}

// NewEnforcer returns an enforcer for the profile. A nil logger discards
// output.
func NewEnforcer(profile Profile, logger *logging.Logger) *Enforcer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enforcer{profile: profile.WithDefaults(), logger: logger}
}

// Apply returns a corrected copy of assignments.
func (e *Enforcer) Apply(ctx context.Context, assignments []Assignment) []Assignment {
	out := append([]Assignment(nil), assignments...)
	for i := range out {
		if out[i].Category.Domain == DomainWork {
			e.enforceWork(ctx, out, i)
			continue
		}
		e.enforcePersonal(ctx, out, i)
	}
	return out
}

func (e *Enforcer) enforceWork(ctx context.Context, all []Assignment, i int) {
	a := &all[i]
	book := ledgerOf(all, i)
	moved := false

	if !e.profile.IsWorkDay(a.Date.Weekday()) {
		if day, ok := e.shift(book, a.Occurrence, a.Date, e.profile.IsWorkDay); ok {
			e.logger.Debug(ctx, "moved work task onto a work day",
				zap.String("task", a.Title),
				zap.String("from", a.Date.Format("2006-01-02")),
				zap.String("to", day.Format("2006-01-02")))
			a.Date = day
			moved = true
		} else {
			e.logger.Warn(ctx, "no work day fits the load rules, keeping assigned day",
				zap.String("task", a.Title),
				zap.String("date", a.Date.Format("2006-01-02")))
		}
	}

	lo := e.profile.WorkStart
	hi := e.profile.WorkEnd - Clock(a.DurationMin)
	if hi < lo {
		hi = lo
	}
	clamped := min(max(a.Time, lo), hi)
	if !moved && clamped == a.Time {
		return
	}
	clock, ok := book.freeTimeWithin(a.Date, clamped, lo, hi)
	a.Time = clock
	a.TimeForced = !ok
}

func (e *Enforcer) enforcePersonal(ctx context.Context, all []Assignment, i int) {
	a := &all[i]
	book := ledgerOf(all, i)
	moved := false

	if a.Category.PrefersWeekend && !isWeekend(a.Date.Weekday()) {
		if day, ok := e.shift(book, a.Occurrence, a.Date, isSaturday); ok {
			e.logger.Debug(ctx, "moved weekend task onto saturday",
				zap.String("task", a.Title),
				zap.String("from", a.Date.Format("2006-01-02")),
				zap.String("to", day.Format("2006-01-02")))
			a.Date = day
			moved = true
		} else {
			e.logger.Warn(ctx, "no saturday fits the load rules, keeping weekday",
				zap.String("task", a.Title),
				zap.String("date", a.Date.Format("2006-01-02")))
		}
	}

	desired := a.Time
	if e.profile.StrictWorkMode && e.profile.IsWorkDay(a.Date.Weekday()) && e.profile.InWorkHours(a.Time) {
		desired = e.profile.AfterWork()
	}
	if !moved && desired == a.Time {
		return
	}
	clock, ok := book.freeTime(a.Date, desired)
	a.Time = clock
	a.TimeForced = !ok
}

func isSaturday(d time.Weekday) bool { return d == time.Saturday }

// shift scans forward from the day after from for a day accepted by want
// that also keeps the load rules.
func (e *Enforcer) shift(book *ledger, o Occurrence, from time.Time, want func(time.Weekday) bool) (time.Time, bool) {
	for k := 1; k <= SearchDays; k++ {
		day := from.AddDate(0, 0, k)
		if want(day.Weekday()) && book.fits(o, day) {
			return day, true
		}
	}
	return time.Time{}, false
}
