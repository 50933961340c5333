// Package schedule assigns expanded task occurrences to concrete days and
// times, then corrects the result against the user's availability.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
)

// Load rules.
const (
	// HeavyTaskMin is the duration from which a task counts toward the
	// per-day cap.
	HeavyTaskMin = 15
	// MaxHeavyPerDay caps heavy tasks on a single day.
	MaxHeavyPerDay = 2
	// LongTaskMin is the duration above which tasks need a rest day between
	// them.
	LongTaskMin = 60
	// SearchDays bounds the forward day search.
	SearchDays = 21
	// TimeCandidates is the number of 30-minute steps tried per day.
	TimeCandidates = 5
	// TimeStep is the distance between time candidates in minutes.
	TimeStep = 30
)

// Occurrence is one expanded instance of a task waiting for a slot.
type Occurrence struct {
	TaskIndex   int
	Title       string
	DurationMin int
	Target      time.Time
	Category    Category
	// TimeHint is the proposer's explicit time, e.g. "07:00" or "evening".
	TimeHint string
	// Text is searched for time phrases such as "after work".
	Text string
	Flex bool
}

// Heavy reports whether the occurrence counts toward the daily cap.
func (o Occurrence) Heavy() bool { return o.DurationMin >= HeavyTaskMin }

// Long reports whether the occurrence needs spacing from other long ones.
func (o Occurrence) Long() bool { return o.DurationMin > LongTaskMin }

// Assignment is an occurrence with its final day and time.
type Assignment struct {
	Occurrence
	Date time.Time
	Time Clock
	// Forced is set when no day within the search bound satisfied the load
	// rules and the target day was kept.
	Forced bool
	// TimeForced is set when every time candidate collided.
	TimeForced bool
}

// Scheduler places occurrences under the load rules.
type Scheduler struct {
	profile Profile
	logger  *logging.Logger
}

// NewScheduler returns a scheduler for the profile. A nil logger discards
// output.
func NewScheduler(profile Profile, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{profile: profile.WithDefaults(), logger: logger}
}

// Assign places occurrences in order. Every occurrence is assigned; when the
// rules cannot be met within the search bounds the original target day or
// default time is forced and a warning is logged.
func (s *Scheduler) Assign(ctx context.Context, occurrences []Occurrence) []Assignment {
	book := newLedger()
	out := make([]Assignment, 0, len(occurrences))
	for _, o := range occurrences {
		a := Assignment{Occurrence: o}
		target := cadence.Midnight(o.Target)

		day, ok := s.pickDay(book, o, target)
		if !ok {
			day = target
			a.Forced = true
			s.logger.Warn(ctx, "no day satisfies load rules, forcing target day",
				zap.String("task", o.Title),
				zap.String("date", day.Format("2006-01-02")),
				zap.Int("search_days", SearchDays))
		}
		a.Date = day

		base := s.defaultTime(o, day)
		clock, ok := book.freeTime(day, base)
		if !ok {
			clock = base
			a.TimeForced = true
			s.logger.Warn(ctx, "all time candidates taken, forcing default time",
				zap.String("task", o.Title),
				zap.String("date", day.Format("2006-01-02")),
				zap.Stringer("time", base))
		}
		a.Time = clock

		book.add(a)
		out = append(out, a)
	}
	return out
}

func (s *Scheduler) pickDay(book *ledger, o Occurrence, target time.Time) (time.Time, bool) {
	if o.Flex {
		if day, ok := s.pickFlexDay(book, o, target); ok {
			return day, true
		}
	}
	for i := 0; i < SearchDays; i++ {
		day := target.AddDate(0, 0, i)
		if book.fits(o, day) {
			return day, true
		}
	}
	return time.Time{}, false
}

// pickFlexDay spreads flex occurrences onto the least loaded day of the
// target week, earliest first on ties.
func (s *Scheduler) pickFlexDay(book *ledger, o Occurrence, weekStart time.Time) (time.Time, bool) {
	var best time.Time
	bestLoad := -1
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		if !book.fits(o, day) {
			continue
		}
		load := book.count(day)
		if bestLoad < 0 || load < bestLoad {
			best, bestLoad = day, load
		}
	}
	return best, bestLoad >= 0
}

// defaultTime derives the first time candidate for an occurrence on day.
// Explicit hints win; otherwise the category default applies, nudged to the
// evening when a personal task would land inside working hours.
func (s *Scheduler) defaultTime(o Occurrence, day time.Time) Clock {
	if c, ok := hintTime(o.TimeHint, o.Text, s.profile); ok {
		return c
	}
	c := defaultFor(o.Category, s.profile)
	if o.Category.Domain == DomainPersonal && s.profile.IsWorkDay(day.Weekday()) && s.profile.InWorkHours(c) {
		return s.profile.AfterWork()
	}
	return c
}

// ledger tracks per-day load while assigning.
type ledger struct {
	heavy map[time.Time]int
	long  map[time.Time]int
	all   map[time.Time]int
	times map[time.Time]map[Clock]int
}

func newLedger() *ledger {
	return &ledger{
		heavy: make(map[time.Time]int),
		long:  make(map[time.Time]int),
		all:   make(map[time.Time]int),
		times: make(map[time.Time]map[Clock]int),
	}
}

func ledgerOf(assignments []Assignment, skip int) *ledger {
	l := newLedger()
	for i, a := range assignments {
		if i != skip {
			l.add(a)
		}
	}
	return l
}

func (l *ledger) add(a Assignment) {
	day := cadence.Midnight(a.Date)
	l.all[day]++
	if a.Heavy() {
		l.heavy[day]++
	}
	if a.Long() {
		l.long[day]++
	}
	if l.times[day] == nil {
		l.times[day] = make(map[Clock]int)
	}
	l.times[day][a.Time]++
}

func (l *ledger) count(day time.Time) int { return l.all[day] }

// fits reports whether o can land on day without breaking the heavy cap or
// long-task spacing.
func (l *ledger) fits(o Occurrence, day time.Time) bool {
	if o.Heavy() && l.heavy[day] >= MaxHeavyPerDay {
		return false
	}
	if o.Long() {
		for _, d := range []time.Time{day.AddDate(0, 0, -1), day, day.AddDate(0, 0, 1)} {
			if l.long[d] > 0 {
				return false
			}
		}
	}
	return true
}

// freeTime tries base and the following 30-minute steps.
func (l *ledger) freeTime(day time.Time, base Clock) (Clock, bool) {
	used := l.times[day]
	for i := 0; i < TimeCandidates; i++ {
		c := base.Add(i * TimeStep)
		if used[c] == 0 {
			return c, true
		}
	}
	return base, false
}

// freeTimeWithin is freeTime restricted to [lo, hi]; candidates past hi
// continue from lo.
func (l *ledger) freeTimeWithin(day time.Time, base, lo, hi Clock) (Clock, bool) {
	used := l.times[day]
	c := base
	for i := 0; i < TimeCandidates; i++ {
		if c > hi || c < lo {
			c = lo
		}
		if used[c] == 0 {
			return c, true
		}
		c += TimeStep
	}
	return base, false
}
