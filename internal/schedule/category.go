package schedule

import (
	"strings"

	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

// Domain separates tasks done during work from personal ones.
type Domain string

// Domains.
const (
	DomainWork     Domain = "work"
	DomainPersonal Domain = "personal"
)

// Category is the scheduling class of a task.
type Category struct {
	Name           string
	Domain         Domain
	Default        Clock
	PrefersWeekend bool
}

// Known categories.
var (
	Mindfulness = Category{Name: "mindfulness", Domain: DomainPersonal, Default: At(6, 30)}
	Fitness     = Category{Name: "fitness", Domain: DomainPersonal, Default: At(7, 0)}
	Finance     = Category{Name: "finance", Domain: DomainPersonal, Default: At(19, 0), PrefersWeekend: true}
	Admin       = Category{Name: "admin", Domain: DomainPersonal, Default: At(10, 30), PrefersWeekend: true}
	Social      = Category{Name: "social", Domain: DomainPersonal, Default: At(11, 0), PrefersWeekend: true}
	Learning    = Category{Name: "learning", Domain: DomainPersonal, Default: At(19, 30)}
	Reflection  = Category{Name: "reflection", Domain: DomainPersonal, Default: At(20, 30)}
	Work        = Category{Name: "work", Domain: DomainWork, Default: At(10, 0)}
	General     = Category{Name: "general", Domain: DomainPersonal, Default: At(18, 0)}
)

type categoryRule struct {
	category Category
	keywords []string
}

// categoryRules are matched in order against title and intent.
var categoryRules = []categoryRule{
	{Mindfulness, []string{"meditat", "mindful", "breath", "yoga"}},
	{Fitness, []string{"run", "jog", "walk", "gym", "workout", "strength", "swim", "cycle", "bike", "stretch", "mobility", "exercise", "hike", "lift", "cardio", "steps"}},
	{Finance, []string{"budget", "saving", "expense", "spending", "bill", "invest", "finance", "money", "transfer", "debt"}},
	{Admin, []string{"declutter", "clean", "tidy", "errand", "laundry", "chore", "groceries", "meal prep"}},
	{Social, []string{"friend", "family", "visit", "outdoor", "park", "nature", "date night"}},
	{Learning, []string{"read", "study", "learn", "practice", "course", "chapter", "lesson", "language", "vocabulary", "guitar", "piano", "code", "coding", "flashcard"}},
	{Reflection, []string{"journal", "reflect", "review", "gratitude", "plan tomorrow", "retro", "check-in"}},
	{Work, []string{"meeting", "client", "office", "standup", "stand-up", "inbox", "manager", "colleague", "work block", "at work"}},
}

// peakOverrides moves categories toward the user's peak energy window.
var peakOverrides = map[Energy]map[string]Clock{
	EnergyMorning: {
		"learning": At(7, 30),
	},
	EnergyAfternoon: {
		"fitness":  At(17, 30),
		"learning": At(17, 30),
	},
	EnergyEvening: {
		"fitness":     At(18, 30),
		"mindfulness": At(21, 0),
		"learning":    At(20, 0),
	},
}

// Classify chooses a category from the task's title and intent.
func Classify(t plan.Task) Category {
	text := strings.ToLower(t.Title + " " + t.Intent)
	for _, rule := range categoryRules {
		for _, k := range rule.keywords {
			if hasWordPrefix(text, k) {
				return rule.category
			}
		}
	}
	return General
}

// defaultFor applies the profile's peak energy to a category default.
func defaultFor(c Category, p Profile) Clock {
	if byName, ok := peakOverrides[p.PeakEnergy]; ok {
		if clock, ok := byName[c.Name]; ok {
			return clock
		}
	}
	return c.Default
}

// textHint maps phrases in task text onto times of day. Phrases are checked
// in order so "after work" wins over "work".
type textHint struct {
	phrase string
	clock  func(Profile) Clock
}

var textHints = []textHint{
	{"before work", func(p Profile) Clock { return (p.WorkStart - 60).Wrap() }},
	{"after work", func(p Profile) Clock { return p.WorkEnd + 30 }},
	{"lunch", func(Profile) Clock { return At(12, 15) }},
	{"sunrise", func(Profile) Clock { return At(6, 30) }},
	{"morning", func(Profile) Clock { return At(7, 30) }},
	{"afternoon", func(Profile) Clock { return At(15, 0) }},
	{"evening", func(Profile) Clock { return At(19, 0) }},
	{"bedtime", func(Profile) Clock { return At(21, 30) }},
	{"night", func(Profile) Clock { return At(21, 0) }},
}

// hintTime resolves an explicit time hint. The second result is false when
// the text carries no hint.
func hintTime(hint, text string, p Profile) (Clock, bool) {
	if hint != "" {
		if c, err := ParseClock(hint); err == nil {
			return c, true
		}
	}
	lowered := strings.ToLower(hint + " " + text)
	for _, h := range textHints {
		if strings.Contains(lowered, h.phrase) {
			return h.clock(p), true
		}
	}
	return 0, false
}

func hasWordPrefix(s, k string) bool {
	for idx := 0; idx < len(s); {
		i := strings.Index(s[idx:], k)
		if i < 0 {
			return false
		}
		at := idx + i
		if at == 0 || !isAlnum(s[at-1]) {
			return true
		}
		idx = at + 1
	}
	return false
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
