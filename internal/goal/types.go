package goal

import (
	"strings"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
)

// ResolutionType is the coarse category of a goal.
type ResolutionType string

// Resolution types.
const (
	TypeHabit    ResolutionType = "habit"
	TypeProject  ResolutionType = "project"
	TypeLearning ResolutionType = "learning"
	TypeHealth   ResolutionType = "health"
	TypeFinance  ResolutionType = "finance"
	TypeSkill    ResolutionType = "skill"
	TypeWork     ResolutionType = "work"
	TypeOther    ResolutionType = "other"
)

// ParseType resolves a type name. Unknown or empty names resolve to other.
func ParseType(name string) ResolutionType {
	switch t := ResolutionType(strings.ToLower(strings.TrimSpace(name))); t {
	case TypeHabit, TypeProject, TypeLearning, TypeHealth, TypeFinance, TypeSkill, TypeWork:
		return t
	default:
		return TypeOther
	}
}

// NeedsPracticeLoop reports whether plans for this type must contain a
// repeating task.
func (t ResolutionType) NeedsPracticeLoop() bool {
	switch t {
	case TypeSkill, TypeLearning, TypeHabit, TypeHealth:
		return true
	default:
		return false
	}
}

// Requirements are the structured hints derived from goal text.
type Requirements struct {
	// Activity is the canonical name of the primary activity, e.g. "run".
	Activity string `json:"activity,omitempty"`

	// Keywords are the terms a task must mention to count as practising
	// Activity.
	Keywords []string `json:"keywords,omitempty"`

	SecondaryFocuses []string `json:"secondary_focuses,omitempty"`

	// TargetDurationMin is the requested session length; zero means unset.
	TargetDurationMin int `json:"target_duration_min,omitempty"`

	TargetFrequency *cadence.Spec `json:"target_frequency,omitempty"`
}

// IsZero reports whether nothing was extracted.
func (r Requirements) IsZero() bool {
	return r.Activity == "" && len(r.SecondaryFocuses) == 0 &&
		r.TargetDurationMin == 0 && r.TargetFrequency == nil
}

// MatchTerms returns the terms used to detect the activity in task text.
func (r Requirements) MatchTerms() []string {
	if len(r.Keywords) > 0 {
		return r.Keywords
	}
	return strings.Fields(strings.ToLower(r.Activity))
}
