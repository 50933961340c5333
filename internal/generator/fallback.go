package generator

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/effort"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

//go:embed templates.toml
var templatesTOML []byte

// maxFallbackTasks bounds the week-one task list of a fallback plan.
const maxFallbackTasks = 4

// minScaledDuration is the shortest session budget scaling may produce.
const minScaledDuration = 5

// ErrNoTemplate is returned when no template exists for a resolution type.
var ErrNoTemplate = errors.New("no fallback template")

type taskTemplate struct {
	Title       string `toml:"title"`
	Intent      string `toml:"intent"`
	DurationMin int    `toml:"duration_min"`
	Cadence     string `toml:"cadence"`
	DayHint     string `toml:"day_hint"`
	TimeHint    string `toml:"time_hint"`
	Primary     bool   `toml:"primary"`
}

type milestoneTemplate struct {
	Focus   string   `toml:"focus"`
	Success []string `toml:"success"`
}

type typeTemplate struct {
	Rationale  string              `toml:"rationale"`
	Milestones []milestoneTemplate `toml:"milestones"`
	Tasks      []taskTemplate      `toml:"tasks"`
}

// Templates is the decoded fallback content. It is read-only once loaded.
type Templates struct {
	Aliases     map[string]string         `toml:"aliases"`
	Types       map[string]typeTemplate   `toml:"types"`
	Specialties map[string][]taskTemplate `toml:"specialties"`
	Consistency map[string]taskTemplate   `toml:"consistency"`
}

var defaultTemplates = mustLoadTemplates(templatesTOML)

// DefaultTemplates returns the embedded template set.
func DefaultTemplates() *Templates { return defaultTemplates }

// LoadTemplates decodes a template set and checks that the "other" type,
// used for unknown resolution types, is present.
func LoadTemplates(data []byte) (*Templates, error) {
	var t Templates
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}
	other, ok := t.Types[string(goal.TypeOther)]
	if !ok || len(other.Tasks) == 0 || len(other.Milestones) == 0 {
		return nil, fmt.Errorf("%w: type %q", ErrNoTemplate, goal.TypeOther)
	}
	return &t, nil
}

func mustLoadTemplates(data []byte) *Templates {
	t, err := LoadTemplates(data)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Templates) typeFor(rt goal.ResolutionType) (typeTemplate, error) {
	name := string(rt)
	if alias, ok := t.Aliases[name]; ok {
		name = alias
	}
	if tt, ok := t.Types[name]; ok && len(tt.Tasks) > 0 && len(tt.Milestones) > 0 {
		return tt, nil
	}
	if tt, ok := t.Types[string(goal.TypeOther)]; ok && len(tt.Tasks) > 0 && len(tt.Milestones) > 0 {
		return tt, nil
	}
	return typeTemplate{}, fmt.Errorf("%w: type %q", ErrNoTemplate, rt)
}

// Milestones returns a milestone source for rt. Weeks past the end of the
// template repeat its last entry.
func (t *Templates) Milestones(rt goal.ResolutionType) plan.MilestoneSource {
	tt, err := t.typeFor(rt)
	if err != nil {
		return nil
	}
	return plan.MilestoneFunc(func(week int) plan.Milestone {
		m := tt.Milestones[min(max(week, 1)-1, len(tt.Milestones)-1)]
		return plan.Milestone{
			Week:            week,
			Focus:           m.Focus,
			SuccessCriteria: append([]string(nil), m.Success...),
		}
	})
}

// Fallback builds a deterministic plan for the request. Activity specialty
// tasks replace the type tasks when the goal names a known activity, and a
// consistency loop is added for practice goals that would otherwise have no
// repeating task. Week-one minutes are scaled down to the band's weekly
// budget.
func (t *Templates) Fallback(title string, rt goal.ResolutionType, band effort.Band, weeks int, req goal.Requirements) (*plan.Plan, error) {
	tt, err := t.typeFor(rt)
	if err != nil {
		return nil, err
	}
	vars := strings.NewReplacer("{title}", title, "{activity}", req.Activity)

	source := tt.Tasks
	if special, ok := t.Specialties[req.Activity]; ok && len(special) > 0 {
		source = special
	}

	tasks := make([]plan.Task, 0, maxFallbackTasks)
	for _, tmpl := range source {
		if len(tasks) == maxFallbackTasks {
			break
		}
		task := instantiate(tmpl, vars)
		if tmpl.Primary {
			applyTargets(&task, req)
		}
		tasks = append(tasks, task)
	}

	if rt.NeedsPracticeLoop() && !anyRepeating(tasks) {
		loop, ok := t.Consistency[string(rt)]
		if !ok {
			loop, ok = t.Consistency["default"]
		}
		if ok {
			if len(tasks) == maxFallbackTasks {
				tasks = tasks[:maxFallbackTasks-1]
			}
			tasks = append(tasks, instantiate(loop, vars))
		}
	}

	_, budget := effort.BudgetFor(string(band))
	fitBudget(tasks, budget.WeeklyMinutes)

	p := &plan.Plan{
		Title:          title,
		Rationale:      vars.Replace(tt.Rationale),
		DurationWeeks:  plan.ClampWeeks(weeks),
		Week1Tasks:     tasks,
		ResolutionType: string(rt),
	}
	p.Normalize(title, t.Milestones(rt))
	return p, nil
}

func instantiate(tmpl taskTemplate, vars *strings.Replacer) plan.Task {
	return plan.Task{
		Title:       vars.Replace(tmpl.Title),
		Intent:      vars.Replace(tmpl.Intent),
		DurationMin: tmpl.DurationMin,
		Cadence:     cadence.Normalize(tmpl.Cadence),
		RawCadence:  tmpl.Cadence,
		DayHint:     tmpl.DayHint,
		TimeHint:    tmpl.TimeHint,
		Confidence:  plan.ConfidenceHigh,
	}
}

// applyTargets moves the primary activity task onto the requested session
// length and frequency. Lengths are held to an hour so the template never
// produces a long session on its own.
func applyTargets(task *plan.Task, req goal.Requirements) {
	if req.TargetDurationMin > 0 {
		task.DurationMin = min(max(req.TargetDurationMin, 10), 60)
	}
	if req.TargetFrequency != nil && !req.TargetFrequency.IsZero() {
		task.Cadence = cadence.Normalize(*req.TargetFrequency)
		task.RawCadence = task.Cadence.String()
	}
}

func anyRepeating(tasks []plan.Task) bool {
	for _, t := range tasks {
		if t.Cadence.IsRepeating() {
			return true
		}
	}
	return false
}

// fitBudget scales durations so the week total stays within weekly minutes.
func fitBudget(tasks []plan.Task, weekly int) {
	total := 0
	for _, t := range tasks {
		total += t.DurationMin * t.Cadence.Occurrences()
	}
	if weekly <= 0 || total <= weekly {
		return
	}
	factor := float64(weekly) / float64(total)
	for i := range tasks {
		scaled := int(math.Floor(float64(tasks[i].DurationMin) * factor))
		tasks[i].DurationMin = max(scaled, minScaledDuration)
	}
}
