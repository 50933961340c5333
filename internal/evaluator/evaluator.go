// Package evaluator scores candidate plans against effort-band budgets and
// quality heuristics.
//
// Evaluate is pure: the same plan, band, resolution type and requirements
// always produce the same Result. A failing Result carries repair
// instructions that the generator forwards to the proposer unchanged.
package evaluator

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/effort"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

// Scoring weights.
const (
	BaseScore        = 100
	BudgetPenalty    = 30
	VaguenessPenalty = 5
	CadencePenalty   = 5
	OverloadPenalty  = 15

	// PassScore is the minimum score of a plan with no budget violations.
	PassScore = 50
	// RelaxedPassScore is the minimum score of a plan with exactly one
	// budget violation.
	RelaxedPassScore = 60
)

// Thresholds used by the individual checks.
const (
	weeklyTolerance   = 1.2
	heavyTaskMin      = 15
	longTaskMin       = 60
	overlongTaskMin   = 120
	maxTaskMin        = 180
	maxLongTasks      = 2
	minTitleWords     = 3
	shortVagueTitle   = 20
	minDurationSlack  = 5
	durationSlackFrac = 0.2
)

// Repair directives, emitted in this order.
const (
	DirectiveBudget    = "Reduce total minutes to stay within the effort band budget."
	DirectiveVagueness = "Replace vague titles with concrete actions and measurable outputs."
	DirectiveCadence   = "Add repeating practice loops with clear cadence for habit/skill goals."
	DirectiveOverload  = "Limit excessively long sessions and spread tasks across days."
	DirectiveDefault   = "Adjust tasks to fit the effort band constraints."
)

var (
	allowedShortTerms = []string{"scale", "chapter", "report", "session"}
	vaguePhrases      = []string{"stuff", "do something", "try to"}
)

// referenceMonday anchors cadence expansion when a task has no scheduled day.
var referenceMonday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Result is the outcome of one evaluation. It is rebuilt on every pass.
type Result struct {
	Band                string   `json:"band"`
	WeeklyMinutes       []int    `json:"weekly_minutes"`
	MaxTasksPerDayWeek1 int      `json:"max_tasks_per_day_week1"`
	AvgTasksPerDayWeek1 float64  `json:"avg_tasks_per_day_week1"`
	VaguenessFlags      []string `json:"vagueness_flags"`
	CadenceIssues       []string `json:"cadence_issues"`
	BudgetViolations    []string `json:"budget_violations"`
	OverloadWarnings    []string `json:"overload_warnings"`
	Score               int      `json:"score"`
	Passed              bool     `json:"passed"`
	RepairInstructions  string   `json:"repair_instructions"`
}

// Summary projects the result onto the plan's evaluation summary.
func (r Result) Summary() *plan.EvaluationSummary {
	return &plan.EvaluationSummary{
		Score:            r.Score,
		Band:             r.Band,
		Passed:           r.Passed,
		BudgetViolations: len(r.BudgetViolations),
		VaguenessFlags:   len(r.VaguenessFlags),
		CadenceIssues:    len(r.CadenceIssues),
		OverloadWarnings: len(r.OverloadWarnings),
		WeeklyMinutes:    append([]int(nil), r.WeeklyMinutes...),
	}
}

// Violations returns every recorded issue, budget violations first.
func (r Result) Violations() []string {
	out := make([]string, 0, len(r.BudgetViolations)+len(r.VaguenessFlags)+len(r.CadenceIssues)+len(r.OverloadWarnings))
	out = append(out, r.BudgetViolations...)
	for _, v := range r.VaguenessFlags {
		out = append(out, fmt.Sprintf("Vague task title: %s", v))
	}
	out = append(out, r.CadenceIssues...)
	out = append(out, r.OverloadWarnings...)
	return out
}

// Evaluate scores p for the named band. Unknown bands are evaluated as
// medium.
func Evaluate(p *plan.Plan, bandName string, resolutionType goal.ResolutionType, req goal.Requirements) Result {
	band, budget := effort.BudgetFor(bandName)
	r := Result{
		Band:             string(band),
		VaguenessFlags:   []string{},
		CadenceIssues:    []string{},
		BudgetViolations: []string{},
		OverloadWarnings: []string{},
	}

	var week1 []plan.Task
	if p != nil {
		week1 = p.Week1Tasks
	}

	r.WeeklyMinutes = weeklyMinutes(p)
	allowed := float64(budget.WeeklyMinutes) * weeklyTolerance
	for _, minutes := range r.WeeklyMinutes {
		if float64(minutes) > allowed {
			r.BudgetViolations = append(r.BudgetViolations,
				fmt.Sprintf("Week budget exceeded (%d min > %d min).", minutes, int(allowed)))
		}
	}

	r.MaxTasksPerDayWeek1, r.AvgTasksPerDayWeek1 = tasksPerDay(week1)
	if r.MaxTasksPerDayWeek1 > budget.TasksPerDay.Hi {
		r.BudgetViolations = append(r.BudgetViolations,
			fmt.Sprintf("Week1 tasks/day exceeded (%d > %d).", r.MaxTasksPerDayWeek1, budget.TasksPerDay.Hi))
	}

	for _, t := range week1 {
		if isVague(t.Title) {
			r.VaguenessFlags = append(r.VaguenessFlags, displayTitle(t.Title, "Untitled task"))
		}
	}

	r.CadenceIssues = append(r.CadenceIssues, cadenceIssues(week1, resolutionType, req)...)
	r.OverloadWarnings = append(r.OverloadWarnings, overloadWarnings(week1, band, resolutionType)...)

	r.Score = score(r)
	violations := len(r.BudgetViolations)
	r.Passed = (violations == 0 && r.Score >= PassScore) ||
		(violations == 1 && r.Score >= RelaxedPassScore)
	if !r.Passed {
		r.RepairInstructions = repairInstructions(r)
	}
	return r
}

func score(r Result) int {
	s := BaseScore
	s -= BudgetPenalty * len(r.BudgetViolations)
	s -= VaguenessPenalty * len(r.VaguenessFlags)
	s -= CadencePenalty * len(r.CadenceIssues)
	s -= OverloadPenalty * len(r.OverloadWarnings)
	return max(s, 0)
}

func repairInstructions(r Result) string {
	var parts []string
	if len(r.BudgetViolations) > 0 {
		parts = append(parts, DirectiveBudget)
	}
	if len(r.VaguenessFlags) > 0 {
		parts = append(parts, DirectiveVagueness)
	}
	if len(r.CadenceIssues) > 0 {
		parts = append(parts, DirectiveCadence)
	}
	if len(r.OverloadWarnings) > 0 {
		parts = append(parts, DirectiveOverload)
	}
	if len(parts) == 0 {
		return DirectiveDefault
	}
	return strings.Join(parts, " ")
}

func duration(t plan.Task) int {
	if t.DurationMin <= 0 {
		return plan.DefaultDurationMin
	}
	return t.DurationMin
}

// weeklyMinutes weights each task by how often its cadence fires.
func weeklyMinutes(p *plan.Plan) []int {
	if p == nil {
		return []int{0}
	}
	sum := func(tasks []plan.Task) int {
		total := 0
		for _, t := range tasks {
			total += duration(t) * t.Cadence.Occurrences()
		}
		return total
	}
	if len(p.Weeks) == 0 {
		return []int{sum(p.Week1Tasks)}
	}
	out := make([]int, 0, len(p.Weeks))
	for _, w := range p.Weeks {
		if w.Week == 1 {
			out = append(out, sum(p.Week1Tasks))
			continue
		}
		out = append(out, sum(w.Tasks))
	}
	return out
}

// tasksPerDay counts heavy week-one tasks per day bucket. Scheduled days win;
// otherwise the cadence is laid onto a reference week. Flex and one-off
// tasks share a bucket of their own.
func tasksPerDay(tasks []plan.Task) (int, float64) {
	counts := make(map[string]int)
	for _, t := range tasks {
		if duration(t) < heavyTaskMin {
			continue
		}
		if t.Day != "" {
			counts[t.Day]++
			continue
		}
		if d, ok := cadence.ParseWeekday(t.DayHint); ok {
			counts[d.String()]++
			continue
		}
		switch t.Cadence.Kind {
		case cadence.Daily, cadence.XPerWeek, cadence.SpecificDays:
			for _, d := range cadence.Expand(t.Cadence, referenceMonday, true) {
				counts[d.Weekday().String()]++
			}
		default:
			counts["flex"]++
		}
	}
	if len(counts) == 0 {
		return 0, 0
	}
	maxCount, total := 0, 0
	for _, n := range counts {
		total += n
		maxCount = max(maxCount, n)
	}
	avg := float64(total) / float64(len(counts))
	return maxCount, math.Round(avg*100) / 100
}

func isVague(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if len(strings.Fields(t)) < minTitleWords && !containsAny(t, allowedShortTerms) {
		return true
	}
	for _, phrase := range vaguePhrases {
		if t == phrase || (strings.Contains(t, phrase) && len(t) < shortVagueTitle) {
			return true
		}
	}
	return false
}

func cadenceIssues(tasks []plan.Task, resolutionType goal.ResolutionType, req goal.Requirements) []string {
	var issues []string
	if resolutionType.NeedsPracticeLoop() {
		repeating, allFlex := false, true
		for _, t := range tasks {
			if t.Cadence.IsRepeating() {
				repeating = true
			}
			if !isFlex(t.Cadence) {
				allFlex = false
			}
		}
		if !repeating {
			issues = append(issues, "Needs a repeating practice loop in Week 1.")
		}
		if allFlex {
			issues = append(issues, "Too many flex cadences for habit/skill goal.")
		}
	}

	if activity := strings.ToLower(strings.TrimSpace(req.Activity)); activity != "" {
		terms := req.MatchTerms()
		found := false
		for _, t := range tasks {
			haystack := strings.ToLower(t.Title + " " + t.Intent)
			if containsAny(haystack, terms) {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, fmt.Sprintf("Week 1 tasks must include %s.", activity))
		}
	}

	if target := req.TargetDurationMin; target > 0 {
		tolerance := max(minDurationSlack, int(float64(target)*durationSlackFrac))
		found := false
		for _, t := range tasks {
			if abs(duration(t)-target) <= tolerance {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, fmt.Sprintf("Missing session near requested duration (~%d min).", target))
		}
	}
	return issues
}

func overloadWarnings(tasks []plan.Task, band effort.Band, resolutionType goal.ResolutionType) []string {
	var warnings []string
	longTasks := 0
	relaxed := band == effort.Intense || resolutionType == goal.TypeProject || resolutionType == goal.TypeWork
	for _, t := range tasks {
		d := duration(t)
		title := displayTitle(t.Title, "Task")
		switch {
		case d > overlongTaskMin && !relaxed:
			warnings = append(warnings, fmt.Sprintf("%s is too long (%d min).", title, d))
		case d > maxTaskMin:
			warnings = append(warnings, fmt.Sprintf("%s exceeds 3 hours.", title))
		}
		if d > longTaskMin {
			longTasks++
		}
	}
	if band == effort.Medium && longTasks > maxLongTasks {
		warnings = append(warnings, "Too many long tasks (>60 min) in Week 1 for medium band.")
	}
	return warnings
}

func isFlex(s cadence.Spec) bool {
	return s.Kind == cadence.Flex || s.IsZero()
}

func displayTitle(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
