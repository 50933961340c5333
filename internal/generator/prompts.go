package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/flowplan/internal/effort"
	"github.com/fyrsmithlabs/flowplan/internal/evaluator"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

// SystemPrompt is sent with every proposer call.
const SystemPrompt = `You are a planning assistant that turns a personal goal into a realistic multi-week plan.
Respond with a single JSON object and nothing else. Use this shape:
{
  "title": string,
  "rationale": string,
  "duration_weeks": integer,
  "milestones": [{"week": integer, "focus": string, "success_criteria": [string]}],
  "week_1_tasks": [{
    "title": string,
    "intent": string,
    "duration_min": integer,
    "cadence": "daily" | "once" | "flex" | "<n>x per week" | {"type": "specific_days", "days": [string]},
    "day_hint": string,
    "time_hint": "HH:MM",
    "confidence": "low" | "medium" | "high",
    "note": string
  }],
  "weeks": [{"week": integer, "focus": string, "tasks": [same shape as week_1_tasks]}]
}
Every week from 1 to duration_weeks needs exactly one milestone. Titles must be concrete actions.`

// buildPrompt renders the initial proposal prompt.
func buildPrompt(req Request, band effort.Band, reqs goal.Requirements) string {
	_, budget := effort.BudgetFor(string(band))
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", strings.TrimSpace(req.GoalText))
	fmt.Fprintf(&b, "Title: %s\n", req.Title)
	fmt.Fprintf(&b, "Resolution type: %s\n", req.ResolutionType)
	fmt.Fprintf(&b, "Duration: %d weeks, starting %s\n", req.DurationWeeks, req.WeekStart.Format(plan.DateLayout))
	fmt.Fprintf(&b, "Effort band: %s (%d-%d minutes per day, at most %d minutes per week, %d-%d tasks per day)\n",
		band, budget.MinutesPerDay.Lo, budget.MinutesPerDay.Hi, budget.WeeklyMinutes,
		budget.TasksPerDay.Lo, budget.TasksPerDay.Hi)

	if !reqs.IsZero() {
		b.WriteString("Requirements:\n")
		if reqs.Activity != "" {
			fmt.Fprintf(&b, "- primary activity: %s (at least one task must practise it)\n", reqs.Activity)
		}
		if reqs.TargetDurationMin > 0 {
			fmt.Fprintf(&b, "- session length: about %d minutes\n", reqs.TargetDurationMin)
		}
		if reqs.TargetFrequency != nil {
			fmt.Fprintf(&b, "- frequency: %s\n", reqs.TargetFrequency)
		}
		if len(reqs.SecondaryFocuses) > 0 {
			fmt.Fprintf(&b, "- also covers: %s\n", strings.Join(reqs.SecondaryFocuses, ", "))
		}
	}
	if req.ResolutionType.NeedsPracticeLoop() {
		b.WriteString("Include at least one repeating practice task (daily or 5+ times per week).\n")
	}
	return b.String()
}

// repairPrompt asks for a minimal edit of a failed plan. The plan and the
// evaluation are embedded verbatim as JSON.
func repairPrompt(p *plan.Plan, ev evaluator.Result) string {
	planJSON, _ := json.MarshalIndent(p, "", "  ")
	evalJSON, _ := json.MarshalIndent(ev, "", "  ")
	var b strings.Builder
	b.WriteString("The plan below failed evaluation. Apply the smallest edit that fixes the listed problems ")
	b.WriteString("and keep everything else unchanged. Return the full corrected plan as JSON.\n\n")
	fmt.Fprintf(&b, "Plan:\n%s\n\n", planJSON)
	fmt.Fprintf(&b, "Evaluation:\n%s\n\n", evalJSON)
	fmt.Fprintf(&b, "Instructions: %s\n", ev.RepairInstructions)
	return b.String()
}

// regeneratePrompt repeats the original prompt with a feedback block and
// asks for a new plan rather than an edit.
func regeneratePrompt(base string, ev evaluator.Result) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\nFeedback from the previous attempt:\n")
	fmt.Fprintf(&b, "- score: %d/%d\n", ev.Score, evaluator.BaseScore)
	for _, v := range ev.Violations() {
		fmt.Fprintf(&b, "- %s\n", v)
	}
	if ev.RepairInstructions != "" {
		fmt.Fprintf(&b, "- %s\n", ev.RepairInstructions)
	}
	b.WriteString("\nWrite a fresh plan from scratch. Do not edit the previous plan.\n")
	return b.String()
}
