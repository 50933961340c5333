package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

func task(title string, minutes int, c cadence.Spec) plan.Task {
	return plan.Task{Title: title, DurationMin: minutes, Cadence: c}
}

func planWith(tasks ...plan.Task) *plan.Plan {
	p := &plan.Plan{Title: "test", DurationWeeks: 1, Week1Tasks: tasks}
	p.Normalize("test", nil)
	return p
}

func TestEvaluate_OneBudgetViolationPasses(t *testing.T) {
	p := planWith(task("Draft the project outline document", 60, cadence.NewDaily()))

	r := Evaluate(p, "medium", goal.TypeProject, goal.Requirements{})

	require.Len(t, r.BudgetViolations, 1)
	assert.Equal(t, "Week budget exceeded (420 min > 360 min).", r.BudgetViolations[0])
	assert.Empty(t, r.VaguenessFlags)
	assert.Empty(t, r.CadenceIssues)
	assert.Empty(t, r.OverloadWarnings)
	assert.Equal(t, 70, r.Score)
	assert.True(t, r.Passed)
	assert.Empty(t, r.RepairInstructions)
}

func TestEvaluate_TwoBudgetViolationsFail(t *testing.T) {
	p := planWith(
		task("Review the weekly sales report", 20, cadence.NewDaily()),
		task("Answer customer support tickets", 20, cadence.NewDaily()),
		task("Write release notes for product", 20, cadence.NewDaily()),
		task("Plan tomorrow's work in detail", 20, cadence.NewDaily()),
	)

	r := Evaluate(p, "medium", goal.TypeProject, goal.Requirements{})

	require.Len(t, r.BudgetViolations, 2)
	assert.Equal(t, "Week1 tasks/day exceeded (4 > 3).", r.BudgetViolations[1])
	assert.Equal(t, 4, r.MaxTasksPerDayWeek1)
	assert.Equal(t, 4.0, r.AvgTasksPerDayWeek1)
	assert.Equal(t, 40, r.Score)
	assert.False(t, r.Passed)
	assert.Equal(t, DirectiveBudget, r.RepairInstructions)
}

func TestEvaluate_ThreeLongDailyRunsFail(t *testing.T) {
	p := planWith(
		task("Long run at steady pace", 90, cadence.NewDaily()),
		task("Tempo run with warmup", 90, cadence.NewDaily()),
		task("Hill repeats run session", 90, cadence.NewDaily()),
	)
	req := goal.Extract("Run 5k", goal.TypeHealth)

	r := Evaluate(p, "medium", goal.TypeHealth, req)

	assert.Equal(t, []int{1890}, r.WeeklyMinutes)
	assert.Len(t, r.BudgetViolations, 1)
	assert.Equal(t, []string{"Too many long tasks (>60 min) in Week 1 for medium band."}, r.OverloadWarnings)
	assert.Empty(t, r.CadenceIssues)
	assert.Equal(t, 55, r.Score)
	assert.False(t, r.Passed)
	assert.Equal(t, DirectiveBudget+" "+DirectiveOverload, r.RepairInstructions)
}

func TestEvaluate_Vagueness(t *testing.T) {
	tests := []struct {
		title string
		vague bool
	}{
		{"Exercise", true},
		{"", true},
		{"Read chapter", false},
		{"Scale practice", false},
		{"do stuff today", true},
		{"try to run more", true},
		{"Organize all the stuff in the garage shelves", false},
		{"Walk for 20 minutes", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.vague, isVague(tt.title))
		})
	}

	r := Evaluate(planWith(task("", 20, cadence.NewOnce())), "light", goal.TypeOther, goal.Requirements{})
	assert.Equal(t, []string{"Untitled task"}, r.VaguenessFlags)
	assert.Equal(t, 95, r.Score)
}

func TestEvaluate_CadenceIssues(t *testing.T) {
	t.Run("all flex health goal", func(t *testing.T) {
		p := planWith(task("Go for a gentle walk", 20, cadence.NewFlex()))
		r := Evaluate(p, "medium", goal.TypeHealth, goal.Requirements{})
		assert.Equal(t, []string{
			"Needs a repeating practice loop in Week 1.",
			"Too many flex cadences for habit/skill goal.",
		}, r.CadenceIssues)
		assert.Equal(t, 90, r.Score)
		assert.True(t, r.Passed)
	})

	t.Run("missing activity", func(t *testing.T) {
		p := planWith(task("Stretch for ten minutes", 10, cadence.NewDaily()))
		r := Evaluate(p, "light", goal.TypeHealth, goal.Requirements{Activity: "run"})
		assert.Equal(t, []string{"Week 1 tasks must include run."}, r.CadenceIssues)
	})

	t.Run("activity matched by keyword", func(t *testing.T) {
		p := planWith(plan.Task{Title: "Easy conversational pace outing", Intent: "jog slowly", DurationMin: 20, Cadence: cadence.NewDaily()})
		req := goal.Extract("run a 5k", goal.TypeHealth)
		r := Evaluate(p, "light", goal.TypeHealth, req)
		assert.Empty(t, r.CadenceIssues)
	})

	t.Run("target duration tolerance", func(t *testing.T) {
		req := goal.Requirements{TargetDurationMin: 30}
		near := Evaluate(planWith(task("Practice guitar chord changes", 36, cadence.NewDaily())), "medium", goal.TypeSkill, req)
		assert.Empty(t, near.CadenceIssues)

		far := Evaluate(planWith(task("Practice guitar chord changes", 37, cadence.NewDaily())), "medium", goal.TypeSkill, req)
		assert.Equal(t, []string{"Missing session near requested duration (~30 min)."}, far.CadenceIssues)
	})

	t.Run("types without practice loop", func(t *testing.T) {
		p := planWith(task("Draft the budget spreadsheet", 30, cadence.NewFlex()))
		r := Evaluate(p, "medium", goal.TypeFinance, goal.Requirements{})
		assert.Empty(t, r.CadenceIssues)
	})
}

func TestEvaluate_Overload(t *testing.T) {
	long := task("Deep study block for exam", 150, cadence.NewOnce())
	huge := task("All afternoon writing sprint", 200, cadence.NewOnce())

	r := Evaluate(planWith(long), "medium", goal.TypeLearning, goal.Requirements{})
	assert.Contains(t, r.OverloadWarnings, "Deep study block for exam is too long (150 min).")

	r = Evaluate(planWith(long), "intense", goal.TypeLearning, goal.Requirements{})
	assert.Empty(t, r.OverloadWarnings)

	r = Evaluate(planWith(huge), "medium", goal.TypeProject, goal.Requirements{})
	assert.Equal(t, []string{"All afternoon writing sprint exceeds 3 hours."}, r.OverloadWarnings)
}

func TestEvaluate_TasksPerDay(t *testing.T) {
	a := task("Morning strength circuit workout", 30, cadence.NewDaily())
	a.Day = "2026-01-05"
	b := task("Evening stretch and mobility", 20, cadence.NewDaily())
	b.Day = "2026-01-05"
	c := task("Quick breathing exercise break", 5, cadence.NewDaily())
	c.Day = "2026-01-05"
	d := task("Weekend long walk outdoors", 45, cadence.NewFlex())

	maxCount, avg := tasksPerDay([]plan.Task{a, b, c, d})
	assert.Equal(t, 2, maxCount)
	assert.Equal(t, 1.5, avg)

	maxCount, avg = tasksPerDay([]plan.Task{
		task("Run intervals on the track", 30, cadence.NewPerWeek(3)),
		task("Row at a steady pace", 30, cadence.NewDays(0, 1)),
	})
	// 3x lands on Mon/Wed/Sat, specific days on Sun/Mon.
	assert.Equal(t, 2, maxCount)
	assert.Equal(t, 1.25, avg)

	maxCount, avg = tasksPerDay(nil)
	assert.Zero(t, maxCount)
	assert.Zero(t, avg)
}

func TestEvaluate_UnknownBandIsMedium(t *testing.T) {
	r := Evaluate(planWith(task("Write 300 words of draft", 30, cadence.NewOnce())), "heroic", goal.TypeOther, goal.Requirements{})
	assert.Equal(t, "medium", r.Band)
	assert.True(t, r.Passed)
	assert.Equal(t, 100, r.Score)
}

func TestEvaluate_NilPlan(t *testing.T) {
	r := Evaluate(nil, "light", goal.TypeHabit, goal.Requirements{})
	assert.Equal(t, []int{0}, r.WeeklyMinutes)
	assert.Len(t, r.CadenceIssues, 2)
	assert.Equal(t, 90, r.Score)
}

func TestResult_SummaryAndJSON(t *testing.T) {
	r := Evaluate(planWith(task("Exercise", 200, cadence.NewDaily())), "light", goal.TypeHealth, goal.Requirements{})
	s := r.Summary()
	assert.Equal(t, r.Score, s.Score)
	assert.Equal(t, "light", s.Band)
	assert.Equal(t, len(r.BudgetViolations), s.BudgetViolations)
	assert.Equal(t, 1, s.VaguenessFlags)
	assert.NotEmpty(t, r.Violations())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"band", "weekly_minutes", "max_tasks_per_day_week1", "avg_tasks_per_day_week1",
		"vagueness_flags", "cadence_issues", "budget_violations", "overload_warnings", "score", "passed", "repair_instructions"} {
		assert.Contains(t, decoded, key)
	}
	assert.GreaterOrEqual(t, r.Score, 0)
}

func TestEvaluate_Deterministic(t *testing.T) {
	kinds := []cadence.Spec{cadence.NewDaily(), cadence.NewPerWeek(2), cadence.NewPerWeek(5), cadence.NewOnce(), cadence.NewFlex(), cadence.NewDays(1, 3, 5)}
	titles := []string{"stuff", "Run three easy miles", "Read chapter", "Write the weekly status report", "do something"}
	bands := []string{"light", "medium", "intense", "unknown"}
	types := []goal.ResolutionType{goal.TypeHabit, goal.TypeProject, goal.TypeHealth, goal.TypeWork, goal.TypeOther}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "tasks")
		tasks := make([]plan.Task, n)
		for i := range tasks {
			tasks[i] = plan.Task{
				Title:       rapid.SampledFrom(titles).Draw(t, "title"),
				DurationMin: rapid.IntRange(0, 240).Draw(t, "minutes"),
				Cadence:     rapid.SampledFrom(kinds).Draw(t, "cadence"),
			}
		}
		p := &plan.Plan{Week1Tasks: tasks}
		p.Normalize("goal", nil)
		band := rapid.SampledFrom(bands).Draw(t, "band")
		typ := rapid.SampledFrom(types).Draw(t, "type")
		req := goal.Requirements{Activity: "run", TargetDurationMin: rapid.IntRange(0, 90).Draw(t, "target")}

		first := Evaluate(p, band, typ, req)
		second := Evaluate(p.Clone(), band, typ, req)
		if first.Score < 0 || first.Score > BaseScore {
			t.Fatalf("score %d out of range", first.Score)
		}
		if first.Passed != second.Passed || first.Score != second.Score || first.RepairInstructions != second.RepairInstructions {
			t.Fatalf("evaluation not deterministic: %+v vs %+v", first, second)
		}
		if first.Passed && first.RepairInstructions != "" {
			t.Fatalf("passing result carries repair instructions")
		}
		if !first.Passed && first.RepairInstructions == "" {
			t.Fatalf("failing result without repair instructions")
		}
	})
}
