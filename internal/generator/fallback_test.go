package generator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/effort"
	"github.com/fyrsmithlabs/flowplan/internal/evaluator"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
)

func TestDefaultTemplates(t *testing.T) {
	tmpl := DefaultTemplates()
	for _, rt := range []goal.ResolutionType{
		goal.TypeHabit, goal.TypeProject, goal.TypeLearning, goal.TypeHealth,
		goal.TypeFinance, goal.TypeOther,
	} {
		tt, ok := tmpl.Types[string(rt)]
		require.True(t, ok, rt)
		assert.Len(t, tt.Milestones, 4, rt)
		assert.Len(t, tt.Tasks, 3, rt)
		assert.NotEmpty(t, tt.Rationale, rt)
	}
	assert.Equal(t, "learning", tmpl.Aliases["skill"])
	assert.Contains(t, tmpl.Specialties, "run")
	assert.Contains(t, tmpl.Consistency, "default")
}

func TestLoadTemplates_RequiresOther(t *testing.T) {
	_, err := LoadTemplates([]byte(`[types.habit]
rationale = "x"
`))
	assert.ErrorIs(t, err, ErrNoTemplate)

	_, err = LoadTemplates([]byte(`not = [toml`))
	assert.Error(t, err)
}

func TestFallback_EveryTypeAndBand(t *testing.T) {
	tmpl := DefaultTemplates()
	types := []goal.ResolutionType{
		goal.TypeHabit, goal.TypeProject, goal.TypeLearning, goal.TypeHealth,
		goal.TypeFinance, goal.TypeSkill, goal.TypeWork, goal.TypeOther,
	}
	goals := []string{"Run 5k", "Read more books", "Launch my side project", "Meditate", "Declutter the house", "Be happier"}

	for _, rt := range types {
		for _, band := range effort.Bands() {
			for _, text := range goals {
				name := fmt.Sprintf("%s/%s/%s", rt, band, text)
				t.Run(name, func(t *testing.T) {
					req := goal.Extract(text, rt)
					p, err := tmpl.Fallback(goal.NormalizeTitle(text), rt, band, 4, req)
					require.NoError(t, err)

					assert.Equal(t, 4, p.DurationWeeks)
					assert.Len(t, p.Milestones, 4)
					assert.Len(t, p.Weeks, 4)
					require.NotEmpty(t, p.Week1Tasks)
					assert.LessOrEqual(t, len(p.Week1Tasks), maxFallbackTasks)

					_, budget := effort.BudgetFor(string(band))
					ev := evaluator.Evaluate(p, string(band), rt, req)
					assert.LessOrEqual(t, ev.WeeklyMinutes[0], budget.WeeklyMinutes)
					assert.Empty(t, ev.VaguenessFlags)
					if rt.NeedsPracticeLoop() {
						assert.True(t, anyRepeating(p.Week1Tasks), "practice goals get a repeating task")
					}
				})
			}
		}
	}
}

func TestFallback_RunFiveK(t *testing.T) {
	req := goal.Extract("Run 5k", goal.TypeHealth)
	p, err := DefaultTemplates().Fallback("Run 5k", goal.TypeHealth, effort.Medium, 4, req)
	require.NoError(t, err)

	require.Len(t, p.Week1Tasks, 3)
	assert.Equal(t, "Run easy run/walk intervals", p.Week1Tasks[0].Title)
	assert.Equal(t, cadence.NewPerWeek(3), p.Week1Tasks[0].Cadence)
	assert.Equal(t, "Take a ten-minute recovery walk or stretch", p.Week1Tasks[2].Title)
	assert.Equal(t, cadence.NewDaily(), p.Week1Tasks[2].Cadence)
	assert.Equal(t, "Gather baselines and supports", p.Milestones[0].Focus)
	assert.Contains(t, p.Rationale, `"Run 5k"`)

	ev := evaluator.Evaluate(p, "medium", goal.TypeHealth, req)
	assert.Equal(t, []int{160, 0, 0, 0}, ev.WeeklyMinutes)
	assert.True(t, ev.Passed)
	assert.Equal(t, 100, ev.Score)
}

func TestFallback_AppliesRequestedTargets(t *testing.T) {
	req := goal.Extract("Run 20 minutes twice a week", goal.TypeHealth)
	require.Equal(t, 20, req.TargetDurationMin)

	p, err := DefaultTemplates().Fallback("Run", goal.TypeHealth, effort.Medium, 2, req)
	require.NoError(t, err)

	primary := p.Week1Tasks[0]
	assert.Equal(t, 20, primary.DurationMin)
	assert.Equal(t, cadence.NewPerWeek(2), primary.Cadence)
	assert.Empty(t, evaluator.Evaluate(p, "medium", goal.TypeHealth, req).CadenceIssues)
}

func TestFallback_ScalesToLightBudget(t *testing.T) {
	req := goal.Extract("Run 5k", goal.TypeHealth)
	p, err := DefaultTemplates().Fallback("Run 5k", goal.TypeHealth, effort.Light, 1, req)
	require.NoError(t, err)

	total := 0
	for _, task := range p.Week1Tasks {
		total += task.DurationMin * task.Cadence.Occurrences()
	}
	assert.LessOrEqual(t, total, 150)
	assert.Equal(t, 23, p.Week1Tasks[0].DurationMin)
}

func TestFallback_AliasesAndUnknownTypes(t *testing.T) {
	tmpl := DefaultTemplates()

	skill, err := tmpl.Fallback("Piano", goal.TypeSkill, effort.Medium, 4, goal.Requirements{})
	require.NoError(t, err)
	assert.Equal(t, "Choose primary learning materials for Piano", skill.Week1Tasks[0].Title)

	unknown, err := tmpl.Fallback("Something", goal.ResolutionType("hobby"), effort.Medium, 4, goal.Requirements{})
	require.NoError(t, err)
	assert.Equal(t, "Write a short brief for Something", unknown.Week1Tasks[0].Title)
}

func TestMilestones_RepeatLastTemplate(t *testing.T) {
	src := DefaultTemplates().Milestones(goal.TypeProject)
	assert.Equal(t, "Define scope and guardrails", src.Milestone(1).Focus)
	assert.Equal(t, "Stabilize and prepare handoff", src.Milestone(4).Focus)
	m := src.Milestone(9)
	assert.Equal(t, 9, m.Week)
	assert.Equal(t, "Stabilize and prepare handoff", m.Focus)
	assert.Len(t, m.SuccessCriteria, 2)
}
