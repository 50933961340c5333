package plan

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
)

const canonicalPayload = `{
  "title": "Run a 5k",
  "rationale": "Build aerobic base gradually.",
  "duration_weeks": 6,
  "milestones": [
    {"week": 1, "focus": "Base building", "success_criteria": ["Complete 3 easy runs"]},
    {"week": 2, "focus": "Add distance", "success_criteria": "Run 20 minutes without stopping"}
  ],
  "week_1_tasks": [
    {"title": "Easy run at conversational pace", "intent": "aerobic base", "estimated_duration_min": 25, "cadence": "3x per week", "suggested_time": "07:00", "confidence": 0.9},
    {"title": "Mobility and stretching routine", "duration_min": "15 min", "cadence": {"type": "specific_days", "days": ["tue", "thu"]}, "confidence": "low", "notes": "after work"}
  ]
}`

func TestDecode_Canonical(t *testing.T) {
	p, err := Decode([]byte(canonicalPayload))
	require.NoError(t, err)

	assert.Equal(t, "Run a 5k", p.Title)
	assert.Equal(t, 6, p.DurationWeeks)
	require.Len(t, p.Milestones, 2)
	assert.Equal(t, []string{"Run 20 minutes without stopping"}, p.Milestones[1].SuccessCriteria)

	require.Len(t, p.Week1Tasks, 2)
	first := p.Week1Tasks[0]
	assert.Equal(t, 25, first.DurationMin)
	assert.True(t, cadence.NewPerWeek(3).Equal(first.Cadence))
	assert.Equal(t, "3x per week", first.RawCadence)
	assert.Equal(t, "07:00", first.TimeHint)
	assert.Equal(t, ConfidenceHigh, first.Confidence)

	second := p.Week1Tasks[1]
	assert.Equal(t, 15, second.DurationMin)
	assert.True(t, cadence.NewDays(time.Tuesday, time.Thursday).Equal(second.Cadence))
	assert.Equal(t, ConfidenceLow, second.Confidence)
	assert.Equal(t, "after work", second.Note)
}

func TestDecode_Variants(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTasks int
		wantWeeks int
	}{
		{
			name:      "markdown fence",
			raw:       "```json\n{\"week_1_tasks\":[{\"title\":\"Read one chapter tonight\"}]}\n```",
			wantTasks: 1,
		},
		{
			name:      "prose around json",
			raw:       "Here is your plan: {\"week1_tasks\":[{\"name\":\"Journal for ten minutes\"}]} Enjoy!",
			wantTasks: 1,
		},
		{
			name:      "weeks array carries tasks",
			raw:       `{"weeks":[{"week":1,"focus":"Start","tasks":[{"title":"Walk around the block"},{"title":"Log daily steps count"}]},{"week":2,"tasks":[]}]}`,
			wantTasks: 2,
		},
		{
			name:      "weeks as count with nested plan",
			raw:       `{"weeks": 5, "plan": {"milestones":[{"week":1,"focus":"x","tasks":[{"title":"Draft the outline doc"}]}]}}`,
			wantTasks: 1,
			wantWeeks: 5,
		},
		{
			name:      "empty-titled tasks dropped",
			raw:       `{"week_1_tasks":[{"title":""},{"title":"Practice scales for 15 minutes"}]}`,
			wantTasks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Len(t, p.Week1Tasks, tt.wantTasks)
			assert.Equal(t, tt.wantWeeks, p.DurationWeeks)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"not json at all",
		`{"title": "no tasks"}`,
		`{"week_1_tasks": []}`,
		`{"week_1_tasks": "nope"}`,
		`[1, 2, 3]`,
	}
	for _, in := range inputs {
		_, err := Decode([]byte(in))
		require.Error(t, err, "input %q", in)
		assert.True(t, errors.Is(err, ErrMalformed), "input %q: %v", in, err)
	}
}

func TestNormalize(t *testing.T) {
	p := &Plan{
		DurationWeeks: 20,
		Milestones: []Milestone{
			{Week: 2, Focus: "Second"},
			{Week: 2, Focus: "Duplicate"},
			{Week: 40, Focus: "Out of range"},
		},
		Week1Tasks: []Task{{Title: "  Stretch hamstrings after waking  ", RawCadence: "daily"}},
	}

	src := MilestoneFunc(func(week int) Milestone {
		return Milestone{Focus: "Template focus", SuccessCriteria: []string{"template"}}
	})
	p.Normalize("Fallback title", src)

	assert.Equal(t, "Fallback title", p.Title)
	assert.Equal(t, MaxWeeks, p.DurationWeeks)
	require.Len(t, p.Milestones, MaxWeeks)
	for i, m := range p.Milestones {
		assert.Equal(t, i+1, m.Week)
		assert.NotEmpty(t, m.Focus)
		assert.NotEmpty(t, m.SuccessCriteria)
	}
	assert.Equal(t, "Template focus", p.Milestones[0].Focus)
	assert.Equal(t, "Second", p.Milestones[1].Focus)

	require.Len(t, p.Weeks, MaxWeeks)
	assert.Equal(t, "Second", p.Weeks[1].Focus)

	task := p.Week1Tasks[0]
	assert.Equal(t, "Stretch hamstrings after waking", task.Title)
	assert.Equal(t, DefaultDurationMin, task.DurationMin)
	assert.Equal(t, ConfidenceMedium, task.Confidence)
	assert.True(t, cadence.NewDaily().Equal(task.Cadence))
	assert.Equal(t, p.Week1Tasks, p.Weeks[0].Tasks)
}

func TestNormalize_DefaultWeeks(t *testing.T) {
	p := &Plan{Week1Tasks: []Task{{Title: "Write 200 words daily"}}}
	p.Normalize("Write", nil)
	assert.Equal(t, DefaultWeeks, p.DurationWeeks)
	assert.Len(t, p.Milestones, DefaultWeeks)
	assert.Equal(t, "Week 3: keep momentum", p.Milestones[2].Focus)
	assert.True(t, cadence.NewFlex().Equal(p.Week1Tasks[0].Cadence))
}

func TestClone_IsDeep(t *testing.T) {
	p, err := Decode([]byte(canonicalPayload))
	require.NoError(t, err)
	p.Normalize("x", nil)
	p.Evaluation = &EvaluationSummary{Score: 80, WeeklyMinutes: []int{100}}

	c := p.Clone()
	c.Week1Tasks[1].Cadence.Days[0] = time.Sunday
	c.Milestones[0].SuccessCriteria[0] = "changed"
	c.Evaluation.WeeklyMinutes[0] = 1

	assert.Equal(t, time.Tuesday, p.Week1Tasks[1].Cadence.Days[0])
	assert.Equal(t, "Complete 3 easy runs", p.Milestones[0].SuccessCriteria[0])
	assert.Equal(t, 100, p.Evaluation.WeeklyMinutes[0])
	assert.Nil(t, (*Plan)(nil).Clone())
}

func TestPlan_JSONRoundTripThroughDecode(t *testing.T) {
	p, err := Decode([]byte(canonicalPayload))
	require.NoError(t, err)
	p.Normalize("x", nil)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, len(p.Week1Tasks), len(again.Week1Tasks))
	assert.True(t, p.Week1Tasks[1].Cadence.Equal(again.Week1Tasks[1].Cadence))
}

func TestTask_Scheduled(t *testing.T) {
	assert.False(t, Task{}.Scheduled())
	assert.True(t, Task{Day: "2026-01-05", Cadence: cadence.NewFlex()}.Scheduled())
	assert.False(t, Task{Day: "2026-01-05", Cadence: cadence.NewDaily()}.Scheduled())
	assert.True(t, Task{Day: "2026-01-05", Time: "07:00", Cadence: cadence.NewDaily()}.Scheduled())

	d := Task{Day: "2026-01-05"}.Date(nil)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.True(t, Task{Day: "garbage"}.Date(time.UTC).IsZero())
}

func TestParseConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ParseConfidence("HIGH"))
	assert.Equal(t, ConfidenceMedium, ParseConfidence("0.5"))
	assert.Equal(t, ConfidenceHigh, ParseConfidence("85"))
	assert.Equal(t, ConfidenceLow, ParseConfidence("0.1"))
	assert.Equal(t, Confidence(""), ParseConfidence("certain"))
}
