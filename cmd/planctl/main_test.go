package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/flowplan/internal/evaluator"
	"github.com/fyrsmithlabs/flowplan/internal/generator"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

const goodRunPlan = `{
  "title": "Run 5k",
  "duration_weeks": 4,
  "milestones": [{"week": 1, "focus": "Build an easy base", "success_criteria": ["Finish three easy runs"]}],
  "week_1_tasks": [
    {"title": "Run easy intervals around the park", "intent": "Alternate jogging and walking", "duration_min": 25, "cadence": "3x per week", "confidence": "high"},
    {"title": "Stretch hips and calves after runs", "duration_min": 10, "cadence": "daily"},
    {"title": "Plan a safe running route", "duration_min": 15, "cadence": "once", "day_hint": "monday"}
  ]
}`

// execute runs planctl with an isolated home directory and environment.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "FLOWPLAN_") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestGenerate_Fallback(t *testing.T) {
	out, err := execute(t, "generate", "Run", "5k", "--week-start", "2024-01-08", "--band", "medium")
	require.NoError(t, err)

	var res generator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, plan.SourceFallback, res.Stage)
	assert.Equal(t, "Run 5k", res.Plan.Title)
	assert.Equal(t, plan.DefaultWeeks, res.Plan.DurationWeeks)
	require.NotEmpty(t, res.Plan.Schedule)
	for _, slot := range res.Plan.Schedule {
		assert.GreaterOrEqual(t, slot.Date, "2024-01-08")
		assert.LessOrEqual(t, slot.Date, "2024-01-14")
	}
}

func TestGenerate_Proposal(t *testing.T) {
	path := writeFile(t, "proposal.json", goodRunPlan)

	out, err := execute(t, "generate", "Run 5k", "--proposal", path, "--weeks", "6", "--week-start", "2024-01-08")
	require.NoError(t, err)

	var res generator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, plan.SourcePropose, res.Stage)
	assert.Equal(t, 1, res.Calls)
	assert.Equal(t, 6, res.Plan.DurationWeeks)
}

func TestGenerate_YAML(t *testing.T) {
	out, err := execute(t, "generate", "Run 5k", "--week-start", "2024-01-08", "-o", "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "fallback", doc["stage"])
	p, ok := doc["plan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Run 5k", p["title"])
	assert.Contains(t, out, "week_1_tasks:")
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad week start", []string{"generate", "Run 5k", "--week-start", "monday"}, "--week-start"},
		{"too many weeks", []string{"generate", "Run 5k", "--weeks", "13"}, "--weeks"},
		{"missing proposal", []string{"generate", "Run 5k", "--proposal", "/nonexistent/proposal.json"}, "reading proposal"},
		{"bad output", []string{"generate", "Run 5k", "-o", "xml"}, "unknown output format"},
		{"blank goal", []string{"generate", "  "}, "goal is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("missing goal", func(t *testing.T) {
		_, err := execute(t, "generate")
		require.Error(t, err)
	})
}

func TestEvaluate(t *testing.T) {
	path := writeFile(t, "plan.json", goodRunPlan)

	out, err := execute(t, "evaluate", path, "--goal", "Run 5k", "--strict")
	require.NoError(t, err)

	var ev evaluator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.Equal(t, 100, ev.Score)
	assert.True(t, ev.Passed)
	assert.Equal(t, "medium", ev.Band)
}

func TestEvaluate_StrictFailure(t *testing.T) {
	path := writeFile(t, "plan.json", `{
	  "title": "Run 5k",
	  "week_1_tasks": [
	    {"title": "Long run at steady pace", "duration_min": 90, "cadence": "daily"},
	    {"title": "Tempo run with warmup", "duration_min": 90, "cadence": "daily"},
	    {"title": "Hill repeats run session", "duration_min": 90, "cadence": "daily"}
	  ]
	}`)

	out, err := execute(t, "evaluate", path, "--strict")
	assert.ErrorIs(t, err, errFailedEvaluation)

	var ev evaluator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.False(t, ev.Passed)
	assert.NotEmpty(t, ev.RepairInstructions)

	_, err = execute(t, "evaluate", path)
	assert.NoError(t, err)
}

func TestEvaluate_Malformed(t *testing.T) {
	path := writeFile(t, "plan.json", `{"title": "nothing to do"}`)
	_, err := execute(t, "evaluate", path)
	assert.ErrorIs(t, err, plan.ErrMalformed)
}

func TestCadence(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		dates []string
		occ   int
	}{
		{"per week", []string{"cadence", "3x per week", "--week-start", "2024-01-01"}, []string{"2024-01-01", "2024-01-03", "2024-01-06"}, 3},
		{"two words", []string{"cadence", "twice", "a", "week", "--week-start", "2024-01-01"}, []string{"2024-01-01", "2024-01-05"}, 2},
		{"json object", []string{"cadence", `{"type": "specific_days", "days": ["thursday"]}`, "--week-start", "2024-01-01"}, []string{"2024-01-04"}, 1},
		{"daily repeat", []string{"cadence", "daily", "--week-start", "2024-01-01", "--allow-daily-repeat"}, []string{
			"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07",
		}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)

			var res struct {
				Label       string   `json:"label"`
				Occurrences int      `json:"occurrences"`
				Dates       []string `json:"dates"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			assert.Equal(t, tt.dates, res.Dates)
			assert.Equal(t, tt.occ, res.Occurrences)
			assert.NotEmpty(t, res.Label)
		})
	}

	t.Run("bad object", func(t *testing.T) {
		_, err := execute(t, "cadence", "{not json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing cadence object")
	})
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "planctl dev\n", out)
}
