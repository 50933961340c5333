package goal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		typ          ResolutionType
		wantActivity string
		wantDuration int
		wantFreq     *cadence.Spec
		wantFocuses  []string
	}{
		{
			name:         "run with count and minutes",
			text:         "Run a 5k, 30 minutes three times a week",
			typ:          TypeHealth,
			wantActivity: "run",
			wantDuration: 30,
			wantFreq:     ptr(cadence.NewPerWeek(3)),
		},
		{
			name:         "hours converted",
			text:         "Practice guitar 1.5 hours twice a week",
			typ:          TypeSkill,
			wantActivity: "music",
			wantDuration: 90,
			wantFreq:     ptr(cadence.NewPerWeek(2)),
		},
		{
			name:         "large hour figure ignored",
			text:         "Study spanish 10 hours per week",
			typ:          TypeLearning,
			wantActivity: "language",
		},
		{
			name:         "daily meditation",
			text:         "Meditate 10 min every day",
			typ:          TypeHealth,
			wantActivity: "meditate",
			wantDuration: 10,
			wantFreq:     ptr(cadence.NewDaily()),
		},
		{
			name:         "3x shorthand",
			text:         "Go to the gym 3x",
			typ:          TypeHealth,
			wantActivity: "strength",
			wantFreq:     ptr(cadence.NewPerWeek(3)),
		},
		{
			name:         "secondary focuses",
			text:         "Run and do yoga, then journal",
			typ:          TypeHealth,
			wantActivity: "run",
			wantFocuses:  []string{"yoga", "journal"},
		},
		{
			name:         "word prefix only",
			text:         "Host a brunch for friends",
			typ:          TypeOther,
			wantActivity: "",
		},
		{
			name:     "habit implies daily",
			text:     "Be more grateful",
			typ:      TypeHabit,
			wantFreq: ptr(cadence.NewDaily()),
		},
		{
			name: "empty",
			text: "",
			typ:  TypeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text, tt.typ)
			assert.Equal(t, tt.wantActivity, got.Activity)
			assert.Equal(t, tt.wantDuration, got.TargetDurationMin)
			assert.Equal(t, tt.wantFocuses, got.SecondaryFocuses)
			if tt.wantFreq == nil {
				assert.Nil(t, got.TargetFrequency)
				return
			}
			require.NotNil(t, got.TargetFrequency)
			assert.True(t, tt.wantFreq.Equal(*got.TargetFrequency), "got %v", got.TargetFrequency)
		})
	}
}

func TestExtract_NeverPanicsOnOddInput(t *testing.T) {
	inputs := []string{"a day", "daily", "x", "3", "0 minutes", "99999999999999999999 minutes", strings.Repeat("run ", 200)}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Extract(in, TypeOther) })
	}
}

func TestRequirements_MatchTerms(t *testing.T) {
	req := Extract("run a 5k", TypeHealth)
	assert.Contains(t, req.MatchTerms(), "run")
	assert.Contains(t, req.MatchTerms(), "jog")

	assert.Equal(t, []string{"deep", "work"}, Requirements{Activity: "Deep Work"}.MatchTerms())
	assert.Empty(t, Requirements{}.MatchTerms())
	assert.True(t, Requirements{}.IsZero())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want ResolutionType
	}{
		{"Run a 5k by spring", TypeHealth},
		{"Sleep 8 hours every day", TypeHealth},
		{"Build a daily routine", TypeHabit},
		{"Pay off my credit card", TypeFinance},
		{"Learn Spanish", TypeLearning},
		{"Launch my side project", TypeProject},
		{"Call grandma more", TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, DefaultTitle, NormalizeTitle("   "))
	assert.Equal(t, "Run a 5k", NormalizeTitle("Run a 5k. I want to feel fit!"))
	assert.Equal(t, "Learn piano", NormalizeTitle("Learn piano\nsecond line"))

	long := strings.Repeat("a", 78) + ", more words here"
	got := NormalizeTitle(long)
	assert.Equal(t, strings.Repeat("a", 78)+"...", got)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeSkill, ParseType(" Skill "))
	assert.Equal(t, TypeOther, ParseType("hobby"))
	assert.True(t, TypeHabit.NeedsPracticeLoop())
	assert.False(t, TypeProject.NeedsPracticeLoop())
}

func ptr[T any](v T) *T { return &v }
