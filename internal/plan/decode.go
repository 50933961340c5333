package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
)

// ErrMalformed is returned when proposer output cannot be read as a plan.
var ErrMalformed = errors.New("malformed plan")

var fencePattern = regexp.MustCompile("(?s)^\\s*```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\s*```\\s*$")

// StripFences removes a surrounding markdown code fence and any prose
// around the outermost JSON object.
func StripFences(raw []byte) []byte {
	text := bytes.TrimSpace(raw)
	if m := fencePattern.FindSubmatch(text); m != nil {
		text = bytes.TrimSpace(m[1])
	}
	start := bytes.IndexByte(text, '{')
	end := bytes.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}

// Decode reads proposer output into a Plan. It accepts the field spellings
// proposers commonly produce and leaves defaulting to Normalize.
func Decode(raw []byte) (*Plan, error) {
	body := StripFences(raw)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}

	var w wirePlan
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(w.Plan) > 0 && w.Plan[0] == '{' {
		var nested wirePlan
		if err := json.Unmarshal(w.Plan, &nested); err == nil {
			w.merge(nested)
		}
	}

	p := &Plan{
		Title:          string(w.Title),
		Rationale:      firstNonEmpty(string(w.Rationale), string(w.Summary)),
		DurationWeeks:  int(w.DurationWeeks),
		Band:           string(w.Band),
		ResolutionType: string(w.ResolutionType),
	}

	var sections []wireWeek
	if len(w.Weeks) > 0 {
		switch w.Weeks[0] {
		case '[':
			if err := json.Unmarshal(w.Weeks, &sections); err != nil {
				return nil, fmt.Errorf("%w: weeks: %v", ErrMalformed, err)
			}
		default:
			var n flexInt
			if err := json.Unmarshal(w.Weeks, &n); err == nil && p.DurationWeeks == 0 {
				p.DurationWeeks = int(n)
			}
		}
	}

	for i, m := range w.Milestones {
		week := int(m.Week)
		if week <= 0 {
			week = i + 1
		}
		p.Milestones = append(p.Milestones, Milestone{
			Week:            week,
			Focus:           firstNonEmpty(string(m.Focus), string(m.Title)),
			SuccessCriteria: []string(m.SuccessCriteria),
		})
	}

	for i, s := range sections {
		week := int(s.Week)
		if week <= 0 {
			week = i + 1
		}
		p.Weeks = append(p.Weeks, WeekSection{
			Week:  week,
			Focus: string(s.Focus),
			Tasks: decodeTasks(s.Tasks),
		})
	}

	week1 := firstTasks(w.Week1Tasks, w.Week1TasksAlt, w.WeekOneTasks, w.Tasks)
	if len(week1) == 0 {
		for i, s := range sections {
			if int(s.Week) == 1 || (s.Week == 0 && i == 0) {
				week1 = s.Tasks
				break
			}
		}
	}
	if len(week1) == 0 {
		for i, m := range w.Milestones {
			if int(m.Week) == 1 || (m.Week == 0 && i == 0) {
				week1 = m.Tasks
				break
			}
		}
	}
	p.Week1Tasks = decodeTasks(week1)
	if len(p.Week1Tasks) == 0 {
		return nil, fmt.Errorf("%w: no week-1 tasks", ErrMalformed)
	}
	return p, nil
}

type wirePlan struct {
	Title          flexString      `json:"title"`
	Rationale      flexString      `json:"rationale"`
	Summary        flexString      `json:"summary"`
	DurationWeeks  flexInt         `json:"duration_weeks"`
	Weeks          json.RawMessage `json:"weeks"`
	Milestones     []wireMilestone `json:"milestones"`
	Week1Tasks     []wireTask      `json:"week_1_tasks"`
	Week1TasksAlt  []wireTask      `json:"week1_tasks"`
	WeekOneTasks   []wireTask      `json:"week_one_tasks"`
	Tasks          []wireTask      `json:"tasks"`
	Plan           json.RawMessage `json:"plan"`
	Band           flexString      `json:"band"`
	ResolutionType flexString      `json:"resolution_type"`
}

// merge fills fields missing at the top level from a nested "plan" object.
func (w *wirePlan) merge(n wirePlan) {
	if w.Title == "" {
		w.Title = n.Title
	}
	if w.Rationale == "" {
		w.Rationale = n.Rationale
	}
	if w.DurationWeeks == 0 {
		w.DurationWeeks = n.DurationWeeks
	}
	topIsList := len(w.Weeks) > 0 && w.Weeks[0] == '['
	nestedIsList := len(n.Weeks) > 0 && n.Weeks[0] == '['
	if len(w.Weeks) == 0 || (!topIsList && nestedIsList) {
		if !topIsList && len(w.Weeks) > 0 && w.DurationWeeks == 0 {
			var count flexInt
			if err := json.Unmarshal(w.Weeks, &count); err == nil {
				w.DurationWeeks = count
			}
		}
		w.Weeks = n.Weeks
	}
	if len(w.Milestones) == 0 {
		w.Milestones = n.Milestones
	}
	if len(w.Week1Tasks) == 0 {
		w.Week1Tasks = firstTasks(n.Week1Tasks, n.Week1TasksAlt, n.WeekOneTasks, n.Tasks)
	}
}

type wireMilestone struct {
	Week            flexInt    `json:"week"`
	Focus           flexString `json:"focus"`
	Title           flexString `json:"title"`
	SuccessCriteria flexList   `json:"success_criteria"`
	Tasks           []wireTask `json:"tasks"`
}

type wireWeek struct {
	Week  flexInt    `json:"week"`
	Focus flexString `json:"focus"`
	Tasks []wireTask `json:"tasks"`
}

type wireTask struct {
	Title                flexString      `json:"title"`
	Name                 flexString      `json:"name"`
	Intent               flexString      `json:"intent"`
	Description          flexString      `json:"description"`
	DurationMin          flexInt         `json:"duration_min"`
	EstimatedDurationMin flexInt         `json:"estimated_duration_min"`
	Duration             flexInt         `json:"duration"`
	Cadence              json.RawMessage `json:"cadence"`
	Frequency            json.RawMessage `json:"frequency"`
	DayHint              flexString      `json:"day_hint"`
	SuggestedDay         flexString      `json:"suggested_day"`
	TimeHint             flexString      `json:"time_hint"`
	SuggestedTime        flexString      `json:"suggested_time"`
	Day                  flexString      `json:"day"`
	Time                 flexString      `json:"time"`
	Confidence           json.RawMessage `json:"confidence"`
	Note                 flexString      `json:"note"`
	Notes                flexString      `json:"notes"`
}

func (t wireTask) task() Task {
	out := Task{
		Title:       strings.TrimSpace(firstNonEmpty(string(t.Title), string(t.Name))),
		Intent:      strings.TrimSpace(firstNonEmpty(string(t.Intent), string(t.Description))),
		DurationMin: firstPositive(int(t.EstimatedDurationMin), int(t.DurationMin), int(t.Duration)),
		DayHint:     firstNonEmpty(string(t.DayHint), string(t.SuggestedDay)),
		TimeHint:    firstNonEmpty(string(t.TimeHint), string(t.SuggestedTime)),
		Day:         string(t.Day),
		Time:        string(t.Time),
		Confidence:  decodeConfidence(t.Confidence),
		Note:        firstNonEmpty(string(t.Note), string(t.Notes)),
	}
	raw := t.Cadence
	if isNull(raw) {
		raw = t.Frequency
	}
	out.Cadence, out.RawCadence = decodeCadence(raw)
	return out
}

func decodeTasks(in []wireTask) []Task {
	if len(in) == 0 {
		return nil
	}
	out := make([]Task, 0, len(in))
	for _, wt := range in {
		t := wt.task()
		if t.Title == "" && t.Intent == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func decodeCadence(raw json.RawMessage) (cadence.Spec, string) {
	if isNull(raw) {
		return cadence.Spec{}, ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return cadence.NewFlex(), ""
	}
	if s, ok := v.(string); ok {
		return cadence.Normalize(s), s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return cadence.Normalize(v), ""
	}
	return cadence.Normalize(v), compact.String()
}

func decodeConfidence(raw json.RawMessage) Confidence {
	if isNull(raw) {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch c := v.(type) {
	case string:
		return ParseConfidence(c)
	case float64:
		return confidenceFromScore(c)
	default:
		return ""
	}
}

// ParseConfidence resolves a label or numeric string; unknown input yields
// the empty confidence so Normalize can default it.
func ParseConfidence(s string) Confidence {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return c
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return confidenceFromScore(f)
	}
	return ""
}

// confidenceFromScore accepts scores on a 0-1 or 0-100 scale.
func confidenceFromScore(f float64) Confidence {
	if math.IsNaN(f) {
		return ""
	}
	if f > 1 {
		f /= 100
	}
	switch {
	case f >= 0.75:
		return ConfidenceHigh
	case f >= 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func firstTasks(lists ...[]wireTask) []wireTask {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// flexString decodes strings, numbers and booleans as text and null as "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64, bool:
		*f = flexString(fmt.Sprint(x))
	default:
		*f = ""
	}
	return nil
}

var leadingNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// flexInt decodes numbers and strings such as "30" or "30 min".
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
			*f = 0
			return nil
		}
		*f = flexInt(math.Round(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if m := leadingNumber.FindStringSubmatch(s); m != nil {
			v, _ := strconv.ParseFloat(m[1], 64)
			if v <= math.MaxInt32 {
				*f = flexInt(math.Round(v))
			}
		}
		return nil
	}
	*f = 0
	return nil
}

// flexList decodes a list of strings or a single string.
type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*f = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.TrimSpace(s) != "" {
			*f = []string{s}
		}
		return nil
	}
	var anyList []any
	if err := json.Unmarshal(data, &anyList); err != nil {
		return err
	}
	out := make([]string, 0, len(anyList))
	for _, item := range anyList {
		if item != nil {
			out = append(out, fmt.Sprint(item))
		}
	}
	*f = out
	return nil
}
