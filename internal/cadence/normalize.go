package cadence

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
var weekend = []time.Weekday{time.Saturday, time.Sunday}

// synonyms maps canonicalised phrases onto specs. Keys use single spaces; see
// canonical for how raw input is folded before lookup.
var synonyms = map[string]Spec{
	"daily":           NewDaily(),
	"every day":       NewDaily(),
	"everyday":        NewDaily(),
	"each day":        NewDaily(),
	"per day":         NewDaily(),
	"a day":           NewDaily(),
	"once a day":      NewDaily(),
	"once per day":    NewDaily(),
	"once daily":      NewDaily(),
	"nightly":         NewDaily(),
	"every morning":   NewDaily(),
	"every evening":   NewDaily(),
	"every night":     NewDaily(),
	"7x per week":     NewDaily(),
	"once":            NewOnce(),
	"one time":        NewOnce(),
	"one off":         NewOnce(),
	"single":          NewOnce(),
	"single session":  NewOnce(),
	"flex":            NewFlex(),
	"flexible":        NewFlex(),
	"anytime":         NewFlex(),
	"any time":        NewFlex(),
	"as needed":       NewFlex(),
	"whenever":        NewFlex(),
	"weekly":          NewPerWeek(1),
	"once a week":     NewPerWeek(1),
	"once per week":   NewPerWeek(1),
	"once weekly":     NewPerWeek(1),
	"every week":      NewPerWeek(1),
	"twice":           NewPerWeek(2),
	"twice a week":    NewPerWeek(2),
	"twice per week":  NewPerWeek(2),
	"twice weekly":    NewPerWeek(2),
	"thrice":          NewPerWeek(3),
	"thrice weekly":   NewPerWeek(3),
	"every other day": NewPerWeek(4),
	"alternate days":  NewPerWeek(4),
	"weekdays":        NewDays(weekdays...),
	"every weekday":   NewDays(weekdays...),
	"on weekdays":     NewDays(weekdays...),
	"work days":       NewDays(weekdays...),
	"workdays":        NewDays(weekdays...),
	"weekends":        NewDays(weekend...),
	"weekend":         NewDays(weekend...),
	"every weekend":   NewDays(weekend...),
	"on weekends":     NewDays(weekend...),
	"x per week":      NewFlex(),
	"specific days":   NewFlex(),
	"times per week":  NewFlex(),
	"recurring":       NewPerWeek(3),
	"regularly":       NewPerWeek(3),
	"several times":   NewPerWeek(3),
	"a few times":     NewPerWeek(3),
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday, "su": time.Sunday,
	"mon": time.Monday, "monday": time.Monday, "mo": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday, "tu": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday, "we": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday, "th": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "fr": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "sa": time.Saturday,
}

var (
	// 3x, 3 x per week, 3x/week, 3x_per_week, 3 times a week, 3 sessions per week
	perWeekPattern = regexp.MustCompile(`^(\d+|one|two|three|four|five|six|seven)\s*(x|times?|sessions?|days?)\s*(per|a|each|every|/|in a)?\s*(week|wk|weekly)?$`)
	daySplitter    = regexp.MustCompile(`\s*(?:,|/|&|\+|;|\band\b|\s)\s*`)
)

// ParseWeekday resolves a weekday name or abbreviation.
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(strings.TrimSuffix(s, ".")))]
	return d, ok
}

// Normalize canonicalises any raw cadence representation into a Spec.
// Input that cannot be interpreted resolves to flex, never an error.
func Normalize(raw any) Spec {
	switch v := raw.(type) {
	case nil:
		return NewFlex()
	case Spec:
		return sanitize(v)
	case *Spec:
		if v == nil {
			return NewFlex()
		}
		return sanitize(*v)
	case string:
		return parseString(v)
	case map[string]any:
		return parseMap(v)
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return parseMap(m)
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return NewFlex()
		}
		return Normalize(decoded)
	default:
		if n, ok := toInt(v); ok {
			return NewPerWeek(n)
		}
		return NewFlex()
	}
}

func sanitize(s Spec) Spec {
	switch s.Kind {
	case Daily:
		return NewDaily()
	case XPerWeek:
		return NewPerWeek(s.Count)
	case SpecificDays:
		return NewDays(s.Days...)
	case Once:
		return NewOnce()
	default:
		return NewFlex()
	}
}

// canonical lower-cases and folds separators so "2x_per_week",
// "2x-per-week" and "2x per  week" compare equal.
func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ", "\t", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func parseString(raw string) Spec {
	s := canonical(raw)
	if s == "" {
		return NewFlex()
	}
	if spec, ok := synonyms[s]; ok {
		return sanitize(spec)
	}
	if spec, ok := parsePerWeek(s); ok {
		return spec
	}

	// "specific days: monday, wednesday" and "on mon/wed/fri"
	body := s
	for _, prefix := range []string{"specific days:", "specific days", "days:", "on "} {
		if strings.HasPrefix(body, prefix) {
			body = strings.TrimSpace(strings.TrimPrefix(body, prefix))
			break
		}
	}
	if days, ok := parseDayList(body); ok {
		return NewDays(days...)
	}
	return NewFlex()
}

func parsePerWeek(s string) (Spec, bool) {
	m := perWeekPattern.FindStringSubmatch(s)
	if m == nil {
		return Spec{}, false
	}
	// "3 days" alone is ambiguous with a duration; require a per-week marker.
	if strings.HasPrefix(m[2], "day") && m[4] == "" {
		return Spec{}, false
	}
	n, ok := numberWords[m[1]]
	if !ok {
		parsed, err := strconv.Atoi(m[1])
		if err != nil {
			return Spec{}, false
		}
		n = parsed
	}
	if n >= MaxCount {
		return NewDaily(), true
	}
	return NewPerWeek(n), true
}

func parseDayList(s string) ([]time.Weekday, bool) {
	tokens := daySplitter.Split(s, -1)
	days := make([]time.Weekday, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		d, ok := ParseWeekday(tok)
		if !ok {
			return nil, false
		}
		days = append(days, d)
	}
	return days, len(days) > 0
}

func parseMap(m map[string]any) Spec {
	kind := strings.ToLower(strings.TrimSpace(firstString(m, "type", "cadence", "kind", "frequency", "recurrence")))
	count, hasCount := firstInt(m, "count", "times_per_week", "per_week", "times", "frequency")
	days := firstDays(m, "days", "weekdays", "on", "specific_days")

	switch canonical(kind) {
	case "x per week", "times per week", "per week", "weekly":
		if hasCount {
			return NewPerWeek(count)
		}
		if len(days) > 0 {
			return NewPerWeek(len(days))
		}
		return parseString(kind)
	case "specific days", "days", "custom", "specific":
		if len(days) > 0 {
			return NewDays(days...)
		}
		if hasCount {
			return NewPerWeek(count)
		}
		return NewFlex()
	case "":
		if len(days) > 0 {
			return NewDays(days...)
		}
		if hasCount {
			return NewPerWeek(count)
		}
		return NewFlex()
	}

	spec := parseString(kind)
	if spec.Kind == Flex && len(days) > 0 {
		return NewDays(days...)
	}
	return spec
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if n, ok := toInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func firstDays(m map[string]any, keys ...string) []time.Weekday {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		var out []time.Weekday
		switch list := v.(type) {
		case []any:
			for _, item := range list {
				if d, ok := toWeekday(item); ok {
					out = append(out, d)
				}
			}
		case []string:
			for _, item := range list {
				if d, ok := ParseWeekday(item); ok {
					out = append(out, d)
				}
			}
		case []time.Weekday:
			out = append(out, list...)
		case string:
			out, _ = parseDayList(canonical(list))
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func toWeekday(v any) (time.Weekday, bool) {
	switch d := v.(type) {
	case string:
		return ParseWeekday(d)
	case time.Weekday:
		return d, true
	default:
		// Numeric days follow ISO numbering: 1 = Monday ... 7 = Sunday.
		n, ok := toInt(v)
		if !ok || n < 0 || n > 7 {
			return 0, false
		}
		return time.Weekday(n % 7), true
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return toInt(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(math.Round(n)), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	case string:
		s := strings.TrimSpace(n)
		if w, ok := numberWords[strings.ToLower(s)]; ok {
			return w, true
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
