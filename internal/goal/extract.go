package goal

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
)

// activity is one row of the activity table. The first keyword that appears
// in the goal text wins, so more specific rows come first.
type activity struct {
	Name     string
	Keywords []string
}

var activities = []activity{
	{Name: "run", Keywords: []string{"run", "jog", "5k", "10k", "marathon"}},
	{Name: "walk", Keywords: []string{"walk", "steps", "hike"}},
	{Name: "swim", Keywords: []string{"swim", "laps"}},
	{Name: "cycle", Keywords: []string{"cycle", "cycling", "bike", "biking"}},
	{Name: "yoga", Keywords: []string{"yoga", "stretch"}},
	{Name: "strength", Keywords: []string{"strength", "lift", "weights", "gym", "workout", "push-up", "pushup"}},
	{Name: "meditate", Keywords: []string{"meditat", "mindful", "breath"}},
	{Name: "sleep", Keywords: []string{"sleep", "bedtime"}},
	{Name: "read", Keywords: []string{"read", "book", "chapter"}},
	{Name: "write", Keywords: []string{"write", "writing", "blog", "novel", "essay"}},
	{Name: "journal", Keywords: []string{"journal", "gratitude"}},
	{Name: "language", Keywords: []string{"spanish", "french", "german", "japanese", "language", "vocabulary", "duolingo"}},
	{Name: "music", Keywords: []string{"guitar", "piano", "violin", "singing", "music"}},
	{Name: "code", Keywords: []string{"code", "coding", "programming", "python", "golang"}},
	{Name: "cook", Keywords: []string{"cook", "meal prep", "recipe"}},
	{Name: "budget", Keywords: []string{"budget", "save", "saving", "debt", "expense"}},
	{Name: "declutter", Keywords: []string{"declutter", "tidy", "clean"}},
}

// frequencyPhrases are scanned in order; the first hit is normalized.
var frequencyPhrases = []string{
	"every other day",
	"every weekday", "weekdays",
	"weekends",
	"every day", "everyday", "each day", "daily", "a day", "per day", "nightly",
	"every morning", "every evening", "every night",
	"twice a week", "twice per week", "twice weekly", "twice",
	"thrice",
	"once a week", "once per week", "weekly",
}

var (
	durationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(minutes?|mins?|hours?|hrs?|h)\b`)
	countPattern    = regexp.MustCompile(`\b(\d+|one|two|three|four|five|six|seven)\s*(?:x|times?|sessions?|days?)\s*(?:a|per|each|every|/)\s*week\b|\b(\d+)x\b`)
)

// maxHoursAsSession is the largest hour figure read as a session length.
// Larger figures ("10 hours a week") describe totals, not sessions.
const maxHoursAsSession = 3

const maxSessionMinutes = 24 * 60

// Extract derives requirements from goal text. The resolution type only
// decides whether a frequency is implied when the text gives none.
func Extract(text string, resolutionType ResolutionType) Requirements {
	lowered := strings.ToLower(text)
	var req Requirements

	for _, a := range activities {
		if !containsWordPrefix(lowered, a.Keywords) {
			continue
		}
		if req.Activity == "" {
			req.Activity = a.Name
			req.Keywords = append([]string(nil), a.Keywords...)
			continue
		}
		req.SecondaryFocuses = append(req.SecondaryFocuses, a.Name)
	}

	req.TargetDurationMin = extractDuration(lowered)

	if spec, ok := extractFrequency(lowered); ok {
		req.TargetFrequency = &spec
	} else if resolutionType == TypeHabit {
		daily := cadence.NewDaily()
		req.TargetFrequency = &daily
	}
	return req
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// containsWordPrefix reports whether any keyword starts a word in s, so "run"
// matches "running" but not "brunch".
func containsWordPrefix(s string, keywords []string) bool {
	for _, k := range keywords {
		for idx := 0; idx < len(s); {
			i := strings.Index(s[idx:], k)
			if i < 0 {
				break
			}
			if boundary(s, idx+i-1) {
				return true
			}
			idx += i + 1
		}
	}
	return false
}

func extractDuration(s string) int {
	for _, m := range durationPattern.FindAllStringSubmatch(s, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil || value <= 0 {
			continue
		}
		if strings.HasPrefix(m[2], "h") {
			if value > maxHoursAsSession {
				continue
			}
			value *= 60
		}
		if value > maxSessionMinutes {
			continue
		}
		return int(math.Round(value))
	}
	return 0
}

func extractFrequency(s string) (cadence.Spec, bool) {
	if m := countPattern.FindString(s); m != "" {
		spec := cadence.Normalize(m)
		if spec.Kind != cadence.Flex {
			return spec, true
		}
	}
	for _, phrase := range frequencyPhrases {
		if containsWord(s, phrase) {
			return cadence.Normalize(phrase), true
		}
	}
	return cadence.Spec{}, false
}

// containsWord matches phrase on word boundaries so "daily" does not fire
// inside "dailymotion" and "a day" does not fire inside "a daydream".
func containsWord(s, phrase string) bool {
	for idx := 0; ; {
		i := strings.Index(s[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		if boundary(s, start-1) && boundary(s, end) {
			return true
		}
		idx = start + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}
