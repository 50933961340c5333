package goal

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength bounds normalized titles, excluding the ellipsis.
const MaxTitleLength = 80

// DefaultTitle is used when the goal text is blank.
const DefaultTitle = "Resolution"

type typeKeywords struct {
	Type     ResolutionType
	Keywords []string
}

// typeTable is checked in order; health wins over habit for "run every day".
var typeTable = []typeKeywords{
	{TypeHealth, []string{"sleep", "run", "exercise", "workout", "gym", "meditate", "yoga", "walk", "wellness", "health"}},
	{TypeHabit, []string{"habit", "daily", "every day", "each morning", "routine", "consistent", "consistently"}},
	{TypeFinance, []string{"budget", "save", "spend less", "pay off", "debt", "money", "finance", "invest"}},
	{TypeLearning, []string{"learn", "study", "course", "class", "reading", "certificate", "train", "practice"}},
	{TypeProject, []string{"project", "launch", "ship", "finish", "complete", "build", "deliver", "write"}},
}

var sentenceBreak = regexp.MustCompile(`[.!?\n]+`)

// Classify maps goal text onto a resolution type.
func Classify(text string) ResolutionType {
	lowered := strings.ToLower(text)
	for _, row := range typeTable {
		if containsAny(lowered, row.Keywords) {
			return row.Type
		}
	}
	return TypeOther
}

// NormalizeTitle returns the first sentence of text, shortened to
// MaxTitleLength runes with a trailing ellipsis when needed.
func NormalizeTitle(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return DefaultTitle
	}

	candidate := trimmed
	if parts := sentenceBreak.Split(trimmed, 2); len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		candidate = strings.TrimSpace(parts[0])
	}
	if utf8.RuneCountInString(candidate) <= MaxTitleLength {
		return candidate
	}
	shortened := strings.TrimRight(string([]rune(candidate)[:MaxTitleLength]), ",;:- ")
	return shortened + "..."
}
