package proposer

import "regexp"

// secretPatterns are applied in order; specific prefixes come before the
// generic key=value forms.
var secretPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(OPENAI_API_KEY|ANTHROPIC_API_KEY|GEMINI_API_KEY|GITHUB_TOKEN|AWS_SECRET_ACCESS_KEY)\s*=\s*\S+`), "$1=[REDACTED:ENV_SECRET]"},
	{regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`), "[REDACTED:ANTHROPIC_KEY]"},
	{regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`), "[REDACTED:OPENAI_KEY]"},
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`), "[REDACTED:GOOGLE_KEY]"},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-\.=]{20,}`), "[REDACTED:BEARER_TOKEN]"},
	{regexp.MustCompile(`(?i)(api[_-]?key|token|password|passwd)\s*[:=]\s*["']?[^"'\s\[]{8,}["']?`), "$1=[REDACTED]"},
	{regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`), "[REDACTED:PRIVATE_KEY]"},
}

// scrubSecrets removes credentials a user may have pasted into goal text.
func scrubSecrets(s string) string {
	for _, p := range secretPatterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}
