package pattern

import (
	"regexp"
	"strings"
)

// DefaultPlaceholder replaces redacted text when no placeholder is given.
const DefaultPlaceholder = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	// AWS
	regexp.MustCompile(`(?i)(aws_access_key_id|aws_secret_access_key|aws_session_token)\s*[=:]\s*['"]?[A-Za-z0-9/+=]{20,}['"]?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),

	// GitHub
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`),

	// Generic API keys
	regexp.MustCompile(`(?i)(api_key|apikey|api-key|secret_key|secretkey|secret-key|access_token|auth_token)\s*[=:]\s*['"]?[A-Za-z0-9_-]{16,}['"]?`),

	// Private keys
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_-]{20,}`),

	// Slack
	regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`),

	// Stripe
	regexp.MustCompile(`[sr]k_live_[0-9a-zA-Z]{24}`),

	regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),
}

// redactKinds run in this order so a card number is not half-eaten by the
// IPv4 recognizer and credentials in URLs are gone before the URL pass.
var redactKinds = []*Matcher{
	MustNew(CreditCard),
	MustNew(Email),
	MustNew(URL),
	MustNew(IPv4),
}

// Redact masks credentials and every built-in structured kind in text.
// An empty placeholder means DefaultPlaceholder.
func Redact(text, placeholder string) string {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	out := text
	for _, re := range secretPatterns {
		out = re.ReplaceAllLiteralString(out, placeholder)
	}
	for _, m := range redactKinds {
		out = Replace(out, m.FindAll(out), placeholder)
	}
	return out
}

// Replace substitutes repl for each match. Matches must be sorted and
// non-overlapping, as FindAll returns them.
func Replace(text string, matches []Match, repl string) string {
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, m := range matches {
		b.WriteString(text[prev:m.Start])
		b.WriteString(repl)
		prev = m.End
	}
	b.WriteString(text[prev:])
	return b.String()
}
