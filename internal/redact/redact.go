// Package redact strips secrets from text before it is logged or returned to
// a client. Database URLs, Gemini API keys, bearer tokens and file paths are
// the usual culprits in wrapped driver and SDK errors.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	re          *regexp.Regexp
	placeholder string
}

// Rules run in order; the JWT rule precedes the key=value rule so a bearer
// header keeps its scheme.
var rules = []rule{
	{
		// user:password@ in postgres or postgresql URLs
		re:          regexp.MustCompile(`(?i)\b(postgres|postgresql|mysql)://[^@\s]+@`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		// password=... in keyword/value DSNs
		re:          regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[=:]\s*['"]?[^'"&\s]{3,}['"]?`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		re:          regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		placeholder: RedactedJWTPlaceholder,
	},
	{
		// Google API keys, as used for Gemini
		re:          regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
		placeholder: RedactedKeyPlaceholder,
	},
	{
		re:          regexp.MustCompile(`(?i)\b(api[_-]?key|jwt[_-]?secret|secret|token|key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		placeholder: RedactedKeyPlaceholder,
	},
	{
		re:          regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[^;]*?\b(FROM|INTO|SET)\b[\s\w,*()='"$.]*`),
		placeholder: RedactedSQLPlaceholder,
	},
	{
		re:          regexp.MustCompile(`(/[\w.-]+){2,}`),
		placeholder: RedactedPathPlaceholder,
	},
	{
		re:          regexp.MustCompile(`[A-Za-z]:\\[^\\\s]+(\\[^\\\s]+)+`),
		placeholder: RedactedPathPlaceholder,
	},
}

// String returns input with every secret replaced by its placeholder.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.re.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts err's message. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// ErrorAttr returns the conventional "error" log attribute with the message redacted.
func ErrorAttr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
