package payload

import (
	"regexp"
	"strings"
)

// Conversational scaffolding that models prepend to structured output.
// Matched only at the start of the string, case-insensitive, and only up
// through the first colon on that line.
var scaffoldRe = regexp.MustCompile(`(?i)^\s*(?:here(?:'s| is| are)|let me|based on|sure|okay|ok)\b[^:\n]*?:[ \t]*\n?`)

// A fenced block wrapping the entire string: optional language tag after the
// opening fence, nothing but whitespace outside the fences.
var fenceRe = regexp.MustCompile("(?s)^\\s*```[a-zA-Z0-9_+-]*[ \\t]*\\r?\\n(.*?)\\r?\\n?```\\s*$")

// Normalize strips conversational scaffolding and whole-string code fences
// from raw model output and trims surrounding whitespace. It is total and
// idempotent: each stage runs to a fixed point, so a second call is a no-op.
func Normalize(raw string) string {
	text := raw
	for {
		next := normalizeOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func normalizeOnce(text string) string {
	text = scaffoldRe.ReplaceAllString(text, "")
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	return strings.TrimSpace(text)
}
