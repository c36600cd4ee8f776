package payload

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Repair stages, in the order they run.
const (
	StageParse         = "parse"
	StageBraceBalance  = "brace_balance"
	StageNewlineEscape = "newline_escape"
)

// RepairFailure reports that structural repair could not produce a parseable
// JSON value. It keeps both the text as it stood after the last attempted
// stage and the original pre-repair text, so nothing is silently discarded.
type RepairFailure struct {
	Stage    string
	Text     string
	Original string
	Cause    error
}

func (f *RepairFailure) Error() string {
	return fmt.Sprintf("json repair failed at stage %s: %v", f.Stage, f.Cause)
}

func (f *RepairFailure) Unwrap() error { return f.Cause }

// RepairJSON attempts to parse text as a single JSON value, applying bounded
// structural repairs between attempts: trailing-brace balancing, then
// escaping of raw newlines inside string literals. Repairs never rename keys
// or coerce values; on already-valid input every stage is a no-op. The
// function is deterministic, so callers may cache outcomes by input hash.
func RepairJSON(text string) (any, error) {
	value, _, err := repairJSON(text)
	return value, err
}

func repairJSON(text string) (any, string, error) {
	var value any
	parseErr := json.Unmarshal([]byte(text), &value)
	if parseErr == nil {
		return value, text, nil
	}

	// Models sometimes append a spurious extra closing brace. Only ever
	// remove trailing closers, and only while the text still ends with one.
	balanced := balanceBraces(text)
	if err := json.Unmarshal([]byte(balanced), &value); err == nil {
		return value, balanced, nil
	}

	escaped := escapeStringNewlines(balanced)
	if err := json.Unmarshal([]byte(escaped), &value); err != nil {
		return nil, "", &RepairFailure{
			Stage:    StageNewlineEscape,
			Text:     escaped,
			Original: text,
			Cause:    err,
		}
	}
	return value, escaped, nil
}

func balanceBraces(text string) string {
	for {
		trimmed := strings.TrimSpace(text)
		if !strings.HasSuffix(trimmed, "}") {
			return text
		}
		if strings.Count(trimmed, "}") <= strings.Count(trimmed, "{") {
			return text
		}
		text = trimmed[:len(trimmed)-1]
	}
}

// escapeStringNewlines replaces literal newline and carriage-return
// characters inside quote-delimited spans with their two-character escape
// sequences, honoring backslash-escaped quotes. Text outside string spans is
// untouched.
func escapeStringNewlines(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString := false
	escaped := false
	for _, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			}
		} else if r == '"' {
			inString = true
		}
		b.WriteRune(r)
	}
	return b.String()
}
