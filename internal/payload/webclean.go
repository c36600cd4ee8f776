package payload

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// Pages shorter than this are likely error or placeholder pages and are
	// not worth cleaning at all.
	webCleanMinInput = 100

	// Guards against over-aggressive filtering: if cleaning removes more
	// than 90% of the content, or leaves fewer than 50 characters, the
	// original text is kept.
	webCleanMaxReduction = 0.9
	webCleanMinOutput    = 50
)

// Known boilerplate, navigation and legal-notice patterns that survive
// readability extraction on some sites.
var boilerplateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^.*(accept|manage|we use) (all )?cookies.*$`),
	regexp.MustCompile(`(?im)^.*cookie (policy|settings|preferences).*$`),
	regexp.MustCompile(`(?im)^.*subscribe to our newsletter.*$`),
	regexp.MustCompile(`(?im)^.*sign (up|in) (for|to).*$`),
	regexp.MustCompile(`(?im)^.*all rights reserved.*$`),
	regexp.MustCompile(`(?im)^.*(privacy policy|terms of (service|use)).*$`),
	regexp.MustCompile(`(?im)^\s*(advertisement|sponsored content)\s*$`),
	regexp.MustCompile(`(?im)^\s*skip to (main )?content\s*$`),
	regexp.MustCompile(`(?im)^\s*share (this )?(article|story|page|on).*$`),
	regexp.MustCompile(`(?im)^\s*(follow us|connect with us) on.*$`),
	regexp.MustCompile(`(?im)^\s*related (articles|stories|posts):?\s*$`),
	regexp.MustCompile(`(?im)^\s*read more:?.*$`),
}

var (
	excessNewlinesRe = regexp.MustCompile(`\n{3,}`)
	runSpacesRe      = regexp.MustCompile(`[ \t]{2,}`)
)

// CleanDiagnostic explains why cleaning was skipped or discarded. It is a
// diagnostic, not an error: the returned text is always usable.
type CleanDiagnostic struct {
	Reason    string
	PreLen    int
	PostLen   int
	Reduction float64
}

func (d *CleanDiagnostic) String() string {
	return fmt.Sprintf("web clean %s (pre=%d post=%d reduction=%.2f)",
		d.Reason, d.PreLen, d.PostLen, d.Reduction)
}

// ProcessWebContent strips boilerplate from text ingested from uncontrolled
// web sources and collapses excess whitespace. When the guards trigger the
// original input is returned unchanged alongside a diagnostic.
func ProcessWebContent(raw string) (string, *CleanDiagnostic) {
	if len(raw) < webCleanMinInput {
		return raw, &CleanDiagnostic{Reason: "skipped: input too short", PreLen: len(raw)}
	}

	cleaned := raw
	for _, re := range boilerplateRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = excessNewlinesRe.ReplaceAllString(cleaned, "\n\n")
	cleaned = runSpacesRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	reduction := 1 - float64(len(cleaned))/float64(len(raw))
	if reduction > webCleanMaxReduction || len(cleaned) < webCleanMinOutput {
		return raw, &CleanDiagnostic{
			Reason:    "discarded: over-aggressive filtering",
			PreLen:    len(raw),
			PostLen:   len(cleaned),
			Reduction: reduction,
		}
	}
	return cleaned, nil
}
