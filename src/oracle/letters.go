package oracle

import (
	"regexp"

	"github.com/quizsentry/quizsentry/src/types"
)

// letterPatterns is the extraction cascade for a verdict letter in a free
// text reply. Order is the contract: most explicit phrasing first, the bare
// standalone-letter scan as the last resort. Each pattern captures the
// letter in group 1.
var letterPatterns = []*regexp.Regexp{
	// Explicit phrasing.
	regexp.MustCompile(`(?i)\banswer[:\s]+([A-E])\b`),
	regexp.MustCompile(`(?i)\bthe answer is[:\s]+([A-E])\b`),
	regexp.MustCompile(`(?i)\bcorrect answer[:\s]+([A-E])\b`),
	regexp.MustCompile(`(?i)\bchoose[:\s]+([A-E])\b`),
	regexp.MustCompile(`(?i)\boption[:\s]+([A-E])\b`),
	// Leading "X)" or "X." at message start.
	regexp.MustCompile(`^\s*([A-Ea-e])[).]`),
	// A line that is exactly one letter.
	regexp.MustCompile(`(?m)^\s*([A-Ea-e])\s*$`),
	// A single letter isolated between newlines.
	regexp.MustCompile(`\n\s*([A-Ea-e])\s*\n`),
	// A single letter at the very end of the message.
	regexp.MustCompile(`\n\s*([A-Ea-e])\s*$`),
	// Any standalone letter token, last resort.
	regexp.MustCompile(`\b([A-Ea-e])\b`),
}

// ExtractLetter scans a reply for a verdict letter using the cascade above.
func ExtractLetter(text string) (types.Letter, bool) {
	if text == "" {
		return "", false
	}
	for _, pattern := range letterPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			letter := types.Letter(m[1])
			if letter[0] >= 'a' {
				letter = types.Letter(letter[0] - ('a' - 'A'))
			}
			return letter, true
		}
	}
	return "", false
}
