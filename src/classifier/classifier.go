// Package classifier decides whether a venue message is a quiz event.
package classifier

import "strings"

// A message is a quiz only when all three indicator categories match. The
// triple requirement guards against casual chatter that merely resembles a
// quiz prompt.
var (
	QuizPhrases = []string{
		"quick quiz",
		"emoji puzzle",
		"answer within",
		"choose the correct option below",
	}

	TimeIndicators = []string{"⏳", "minutes"}

	RewardIndicators = []string{"reward:", "wheel of fortune", "spin"}
)

// IsQuiz reports whether text is a quiz announcement. Safe on empty input,
// no side effects.
func IsQuiz(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	return containsAny(lower, QuizPhrases) &&
		containsAny(lower, TimeIndicators) &&
		containsAny(lower, RewardIndicators)
}

func containsAny(text string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}
