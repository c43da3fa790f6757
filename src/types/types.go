package types

import (
	"time"

	"github.com/quizsentry/quizsentry/src/venue"
)

// Letter is a single-letter quiz verdict, A through E.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
	LetterE Letter = "E"
)

// Index maps A..E to 0..4 and returns -1 for anything else.
func (l Letter) Index() int {
	if len(l) != 1 {
		return -1
	}
	c := l[0]
	if c < 'A' || c > 'E' {
		return -1
	}
	return int(c - 'A')
}

// Valid reports whether the letter is one of A..E.
func (l Letter) Valid() bool {
	return l.Index() >= 0
}

// LetterAt returns the letter for a zero-based option index.
func LetterAt(index int) Letter {
	if index < 0 || index > 4 {
		return ""
	}
	return Letter(string(rune('A' + index)))
}

// AnswerSource records where an event's answer came from.
type AnswerSource string

const (
	AnswerFromCache    AnswerSource = "cache"
	AnswerFromOracle   AnswerSource = "oracle"
	AnswerFromFallback AnswerSource = "fallback"
)

// QuizEvent is one detected timed multiple-choice announcement. It is
// constructed once while resolving and carries its own answer so nothing
// about the current quiz lives in shared process state.
type QuizEvent struct {
	ID         string
	Question   string
	Options    []string
	ObservedAt time.Time

	// Source is the venue message the event was detected in; its choice
	// layout, when present, is preferred for submission.
	Source venue.Message

	Answer     Letter
	AnswerFrom AnswerSource
}

// HasAnswer reports whether a letter was resolved (cache or oracle).
func (e *QuizEvent) HasAnswer() bool {
	return e.Answer.Valid()
}
