// Package extract derives question text and the ordered option list from a
// quiz message. Everything here is pure: extraction never fails, it degrades
// to the QuestionNotFound sentinel and an empty option list, which callers
// treat as "cannot resolve this event".
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/quizsentry/quizsentry/src/venue"
)

// QuestionNotFound is returned when no question line could be derived.
const QuestionNotFound = "question not found"

// optionLine matches "A) text" and "A. text" option lines, labels A-E.
var optionLine = regexp.MustCompile(`^([A-E])[).]\s*(.+)$`)

// decorativePrefix strips leading eye-catcher glyphs from a question line.
var decorativePrefix = regexp.MustCompile(`^[🧠🧩✨🔥⚡🎯]+\s*`)

// skipPhrases marks boilerplate lines that can never be the question.
var skipPhrases = []string{
	"quick quiz", "emoji puzzle", "reward:", "make sure", "choose the correct",
	"answer within", "add our bot", "do not share", "spin for all",
}

var questionWords = []string{"what", "which", "who", "how", "when", "where"}

// pictographs covers the symbol and pictograph code ranges recognized as
// emoji-puzzle glyph content.
var pictographs = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2300, Hi: 0x23FF, Stride: 1},
		{Lo: 0x25A0, Hi: 0x25FF, Stride: 1},
		{Lo: 0x2600, Hi: 0x27EF, Stride: 1},
		{Lo: 0x2B00, Hi: 0x2BFF, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F000, Hi: 0x1F02F, Stride: 1},
		{Lo: 0x1F0A0, Hi: 0x1F0FF, Stride: 1},
		{Lo: 0x1F100, Hi: 0x1F2FF, Stride: 1},
		{Lo: 0x1F300, Hi: 0x1F9FF, Stride: 1},
		{Lo: 0x1FA00, Hi: 0x1FAFF, Stride: 1},
	},
}

// Extract derives the question and ordered options from a quiz message.
// A structured choice layout wins over free-text parsing because it is
// unambiguous; the free-text path scans for lettered option lines.
func Extract(text string, layout [][]venue.Choice) (string, []string) {
	question := Question(text)

	if len(layout) > 0 {
		var options []string
		for _, row := range layout {
			for _, c := range row {
				label := strings.TrimSpace(c.Label)
				if label != "" {
					options = append(options, label)
				}
			}
		}
		if len(options) > 0 {
			return question, options
		}
	}

	preamble, options := scanOptionLines(text)
	if question == QuestionNotFound && len(preamble) > 10 {
		question = preamble
	}
	return question, options
}

// scanOptionLines walks the message line by line collecting lettered option
// lines; lines before the first option are joined as the question preamble.
func scanOptionLines(text string) (string, []string) {
	var preamble []string
	var options []string

	for _, line := range strings.Split(text, "\n") {
		if m := optionLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			options = append(options, strings.TrimSpace(m[2]))
		} else if len(options) == 0 {
			preamble = append(preamble, strings.TrimSpace(line))
		}
	}
	return strings.TrimSpace(strings.Join(preamble, " ")), options
}

// Question extracts the question text, keeping glyphs that are semantically
// part of it (emoji puzzles).
func Question(text string) string {
	if text == "" {
		return QuestionNotFound
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	if isEmojiPuzzle(text) {
		if q := emojiPuzzleQuestion(lines); q != "" {
			return q
		}
	}

	for _, line := range lines {
		if isBoilerplate(line) {
			continue
		}
		lower := strings.ToLower(line)
		if !hasQuestionWord(lower) && !strings.HasSuffix(line, "?") {
			continue
		}
		question := strings.TrimSpace(decorativePrefix.ReplaceAllString(line, ""))
		if len(question) > 10 {
			return question
		}
	}

	// No question-shaped line; settle for the first substantial one.
	for _, line := range lines {
		if len(line) > 20 && !isBoilerplate(line) {
			return line
		}
	}
	return QuestionNotFound
}

func isEmojiPuzzle(text string) bool {
	return strings.Contains(strings.ToLower(text), "emoji puzzle") || strings.Contains(text, "🧩")
}

// emojiPuzzleQuestion locates the question line and the glyph line
// independently and joins them; the glyph sequence is part of the question.
func emojiPuzzleQuestion(lines []string) string {
	var questionLine, glyphLine string

	for _, line := range lines {
		if isBoilerplate(line) {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "what") &&
			(strings.Contains(lower, "these emojis") || strings.Contains(lower, "emoji") || strings.Contains(lower, "represent")) {
			questionLine = line
			break
		}
	}

	for _, line := range lines {
		if isBoilerplate(line) || strings.EqualFold(line, questionLine) {
			continue
		}
		// A short line with real glyph content; the length cap avoids
		// prose lines that merely contain one emoji.
		if glyphRunes(line) >= 2 && utf8.RuneCountInString(line) <= 50 {
			glyphLine = line
			break
		}
	}

	switch {
	case questionLine != "" && glyphLine != "":
		return questionLine + " " + glyphLine
	case glyphLine != "":
		return "What do these emojis represent? " + glyphLine
	case questionLine != "":
		return questionLine
	}
	return ""
}

func glyphRunes(line string) int {
	n := 0
	for _, r := range line {
		if unicode.Is(pictographs, r) {
			n++
		}
	}
	return n
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range skipPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func hasQuestionWord(lower string) bool {
	for _, w := range questionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
