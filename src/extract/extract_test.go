package extract

import (
	"testing"

	"github.com/quizsentry/quizsentry/src/venue"
)

const quizText = `🧠 Quick Quiz Time!
Which city is the capital of France?
A) Paris
B) Rome
C) Berlin
D) Madrid
⏳ Answer within 5 minutes
Reward: Wheel of Fortune spin`

func TestExtractPrefersChoiceLayout(t *testing.T) {
	layout := [][]venue.Choice{
		{{Label: "Paris"}, {Label: "Rome"}},
		{{Label: " Berlin "}, {Label: ""}, {Label: "Madrid"}},
	}

	question, options := Extract(quizText, layout)
	if question != "Which city is the capital of France?" {
		t.Fatalf("question = %q", question)
	}
	want := []string{"Paris", "Rome", "Berlin", "Madrid"}
	if len(options) != len(want) {
		t.Fatalf("options = %v, want %v", options, want)
	}
	for i := range want {
		if options[i] != want[i] {
			t.Fatalf("options[%d] = %q, want %q", i, options[i], want[i])
		}
	}
}

func TestExtractScansLetteredLines(t *testing.T) {
	question, options := Extract(quizText, nil)
	if question != "Which city is the capital of France?" {
		t.Fatalf("question = %q", question)
	}
	if len(options) != 4 || options[0] != "Paris" || options[3] != "Madrid" {
		t.Fatalf("options = %v", options)
	}
}

func TestExtractAcceptsDotLabels(t *testing.T) {
	_, options := Extract("Pick one\nA. first\nB. second", nil)
	if len(options) != 2 || options[0] != "first" || options[1] != "second" {
		t.Fatalf("options = %v", options)
	}
}

func TestExtractPreambleFallback(t *testing.T) {
	// No line is question-shaped or long enough on its own; the joined
	// preamble above the options still is.
	question, options := Extract("Best crypto\ncoin today\nA) BTC\nB) ETH", nil)
	if question != "Best crypto coin today" {
		t.Fatalf("question = %q", question)
	}
	if len(options) != 2 {
		t.Fatalf("options = %v", options)
	}
}

func TestExtractEmpty(t *testing.T) {
	question, options := Extract("", nil)
	if question != QuestionNotFound {
		t.Fatalf("question = %q, want sentinel", question)
	}
	if len(options) != 0 {
		t.Fatalf("options = %v, want none", options)
	}
}

func TestQuestionStripsDecorativePrefix(t *testing.T) {
	got := Question("🔥 What is the hottest planet?\nA) Venus\nB) Mercury")
	if got != "What is the hottest planet?" {
		t.Fatalf("question = %q", got)
	}
}

func TestQuestionEmojiPuzzle(t *testing.T) {
	text := "🧩 Emoji Puzzle 🧩\nWhat do these emojis represent?\n🎮🕹️\n⏳ Answer within 2 minutes\nSpin for all!"

	got := Question(text)
	if got != "What do these emojis represent? 🎮🕹️" {
		t.Fatalf("question = %q", got)
	}
}

func TestQuestionEmojiPuzzleSynthesizesQuestion(t *testing.T) {
	// The glyph line alone still yields an answerable question.
	text := "🧩 Emoji Puzzle 🧩\nGuess it!\n🚀🌕\n⏳ 2 minutes"

	got := Question(text)
	if got != "What do these emojis represent? 🚀🌕" {
		t.Fatalf("question = %q", got)
	}
}

func TestQuestionSkipsBoilerplate(t *testing.T) {
	// Every candidate line is boilerplate; the long-line fallback must not
	// pick one of them either.
	text := "Quick Quiz time, choose the correct option below!\n⏳ Answer within 5 minutes"
	if got := Question(text); got != QuestionNotFound {
		t.Fatalf("question = %q, want sentinel", got)
	}
}
