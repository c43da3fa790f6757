package types

import "testing"

func TestLetterIndex(t *testing.T) {
	cases := []struct {
		letter Letter
		want   int
	}{
		{LetterA, 0}, {LetterB, 1}, {LetterE, 4},
		{"F", -1}, {"a", -1}, {"", -1}, {"AB", -1},
	}
	for _, tc := range cases {
		if got := tc.letter.Index(); got != tc.want {
			t.Fatalf("Index(%q) = %d, want %d", tc.letter, got, tc.want)
		}
	}
}

func TestLetterAt(t *testing.T) {
	if LetterAt(2) != LetterC {
		t.Fatalf("LetterAt(2) = %q", LetterAt(2))
	}
	if LetterAt(5) != "" || LetterAt(-1) != "" {
		t.Fatal("out-of-range index produced a letter")
	}
}

func TestHasAnswer(t *testing.T) {
	e := &QuizEvent{}
	if e.HasAnswer() {
		t.Fatal("empty event has an answer")
	}
	e.Answer = LetterB
	if !e.HasAnswer() {
		t.Fatal("answered event reports no answer")
	}
}
