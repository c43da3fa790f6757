package classifier

import "testing"

const fullQuiz = `🧠 Quick Quiz Time!
Which city is the capital of France?
A) Paris
B) Rome
⏳ Answer within 5 minutes
Reward: Wheel of Fortune spin`

func TestIsQuiz(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"full quiz", fullQuiz, true},
		{"emoji puzzle variant", "Emoji Puzzle 🧩\nWhat do these emojis represent?\n⏳ 2 minutes\nSpin for all!", true},
		{"empty", "", false},
		{"missing quiz phrase", "Which city?\n⏳ 5 minutes\nReward: spin", false},
		{"missing time limit", "Quick quiz!\nWhich city?\nReward: spin", false},
		{"missing reward", "Quick quiz!\nWhich city?\n⏳ 5 minutes", false},
		{"casual chatter", "that quiz yesterday was fun, took me 10 minutes", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsQuiz(tc.text); got != tc.want {
				t.Fatalf("IsQuiz(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestIsQuizNeedsAllThreeCategories(t *testing.T) {
	// Any two categories without the third must not classify.
	pairs := []string{
		"quick quiz ⏳",             // quiz + time
		"quick quiz reward: spin",  // quiz + reward
		"⏳ minutes reward: spin",   // time + reward
	}
	for _, text := range pairs {
		if IsQuiz(text) {
			t.Fatalf("IsQuiz(%q) = true, want false", text)
		}
	}
}
