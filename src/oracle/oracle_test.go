package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quizsentry/quizsentry/src/logging"
	"github.com/quizsentry/quizsentry/src/types"
	"github.com/quizsentry/quizsentry/src/venue"
	"github.com/quizsentry/quizsentry/src/venue/memory"
)

const responder = "quizmaster"

func testClient() *Client {
	return New(Config{
		Responder:      responder,
		ResearchWindow: 5 * time.Millisecond,
		SettleDelay:    time.Millisecond,
		Attempts:       2,
		RetryGap:       time.Millisecond,
		FetchLimit:     20,
	}, logging.Nop())
}

func TestResolveReadsResponderReply(t *testing.T) {
	s := memory.New("scout")
	s.SendHook = func(target, text string) {
		s.Seed(target, venue.Message{
			Sender: responder,
			Text:   "The answer is C",
			SentAt: time.Now().Add(time.Millisecond),
		})
	}

	letter, ok := testClient().Resolve(context.Background(), s, "Which city?", []string{"Paris", "Rome", "Berlin"})
	if !ok || letter != types.LetterC {
		t.Fatalf("Resolve = (%q, %v), want (C, true)", letter, ok)
	}

	sent := s.SentTo(responder)
	if len(sent) != 1 {
		t.Fatalf("sent %d prompts, want 1", len(sent))
	}
	prompt := sent[0].Text
	for _, want := range []string{"Which city?", "A) Paris", "B) Rome", "C) Berlin", "ONLY one letter"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestResolveMatchesSenderDistinctFromTarget(t *testing.T) {
	// On channel-addressed venues the dispatch target is not the
	// responder's own id; the reply filter must go by sender.
	s := memory.New("scout")
	s.SendHook = func(target, text string) {
		s.Seed(target, venue.Message{
			Sender: "responder-user-456",
			Text:   "The answer is C",
			SentAt: time.Now().Add(time.Millisecond),
		})
	}

	client := New(Config{
		Responder:       "dm-channel-123",
		ResponderSender: "responder-user-456",
		ResearchWindow:  5 * time.Millisecond,
		SettleDelay:     time.Millisecond,
		Attempts:        2,
		RetryGap:        time.Millisecond,
		FetchLimit:      20,
	}, logging.Nop())

	letter, ok := client.Resolve(context.Background(), s, "Which city?", []string{"Paris", "Rome", "Berlin"})
	if !ok || letter != types.LetterC {
		t.Fatalf("Resolve = (%q, %v), want (C, true)", letter, ok)
	}
	if len(s.SentTo("dm-channel-123")) != 1 {
		t.Fatal("prompt not dispatched to the responder target")
	}
}

func TestResolveIgnoresRepliesBeforeDispatch(t *testing.T) {
	s := memory.New("scout")
	s.Seed(responder, venue.Message{
		Sender: responder,
		Text:   "The answer is A",
		SentAt: time.Now().Add(-time.Minute),
	})

	if letter, ok := testClient().Resolve(context.Background(), s, "q", []string{"x", "y"}); ok {
		t.Fatalf("Resolve = (%q, true), want no answer", letter)
	}
}

func TestResolveNoReply(t *testing.T) {
	s := memory.New("scout")
	if letter, ok := testClient().Resolve(context.Background(), s, "q", []string{"x", "y"}); ok {
		t.Fatalf("Resolve = (%q, true), want no answer", letter)
	}
}

func TestResolveDispatchFailure(t *testing.T) {
	s := memory.New("scout")
	s.SetSendErr(errors.New("boom"))

	if _, ok := testClient().Resolve(context.Background(), s, "q", []string{"x", "y"}); ok {
		t.Fatal("Resolve succeeded despite dispatch failure")
	}
	if len(s.SentTo(responder)) != 0 {
		t.Fatal("prompt recorded despite send error")
	}
}

func TestResolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := testClient().Resolve(ctx, memory.New("scout"), "q", []string{"x"}); ok {
		t.Fatal("Resolve succeeded on cancelled context")
	}
}

func TestBuildPromptWindowSeconds(t *testing.T) {
	prompt := BuildPrompt("q", []string{"x"}, 20*time.Second)
	if !strings.Contains(prompt, "20 seconds") {
		t.Fatalf("prompt missing window: %s", prompt)
	}
}
