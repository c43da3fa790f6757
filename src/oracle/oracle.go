// Package oracle consults an external text-answering agent through a venue
// session and distills its free-text reply into a single-letter verdict.
package oracle

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quizsentry/quizsentry/src/types"
	"github.com/quizsentry/quizsentry/src/venue"
)

// Config carries the oracle's timing and retry budget as first-class
// parameters.
type Config struct {
	// Responder is the chat target the prompt is dispatched to and replies
	// are fetched from.
	Responder string
	// ResponderSender is the sender id replies are matched by. On venues
	// where the dispatch target is a channel rather than the responder's
	// own id the two differ; empty means the Responder id.
	ResponderSender string
	// ResearchWindow is how long the responder gets before we start
	// reading replies.
	ResearchWindow time.Duration
	// SettleDelay gives the responder a moment to finish self-edits.
	SettleDelay time.Duration
	// Attempts bounds reply polling; RetryGap separates empty attempts.
	Attempts int
	RetryGap time.Duration
	// FetchLimit bounds the reply window fetched per attempt.
	FetchLimit int
}

func (c *Config) applyDefaults() {
	if c.ResponderSender == "" {
		c.ResponderSender = c.Responder
	}
	if c.ResearchWindow <= 0 {
		c.ResearchWindow = 20 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.RetryGap <= 0 {
		c.RetryGap = 2 * time.Second
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = 20
	}
}

type Client struct {
	cfg Config
	log *zap.SugaredLogger
}

func New(cfg Config, log *zap.SugaredLogger) *Client {
	cfg.applyDefaults()
	return &Client{cfg: cfg, log: log}
}

// Resolve sends the research prompt through the session and polls the
// responder's replies for a verdict letter. Any transport error aborts
// resolution and is reported as "no answer"; the caller applies its own
// fallback policy.
func (c *Client) Resolve(ctx context.Context, s venue.Session, question string, options []string) (types.Letter, bool) {
	prompt := BuildPrompt(question, options, c.cfg.ResearchWindow)

	dispatchedAt := time.Now()
	if err := s.Send(ctx, c.cfg.Responder, prompt); err != nil {
		c.log.Warnw("oracle dispatch failed", "responder", c.cfg.Responder, "err", err)
		return "", false
	}

	if !sleepCtx(ctx, c.cfg.ResearchWindow+c.cfg.SettleDelay) {
		return "", false
	}

	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		msgs, err := s.Recent(ctx, c.cfg.Responder, c.cfg.FetchLimit)
		if err != nil {
			c.log.Warnw("oracle reply fetch failed", "attempt", attempt, "err", err)
			return "", false
		}

		replies := repliesAfter(msgs, c.cfg.ResponderSender, dispatchedAt)
		if len(replies) == 0 {
			if attempt < c.cfg.Attempts && !sleepCtx(ctx, c.cfg.RetryGap) {
				return "", false
			}
			continue
		}

		for _, reply := range replies {
			if letter, ok := ExtractLetter(reply.Text); ok {
				return letter, true
			}
		}
	}
	return "", false
}

// repliesAfter keeps messages from the responder's sender id newer than the
// dispatch timestamp, newest first.
func repliesAfter(msgs []venue.Message, sender string, t0 time.Time) []venue.Message {
	var replies []venue.Message
	for _, m := range msgs {
		if m.Sender == sender && m.Text != "" && m.SentAt.After(t0) {
			replies = append(replies, m)
		}
	}
	sort.Slice(replies, func(i, j int) bool {
		return replies[i].SentAt.After(replies[j].SentAt)
	})
	return replies
}

// BuildPrompt formats the research prompt: the question, lettered options,
// and the strict single-letter response contract.
func BuildPrompt(question string, options []string, window time.Duration) string {
	var b strings.Builder

	fmt.Fprintf(&b, "QUIZ ANALYSIS - %d seconds to research.\n\n", int(window.Seconds()))
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	for i, opt := range options {
		fmt.Fprintf(&b, "%s) %s\n", types.LetterAt(i), opt)
	}

	b.WriteString(`
Research the question, eliminate wrong options and pick the best one.
For emoji sequences, consider movies, games, crypto and pop-culture references.

RESPONSE FORMAT:
- Reply with ONLY one letter: A, B, C, D, or E
- No explanations, no reasoning, no prefixes
- Never repeat the letter (no "BB" or "AAA")
- Example correct response: B
`)
	return b.String()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
