// Package submit fans one resolved quiz event out across every identity
// session in rate-limited batches.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quizsentry/quizsentry/src/logging"
	"github.com/quizsentry/quizsentry/src/types"
	"github.com/quizsentry/quizsentry/src/venue"
)

// Result is the per-identity submission outcome.
type Result int

const (
	ResultSubmitted Result = iota
	ResultFailed
	ResultSkipped
)

func (r Result) String() string {
	switch r {
	case ResultSubmitted:
		return "submitted"
	case ResultSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Outcome records what happened for one (event, identity) pair. Outcomes are
// aggregated per event for reporting and discarded at cooldown.
type Outcome struct {
	Identity string
	Result   Result
	Err      error
}

// DefaultOptionIndex is submitted when no letter was resolved for the event.
// Answering with a guess rather than abstaining is deliberate, inherited
// behavior; callers that want abstention must check HasAnswer first.
const DefaultOptionIndex = 1 // option B

var errEventNotVisible = errors.New("quiz message not visible to this identity")

// Config carries the batch pacing knobs.
type Config struct {
	// Venue is the chat context the quiz lives in; EventSource the sender
	// id of quiz announcements.
	Venue       string
	EventSource string
	// ScanLimit bounds each identity's own event lookup window.
	ScanLimit int
	BatchSize int
	// BatchDelay separates batches; IdentityDelay staggers identities
	// inside one batch.
	BatchDelay    time.Duration
	IdentityDelay time.Duration
	// RatePause is how long a rate-limited identity sits out.
	RatePause time.Duration
}

func (c *Config) applyDefaults() {
	if c.ScanLimit <= 0 {
		c.ScanLimit = 30
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 5 * time.Second
	}
	if c.IdentityDelay <= 0 {
		c.IdentityDelay = 200 * time.Millisecond
	}
	if c.RatePause <= 0 {
		c.RatePause = 2 * time.Second
	}
}

type Coordinator struct {
	cfg   Config
	pacer *Pacer
	log   *zap.SugaredLogger
}

func New(cfg Config, log *zap.SugaredLogger) *Coordinator {
	cfg.applyDefaults()
	return &Coordinator{
		cfg:   cfg,
		pacer: NewPacer(cfg.RatePause),
		log:   log,
	}
}

// SubmitAll drives every session, in batches, to independently locate the
// event and submit the event's answer. A single identity's failure never
// aborts the run; cancellation abandons identities not yet attempted and
// leaves already-submitted ones submitted.
func (c *Coordinator) SubmitAll(ctx context.Context, event *types.QuizEvent, sessions []venue.Session) []Outcome {
	index := event.Answer.Index()
	if index < 0 {
		index = DefaultOptionIndex
		c.log.Warnw("no resolved answer, submitting default option",
			"event", event.ID, "index", index)
	}

	runID := uuid.NewString()[:8]
	outcomes := make([]Outcome, len(sessions))
	started := time.Now()

	totalBatches := (len(sessions) + c.cfg.BatchSize - 1) / c.cfg.BatchSize
	for start := 0; start < len(sessions); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(sessions) {
			end = len(sessions)
		}
		batch := sessions[start:end]
		batchNum := start/c.cfg.BatchSize + 1
		if totalBatches > 1 {
			c.log.Infow("submission batch", "run", runID,
				"batch", fmt.Sprintf("%d/%d", batchNum, totalBatches), "identities", len(batch))
		}

		eg := new(errgroup.Group)
		eg.SetLimit(c.cfg.BatchSize)
		for i, s := range batch {
			pos, session := start+i, s
			stagger := time.Duration(i) * c.cfg.IdentityDelay
			eg.Go(func() error {
				if !sleepCtx(ctx, stagger) {
					outcomes[pos] = Outcome{Identity: session.Identity(), Result: ResultFailed, Err: ctx.Err()}
					return nil
				}
				outcomes[pos] = c.submitOne(ctx, event, index, session)
				return nil
			})
		}
		_ = eg.Wait()

		if end < len(sessions) {
			if !sleepCtx(ctx, c.cfg.BatchDelay) {
				for pos := end; pos < len(sessions); pos++ {
					outcomes[pos] = Outcome{Identity: sessions[pos].Identity(), Result: ResultFailed, Err: ctx.Err()}
				}
				break
			}
		}
	}

	submitted, failed, skipped := tally(outcomes)
	c.log.Infow("submission complete", "run", runID, "event", event.ID,
		"submitted", submitted, "failed", failed, "skipped", skipped,
		"elapsed", time.Since(started).Round(100*time.Millisecond))
	return outcomes
}

// submitOne locates the event in this identity's own view of the venue and
// clicks the answer. Scanning per identity defends against visibility skew
// between identities.
func (c *Coordinator) submitOne(ctx context.Context, event *types.QuizEvent, index int, s venue.Session) Outcome {
	identity := s.Identity()

	if wait := c.pacer.Remaining(identity); wait > 0 {
		if !sleepCtx(ctx, wait) {
			return Outcome{Identity: identity, Result: ResultFailed, Err: ctx.Err()}
		}
	}

	msgs, err := s.Recent(ctx, c.cfg.Venue, c.cfg.ScanLimit)
	if err != nil {
		return c.classify(identity, event.ID, fmt.Errorf("scan venue: %w", err))
	}

	for _, m := range msgs {
		if m.Sender != c.cfg.EventSource || m.ID != event.ID {
			continue
		}
		if index >= m.ChoiceCount() {
			c.log.Infow("answer index beyond choice targets", "identity", identity,
				"event", event.ID, "index", index, "targets", m.ChoiceCount())
			return Outcome{Identity: identity, Result: ResultSkipped}
		}
		if err := s.Click(ctx, c.cfg.Venue, m, index); err != nil {
			return c.classify(identity, event.ID, err)
		}
		c.log.Infow("submitted", "identity", identity, "event", event.ID, "option", types.LetterAt(index))
		return Outcome{Identity: identity, Result: ResultSubmitted}
	}
	return c.classify(identity, event.ID, errEventNotVisible)
}

func (c *Coordinator) classify(identity, eventID string, err error) Outcome {
	switch {
	case logging.IsIdempotentConflict(err):
		// The event was already answered by this identity through some
		// other path; that is success.
		c.log.Infow("already answered", "identity", identity, "event", eventID)
		return Outcome{Identity: identity, Result: ResultSubmitted}
	case logging.IsRateLimit(err):
		c.pacer.Pause(identity)
		c.log.Warnw("rate limited", "identity", identity, "event", eventID)
		return Outcome{Identity: identity, Result: ResultFailed, Err: err}
	default:
		c.log.Warnw("submission failed", "identity", identity, "event", eventID, "err", err)
		return Outcome{Identity: identity, Result: ResultFailed, Err: err}
	}
}

func tally(outcomes []Outcome) (submitted, failed, skipped int) {
	for _, o := range outcomes {
		switch o.Result {
		case ResultSubmitted:
			submitted++
		case ResultSkipped:
			skipped++
		default:
			failed++
		}
	}
	return
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
