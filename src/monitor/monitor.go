// Package monitor runs the top-level state machine: scan the venue, detect
// fresh quiz events, resolve an answer, fan out submission, cool down,
// repeat; reconnect the session pool after repeated errors.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/quizsentry/quizsentry/src/accounts"
	"github.com/quizsentry/quizsentry/src/answercache"
	"github.com/quizsentry/quizsentry/src/classifier"
	"github.com/quizsentry/quizsentry/src/extract"
	"github.com/quizsentry/quizsentry/src/logging"
	"github.com/quizsentry/quizsentry/src/submit"
	"github.com/quizsentry/quizsentry/src/telemetry"
	"github.com/quizsentry/quizsentry/src/types"
	"github.com/quizsentry/quizsentry/src/venue"
)

// State names one phase of the monitoring loop.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateResolving
	StateSubmitting
	StateCooldown
	StateReconnecting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateResolving:
		return "resolving"
	case StateSubmitting:
		return "submitting"
	case StateCooldown:
		return "cooldown"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Resolver asks the oracle for a verdict on one question.
type Resolver interface {
	Resolve(ctx context.Context, s venue.Session, question string, options []string) (types.Letter, bool)
}

// Submitter fans a resolved event out across the session pool.
type Submitter interface {
	SubmitAll(ctx context.Context, event *types.QuizEvent, sessions []venue.Session) []submit.Outcome
}

// Config carries the loop's timing knobs.
type Config struct {
	// Venue is the chat context to watch; EventSource the identity that
	// posts quiz announcements there.
	Venue       string
	EventSource string

	ScanInterval time.Duration
	ScanLimit    int
	// MaxEventAge marks older quiz messages as stale backlog: processed,
	// never answered.
	MaxEventAge time.Duration
	Cooldown    time.Duration

	MaxConsecutiveErrors int
	ReconnectDelay       time.Duration
	ReconnectRetries     int

	// OracleIdentity optionally pins oracle traffic to one identity;
	// empty means the first connected session.
	OracleIdentity string
	DefaultLetter  types.Letter
}

func (c *Config) applyDefaults() {
	if c.ScanInterval <= 0 {
		c.ScanInterval = 5 * time.Second
	}
	if c.ScanLimit <= 0 {
		c.ScanLimit = 50
	}
	if c.MaxEventAge <= 0 {
		c.MaxEventAge = 5 * time.Minute
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Minute
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = 5
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	if c.ReconnectRetries <= 0 {
		c.ReconnectRetries = 2
	}
	if !c.DefaultLetter.Valid() {
		c.DefaultLetter = types.LetterB
	}
}

// Monitor owns the session pool and the processed-event set. Both are only
// ever touched from the single Run goroutine, so no locking discipline
// beyond "one writer" applies.
type Monitor struct {
	cfg Config

	source      accounts.Source
	connector   accounts.Connector
	cache       answercache.Store
	oracle      Resolver
	coordinator Submitter
	log         *zap.SugaredLogger

	sessions    []venue.Session
	authExpired map[string]bool
	processed   map[string]struct{}
	errStreak   int
	current     *types.QuizEvent

	now func() time.Time

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

func New(cfg Config, source accounts.Source, connector accounts.Connector,
	cache answercache.Store, oracle Resolver, coordinator Submitter,
	log *zap.SugaredLogger) *Monitor {

	cfg.applyDefaults()
	return &Monitor{
		cfg:         cfg,
		source:      source,
		connector:   connector,
		cache:       cache,
		oracle:      oracle,
		coordinator: coordinator,
		log:         log,
		authExpired: make(map[string]bool),
		processed:   make(map[string]struct{}),
		state:       StateIdle,
		now:         time.Now,
	}
}

// Run connects the pool, marks the existing backlog as processed, then
// drives the state machine until the context is cancelled, Stop is called,
// or reconnection fails outright.
func (m *Monitor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	defer cancel()

	if err := m.connectAll(ctx); err != nil {
		return err
	}
	defer m.disconnectAll()

	if err := m.bootstrap(ctx); err != nil {
		m.log.Warnw("bootstrap scan failed, backlog may be answered", "err", err)
	}
	m.setState(StateScanning)

	for {
		if ctx.Err() != nil {
			m.setState(StateStopped)
			m.log.Infow("monitor stopped")
			return nil
		}

		switch m.state {
		case StateScanning:
			if !sleepCtx(ctx, m.cfg.ScanInterval) {
				continue
			}
			event, err := m.scan(ctx)
			if err != nil {
				telemetry.LoopError()
				m.errStreak++
				m.log.Warnw("scan failed", "streak", m.errStreak, "err", err)
				if m.errStreak >= m.cfg.MaxConsecutiveErrors {
					m.setState(StateReconnecting)
				}
				continue
			}
			m.errStreak = 0
			if event != nil {
				m.current = event
				m.setState(StateResolving)
			}

		case StateResolving:
			m.resolve(ctx, m.current)
			m.setState(StateSubmitting)

		case StateSubmitting:
			m.submitEvent(ctx, m.current)
			m.current = nil
			m.setState(StateCooldown)

		case StateCooldown:
			sleepCtx(ctx, m.cfg.Cooldown)
			m.setState(StateScanning)

		case StateReconnecting:
			if err := m.reconnectAll(ctx); err != nil {
				m.setState(StateStopped)
				return fmt.Errorf("reconnect: %w", err)
			}
			m.errStreak = 0
			m.setState(StateScanning)

		default:
			m.setState(StateScanning)
		}
	}
}

// Stop requests a clean transition to the stopped state. Safe from any
// goroutine; already-submitted identities stay submitted.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

// State returns the loop's current phase. Safe from any goroutine, like
// Stop.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) setState(next State) {
	if m.state == next {
		return
	}
	m.log.Infow("state", "from", m.state.String(), "to", next.String())
	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
}

// bootstrap marks every quiz already in the scan window as processed so a
// restart never answers backlog quizzes.
func (m *Monitor) bootstrap(ctx context.Context) error {
	elected := m.electedSession()
	if elected == nil {
		return errors.New("no connected session")
	}

	msgs, err := elected.Recent(ctx, m.cfg.Venue, m.cfg.ScanLimit)
	if err != nil {
		return err
	}
	marked := 0
	for _, msg := range msgs {
		if msg.Sender == m.cfg.EventSource && classifier.IsQuiz(msg.Text) {
			m.processed[msg.ID] = struct{}{}
			marked++
		}
	}
	m.log.Infow("bootstrap complete", "backlog_marked", marked)
	return nil
}

// scan polls the venue through the elected session and returns the first
// fresh, unseen quiz event. Event ids enter the processed set exactly once,
// at classification time, so an event is never re-resolved.
func (m *Monitor) scan(ctx context.Context) (*types.QuizEvent, error) {
	elected := m.electedSession()
	if elected == nil {
		return nil, errors.New("no connected session")
	}

	msgs, err := elected.Recent(ctx, m.cfg.Venue, m.cfg.ScanLimit)
	if err != nil {
		return nil, fmt.Errorf("poll venue: %w", err)
	}

	for _, msg := range msgs {
		if msg.Sender != m.cfg.EventSource {
			continue
		}
		if _, seen := m.processed[msg.ID]; seen {
			continue
		}
		if !classifier.IsQuiz(msg.Text) {
			continue
		}

		m.processed[msg.ID] = struct{}{}

		if age := m.now().Sub(msg.SentAt); age > m.cfg.MaxEventAge {
			// Expired backlog entry, never answer it.
			telemetry.QuizStale()
			m.log.Infow("stale quiz ignored", "event", msg.ID, "age", age.Round(time.Second))
			continue
		}

		question, options := extract.Extract(msg.Text, msg.Choices)
		telemetry.QuizDetected()
		m.log.Infow("quiz detected", "event", msg.ID, "question", question, "options", len(options))

		return &types.QuizEvent{
			ID:         msg.ID,
			Question:   question,
			Options:    options,
			ObservedAt: m.now(),
			Source:     msg,
		}, nil
	}
	return nil, nil
}

// resolve attaches an answer to the event: cache hit, oracle verdict, or the
// documented default-letter fallback. Only oracle verdicts are cached.
func (m *Monitor) resolve(ctx context.Context, event *types.QuizEvent) {
	fallback := func(reason string) {
		event.Answer = m.cfg.DefaultLetter
		event.AnswerFrom = types.AnswerFromFallback
		telemetry.AnswerResolved(string(types.AnswerFromFallback))
		m.log.Warnw("falling back to default answer", "event", event.ID,
			"letter", event.Answer, "reason", reason)
	}

	if event.Question == extract.QuestionNotFound || len(event.Options) == 0 {
		fallback("no derivable question or options")
		return
	}

	if entry, ok, err := m.cache.Get(ctx, event.Question); err != nil {
		m.log.Warnw("answer cache lookup failed", "event", event.ID, "err", err)
	} else if ok && entry.Letter.Index() < len(event.Options) {
		event.Answer = entry.Letter
		event.AnswerFrom = types.AnswerFromCache
		telemetry.AnswerResolved(string(types.AnswerFromCache))
		m.log.Infow("answer from cache", "event", event.ID, "letter", entry.Letter, "uses", entry.UsageCount)
		return
	}

	session := m.oracleSession()
	if session == nil {
		fallback("no session available for oracle")
		return
	}
	letter, ok := m.oracle.Resolve(ctx, session, event.Question, event.Options)
	if !ok || letter.Index() >= len(event.Options) {
		fallback("oracle returned no usable answer")
		return
	}

	event.Answer = letter
	event.AnswerFrom = types.AnswerFromOracle
	telemetry.AnswerResolved(string(types.AnswerFromOracle))
	m.log.Infow("answer from oracle", "event", event.ID, "letter", letter)

	optionText := event.Options[letter.Index()]
	if err := m.cache.Put(ctx, event.Question, letter, optionText); err != nil {
		m.log.Warnw("answer cache write failed", "event", event.ID, "err", err)
	}
}

func (m *Monitor) submitEvent(ctx context.Context, event *types.QuizEvent) {
	sessions := m.connectedSessions()
	if len(sessions) == 0 {
		m.log.Warnw("no connected sessions to submit with", "event", event.ID)
		return
	}

	outcomes := m.coordinator.SubmitAll(ctx, event, sessions)
	for _, o := range outcomes {
		telemetry.Submission(o.Result.String())
	}
}

// connectAll builds the session pool from stored credentials. Identities
// whose authorization expired are skipped for the rest of the run; zero
// connectable identities is fatal.
func (m *Monitor) connectAll(ctx context.Context) error {
	accts, err := m.source.Load()
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	var sessions []venue.Session
	for _, acct := range accts {
		if m.authExpired[acct.IdentityID] {
			continue
		}
		s, err := m.connector.Connect(ctx, acct)
		if errors.Is(err, accounts.ErrAuthExpired) || logging.IsAuthExpired(err) {
			m.authExpired[acct.IdentityID] = true
			m.log.Warnw("authorization expired, identity disabled for this run", "identity", acct.IdentityID)
			continue
		}
		if err != nil {
			m.log.Warnw("connect failed", "identity", acct.IdentityID, "err", err)
			continue
		}
		m.log.Infow("connected", "identity", acct.IdentityID)
		sessions = append(sessions, s)
	}

	if len(sessions) == 0 {
		return errors.New("no identities connectable")
	}
	m.sessions = sessions
	m.log.Infow("session pool ready", "connected", len(sessions), "configured", len(accts))
	return nil
}

// reconnectAll tears the pool down and rebuilds it from stored credentials,
// retrying the whole pass on a fixed interval. Total failure is terminal;
// partial success continues with the reduced set.
func (m *Monitor) reconnectAll(ctx context.Context) error {
	telemetry.ReconnectAttempt()
	m.log.Warnw("reconnecting all sessions", "previous", len(m.sessions))
	m.disconnectAll()
	m.sessions = nil

	pass := func() error {
		return m.connectAll(ctx)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.cfg.ReconnectDelay), uint64(m.cfg.ReconnectRetries)),
		ctx,
	)
	return backoff.Retry(pass, policy)
}

func (m *Monitor) disconnectAll() {
	for _, s := range m.sessions {
		if err := s.Close(); err != nil {
			m.log.Debugw("close session", "identity", s.Identity(), "err", err)
		}
	}
}

// electedSession is the single session used for venue polling.
func (m *Monitor) electedSession() venue.Session {
	for _, s := range m.sessions {
		if s.State() == venue.Connected {
			return s
		}
	}
	return nil
}

// oracleSession prefers the configured oracle identity, falling back to the
// elected session.
func (m *Monitor) oracleSession() venue.Session {
	if m.cfg.OracleIdentity != "" {
		for _, s := range m.sessions {
			if s.Identity() == m.cfg.OracleIdentity && s.State() == venue.Connected {
				return s
			}
		}
	}
	return m.electedSession()
}

func (m *Monitor) connectedSessions() []venue.Session {
	var out []venue.Session
	for _, s := range m.sessions {
		if s.State() == venue.Connected {
			out = append(out, s)
		}
	}
	return out
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
