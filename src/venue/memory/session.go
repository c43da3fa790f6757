// Package memory provides an in-process venue session used by tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/quizsentry/quizsentry/src/venue"
)

// Click records one choice submission.
type Click struct {
	Target    string
	MessageID string
	Index     int
}

// Session is a scriptable venue.Session. Seed messages per target, inject
// errors, then inspect what the engine sent and clicked.
type Session struct {
	id string

	mu         sync.Mutex
	state      venue.State
	inbox      map[string][]venue.Message
	sent       map[string][]venue.Message
	clicks     []Click
	recentErr  error
	sendErr    error
	clickErr   error
	reconnects int

	// SendHook, when set, runs after every successful Send; tests use it
	// to script responder replies.
	SendHook func(target, text string)
}

func New(id string) *Session {
	return &Session{
		id:    id,
		state: venue.Connected,
		inbox: make(map[string][]venue.Message),
		sent:  make(map[string][]venue.Message),
	}
}

func (s *Session) Identity() string { return s.id }

func (s *Session) State() venue.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetState(state venue.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Seed appends messages to the target's history.
func (s *Session) Seed(target string, msgs ...venue.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox[target] = append(s.inbox[target], msgs...)
}

func (s *Session) SetRecentErr(err error) { s.mu.Lock(); s.recentErr = err; s.mu.Unlock() }
func (s *Session) SetSendErr(err error)   { s.mu.Lock(); s.sendErr = err; s.mu.Unlock() }
func (s *Session) SetClickErr(err error)  { s.mu.Lock(); s.clickErr = err; s.mu.Unlock() }

func (s *Session) Recent(ctx context.Context, target string, limit int) ([]venue.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recentErr != nil {
		return nil, s.recentErr
	}

	msgs := s.inbox[target]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	// Newest first, like a real history fetch.
	out := make([]venue.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (s *Session) Send(ctx context.Context, target, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.sendErr != nil {
		err := s.sendErr
		s.mu.Unlock()
		return err
	}
	s.sent[target] = append(s.sent[target], venue.Message{
		Sender: s.id,
		Text:   text,
		SentAt: time.Now(),
	})
	hook := s.SendHook
	s.mu.Unlock()

	if hook != nil {
		hook(target, text)
	}
	return nil
}

func (s *Session) Click(ctx context.Context, target string, msg venue.Message, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clickErr != nil {
		return s.clickErr
	}
	s.clicks = append(s.clicks, Click{Target: target, MessageID: msg.ID, Index: index})
	return nil
}

func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	s.state = venue.Connected
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = venue.Disconnected
	return nil
}

// SentTo returns everything sent to target through this session.
func (s *Session) SentTo(target string) []venue.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]venue.Message(nil), s.sent[target]...)
}

// Clicks returns every recorded choice submission.
func (s *Session) Clicks() []Click {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Click(nil), s.clicks...)
}

// Reconnects returns how many times Reconnect ran.
func (s *Session) Reconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}
