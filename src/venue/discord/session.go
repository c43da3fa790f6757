// Package discord adapts a discordgo session to the venue contract.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/quizsentry/quizsentry/src/accounts"
	"github.com/quizsentry/quizsentry/src/logging"
	"github.com/quizsentry/quizsentry/src/venue"
)

// Connector dials Discord gateway sessions from stored account credentials.
type Connector struct {
	log *zap.SugaredLogger
}

func NewConnector(log *zap.SugaredLogger) *Connector {
	return &Connector{log: log}
}

func (c *Connector) Connect(ctx context.Context, acct accounts.Account) (venue.Session, error) {
	dg, err := discordgo.New("Bot " + acct.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", acct.IdentityID, err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	if err := dg.Open(); err != nil {
		if logging.IsAuthExpired(err) {
			return nil, fmt.Errorf("open session %s: %w", acct.IdentityID, accounts.ErrAuthExpired)
		}
		return nil, fmt.Errorf("open session %s: %w", acct.IdentityID, err)
	}

	return &Session{id: acct.IdentityID, dg: dg, state: venue.Connected, log: c.log}, nil
}

// Session is one authenticated gateway connection.
type Session struct {
	id  string
	dg  *discordgo.Session
	log *zap.SugaredLogger

	mu    sync.Mutex
	state venue.State
}

func (s *Session) Identity() string { return s.id }

func (s *Session) State() venue.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Recent(ctx context.Context, target string, limit int) ([]venue.Message, error) {
	msgs, err := s.dg.ChannelMessages(target, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		s.noteErr(err)
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	out := make([]venue.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, venue.Message{
			ID:      m.ID,
			Sender:  m.Author.ID,
			Text:    m.Content,
			SentAt:  m.Timestamp,
			Choices: choiceRows(m.Components),
		})
	}
	return out, nil
}

func (s *Session) Send(ctx context.Context, target, text string) error {
	if _, err := s.dg.ChannelMessageSend(target, text, discordgo.WithContext(ctx)); err != nil {
		s.noteErr(err)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Click submits the choice at index. The venue's quiz application accepts a
// reply naming the option as an answer, which is the only submission path
// open to a non-owning application; the structured layout still drives the
// index-to-label mapping.
func (s *Session) Click(ctx context.Context, target string, msg venue.Message, index int) error {
	choice, ok := msg.ChoiceAt(index)
	if !ok {
		return fmt.Errorf("no choice target at index %d", index)
	}

	ref := &discordgo.MessageReference{MessageID: msg.ID, ChannelID: target}
	if _, err := s.dg.ChannelMessageSendReply(target, choice.Label, ref, discordgo.WithContext(ctx)); err != nil {
		s.noteErr(err)
		return fmt.Errorf("submit choice: %w", err)
	}
	return nil
}

func (s *Session) Reconnect(ctx context.Context) error {
	_ = s.dg.Close()
	if err := s.dg.Open(); err != nil {
		s.noteErr(err)
		return fmt.Errorf("reopen session %s: %w", s.id, err)
	}
	s.mu.Lock()
	s.state = venue.Connected
	s.mu.Unlock()
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.state = venue.Disconnected
	s.mu.Unlock()
	return s.dg.Close()
}

func (s *Session) noteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logging.IsAuthExpired(err) {
		s.state = venue.AuthExpired
	}
}

// choiceRows flattens button components into the venue choice layout.
func choiceRows(components []discordgo.MessageComponent) [][]venue.Choice {
	var rows [][]venue.Choice
	for ri, comp := range components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		var choices []venue.Choice
		for ci, inner := range row.Components {
			btn, ok := inner.(*discordgo.Button)
			if !ok {
				continue
			}
			label := strings.TrimSpace(btn.Label)
			if label == "" {
				continue
			}
			choices = append(choices, venue.Choice{Label: label, Row: ri, Col: ci})
		}
		if len(choices) > 0 {
			rows = append(rows, choices)
		}
	}
	return rows
}
