// Package venue defines the contract between the quiz engine and the chat
// venue it watches. Concrete transports live in subpackages; the engine only
// ever sees these types.
package venue

import (
	"context"
	"time"
)

// State is the connection state of one identity session.
type State int

const (
	Disconnected State = iota
	Connected
	// AuthExpired means the stored credentials no longer work and the
	// identity needs external re-authorization. Such sessions are skipped
	// for the remainder of the run.
	AuthExpired
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case AuthExpired:
		return "auth-expired"
	default:
		return "disconnected"
	}
}

// Choice is one clickable target in a message's choice layout.
type Choice struct {
	Label string
	Row   int
	Col   int
}

// Message is one venue message in the scan window.
type Message struct {
	ID     string
	Sender string
	Text   string
	SentAt time.Time

	// Choices holds the structured choice layout, rows of clickable
	// targets, when the venue provided one. Nil for plain text messages.
	Choices [][]Choice
}

// ChoiceCount returns the number of clickable targets across all rows.
func (m Message) ChoiceCount() int {
	n := 0
	for _, row := range m.Choices {
		n += len(row)
	}
	return n
}

// ChoiceAt returns the target at the given absolute index, row-major.
func (m Message) ChoiceAt(index int) (Choice, bool) {
	if index < 0 {
		return Choice{}, false
	}
	i := 0
	for _, row := range m.Choices {
		for _, c := range row {
			if i == index {
				return c, true
			}
			i++
		}
	}
	return Choice{}, false
}

// ChoiceLabels returns the ordered target labels, row-major.
func (m Message) ChoiceLabels() []string {
	var labels []string
	for _, row := range m.Choices {
		for _, c := range row {
			labels = append(labels, c.Label)
		}
	}
	return labels
}

// Session is one authenticated connection acting as a distinct participant.
// Implementations own connect/reconnect and the message I/O primitives; all
// blocking operations honor the context.
type Session interface {
	// Identity returns the human-assigned label of the identity.
	Identity() string

	// State returns the current connection state.
	State() State

	// Recent fetches up to limit of the newest messages from the target
	// context, newest first.
	Recent(ctx context.Context, target string, limit int) ([]Message, error)

	// Send posts a text message to the target context.
	Send(ctx context.Context, target, text string) error

	// Click submits the choice at the absolute index on the given message.
	Click(ctx context.Context, target string, msg Message, index int) error

	// Reconnect re-establishes the connection after an I/O failure.
	Reconnect(ctx context.Context) error

	Close() error
}
