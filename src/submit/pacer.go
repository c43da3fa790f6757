package submit

import (
	"sync"
	"time"
)

// Pacer tracks identities the venue has rate limited so the next attempt
// waits out the pause instead of tripping the limit again.
type Pacer struct {
	until map[string]time.Time
	mu    sync.Mutex
	pause time.Duration
}

func NewPacer(pause time.Duration) *Pacer {
	return &Pacer{
		until: make(map[string]time.Time),
		pause: pause,
	}
}

// Pause marks the identity as rate limited from now.
func (p *Pacer) Pause(identity string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.until[identity] = time.Now().Add(p.pause)
}

// Remaining returns how long the identity still has to wait, zero when it
// may proceed.
func (p *Pacer) Remaining(identity string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	deadline, exists := p.until[identity]
	if !exists {
		return 0
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		delete(p.until, identity)
		return 0
	}
	return remaining
}
