package memory

import (
	"context"
	"sync"

	"scholarspath-quiz/internal/domain"
)

// Presence tracks the attempts held open by this process.
type Presence struct {
	mu       sync.RWMutex
	attempts map[string]domain.Selection
}

func NewPresence() *Presence {
	return &Presence{attempts: make(map[string]domain.Selection)}
}

func (p *Presence) Track(_ context.Context, attemptID string, sel domain.Selection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[attemptID] = sel
}

func (p *Presence) Touch(context.Context, string) {}

func (p *Presence) Release(_ context.Context, attemptID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, attemptID)
}

func (p *Presence) Active() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.attempts)
}
