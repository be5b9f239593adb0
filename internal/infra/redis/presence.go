package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"scholarspath-quiz/internal/domain"
)

// Presence tracks the attempts held open by this instance.
// Notes:
//   - The authoritative set is the local map; Redis only carries a liveness marker
//     per attempt (SET quiz:attempt:{id} {selection} EX ttl) so other instances and
//     operators can see what is running.
//   - Marker writes are best effort and never fail an attempt.
type Presence struct {
	client *redis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	attempts map[string]domain.Selection
}

func NewPresence(client *redis.Client, ttl time.Duration) *Presence {
	return &Presence{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]domain.Selection),
	}
}

func (p *Presence) Track(ctx context.Context, attemptID string, sel domain.Selection) {
	p.mu.Lock()
	p.attempts[attemptID] = sel
	p.mu.Unlock()
	_ = p.client.Set(ctx, p.key(attemptID), sel.String(), p.ttl).Err()
}

// Touch refreshes the liveness marker of a tracked attempt.
func (p *Presence) Touch(ctx context.Context, attemptID string) {
	p.mu.RLock()
	_, ok := p.attempts[attemptID]
	p.mu.RUnlock()
	if !ok || p.ttl <= 0 {
		return
	}
	_ = p.client.Expire(ctx, p.key(attemptID), p.ttl).Err()
}

func (p *Presence) Release(ctx context.Context, attemptID string) {
	p.mu.Lock()
	_, ok := p.attempts[attemptID]
	delete(p.attempts, attemptID)
	p.mu.Unlock()
	if ok {
		_ = p.client.Del(ctx, p.key(attemptID)).Err()
	}
}

// Active returns the number of attempts tracked by this instance.
func (p *Presence) Active() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.attempts)
}

func (p *Presence) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
