// Package events fans out wallet balance changes to live subscribers.
package events

import (
	"sync"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

const defaultBuffer = 64

// BalanceBroadcaster delivers balance snapshots to every subscriber over buffered channels.
// A subscriber that falls behind misses snapshots instead of blocking publishers.
type BalanceBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan domain.BalanceSnapshot]struct{}
	buffer int
}

// NewBalanceBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewBalanceBroadcaster(buffer int) *BalanceBroadcaster {
	if buffer < 1 {
		buffer = defaultBuffer
	}

	return &BalanceBroadcaster{
		subs:   make(map[chan domain.BalanceSnapshot]struct{}),
		buffer: buffer,
	}
}

// Publish sends snapshots to all subscribers.
func (b *BalanceBroadcaster) Publish(snapshots ...domain.BalanceSnapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		for _, s := range snapshots {
			select {
			case ch <- s:
			default:
				// slow consumer
			}
		}
	}
}

// Subscribe returns a channel that receives snapshots until Unsubscribe is called.
func (b *BalanceBroadcaster) Subscribe() chan domain.BalanceSnapshot {
	ch := make(chan domain.BalanceSnapshot, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *BalanceBroadcaster) Unsubscribe(ch chan domain.BalanceSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscribers returns the number of active subscribers.
func (b *BalanceBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}
