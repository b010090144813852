// Package notification fans session snapshots out to UI subscribers.
package notification

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/app/playback"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// subscription represents a subscriber's subscription.
type subscription struct {
	id      string
	ch      chan playback.Snapshot
	dropped uint64
}

// Manager manages snapshot subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	latest        *playback.Snapshot
	buffer        int
	closed        bool
}

// NewManager creates a new notification manager. A non-positive buffer uses DefaultBuffer.
func NewManager(buffer int) *Manager {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Manager{
		subscriptions: make(map[string]*subscription),
		buffer:        buffer,
	}
}

// Subscribe adds a new subscription and returns its ID and channel. The
// latest snapshot, if any, is delivered first. The channel is closed by
// Unsubscribe or Close.
func (m *Manager) Subscribe() (string, <-chan playback.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	sub := &subscription{
		id: id,
		ch: make(chan playback.Snapshot, m.buffer),
	}
	if m.closed {
		close(sub.ch)
		return id, sub.ch
	}
	if m.latest != nil {
		sub.ch <- *m.latest
	}
	m.subscriptions[id] = sub
	zlog.Debug().Msgf("notification: subscribed: id=%s subscribers=%d", id, len(m.subscriptions))
	return id, sub.ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return
	}
	delete(m.subscriptions, subscriptionID)
	close(sub.ch)
	zlog.Debug().Msgf("notification: unsubscribed: id=%s dropped=%d", subscriptionID, sub.dropped)
}

// Publish sends a snapshot to all subscribers. It never blocks: a
// subscriber whose queue is full loses its oldest pending snapshot.
// Publish is used as the controller's snapshot sink.
func (m *Manager) Publish(snap playback.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.latest = &snap
	for _, sub := range m.subscriptions {
		for {
			select {
			case sub.ch <- snap:
			default:
				// Full: drop the oldest and try again.
				select {
				case <-sub.ch:
					sub.dropped++
				default:
				}
				continue
			}
			break
		}
	}
}

// Latest returns the last published snapshot.
func (m *Manager) Latest() (playback.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return playback.Snapshot{}, false
	}
	return *m.latest, true
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, sub := range m.subscriptions {
		close(sub.ch)
		delete(m.subscriptions, id)
	}
}
