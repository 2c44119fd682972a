// Package events broadcasts domain notifications to other parts of the system.
package events

import (
	"context"
	"sync"
	"time"
)

// EventType names a broadcast event
type EventType string

// EventCryptoFintracReportSubmitted is emitted after a FINTRAC report has been submitted
const EventCryptoFintracReportSubmitted EventType = "crypto_fintrac_report_submitted"

// Event is a broadcast notification
type Event struct {
	Type      EventType              `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// Broadcaster publishes events to interested listeners
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
}

// LocalBroadcaster fans events out to in-process subscribers
type LocalBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	bufferSize  int
}

// NewLocalBroadcaster creates a broadcaster whose subscriber channels hold bufferSize events
func NewLocalBroadcaster(bufferSize int) *LocalBroadcaster {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &LocalBroadcaster{
		subscribers: make(map[int]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a listener. The returned function unsubscribes and closes the channel.
func (b *LocalBroadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.bufferSize)
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers the event to every subscriber. A subscriber whose buffer
// is full misses the event rather than blocking the publisher.
func (b *LocalBroadcaster) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}
