// Package events provides an in-process publish/subscribe bus for scorecard observers.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/pkg/logger"
)

// Topic names an event stream.
type Topic string

// Topics emitted by the scorecard controller.
const (
	SessionStarted Topic = "session-started"
	SessionEnded   Topic = "session-ended"
	SessionSaved   Topic = "session-saved"
	ArrowScored    Topic = "arrow-scored"
	EndCompleted   Topic = "end-completed"
	ViewChanged    Topic = "view-changed"
	ErrorOccurred  Topic = "error-occurred"
)

// ArrowScoredEvent is the payload for ArrowScored.
type ArrowScoredEvent struct {
	Arrow     model.Arrow
	EndNumber int
}

// ViewChangedEvent is the payload for ViewChanged.
type ViewChangedEvent struct {
	From model.View
	To   model.View
}

// Handler receives an event payload.
type Handler func(payload any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus dispatches events synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
	log    logger.Logger
}

// NewBus returns an empty bus. A nil logger discards handler panics silently.
func NewBus(log logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{subs: map[Topic][]subscription{}, log: log.Named("events")}
}

// Subscribe registers handler for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Emit delivers payload to every handler of topic. A panicking handler is logged and skipped.
func (b *Bus) Emit(topic Topic, payload any) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()
	for _, s := range subs {
		b.dispatch(topic, s.handler, payload)
	}
}

func (b *Bus) dispatch(topic Topic, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(context.Background(), "event handler panicked",
				logger.String("topic", string(topic)), logger.String("panic", fmt.Sprint(r)))
		}
	}()
	handler(payload)
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
