// Package events allows for the registering and receiving of events.
package events

import (
	"fmt"
	"sync"
)

// DefaultBuffer is the number of messages a receiver can fall behind before
// messages are dropped for it. Websocket sends can take long.
const DefaultBuffer = 100

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events of type T.
type Events[T any] struct {
	m      map[string]chan T
	mu     sync.RWMutex
	buffer int
}

// New constructs an events for registering and receiving events. A buffer
// of zero or less uses DefaultBuffer.
func New[T any](buffer int) *Events[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return &Events[T]{
		m:      make(map[string]chan T),
		buffer: buffer,
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events[T]) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events[T]) Acquire(id string) <-chan T {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	ch = make(chan T, evt.buffer)
	evt.m[id] = ch
	return ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events[T]) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send signals a message to every registered channel. Send will not block
// waiting for a receiver on any given channel. It returns the number of
// receivers the message was delivered to.
func (evt *Events[T]) Send(msg T) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	var sent int
	for _, ch := range evt.m {
		select {
		case ch <- msg:
			sent++
		default:
		}
	}

	return sent
}

// Len returns the number of registered receivers.
func (evt *Events[T]) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}
