// Package action implements the two patterns every dashboard operation
// follows: a write that submits exactly one transaction and a read that
// runs one query.
package action

import (
	"errors"
	"sync"
)

// Set of errors returned by actions. Anything that goes wrong after the
// call was attempted is reported as ErrCallFailed.
var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrBusy         = errors.New("action already in progress")
	ErrCallFailed   = errors.New("call failed")
)

// MsgNotConnected is the toast shown when an action can't run because
// there is no usable connection.
const MsgNotConnected = "Wallet not connected. Try again…"

// Notifier shows the outcome of an action to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// =============================================================================

// Control is a single user control with its own loading flag. While the
// flag is set the control accepts no other submission.
type Control struct {
	mu      sync.Mutex
	loading bool
}

// Loading reports whether a call made through the control is outstanding.
func (c *Control) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loading
}

func (c *Control) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return false
	}

	c.loading = true
	return true
}

func (c *Control) end() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading = false
}

// =============================================================================

// Field is a form input.
type Field struct {
	mu    sync.Mutex
	value string
}

// Set changes the value.
func (f *Field) Set(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.value = value
}

// Value returns the value.
func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.value
}

// Reset clears the value.
func (f *Field) Reset() {
	f.Set("")
}

// Reverse returns a copy of the slice in reverse order.
func Reverse[T any](s []T) []T {
	r := make([]T, len(s))
	for i, v := range s {
		r[len(s)-1-i] = v
	}
	return r
}
