// Package notify delivers the short lived success and error messages shown
// to the dashboard user.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ardanlabs/ballot/foundation/events"
)

// Level is the severity of a toast.
type Level string

// Set of toast levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is a single notification.
type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func newToast(level Level, msg string) Toast {
	return Toast{Level: level, Message: msg, Time: time.Now().UTC()}
}

// =============================================================================

// Hub sends toasts to every receiver registered with the events.
type Hub struct {
	evts *events.Events[Toast]
}

// NewHub constructs a hub over the events.
func NewHub(evts *events.Events[Toast]) *Hub {
	return &Hub{evts: evts}
}

// Success sends a success toast.
func (h *Hub) Success(msg string) {
	h.evts.Send(newToast(LevelSuccess, msg))
}

// Error sends an error toast.
func (h *Hub) Error(msg string) {
	h.evts.Send(newToast(LevelError, msg))
}

// =============================================================================

// Console writes toasts as lines of text.
type Console struct {
	w io.Writer
}

// NewConsole constructs a console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Success prints a success toast.
func (c *Console) Success(msg string) {
	fmt.Fprintln(c.w, "OK:", msg)
}

// Error prints an error toast.
func (c *Console) Error(msg string) {
	fmt.Fprintln(c.w, "ERROR:", msg)
}

// =============================================================================

// Recorder keeps every toast in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

// Success records a success toast.
func (r *Recorder) Success(msg string) {
	r.record(newToast(LevelSuccess, msg))
}

// Error records an error toast.
func (r *Recorder) Error(msg string) {
	r.record(newToast(LevelError, msg))
}

// Toasts returns the recorded toasts in order.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()

	toasts := make([]Toast, len(r.toasts))
	copy(toasts, r.toasts)
	return toasts
}

// Count returns the number of recorded toasts of the level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, t := range r.toasts {
		if t.Level == level {
			n++
		}
	}
	return n
}

// Reset forgets the recorded toasts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.toasts = nil
}

func (r *Recorder) record(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.toasts = append(r.toasts, t)
}
