// notifier.go - Recording notifier and fixtures for testing
package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/plc-visualizer/safety-dashboard/internal/catalog"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
)

// RecordingNotifier captures notifications in arrival order.
type RecordingNotifier struct {
	mu       sync.Mutex
	received []Received
	ch       chan models.Notification
}

// Received is a notification with the local time it arrived.
type Received struct {
	Notification models.Notification
	ArrivedAt    time.Time
}

// NewRecordingNotifier creates a notifier that also forwards every message
// to Next() callers.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{ch: make(chan models.Notification, 64)}
}

// Notify implements dashboard.Notifier.
func (r *RecordingNotifier) Notify(n models.Notification) {
	r.mu.Lock()
	r.received = append(r.received, Received{Notification: n, ArrivedAt: time.Now()})
	r.mu.Unlock()

	select {
	case r.ch <- n:
	default:
	}
}

// Next waits up to timeout for the next notification.
func (r *RecordingNotifier) Next(timeout time.Duration) (models.Notification, bool) {
	select {
	case n := <-r.ch:
		return n, true
	case <-time.After(timeout):
		return models.Notification{}, false
	}
}

// All returns a copy of everything recorded so far.
func (r *RecordingNotifier) All() []Received {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Received(nil), r.received...)
}

// DefaultState loads the default catalog profile or fails the test.
func DefaultState(t testing.TB) models.State {
	t.Helper()
	c, err := catalog.LoadProfile(catalog.DefaultProfile)
	if err != nil {
		t.Fatalf("loading default catalog: %v", err)
	}
	return c.State()
}
