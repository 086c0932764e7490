package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultResetDelay is the pause before "Reset Complete" is shown.
const DefaultResetDelay = 2 * time.Second

// Notifier shows a transient message to the operator.
type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n models.Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n models.Notification) { f(n) }

// Resetter runs the virtual reset: an immediate acknowledgment and a
// delayed completion message. It never touches the Store.
type Resetter struct {
	notifier Notifier
	delay    time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewResetter creates a resetter. A non-positive delay uses DefaultResetDelay.
func NewResetter(n Notifier, delay time.Duration) *Resetter {
	if delay <= 0 {
		delay = DefaultResetDelay
	}
	return &Resetter{
		notifier: n,
		delay:    delay,
		pending:  make(map[string]*time.Timer),
	}
}

// Delay returns the configured completion delay.
func (r *Resetter) Delay() time.Duration { return r.delay }

// Reset sends "Virtual Reset Initiated" now and "Reset Complete" after the
// delay. It returns the reset id shared by both notifications.
func (r *Resetter) Reset() string {
	resetID := uuid.New().String()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ""
	}
	r.mu.Unlock()

	log.Info().Str("reset_id", resetID).Msg("virtual reset initiated")
	r.notifier.Notify(models.Notification{
		ID:          resetID + ":initiated",
		Title:       "Virtual Reset Initiated",
		Description: "Resetting Motion and Charging Systems...",
		Variant:     models.NotificationDefault,
		At:          time.Now(),
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return resetID
	}
	r.pending[resetID] = time.AfterFunc(r.delay, func() {
		r.mu.Lock()
		_, ok := r.pending[resetID]
		delete(r.pending, resetID)
		r.mu.Unlock()
		if !ok {
			return
		}

		log.Info().Str("reset_id", resetID).Msg("virtual reset complete")
		r.notifier.Notify(models.Notification{
			ID:          resetID + ":complete",
			Title:       "Reset Complete",
			Description: "All systems have been reset successfully.",
			Variant:     models.NotificationDefault,
			At:          time.Now(),
		})
	})
	return resetID
}

// Pending returns the number of completion messages not yet sent.
func (r *Resetter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close cancels pending completion messages. Later resets are no-ops.
func (r *Resetter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, t := range r.pending {
		t.Stop()
		delete(r.pending, id)
	}
}
