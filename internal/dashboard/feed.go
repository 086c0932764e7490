package dashboard

import (
	"sync"

	"github.com/plc-visualizer/safety-dashboard/internal/models"
)

// Notifiers fans one notification out to several notifiers in order.
type Notifiers []Notifier

// Notify calls every non-nil notifier.
func (ns Notifiers) Notify(n models.Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(n)
		}
	}
}

// Feed is a Notifier that streams notifications to subscribers. Slow
// subscribers miss notifications rather than block the sender.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]chan models.Notification
	nextID int
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan models.Notification)}
}

// Notify delivers n to every current subscriber.
func (f *Feed) Notify(n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe registers for notifications. The cancel func releases the
// subscription and closes the channel.
func (f *Feed) Subscribe(buffer int) (<-chan models.Notification, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.Notification, buffer)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}
