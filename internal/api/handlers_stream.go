package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/rs/zerolog/log"
)

// StreamKeepAlive is how often an idle SSE stream gets a comment line.
var StreamKeepAlive = 15 * time.Second

// HandleStateStream streams the snapshot as Server-Sent Events, once on
// connect and again whenever the state version changes. Reset notifications
// arrive as "notification" events.
func (h *Handler) HandleStateStream(c echo.Context) error {
	done := make(chan struct{})
	var once sync.Once
	sess, ok := h.session.StartSession(models.TransportSSE, c.RealIP(), func() {
		once.Do(func() { close(done) })
	})
	if !ok {
		return NewServiceUnavailableError("too many live viewers")
	}
	defer h.session.EndSession(sess.ID)

	changes, cancel := h.store.Subscribe(4)
	defer cancel()

	var notes <-chan models.Notification
	if h.feed != nil {
		ch, unsubscribe := h.feed.Subscribe(4)
		defer unsubscribe()
		notes = ch
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	// The stream outlives the server write timeout.
	_ = http.NewResponseController(c.Response().Writer).SetWriteDeadline(time.Time{})

	var lastVersion uint64
	sent := false
	send := func() error {
		snap := h.store.Snapshot()
		if sent && snap.Version == lastVersion {
			return nil
		}
		sent = true
		lastVersion = snap.Version

		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Response(), "event: state\nid: %d\ndata: %s\n\n", snap.Version, data); err != nil {
			return err
		}
		c.Response().Flush()
		h.session.RecordSent(sess.ID)
		return nil
	}

	// Send initial snapshot immediately
	if err := send(); err != nil {
		return nil
	}

	ticker := time.NewTicker(StreamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-done:
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := send(); err != nil {
				log.Debug().Err(err).Str("session", sess.ID).Msg("state stream closed")
				return nil
			}
		case n, ok := <-notes:
			if !ok {
				return nil
			}
			data, err := json.Marshal(n)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(c.Response(), "event: notification\ndata: %s\n\n", data); err != nil {
				return nil
			}
			c.Response().Flush()
			h.session.RecordSent(sess.ID)
		case <-ticker.C:
			if _, err := fmt.Fprint(c.Response(), ": keep-alive\n\n"); err != nil {
				return nil
			}
			c.Response().Flush()
			h.session.TouchSession(sess.ID)
		}
	}
}
