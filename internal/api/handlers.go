package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/safety-dashboard/internal/dashboard"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/plc-visualizer/safety-dashboard/internal/safety"
	"github.com/plc-visualizer/safety-dashboard/internal/session"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Handler handles API requests.
type Handler struct {
	store    *dashboard.Store
	resetter *dashboard.Resetter
	session  *session.Manager
	feed     *dashboard.Feed
}

// NewHandler creates a new API handler. feed may be nil, in which case the
// state stream carries no notifications.
func NewHandler(store *dashboard.Store, resetter *dashboard.Resetter, sessions *session.Manager, feed *dashboard.Feed) *Handler {
	return &Handler{
		store:    store,
		resetter: resetter,
		session:  sessions,
		feed:     feed,
	}
}

// SignalResponse is a single signal with the collection it lives in.
type SignalResponse struct {
	models.Signal
	Collection models.Collection `json:"collection"`
}

// ResetResponse acknowledges a virtual reset request.
type ResetResponse struct {
	ResetID string `json:"resetId"`
	DelayMs int64  `json:"delayMs"`
}

// HandleGetState returns the full dashboard snapshot.
func (h *Handler) HandleGetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Snapshot())
}

// HandleGetStateMsgpack returns the snapshot encoded as MessagePack.
func (h *Handler) HandleGetStateMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(h.store.Snapshot())
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetConditions returns the safety summary. With ?failed=true only the
// failed conditions are listed.
func (h *Handler) HandleGetConditions(c echo.Context) error {
	summary := h.store.Summary()

	if raw := c.QueryParam("failed"); raw != "" {
		failedOnly, err := strconv.ParseBool(raw)
		if err != nil {
			return NewBadRequestError("invalid failed parameter", err)
		}
		if failedOnly {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"conditions":   summary.FailedConditions,
				"isSystemSafe": summary.IsSystemSafe,
			})
		}
	}

	return c.JSON(http.StatusOK, summary)
}

// HandleGetGroups returns input signals grouped by category. ?category=
// narrows the result to one group.
func (h *Handler) HandleGetGroups(c echo.Context) error {
	if category := c.QueryParam("category"); category != "" {
		signals := safety.FilterCategory(h.store.State().Inputs, category)
		if len(signals) == 0 {
			return NewNotFoundError("category", category)
		}
		return c.JSON(http.StatusOK, []models.Group{{Category: category, Signals: signals}})
	}

	return c.JSON(http.StatusOK, h.store.Groups())
}

// HandleGetSignal returns one signal, looking in inputs then outputs.
func (h *Handler) HandleGetSignal(c echo.Context) error {
	id := c.Param("id")
	sig, coll, ok := h.store.Signal(id)
	if !ok {
		return NewNotFoundError("signal", id)
	}
	return c.JSON(http.StatusOK, SignalResponse{Signal: sig, Collection: coll})
}

// HandleReset starts a virtual reset. The notifications arrive over the
// live channels; the response only carries the reset id.
func (h *Handler) HandleReset(c echo.Context) error {
	resetID := h.resetter.Reset()
	if resetID == "" {
		return NewServiceUnavailableError("server is shutting down")
	}

	log.Info().Str("reset", resetID).Str("remote", c.RealIP()).Msg("virtual reset requested")

	return c.JSON(http.StatusAccepted, ResetResponse{
		ResetID: resetID,
		DelayMs: h.resetter.Delay().Milliseconds(),
	})
}

// HandleListViewers returns the connected live viewers.
func (h *Handler) HandleListViewers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   h.session.Count(),
		"viewers": h.session.ListSessions(),
	})
}
