// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// StateHandler serves read-only views of the dashboard state
type StateHandler interface {
	HandleGetState(c echo.Context) error
	HandleGetStateMsgpack(c echo.Context) error
	HandleGetConditions(c echo.Context) error
	HandleGetGroups(c echo.Context) error
	HandleGetSignal(c echo.Context) error
}

// ControlHandler handles operator actions
type ControlHandler interface {
	HandleReset(c echo.Context) error
}

// StreamHandler pushes live updates to viewers
type StreamHandler interface {
	HandleStateStream(c echo.Context) error
	HandleWebSocket(c echo.Context) error
	HandleListViewers(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
