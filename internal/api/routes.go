// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/plc-visualizer/safety-dashboard/internal/dashboard"
	"github.com/plc-visualizer/safety-dashboard/internal/session"
	"github.com/rs/zerolog/log"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store      *dashboard.Store
	Resetter   *dashboard.Resetter
	SessionMgr *session.Manager
	Hub        *Hub
	Feed       *dashboard.Feed
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	State   StateHandler
	Control ControlHandler
	Stream  StreamHandler
}

// streamHandlers joins the SSE handler and the websocket hub.
type streamHandlers struct {
	*Handler
	hub *Hub
}

func (s streamHandlers) HandleWebSocket(c echo.Context) error {
	return s.hub.HandleWebSocket(c)
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	h := NewHandler(deps.Store, deps.Resetter, deps.SessionMgr, deps.Feed)
	return &Handlers{
		Health:  NewHealthHandler(deps.Version),
		State:   h,
		Control: h,
		Stream:  streamHandlers{Handler: h, hub: deps.Hub},
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Dashboard state
	apiGroup.GET("/state", handlers.State.HandleGetState)
	apiGroup.GET("/state/msgpack", handlers.State.HandleGetStateMsgpack)
	apiGroup.GET("/conditions", handlers.State.HandleGetConditions)
	apiGroup.GET("/groups", handlers.State.HandleGetGroups)
	apiGroup.GET("/signals/:id", handlers.State.HandleGetSignal)

	// Operator actions
	apiGroup.POST("/reset", handlers.Control.HandleReset)

	// Live updates
	apiGroup.GET("/state/stream", handlers.Stream.HandleStateStream)
	apiGroup.GET("/ws", handlers.Stream.HandleWebSocket)
	apiGroup.GET("/viewers", handlers.Stream.HandleListViewers)
}

// MiddlewareOptions selects the optional middleware.
type MiddlewareOptions struct {
	EnableCORS     bool
	AllowOrigins   []string
	RequestLogging bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())

	if opts.EnableCORS {
		origins := opts.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		}))
	}

	if opts.RequestLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper:     skipQuietPaths,
			LogURI:      true,
			LogStatus:   true,
			LogMethod:   true,
			LogLatency:  true,
			LogRemoteIP: true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				ev := log.Info()
				if v.Error != nil {
					ev = log.Warn().Err(v.Error)
				}
				ev.Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote", v.RemoteIP).
					Msg("request")
				return nil
			},
		}))
	}
}

// skipQuietPaths keeps health probes and long-lived streams out of the
// request log.
func skipQuietPaths(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/api/health" || p == "/api/ws" || strings.HasSuffix(p, "/stream")
}

// SplitOrigins parses a comma separated origin list.
func SplitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
