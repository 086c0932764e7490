package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/safety-dashboard/internal/api"
	"github.com/plc-visualizer/safety-dashboard/internal/catalog"
	"github.com/plc-visualizer/safety-dashboard/internal/config"
	"github.com/plc-visualizer/safety-dashboard/internal/dashboard"
	"github.com/plc-visualizer/safety-dashboard/internal/session"
	"github.com/plc-visualizer/safety-dashboard/internal/simulator"
	"github.com/plc-visualizer/safety-dashboard/internal/web"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func ServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				path, err := defaultConfigPath()
				if err != nil {
					return err
				}
				configPath = path
			}

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, configPath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to the XML config (default: beside the executable)")
	return cmd
}

// defaultConfigPath resolves the config file next to the executable.
func defaultConfigPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), config.DefaultFileName), nil
}

// server holds the running components so shutdown can stop them in order.
type server struct {
	cfg      *config.AppConfig
	cat      *catalog.Catalog
	store    *dashboard.Store
	sessions *session.Manager
	hub      *api.Hub
	feed     *dashboard.Feed
	resetter *dashboard.Resetter
	sim      *simulator.Simulator
	echo     *echo.Echo
}

func newServer(cfg *config.AppConfig) (*server, error) {
	cat, err := catalog.Load(cfg.Catalog.Profile, cfg.Catalog.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load signal catalog: %w", err)
	}

	s := &server{cfg: cfg, cat: cat}
	s.store = dashboard.NewStore(cat.State())
	s.sessions = session.NewManagerWithLimit(cfg.Sessions.MaxViewers)
	s.hub = api.NewHub(s.store, s.sessions, api.HubConfig{
		BufferKB:  cfg.Advanced.WebSocketBufferKB,
		QueueSize: cfg.Advanced.ClientQueueSize,
	})
	s.feed = dashboard.NewFeed()
	s.resetter = dashboard.NewResetter(dashboard.Notifiers{s.hub, s.feed}, cfg.ResetDelay())
	s.hub.AttachResetter(s.resetter)

	if cfg.Simulator.Enabled {
		s.sim = simulator.New(simulator.Config{
			Interval:        cfg.SimulatorInterval(),
			TickProbability: cfg.Simulator.TickProbability,
			FlipProbability: cfg.Simulator.FlipProbability,
		}, s.store, simulator.NewRand(cfg.Simulator.Seed))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.ExposeErrorDetails = loggerLevelFromString(cfg.Advanced.LogLevel) == zerolog.DebugLevel
	api.SetupMiddleware(e, api.MiddlewareOptions{
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   api.SplitOrigins(cfg.Server.AllowOrigins),
		RequestLogging: cfg.Advanced.EnableRequestLogging,
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:      s.store,
		Resetter:   s.resetter,
		SessionMgr: s.sessions,
		Hub:        s.hub,
		Feed:       s.feed,
		Version:    Version,
	}))
	if err := web.RegisterRoutes(e, web.NewRenderer(s.store, cfg.Server.Title, cat.Description)); err != nil {
		return nil, fmt.Errorf("failed to register dashboard routes: %w", err)
	}
	s.echo = e

	return s, nil
}

// start launches the background workers: live fan-out, simulator and
// viewer cleanup.
func (s *server) start(ctx context.Context) {
	s.hub.Start(ctx)
	if s.sim != nil {
		s.sim.Start(ctx)
	}

	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.sessions.CleanupOldSessions(s.cfg.SessionTimeout()); n > 0 {
					log.Info().Int("evicted", n).Msg("cleaned up idle viewers")
				}
			}
		}
	}()
}

// shutdown stops the simulator first so no mutation happens while the
// listeners drain. Live viewers are disconnected before the HTTP server
// shuts down, since open streams would otherwise hold it until ctx expires.
func (s *server) shutdown(ctx context.Context) error {
	if s.sim != nil {
		s.sim.Stop()
	}
	s.resetter.Close()
	if n := s.sessions.CloseAll(); n > 0 {
		log.Info().Int("viewers", n).Msg("disconnected live viewers")
	}
	s.hub.Close()
	return s.echo.Shutdown(ctx)
}

func runServer(ctx context.Context, cfg *config.AppConfig, configPath string, out io.Writer) error {
	setupLogger(os.Stderr, cfg.Advanced.LogLevel, cfg.Advanced.LogFormat)

	s, err := newServer(cfg)
	if err != nil {
		return err
	}

	// Configure server with settings from XML config
	httpServer := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}
	// echo.Shutdown stops e.Server, so it must be the one that serves.
	s.echo.Server = httpServer

	printBanner(out, cfg, configPath, s.cat.Name, s.sim != nil)

	s.start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.StartServer(httpServer)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func printBanner(w io.Writer, cfg *config.AppConfig, configPath, profile string, simulated bool) {
	mode := "Live"
	if simulated {
		mode = "Simulated telemetry"
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║           Safety Service Dashboard                        ║\n")
	fmt.Fprintf(w, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║  Version:    %-45s║\n", Version)
	fmt.Fprintf(w, "║  Build Time: %-45s║\n", BuildTime)
	fmt.Fprintf(w, "║  Mode:       %-45s║\n", mode)
	fmt.Fprintf(w, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║  Config:    %-46s║\n", configPath)
	fmt.Fprintf(w, "║  Catalog:   %-46s║\n", profile)
	fmt.Fprintf(w, "║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Fprintf(w, "╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
}
