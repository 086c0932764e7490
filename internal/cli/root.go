// Package cli wires the safetyd commands.
package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version info, copied from main at startup.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func Execute() error {
	return NewRoot().Execute()
}

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "safetyd",
		Short:        "Safety service dashboard for the platform PLC",
		SilenceUsage: true,
	}
	root.AddCommand(
		ServeCmd(),
		RenderCmd(),
		CatalogCmd(),
	)
	return root
}

func loggerLevelFromString(level string) zerolog.Level {
	level = strings.ToLower(level)
	switch level {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}

// setupLogger points the global logger at w. The console format is used when
// requested or when w is a terminal.
func setupLogger(w io.Writer, level, format string) {
	zerolog.SetGlobalLevel(loggerLevelFromString(level))

	console := format == "console"
	if f, ok := w.(*os.File); ok && format == "" {
		console = isatty.IsTerminal(f.Fd())
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
