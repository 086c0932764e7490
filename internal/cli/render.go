package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plc-visualizer/safety-dashboard/internal/catalog"
	"github.com/plc-visualizer/safety-dashboard/internal/dashboard"
	"github.com/plc-visualizer/safety-dashboard/internal/simulator"
	"github.com/plc-visualizer/safety-dashboard/internal/view"
	"github.com/spf13/cobra"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

type renderOptions struct {
	profile  string
	file     string
	title    string
	width    int
	seed     uint64
	steps    int
	watch    bool
	interval time.Duration
}

func RenderCmd() *cobra.Command {
	opts := renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the dashboard to the terminal",
		Long: "Print the dashboard once, optionally after running simulator steps, " +
			"or keep re-rendering on every state change with --watch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRender(ctx, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.profile, "profile", catalog.DefaultProfile, "Embedded catalog profile")
	cmd.Flags().StringVar(&opts.file, "catalog", "", "Catalog YAML file (overrides --profile)")
	cmd.Flags().StringVar(&opts.title, "title", "Safety Service Dashboard", "Dashboard title")
	cmd.Flags().IntVar(&opts.width, "width", 100, "Output width in columns")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Simulator seed (0 = time based)")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "Simulator ticks to run before rendering")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-render on every state change until interrupted")
	cmd.Flags().DurationVar(&opts.interval, "interval", simulator.DefaultConfig().Interval, "Simulator interval in watch mode")
	return cmd
}

func runRender(ctx context.Context, out io.Writer, opts renderOptions) error {
	cat, err := catalog.Load(opts.profile, opts.file)
	if err != nil {
		return err
	}

	store := dashboard.NewStore(cat.State())
	simCfg := simulator.DefaultConfig()
	simCfg.Interval = opts.interval
	sim := simulator.New(simCfg, store, simulator.NewRand(opts.seed))

	for i := 0; i < opts.steps; i++ {
		sim.Step()
	}

	draw := func() {
		page := view.BuildPage(opts.title, cat.Description, store.Snapshot())
		fmt.Fprintln(out, view.RenderTerminal(page, opts.width))
	}

	if !opts.watch {
		draw()
		return nil
	}

	changes, cancel := store.Subscribe(4)
	defer cancel()

	sim.Start(ctx)
	defer sim.Stop()

	fmt.Fprint(out, clearScreen)
	draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			fmt.Fprint(out, clearScreen)
			draw()
		}
	}
}
