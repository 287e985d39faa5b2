package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/logging"
)

const summaryInterval = 5 * time.Second

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the patrol sandbox headless",
		Long: `Spawns patrol agents, each driven by its own machine, and runs the tick pipeline.
With --ticks the simulation fast-forwards that many ticks and exits; otherwise it runs in real time until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, cfg, logger)
		},
	}

	f := cmd.Flags()
	f.String("config", "", "YAML sandbox config file")
	f.Int("agents", 0, "Number of patrol agents")
	f.Int("ticks", 0, "Ticks to simulate, 0 runs in real time until interrupted")
	f.String("definition", "", "Machine definition file, defaults to the built-in patrol machine")
	f.Int("workers", 0, "Parallel action workers, 0 uses GOMAXPROCS")
	f.Int("batch-size", 0, "Records per parallel batch")
	f.Duration("tick-interval", 0, "Simulation tick interval")
	f.String("metrics-addr", "", "Serve /metrics and /status on this address")
	return cmd
}

// resolveConfig layers defaults, the --config file and explicitly set flags
func resolveConfig(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	f := cmd.Flags()

	if path, _ := f.GetString("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if f.Changed("agents") {
		cfg.Agents, _ = f.GetInt("agents")
	}
	if f.Changed("ticks") {
		cfg.Ticks, _ = f.GetInt("ticks")
	}
	if f.Changed("definition") {
		cfg.Definition, _ = f.GetString("definition")
	}
	if f.Changed("workers") {
		cfg.Engine.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("batch-size") {
		cfg.Engine.BatchSize, _ = f.GetInt("batch-size")
	}
	if f.Changed("tick-interval") {
		cfg.Engine.TickInterval, _ = f.GetDuration("tick-interval")
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = f.GetString("metrics-addr")
	}

	// Inherited from the root command
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.LogFormat, _ = f.GetString("log-format")
	}

	return cfg, cfg.Validate()
}

func newLogger(cfg Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format), nil
}

func runSimulation(ctx context.Context, cfg Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	sim, err := NewSimulation(cfg, logger, reg)
	if err != nil {
		return err
	}
	logger = logger.With("run", sim.RunID)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		simulate(gctx, sim, cfg, logger)
		return nil
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           NewHandler(sim, reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error { return serve(gctx, srv, logger) })
	}

	err = g.Wait()
	st := sim.Status()
	logger.Info("simulation finished",
		append([]any{"tick", st.Tick, "entities", st.Entities, "pending", st.Pending}, sortedStates(st.States)...)...)
	return err
}

// simulate fast-forwards cfg.Ticks ticks, or runs the clock scheduler until ctx is done
func simulate(ctx context.Context, sim *Simulation, cfg Config, logger *slog.Logger) {
	if cfg.Ticks > 0 {
		interval := sim.World.Config().TickInterval
		for range cfg.Ticks {
			if ctx.Err() != nil {
				return
			}
			sim.World.Update(interval)
		}
		return
	}

	scheduler := engine.NewClockScheduler(sim.World, nil)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := sim.Status()
			logger.Info("status", append([]any{"tick", st.Tick, "pending", st.Pending}, sortedStates(st.States)...)...)
		}
	}
}
