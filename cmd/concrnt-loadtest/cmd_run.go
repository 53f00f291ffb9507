package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/concrnt-loadtest/client"
	"github.com/totegamma/concrnt-loadtest/internal/loadprofile"
	"github.com/totegamma/concrnt-loadtest/internal/metrics"
	"github.com/totegamma/concrnt-loadtest/internal/realtime"
	"github.com/totegamma/concrnt-loadtest/internal/scenario"
)

var errThresholdsFailed = errors.New("one or more thresholds failed")

var runFlags struct {
	target     string
	timelineID string
	maxActors  int
	seed       int64
}

func init() {
	runCmd.Flags().StringVar(&runFlags.target, "target", "", "target host:port, overrides config")
	runCmd.Flags().StringVar(&runFlags.timelineID, "timeline", "", "well-known timeline id, overrides config")
	runCmd.Flags().IntVar(&runFlags.maxActors, "max-actors", 0, "maximum concurrent actors, overrides config")
	runCmd.Flags().Int64Var(&runFlags.seed, "seed", 0, "run seed for reproducible content, overrides config")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the load profile against the target",
	RunE:  runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if runFlags.target != "" {
		cfg.Target.Host = runFlags.target
	}
	if runFlags.timelineID != "" {
		cfg.Target.TimelineID = runFlags.timelineID
	}
	if runFlags.maxActors > 0 {
		cfg.Load.MaxActors = runFlags.maxActors
	}
	if runFlags.seed != 0 {
		cfg.Scenario.Seed = runFlags.seed
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, cfg.Server.TraceEndpoint)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	profile, err := cfg.ProfileConfig()
	if err != nil {
		return err
	}
	settings, err := cfg.ScenarioSettings()
	if err != nil {
		return err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	agg := metrics.NewAggregator()
	reg := newRegistry()
	if err := agg.Register(reg); err != nil {
		return errors.Wrap(err, "failed to register metrics")
	}

	cl := client.New(cfg.Target.Host, client.Options{
		Secure:   cfg.Target.Secure,
		Timeout:  timeout,
		Observer: agg,
	})
	sc := scenario.NewFromClient(settings, cl, agg, realtime.NopHandler, logger)

	controller, err := loadprofile.New(profile, agg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting run",
		zap.String("target", cl.BaseURL()),
		zap.String("timeline", settings.TimelineID),
		zap.Int("iterations", settings.Iterations),
	)

	group, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)

	var summary *metrics.Summary
	group.Go(func() error {
		defer stopServing()
		var err error
		summary, err = controller.Run(gctx, sc.Run)
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted, reporting partial results")
			return nil
		}
		return err
	})
	if cfg.Server.MetricsAddr != "" {
		group.Go(func() error {
			return serveMetrics(serveCtx, cfg.Server.MetricsAddr, reg, logger)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	summary.Write(cmd.OutOrStdout())
	if !summary.Passed() {
		return errThresholdsFailed
	}
	return nil
}
