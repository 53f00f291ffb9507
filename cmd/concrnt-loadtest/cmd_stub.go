package main

import (
	"crypto/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/internal/stub"
)

var stubAddr string

func init() {
	stubCmd.Flags().StringVar(&stubAddr, "addr", "", "listen address, overrides config")
	rootCmd.AddCommand(stubCmd)
}

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Serve an in-memory stand-in target for dry runs",
	RunE:  runStub,
}

func runStub(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if stubAddr != "" {
		cfg.Stub.Addr = stubAddr
	}
	delay, err := cfg.Stub.DelayDuration()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seeder, err := concrnt.GenerateIdentity(rand.Reader)
	if err != nil {
		return err
	}

	store := stub.NewStore()
	stub.Seed(store, seeder.Address, cfg.Stub.TimelineID, cfg.Stub.SeedPosts)
	logger.Info("seeded stub timeline",
		zap.String("timeline", cfg.Stub.TimelineID),
		zap.Int("posts", cfg.Stub.SeedPosts),
	)

	handler := stub.NewHandler(stub.Options{FQDN: cfg.Stub.FQDN, Delay: delay}, store, logger)
	return stub.Serve(ctx, cfg.Stub.Addr, handler, logger)
}
