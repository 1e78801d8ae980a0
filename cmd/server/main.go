package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/typeroom-server/internal/app"
	"github.com/vovakirdan/typeroom-server/internal/config"
	applog "github.com/vovakirdan/typeroom-server/internal/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "typeroom-server",
		Short:         "Realtime room-based live typing server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			boot := applog.New("info")

			cfg, path, err := config.Load(boot, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.UpdateFrom(flagOverrides(cmd))

			logger := applog.New(cfg.LogLevel)
			logger.Info().
				Str("config", path).
				Str("addr", cfg.Addr).
				Int("room_capacity", cfg.RoomCapacity).
				Dur("grace_period", cfg.GracePeriod).
				Msg("starting typeroom server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.New(&cfg, logger).Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.SetContext(context.Background())
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	cmd.Flags().String("addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error, disabled")
	cmd.Flags().Duration("read-header-timeout", 0, "HTTP read header timeout (overrides config)")
	cmd.Flags().Duration("shutdown-timeout", 0, "graceful shutdown timeout (overrides config)")

	return cmd
}

// flagOverrides collects the listener flags set on the command line. Unset
// flags stay zero so UpdateFrom keeps the loaded values.
func flagOverrides(cmd *cobra.Command) config.Config {
	var overrides config.Config
	flags := cmd.Flags()
	if flags.Changed("addr") {
		overrides.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("log-level") {
		overrides.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("read-header-timeout") {
		overrides.ReadHeaderTimeout, _ = flags.GetDuration("read-header-timeout")
	}
	if flags.Changed("shutdown-timeout") {
		overrides.ShutdownTimeout, _ = flags.GetDuration("shutdown-timeout")
	}
	return overrides
}
