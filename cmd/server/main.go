package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/app"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/config"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/log"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "broker",
		Short: "Real-time connection and room-messaging broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().String("addr", "", "HTTP listen address")
	root.Flags().String("log-level", "", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, configPath string) error {
	bootstrap := log.New("info")

	cfg, path, err := config.Load(bootstrap, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags override file and env.
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting broker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}
