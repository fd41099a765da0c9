package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/auto-dns/docker-mount-notify/internal/app"
	"github.com/auto-dns/docker-mount-notify/internal/config"
	"github.com/auto-dns/docker-mount-notify/internal/logger"
)

type contextKey string

const configKey = contextKey("config")

var (
	configFile string
	noFollow   bool
)

var rootCmd = &cobra.Command{
	Use:   "docker-mount-notify [container...]",
	Short: "Notify containers of file changes in their bind mounts",
	Long: "Watches the host directories behind Docker bind mounts and touches the changed paths inside the " +
		"container, so that file watchers running in the container see changes made on the host.",
	Args: func(cmd *cobra.Command, args []string) error {
		if noFollow && len(args) == 0 {
			return errors.New("--no-follow requires at least one container name or id")
		}
		return nil
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(configFile); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx := context.WithValue(cmd.Context(), configKey, cfg)
		cmd.SetContext(ctx)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration.
		cfg := cmd.Context().Value(configKey).(*config.Config)

		// Set up logger.
		logInstance := logger.SetupLogger(&cfg.Logging)

		// Create the application.
		built, err := app.New(cfg, app.Options{Containers: args, Follow: !noFollow}, logInstance)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}
		var svc application = built
		defer func() {
			if err := svc.Close(); err != nil {
				logInstance.Warn().Err(err).Msg("Error during shutdown")
			}
		}()

		// Create a context with cancellation for graceful shutdown.
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Listen for OS signals.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case sig := <-sigCh:
				logInstance.Info().Msgf("Received signal: %v", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		// Run the application. When context is canceled, Run returns.
		if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("app run error: %w", err)
		}
		logInstance.Info().Msg("Shut down cleanly")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "INFO", "set log level (e.g. INFO, DEBUG, WARN)")
	viper.BindPFlag("log.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	rootCmd.Flags().BoolVar(&noFollow, "no-follow", false, "attach only the listed containers and ignore later start/die events")

	rootCmd.AddCommand(statusCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Execution error: %v\n", err)
		os.Exit(1)
	}
}
