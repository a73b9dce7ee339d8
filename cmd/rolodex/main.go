package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rolodex_reminder/internal/infra/config"
	"rolodex_reminder/internal/infra/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// jobTimeout bounds a single scheduled handler run.
const jobTimeout = 5 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// componentRunner is the body of a command that needs the wired services.
type componentRunner func(ctx context.Context, cmd *cobra.Command, c *components) error

// withComponentsFunc adapts a componentRunner into a cobra RunE.
type withComponentsFunc func(run componentRunner) func(*cobra.Command, []string) error

func newRootCommand() *cobra.Command {
	var cfg *config.AppConfig

	root := &cobra.Command{
		Use:           "rolodex",
		Short:         "Daily birthday, anniversary and follow-up reminders from a contact sheet",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			cfg = loaded
			if cmd.Name() == "serve" {
				logger.Init(cfg)
			} else {
				logger.InitWithOutput(cfg, cmd.ErrOrStderr())
			}
			logger.Log.WithFields(logrus.Fields{
				"log_level":   cfg.LogLevel,
				"environment": cfg.Environment,
				"store":       cfg.StoreDriver,
			}).Debug("Configuration loaded")
			return nil
		},
	}

	var withComponents withComponentsFunc = func(run componentRunner) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := buildComponents(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()
			return run(ctx, cmd, c)
		}
	}

	root.AddCommand(newServeCommand(withComponents))
	root.AddCommand(newOperatorCommands(withComponents)...)
	return root
}
