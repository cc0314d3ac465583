package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/tokenvault/internal/app"
	"github.com/ericfisherdev/tokenvault/internal/config"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/logger"
)

// cli carries the container built in PersistentPreRunE to every subcommand.
type cli struct {
	container *app.Container
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "tokenvault",
		Short:         "Encrypted credential vault and OAuth token manager",
		Long:          `Stores streaming-service credentials encrypted at rest and keeps their OAuth tokens fresh.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg.LogLevel, cfg.Env, os.Stderr)
			if err != nil {
				return err
			}
			container, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			c.container = container
			return nil
		},
	}

	root.AddCommand(
		newSecretCmd(c),
		newKeyCmd(c),
		newTokenCmd(c),
		newNowPlayingCmd(c),
		newYouTubeCmd(c),
	)
	return root
}

// close releases the container if a command built one.
func (c *cli) close(ctx context.Context) error {
	if c.container == nil {
		return nil
	}
	return c.container.Close(ctx)
}

// serviceArg validates the service positional argument.
func serviceArg(arg string) (model.ServiceName, error) {
	svc, err := model.ParseServiceName(arg)
	if err != nil {
		return "", fmt.Errorf("%w (expected one of %v)", err, model.Services())
	}
	return svc, nil
}

// requireCredentials returns the app registration for svc or explains which
// variables to set.
func (c *cli) requireCredentials(svc model.ServiceName) (*model.Credentials, error) {
	creds := c.container.Config().CredentialsFor(svc)
	if creds == nil {
		return nil, model.Errorf(model.KindAuth, "cli", "no app registration configured; set the client id, secret and redirect uri variables").WithService(svc)
	}
	return creds, nil
}
