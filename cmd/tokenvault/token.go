package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

func newTokenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and manage OAuth tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status [service]",
		Short: "Show the token state of one or all services",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services := c.container.Registry().Services()
			if len(args) == 1 {
				svc, err := serviceArg(args[0])
				if err != nil {
					return err
				}
				services = []model.ServiceName{svc}
			}

			for _, svc := range services {
				client, err := c.container.Client(svc)
				if err != nil {
					return err
				}
				entry, err := client.Ledger().Entry(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", svc, describeEntry(entry, time.Now()))
			}
			return nil
		},
	})

	var scopes []string
	authURL := &cobra.Command{
		Use:   "auth-url <service>",
		Short: "Print the consent URL and the state value to expect on the callback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceArg(args[0])
			if err != nil {
				return err
			}
			creds, err := c.requireCredentials(svc)
			if err != nil {
				return err
			}
			client, err := c.container.Client(svc)
			if err != nil {
				return err
			}
			u, state := client.AuthorizeURL(*creds, scopes)
			fmt.Fprintln(cmd.OutOrStdout(), u)
			fmt.Fprintf(cmd.OutOrStdout(), "state: %s\n", state)
			return nil
		},
	}
	authURL.Flags().StringSliceVar(&scopes, "scope", nil, "scopes to request (default: read-only playback scopes)")
	cmd.AddCommand(authURL)

	cmd.AddCommand(&cobra.Command{
		Use:   "auth <service> <code>",
		Short: "Exchange an authorization code and store the tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceArg(args[0])
			if err != nil {
				return err
			}
			creds, err := c.requireCredentials(svc)
			if err != nil {
				return err
			}
			client, err := c.container.Client(svc)
			if err != nil {
				return err
			}
			tok, err := client.Authenticate(cmd.Context(), *creds, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s authenticated; token valid for %s\n", svc, time.Duration(tok.ExpiresIn)*time.Second)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh <service>",
		Short: "Refresh the access token now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := c.container.Config().CredentialsFor(model.ServiceName(args[0]))
			tok, err := c.container.Registry().RecoverToken(cmd.Context(), args[0], creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s refreshed; token valid for %s\n", args[0], time.Duration(tok.ExpiresIn)*time.Second)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout <service>",
		Short: "Delete every stored token for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceArg(args[0])
			if err != nil {
				return err
			}
			client, err := c.container.Client(svc)
			if err != nil {
				return err
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s logged out\n", svc)
			return nil
		},
	})

	return cmd
}

// describeEntry renders a ledger entry without revealing token values.
func describeEntry(entry model.LedgerEntry, now time.Time) string {
	state := entry.StateAt(now)
	parts := []string{state.String()}

	if entry.HasExpiry {
		remaining := entry.ExpiresAt.Sub(now).Round(time.Second)
		if remaining > 0 {
			parts = append(parts, "expires in "+remaining.String())
		} else {
			parts = append(parts, "expired "+(-remaining).String()+" ago")
		}
	}
	if entry.RefreshToken != "" {
		parts = append(parts, "refresh token stored")
	}
	return strings.Join(parts, ", ")
}
