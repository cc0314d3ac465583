package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

func newSecretCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store, read, and delete encrypted secrets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <value>",
		Short: "Encrypt and store a secret",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.container.Store().Store(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Decrypt and print a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := c.container.Store().Retrieve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("secret %q not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret (no error if absent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.container.Store().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored secret names (sqlite and memory backends)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lister, ok := c.container.Backend().(driven.SecretLister)
			if !ok {
				return fmt.Errorf("the %s backend cannot enumerate secrets", c.container.Config().Backend)
			}
			names, err := lister.Accounts(cmd.Context(), c.container.Keys().Service())
			if err != nil {
				return err
			}
			for _, name := range names {
				if name == c.container.Keys().EntryName() {
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})

	return cmd
}

func newKeyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the master encryption key",
	}

	var confirm bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Replace the master key; existing secrets become unreadable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("refusing to reset the master key without --yes")
			}
			if _, err := c.container.Keys().ResetKey(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "master key replaced; store your secrets again")
			return nil
		},
	}
	reset.Flags().BoolVar(&confirm, "yes", false, "confirm the reset")
	cmd.AddCommand(reset)

	return cmd
}
