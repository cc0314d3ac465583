package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newYouTubeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "youtube",
		Short: "Manage the YouTube Data API key and look up videos",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <api-key>",
		Short: "Encrypt and store the API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.container.Video().StoreAPIKey(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key stored")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the stored API key against the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := c.container.Video().ValidateAPIKey(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("the stored API key was rejected")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key is valid")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "video <video-id>",
		Short: "Print a video's title, channel, and duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			track, err := c.container.Video().VideoMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s - %s [%s]\n", track.Artist, track.Title, clock(track.DurationMS))
			return nil
		},
	})

	return cmd
}
