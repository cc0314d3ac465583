package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/tokenvault/internal/adapter/driving/http"
	"github.com/ericfisherdev/tokenvault/internal/application"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

func newNowPlayingCmd(c *cli) *cobra.Command {
	var (
		watch       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "nowplaying [service]",
		Short: "Show the currently playing track",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := model.ServiceSpotify
			if len(args) == 1 {
				var err error
				if svc, err = serviceArg(args[0]); err != nil {
					return err
				}
			}

			if !watch {
				client, err := c.container.Client(svc)
				if err != nil {
					return err
				}
				track, err := client.NowPlayingWithRefresh(cmd.Context(), c.container.Config().CredentialsFor(svc))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatTrack(track))
				return nil
			}

			return c.watch(cmd.Context(), cmd.OutOrStdout(), svc, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep polling and print every change")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics, /healthz and /nowplaying on this address while watching")
	return cmd
}

func (c *cli) watch(ctx context.Context, out io.Writer, svc model.ServiceName, addr string) error {
	var last string
	p, err := c.container.Poller(svc, func(u model.PlaybackUpdate) {
		line := formatTrack(u.Track)
		if u.Err != nil {
			line = "error: " + model.UserMessage(u.Err)
		}
		if line != last {
			fmt.Fprintf(out, "%s  %s\n", u.CheckedAt.Format(time.TimeOnly), line)
			last = line
		}
	})
	if err != nil {
		return err
	}

	if addr != "" {
		stop := c.serveObservability(addr, p)
		defer stop()
	}
	p.Start(ctx)
	return nil
}

// serveObservability serves the observability endpoints until the returned
// stop func runs. /metrics is only mounted when metrics are enabled.
func (c *cli) serveObservability(addr string, p *application.NowPlayingPoller) func() {
	log := c.container.Logger()

	var metricsHandler http.Handler
	if provider := c.container.Metrics(); provider != nil {
		metricsHandler = provider.Handler()
	} else {
		log.Warn().Msg("metrics are disabled; set TOKENVAULT_METRICS_ENABLED=true to serve /metrics")
	}

	handler := httphandler.NewServeMux(httphandler.NewHandler(c.container.Registry(), p, metricsHandler, log))
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
	}
}

// formatTrack renders a track as "Artist - Title (Album) [1:02 / 3:45]".
func formatTrack(t *model.TrackMetadata) string {
	if t == nil {
		return "nothing playing"
	}

	var b strings.Builder
	if t.Artist != "" {
		b.WriteString(t.Artist)
		b.WriteString(" - ")
	}
	b.WriteString(t.Title)
	if t.Album != "" {
		fmt.Fprintf(&b, " (%s)", t.Album)
	}

	total := clock(t.DurationMS)
	if t.ProgressMS != nil {
		fmt.Fprintf(&b, " [%s / %s]", clock(*t.ProgressMS), total)
	} else {
		fmt.Fprintf(&b, " [%s]", total)
	}
	if !t.IsPlaying {
		b.WriteString(" paused")
	}
	return b.String()
}

func clock(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d >= time.Hour {
		return fmt.Sprintf("%d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
