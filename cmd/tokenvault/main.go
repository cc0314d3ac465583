package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", model.UserMessage(err))
		if hint := model.RecoverySuggestion(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint: ", hint)
		}
		fmt.Fprintln(os.Stderr, "Detail:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	err := newRootCmd(c).ExecuteContext(ctx)
	return errors.Join(err, c.close(context.Background()))
}
