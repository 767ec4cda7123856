package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/cli"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, version)
	stop()
	if code := apperrors.ExitCode(err); code != 0 {
		os.Exit(code)
	}
}
