// Package main starts the api-backend HTTP service and handles termination.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	apibackendcmd "github.com/louisbranch/api-backend/internal/cmd/apibackend"
	"github.com/louisbranch/api-backend/internal/platform/config"
)

func main() {
	cfg, err := apibackendcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := apibackendcmd.Run(ctx, cfg); err != nil {
		stop()
		config.Exitf("failed to serve: %v", err)
	}
}
