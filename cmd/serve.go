package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/stagelist/internal/kvstore"
	"github.com/desertthunder/stagelist/internal/server"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the REST backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	serverCfg := r.config.Server
	storeCfg := r.config.Store
	if cmd.IsSet("host") {
		serverCfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		serverCfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("store") {
		storeCfg.Driver = cmd.String("store")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := shared.WithLogger(r.logger, "component", "server")
	store, err := kvstore.Open(ctx, storeCfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := server.New(serverCfg, store, server.WithLogger(logger))
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
