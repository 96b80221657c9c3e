package main

import (
	"context"
	"os"

	"taskboard-be/config"
	"taskboard-be/internal/bootstrap"
	"taskboard-be/internal/cli"
	"taskboard-be/internal/services"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	bootstrap.ConfigureLogging(cfg)
	log.SetOutput(os.Stderr)

	open := func(ctx context.Context, cfg *config.Config) (*services.Services, func(), error) {
		app, err := bootstrap.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return app.Services, app.Close, nil
	}

	if err := cli.NewRootCommand(cfg, open).Execute(); err != nil {
		os.Exit(1)
	}
}
