package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/decisionkeeper/internal/logging"
	"github.com/dmitrijs2005/decisionkeeper/internal/server"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
