// @title           DocChat API
// @version         1.0
// @description     Document ingestion and retrieval-augmented chat
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/DocChat/internal/bootstrap"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/server"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logger_i.Init(false, "error")
		logger_i.NewLogger("main").Error("Could not load configuration", "error", err)
		os.Exit(1)
	}
	logger_i.Init(settings.IsProd, settings.LogLevel)
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&settings.ListenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, settings)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}

	handler, mw, limiter, mcp := app.HTTP()
	srv := server.New(settings.ListenAddr, server.NewRouter(handler, mw, mcp.Handler()), limiter)

	app.Pool.Start()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return srv.Run(groupCtx) })
	group.Go(func() error { return app.Reconciler.Run(groupCtx) })

	if err := group.Wait(); err != nil {
		logger.Error("Server exited with error", "error", err)
	}

	logger.Info("Waiting for workers to finish")
	app.Pool.Stop()
	if err := app.Close(); err != nil {
		logger.Error("Closing external services failed", "error", err)
	}
	logger.Info("Server stopped")
}
