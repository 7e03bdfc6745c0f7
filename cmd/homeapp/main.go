// Command homeapp serves the home page linking to the games and the
// backoffice dashboards.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/jumper/internal/adapters/http/api"
	"github.com/okian/jumper/internal/adapters/http/site"
	"github.com/okian/jumper/internal/config"
	"github.com/okian/jumper/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFile(cfg.LogFile)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	log := logger.Named("homeapp")
	h, err := newHandler(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "build home page", logger.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HomeAddr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "starting home page server", logger.String("addr", cfg.HomeAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "home page server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "home page server stopped")
}

func newHandler(ctx context.Context, cfg *config.Config, log logger.Logger) (http.Handler, error) {
	root, err := site.NewRootHandler(site.LinksFromConfig(cfg), log)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	site.Register(ctx, mux, root)
	return api.RequestIDMiddleware(api.RecoverMiddleware(log, mux)), nil
}
