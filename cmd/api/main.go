package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Title_Vote/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	_ "go.uber.org/automaxprocs"
)

// Name is the service name reported in every log line.
var Name = "title-vote"

func main() {
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", Name,
	)
	l := log.NewHelper(logger)

	cfg := config.Load()
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, cleanup, err := wireApp(cfg, logger)
	if err != nil {
		l.Fatalf("init app: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// bring the rank projections in line with the movie table
	if err = a.rank.Warm(ctx); err != nil {
		l.Errorf("warm rankings: %v", err)
	}
	go a.relayer.Run(ctx)
	go a.reconciler.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Infof("http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf("http shutdown: %v", err)
	}
	l.Info("server stopped")
}
