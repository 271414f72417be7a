package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scoutlink/alliance-backend/internal/config"
	"github.com/scoutlink/alliance-backend/internal/httpapi"
	"github.com/scoutlink/alliance-backend/internal/hub"
	"github.com/scoutlink/alliance-backend/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load() // optional .env for local dev

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("loading config", zap.Error(err))
	}

	var st store.Store
	switch cfg.Database.Driver {
	case "postgres":
		st, err = store.NewPostgres(cfg.Database.URL)
		if err != nil {
			log.Fatal("connecting to postgres", zap.Error(err))
		}
	case "memory":
		st = store.NewMemory()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, st, log)
	if n, err := h.Resume(ctx); err != nil {
		log.Fatal("resuming active sessions", zap.Error(err))
	} else if n > 0 {
		log.Info("resumed active sessions", zap.Int("count", n))
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpapi.SetupRoutes(h, st, cfg.Session.PrivilegedKeys, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
