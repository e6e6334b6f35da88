package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/fair-roulette-go/internal/api"
	"github.com/MJE43/fair-roulette-go/internal/config"
	"github.com/MJE43/fair-roulette-go/internal/credits"
	"github.com/MJE43/fair-roulette-go/internal/ledger"
	"github.com/MJE43/fair-roulette-go/internal/logger"
	"github.com/MJE43/fair-roulette-go/internal/seeds"
	"github.com/MJE43/fair-roulette-go/internal/store"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Optional; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	// A server that cannot draw secret seeds cannot make fairness
	// commitments, so refuse to start at all.
	if err := seeds.CheckEntropy(); err != nil {
		log.Error("entropy source unavailable", zap.Error(err))
		return err
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		log.Error("open database", zap.Error(err), zap.String("path", cfg.DBPath))
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Error("run migrations", zap.Error(err))
		return err
	}

	l := ledger.New(db, log)
	cs := credits.NewService(db, log)
	srv := api.NewServer(l, cs, []byte(cfg.JWTSecret), cfg.CORSOrigins, log)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped cleanly")
	return nil
}
