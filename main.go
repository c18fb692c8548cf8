package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dutch/internal/config"
	"dutch/internal/database"
	"dutch/internal/game"
	"dutch/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := database.NewStore(cfg.DBPath, logger.Named("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	hub := server.NewHub(logger.Named("hub"))
	rules := game.DefaultRules()
	rules.CallerPenalty = cfg.CallerPenalty
	manager := game.NewManager(game.NewMemoryRegistry(), hub, game.Options{
		Rules:       rules,
		PeekReveal:  cfg.PeekReveal,
		QueenReveal: cfg.QueenReveal,
		MaxPlayers:  cfg.MaxPlayers,
		Store:       store,
		Logger:      logger.Named("game"),
	})
	handler := server.NewHandler(manager, hub, cfg.AllowedOrigins, cfg.StaticDir, logger.Named("http"))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
