package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gwi.com/prompt-history/internal/api"
	"gwi.com/prompt-history/internal/auth"
	"gwi.com/prompt-history/internal/config"
	"gwi.com/prompt-history/internal/core"
	"gwi.com/prompt-history/internal/store"
	"gwi.com/prompt-history/internal/web"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	dbStore, err := store.NewSQLiteStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "initialize database")
	}
	defer dbStore.Close()

	completer, err := core.NewCompleter(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "initialize completion client")
	}
	if c, ok := completer.(io.Closer); ok {
		defer c.Close()
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	pages, err := web.Pages(cfg.StaticDir)
	if err != nil {
		return err
	}

	guard := auth.NewGuard(sessions, auth.GuardConfig{
		Username:     cfg.AuthUsername,
		Password:     cfg.AuthPassword,
		Secret:       []byte(cfg.SessionSecret),
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.CookieSecure,
	})
	chatService := core.NewChatService(completer, dbStore)

	apiHandler := api.NewAPIHandler(chatService, guard, pages)
	router := api.NewRouter(apiHandler, api.RouterOptions{AllowedOrigins: cfg.CORSAllowedOrigins})

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // completion calls can take time
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", serverAddr).
			Str("provider", cfg.CompletionProvider).
			Str("session_store", cfg.SessionStore).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrapf(err, "listen on %s", serverAddr)
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	log.Info().Msg("server exited gracefully")
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config) (auth.Store, func(), error) {
	if cfg.SessionStore != config.SessionStoreRedis {
		return auth.NewMemoryStore(), func() {}, nil
	}

	rs := auth.NewRedisStore(cfg.RedisAddr)
	if err := rs.Ping(ctx); err != nil {
		_ = rs.Close()
		return nil, nil, errors.Wrapf(err, "connect to session store at %s", cfg.RedisAddr)
	}
	return rs, func() { _ = rs.Close() }, nil
}
