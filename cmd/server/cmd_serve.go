package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codedojo/internal/api"
	"codedojo/internal/app/executor"
	"codedojo/internal/app/service"
	"codedojo/internal/common/security"
	"codedojo/internal/domain/repository"
	"codedojo/internal/platform/cache"
	"codedojo/internal/platform/database"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var serveHwd = &ServeRunner{}

type ServeRunner struct{}

func (r *ServeRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API (default command)",
		Action: r.run,
	}
}

func (r *ServeRunner) run(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connected", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))

	rdb, err := cache.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected, grading lock enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		log.Info("REDIS_ADDR not set, grading lock disabled")
	}

	codec, err := security.NewTokenCodec(cfg.JWTAlgorithm, cfg.JWTKey, cfg.JWTExp)
	if err != nil {
		return fmt.Errorf("init token codec: %w", err)
	}

	// Repositories
	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	solutionRepo := repository.NewPgSolutionRepository(db)
	snippetRepo := repository.NewPgSnippetRepository(db)

	// Services
	sandbox := executor.NewClient(cfg, log)
	gate := service.NewCredentialGate(codec, userRepo, log)
	authService := service.NewAuthService(userRepo, codec, log)
	problemService := service.NewProblemService(problemRepo, solutionRepo, log)
	gradingService := service.NewGradingService(problemRepo, solutionRepo, sandbox,
		service.NewGradingLock(rdb, cfg.GradingLockTTL, log), log)
	snippetService := service.NewSnippetService(snippetRepo, sandbox, log)

	router := api.NewRouter(log, gate, authService, problemService, gradingService, snippetService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 75 * time.Second, // grading passes run inside the request
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
