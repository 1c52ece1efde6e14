// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"telegram-crm-relay/internal/application"
	"telegram-crm-relay/internal/config"
	"telegram-crm-relay/internal/domain/ports/repository"
	attio "telegram-crm-relay/internal/infra/adapters/attio"
	tele "telegram-crm-relay/internal/infra/adapters/telegram"
	pg "telegram-crm-relay/internal/infra/db/postgres"
	httpapi "telegram-crm-relay/internal/infra/http"
	"telegram-crm-relay/internal/infra/logging"
	"telegram-crm-relay/internal/infra/metrics"
	red "telegram-crm-relay/internal/infra/redis"
	"telegram-crm-relay/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (console logs)")
	flag.Parse()

	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	sessionRepo := red.NewSessionRepo(redisClient, cfg.Redis.SessionTTL)
	recentsRepo := red.NewRecentCompaniesRepo(redisClient, cfg.Redis.RecentTTL, cfg.Redis.MaxRecent, logger)
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Postgres (optional audit trail) ----
	var auditPort repository.NoteAuditRepository
	var statsUC *usecase.StatsUseCase
	pool, err := pg.OptionalPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	if pool != nil {
		defer pool.Close()
		auditRepo := pg.NewNoteAuditRepo(pool)
		if err := auditRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("postgres schema")
		}
		auditPort = auditRepo
		statsUC = usecase.NewStatsUseCase(auditRepo)
	} else {
		logger.Warn().Msg("database.url not set; note audit trail disabled")
	}

	// ---- Attio ----
	crm := attio.NewClient(&cfg.Attio, cfg.Relay.MaxSearchResults, logger)

	// ---- Use cases & facade ----
	relay := usecase.NewRelayUseCase(sessionRepo, recentsRepo, crm, auditPort, cfg.Relay.MaxSearchResults, logger)
	facade := application.NewBotFacade(relay, statsUC, logger)

	// ---- Telegram ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, locker, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Ops HTTP server ----
	srv := httpapi.NewServer(cfg.Admin.Port, redisClient, pool, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("ops server stopped")
		}
	}()

	logger.Info().Msg("relay bot started")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	botAdapter.StopPolling()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server shutdown")
	}
	logger.Info().Msg("relay bot stopped")
}
