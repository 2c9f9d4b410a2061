package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"telegram-course-bot/internal/application"
	"telegram-course-bot/internal/config"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/adapter"
	"telegram-course-bot/internal/domain/ports/repository"
	httpapi "telegram-course-bot/internal/infra/http"
	"telegram-course-bot/internal/infra/i18n"
	"telegram-course-bot/internal/infra/logging"
	"telegram-course-bot/internal/infra/memory"
	"telegram-course-bot/internal/infra/metrics"
	"telegram-course-bot/internal/infra/payment"
	red "telegram-course-bot/internal/infra/redis"
	tele "telegram-course-bot/internal/infra/telegram"
	"telegram-course-bot/internal/infra/worker"
	"telegram-course-bot/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (verbose logs, unredacted references)")
	flag.Parse()

	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("config")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.SetBuildInfo(version, commit)

	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		logger.Fatal().Err(err).Str("language", cfg.Bot.Language).Msg("translations")
	}

	// ---- Redis (optional) ----
	var (
		redisClient *red.Client
		rateLimiter *red.RateLimiter
		ready       httpapi.ReadinessCheck
	)
	if strings.TrimSpace(cfg.Redis.URL) != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		ready = redisClient.Ping
	}

	// ---- Repositories ----
	catalogRepo := memory.NewCatalogRepo(model.PaymentDestinations{
		BkashNumber: cfg.Payment.Bkash.Number,
		NagadNumber: cfg.Payment.Nagad.Number,
	})
	sessionRepo := memory.NewSessionRepo()
	sessionRepo.OnCreate(func(int64) { metrics.IncUsersSeen() })
	adminRepo := memory.NewAdminRepo(cfg.Bot.PrimaryAdminID)

	var ledgerRepo repository.LedgerRepository
	switch cfg.Ledger.Backend {
	case "redis":
		ledgerRepo = red.NewLedgerRepo(redisClient, cfg.Ledger.ClaimTTL)
	default:
		ledgerRepo = memory.NewLedgerRepo()
	}
	logger.Info().Str("backend", cfg.Ledger.Backend).Msg("transaction ledger ready")

	// ---- Background notifications ----
	pool := worker.NewPool("notify", cfg.Notify.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Telegram ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, cfg.RateLimit, nil, translator, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Use cases ----
	catalogUC := usecase.NewCatalogUseCase(catalogRepo, logger)
	seedCatalog(ctx, catalogUC, cfg.Catalog.Courses, logger)

	adminUC := usecase.NewAdminUseCase(adminRepo, ledgerRepo, logger)
	statsUC := usecase.NewStatsUseCase(sessionRepo, catalogRepo, adminRepo, logger)
	notifUC := usecase.NewNotificationUseCase(botAdapter, pool, translator, usecase.NotificationTargets{
		AuditChatID: cfg.Notify.ChannelID,
		AdminChatID: cfg.Notify.AdminChatID,
	}, logger)
	var gateway adapter.PaymentGateway = payment.NewBkashGateway(cfg.Payment.Bkash, logger)
	if cfg.Runtime.Dev && cfg.Payment.Bkash.AppKey == "" {
		logger.Warn().Msg("no bKash credentials; using the sandbox gateway (TEST<amount> references complete)")
		gateway = payment.NewSandboxGateway()
	}
	purchaseUC := usecase.NewPurchaseUseCase(
		catalogRepo, sessionRepo, ledgerRepo, adminRepo,
		gateway, notifUC, cfg.Payment.Bkash.Timeout, cfg.Runtime.Dev, logger,
	)

	// ---- Facade ----
	facade := application.NewBotFacade(purchaseUC, catalogUC, adminUC, statsUC, translator, application.Links{
		SupportURL: cfg.Bot.SupportURL,
		ChannelURL: cfg.Bot.ChannelURL,
	}, logger)
	botAdapter.SetFacade(facade)

	if strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- HTTP health/metrics ----
	server := httpapi.NewServer(cfg.HTTP.Port, ready, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	logger.Info().Str("version", version).Int("courses", len(cfg.Catalog.Courses)).Msg("bot started")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	botAdapter.StopPolling()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
