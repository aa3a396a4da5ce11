package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leoride/internal/api"
	"leoride/internal/config"
	"leoride/internal/database"
	"leoride/internal/domain"
	"leoride/internal/events"
	"leoride/internal/logging"
	"leoride/internal/metrics"
	"leoride/internal/notify"
	"leoride/internal/repository"
	"leoride/internal/service"
	"leoride/internal/sheets"
	"leoride/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	roleCache := buildRoleCache(redisClient, &logger)
	sheetsService := initGoogleSheets(cfg, &logger)
	bus := events.NewEventBus()

	syncWorker := worker.NewSyncWorker(db, sheetsWriter(sheetsService), redisClient, worker.RetryPolicy{}, &logger)

	bookingService := service.NewBookingService(db, bus, syncWorker, cfg.Booking.MaxBookingDays, &logger)
	paymentService := service.NewPaymentService(db, bus, syncWorker, cfg.PaymentDelay(), &logger)
	catalogService := service.NewCatalogService(db, &logger)
	userService := service.NewUserService(db, roleCache, &logger)
	reportService := service.NewReportService(db, &logger)

	initTelegram(cfg, bus, &logger)

	auth := api.NewHTTPAuth(cfg.API.Auth, userService, roleCache, cfg.RoleCacheTTL(), &logger)
	httpServer := api.NewHTTPServer(cfg.API, api.Services{
		Bookings: bookingService,
		Payments: paymentService,
		Catalog:  catalogService,
		Users:    userService,
		Reports:  reportService,
	}, auth, bus, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go syncWorker.Start(ctx)

	backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
	go backupService.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	return serveHTTP(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildRoleCache prefers redis and falls back to the in-process cache
// when redis is down or not configured.
func buildRoleCache(redisClient *redis.Client, logger *zerolog.Logger) domain.RoleCache {
	memory := repository.NewMemoryRoleCache()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverRoleCache(repository.NewRedisRoleCache(redisClient), memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *sheets.Service {
	if cfg.Google.CredentialsFile == "" || cfg.Google.ReportSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := sheets.NewService(cfg.Google.CredentialsFile, cfg.Google.ReportSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

// sheetsWriter keeps the nil check out of the worker: a typed nil inside
// a non-nil interface would dodge the worker's nil guard.
func sheetsWriter(s *sheets.Service) domain.SheetsWriter {
	if s == nil {
		return nil
	}
	return s
}

func initTelegram(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.AdminChatIDs) == 0 {
		return
	}

	bot, err := notify.NewBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}

	notify.New(bot, cfg.Telegram.AdminChatIDs, logger).Subscribe(bus)
	logger.Info().Int("admin_chats", len(cfg.Telegram.AdminChatIDs)).Msg("telegram notifications enabled")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serveHTTP(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
