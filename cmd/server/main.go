package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ignatzorin/telehealth-backend/internal/config"
	"github.com/ignatzorin/telehealth-backend/internal/db"
	"github.com/ignatzorin/telehealth-backend/internal/domain/settlement"
	"github.com/ignatzorin/telehealth-backend/internal/domain/valueobject"
	"github.com/ignatzorin/telehealth-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/telehealth-backend/internal/http/handlers"
	"github.com/ignatzorin/telehealth-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/telehealth-backend/internal/http/router"
	"github.com/ignatzorin/telehealth-backend/internal/logger"
	"github.com/ignatzorin/telehealth-backend/internal/observability/metrics"
	"github.com/ignatzorin/telehealth-backend/internal/repository"
	"github.com/ignatzorin/telehealth-backend/internal/repository/common"
	"github.com/ignatzorin/telehealth-backend/internal/service"
	"github.com/ignatzorin/telehealth-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	feeRate, err := valueobject.NewFeeRate(cfg.BookingFeeRate)
	if err != nil {
		logger.Log.Fatalf("main: некорректная комиссия платформы: %v", err)
	}

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		logger.Log.Fatalf("main: не удалось создать snowflake узел: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, 0)

	// Метрики.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(dbConn.DB, "telehealth"),
	)
	resolutionMetrics := metrics.NewResolutionMetrics(registry, metrics.Config{
		ServiceName: "telehealth-backend",
		Environment: cfg.Env,
	})

	// Репозитории.
	appointmentRepo := repository.NewAppointmentRepository(dbConn, cfg.ResolveLockTimeout)
	walletRepo := repository.NewWalletRepository()
	subscriptionRepo := repository.NewSubscriptionRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn, node)

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	// Сервисы.
	disputeService := service.NewDisputeService(
		common.NewTxManager(dbConn),
		appointmentRepo,
		walletRepo,
		subscriptionRepo,
		paymentRepo,
		settlement.NewPolicy(feeRate),
	)
	disputeService.SetHub(hub)
	disputeService.SetMetrics(resolutionMetrics)

	rateLimitStore, err := middleware.NewRateLimitStore(ctx, cfg.RedisURL, "telehealth:ratelimit")
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить хранилище rate limit: %v", err)
	}

	engine := httpRouter.SetupRouter(httpRouter.Deps{
		Config:           cfg,
		TokenManager:     tokenManager,
		RateLimitStore:   rateLimitStore,
		MetricsGatherer:  registry,
		HealthHandler:    httpHandlers.NewHealthHandler(dbConn),
		WSHandler:        httpHandlers.NewWSHandler(hub, tokenManager),
		AppointmentAdmin: httpHandlers.NewAdminAppointmentHandler(disputeService),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	})

	logger.Log.WithField("port", cfg.HTTPPort).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
	logger.Log.Info("HTTP сервер остановлен")
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
