package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/fundraising-backend/internal/config"
	"github.com/ignatzorin/fundraising-backend/internal/db"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/goroutine"
	httpRouter "github.com/ignatzorin/fundraising-backend/internal/http/router"
	"github.com/ignatzorin/fundraising-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/fundraising-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/fundraising-backend/internal/interface/http/handler"
	"github.com/ignatzorin/fundraising-backend/internal/logger"
	"github.com/ignatzorin/fundraising-backend/internal/service"
	"github.com/ignatzorin/fundraising-backend/internal/usecase/withdrawal"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}
	log := logger.Log

	var (
		uow    repository.UnitOfWork
		pinger handler.Pinger
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn("main: используется хранилище в памяти, данные не сохраняются между запусками")
		uow = memory.NewStore()
	default:
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		migrations, err := db.Migrations(cfg.MigrationsPath)
		if err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}
		if err := db.RunMigrations(ctx, dbConn, migrations); err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}

		uow = persistence.NewUnitOfWork(dbConn)
		pinger = dbConn
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	engine := withdrawal.NewEngine(uow, cfg.LockTimeout)

	var seedHandler *handler.SeedHandler
	if cfg.Env == "development" {
		seedHandler = handler.NewSeedHandler(service.NewSeedService(engine, uow.Repositories().Ledgers, tokenManager))
	}

	router := httpRouter.SetupRouter(
		cfg,
		handler.NewTransactionHandler(engine),
		handler.NewHealthHandler(pinger, cfg.StorageDriver),
		seedHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGoWithContext(ctx, "http-shutdown", func(ctx context.Context) {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	})

	log.WithFields(logrus.Fields{
		"port":    cfg.HTTPPort,
		"storage": cfg.StorageDriver,
		"env":     cfg.Env,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.L().Errorf("main: ошибка закрытия базы: %v", err)
	}
}
