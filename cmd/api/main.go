package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/notification"
	"app/internal/payos"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	// missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := config.NewLogger(cfg)

	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	txManager := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	gateway := payos.NewClient(payos.Credentials{
		ClientID:    cfg.PayosClientID,
		APIKey:      cfg.PayosAPIKey,
		ChecksumKey: cfg.PayosChecksumKey,
	}, cfg.PayosBaseURL, cfg.FrontendURL, logger)

	var notifier usecase.Notifier
	if cfg.SMTPHost != "" {
		notifier = notification.NewEmailNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, logger)
	} else {
		notifier = notification.NewLogNotifier(logger)
	}

	authUC := usecase.NewAuthUsecase(cfg, userRepo, logger)
	cartUC := usecase.NewCartUsecase(txManager, logger)
	orderUC := usecase.NewOrderUsecase(txManager, gateway, notifier, cfg.FrontendURL, logger)
	webhookUC := usecase.NewWebhookUsecase(txManager, cfg.PayosChecksumKey, cfg.PayosInsecureSkipVerify, notifier, logger)
	adminUC := usecase.NewAdminOrderUsecase(txManager, auditRepo, logger)
	paymentUC := usecase.NewPaymentUsecase(txManager, gateway, logger)

	srv := server.New(logger)
	srv.RegisterRoutes(cfg, server.Handlers{
		Auth:       handler.NewAuthHandler(authUC),
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC, webhookUC, logger),
		AdminOrder: handler.NewAdminOrderHandler(adminUC),
		Payment:    handler.NewPaymentHandler(paymentUC),
	})

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	go func() {
		if err := srv.Start(addr); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
