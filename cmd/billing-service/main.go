package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/driveon/rental-billing/internal/auth"
	"github.com/driveon/rental-billing/internal/config"
	"github.com/driveon/rental-billing/internal/db"
	"github.com/driveon/rental-billing/internal/excel"
	httphandler "github.com/driveon/rental-billing/internal/http"
	"github.com/driveon/rental-billing/internal/http/middleware"
	"github.com/driveon/rental-billing/internal/logger"
	"github.com/driveon/rental-billing/internal/pdf"
	"github.com/driveon/rental-billing/internal/repository"
	"github.com/driveon/rental-billing/internal/scheduler"
	"github.com/driveon/rental-billing/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	chargeRepo := repository.NewChargeRepository(database)
	contractRepo := repository.NewContractRepository(database)

	billingService := service.NewBillingService(chargeRepo, contractRepo, log)
	statementService := service.NewStatementService(
		chargeRepo,
		contractRepo,
		excel.NewGenerator(),
		pdf.NewGenerator(),
		log,
	)

	if cfg.Billing.SchedulerEnabled {
		jobs, err := scheduler.New(cfg, billingService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init scheduler")
		}
		jobs.Start()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			log.Info().Msg("shutting down")
			jobs.Stop()
			os.Exit(0)
		}()
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(billingService, statementService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting billing service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
