package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	httpapi "github.com/estate-hub/estate-hub/internal/api/http"
	appAssignment "github.com/estate-hub/estate-hub/internal/application/assignment"
	appAudit "github.com/estate-hub/estate-hub/internal/application/audit"
	appAuth "github.com/estate-hub/estate-hub/internal/application/auth"
	appOffer "github.com/estate-hub/estate-hub/internal/application/offer"
	appProperty "github.com/estate-hub/estate-hub/internal/application/property"
	appRule "github.com/estate-hub/estate-hub/internal/application/rule"
	appSettlement "github.com/estate-hub/estate-hub/internal/application/settlement"
	appVerification "github.com/estate-hub/estate-hub/internal/application/verification"
	appVisit "github.com/estate-hub/estate-hub/internal/application/visit"
	"github.com/estate-hub/estate-hub/internal/config"
	"github.com/estate-hub/estate-hub/internal/domain/commission"
	"github.com/estate-hub/estate-hub/internal/infrastructure/notify"
	"github.com/estate-hub/estate-hub/internal/infrastructure/postgres"
	redisinfra "github.com/estate-hub/estate-hub/internal/infrastructure/redis"
)

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	userRepo := postgres.NewUserRepository(pool)
	propertyRepo := postgres.NewPropertyRepository(pool)
	assignmentRepo := postgres.NewAssignmentRepository(pool)
	verificationRepo := postgres.NewVerificationRepository(pool)
	visitRepo := postgres.NewVisitRepository(pool)
	visitCheckRepo := postgres.NewVisitVerificationRepository(pool)
	offerRepo := postgres.NewOfferRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	commissionRepo := postgres.NewCommissionRepository(pool)
	ruleRepo := postgres.NewRuleRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	// infrastructure
	redisClient := redisinfra.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()
	otpStore := redisinfra.NewOTPStore(redisClient)
	dispatcher := notify.NewLogDispatcher(logger)

	// services
	auditSvc := appAudit.NewService(auditRepo, logger, loadHexKey(cfg.AuditSigningKeyHex))
	authSvc := appAuth.NewService(userRepo, auditSvc, cfg.JWTSecret, cfg.TokenTTL, logger)
	propertySvc := appProperty.NewService(propertyRepo, auditSvc, logger)
	assignmentSvc := appAssignment.NewService(assignmentRepo, propertyRepo, userRepo, auditSvc, logger)
	verificationSvc := appVerification.NewService(verificationRepo, propertyRepo, assignmentSvc, otpStore, dispatcher, auditSvc, appVerification.Config{
		OTPTTL:         cfg.OTPTTL,
		OTPMaxAttempts: cfg.OTPMaxAttempts,
		OTPLockFor:     cfg.OTPLockFor,
		CheckInRadiusM: cfg.CheckInRadiusM,
	}, logger)
	visitSvc := appVisit.NewService(visitRepo, visitCheckRepo, propertyRepo, assignmentRepo, dispatcher, auditSvc, appVisit.Config{
		CheckInRadiusM: cfg.CheckInRadiusM,
		NoShowGrace:    cfg.VisitNoShowGrace,
	}, logger)
	schedule := commission.Schedule{
		CommissionBps:  cfg.CommissionBps,
		AgentShareBps:  cfg.AgentShareBps,
		PlatformFeeBps: cfg.PlatformFeeBps,
	}
	if err := schedule.Validate(); err != nil {
		log.Fatalf("commission schedule error: %v", err)
	}
	offerSvc := appOffer.NewService(offerRepo, propertyRepo, ruleRepo, assignmentRepo, txnRepo, commissionRepo, schedule, cfg.OfferExpiry, dispatcher, auditSvc, logger)
	settlementSvc := appSettlement.NewService(txnRepo, paymentRepo, commissionRepo, propertyRepo, otpStore, dispatcher, auditSvc, appSettlement.Config{
		OTPTTL:         cfg.OTPTTL,
		OTPMaxAttempts: cfg.OTPMaxAttempts,
		OTPLockFor:     cfg.OTPLockFor,
		CheckInRadiusM: cfg.CheckInRadiusM,
	}, logger)
	ruleSvc := appRule.NewService(ruleRepo, auditSvc, logger)

	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		if err := authSvc.BootstrapAdmin(ctx, username, os.Getenv("ADMIN_PASSWORD")); err != nil {
			log.Fatalf("admin bootstrap error: %v", err)
		}
	}

	// API server
	apiServer := httpapi.NewServer(authSvc, propertySvc, assignmentSvc, verificationSvc, visitSvc, offerSvc, settlementSvc, ruleSvc, auditSvc)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background sweeps
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := offerSvc.SweepExpired(context.Background()); err != nil {
				logger.Error().Err(err).Msg("offer sweep failed")
			}
			if _, err := visitSvc.MarkNoShows(context.Background()); err != nil {
				logger.Error().Err(err).Msg("visit no-show sweep failed")
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}

func loadHexKey(hexStr string) []byte {
	if hexStr == "" {
		return nil
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil
	}
	return b
}
