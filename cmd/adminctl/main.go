// adminctl is the operator CLI: migrations, admin bootstrap and the
// same lifecycle sweeps the server runs on its ticker, runnable on
// demand.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	appAudit "github.com/estate-hub/estate-hub/internal/application/audit"
	appAuth "github.com/estate-hub/estate-hub/internal/application/auth"
	appOffer "github.com/estate-hub/estate-hub/internal/application/offer"
	appVisit "github.com/estate-hub/estate-hub/internal/application/visit"
	"github.com/estate-hub/estate-hub/internal/config"
	"github.com/estate-hub/estate-hub/internal/domain/commission"
	"github.com/estate-hub/estate-hub/internal/infrastructure/notify"
	"github.com/estate-hub/estate-hub/internal/infrastructure/postgres"
)

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Operator tooling for the deal lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		migrateCmd(logger),
		bootstrapAdminCmd(logger),
		sweepOffersCmd(logger),
		markNoShowsCmd(logger),
	)

	if err := root.Execute(); err != nil {
		logger.Fatal().Err(err).Msg("command failed")
	}
}

func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}

func bootstrapAdminCmd(logger zerolog.Logger) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first admin account if no users exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			auditSvc := appAudit.NewService(postgres.NewAuditRepository(pool), logger, hexKey(cfg.AuditSigningKeyHex))
			authSvc := appAuth.NewService(postgres.NewUserRepository(pool), auditSvc, cfg.JWTSecret, cfg.TokenTTL, logger)
			if err := authSvc.BootstrapAdmin(ctx, username, password); err != nil {
				return err
			}
			logger.Info().Str("username", username).Msg("admin bootstrap done")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func sweepOffersCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-offers",
		Short: "Expire pending offers past their deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := offerService(cfg, pool, logger)
			n, err := svc.SweepExpired(ctx)
			if err != nil {
				return err
			}
			logger.Info().Int("expired", n).Msg("offer sweep done")
			return nil
		},
	}
}

func markNoShowsCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-no-shows",
		Short: "Flag approved visits whose confirmed date passed the grace window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			auditSvc := appAudit.NewService(postgres.NewAuditRepository(pool), logger, hexKey(cfg.AuditSigningKeyHex))
			svc := appVisit.NewService(
				postgres.NewVisitRepository(pool),
				postgres.NewVisitVerificationRepository(pool),
				postgres.NewPropertyRepository(pool),
				postgres.NewAssignmentRepository(pool),
				notify.NewLogDispatcher(logger),
				auditSvc,
				appVisit.Config{CheckInRadiusM: cfg.CheckInRadiusM, NoShowGrace: cfg.VisitNoShowGrace},
				logger,
			)
			n, err := svc.MarkNoShows(ctx)
			if err != nil {
				return err
			}
			logger.Info().Int("marked", n).Msg("no-show sweep done")
			return nil
		},
	}
}

func offerService(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *appOffer.Service {
	auditSvc := appAudit.NewService(postgres.NewAuditRepository(pool), logger, hexKey(cfg.AuditSigningKeyHex))
	return appOffer.NewService(
		postgres.NewOfferRepository(pool),
		postgres.NewPropertyRepository(pool),
		postgres.NewRuleRepository(pool),
		postgres.NewAssignmentRepository(pool),
		postgres.NewTransactionRepository(pool),
		postgres.NewCommissionRepository(pool),
		commission.Schedule{
			CommissionBps:  cfg.CommissionBps,
			AgentShareBps:  cfg.AgentShareBps,
			PlatformFeeBps: cfg.PlatformFeeBps,
		},
		cfg.OfferExpiry,
		notify.NewLogDispatcher(logger),
		auditSvc,
		logger,
	)
}

func hexKey(hexStr string) []byte {
	if hexStr == "" {
		return nil
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil
	}
	return b
}
