package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/policardmed/carteirinha/internal/domain/account"
	"github.com/policardmed/carteirinha/internal/domain/patient"
	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/internal/platform/cache"
	"github.com/policardmed/carteirinha/internal/platform/db"
	"github.com/policardmed/carteirinha/internal/platform/logging"
)

// seedUsers are the accounts every fresh tenant starts with.
var seedUsers = []account.CreateUserRequest{
	{Username: "admin", Name: "Administrator", Password: "Admin123#", Role: string(auth.RoleAdmin)},
	{Username: "patient", Name: "John Doe", Password: "Patient123#", Role: string(auth.RolePatient)},
}

// seedPatient is the demo patient record, owned by the "patient" user.
var seedPatient = patient.CreateRequest{
	FirstName:              "John",
	SurName:                "Doe",
	CPF:                    "11600194796",
	BirthDate:              "1990-01-01",
	MedicalRecordNumber:    "123456789",
	ContractStartDate:      "2023-01-01",
	ContractExpirationDate: "2024-01-01",
	ContractType:           string(patient.ContractFullDiscount),
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin and patient accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if tenant == "" {
				tenant = cfg.DefaultTenant
			}
			logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, Development: cfg.IsDev()})
			defer closer.Close()

			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			c := openCache(ctx, cfg, logger)
			defer c.Close()

			hasher := auth.NewBcryptHasher(cfg.BcryptCost)
			ctx = logger.With().Str("tenant", tenant).Logger().WithContext(ctx)
			created, err := seed(ctx, pool, tenant, hasher)
			if err != nil {
				return err
			}
			if created > 0 {
				dropRoleCounts(ctx, c, tenant)
			}
			logger.Info().Str("tenant", tenant).Msg("seed complete")
			return nil
		},
	}
	cmd.Flags().String("tenant", "", "Tenant identifier (defaults to DEFAULT_TENANT)")
	return cmd
}

// dropRoleCounts evicts the tenant's cached role counts once the seeded users
// are committed. Failures are logged; the entry expires on its own.
func dropRoleCounts(ctx context.Context, c cache.Cache, tenant string) {
	if err := c.Delete(ctx, account.RoleCountsKey(tenant)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("tenant", tenant).Msg("invalidate role counts")
	}
}

// seed runs in one transaction pinned to the tenant schema and reports how
// many users it created. Existing rows are skipped with a warning, so seeding
// twice is harmless.
func seed(ctx context.Context, pool *pgxpool.Pool, tenant string, hasher auth.PasswordHasher) (int, error) {
	if !db.ValidTenantID(tenant) {
		return 0, fmt.Errorf("invalid tenant identifier %q", tenant)
	}
	log := zerolog.Ctx(ctx)

	created := 0
	err := db.InTx(ctx, pool, func(ctx context.Context) error {
		schema := pgx.Identifier{db.SchemaName(tenant)}.Sanitize()
		if _, err := db.TxFromContext(ctx).Exec(ctx, "SET LOCAL search_path TO "+schema+", public"); err != nil {
			return fmt.Errorf("set search_path: %w", err)
		}

		users := account.NewUserRepo(pool)
		// Eviction happens in dropRoleCounts after commit.
		accounts := account.NewService(users, hasher, nil, nil)
		patients := patient.NewService(patient.NewPatientRepo(pool), users)

		for _, req := range seedUsers {
			// A failed insert would abort the transaction, so look first.
			_, err := users.GetByUsername(ctx, req.Username)
			if err == nil {
				log.Warn().Str("username", req.Username).Msg("user already exists, skipping")
				continue
			}
			if !apperr.IsNotFound(err) {
				return err
			}
			if _, err := accounts.Create(ctx, req); err != nil {
				return fmt.Errorf("create user %s: %w", req.Username, err)
			}
			created++
			log.Info().Str("username", req.Username).Msg("user created")
		}

		_, err := patients.FindByCPF(ctx, seedPatient.CPF)
		if err == nil {
			log.Warn().Str("cpf", seedPatient.CPF).Msg("patient already exists, skipping")
			return nil
		}
		if !apperr.IsNotFound(err) {
			return err
		}

		owner, err := users.GetByUsername(ctx, "patient")
		if err != nil {
			return err
		}
		if owner.Patient != nil {
			log.Warn().Str("username", owner.Username).Msg("user already has a patient record, skipping")
			return nil
		}
		req := seedPatient
		req.UserID = owner.ID.String()
		if _, err := patients.Create(ctx, req); err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		log.Info().Str("cpf", req.CPF).Msg("patient created")
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
