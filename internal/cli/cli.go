package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"aralis/internal/cache"
	"aralis/internal/config"
	"aralis/internal/database"
	applogger "aralis/internal/logger"
	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/internal/seeder"
	"aralis/internal/services"
)

// NewRootCommand builds the root aralisctl command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "aralisctl",
		Short:         "Aralis storefront administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCreateAdminCmd())
	root.AddCommand(newSeedCmd())

	return root
}

// Execute runs the aralisctl CLI.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// runWithDB loads the configuration, opens and migrates the database, and hands it to fn.
func runWithDB(ctx context.Context, fn func(ctx context.Context, cfg config.Config, db *gorm.DB, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DBDriver == "memory" {
		return fmt.Errorf("DB_DRIVER=memory has no persistent store to manage")
	}
	log, err := applogger.New(cfg.LogLevel, "console")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	return fn(ctx, cfg, db, log)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithDB(cmd.Context(), func(context.Context, config.Config, *gorm.DB, *zap.Logger) error {
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account, or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			return runWithDB(cmd.Context(), func(_ context.Context, _ config.Config, db *gorm.DB, _ *zap.Logger) error {
				user, created, err := CreateAdmin(repositories.NewGORMUserRepository(db), name, email, password)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", user.Email, user.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "user %s promoted to admin\n", user.Email)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("name", "Administrador", "Display name")
	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("password", "", "Password for a new account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// CreateAdmin creates an admin account, or promotes the existing account with that email.
// created reports which of the two happened.
func CreateAdmin(users repositories.UserRepository, name, email, password string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := users.GetByEmail(email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}
	if err == nil {
		if err := users.UpdateRole(existing.ID, models.RoleAdmin); err != nil {
			return nil, false, fmt.Errorf("failed to promote %s: %w", email, err)
		}
		existing.Role = models.RoleAdmin
		return existing, false, nil
	}

	if !services.IsStrongPassword(password) {
		return nil, false, fmt.Errorf("password must be at least %d characters and include upper case, lower case, a digit and a symbol", services.MinPasswordLength)
	}
	hash, err := services.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{Name: name, Email: email, Password: hash, Role: models.RoleAdmin}
	if err := users.Create(user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, true, nil
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithDB(cmd.Context(), func(ctx context.Context, cfg config.Config, db *gorm.DB, log *zap.Logger) error {
				store, err := cache.NewStore(ctx, cache.Config{
					Driver:     cfg.CacheDriver,
					Addr:       cfg.RedisAddr,
					Password:   cfg.RedisPassword,
					DB:         cfg.RedisDB,
					DefaultTTL: cfg.CacheTTL,
				}, log)
				if err != nil {
					return err
				}
				defer store.Close()

				created, err := SeedCatalog(ctx, repositories.NewGORMProductRepository(db), store, cfg.CacheTTL, log)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d products seeded\n", created)
				return nil
			})
		},
	}
}

// SeedCatalog loads the starter catalog through store, so servers sharing the
// cache stop serving the old catalog as soon as a product is added.
func SeedCatalog(ctx context.Context, products repositories.ProductRepository, store cache.Store, ttl time.Duration, log *zap.Logger) (int, error) {
	return seeder.Catalog(ctx, services.NewProductService(products, store, ttl, log), log)
}
