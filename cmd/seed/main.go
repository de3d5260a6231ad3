package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/config"
	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/observability"
	"github.com/spec-kit/asset-tracker/internal/persistence"
	"github.com/spec-kit/asset-tracker/internal/repository"
	"github.com/spec-kit/asset-tracker/internal/service"
)

type categorySeed struct {
	name        string
	code        string
	description string
}

var defaultCategories = []categorySeed{
	{"Laptops", "LAP", "Portable computers"},
	{"Desktops", "DSK", "Desktop computers and workstations"},
	{"Monitors", "MON", "Displays"},
	{"Mobile Phones", "PHN", "Company phones"},
	{"Printers", "PRN", "Printers and scanners"},
	{"Networking", "NET", "Routers, switches and access points"},
	{"Peripherals", "PER", "Keyboards, mice and headsets"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	if cfg.Postgres.DSN == "" {
		logger.Fatal("POSTGRES_DSN is required for seeding")
	}
	backend, err := persistence.OpenBackend(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to open storage backend", zap.Error(err))
	}
	defer backend.Close()
	store, tx := backend.Store, backend.Tx

	admin, err := seedAdmin(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}

	categories := service.NewCategoryService(service.CategoryDependencies{Store: store, Tx: tx, Logger: logger})
	if err := seedCategories(ctx, categories, admin.ID, logger); err != nil {
		logger.Fatal("failed to seed categories", zap.Error(err))
	}
	logger.Info("seed complete")
}

func seedAdmin(ctx context.Context, cfg *config.Config, store *repository.Store, logger *zap.Logger) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(getEnv("SEED_ADMIN_EMAIL", "admin@example.com")))
	existing, err := store.Users.GetByEmail(ctx, email)
	if err == nil {
		logger.Info("admin already present", zap.String("email", email))
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		return nil, errors.New("SEED_ADMIN_PASSWORD must be set to create the admin account")
	}
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{UserRepo: store.Users, Logger: logger})
	session, err := authService.CreateUser(ctx, getEnv("SEED_ADMIN_NAME", "Administrator"), email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logger.Info("admin created", zap.String("email", email))
	return session.User, nil
}

func seedCategories(ctx context.Context, categories *service.CategoryService, actorID string, logger *zap.Logger) error {
	existing, err := categories.List(ctx, repository.CategoryFilter{})
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(existing))
	for _, c := range existing {
		present[c.Code] = true
		present[strings.ToLower(c.Name)] = true
	}

	for _, seed := range defaultCategories {
		if present[seed.code] || present[strings.ToLower(seed.name)] {
			continue
		}
		name, code, description := seed.name, seed.code, seed.description
		if _, err := categories.Create(ctx, actorID, service.CategoryInput{
			Name:        &name,
			Code:        &code,
			Description: &description,
		}); err != nil {
			return err
		}
		logger.Info("category created", zap.String("code", code))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
