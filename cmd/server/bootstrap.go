package main

import (
	"context"
	"fmt"

	"github.com/itinventory/inventory/internal/config"
	"github.com/itinventory/inventory/internal/handlers"
	"github.com/itinventory/inventory/internal/metrics"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
	"github.com/itinventory/inventory/internal/utils"
	"github.com/itinventory/inventory/pkg/logger"
	"github.com/itinventory/inventory/web"
	"gorm.io/gorm"
)

// appServices holds everything the routes need.
type appServices struct {
	db       *gorm.DB
	metrics  *metrics.Metrics
	sessions *session.Manager

	auth         *handlers.AuthHandler
	pages        *handlers.PageHandler
	inventory    *handlers.InventoryHandler
	transactions *handlers.TransactionHandler
	hostnames    *handlers.HostnameHandler
	admin        *handlers.AdminHandler
	health       *handlers.HealthHandler
}

// bootstrap initializes logging, the database, services and handlers.
func bootstrap(ctx context.Context, cfg *config.Config) (*appServices, error) {
	logger.Init(cfg.Log.Level)
	utils.SetJWTSecret(cfg.JWT.Secret)

	db, err := models.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := models.Migrate(ctx, db); err != nil {
		models.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	m := metrics.New()
	if err := m.WatchDB(db, "inventory", "transactions", "hostnames", "logs", "dropdowns"); err != nil {
		logger.Warn().Err(err).Msg("Failed to register database metrics")
	}

	auth, err := services.NewAuthService(cfg, m)
	if err != nil {
		models.Close(db)
		return nil, fmt.Errorf("auth: %w", err)
	}

	tfs, err := web.TemplatesFS()
	if err != nil {
		models.Close(db)
		return nil, err
	}
	views, err := handlers.LoadTemplates(tfs)
	if err != nil {
		models.Close(db)
		return nil, err
	}

	audit := services.NewAuditLogger()
	inventory := services.NewInventoryService(db, audit, m)
	transactions := services.NewTransactionService(db, audit, m)
	hostnames := services.NewHostnameService(db, audit, m)
	dropdowns := services.NewDropdownService(db, m)
	sessions := session.NewManager(cfg)

	return &appServices{
		db:       db,
		metrics:  m,
		sessions: sessions,

		auth:         handlers.NewAuthHandler(views, sessions, auth),
		pages:        handlers.NewPageHandler(views, sessions),
		inventory:    handlers.NewInventoryHandler(views, sessions, inventory, dropdowns),
		transactions: handlers.NewTransactionHandler(views, sessions, transactions, inventory, hostnames),
		hostnames:    handlers.NewHostnameHandler(views, sessions, hostnames),
		admin:        handlers.NewAdminHandler(views, sessions, services.NewLogService(db), dropdowns),
		health:       handlers.NewHealthHandler(db),
	}, nil
}

// shutdown releases the database pool.
func (s *appServices) shutdown() {
	if err := models.Close(s.db); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database")
		return
	}
	logger.Info().Msg("Database closed")
}
