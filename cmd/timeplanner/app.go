package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"time-planner/internal/config"
	"time-planner/internal/logging"
	"time-planner/internal/repository"
	"time-planner/internal/service"
)

// app holds everything the subcommands share.
type app struct {
	cfg        config.Config
	log        zerolog.Logger
	db         *gorm.DB
	store      *repository.Store
	accounts   *service.AccountService
	categories *service.CategoryService
	templates  *service.TemplateService
	tasks      *service.TaskService
	agenda     *service.AgendaService
	stats      *service.StatsService
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL, logging.Component(log, "db"))
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	store := repository.NewStore(db)
	migrator := service.NewMigrator(store, logging.Component(log, "migration"))

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		store:      store,
		accounts:   service.NewAccountService(store, store.Accounts, migrator, cfg.BcryptCost, logging.Component(log, "accounts")),
		categories: service.NewCategoryService(store),
		templates:  service.NewTemplateService(store),
		tasks:      service.NewTaskService(store),
		agenda:     service.NewAgendaService(store),
		stats:      service.NewStatsService(store),
	}, nil
}

func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close db")
	}
}
