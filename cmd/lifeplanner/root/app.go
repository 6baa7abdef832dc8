package root

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lifeplanner/internal/backend"
	"lifeplanner/internal/config"
	"lifeplanner/internal/logging"
	"lifeplanner/internal/repository"
)

// app holds what every command needs: settings, a logger and the database.
type app struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB
}

func openApp() (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = log.Sync()
	}
	return &app{cfg: cfg, log: log, db: db}, cleanup, nil
}

func (a *app) server() *backend.Server {
	return backend.NewServer(a.db,
		backend.WithLogger(a.log),
		backend.WithSessionTTL(a.cfg.SessionTTL),
		backend.WithEmailVerification(a.cfg.RequireEmailVerification),
	)
}
