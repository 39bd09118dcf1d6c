package data

import (
	"fmt"

	"github.com/lk2023060901/app-idea-analyzer/internal/conf"
	ideabiz "github.com/lk2023060901/app-idea-analyzer/internal/idea/biz"
	ideadata "github.com/lk2023060901/app-idea-analyzer/internal/idea/data"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/database"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/redis"
	"go.uber.org/zap"
)

// Data holds the store clients for the configured driver. Only one of DB
// and Redis is set.
type Data struct {
	DB       *database.DB
	Redis    *redis.Client
	IdeaRepo ideabiz.IdeaRepo
}

// NewData opens the store selected by store.driver and returns a cleanup
// function that closes it
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	switch config.Store.Driver {
	case conf.StoreDriverPostgres:
		return newPostgresData(config, log)
	case conf.StoreDriverRedis:
		return newRedisData(config, log)
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", config.Store.Driver)
}

func newPostgresData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.AutoMigrate(&ideadata.IdeaPO{}); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}

	return &Data{DB: db, IdeaRepo: ideadata.NewIdeaRepo(db)}, cleanup, nil
}

func newRedisData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	client, err := redis.New(&config.Redis, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
	}

	return &Data{Redis: client, IdeaRepo: ideadata.NewRedisIdeaRepo(client)}, cleanup, nil
}
