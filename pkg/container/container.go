package container

import (
	"context"

	"deliveryops-backend/internal/config"
	importerHandler "deliveryops-backend/internal/domains/importer/handler"
	importerService "deliveryops-backend/internal/domains/importer/service"
	locationHandler "deliveryops-backend/internal/domains/location/handler"
	locationService "deliveryops-backend/internal/domains/location/service"
	"deliveryops-backend/internal/infrastructure/backend"
	infraCache "deliveryops-backend/internal/infrastructure/cache"
	"deliveryops-backend/pkg/cache"

	"github.com/rs/zerolog/log"
)

// Container wires the application's dependency graph: config, the redis
// cache, the backend client, and the import/location services with their
// handlers. One instance per process.
type Container struct {
	Config *config.Config
	Cache  cache.Cache

	Backend          *backend.Client
	ReferenceService locationService.ReferenceServiceInterface
	ImportService    importerService.ImportServiceInterface

	ImportHandler   *importerHandler.Handler
	LocationHandler *locationHandler.Handler
}

// NewContainer initializes all dependencies. A failed redis ping is logged
// but not fatal: the reference cache degrades to pass-through reads.
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Redis unreachable, reference data will be fetched on every upload")
	}

	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Timeout)

	referenceService := locationService.NewReferenceService(backendClient, redisCache)
	importService := importerService.NewImportService(backendClient, referenceService)

	return &Container{
		Config:           cfg,
		Cache:            redisCache,
		Backend:          backendClient,
		ReferenceService: referenceService,
		ImportService:    importService,
		ImportHandler:    importerHandler.NewHandler(importService),
		LocationHandler:  locationHandler.NewHandler(referenceService),
	}, nil
}

// Cleanup releases external connections.
func (c *Container) Cleanup() {
	if closer, ok := c.Cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close cache connection")
		}
	}
}
