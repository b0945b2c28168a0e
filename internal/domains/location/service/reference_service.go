package service

import (
	"context"
	"fmt"
	"time"

	"deliveryops-backend/internal/domains/location/model"
	"deliveryops-backend/pkg/cache"

	"github.com/rs/zerolog/log"
)

const (
	cacheKeyGovernorates = "location:governorates"
	cacheKeyCities       = "location:cities"
	referenceTTL         = 6 * time.Hour
)

// Source fetches the reference lists from the external lookup service.
type Source interface {
	Governorates(ctx context.Context) ([]model.Governorate, error)
	Cities(ctx context.Context) ([]model.City, error)
}

// ReferenceServiceInterface serves governorate/city reference data.
type ReferenceServiceInterface interface {
	ReferenceData(ctx context.Context) ([]model.Governorate, []model.City, error)
	Invalidate(ctx context.Context) error
}

type referenceService struct {
	source Source
	cache  cache.Cache
}

// NewReferenceService creates a reference data service backed by the
// lookup source with a redis read-through cache.
func NewReferenceService(source Source, c cache.Cache) ReferenceServiceInterface {
	return &referenceService{source: source, cache: c}
}

// ReferenceData returns the governorate and city lists, from cache when
// warm. A cache read failure falls back to the source; a cache write
// failure is logged and ignored.
func (s *referenceService) ReferenceData(ctx context.Context) ([]model.Governorate, []model.City, error) {
	var governorates []model.Governorate
	var cities []model.City

	govHit, err := s.cache.Get(ctx, cacheKeyGovernorates, &governorates)
	if err != nil {
		log.Warn().Err(err).Msg("Reference cache read failed, falling back to source")
		govHit = false
	}
	cityHit, err := s.cache.Get(ctx, cacheKeyCities, &cities)
	if err != nil {
		cityHit = false
	}
	if govHit && cityHit {
		return governorates, cities, nil
	}

	governorates, err = s.source.Governorates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch governorates: %w", err)
	}
	cities, err = s.source.Cities(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch cities: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKeyGovernorates, governorates, referenceTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache governorates")
	}
	if err := s.cache.Set(ctx, cacheKeyCities, cities, referenceTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache cities")
	}

	log.Info().
		Int("governorates", len(governorates)).
		Int("cities", len(cities)).
		Msg("Location reference data refreshed")

	return governorates, cities, nil
}

// Invalidate drops the cached lists so the next read refetches.
func (s *referenceService) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, cacheKeyGovernorates, cacheKeyCities)
}
