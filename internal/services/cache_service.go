package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetops/internal/models"
	"fleetops/pkg/cache"
	"fleetops/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CacheService is the read cache in front of entity reads and list views.
// Every mutating workflow operation must call the matching Invalidate before
// returning, so the very next read observes fresh data. Cache failures are
// logged and tolerated: the entity store is the source of truth and the TTL
// bounds staleness.
type CacheService interface {
	GetMovement(ctx context.Context, id primitive.ObjectID) (*models.Movement, bool)
	SetMovement(ctx context.Context, movement *models.Movement)
	InvalidateMovement(ctx context.Context, id primitive.ObjectID)

	GetPreparation(ctx context.Context, id primitive.ObjectID) (*models.Preparation, bool)
	SetPreparation(ctx context.Context, preparation *models.Preparation)
	InvalidatePreparation(ctx context.Context, id primitive.ObjectID)

	GetSearch(ctx context.Context, key string, dest interface{}) bool
	SetSearch(ctx context.Context, key string, value interface{})

	Ping(ctx context.Context) error
}

type cacheService struct {
	store     cache.Store
	logger    *logger.Logger
	ttl       time.Duration
	keyPrefix string
}

func NewCacheService(store cache.Store, log *logger.Logger, ttl time.Duration) CacheService {
	return &cacheService{
		store:     store,
		logger:    log,
		ttl:       ttl,
		keyPrefix: "fleetops",
	}
}

func (s *cacheService) movementKey(id primitive.ObjectID) string {
	return fmt.Sprintf("%s:movement:%s", s.keyPrefix, id.Hex())
}

func (s *cacheService) preparationKey(id primitive.ObjectID) string {
	return fmt.Sprintf("%s:preparation:%s", s.keyPrefix, id.Hex())
}

// MovementSearchKey namespaces list/search views so a prefix scan can drop
// all of them on any movement mutation.
func MovementSearchKey(plate string, page, limit int) string {
	return fmt.Sprintf("fleetops:movements:search:%s:%d:%d", plate, page, limit)
}

func PreparationSearchKey(plate string, page, limit int) string {
	return fmt.Sprintf("fleetops:preparations:search:%s:%d:%d", plate, page, limit)
}

func (s *cacheService) GetMovement(ctx context.Context, id primitive.ObjectID) (*models.Movement, bool) {
	var movement models.Movement
	if err := s.store.Get(ctx, s.movementKey(id), &movement); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("movement cache read failed")
		}
		return nil, false
	}
	return &movement, true
}

func (s *cacheService) SetMovement(ctx context.Context, movement *models.Movement) {
	if err := s.store.Set(ctx, s.movementKey(movement.ID), movement, s.ttl); err != nil {
		s.logger.WithError(err).Warn("movement cache write failed")
	}
}

func (s *cacheService) InvalidateMovement(ctx context.Context, id primitive.ObjectID) {
	if err := s.store.Delete(ctx, s.movementKey(id)); err != nil {
		s.logger.WithError(err).Warn("movement cache invalidation failed")
	}
	if _, err := s.store.DeletePattern(ctx, s.keyPrefix+":movements:*"); err != nil {
		s.logger.WithError(err).Warn("movement list cache invalidation failed")
	}
}

func (s *cacheService) GetPreparation(ctx context.Context, id primitive.ObjectID) (*models.Preparation, bool) {
	var preparation models.Preparation
	if err := s.store.Get(ctx, s.preparationKey(id), &preparation); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("preparation cache read failed")
		}
		return nil, false
	}
	return &preparation, true
}

func (s *cacheService) SetPreparation(ctx context.Context, preparation *models.Preparation) {
	if err := s.store.Set(ctx, s.preparationKey(preparation.ID), preparation, s.ttl); err != nil {
		s.logger.WithError(err).Warn("preparation cache write failed")
	}
}

func (s *cacheService) InvalidatePreparation(ctx context.Context, id primitive.ObjectID) {
	if err := s.store.Delete(ctx, s.preparationKey(id)); err != nil {
		s.logger.WithError(err).Warn("preparation cache invalidation failed")
	}
	if _, err := s.store.DeletePattern(ctx, s.keyPrefix+":preparations:*"); err != nil {
		s.logger.WithError(err).Warn("preparation list cache invalidation failed")
	}
}

func (s *cacheService) GetSearch(ctx context.Context, key string, dest interface{}) bool {
	if err := s.store.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("search cache read failed")
		}
		return false
	}
	return true
}

func (s *cacheService) SetSearch(ctx context.Context, key string, value interface{}) {
	if err := s.store.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.WithError(err).Warn("search cache write failed")
	}
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
