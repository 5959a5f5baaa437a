package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/internal/models"
)

const rolesDropdownKey = "roles:dropdown"

type roleLister interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
}

// RoleSource serves the role dropdown of the users screen from the cache,
// falling back to the club API on a miss. The cached entry is shared by all
// accounts and dropped on every role mutation made through the portal.
type RoleSource struct {
	client roleLister
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewRoleSource constructs a cached role source. A nil or disabled cache
// always reads through.
func NewRoleSource(client roleLister, cache *CacheService, ttl time.Duration, logger *zap.Logger) *RoleSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleSource{client: client, cache: cache, ttl: ttl, logger: logger}
}

// Roles returns the dropdown entries.
func (s *RoleSource) Roles(ctx context.Context) ([]models.Role, error) {
	var cached []models.Role
	if hit, err := s.cache.Get(ctx, rolesDropdownKey, &cached); err == nil && hit {
		return cached, nil
	}

	roles, err := s.client.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, rolesDropdownKey, roles, s.ttl); err != nil {
		s.logger.Warn("role dropdown not cached", zap.Error(err))
	}
	return roles, nil
}

// Invalidate drops the cached dropdown so the next read hits the club API.
func (s *RoleSource) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, rolesDropdownKey); err != nil {
		s.logger.Warn("role dropdown invalidation failed", zap.Error(err))
	}
}
