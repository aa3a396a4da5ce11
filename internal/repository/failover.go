package repository

import (
	"context"
	"sync/atomic"
	"time"

	"leoride/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverRoleCache serves from the primary cache until it errors, then
// switches to the fallback and probes the primary once a minute.
type FailoverRoleCache struct {
	primary   domain.RoleCache
	fallback  domain.RoleCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverRoleCache(primary, fallback domain.RoleCache, logger *zerolog.Logger) *FailoverRoleCache {
	return &FailoverRoleCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverRoleCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary role cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverRoleCache) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute
}

func (r *FailoverRoleCache) GetRole(ctx context.Context, userID string) (string, error) {
	if !r.isDown.Load() {
		role, err := r.primary.GetRole(ctx, userID)
		if err == nil {
			return role, nil
		}
		r.markDown(err)
	} else if r.shouldRetryPrimary() {
		role, err := r.primary.GetRole(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return role, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetRole(ctx, userID)
}

func (r *FailoverRoleCache) SetRole(ctx context.Context, userID string, role string, ttl time.Duration) error {
	if !r.isDown.Load() {
		err := r.primary.SetRole(ctx, userID, role, ttl)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetRole(ctx, userID, role, ttl)
}

func (r *FailoverRoleCache) InvalidateRole(ctx context.Context, userID string) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateRole(ctx, userID)
		if err == nil {
			// Keep the fallback coherent in case we flip over later.
			_ = r.fallback.InvalidateRole(ctx, userID)
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.InvalidateRole(ctx, userID)
}
