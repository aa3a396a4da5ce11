package repository

import (
	"context"
	"sync"
	"time"
)

type roleEntry struct {
	role      string
	expiresAt time.Time
}

// MemoryRoleCache is the in-process fallback when Redis is unavailable.
type MemoryRoleCache struct {
	roles sync.Map
}

func NewMemoryRoleCache() *MemoryRoleCache {
	return &MemoryRoleCache{}
}

func (r *MemoryRoleCache) GetRole(ctx context.Context, userID string) (string, error) {
	val, ok := r.roles.Load(userID)
	if !ok {
		return "", nil
	}
	entry := val.(roleEntry)
	if time.Now().After(entry.expiresAt) {
		r.roles.Delete(userID)
		return "", nil
	}
	return entry.role, nil
}

func (r *MemoryRoleCache) SetRole(ctx context.Context, userID string, role string, ttl time.Duration) error {
	r.roles.Store(userID, roleEntry{role: role, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (r *MemoryRoleCache) InvalidateRole(ctx context.Context, userID string) error {
	r.roles.Delete(userID)
	return nil
}
