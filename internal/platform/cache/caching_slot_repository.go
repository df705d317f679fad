// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mindcare_backend/internal/feature/booking/domain/entity"
	"mindcare_backend/internal/feature/booking/usecase"
)

// DefaultSlotTTL is how long a doctor's open-slot list stays cached.
const DefaultSlotTTL = time.Minute

// CachingSlotRepository decorates a SlotRepository with Redis caching of open slots.
// Writes that change a doctor's open slots invalidate that doctor's entry.
type CachingSlotRepository struct {
	inner     usecase.SlotRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.SlotRepository = (*CachingSlotRepository)(nil)

// NewCachingSlotRepository decorates a SlotRepository with Redis caching.
// If ttl is 0, it defaults to DefaultSlotTTL. If namespace is empty, it uses "slots".
func NewCachingSlotRepository(rdb *redis.Client, ttl time.Duration, inner usecase.SlotRepository, namespace string) *CachingSlotRepository {
	if ttl <= 0 {
		ttl = DefaultSlotTTL
	}
	if namespace == "" {
		namespace = "slots"
	}
	return &CachingSlotRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// CreateBatch inserts slots and invalidates the open-slot entry of every affected doctor.
func (c *CachingSlotRepository) CreateBatch(ctx context.Context, slots []entity.Slot) error {
	if err := c.inner.CreateBatch(ctx, slots); err != nil {
		return err
	}
	if c.rdb == nil || len(slots) == 0 {
		return nil
	}

	seen := map[uint]struct{}{}
	keys := make([]string, 0, 1)
	for _, s := range slots {
		if _, ok := seen[s.DoctorID]; ok {
			continue
		}
		seen[s.DoctorID] = struct{}{}
		keys = append(keys, c.cacheKey(s.DoctorID))
	}
	c.invalidate(ctx, keys...)
	return nil
}

// FindOpenByDoctor checks the cache first, then falls back to the inner repository.
func (c *CachingSlotRepository) FindOpenByDoctor(ctx context.Context, doctorID uint) ([]entity.Slot, error) {
	if c.rdb == nil {
		return c.inner.FindOpenByDoctor(ctx, doctorID)
	}

	key := c.cacheKey(doctorID)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Slot
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.FindOpenByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// FindByID is never cached: booking decisions need the current flag.
func (c *CachingSlotRepository) FindByID(ctx context.Context, id uint) (*entity.Slot, error) {
	return c.inner.FindByID(ctx, id)
}

// Reserve books the slot and drops the doctor's open-slot entry.
func (c *CachingSlotRepository) Reserve(ctx context.Context, b *entity.Booking) error {
	if err := c.inner.Reserve(ctx, b); err != nil {
		return err
	}
	if c.rdb != nil {
		c.invalidate(ctx, c.cacheKey(b.DoctorID))
	}
	return nil
}

// invalidate deletes cache keys. Failures are logged and otherwise ignored; the TTL bounds staleness.
func (c *CachingSlotRepository) invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("slot cache invalidation failed", "error", err, "keys", keys)
	}
}

// cacheKey generates the open-slot key for a doctor.
func (c *CachingSlotRepository) cacheKey(doctorID uint) string {
	return fmt.Sprintf("%s:doctor:%d:open", c.namespace, doctorID)
}
