package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

const (
	PackagesCacheKey = "gymcore:catalog:packages"
	TiersCacheKey    = "gymcore:catalog:tiers"
)

// CachedCatalog Redis read-through 快取
//
// 快取失效或 Redis 無法使用時直接讀取來源目錄，只記錄警告；
// 目錄讀取不會因為快取故障而失敗。
type CachedCatalog struct {
	next   Source
	client redis.Cmdable
	ttl    time.Duration
	log    logger.Logger
}

var _ Source = (*CachedCatalog)(nil)

func NewCachedCatalog(next Source, client redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, client: client, ttl: ttl, log: log}
}

// FindPackage 從快取的套票列表中查找
func (c *CachedCatalog) FindPackage(ctx context.Context, id catalog.PackageID) (catalog.Package, error) {
	packages, err := c.ListPackages(ctx)
	if err != nil {
		return catalog.Package{}, err
	}
	for _, p := range packages {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Package{}, catalog.ErrPackageNotFound.WithContext("package_id", string(id))
}

func (c *CachedCatalog) ListPackages(ctx context.Context) ([]catalog.Package, error) {
	var packages []catalog.Package
	if c.load(ctx, PackagesCacheKey, &packages) {
		return packages, nil
	}

	packages, err := c.next.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, PackagesCacheKey, packages)
	return packages, nil
}

func (c *CachedCatalog) ListTiers(ctx context.Context) ([]catalog.MembershipTier, error) {
	var tiers []catalog.MembershipTier
	if c.load(ctx, TiersCacheKey, &tiers) {
		return tiers, nil
	}

	tiers, err := c.next.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, TiersCacheKey, tiers)
	return tiers, nil
}

// Invalidate 清除快取（目錄設定變更後呼叫）
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, PackagesCacheKey, TiersCacheKey).Err()
}

// load 命中時回傳 true
func (c *CachedCatalog) load(ctx context.Context, key string, dest interface{}) bool {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("catalog cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.log.Warn("catalog cache entry corrupted", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (c *CachedCatalog) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("catalog cache encode failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("catalog cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
