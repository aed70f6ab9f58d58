package gallery

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// sizeCache memoizes size reports for a single Generate call so an asset
// referenced from several galleries is looked up once. Callers still sum
// the returned report once per reference.
type sizeCache struct {
	mu       sync.RWMutex
	reports  map[AssetID]AssetSizeReport
	registry AssetRegistry
	resolver *Resolver
	logger   *zap.Logger
}

func newSizeCache(registry AssetRegistry, resolver *Resolver, logger *zap.Logger) *sizeCache {
	return &sizeCache{
		reports:  make(map[AssetID]AssetSizeReport),
		registry: registry,
		resolver: resolver,
		logger:   logger,
	}
}

// get tries a read lock first. Concurrent misses may load the same id
// twice; the first stored report wins.
func (c *sizeCache) get(ctx context.Context, id AssetID) AssetSizeReport {
	c.mu.RLock()
	rep, ok := c.reports[id]
	c.mu.RUnlock()
	if ok {
		return rep
	}

	rep = c.load(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.reports[id]; ok {
		return existing
	}
	c.reports[id] = rep
	return rep
}

func (c *sizeCache) load(ctx context.Context, id AssetID) AssetSizeReport {
	asset, err := c.registry.Lookup(ctx, id)
	if err != nil {
		reason := "not found"
		if !errors.Is(err, ErrAssetNotFound) {
			reason = err.Error()
			c.logger.Warn("asset lookup failed", zap.Int64("asset_id", int64(id)), zap.Error(err))
		}
		return AssetSizeReport{
			AssetID: id,
			Missing: true,
			Errors:  []RenditionError{{Name: RenditionAsset, Reason: reason}},
		}
	}
	return c.resolver.Resolve(asset)
}
