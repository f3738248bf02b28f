package session

import (
	"context"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/cache"
	"github.com/agriscope/agriscope/internal/sentinelhub"
)

const catalogCacheTTL = 6 * time.Hour

// CatalogStore caches catalog searches on disk so repeat browsing of the
// same AOI and date range doesn't hit the remote service again.
type CatalogStore struct {
	cache *cache.FileCache[[]sentinelhub.ImageDescriptor]
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		cache: cache.NewFileCache[[]sentinelhub.ImageDescriptor]("catalog", catalogCacheTTL),
	}
}

func (cs *CatalogStore) Search(ctx context.Context, client *sentinelhub.Client, query sentinelhub.CatalogQuery) ([]sentinelhub.ImageDescriptor, error) {
	if query.AOI.IsZero() {
		return nil, aoi.ErrInvalidGeometry
	}
	geometry, err := query.AOI.GeoJSON()
	if err != nil {
		return nil, err
	}
	key := cs.cache.GenerateKey(
		query.Sensor,
		string(geometry),
		query.Start.Format(time.RFC3339),
		query.End.Format(time.RFC3339),
		query.MaxCloud,
		query.Limit,
	)

	if images, ok := cs.cache.Get(key); ok {
		return images, nil
	}

	images, err := client.Catalog(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := cs.cache.Set(key, images); err != nil {
		// Cache write failures are not fatal, the caller still gets
		// the live result.
		return images, nil
	}
	return images, nil
}
