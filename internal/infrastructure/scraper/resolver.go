package scraper

import (
	"context"
	"sync"

	"github.com/stockwatch/backend/internal/domain/location"
	"github.com/stockwatch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LocationSource performs a live postal-code lookup by driving the catalog
// page. Implemented by Browser; faked in tests.
type LocationSource interface {
	LookupLocation(ctx context.Context, postalCode string) (*location.Resolution, error)
}

// Resolver maps postal codes to catalog partitions. Resolution order: the
// process-lifetime cache, then the deterministic range table (no network),
// then a live browser lookup. Results are cached by input code and immutable
// once produced.
type Resolver struct {
	mu     sync.Mutex
	cache  map[string]*location.Resolution
	source LocationSource
	logger *zap.Logger
}

// NewResolver creates a resolver backed by the given live source
func NewResolver(source LocationSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cache:  make(map[string]*location.Resolution),
		source: source,
		logger: logger,
	}
}

// Resolve returns the partition resolution for a postal code, or
// shared.ErrLocationNotServiceable when neither a range rule nor the live
// lookup produced one. Callers must treat that as "service unavailable for
// this code", not "no delivery to this code".
func (r *Resolver) Resolve(ctx context.Context, postalCode string) (*location.Resolution, error) {
	r.mu.Lock()
	if cached, ok := r.cache[postalCode]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	if res, ok := location.ResolveByRange(postalCode); ok {
		r.logger.Debug("resolved by range rule",
			zap.String("postal_code", postalCode),
			zap.String("partition", res.PartitionName),
			zap.String("canonical_code", res.CanonicalCode),
		)
		r.store(postalCode, res)
		return res, nil
	}

	res, err := r.source.LookupLocation(ctx, postalCode)
	if err != nil {
		r.logger.Error("live location lookup failed",
			zap.String("postal_code", postalCode),
			zap.Error(err),
		)
		return nil, shared.ErrLocationNotServiceable
	}
	if res == nil {
		return nil, shared.ErrLocationNotServiceable
	}

	r.store(postalCode, res)
	return res, nil
}

func (r *Resolver) store(postalCode string, res *location.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[postalCode] = res
}
