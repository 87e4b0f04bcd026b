package ports

import (
	"context"

	"rillstats/internal/core/domain"
)

// Sink receives every successfully decoded digest. Implementations are
// chosen once at startup.
type Sink interface {
	Store(ctx context.Context, digest *domain.Digest) error
	Close() error
}

type PointTransformer interface {
	Transform(digest *domain.Digest) [4]domain.Point
}
