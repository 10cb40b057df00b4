// Package storage persists district aggregates to export sinks. Aggregates
// remain derived data; sinks are batch exports, not the source of truth.
package storage

import (
	"context"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

// AggregateWriter is the interface any export backend must satisfy. Writers
// also implement pipeline.AggregatePublisher.
type AggregateWriter interface {
	PublishAggregates(ctx context.Context, snapshot *domain.Snapshot) error
	Close() error
}
