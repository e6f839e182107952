package domain

import (
	"context"
	"io"
	"time"
)

// EstimateStore persists completed estimates for history and reporting.
type EstimateStore interface {
	Insert(ctx context.Context, est Estimate) error
	GetByID(ctx context.Context, id string) (Estimate, error)
	ListRecent(ctx context.Context, limit int) ([]Estimate, error)
	// ListBefore returns estimates created strictly before the cutoff,
	// oldest first, for archival.
	ListBefore(ctx context.Context, before time.Time) ([]Estimate, error)
	// DeleteBefore removes estimates created strictly before the cutoff and
	// returns the number of rows deleted.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// QuoteCache caches upstream quotes (native-asset prices, bridge fee quotes)
// so repeated estimates do not hammer the upstream sources. A cache miss is
// signalled with ErrNotFound; callers fall through to the live source.
type QuoteCache interface {
	SetNativePrice(ctx context.Context, asset string, usd string, ts time.Time) error
	GetNativePrice(ctx context.Context, asset string) (usd string, ts time.Time, err error)
	SetBridgeFees(ctx context.Context, asset string, fees BridgeFees) error
	GetBridgeFees(ctx context.Context, asset string) (BridgeFees, error)
}

// SignalBus is a lightweight publish/subscribe channel used to fan completed
// estimates out to the WebSocket feed.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter bounds request rates per key over a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BlobWriter uploads a single object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver exports aged estimate history to blob storage.
type Archiver interface {
	// ArchiveEstimates uploads all estimates created before the cutoff as a
	// JSONL object and returns the object key and the number of records
	// written. It does not delete anything; pruning is a separate step taken
	// only after the archive upload succeeded.
	ArchiveEstimates(ctx context.Context, before time.Time) (key string, count int, err error)
}
