package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// EstimateArchiveStore provides the read access the archiver needs. The
// Postgres estimate store satisfies it implicitly.
type EstimateArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Estimate, error)
}

// ArchiveImpl implements domain.Archiver by querying aged estimates,
// serializing them to JSONL, and uploading the result to blob storage.
//
// Deletion of the archived records from the primary store is intentionally
// NOT performed here; pruning is a separate, explicit step taken only after
// the archive upload succeeded.
type ArchiveImpl struct {
	writer    domain.BlobWriter
	estimates EstimateArchiveStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, estimates EstimateArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:    writer,
		estimates: estimates,
	}
}

// ArchiveEstimates uploads all estimates created before the cutoff as one
// JSONL object and returns the object key and record count. A cutoff with no
// matching records uploads nothing and returns an empty key.
func (a *ArchiveImpl) ArchiveEstimates(ctx context.Context, before time.Time) (string, int, error) {
	ests, err := a.estimates.ListBefore(ctx, before)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive estimates query: %w", err)
	}
	if len(ests) == 0 {
		return "", 0, nil
	}

	buf, err := marshalJSONL(ests)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive estimates marshal: %w", err)
	}

	key := archiveKey(before)
	if err := a.writer.Put(ctx, key, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", 0, fmt.Errorf("s3blob: archive estimates upload: %w", err)
	}

	return key, len(ests), nil
}

// archiveKey builds the object key for an archive file, partitioned by the
// year and month of the cutoff and suffixed with the cutoff's Unix time so
// repeated runs within a month never clobber each other.
//
//	archive/estimates/2026/08/estimates-1756512000.jsonl
func archiveKey(before time.Time) string {
	return fmt.Sprintf("archive/estimates/%s/estimates-%d.jsonl",
		before.UTC().Format("2006/01"), before.UTC().Unix())
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
