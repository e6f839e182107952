package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diyadey08/Mordex/internal/domain"
)

type fakeWriter struct {
	path        string
	contentType string
	data        []byte
	err         error
}

func (f *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.path = path
	f.contentType = contentType
	b, _ := io.ReadAll(data)
	f.data = b
	return nil
}

type fakeArchiveStore struct {
	ests []domain.Estimate
	err  error
}

func (f *fakeArchiveStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Estimate, error) {
	return f.ests, f.err
}

func TestArchiveEstimates(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("uploads one JSONL line per estimate", func(t *testing.T) {
		writer := &fakeWriter{}
		store := &fakeArchiveStore{ests: []domain.Estimate{
			{ID: "est-1", CreatedAt: cutoff.Add(-48 * time.Hour)},
			{ID: "est-2", CreatedAt: cutoff.Add(-24 * time.Hour)},
		}}

		key, count, err := NewArchiver(writer, store).ArchiveEstimates(context.Background(), cutoff)
		require.NoError(t, err)

		assert.Equal(t, 2, count)
		assert.Equal(t, key, writer.path)
		assert.True(t, strings.HasPrefix(key, "archive/estimates/2026/08/"), "key = %s", key)
		assert.Equal(t, "application/x-ndjson", writer.contentType)

		lines := bytes.Split(bytes.TrimSpace(writer.data), []byte("\n"))
		assert.Len(t, lines, 2)
	})

	t.Run("uploads nothing when there are no aged records", func(t *testing.T) {
		writer := &fakeWriter{}
		key, count, err := NewArchiver(writer, &fakeArchiveStore{}).ArchiveEstimates(context.Background(), cutoff)
		require.NoError(t, err)

		assert.Empty(t, key)
		assert.Zero(t, count)
		assert.Empty(t, writer.path)
	})

	t.Run("propagates upload failure", func(t *testing.T) {
		writer := &fakeWriter{err: errors.New("access denied")}
		store := &fakeArchiveStore{ests: []domain.Estimate{{ID: "est-1"}}}

		_, _, err := NewArchiver(writer, store).ArchiveEstimates(context.Background(), cutoff)
		assert.Error(t, err)
	})
}
